package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache"
	"github.com/gogpu/pipecache/binding"
	"github.com/gogpu/pipecache/pipeline"
	"github.com/gogpu/pipecache/vertex"
	"github.com/gogpu/wgpu/hal"
)

type layoutKey struct {
	layout       *binding.Layout
	textureState uint32
}

// layoutSet is the bind group layouts and pipeline layout of one binding
// layout variant.
type layoutSet struct {
	groups   []hal.BindGroupLayout
	pipeline hal.PipelineLayout
}

// Backend creates pipelines, bind groups and samplers on a hal.Device. It
// implements pipeline.Compiler and bindgroup.Creator.
//
// Backend is not safe for concurrent use.
type Backend struct {
	device hal.Device
	queue  hal.Queue
	label  string

	dummy    hal.Buffer
	resolver *vertex.Resolver

	layouts   map[layoutKey]*layoutSet
	pipelines map[hal.RenderPipeline]struct{}
	groups    map[hal.BindGroup]struct{}
	modules   []hal.ShaderModule
	samplers  *samplerCache

	destroyed bool
}

// New creates a backend and its zero-filled dummy vertex buffer.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := &Backend{
		device:    device,
		queue:     queue,
		label:     o.label,
		layouts:   make(map[layoutKey]*layoutSet),
		pipelines: make(map[hal.RenderPipeline]struct{}),
		groups:    make(map[hal.BindGroup]struct{}),
	}
	b.samplers = newSamplerCache(b, o.samplerLimit)

	dummy, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.name("dummy_vertex"),
		Size:  vertex.DummySize,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create dummy vertex buffer: %w", err)
	}
	queue.WriteBuffer(dummy, 0, make([]byte, vertex.DummySize))
	b.dummy = dummy

	resolverOpts := []vertex.Option{vertex.WithDummyStorage(&vertex.Storage{Native: dummy, Size: vertex.DummySize})}
	if o.maxStride > 0 {
		resolverOpts = append(resolverOpts, vertex.WithMaxStride(o.maxStride))
	}
	b.resolver = vertex.NewResolver(resolverOpts...)

	pipecache.Logger().Info("halgpu: backend created", "label", o.label, "dummySize", vertex.DummySize)
	return b, nil
}

func (b *Backend) name(s string) string {
	if b.label == "" {
		return s
	}
	return b.label + "_" + s
}

// Resolver returns the vertex resolver whose dummy buffer is this backend's
// zero-filled buffer. Pass it to pipeline.WithResolver.
func (b *Backend) Resolver() *vertex.Resolver {
	return b.resolver
}

// DummyBuffer returns the zero-filled vertex buffer.
func (b *Backend) DummyBuffer() hal.Buffer {
	return b.dummy
}

// layoutsFor returns the bind group layouts and pipeline layout of layout
// under textureState, creating them on first use. A nil layout has no groups.
func (b *Backend) layoutsFor(layout *binding.Layout, textureState uint32) (*layoutSet, error) {
	key := layoutKey{layout: layout, textureState: textureState}
	if ls, ok := b.layouts[key]; ok {
		return ls, nil
	}

	ls := &layoutSet{}
	groups := 0
	if layout != nil {
		groups = layout.Groups()
	}
	for g := range groups {
		bgl, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   b.name(fmt.Sprintf("bgl_%d", g)),
			Entries: layout.GroupEntries(g, textureState),
		})
		if err != nil {
			b.destroyLayoutSet(ls)
			return nil, fmt.Errorf("halgpu: create bind group layout %d: %w", g, err)
		}
		ls.groups = append(ls.groups, bgl)
	}

	pl, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            b.name("pipeline_layout"),
		BindGroupLayouts: ls.groups,
	})
	if err != nil {
		b.destroyLayoutSet(ls)
		return nil, fmt.Errorf("halgpu: create pipeline layout: %w", err)
	}
	ls.pipeline = pl
	b.layouts[key] = ls
	return ls, nil
}

func (b *Backend) destroyLayoutSet(ls *layoutSet) {
	if ls.pipeline != nil {
		b.device.DestroyPipelineLayout(ls.pipeline)
	}
	for _, l := range ls.groups {
		if l != nil {
			b.device.DestroyBindGroupLayout(l)
		}
	}
}

// ForgetLayout destroys the bind group and pipeline layouts created for
// layout. Pipelines and bind groups using them must be released first.
func (b *Backend) ForgetLayout(layout *binding.Layout) {
	for k, ls := range b.layouts {
		if k.layout == layout {
			b.destroyLayoutSet(ls)
			delete(b.layouts, k)
		}
	}
}

// CreateRenderPipeline implements pipeline.Compiler.
func (b *Backend) CreateRenderPipeline(req *pipeline.RenderPipelineRequest) (pipeline.Handle, error) {
	if b.destroyed {
		return nil, ErrDestroyed
	}
	module, ok := req.Effect.Module.(hal.ShaderModule)
	if !ok || module == nil {
		return nil, fmt.Errorf("%w: effect %q", ErrNotShaderModule, req.Effect.Label)
	}
	ls, err := b.layoutsFor(req.Effect.Layout, req.TextureState)
	if err != nil {
		return nil, err
	}

	buffers := make([]gputypes.VertexBufferLayout, len(req.VertexBuffers))
	for i, l := range req.VertexBuffers {
		buffers[i] = l.VertexBufferLayout
	}

	desc := &hal.RenderPipelineDescriptor{
		Label:  b.name(req.Label),
		Layout: ls.pipeline,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: req.Effect.VertexEntryPoint,
			Buffers:    buffers,
		},
		Multisample: gputypes.MultisampleState{
			Count: req.SampleCount,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  req.Topology,
			FrontFace: req.FrontFace,
			CullMode:  req.CullMode,
		},
	}
	if len(req.Targets) > 0 {
		desc.Fragment = &hal.FragmentState{
			Module:     module,
			EntryPoint: req.Effect.FragmentEntryPoint,
			Targets:    req.Targets,
		}
	}
	if ds := req.DepthStencil; ds != nil {
		face := stencilFace(ds.Stencil)
		desc.DepthStencil = &hal.DepthStencilState{
			Format:              ds.Format,
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        ds.DepthCompare,
			StencilFront:        face,
			StencilBack:         face,
			StencilReadMask:     ds.StencilReadMask,
			StencilWriteMask:    ds.StencilWriteMask,
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
		}
	}

	p, err := b.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	b.pipelines[p] = struct{}{}
	return p, nil
}

// DestroyRenderPipeline releases a pipeline returned by CreateRenderPipeline.
// It matches the release hook of pipeline.WithFlatStrategy.
func (b *Backend) DestroyRenderPipeline(h pipeline.Handle) {
	p, ok := h.(hal.RenderPipeline)
	if !ok {
		return
	}
	if _, owned := b.pipelines[p]; owned {
		delete(b.pipelines, p)
		b.device.DestroyRenderPipeline(p)
	}
}

func stencilFace(f pipeline.StencilFace) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     f.Compare,
		FailOp:      stencilOperation(f.FailOp),
		DepthFailOp: stencilOperation(f.DepthFailOp),
		PassOp:      stencilOperation(f.PassOp),
	}
}

func stencilOperation(op pipeline.StencilOp) hal.StencilOperation {
	switch op {
	case pipeline.StencilZero:
		return hal.StencilOperationZero
	case pipeline.StencilReplace:
		return hal.StencilOperationReplace
	case pipeline.StencilIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case pipeline.StencilDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case pipeline.StencilInvert:
		return hal.StencilOperationInvert
	case pipeline.StencilIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case pipeline.StencilDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

// Destroy releases every object the backend created. The backend is
// unusable afterwards.
func (b *Backend) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	for g := range b.groups {
		b.device.DestroyBindGroup(g)
	}
	clear(b.groups)
	for p := range b.pipelines {
		b.device.DestroyRenderPipeline(p)
	}
	clear(b.pipelines)
	for _, ls := range b.layouts {
		b.destroyLayoutSet(ls)
	}
	clear(b.layouts)
	b.samplers.clear()
	for _, m := range b.modules {
		b.device.DestroyShaderModule(m)
	}
	b.modules = nil
	if b.dummy != nil {
		b.device.DestroyBuffer(b.dummy)
		b.dummy = nil
	}
	pipecache.Logger().Info("halgpu: backend destroyed", "label", b.label)
}
