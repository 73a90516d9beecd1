package pipeline

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/binding"
	"github.com/gogpu/pipecache/vertex"
)

// Handle is an opaque compiled pipeline owned by the backend.
type Handle any

// Effect is a compiled shader program together with the metadata the cache
// needs: its identity, its vertex inputs and its binding layout.
type Effect struct {
	// ID identifies the program in the shader stage slot. Two effects with
	// the same ID must be interchangeable.
	ID uint64

	Label string

	// Module is the backend shader module.
	Module any

	VertexEntryPoint   string
	FragmentEntryPoint string

	// Attributes are the vertex inputs in declaration order.
	Attributes []vertex.Attribute

	// Layout is the binding layout of the program.
	Layout *binding.Layout
}

var effectIDs atomic.Uint64

// NewEffect creates an effect with a process-unique ID and the vs_main and
// fs_main entry points.
func NewEffect(label string, module any, layout *binding.Layout, attrs []vertex.Attribute) *Effect {
	return &Effect{
		ID:                 effectIDs.Add(1),
		Label:              label,
		Module:             module,
		VertexEntryPoint:   "vs_main",
		FragmentEntryPoint: "fs_main",
		Attributes:         attrs,
		Layout:             layout,
	}
}

// DepthStencilRequest is the depth/stencil state of a pipeline.
type DepthStencilRequest struct {
	Format              gputypes.TextureFormat
	DepthWriteEnabled   bool
	DepthCompare        gputypes.CompareFunction
	Stencil             StencilFace
	StencilReadMask     uint32
	StencilWriteMask    uint32
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// RenderPipelineRequest carries the complete fixed-function state of a
// pipeline to the Compiler.
type RenderPipelineRequest struct {
	Label  string
	Effect *Effect

	// TextureState is the unfilterable texture bitmask. The pipeline layout
	// must be built from Effect.Layout with the same mask.
	TextureState uint32

	VertexBuffers []vertex.Layout

	Topology         gputypes.PrimitiveTopology
	StripIndexFormat gputypes.IndexFormat
	FrontFace        gputypes.FrontFace
	CullMode         gputypes.CullMode
	UnclippedDepth   bool

	// Targets is empty for depth-only passes.
	Targets []gputypes.ColorTargetState

	// DepthStencil is nil without a depth/stencil attachment.
	DepthStencil *DepthStencilRequest

	SampleCount     uint32
	AlphaToCoverage bool
}

// Compiler creates pipelines on cache misses.
type Compiler interface {
	CreateRenderPipeline(req *RenderPipelineRequest) (Handle, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(req *RenderPipelineRequest) (Handle, error)

// CreateRenderPipeline calls f.
func (f CompilerFunc) CreateRenderPipeline(req *RenderPipelineRequest) (Handle, error) {
	return f(req)
}
