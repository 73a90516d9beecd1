package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/backend/halgpu"
	"github.com/gogpu/pipecache/binding"
	"github.com/gogpu/pipecache/bindgroup"
	"github.com/gogpu/pipecache/config"
	"github.com/gogpu/pipecache/pipeline"
	"github.com/gogpu/pipecache/vertex"
	"github.com/gogpu/wgpu/hal"
)

const meshShader = `
struct Scene {
    viewProjection: mat4x4<f32>,
}

struct Mesh {
    world: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> scene: Scene;
@group(1) @binding(0) var<uniform> mesh: Mesh;
@group(2) @binding(0) var albedoSampler: sampler;
@group(2) @binding(1) var albedo: texture_2d<f32>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>, @location(2) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = scene.viewProjection * mesh.world * vec4<f32>(position + normal * 0.0, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(albedo, albedoSampler, in.uv);
}
`

const vertexStride = 32

var meshAttributes = []vertex.Attribute{
	{Name: "position", Location: 0},
	{Name: "normal", Location: 1},
	{Name: "uv", Location: 2},
}

var (
	fillModes = []pipeline.FillMode{pipeline.FillModeTriangle, pipeline.FillModeTriangleStrip, pipeline.FillModeLineList}
	compares  = []gputypes.CompareFunction{gputypes.CompareFunctionLess, gputypes.CompareFunctionLessEqual}
)

// stream is a synthetic renderer: a few effects drawn with random state
// changes, most draws repeating the previous state.
type stream struct {
	device hal.Device
	rng    *rand.Rand

	effects   []*pipeline.Effect
	resources []*bindgroup.Resources
	buffers   map[string]*vertex.Buffer

	ownedBuffers  []hal.Buffer
	ownedTextures []hal.Texture
	ownedViews    []hal.TextureView

	last *pipeline.Effect
	fill pipeline.FillMode
	res  *bindgroup.Resources
}

func newStream(be *halgpu.Backend, device hal.Device, cfg *config.Config, effects, textures int, seed uint64) (*stream, error) {
	s := &stream{
		device: device,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}

	vb, err := s.buffer("vertices", 64*1024, gputypes.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	storage := &vertex.Storage{Native: vb, Size: 64 * 1024}
	s.buffers = map[string]*vertex.Buffer{
		"position": {Storage: storage, Type: vertex.Float, Components: 3, ByteStride: vertexStride},
		"normal":   {Storage: storage, Type: vertex.Float, Components: 3, ByteOffset: 12, ByteStride: vertexStride},
		"uv":       {Storage: storage, Type: vertex.Float, Components: 2, ByteOffset: 24, ByteStride: vertexStride},
	}

	scene, err := s.buffer("scene", 64, gputypes.BufferUsageUniform)
	if err != nil {
		return nil, err
	}
	mesh, err := s.buffer("mesh", 64, gputypes.BufferUsageUniform)
	if err != nil {
		return nil, err
	}
	sampler, err := be.Sampler(halgpu.LinearClamp)
	if err != nil {
		return nil, err
	}
	sceneID, meshID := bindgroup.NewID(), bindgroup.NewID()
	for i := range textures {
		view, err := s.texture(fmt.Sprintf("albedo_%d", i))
		if err != nil {
			return nil, err
		}
		res := bindgroup.NewResources()
		res.Set("Scene", bindgroup.Buffer(sceneID, scene, 0, 64))
		res.Set("Mesh", bindgroup.Buffer(meshID, mesh, 0, 64))
		res.Set("albedo", bindgroup.Texture(bindgroup.NewID(), view, &sampler))
		s.resources = append(s.resources, res)
	}

	for i := range effects {
		layout, err := meshLayout(cfg)
		if err != nil {
			return nil, err
		}
		e, err := be.NewEffect(fmt.Sprintf("effect_%d", i), meshShader, layout, meshAttributes)
		if err != nil {
			return nil, err
		}
		s.effects = append(s.effects, e)
	}
	return s, nil
}

func meshLayout(cfg *config.Config) (*binding.Layout, error) {
	a := binding.NewAllocator(cfg.BindingOptions()...)
	if _, err := a.AddBuffer("Scene", binding.KindUniformBuffer, false, gputypes.ShaderStageVertex); err != nil {
		return nil, err
	}
	if _, err := a.AddBuffer("Mesh", binding.KindUniformBuffer, false, gputypes.ShaderStageVertex); err != nil {
		return nil, err
	}
	if _, err := a.AddTexture("albedo", binding.TextureDesc{
		SampleType:  gputypes.TextureSampleTypeFloat,
		Visibility:  gputypes.ShaderStageFragment,
		AutoSampler: true,
		SamplerType: gputypes.SamplerBindingTypeFiltering,
	}); err != nil {
		return nil, err
	}
	return a.Layout(), nil
}

func (s *stream) buffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	s.ownedBuffers = append(s.ownedBuffers, buf)
	return buf, nil
}

func (s *stream) texture(label string) (hal.TextureView, error) {
	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: 256, Height: 256, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8UnormSrgb,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	s.ownedTextures = append(s.ownedTextures, tex)
	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		return nil, fmt.Errorf("create texture view %s: %w", label, err)
	}
	s.ownedViews = append(s.ownedViews, view)
	return view, nil
}

// draw issues one draw call: 70% repeat the previous state, the rest pick a
// new effect, fill mode, texture and fixed-function state.
func (s *stream) draw(cache *pipeline.Cache, groups *bindgroup.Assembler) error {
	if s.last == nil || s.rng.Float64() >= 0.7 {
		s.last = s.effects[s.rng.IntN(len(s.effects))]
		s.fill = fillModes[s.rng.IntN(len(fillModes))]
		s.res = s.resources[s.rng.IntN(len(s.resources))]

		enc := cache.Encoder()
		enc.SetBuffers(s.buffers, gputypes.IndexFormatUint16, nil)
		enc.SetCullEnabled(s.rng.IntN(4) != 0)
		blend := s.rng.IntN(3) == 0
		enc.SetAlphaBlendEnabled(blend)
		enc.SetAlphaBlendFactors(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
			gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha)
		enc.SetDepthWriteEnabled(!blend)
		enc.SetDepthTestEnabled(true)
		enc.SetDepthCompare(compares[s.rng.IntN(len(compares))])
	}

	if _, err := cache.GetRenderPipeline(s.fill, s.last, 1, 0); err != nil {
		return err
	}
	_, err := groups.BindGroups(s.last.Layout, 0, s.res)
	return err
}

func (s *stream) destroy() {
	for _, v := range s.ownedViews {
		s.device.DestroyTextureView(v)
	}
	for _, t := range s.ownedTextures {
		s.device.DestroyTexture(t)
	}
	for _, b := range s.ownedBuffers {
		s.device.DestroyBuffer(b)
	}
}
