package pipeline

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/vertex"
)

type fakePipeline struct {
	id int
}

// fakeCompiler hands out a new pipeline per call and records the requests.
type fakeCompiler struct {
	calls int
	err   error
	reqs  []*RenderPipelineRequest
}

func (f *fakeCompiler) CreateRenderPipeline(req *RenderPipelineRequest) (Handle, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	f.reqs = append(f.reqs, req)
	return &fakePipeline{id: f.calls}, nil
}

func (f *fakeCompiler) last() *RenderPipelineRequest {
	return f.reqs[len(f.reqs)-1]
}

func mustGet(t testing.TB, c *Cache, effect *Effect) Handle {
	t.Helper()
	h, err := c.GetRenderPipeline(FillModeTriangle, effect, 1, 0)
	if err != nil {
		t.Fatalf("GetRenderPipeline: %v", err)
	}
	return h
}

// TestFastPathWithoutHash draws twice with an unchanged, cull-disabled state.
func TestFastPathWithoutHash(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	effect := NewEffect("quad", nil, nil, nil)

	c.Encoder().SetCullEnabled(false)
	first := mustGet(t, c, effect)
	misses := c.Stats().Snapshot().NumCacheMiss

	second := mustGet(t, c, effect)
	if first != second {
		t.Error("second call returned a different pipeline")
	}
	s := c.Stats().Snapshot()
	if s.NumCacheMiss != misses {
		t.Errorf("NumCacheMiss = %d, want %d", s.NumCacheMiss, misses)
	}
	if s.NumCacheHitWithoutHash != 1 {
		t.Errorf("NumCacheHitWithoutHash = %d, want 1", s.NumCacheHitWithoutHash)
	}
	if fc.calls != 1 {
		t.Errorf("compiler calls = %d, want 1", fc.calls)
	}

	req := fc.last()
	if req.CullMode != gputypes.CullModeNone || req.FrontFace != gputypes.FrontFaceCCW {
		t.Errorf("rasterization = %v/%v", req.CullMode, req.FrontFace)
	}
	if len(req.Targets) != 1 || req.Targets[0].Format != gputypes.TextureFormatBGRA8Unorm || req.Targets[0].Blend != nil {
		t.Errorf("targets = %+v", req.Targets)
	}
	if req.DepthStencil == nil || !req.DepthStencil.DepthWriteEnabled || req.DepthStencil.Stencil.PassOp != StencilKeep {
		t.Errorf("depth/stencil = %+v", req.DepthStencil)
	}
	if req.SampleCount != 1 {
		t.Errorf("SampleCount = %d", req.SampleCount)
	}
}

func TestHitWithHash(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	effect := NewEffect("mesh", nil, nil, nil)

	culled := mustGet(t, c, effect)
	c.Encoder().SetCullEnabled(false)
	unculled := mustGet(t, c, effect)
	if culled == unculled {
		t.Fatal("different states share a pipeline")
	}
	c.Encoder().SetCullEnabled(true)
	if got := mustGet(t, c, effect); got != culled {
		t.Error("reverted state did not return the cached pipeline")
	}

	s := c.Stats().Snapshot()
	if s.NumCacheMiss != 2 || s.NumCacheHitWithHash != 1 || s.NumCacheHitWithoutHash != 0 {
		t.Errorf("stats = %v", s)
	}
	if c.Strategy().Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Strategy().Len())
	}
}

func TestPerDrawArguments(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	effect := NewEffect("mesh", nil, nil, nil)

	base := mustGet(t, c, effect)
	variants := []struct {
		fill    FillMode
		effect  *Effect
		samples uint32
		texture uint32
	}{
		{FillModeLineList, effect, 1, 0},
		{FillModeTriangle, NewEffect("other", nil, nil, nil), 1, 0},
		{FillModeTriangle, effect, 4, 0},
		{FillModeTriangle, effect, 1, 0b1},
	}
	for _, v := range variants {
		h, err := c.GetRenderPipeline(v.fill, v.effect, v.samples, v.texture)
		if err != nil {
			t.Fatal(err)
		}
		if h == base {
			t.Errorf("%+v reused the base pipeline", v)
		}
	}
	if fc.calls != 1+len(variants) {
		t.Errorf("compiler calls = %d", fc.calls)
	}
	if fc.last().TextureState != 0b1 {
		t.Error("texture state not forwarded")
	}
}

func TestVertexLayoutsForwarded(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	effect := NewEffect("mesh", nil, nil, testAttrs)

	c.Encoder().SetBuffers(testBuffers(), 0, nil)
	mustGet(t, c, effect)

	layouts := fc.last().VertexBuffers
	if len(layouts) != 1 {
		t.Fatalf("layouts = %d, want 1 coalesced layout", len(layouts))
	}
	if len(layouts[0].Attributes) != 2 || layouts[0].ArrayStride != 20 {
		t.Errorf("layout = %+v", layouts[0])
	}

	// New buffers with the same layout hit the cache.
	c.Encoder().SetBuffers(testBuffers(), 0, nil)
	mustGet(t, c, effect)
	if fc.calls != 1 {
		t.Errorf("compiler calls = %d, want 1", fc.calls)
	}
}

func TestCompileErrorPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	fc := &fakeCompiler{err: errBoom}
	c := New(fc)
	effect := NewEffect("broken", nil, nil, nil)

	_, err := c.GetRenderPipeline(FillModeTriangle, effect, 1, 0)
	if err != errBoom { //nolint:errorlint // must be returned unchanged
		t.Fatalf("err = %v, want %v", err, errBoom)
	}
	if !c.Encoder().Dirty() {
		t.Error("failed compile left the encoder clean")
	}
	if c.Strategy().Len() != 0 {
		t.Error("failed compile stored a pipeline")
	}

	fc.err = nil
	if mustGet(t, c, effect) == nil {
		t.Fatal("retry returned nil")
	}
	if fc.calls != 1 {
		t.Errorf("compiler calls = %d, want 1", fc.calls)
	}
	if n := c.Stats().Snapshot().NumCacheMiss; n != 1 {
		t.Errorf("NumCacheMiss = %d, want 1", n)
	}
}

func TestCacheErrors(t *testing.T) {
	c := New(nil)
	if _, err := c.GetRenderPipeline(FillModeTriangle, nil, 1, 0); !errors.Is(err, ErrNilEffect) {
		t.Errorf("nil effect: %v", err)
	}
	effect := NewEffect("e", nil, nil, nil)
	if _, err := c.GetRenderPipeline(FillModeTriangle, effect, 1, 0); !errors.Is(err, ErrNoCompiler) {
		t.Errorf("no compiler: %v", err)
	}
	if _, err := c.GetRenderPipeline(FillModeTriangleFan, effect, 1, 0); !errors.Is(err, ErrUnsupportedTopology) {
		t.Errorf("fan: %v", err)
	}

	c = New(&fakeCompiler{})
	c.Encoder().SetBuffers(map[string]*vertex.Buffer{"position": {Type: vertex.Float, Components: 3}}, 0, nil)
	attrs := []vertex.Attribute{{Name: "position", Location: 0}}
	if _, err := c.GetRenderPipeline(FillModeTriangle, NewEffect("e", nil, nil, attrs), 1, 0); !errors.Is(err, vertex.ErrNoStorage) {
		t.Errorf("buffer without storage: %v", err)
	}
}

func TestCachingDisabled(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc, WithCachingDisabled(true))
	effect := NewEffect("e", nil, nil, nil)

	a := mustGet(t, c, effect)
	b := mustGet(t, c, effect)
	if a == b {
		t.Error("disabled cache returned a cached pipeline")
	}
	if fc.calls != 2 || c.Stats().Snapshot().NumCacheMiss != 2 {
		t.Errorf("calls = %d, stats = %v", fc.calls, c.Stats().Snapshot())
	}
	if c.Strategy().Len() != 0 {
		t.Error("disabled cache stored pipelines")
	}
	if !c.Disabled() {
		t.Error("Disabled() = false")
	}
}

func TestEndFrame(t *testing.T) {
	c := New(&fakeCompiler{})
	effect := NewEffect("e", nil, nil, nil)
	mustGet(t, c, effect)
	c.Encoder().SetFrontFace(gputypes.FrontFaceCW)
	mustGet(t, c, effect)

	c.EndFrame()
	s := c.Stats().Snapshot()
	if s.NumPipelineCreationLastFrame != 2 || s.NumPipelineCreationCurrentFrame != 0 || s.NumPipelineCreation != 2 {
		t.Errorf("stats = %v", s)
	}
	c.EndFrame()
	if s := c.Stats().Snapshot(); s.NumPipelineCreationLastFrame != 0 {
		t.Errorf("last frame = %d, want 0", s.NumPipelineCreationLastFrame)
	}
	if !strings.Contains(s.String(), "miss=2") {
		t.Errorf("String() = %q", s.String())
	}
}

func TestSharedStats(t *testing.T) {
	stats := &Stats{}
	a := New(&fakeCompiler{}, WithStats(stats), WithLabel("a"))
	b := New(&fakeCompiler{}, WithStats(stats), WithLabel("b"))
	effect := NewEffect("e", nil, nil, nil)
	mustGet(t, a, effect)
	mustGet(t, b, effect)
	if n := stats.Snapshot().NumCacheMiss; n != 2 {
		t.Errorf("NumCacheMiss = %d, want 2", n)
	}
}

func TestCacheReset(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	effect := NewEffect("e", nil, nil, nil)
	c.Encoder().SetCullEnabled(false)
	mustGet(t, c, effect)

	c.Reset()
	if c.Strategy().Len() != 0 {
		t.Error("Reset kept pipelines")
	}
	mustGet(t, c, effect)
	if fc.calls != 2 {
		t.Errorf("compiler calls = %d, want 2", fc.calls)
	}
	if fc.last().CullMode != gputypes.CullModeBack {
		t.Error("Reset kept encoder state")
	}
}

func TestTrieWalksDirtySuffix(t *testing.T) {
	trie := NewTrie()
	c := New(&fakeCompiler{}, WithStrategy(trie))
	effect := NewEffect("a", nil, nil, nil)

	mustGet(t, c, effect)
	if nodes, _ := trie.NodeCounts(); nodes != SlotVertexState {
		t.Fatalf("nodes = %d, want %d", nodes, SlotVertexState)
	}

	// A new effect changes the shader stage slot: one node for it and one
	// for the texture slot below it.
	mustGet(t, c, NewEffect("b", nil, nil, nil))
	if nodes, _ := trie.NodeCounts(); nodes != SlotVertexState+2 {
		t.Errorf("nodes = %d, want %d", nodes, SlotVertexState+2)
	}

	if _, err := c.GetRenderPipeline(FillModeTriangle, effect, 1, 0b10); err != nil {
		t.Fatal(err)
	}
	nodes, pipelines := trie.NodeCounts()
	if nodes != SlotVertexState+3 || pipelines != 3 {
		t.Errorf("nodes, pipelines = %d, %d", nodes, pipelines)
	}

	paths := trie.Paths()
	if len(paths) != 3 {
		t.Fatalf("paths = %d", len(paths))
	}
	for _, p := range paths {
		if len(p) != SlotVertexState {
			t.Errorf("path length %d", len(p))
		}
	}
}

func TestFlatSoftLimit(t *testing.T) {
	var released []Handle
	flat := NewFlat(2, func(h Handle) { released = append(released, h) })
	fc := &fakeCompiler{}
	c := New(fc, WithStrategy(flat))
	effect := NewEffect("e", nil, nil, nil)
	enc := c.Encoder()

	first := mustGet(t, c, effect)
	enc.SetFrontFace(gputypes.FrontFaceCW)
	mustGet(t, c, effect)
	enc.SetCullEnabled(false)
	current := mustGet(t, c, effect)

	if len(released) != 1 || released[0] != first {
		t.Fatalf("released = %v, want the first pipeline", released)
	}
	if flat.Len() != 2 || flat.Evictions() != 1 {
		t.Errorf("Len, Evictions = %d, %d", flat.Len(), flat.Evictions())
	}
	if mustGet(t, c, effect) != current {
		t.Error("current pipeline lost")
	}

	enc.SetFrontFace(gputypes.FrontFaceCCW)
	enc.SetCullEnabled(true)
	mustGet(t, c, effect)
	if fc.calls != 4 {
		t.Errorf("evicted state not recompiled, calls = %d", fc.calls)
	}
}

func TestFlatKey(t *testing.T) {
	f := NewFlat(0, nil)
	if got := f.Key([]uint64{1, 0, 354}); got != "1_0_354" {
		t.Errorf("Key() = %q", got)
	}
	if got := f.Key(nil); got != "" {
		t.Errorf("Key(nil) = %q", got)
	}
}

// randomDraw mutates a few settings and draws.
func randomDraw(r *rand.Rand, c *Cache, effects []*Effect) (Handle, error) {
	enc := c.Encoder()
	for range r.IntN(3) {
		switch r.IntN(8) {
		case 0:
			enc.SetCullEnabled(r.IntN(2) == 0)
		case 1:
			enc.SetFrontFace([]gputypes.FrontFace{gputypes.FrontFaceCCW, gputypes.FrontFaceCW}[r.IntN(2)])
		case 2:
			enc.SetDepthCompare([]gputypes.CompareFunction{
				gputypes.CompareFunctionLess, gputypes.CompareFunctionLessEqual, gputypes.CompareFunctionAlways,
			}[r.IntN(3)])
		case 3:
			enc.SetAlphaBlendEnabled(r.IntN(2) == 0)
		case 4:
			enc.SetStencilEnabled(r.IntN(2) == 0)
		case 5:
			enc.SetColorFormat([]gputypes.TextureFormat{
				gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm,
			}[r.IntN(2)])
		case 6:
			enc.SetStencilWriteMask([]uint32{0xFF, 0x0F}[r.IntN(2)])
		case 7:
			enc.SetDepthBias(int32(r.IntN(2)))
		}
	}
	fill := []FillMode{FillModeTriangle, FillModeLineList}[r.IntN(2)]
	return c.GetRenderPipeline(fill, effects[r.IntN(len(effects))], uint32(1+3*r.IntN(2)), uint32(r.IntN(2)))
}

// TestStrategiesAgree replays the same random draws through a trie and a
// flat cache and checks both against a reference map of full states.
func TestStrategiesAgree(t *testing.T) {
	buffers := testBuffers()
	effects := []*Effect{
		NewEffect("plain", nil, nil, nil),
		NewEffect("mesh", nil, nil, testAttrs),
		NewEffect("position", nil, nil, testAttrs[:1]),
	}

	trieC, flatC := &fakeCompiler{}, &fakeCompiler{}
	trie := New(trieC)
	flat := New(flatC, WithFlatStrategy(0, nil))
	trie.Encoder().SetBuffers(buffers, 0, nil)
	flat.Encoder().SetBuffers(buffers, 0, nil)

	ref := make(map[string]int)
	rt, rf := rand.New(rand.NewPCG(1, 2)), rand.New(rand.NewPCG(1, 2))
	for i := range 2000 {
		ht, err := randomDraw(rt, trie, effects)
		if err != nil {
			t.Fatal(err)
		}
		hf, err := randomDraw(rf, flat, effects)
		if err != nil {
			t.Fatal(err)
		}
		idT, idF := ht.(*fakePipeline).id, hf.(*fakePipeline).id
		if idT != idF {
			t.Fatalf("draw %d: trie pipeline %d, flat pipeline %d", i, idT, idF)
		}

		key := fmt.Sprint(trie.Encoder().States())
		if want, ok := ref[key]; ok && want != idT {
			t.Fatalf("draw %d: state %s maps to %d, want %d", i, key, idT, want)
		}
		ref[key] = idT
	}
	if trie.Strategy().Len() != len(ref) || flat.Strategy().Len() != len(ref) {
		t.Errorf("Len trie=%d flat=%d, distinct states=%d", trie.Strategy().Len(), flat.Strategy().Len(), len(ref))
	}
	if trieC.calls != flatC.calls {
		t.Errorf("compiles trie=%d flat=%d", trieC.calls, flatC.calls)
	}
}

type mockProvider struct {
	format gputypes.TextureFormat
}

func (m mockProvider) Device() gpucontext.Device             { return nil }
func (m mockProvider) Queue() gpucontext.Queue               { return nil }
func (m mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestWithSurfaceFormat(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc, WithSurfaceFormat(mockProvider{format: gputypes.TextureFormatRGBA8Unorm}))
	mustGet(t, c, NewEffect("e", nil, nil, nil))
	if got := fc.last().Targets[0].Format; got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("color format = %v", got)
	}

	// An undefined surface format keeps the default.
	e := NewEncoder(WithSurfaceFormat(mockProvider{}))
	if got := e.request(&Effect{}).Targets[0].Format; got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("color format = %v", got)
	}
}

func benchmarkStrategy(b *testing.B, opts ...Option) {
	c := New(CompilerFunc(func(*RenderPipelineRequest) (Handle, error) {
		return &fakePipeline{}, nil
	}), opts...)
	effects := []*Effect{NewEffect("a", nil, nil, nil), NewEffect("b", nil, nil, nil)}
	enc := c.Encoder()
	b.ResetTimer()
	for i := range b.N {
		enc.SetAlphaBlendEnabled(i&1 == 0)
		if _, err := c.GetRenderPipeline(FillModeTriangle, effects[i&2>>1], 1, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTrieLookup(b *testing.B) {
	benchmarkStrategy(b)
}

func BenchmarkFlatLookup(b *testing.B) {
	benchmarkStrategy(b, WithFlatStrategy(0, nil))
}

// TestStrideChangeIsNotAHit rebinds the same attribute with a stride that
// only differs above bit 12.
func TestStrideChangeIsNotAHit(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc, WithResolver(vertex.NewResolver(vertex.WithMaxStride(vertex.MaxStrideLimit))))
	effect := NewEffect("mesh", nil, nil, []vertex.Attribute{{Name: "position", Location: 0}})
	s := &vertex.Storage{Size: 1 << 20}

	c.Encoder().SetBuffers(map[string]*vertex.Buffer{
		"position": {Storage: s, Type: vertex.Float, Components: 3, ByteStride: 20},
	}, 0, nil)
	first := mustGet(t, c, effect)

	c.Encoder().SetBuffers(map[string]*vertex.Buffer{
		"position": {Storage: s, Type: vertex.Float, Components: 3, ByteStride: 4116},
	}, 0, nil)
	second := mustGet(t, c, effect)

	if first == second || fc.calls != 2 {
		t.Fatalf("compiles = %d, same pipeline = %v; want a second compile", fc.calls, first == second)
	}
	if got := fc.last().VertexBuffers[0].ArrayStride; got != 4116 {
		t.Errorf("ArrayStride = %d, want 4116", got)
	}
}

func TestStrideAboveLimitRejected(t *testing.T) {
	c := New(&fakeCompiler{})
	effect := NewEffect("mesh", nil, nil, []vertex.Attribute{{Name: "position", Location: 0}})
	c.Encoder().SetBuffers(map[string]*vertex.Buffer{
		"position": {Storage: &vertex.Storage{Size: 1 << 16}, Type: vertex.Float, Components: 3, ByteStride: 4116},
	}, 0, nil)
	if _, err := c.GetRenderPipeline(FillModeTriangle, effect, 1, 0); !errors.Is(err, vertex.ErrStrideTooLarge) {
		t.Errorf("error = %v, want vertex.ErrStrideTooLarge", err)
	}
}
