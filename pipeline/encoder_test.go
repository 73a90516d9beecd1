package pipeline

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/vertex"
)

// cleanEncoder returns a reset encoder after prepare, as if a pipeline had
// just been resolved.
func cleanEncoder(prepare func(*Encoder)) *Encoder {
	e := NewEncoder()
	if prepare != nil {
		prepare(e)
	}
	e.clean()
	return e
}

func testBuffers() map[string]*vertex.Buffer {
	s := &vertex.Storage{Size: 1024}
	return map[string]*vertex.Buffer{
		"position": {Storage: s, Type: vertex.Float, Components: 3, ByteStride: 20},
		"uv":       {Storage: s, Type: vertex.Float, Components: 2, ByteOffset: 12, ByteStride: 20},
	}
}

var testAttrs = []vertex.Attribute{{Name: "position", Location: 0}, {Name: "uv", Location: 1}}

// TestSetterDirtySlot checks that every setter lowers the dirty index to
// exactly the slot it owns.
func TestSetterDirtySlot(t *testing.T) {
	stencilOn := func(e *Encoder) { e.SetStencilEnabled(true) }
	blendOn := func(e *Encoder) { e.SetAlphaBlendEnabled(true) }
	strip := func(e *Encoder) { _ = e.SetFillMode(FillModeTriangleStrip) }
	mrt := func(e *Encoder) {
		_ = e.SetMRTAttachments([]gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8Unorm})
	}
	withBuffers := func(e *Encoder) { e.SetBuffers(testBuffers(), 0, nil) }

	tests := []struct {
		name    string
		prepare func(*Encoder)
		set     func(*Encoder)
		slot    int
	}{
		{"StencilReadMask", nil, func(e *Encoder) { e.SetStencilReadMask(0x0F) }, SlotStencilReadMask},
		{"StencilWriteMask", nil, func(e *Encoder) { e.SetStencilWriteMask(0x0F) }, SlotStencilWriteMask},
		{"DepthBias", nil, func(e *Encoder) { e.SetDepthBias(3) }, SlotDepthBias},
		{"DepthBiasSlopeScale", nil, func(e *Encoder) { e.SetDepthBiasSlopeScale(1.5) }, SlotDepthBiasSlopeScale},
		{"DepthStencilFormat", nil, func(e *Encoder) { e.SetDepthStencilFormat(gputypes.TextureFormatDepth32Float) }, SlotDepthStencil},
		{"DepthTestEnabled", nil, func(e *Encoder) { e.SetDepthTestEnabled(false) }, SlotDepthStencil},
		{"DepthCompare", nil, func(e *Encoder) { e.SetDepthCompare(gputypes.CompareFunctionLess) }, SlotDepthStencil},
		{"StencilEnabled", nil, func(e *Encoder) { e.SetStencilEnabled(true) }, SlotDepthStencil},
		{"StencilFace", stencilOn, func(e *Encoder) {
			e.SetStencilFace(StencilFace{Compare: gputypes.CompareFunctionNotEqual, PassOp: StencilZero})
		}, SlotDepthStencil},
		{"MRTAttachments", nil, mrt, SlotMRTEnabledMask},
		{"MRTEnabledMask", mrt, func(e *Encoder) { e.SetMRTEnabledMask(0x1) }, SlotMRTEnabledMask},
		{"FrontFace", nil, func(e *Encoder) { e.SetFrontFace(gputypes.FrontFaceCW) }, SlotRasterization},
		{"CullEnabled", nil, func(e *Encoder) { e.SetCullEnabled(false) }, SlotRasterization},
		{"CullFace", nil, func(e *Encoder) { e.SetCullFace(gputypes.CullModeFront) }, SlotRasterization},
		{"ClampDepth", nil, func(e *Encoder) { e.SetClampDepth(true) }, SlotRasterization},
		{"AlphaToCoverage", nil, func(e *Encoder) { e.SetAlphaToCoverage(true) }, SlotRasterization},
		{"FillMode", nil, func(e *Encoder) { _ = e.SetFillMode(FillModeLineList) }, SlotRasterization},
		{"SampleCount", nil, func(e *Encoder) { e.SetSampleCount(4) }, SlotRasterization},
		{"StripIndexFormat", strip, func(e *Encoder) { e.SetBuffers(nil, gputypes.IndexFormatUint32, nil) }, SlotRasterization},
		{"ColorFormat", nil, func(e *Encoder) { e.SetColorFormat(gputypes.TextureFormatRGBA8Unorm) }, SlotColorState},
		{"WriteMask", nil, func(e *Encoder) { e.SetWriteMask(gputypes.ColorWriteMaskNone) }, SlotColorState},
		{"AlphaBlendEnabled", nil, func(e *Encoder) { e.SetAlphaBlendEnabled(true) }, SlotColorState},
		{"AlphaBlendFactors", blendOn, func(e *Encoder) {
			e.SetAlphaBlendFactors(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
				gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha)
		}, SlotColorState},
		{"AlphaBlendOperations", blendOn, func(e *Encoder) {
			e.SetAlphaBlendOperations(gputypes.BlendOperationSubtract, gputypes.BlendOperationMax)
		}, SlotColorState},
		{"DepthWriteEnabled", nil, func(e *Encoder) { e.SetDepthWriteEnabled(false) }, SlotColorState},
		{"ShaderStage", nil, func(e *Encoder) { e.SetShaderStage(42) }, SlotShaderStage},
		{"TextureState", nil, func(e *Encoder) { e.SetTextureState(0b10) }, SlotTextureStage},
		{"VertexState", withBuffers, func(e *Encoder) { _ = e.SetVertexState(testAttrs) }, SlotVertexState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := cleanEncoder(tt.prepare)
			if e.Dirty() {
				t.Fatal("encoder dirty after clean")
			}
			before := slices.Clone(e.States())

			tt.set(e)
			if !e.Dirty() {
				t.Fatal("setter did not mark dirty")
			}
			if got := e.LowestDirtyIndex(); got != tt.slot {
				t.Errorf("LowestDirtyIndex() = %d, want %d", got, tt.slot)
			}
			after := e.States()
			if tt.slot < len(before) && before[tt.slot] == after[tt.slot] {
				t.Errorf("slot %d unchanged", tt.slot)
			}

			// Repeating the same call is a no-op.
			e.clean()
			tt.set(e)
			if e.Dirty() {
				t.Error("repeated setter marked dirty")
			}
		})
	}
}

// TestSetterNoKeyChange covers settings that are not part of the pipeline
// while the feature they refine is off.
func TestSetterNoKeyChange(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Encoder)
		set     func(*Encoder)
	}{
		{"blend factors without blending", nil, func(e *Encoder) {
			e.SetAlphaBlendFactors(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
				gputypes.BlendFactorOne, gputypes.BlendFactorZero)
		}},
		{"stencil face without stencil", nil, func(e *Encoder) {
			e.SetStencilFace(StencilFace{Compare: gputypes.CompareFunctionNever})
		}},
		{"depth compare without depth test", func(e *Encoder) { e.SetDepthTestEnabled(false) }, func(e *Encoder) {
			e.SetDepthCompare(gputypes.CompareFunctionGreater)
		}},
		{"cull face without culling", func(e *Encoder) { e.SetCullEnabled(false) }, func(e *Encoder) {
			e.SetCullFace(gputypes.CullModeFront)
		}},
		{"index format on a list", nil, func(e *Encoder) {
			e.SetBuffers(nil, gputypes.IndexFormatUint32, nil)
		}},
		{"color format under MRT", func(e *Encoder) {
			_ = e.SetMRTAttachments([]gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm})
		}, func(e *Encoder) {
			e.SetColorFormat(gputypes.TextureFormatRGBA32Float)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := cleanEncoder(tt.prepare)
			before := slices.Clone(e.States())
			tt.set(e)
			if e.Dirty() {
				t.Errorf("marked dirty, slot %d", e.LowestDirtyIndex())
			}
			if !slices.Equal(before, e.States()) {
				t.Error("state changed")
			}
		})
	}
}

func TestDirtyIndexKeepsLowest(t *testing.T) {
	e := cleanEncoder(nil)
	e.SetShaderStage(7)
	e.SetStencilWriteMask(1)
	e.SetColorFormat(gputypes.TextureFormatRGBA8Unorm)
	if got := e.LowestDirtyIndex(); got != SlotStencilWriteMask {
		t.Errorf("LowestDirtyIndex() = %d, want %d", got, SlotStencilWriteMask)
	}
}

func TestRasterizationPacking(t *testing.T) {
	e := NewEncoder()
	// CCW, back culling, triangle list, 1 sample.
	want := uint64(0 | 1<<1 | 3<<5 | 1<<8)
	if got := e.States()[SlotRasterization]; got != want {
		t.Errorf("default rasterization = %#x, want %#x", got, want)
	}

	e.SetFrontFace(gputypes.FrontFaceCW)
	e.SetCullFace(gputypes.CullModeFront)
	e.SetClampDepth(true)
	e.SetAlphaToCoverage(true)
	_ = e.SetFillMode(FillModeTriangleStrip)
	e.SetSampleCount(8)
	e.SetBuffers(nil, gputypes.IndexFormatUint16, nil)
	want = 1 | 2<<1 | 1<<3 | 1<<4 | 4<<5 | 4<<8 | 1<<11
	if got := e.States()[SlotRasterization]; got != want {
		t.Errorf("rasterization = %#x, want %#x", got, want)
	}
}

func TestSampleCountClamp(t *testing.T) {
	for _, tt := range []struct{ in, want uint32 }{{0, 1}, {1, 1}, {2, 4}, {4, 4}, {16, 4}} {
		e := NewEncoder()
		e.SetSampleCount(tt.in)
		if got := e.request(&Effect{}).SampleCount; got != tt.want {
			t.Errorf("SetSampleCount(%d) -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDepthStencilPacking(t *testing.T) {
	e := NewEncoder()
	d24s8 := uint64(12)
	lessEqual := uint64(3)
	want := d24s8 | lessEqual<<6 | stencilDisabled<<10
	if got := e.States()[SlotDepthStencil]; got != want {
		t.Fatalf("default depth/stencil = %#x, want %#x", got, want)
	}

	face := StencilFace{Compare: gputypes.CompareFunctionNotEqual, FailOp: StencilZero, DepthFailOp: StencilInvert, PassOp: StencilDecrementWrap}
	e.SetStencilState(true, face, 0xFF, 0x0F)
	want = d24s8 | lessEqual<<6 | (5|5<<3|7<<6|0<<9)<<10
	if got := e.States()[SlotDepthStencil]; got != want {
		t.Errorf("stencil depth/stencil = %#x, want %#x", got, want)
	}

	e.SetDepthTestEnabled(false)
	want = d24s8 | depthTestDisabled<<6 | (5|5<<3|7<<6)<<10
	if got := e.States()[SlotDepthStencil]; got != want {
		t.Errorf("no depth test = %#x, want %#x", got, want)
	}

	// Disabling the stencil restores the sentinel, not the last face.
	e.ResetStencilState()
	if got := e.States()[SlotDepthStencil] >> 10; got != stencilDisabled {
		t.Errorf("stencil bits = %#x, want sentinel %#x", got, stencilDisabled)
	}
	if e.States()[SlotStencilWriteMask] != 0xFF {
		t.Error("ResetStencilState kept the write mask")
	}
}

func TestColorStatePacking(t *testing.T) {
	e := NewEncoder(WithColorFormat(gputypes.TextureFormatRGBA8Unorm))
	want := uint64(0xF)<<22 | 4<<26 | 1<<32
	if got := e.States()[SlotColorState]; got != want {
		t.Fatalf("default color = %#x, want %#x", got, want)
	}

	e.SetAlphaBlendEnabled(true)
	e.SetAlphaBlendFactors(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
		gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	e.SetAlphaBlendOperations(gputypes.BlendOperationAdd, gputypes.BlendOperationReverseSubtract)
	want |= 5 | 6<<4 | 2<<8 | 1<<12 | 1<<16 | 3<<19
	if got := e.States()[SlotColorState]; got != want {
		t.Errorf("blended color = %#x, want %#x", got, want)
	}
}

func TestDepthBiasSlots(t *testing.T) {
	e := NewEncoder()
	e.SetDepthBias(-2)
	e.SetDepthBiasSlopeScale(0.25)
	s := e.States()
	if int32(uint32(s[SlotDepthBias])) != -2 { //nolint:gosec // test reinterpretation
		t.Errorf("depth bias slot = %#x", s[SlotDepthBias])
	}
	if math.Float32frombits(uint32(s[SlotDepthBiasSlopeScale])) != 0.25 { //nolint:gosec // test reinterpretation
		t.Errorf("slope slot = %#x", s[SlotDepthBiasSlopeScale])
	}
}

// TestMRTTooManyAttachments requests 11 color attachments.
func TestMRTTooManyAttachments(t *testing.T) {
	e := cleanEncoder(nil)
	before := slices.Clone(e.States())

	formats := make([]gputypes.TextureFormat, 11)
	for i := range formats {
		formats[i] = gputypes.TextureFormatRGBA8Unorm
	}
	err := e.SetMRTAttachments(formats)
	if !errors.Is(err, ErrTooManyAttachments) {
		t.Fatalf("expected ErrTooManyAttachments, got %v", err)
	}
	if e.Dirty() {
		t.Error("failed call marked the encoder dirty")
	}
	if !slices.Equal(before, e.States()) {
		t.Error("failed call mutated state")
	}

	if err := e.SetMRTAttachments(formats[:MaxAttachments]); err != nil {
		t.Errorf("%d attachments: %v", MaxAttachments, err)
	}
}

func TestMRTPacking(t *testing.T) {
	e := NewEncoder()
	err := e.SetMRTAttachments([]gputypes.TextureFormat{
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatR8Unorm,
		gputypes.TextureFormatR32Float,
		gputypes.TextureFormatRG32Float,
		gputypes.TextureFormatBGRA8Unorm,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := e.States()
	if s[SlotMRTEnabledMask] != 0x3F {
		t.Errorf("enabled mask = %#x, want 0x3f", s[SlotMRTEnabledMask])
	}
	if want := uint64(4 | 8<<6 | 1<<12 | 2<<18 | 3<<24); s[SlotMRTAttachments1] != want {
		t.Errorf("attachments1 = %#x, want %#x", s[SlotMRTAttachments1], want)
	}
	if s[SlotMRTAttachments2] != 6 {
		t.Errorf("attachments2 = %#x, want 6", s[SlotMRTAttachments2])
	}
	// The single color target format leaves the color slot under MRT.
	if (s[SlotColorState]>>26)&0x3F != 0 {
		t.Error("color slot still carries a format")
	}

	e.SetMRTEnabledMask(0b101)
	targets := e.request(&Effect{}).Targets
	if len(targets) != 6 {
		t.Fatalf("targets = %d, want 6", len(targets))
	}
	if targets[1].WriteMask != gputypes.ColorWriteMaskNone || targets[2].WriteMask != gputypes.ColorWriteMaskAll {
		t.Error("enabled mask not applied to targets")
	}

	if err := e.SetMRTAttachments(nil); err != nil {
		t.Fatal(err)
	}
	s = e.States()
	if s[SlotMRTEnabledMask] != 0 || s[SlotMRTAttachments1] != 0 || s[SlotMRTAttachments2] != 0 {
		t.Error("clearing MRT left stale words")
	}
}

func TestFormatTableExtends(t *testing.T) {
	e := NewEncoder()
	e.SetColorFormat(gputypes.TextureFormatR8Unorm)
	r8 := e.States()[SlotColorState]
	e.SetColorFormat(gputypes.TextureFormatUndefined)
	if (e.States()[SlotColorState]>>26)&0x3F != 0 {
		t.Error("undefined format must pack as 0")
	}
	if len(e.request(&Effect{}).Targets) != 0 {
		t.Error("undefined color format must produce a depth-only pipeline")
	}
	e.SetColorFormat(gputypes.TextureFormatR8Unorm)
	if e.States()[SlotColorState] != r8 {
		t.Error("format index not stable")
	}
}

func TestUnsupportedTopology(t *testing.T) {
	for _, m := range []FillMode{FillModeLineLoop, FillModeTriangleFan} {
		e := cleanEncoder(nil)
		if err := e.SetFillMode(m); !errors.Is(err, ErrUnsupportedTopology) {
			t.Errorf("%s: got %v", m, err)
		}
		if e.Dirty() {
			t.Errorf("%s: failed call marked dirty", m)
		}
	}
}

func TestVertexAttributeCountMarksDirty(t *testing.T) {
	e := cleanEncoder(func(e *Encoder) {
		e.SetBuffers(testBuffers(), 0, nil)
		_ = e.SetVertexState(testAttrs)
	})
	if len(e.States()) != SlotVertexState+2 {
		t.Fatalf("sequence length = %d", len(e.States()))
	}

	if err := e.SetVertexState(testAttrs[:1]); err != nil {
		t.Fatal(err)
	}
	if !e.Dirty() || e.LowestDirtyIndex() != SlotVertexState+1 {
		t.Errorf("shrink: dirty=%v lowest=%d", e.Dirty(), e.LowestDirtyIndex())
	}
	if len(e.States()) != SlotVertexState+1 {
		t.Errorf("sequence length = %d after shrink", len(e.States()))
	}

	tooMany := make([]vertex.Attribute, MaxVertexAttributes+1)
	if err := e.SetVertexState(tooMany); !errors.Is(err, ErrTooManyAttributes) {
		t.Errorf("expected ErrTooManyAttributes, got %v", err)
	}
}

func TestDepthCullingBatch(t *testing.T) {
	e := NewEncoder()
	e.SetDepthCullingState(DepthCullingState{
		FrontFace:    gputypes.FrontFaceCW,
		DepthTest:    false,
		DepthWrite:   false,
		DepthCompare: gputypes.CompareFunctionAlways,
		DepthBias:    1,
	})
	changed := slices.Clone(e.States())

	e.ResetDepthCullingState()
	if slices.Equal(changed, e.States()) {
		t.Fatal("reset had no effect")
	}
	if !slices.Equal(NewEncoder().States(), e.States()) {
		t.Error("ResetDepthCullingState differs from a new encoder")
	}
}

func TestResetMarksEverythingDirty(t *testing.T) {
	e := cleanEncoder(nil)
	e.Reset()
	if !e.Dirty() || e.LowestDirtyIndex() != 0 {
		t.Errorf("after Reset: dirty=%v lowest=%d", e.Dirty(), e.LowestDirtyIndex())
	}
}

func TestRequestDepthStencil(t *testing.T) {
	e := NewEncoder(WithDepthStencilFormat(gputypes.TextureFormatUndefined))
	if e.request(&Effect{}).DepthStencil != nil {
		t.Error("no depth attachment must produce a nil depth/stencil state")
	}

	e.SetDepthStencilFormat(gputypes.TextureFormatDepth24PlusStencil8)
	e.SetDepthTestEnabled(false)
	ds := e.request(&Effect{}).DepthStencil
	if ds == nil || ds.DepthCompare != gputypes.CompareFunctionAlways || !ds.DepthWriteEnabled {
		t.Errorf("depth/stencil = %+v", ds)
	}
	if ds.Stencil.PassOp != StencilKeep {
		t.Error("disabled stencil must keep")
	}
}
