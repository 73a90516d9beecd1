package pipeline

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache/vertex"
)

// State slot positions. Slots that change least often come first so that the
// trie reuses the longest possible prefix.
const (
	SlotStencilReadMask = iota
	SlotStencilWriteMask
	SlotDepthBias
	SlotDepthBiasSlopeScale
	SlotDepthStencil
	SlotMRTEnabledMask
	SlotMRTAttachments1
	SlotMRTAttachments2
	SlotRasterization
	SlotColorState
	SlotShaderStage
	SlotTextureStage
	SlotVertexState

	// NumStates is the capacity of the state slot array.
	NumStates = 32

	// MaxVertexAttributes is the number of vertex state slots.
	MaxVertexAttributes = NumStates - SlotVertexState

	// MaxAttachments is the number of color attachments the two MRT words hold.
	MaxAttachments = 10

	formatsPerWord = 5
)

// Sentinel slot values.
const (
	// stencilDisabled packs compare Always with Keep for every operation.
	stencilDisabled = 7 | 1<<3 | 1<<6 | 1<<9

	// depthTestDisabled packs compare Always.
	depthTestDisabled = 7
)

// StencilFace describes the stencil test of a face.
type StencilFace struct {
	Compare     gputypes.CompareFunction
	FailOp      StencilOp
	DepthFailOp StencilOp
	PassOp      StencilOp
}

// DefaultStencilFace is the stencil face of a reset encoder.
var DefaultStencilFace = StencilFace{
	Compare:     gputypes.CompareFunctionAlways,
	FailOp:      StencilKeep,
	DepthFailOp: StencilKeep,
	PassOp:      StencilReplace,
}

func (f StencilFace) packed() uint64 {
	return compareIndex(f.Compare) |
		uint64(f.DepthFailOp&7)<<3 |
		uint64(f.PassOp&7)<<6 |
		uint64(f.FailOp&7)<<9
}

// Encoder packs mutable render state into state slots under dirty tracking.
// Every setter that changes a slot value marks the encoder dirty and lowers
// the lowest dirty index to that slot.
//
// Encoder is not safe for concurrent use.
type Encoder struct {
	states      [NumStates]uint64
	length      int
	dirty       bool
	lowestDirty int
	disabled    bool
	err         error

	formats formatTable

	defaultColorFormat        gputypes.TextureFormat
	defaultDepthStencilFormat gputypes.TextureFormat

	// rasterization
	frontFace        gputypes.FrontFace
	cullEnabled      bool
	cullFace         gputypes.CullMode
	clampDepth       bool
	alphaToCoverage  bool
	topology         gputypes.PrimitiveTopology
	sampleCount      uint32
	depthBias        int32
	depthBiasSlope   float32
	stripIndexFormat gputypes.IndexFormat

	// color
	colorFormat    gputypes.TextureFormat
	writeMask      gputypes.ColorWriteMask
	blendEnabled   bool
	blendFactors   [4]gputypes.BlendFactor
	blendOps       [2]gputypes.BlendOperation
	mrtFormats     []gputypes.TextureFormat
	mrtEnabledMask uint32

	// depth and stencil
	depthStencilFormat gputypes.TextureFormat
	depthTest          bool
	depthWrite         bool
	depthCompare       gputypes.CompareFunction
	stencilEnabled     bool
	stencil            StencilFace
	stencilReadMask    uint32
	stencilWriteMask   uint32

	effectID     uint64
	textureState uint32

	resolver   *vertex.Resolver
	buffers    map[string]*vertex.Buffer
	overrides  map[string]*vertex.Buffer
	resolution *vertex.Resolution
}

// NewEncoder creates an encoder in its reset state.
func NewEncoder(opts ...Option) *Encoder {
	o := buildOptions(opts)
	return newEncoder(&o)
}

func newEncoder(o *options) *Encoder {
	e := &Encoder{
		formats:                   newFormatTable(),
		defaultColorFormat:        o.colorFormat,
		defaultDepthStencilFormat: o.depthStencilFormat,
		resolver:                  o.resolver,
		length:                    SlotVertexState,
		disabled:                  o.disabled,
	}
	if e.resolver == nil {
		e.resolver = vertex.NewResolver()
	}
	e.Reset()
	return e
}

// Reset restores every setter to its default and marks the whole state dirty.
func (e *Encoder) Reset() {
	e.err = nil
	e.states = [NumStates]uint64{}
	e.length = SlotVertexState
	e.resolution = nil

	e.frontFace = gputypes.FrontFaceCCW
	e.cullEnabled = true
	e.cullFace = gputypes.CullModeBack
	e.clampDepth = false
	e.alphaToCoverage = false
	e.topology = gputypes.PrimitiveTopologyTriangleList
	e.sampleCount = 1
	e.depthBias = 0
	e.depthBiasSlope = 0
	e.stripIndexFormat = 0

	e.colorFormat = e.defaultColorFormat
	e.writeMask = gputypes.ColorWriteMaskAll
	e.blendEnabled = false
	e.blendFactors = [4]gputypes.BlendFactor{
		gputypes.BlendFactorOne, gputypes.BlendFactorZero,
		gputypes.BlendFactorOne, gputypes.BlendFactorZero,
	}
	e.blendOps = [2]gputypes.BlendOperation{gputypes.BlendOperationAdd, gputypes.BlendOperationAdd}
	e.mrtFormats = nil
	e.mrtEnabledMask = 0

	e.depthStencilFormat = e.defaultDepthStencilFormat
	e.depthTest = true
	e.depthWrite = true
	e.depthCompare = gputypes.CompareFunctionLessEqual
	e.stencilEnabled = false
	e.stencil = DefaultStencilFace
	e.stencilReadMask = 0xFF
	e.stencilWriteMask = 0xFF

	e.effectID = 0
	e.textureState = 0
	e.buffers = nil
	e.overrides = nil

	e.updateStencilMasks()
	e.updateDepthBias()
	e.updateDepthStencil()
	e.updateMRT()
	e.updateRasterization()
	e.updateColorState()
	e.setSlot(SlotShaderStage, 0)
	e.setSlot(SlotTextureStage, 0)

	e.dirty = true
	e.lowestDirty = 0
}

// setSlot writes a slot value and tracks dirtiness when it changes.
func (e *Encoder) setSlot(i int, v uint64) {
	if e.states[i] == v {
		return
	}
	e.states[i] = v
	e.markDirty(i)
}

func (e *Encoder) markDirty(i int) {
	if e.disabled {
		return
	}
	e.dirty = true
	e.lowestDirty = min(e.lowestDirty, i)
}

// clean is called after a successful cache resolution.
func (e *Encoder) clean() {
	e.dirty = false
	e.lowestDirty = NumStates
}

// Dirty reports whether any slot changed since the last resolution.
func (e *Encoder) Dirty() bool {
	return e.dirty
}

// LowestDirtyIndex returns the first slot changed since the last resolution,
// or NumStates when nothing changed.
func (e *Encoder) LowestDirtyIndex() int {
	return e.lowestDirty
}

// States returns the active state sequence. The slice aliases the encoder
// and is only valid until the next setter call.
func (e *Encoder) States() []uint64 {
	return e.states[:e.length]
}

// Err returns the sticky configuration error recorded by a setter, if any.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) formatIndex(f gputypes.TextureFormat) uint64 {
	i, err := e.formats.lookup(f)
	if err != nil && e.err == nil {
		e.err = err
	}
	return i
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// --- rasterization ---

func (e *Encoder) updateRasterization() {
	var cull uint64
	if e.cullEnabled {
		switch e.cullFace {
		case gputypes.CullModeBack:
			cull = 1
		case gputypes.CullModeFront:
			cull = 2
		}
	}
	frontFace := uint64(1) // CCW
	if e.frontFace == gputypes.FrontFaceCW {
		frontFace = 2
	}
	w := (frontFace - 1) |
		cull<<1 |
		b2u(e.clampDepth)<<3 |
		b2u(e.alphaToCoverage)<<4 |
		topologyIndex(e.topology)<<5 |
		uint64(e.sampleCount)<<8
	if isStrip(e.topology) {
		w |= indexFormatIndex(e.stripIndexFormat) << 11
	}
	e.setSlot(SlotRasterization, w)
}

func indexFormatIndex(f gputypes.IndexFormat) uint64 {
	switch f {
	case gputypes.IndexFormatUint16:
		return 1
	case gputypes.IndexFormatUint32:
		return 2
	default:
		return 0
	}
}

// SetFrontFace sets the winding order of front-facing triangles.
func (e *Encoder) SetFrontFace(f gputypes.FrontFace) {
	if e.frontFace == f {
		return
	}
	e.frontFace = f
	e.updateRasterization()
}

// SetCullEnabled enables face culling.
func (e *Encoder) SetCullEnabled(enabled bool) {
	if e.cullEnabled == enabled {
		return
	}
	e.cullEnabled = enabled
	e.updateRasterization()
}

// SetCullFace selects the culled face when culling is enabled.
func (e *Encoder) SetCullFace(face gputypes.CullMode) {
	if e.cullFace == face {
		return
	}
	e.cullFace = face
	e.updateRasterization()
}

// SetClampDepth enables depth clamping (unclipped depth).
func (e *Encoder) SetClampDepth(enabled bool) {
	if e.clampDepth == enabled {
		return
	}
	e.clampDepth = enabled
	e.updateRasterization()
}

// SetAlphaToCoverage enables alpha to coverage.
func (e *Encoder) SetAlphaToCoverage(enabled bool) {
	if e.alphaToCoverage == enabled {
		return
	}
	e.alphaToCoverage = enabled
	e.updateRasterization()
}

// SetFillMode sets the primitive topology from an engine fill mode.
func (e *Encoder) SetFillMode(m FillMode) error {
	t, err := m.Topology()
	if err != nil {
		return err
	}
	if e.topology == t {
		return nil
	}
	e.topology = t
	e.updateRasterization()
	return nil
}

// SetSampleCount sets the multisample count. Counts above 1 are clamped to 4,
// the only other level WebGPU supports; 0 means 1.
func (e *Encoder) SetSampleCount(n uint32) {
	n = clampSampleCount(n)
	if e.sampleCount == n {
		return
	}
	e.sampleCount = n
	e.updateRasterization()
}

func clampSampleCount(n uint32) uint32 {
	if n > 1 {
		return 4
	}
	return 1
}

// SetDepthBias sets the constant depth bias.
func (e *Encoder) SetDepthBias(bias int32) {
	if e.depthBias == bias {
		return
	}
	e.depthBias = bias
	e.updateDepthBias()
}

// SetDepthBiasSlopeScale sets the slope-scaled depth bias.
func (e *Encoder) SetDepthBiasSlopeScale(scale float32) {
	if e.depthBiasSlope == scale {
		return
	}
	e.depthBiasSlope = scale
	e.updateDepthBias()
}

func (e *Encoder) updateDepthBias() {
	e.setSlot(SlotDepthBias, uint64(uint32(e.depthBias))) //nolint:gosec // bit reinterpretation
	e.setSlot(SlotDepthBiasSlopeScale, uint64(math.Float32bits(e.depthBiasSlope)))
}

// --- color ---

func (e *Encoder) updateColorState() {
	format := uint64(0)
	if len(e.mrtFormats) == 0 {
		format = e.formatIndex(e.colorFormat)
	}
	w := uint64(e.writeMask&0xF)<<22 |
		format<<26 |
		b2u(e.depthWrite)<<32
	if e.blendEnabled {
		w |= blendFactorIndex(e.blendFactors[0]) |
			blendFactorIndex(e.blendFactors[1])<<4 |
			blendFactorIndex(e.blendFactors[2])<<8 |
			blendFactorIndex(e.blendFactors[3])<<12 |
			blendOpIndex(e.blendOps[0])<<16 |
			blendOpIndex(e.blendOps[1])<<19
	}
	e.setSlot(SlotColorState, w)
}

// SetColorFormat sets the format of the single color target. It is ignored
// while MRT attachments are set.
func (e *Encoder) SetColorFormat(f gputypes.TextureFormat) {
	if e.colorFormat == f {
		return
	}
	e.colorFormat = f
	e.updateColorState()
}

// SetWriteMask sets the color write mask.
func (e *Encoder) SetWriteMask(mask gputypes.ColorWriteMask) {
	if e.writeMask == mask {
		return
	}
	e.writeMask = mask
	e.updateColorState()
}

// SetAlphaBlendEnabled enables blending. Blend factors and operations only
// enter the state while blending is enabled.
func (e *Encoder) SetAlphaBlendEnabled(enabled bool) {
	if e.blendEnabled == enabled {
		return
	}
	e.blendEnabled = enabled
	e.updateColorState()
}

// SetAlphaBlendFactors sets the color and alpha blend factors.
func (e *Encoder) SetAlphaBlendFactors(srcRGB, dstRGB, srcAlpha, dstAlpha gputypes.BlendFactor) {
	f := [4]gputypes.BlendFactor{srcRGB, dstRGB, srcAlpha, dstAlpha}
	if e.blendFactors == f {
		return
	}
	e.blendFactors = f
	e.updateColorState()
}

// SetAlphaBlendOperations sets the color and alpha blend operations.
func (e *Encoder) SetAlphaBlendOperations(rgb, alpha gputypes.BlendOperation) {
	op := [2]gputypes.BlendOperation{rgb, alpha}
	if e.blendOps == op {
		return
	}
	e.blendOps = op
	e.updateColorState()
}

// SetDepthWriteEnabled enables depth writes. The flag lives in the color
// state slot.
func (e *Encoder) SetDepthWriteEnabled(enabled bool) {
	if e.depthWrite == enabled {
		return
	}
	e.depthWrite = enabled
	e.updateColorState()
}

// SetMRTAttachments sets the formats of multiple render targets. All
// attachments are write-enabled. A nil or empty slice returns to the single
// color target. More than MaxAttachments formats is a configuration error and
// leaves the encoder unchanged.
func (e *Encoder) SetMRTAttachments(formats []gputypes.TextureFormat) error {
	if len(formats) > MaxAttachments {
		return fmt.Errorf("%w: %d requested, limit is %d", ErrTooManyAttachments, len(formats), MaxAttachments)
	}
	e.mrtFormats = append(e.mrtFormats[:0], formats...)
	if len(formats) == 0 {
		e.mrtFormats = nil
	}
	e.mrtEnabledMask = 1<<uint(len(formats)) - 1
	e.updateMRT()
	e.updateColorState()
	return nil
}

// SetMRTEnabledMask selects which MRT attachments are written. Bit i enables
// attachment i; bits beyond the attachment count are ignored.
func (e *Encoder) SetMRTEnabledMask(mask uint32) {
	mask &= 1<<uint(len(e.mrtFormats)) - 1
	if e.mrtEnabledMask == mask {
		return
	}
	e.mrtEnabledMask = mask
	e.updateMRT()
}

func (e *Encoder) updateMRT() {
	var words [2]uint64
	for i, f := range e.mrtFormats {
		words[i/formatsPerWord] |= e.formatIndex(f) << (6 * uint(i%formatsPerWord))
	}
	e.setSlot(SlotMRTEnabledMask, uint64(e.mrtEnabledMask))
	e.setSlot(SlotMRTAttachments1, words[0])
	e.setSlot(SlotMRTAttachments2, words[1])
}

// --- depth and stencil ---

func (e *Encoder) updateDepthStencil() {
	compare := uint64(depthTestDisabled)
	if e.depthTest {
		compare = compareIndex(e.depthCompare)
	}
	stencil := uint64(stencilDisabled)
	if e.stencilEnabled {
		stencil = e.stencil.packed()
	}
	w := e.formatIndex(e.depthStencilFormat) | compare<<6 | stencil<<10
	e.setSlot(SlotDepthStencil, w)
}

func (e *Encoder) updateStencilMasks() {
	e.setSlot(SlotStencilReadMask, uint64(e.stencilReadMask))
	e.setSlot(SlotStencilWriteMask, uint64(e.stencilWriteMask))
}

// SetDepthStencilFormat sets the depth/stencil attachment format.
// TextureFormatUndefined means no depth/stencil attachment.
func (e *Encoder) SetDepthStencilFormat(f gputypes.TextureFormat) {
	if e.depthStencilFormat == f {
		return
	}
	e.depthStencilFormat = f
	e.updateDepthStencil()
}

// SetDepthTestEnabled enables the depth test.
func (e *Encoder) SetDepthTestEnabled(enabled bool) {
	if e.depthTest == enabled {
		return
	}
	e.depthTest = enabled
	e.updateDepthStencil()
}

// SetDepthCompare sets the depth compare function.
func (e *Encoder) SetDepthCompare(f gputypes.CompareFunction) {
	if e.depthCompare == f {
		return
	}
	e.depthCompare = f
	e.updateDepthStencil()
}

// SetStencilEnabled enables the stencil test.
func (e *Encoder) SetStencilEnabled(enabled bool) {
	if e.stencilEnabled == enabled {
		return
	}
	e.stencilEnabled = enabled
	e.updateDepthStencil()
}

// SetStencilFace sets the stencil test applied to both faces.
func (e *Encoder) SetStencilFace(f StencilFace) {
	if e.stencil == f {
		return
	}
	e.stencil = f
	e.updateDepthStencil()
}

// SetStencilReadMask sets the stencil compare mask.
func (e *Encoder) SetStencilReadMask(mask uint32) {
	if e.stencilReadMask == mask {
		return
	}
	e.stencilReadMask = mask
	e.updateStencilMasks()
}

// SetStencilWriteMask sets the stencil write mask.
func (e *Encoder) SetStencilWriteMask(mask uint32) {
	if e.stencilWriteMask == mask {
		return
	}
	e.stencilWriteMask = mask
	e.updateStencilMasks()
}

// SetStencilState sets the complete stencil configuration.
func (e *Encoder) SetStencilState(enabled bool, face StencilFace, readMask, writeMask uint32) {
	e.SetStencilEnabled(enabled)
	e.SetStencilFace(face)
	e.SetStencilReadMask(readMask)
	e.SetStencilWriteMask(writeMask)
}

// ResetStencilState disables the stencil test and restores default masks.
func (e *Encoder) ResetStencilState() {
	e.SetStencilState(false, DefaultStencilFace, 0xFF, 0xFF)
}

// DepthCullingState groups the depth and culling setters.
type DepthCullingState struct {
	CullEnabled  bool
	CullFace     gputypes.CullMode
	FrontFace    gputypes.FrontFace
	ClampDepth   bool
	DepthTest    bool
	DepthWrite   bool
	DepthCompare gputypes.CompareFunction
	DepthBias    int32
	SlopeScale   float32
}

// DefaultDepthCullingState is the depth and culling state of a reset encoder.
var DefaultDepthCullingState = DepthCullingState{
	CullEnabled:  true,
	CullFace:     gputypes.CullModeBack,
	FrontFace:    gputypes.FrontFaceCCW,
	DepthTest:    true,
	DepthWrite:   true,
	DepthCompare: gputypes.CompareFunctionLessEqual,
}

// SetDepthCullingState applies s through the individual setters.
func (e *Encoder) SetDepthCullingState(s DepthCullingState) {
	e.SetCullEnabled(s.CullEnabled)
	e.SetCullFace(s.CullFace)
	e.SetFrontFace(s.FrontFace)
	e.SetClampDepth(s.ClampDepth)
	e.SetDepthTestEnabled(s.DepthTest)
	e.SetDepthWriteEnabled(s.DepthWrite)
	e.SetDepthCompare(s.DepthCompare)
	e.SetDepthBias(s.DepthBias)
	e.SetDepthBiasSlopeScale(s.SlopeScale)
}

// ResetDepthCullingState restores DefaultDepthCullingState.
func (e *Encoder) ResetDepthCullingState() {
	e.SetDepthCullingState(DefaultDepthCullingState)
}

// --- shader, textures and vertex input ---

// SetShaderStage sets the identity of the shader program.
func (e *Encoder) SetShaderStage(effectID uint64) {
	if e.effectID == effectID {
		return
	}
	e.effectID = effectID
	e.setSlot(SlotShaderStage, effectID)
}

// SetTextureState sets the unfilterable texture bitmask of the effect.
func (e *Encoder) SetTextureState(state uint32) {
	if e.textureState == state {
		return
	}
	e.textureState = state
	e.setSlot(SlotTextureStage, uint64(state))
}

// SetBuffers binds vertex buffers by attribute name. indexFormat is the
// format of the bound index buffer, the zero value when drawing non-indexed;
// it only matters for strip topologies. Buffers in overrides take precedence.
func (e *Encoder) SetBuffers(buffers map[string]*vertex.Buffer, indexFormat gputypes.IndexFormat, overrides map[string]*vertex.Buffer) {
	e.buffers = buffers
	e.overrides = overrides
	if e.stripIndexFormat != indexFormat {
		e.stripIndexFormat = indexFormat
		e.updateRasterization()
	}
}

// SetVertexState resolves the vertex layouts of attrs against the bound
// buffers and writes one slot per attribute. A change in attribute count
// alone marks the encoder dirty.
func (e *Encoder) SetVertexState(attrs []vertex.Attribute) error {
	if len(attrs) > MaxVertexAttributes {
		return fmt.Errorf("%w: %d declared, limit is %d", ErrTooManyAttributes, len(attrs), MaxVertexAttributes)
	}
	res, err := e.resolver.Resolve(attrs, e.buffers, e.overrides)
	if err != nil {
		return err
	}
	e.resolution = res

	length := SlotVertexState + len(res.Words)
	if length != e.length {
		e.markDirty(min(length, e.length))
		e.length = length
	}
	for i, w := range res.Words {
		e.setSlot(SlotVertexState+i, w)
	}
	return nil
}

// Resolution returns the vertex layouts computed by the last SetVertexState.
func (e *Encoder) Resolution() *vertex.Resolution {
	return e.resolution
}

// --- compile request ---

func (e *Encoder) blendState() *gputypes.BlendState {
	if !e.blendEnabled {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: e.blendFactors[0],
			DstFactor: e.blendFactors[1],
			Operation: e.blendOps[0],
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: e.blendFactors[2],
			DstFactor: e.blendFactors[3],
			Operation: e.blendOps[1],
		},
	}
}

func (e *Encoder) targets() []gputypes.ColorTargetState {
	blend := e.blendState()
	if len(e.mrtFormats) == 0 {
		if e.colorFormat == gputypes.TextureFormatUndefined {
			return nil
		}
		return []gputypes.ColorTargetState{{Format: e.colorFormat, Blend: blend, WriteMask: e.writeMask}}
	}
	out := make([]gputypes.ColorTargetState, len(e.mrtFormats))
	for i, f := range e.mrtFormats {
		mask := gputypes.ColorWriteMaskNone
		if e.mrtEnabledMask&(1<<uint(i)) != 0 {
			mask = e.writeMask
		}
		out[i] = gputypes.ColorTargetState{Format: f, Blend: blend, WriteMask: mask}
	}
	return out
}

func (e *Encoder) depthStencilRequest() *DepthStencilRequest {
	if e.depthStencilFormat == gputypes.TextureFormatUndefined {
		return nil
	}
	ds := &DepthStencilRequest{
		Format:              e.depthStencilFormat,
		DepthWriteEnabled:   e.depthWrite,
		DepthCompare:        gputypes.CompareFunctionAlways,
		Stencil:             StencilFace{Compare: gputypes.CompareFunctionAlways, FailOp: StencilKeep, DepthFailOp: StencilKeep, PassOp: StencilKeep},
		StencilReadMask:     e.stencilReadMask,
		StencilWriteMask:    e.stencilWriteMask,
		DepthBias:           e.depthBias,
		DepthBiasSlopeScale: e.depthBiasSlope,
	}
	if e.depthTest {
		ds.DepthCompare = e.depthCompare
	}
	if e.stencilEnabled {
		ds.Stencil = e.stencil
	}
	return ds
}

// request builds the compile request for the current state.
func (e *Encoder) request(effect *Effect) *RenderPipelineRequest {
	cull := gputypes.CullModeNone
	if e.cullEnabled {
		cull = e.cullFace
	}
	req := &RenderPipelineRequest{
		Label:           effect.Label,
		Effect:          effect,
		TextureState:    e.textureState,
		Topology:        e.topology,
		FrontFace:       e.frontFace,
		CullMode:        cull,
		UnclippedDepth:  e.clampDepth,
		Targets:         e.targets(),
		DepthStencil:    e.depthStencilRequest(),
		SampleCount:     e.sampleCount,
		AlphaToCoverage: e.alphaToCoverage,
	}
	if isStrip(e.topology) {
		req.StripIndexFormat = e.stripIndexFormat
	}
	if e.resolution != nil {
		req.VertexBuffers = e.resolution.Layouts
	}
	return req
}
