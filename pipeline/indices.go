package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// StencilOp is a stencil buffer operation. The numeric values are the packed
// indices used in the depth/stencil state slot.
type StencilOp uint8

// Stencil operations.
const (
	StencilZero StencilOp = iota
	StencilKeep
	StencilReplace
	StencilIncrementClamp
	StencilDecrementClamp
	StencilInvert
	StencilIncrementWrap
	StencilDecrementWrap
)

// String returns the operation name.
func (op StencilOp) String() string {
	switch op {
	case StencilZero:
		return "Zero"
	case StencilKeep:
		return "Keep"
	case StencilReplace:
		return "Replace"
	case StencilIncrementClamp:
		return "IncrementClamp"
	case StencilDecrementClamp:
		return "DecrementClamp"
	case StencilInvert:
		return "Invert"
	case StencilIncrementWrap:
		return "IncrementWrap"
	case StencilDecrementWrap:
		return "DecrementWrap"
	default:
		return fmt.Sprintf("StencilOp(%d)", uint8(op))
	}
}

// compareIndex packs a compare function into 3 bits. Unknown values pack
// as Always.
func compareIndex(f gputypes.CompareFunction) uint64 {
	switch f {
	case gputypes.CompareFunctionNever:
		return 0
	case gputypes.CompareFunctionLess:
		return 1
	case gputypes.CompareFunctionEqual:
		return 2
	case gputypes.CompareFunctionLessEqual:
		return 3
	case gputypes.CompareFunctionGreater:
		return 4
	case gputypes.CompareFunctionNotEqual:
		return 5
	case gputypes.CompareFunctionGreaterEqual:
		return 6
	default:
		return 7
	}
}

// blendFactorIndex packs a blend factor into 4 bits. Index 0 is never
// produced; unset or unknown factors pack as One.
func blendFactorIndex(f gputypes.BlendFactor) uint64 {
	switch f {
	case gputypes.BlendFactorZero:
		return 1
	case gputypes.BlendFactorOne:
		return 2
	case gputypes.BlendFactorSrc:
		return 3
	case gputypes.BlendFactorOneMinusSrc:
		return 4
	case gputypes.BlendFactorSrcAlpha:
		return 5
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 6
	case gputypes.BlendFactorDstAlpha:
		return 7
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 8
	case gputypes.BlendFactorDst:
		return 9
	case gputypes.BlendFactorOneMinusDst:
		return 10
	case gputypes.BlendFactorSrcAlphaSaturated:
		return 11
	case gputypes.BlendFactorConstant:
		return 12
	case gputypes.BlendFactorOneMinusConstant:
		return 13
	default:
		return 2
	}
}

// blendOpIndex packs a blend operation into 3 bits. Unknown values pack as Add.
func blendOpIndex(op gputypes.BlendOperation) uint64 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return 2
	case gputypes.BlendOperationReverseSubtract:
		return 3
	case gputypes.BlendOperationMin:
		return 4
	case gputypes.BlendOperationMax:
		return 5
	default:
		return 1
	}
}

// maxFormatIndex is the largest index a 6 bit format field holds.
const maxFormatIndex = 63

// knownFormats fixes the index of common render target formats. Index 0
// means no format. Formats not listed get the next free index the first
// time an encoder sees them.
var knownFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatR8Unorm,
	gputypes.TextureFormatR32Float,
	gputypes.TextureFormatRG32Float,
	gputypes.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatRGBA16Float,
	gputypes.TextureFormatRGBA32Float,
	gputypes.TextureFormatDepth16Unorm,
	gputypes.TextureFormatDepth24Plus,
	gputypes.TextureFormatDepth24PlusStencil8,
	gputypes.TextureFormatDepth32Float,
}

// formatTable assigns stable 6 bit indices to texture formats.
type formatTable struct {
	index map[gputypes.TextureFormat]uint64
	next  uint64
}

func newFormatTable() formatTable {
	t := formatTable{index: make(map[gputypes.TextureFormat]uint64, len(knownFormats))}
	for i, f := range knownFormats {
		t.index[f] = uint64(i + 1)
	}
	t.next = uint64(len(knownFormats) + 1)
	return t
}

// lookup returns the index of f, assigning one if needed.
func (t *formatTable) lookup(f gputypes.TextureFormat) (uint64, error) {
	if f == gputypes.TextureFormatUndefined {
		return 0, nil
	}
	if i, ok := t.index[f]; ok {
		return i, nil
	}
	if t.next > maxFormatIndex {
		return 0, fmt.Errorf("%w: %v", ErrTooManyFormats, f)
	}
	i := t.next
	t.index[f] = i
	t.next++
	return i, nil
}
