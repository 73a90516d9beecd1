package vertex

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// DataType is the component type of a vertex attribute.
type DataType uint8

// Component types.
const (
	Byte DataType = iota + 1
	UnsignedByte
	Short
	UnsignedShort
	Int
	UnsignedInt
	Float
	HalfFloat
)

// String returns the type name.
func (t DataType) String() string {
	switch t {
	case Byte:
		return "Byte"
	case UnsignedByte:
		return "UnsignedByte"
	case Short:
		return "Short"
	case UnsignedShort:
		return "UnsignedShort"
	case Int:
		return "Int"
	case UnsignedInt:
		return "UnsignedInt"
	case Float:
		return "Float"
	case HalfFloat:
		return "HalfFloat"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// Size returns the size of one component in bytes.
func (t DataType) Size() uint32 {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort, HalfFloat:
		return 2
	default:
		return 4
	}
}

// Storage is an underlying GPU buffer. Several Buffers may view the same
// Storage (interleaved vertex data); attributes are only coalesced when they
// share a Storage pointer.
type Storage struct {
	// Native is the backend buffer handle.
	Native any

	// Size is the buffer size in bytes.
	Size uint64
}

// Buffer is a typed view of vertex data inside a Storage.
type Buffer struct {
	Storage *Storage

	Type       DataType
	Components uint32
	Normalized bool

	// ByteOffset is the offset of the first element inside Storage.
	ByteOffset uint32

	// ByteStride is the distance between consecutive elements. Zero means
	// every vertex reads the same element.
	ByteStride uint32

	// Instanced advances the buffer per instance instead of per vertex.
	Instanced bool
}

// ElementSize returns the byte size of one element.
func (b *Buffer) ElementSize() uint32 {
	return b.Type.Size() * b.Components
}

// StepMode returns the vertex step mode of the buffer.
func (b *Buffer) StepMode() gputypes.VertexStepMode {
	if b.Instanced {
		return gputypes.VertexStepModeInstance
	}
	return gputypes.VertexStepModeVertex
}

// Format maps the buffer's element description to a vertex format.
func (b *Buffer) Format() (gputypes.VertexFormat, error) {
	f, ok := formatOf(b.Type, b.Components, b.Normalized)
	if !ok {
		norm := ""
		if b.Normalized {
			norm = " normalized"
		}
		return 0, fmt.Errorf("%w: %s x%d%s", ErrUnsupportedFormat, b.Type, b.Components, norm)
	}
	return f, nil
}

type formatKey struct {
	typ        DataType
	components uint32
	normalized bool
}

// formats lists every element description with a vertex format. 8 and 16 bit
// types only exist with 2 or 4 components; 32 bit integers cannot be
// normalized.
var formats = map[formatKey]gputypes.VertexFormat{
	{Byte, 2, false}: gputypes.VertexFormatSint8x2,
	{Byte, 4, false}: gputypes.VertexFormatSint8x4,
	{Byte, 2, true}:  gputypes.VertexFormatSnorm8x2,
	{Byte, 4, true}:  gputypes.VertexFormatSnorm8x4,

	{UnsignedByte, 2, false}: gputypes.VertexFormatUint8x2,
	{UnsignedByte, 4, false}: gputypes.VertexFormatUint8x4,
	{UnsignedByte, 2, true}:  gputypes.VertexFormatUnorm8x2,
	{UnsignedByte, 4, true}:  gputypes.VertexFormatUnorm8x4,

	{Short, 2, false}: gputypes.VertexFormatSint16x2,
	{Short, 4, false}: gputypes.VertexFormatSint16x4,
	{Short, 2, true}:  gputypes.VertexFormatSnorm16x2,
	{Short, 4, true}:  gputypes.VertexFormatSnorm16x4,

	{UnsignedShort, 2, false}: gputypes.VertexFormatUint16x2,
	{UnsignedShort, 4, false}: gputypes.VertexFormatUint16x4,
	{UnsignedShort, 2, true}:  gputypes.VertexFormatUnorm16x2,
	{UnsignedShort, 4, true}:  gputypes.VertexFormatUnorm16x4,

	{Int, 1, false}: gputypes.VertexFormatSint32,
	{Int, 2, false}: gputypes.VertexFormatSint32x2,
	{Int, 3, false}: gputypes.VertexFormatSint32x3,
	{Int, 4, false}: gputypes.VertexFormatSint32x4,

	{UnsignedInt, 1, false}: gputypes.VertexFormatUint32,
	{UnsignedInt, 2, false}: gputypes.VertexFormatUint32x2,
	{UnsignedInt, 3, false}: gputypes.VertexFormatUint32x3,
	{UnsignedInt, 4, false}: gputypes.VertexFormatUint32x4,

	{HalfFloat, 2, false}: gputypes.VertexFormatFloat16x2,
	{HalfFloat, 4, false}: gputypes.VertexFormatFloat16x4,
}

func formatOf(t DataType, components uint32, normalized bool) (gputypes.VertexFormat, bool) {
	if t == Float {
		// Floats ignore the normalized flag.
		switch components {
		case 1:
			return gputypes.VertexFormatFloat32, true
		case 2:
			return gputypes.VertexFormatFloat32x2, true
		case 3:
			return gputypes.VertexFormatFloat32x3, true
		case 4:
			return gputypes.VertexFormatFloat32x4, true
		}
		return 0, false
	}
	f, ok := formats[formatKey{t, components, normalized}]
	return f, ok
}

// Hash bit layout of a vertex state word.
const (
	hashTypeShift       = 0  // 4 bits
	hashComponentsShift = 4  // 2 bits, components-1
	hashNormalizedShift = 6  // 1 bit
	hashLocationShift   = 7  // 5 bits, shader location
	hashInstancedShift  = 12 // 1 bit
	hashStrideShift     = 13 // 16 bits
	hashOffsetShift     = 29 // 16 bits, only meaningful with a valid offset range
	hashMergedShift     = 45 // 1 bit

	// MaxLocation is the highest shader location a state word can hold.
	MaxLocation = 31
)

// hashCode packs the pipeline-relevant properties of b. The byte offset is
// only part of the pipeline when it is expressed as an attribute offset.
func (b *Buffer) hashCode(validOffset bool) uint64 {
	h := uint64(b.Type)<<hashTypeShift |
		uint64((b.Components-1)&0x3)<<hashComponentsShift |
		uint64(b.ByteStride&MaxStrideLimit)<<hashStrideShift
	if b.Normalized {
		h |= 1 << hashNormalizedShift
	}
	if b.Instanced {
		h |= 1 << hashInstancedShift
	}
	if validOffset {
		h |= uint64(b.ByteOffset&MaxStrideLimit) << hashOffsetShift
	}
	return h
}
