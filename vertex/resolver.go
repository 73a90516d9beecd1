package vertex

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache"
)

// DefaultMaxStride is the WebGPU limit on vertex buffer array strides.
const DefaultMaxStride = 2048

// MaxStrideLimit is the largest stride limit a state word can encode.
// Strides and attribute offsets never exceed the stride limit.
const MaxStrideLimit = 0xFFFF

// DummySize is the size of the zero-filled buffer bound to attributes that
// have no vertex buffer: one float32x4 element.
const DummySize = 16

// Attribute is a shader input in declaration order.
type Attribute struct {
	Name     string
	Location uint32
}

// Layout is one vertex buffer slot of a pipeline.
type Layout struct {
	gputypes.VertexBufferLayout

	// Buffer is the buffer that owns the slot (the first attribute's).
	Buffer *Buffer

	// BindOffset is the offset to pass when binding Buffer's storage.
	// Non-zero only for buffers whose offset cannot be an attribute offset.
	BindOffset uint64
}

// Resolution is the result of resolving an attribute list.
type Resolution struct {
	// Layouts are ordered by the first attribute they contain, which is
	// shader declaration order.
	Layouts []Layout

	// Words holds one vertex state word per attribute.
	Words []uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxStride sets the array stride limit. Buffers with a larger stride
// are rejected; attribute offsets must fit below it. Values above
// MaxStrideLimit are clamped.
func WithMaxStride(n uint32) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxStride = min(n, MaxStrideLimit)
		}
	}
}

// WithDummyStorage sets the storage bound to attributes without a buffer. It
// must be at least DummySize bytes and zero-filled.
func WithDummyStorage(s *Storage) Option {
	return func(r *Resolver) {
		if s != nil {
			r.dummy.Storage = s
		}
	}
}

// Resolver builds vertex buffer layouts from shader attributes. It memoizes
// the offset range check of every buffer it has seen; call Forget when a
// buffer is disposed.
//
// Resolver is not safe for concurrent use.
type Resolver struct {
	maxStride uint32
	dummy     *Buffer

	validOffset map[*Buffer]bool
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		maxStride: DefaultMaxStride,
		dummy: &Buffer{
			Storage:    &Storage{Size: DummySize},
			Type:       Float,
			Components: 4,
		},
		validOffset: make(map[*Buffer]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dummy returns the buffer substituted for missing vertex buffers.
func (r *Resolver) Dummy() *Buffer {
	return r.dummy
}

// Forget drops the memoized offset range check of b.
func (r *Resolver) Forget(b *Buffer) {
	delete(r.validOffset, b)
}

// ValidOffsetRange reports whether b's byte offset can be expressed as an
// attribute offset inside its stride. The result is computed once per buffer.
func (r *Resolver) ValidOffsetRange(b *Buffer) bool {
	if v, ok := r.validOffset[b]; ok {
		return v
	}
	size := b.ElementSize()
	offset, stride := b.ByteOffset, b.ByteStride
	v := size <= r.maxStride && offset <= r.maxStride-size && (stride == 0 || offset+size <= stride)
	r.validOffset[b] = v
	return v
}

// Resolve produces the vertex buffer layouts for attrs. A buffer in overrides
// takes precedence over one in buffers with the same name. Attributes with no
// buffer read from the dummy buffer.
func (r *Resolver) Resolve(attrs []Attribute, buffers, overrides map[string]*Buffer) (*Resolution, error) {
	res := &Resolution{Words: make([]uint64, 0, len(attrs))}

	var (
		current     *Layout
		prevStorage *Storage
		prevBuffer  *Buffer
	)
	for _, attr := range attrs {
		if attr.Location > MaxLocation {
			return nil, fmt.Errorf("%w: %q at location %d", ErrLocationOutOfRange, attr.Name, attr.Location)
		}

		buf := overrides[attr.Name]
		if buf == nil {
			buf = buffers[attr.Name]
		}
		if buf == nil {
			buf = r.dummy
		}
		if buf.Storage == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoStorage, attr.Name)
		}

		if buf.ByteStride > r.maxStride {
			return nil, fmt.Errorf("%w: %q has stride %d, limit %d", ErrStrideTooLarge, attr.Name, buf.ByteStride, r.maxStride)
		}

		format, err := buf.Format()
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
		}

		valid := r.ValidOffsetRange(buf)
		merged := valid && current != nil && buf.Storage == prevStorage &&
			buf.ByteStride == prevBuffer.ByteStride && buf.Instanced == prevBuffer.Instanced

		offset := uint64(0)
		if valid {
			offset = uint64(buf.ByteOffset)
		}
		if !merged {
			l := Layout{
				VertexBufferLayout: gputypes.VertexBufferLayout{
					ArrayStride: uint64(buf.ByteStride),
					StepMode:    buf.StepMode(),
				},
				Buffer: buf,
			}
			if !valid {
				l.BindOffset = uint64(buf.ByteOffset)
			}
			res.Layouts = append(res.Layouts, l)
			current = &res.Layouts[len(res.Layouts)-1]
		}
		current.Attributes = append(current.Attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         offset,
			ShaderLocation: attr.Location,
		})

		word := buf.hashCode(valid) + uint64(attr.Location)<<hashLocationShift
		if merged {
			word |= 1 << hashMergedShift
		}
		res.Words = append(res.Words, word)

		// A buffer bound at its own offset cannot share its slot.
		prevStorage, prevBuffer = nil, nil
		if valid {
			prevStorage, prevBuffer = buf.Storage, buf
		}
	}

	pipecache.Logger().Debug("vertex: layouts resolved",
		"attributes", len(attrs), "layouts", len(res.Layouts))
	return res, nil
}
