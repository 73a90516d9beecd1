package halgpu

// Option configures a Backend.
type Option func(*options)

type options struct {
	label        string
	samplerLimit int
	maxStride    uint32
}

// WithLabel prefixes the labels of every object the backend creates.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithSamplerLimit bounds the sampler cache. 0, the default, never evicts.
// An evicted sampler is destroyed immediately and a later Sampler call for
// the same description creates a new one with a new ID. Bind groups cached
// by a bindgroup.Assembler that reference the evicted sampler are not
// released and must not be used again: keep the limit above the number of
// samplers referenced by live bind groups, or call Assembler.Reset after
// an eviction.
func WithSamplerLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.samplerLimit = n
		}
	}
}

// WithMaxStride sets the vertex stride limit of the backend's resolver.
func WithMaxStride(n uint32) Option {
	return func(o *options) {
		o.maxStride = n
	}
}
