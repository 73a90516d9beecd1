package binding

// Default allocation limits.
const (
	// DefaultMaxGroups is the number of bind groups guaranteed by WebGPU.
	DefaultMaxGroups = 4

	// DefaultMaxBindingsPerGroup bounds the bindings handed out per group
	// before allocation rolls over to the next group.
	DefaultMaxBindingsPerGroup = 16

	// AutoSamplerSuffix is appended to a texture name to form the name of
	// its automatically bound sampler.
	AutoSamplerSuffix = "Sampler"
)

// KnownBuffer reserves a fixed slot for an engine-internal uniform block.
// A negative Group or Binding means the buffer has no reservation and is
// allocated dynamically like any other resource.
type KnownBuffer struct {
	Name    string
	Group   int
	Binding int
}

func (kb KnownBuffer) reserved() bool {
	return kb.Group >= 0 && kb.Binding >= 0
}

// SimplifiedKnownBuffers is the default reservation table: scene data in
// group 0, per-mesh data in group 1, everything else dynamic.
var SimplifiedKnownBuffers = []KnownBuffer{
	{Name: "Scene", Group: 0, Binding: 0},
	{Name: "Light0", Group: -1, Binding: -1},
	{Name: "Light1", Group: -1, Binding: -1},
	{Name: "Light2", Group: -1, Binding: -1},
	{Name: "Light3", Group: -1, Binding: -1},
	{Name: "Material", Group: -1, Binding: -1},
	{Name: "Mesh", Group: 1, Binding: 0},
	{Name: "Internals", Group: -1, Binding: -1},
}

// FullKnownBuffers reserves slots for every engine uniform block. Lights and
// the material share group 2 so dynamic resources start in group 3.
var FullKnownBuffers = []KnownBuffer{
	{Name: "Scene", Group: 0, Binding: 0},
	{Name: "Mesh", Group: 1, Binding: 0},
	{Name: "Light0", Group: 2, Binding: 0},
	{Name: "Light1", Group: 2, Binding: 1},
	{Name: "Light2", Group: 2, Binding: 2},
	{Name: "Light3", Group: 2, Binding: 3},
	{Name: "Material", Group: 2, Binding: 4},
	{Name: "Internals", Group: -1, Binding: -1},
}

// Option configures an Allocator.
type Option func(*options)

type options struct {
	maxGroups   int
	maxBindings int
	known       []KnownBuffer
}

func defaultOptions() options {
	return options{
		maxGroups:   DefaultMaxGroups,
		maxBindings: DefaultMaxBindingsPerGroup,
		known:       SimplifiedKnownBuffers,
	}
}

// WithMaxGroups sets the number of bind groups available to dynamic allocation.
// Values below one are ignored.
func WithMaxGroups(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGroups = n
		}
	}
}

// WithMaxBindingsPerGroup sets the per-group binding capacity.
// Values below one are ignored.
func WithMaxBindingsPerGroup(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBindings = n
		}
	}
}

// WithKnownBuffers replaces the reserved engine buffer table.
// Pass nil to disable reservations entirely.
func WithKnownBuffers(known []KnownBuffer) Option {
	return func(o *options) {
		o.known = known
	}
}
