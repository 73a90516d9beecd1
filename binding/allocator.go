package binding

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pipecache"
)

// Location is a (group, binding) coordinate in a pipeline layout.
type Location struct {
	Group   uint32
	Binding uint32
}

// String formats the location as group/binding.
func (l Location) String() string {
	return fmt.Sprintf("%d/%d", l.Group, l.Binding)
}

// Entry describes a named shader resource and the slots assigned to it.
// Once assigned, Locations never change for the lifetime of the Allocator.
type Entry struct {
	// Name is the source-level resource name.
	Name string

	// Kind is the resource class.
	Kind Kind

	// Locations holds one slot per array element. Only texture arrays have
	// more than one.
	Locations []Location

	// Visibility is the set of shader stages that access the resource.
	Visibility gputypes.ShaderStage

	// Reserved is true when the slot came from the known buffer table.
	Reserved bool

	// ReadOnly marks a read-only storage buffer.
	ReadOnly bool

	// MinBindingSize is the minimum buffer binding size, 0 if unknown.
	MinBindingSize uint64

	// SampleType, ViewDimension and Multisampled describe sampled textures.
	SampleType    gputypes.TextureSampleType
	ViewDimension gputypes.TextureViewDimension
	Multisampled  bool

	// StorageFormat and StorageAccess describe storage textures.
	StorageFormat gputypes.TextureFormat
	StorageAccess gputypes.StorageTextureAccess

	// SamplerType describes samplers.
	SamplerType gputypes.SamplerBindingType

	// Sampler is the automatically bound sampler of a texture, if any.
	Sampler *Entry

	// Texture is the texture an automatic sampler was created for.
	Texture *Entry

	// textureIndex is the ordinal of a sampled texture among all sampled
	// textures, used as its bit in the texture state mask. -1 otherwise.
	textureIndex int
}

// Location returns the slot of the first element.
func (e *Entry) Location() Location {
	return e.Locations[0]
}

// ArraySize returns the number of bound elements.
func (e *Entry) ArraySize() int {
	return len(e.Locations)
}

// TextureIndex returns the texture state bit of a sampled texture, or -1.
func (e *Entry) TextureIndex() int {
	return e.textureIndex
}

// TextureDesc describes a texture declaration discovered in shader source.
type TextureDesc struct {
	// Kind is KindTexture, KindStorageTexture or KindExternalTexture.
	// Zero means KindTexture.
	Kind Kind

	// ArraySize is the declared array length; 0 and 1 both mean a single texture.
	ArraySize int

	SampleType    gputypes.TextureSampleType
	ViewDimension gputypes.TextureViewDimension
	Multisampled  bool
	StorageFormat gputypes.TextureFormat
	StorageAccess gputypes.StorageTextureAccess
	Visibility    gputypes.ShaderStage

	// AutoSampler requests a sampler named Name+AutoSamplerSuffix that is
	// shared by every element of the array.
	AutoSampler bool

	// SamplerType is the type of the automatic sampler.
	SamplerType gputypes.SamplerBindingType
}

// Allocator assigns stable (group, binding) slots to shader resources as
// they are discovered. It is the per-shader processing context: one
// Allocator per effect being compiled.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	opts options

	known map[string]KnownBuffer

	freeGroup   uint32
	freeBinding uint32

	entries map[string]*Entry
	order   []*Entry

	numTextures int
	layout      *Layout
}

// NewAllocator creates an allocator whose first dynamic slot follows the
// reserved engine buffers.
func NewAllocator(opts ...Option) *Allocator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	a := &Allocator{
		opts:    o,
		known:   make(map[string]KnownBuffer, len(o.known)),
		entries: make(map[string]*Entry),
	}
	for _, kb := range o.known {
		a.known[kb.Name] = kb
	}
	a.findStartingGroupBinding()
	return a
}

// findStartingGroupBinding positions the free cursor after the reserved
// slots. When only group 0 is reserved, dynamic bindings continue in group 0;
// otherwise they start in a fresh group after the highest reserved one.
func (a *Allocator) findStartingGroupBinding() {
	maxGroup := -1
	maxBinding := map[int]int{}
	for _, kb := range a.opts.known {
		if !kb.reserved() {
			continue
		}
		if b, ok := maxBinding[kb.Group]; !ok || kb.Binding > b {
			maxBinding[kb.Group] = kb.Binding
		}
		maxGroup = max(maxGroup, kb.Group)
	}
	switch maxGroup {
	case -1:
		a.freeGroup, a.freeBinding = 0, 0
	case 0:
		a.freeGroup, a.freeBinding = 0, uint32(maxBinding[0]+1) //nolint:gosec // reservation indices are small and non-negative
	default:
		a.freeGroup, a.freeBinding = uint32(maxGroup+1), 0 //nolint:gosec // reservation indices are small and non-negative
	}
}

// NextFreeBinding hands out the next dynamic slot. When the current group is
// full, allocation rolls over to binding 0 of the next group. Exceeding the
// group limit is a configuration error.
func (a *Allocator) NextFreeBinding() (Location, error) {
	if int(a.freeBinding) >= a.opts.maxBindings {
		a.freeGroup++
		a.freeBinding = 0
	}
	if int(a.freeGroup) >= a.opts.maxGroups {
		return Location{}, fmt.Errorf("%w (limit %d groups of %d bindings)",
			ErrTooManyGroups, a.opts.maxGroups, a.opts.maxBindings)
	}
	loc := Location{Group: a.freeGroup, Binding: a.freeBinding}
	a.freeBinding++
	return loc, nil
}

// Lookup returns the entry registered under name.
func (a *Allocator) Lookup(name string) (*Entry, bool) {
	e, ok := a.entries[name]
	return e, ok
}

// Entries returns all entries in discovery order.
func (a *Allocator) Entries() []*Entry {
	return a.order
}

// existing returns a previously registered entry after checking its kind.
func (a *Allocator) existing(name string, kind Kind) (*Entry, bool, error) {
	if name == "" {
		return nil, false, ErrEmptyName
	}
	e, ok := a.entries[name]
	if !ok {
		return nil, false, nil
	}
	if e.Kind != kind {
		return nil, true, fmt.Errorf("%w: %q is %s, not %s", ErrKindMismatch, name, e.Kind, kind)
	}
	return e, true, nil
}

func (a *Allocator) register(e *Entry) {
	a.entries[e.Name] = e
	a.order = append(a.order, e)
	a.layout = nil
	pipecache.Logger().Debug("binding: resource registered",
		"name", e.Name, "kind", e.Kind.String(), "slot", e.Locations[0].String(), "count", len(e.Locations))
}

// AddBuffer registers a uniform or storage buffer. Uniform buffers whose name
// matches a reservation with a valid group and binding use the reserved slot verbatim.
// Registering the same name again returns the existing entry.
func (a *Allocator) AddBuffer(name string, kind Kind, readOnly bool, visibility gputypes.ShaderStage) (*Entry, error) {
	if !kind.IsBuffer() {
		return nil, fmt.Errorf("%w: %q is not a buffer kind (%s)", ErrKindMismatch, name, kind)
	}
	if e, ok, err := a.existing(name, kind); ok || err != nil {
		return e, err
	}

	e := &Entry{Name: name, Kind: kind, Visibility: visibility, ReadOnly: readOnly, textureIndex: -1}
	if kb, ok := a.known[name]; ok && kind == KindUniformBuffer && kb.reserved() {
		e.Locations = []Location{{Group: uint32(kb.Group), Binding: uint32(kb.Binding)}} //nolint:gosec // reserved() checks both are non-negative
		e.Reserved = true
	} else {
		loc, err := a.NextFreeBinding()
		if err != nil {
			return nil, fmt.Errorf("buffer %q: %w", name, err)
		}
		e.Locations = []Location{loc}
	}
	a.register(e)
	return e, nil
}

// AddSampler registers a standalone sampler.
func (a *Allocator) AddSampler(name string, typ gputypes.SamplerBindingType, visibility gputypes.ShaderStage) (*Entry, error) {
	if e, ok, err := a.existing(name, KindSampler); ok || err != nil {
		return e, err
	}
	loc, err := a.NextFreeBinding()
	if err != nil {
		return nil, fmt.Errorf("sampler %q: %w", name, err)
	}
	e := &Entry{
		Name:         name,
		Kind:         KindSampler,
		Locations:    []Location{loc},
		Visibility:   visibility,
		SamplerType:  typ,
		textureIndex: -1,
	}
	a.register(e)
	return e, nil
}

// AddTexture registers a texture or texture array. An array of N elements
// receives N consecutive slots under one entry. When desc.AutoSampler is set,
// the sampler is allocated first, exactly once, and shared by all elements.
func (a *Allocator) AddTexture(name string, desc TextureDesc) (*Entry, error) {
	kind := desc.Kind
	if kind == 0 {
		kind = KindTexture
	}
	if !kind.IsTexture() {
		return nil, fmt.Errorf("%w: %q is not a texture kind (%s)", ErrKindMismatch, name, kind)
	}
	if desc.ArraySize < 0 {
		return nil, fmt.Errorf("%w: %q has size %d", ErrInvalidArraySize, name, desc.ArraySize)
	}
	if e, ok, err := a.existing(name, kind); ok || err != nil {
		return e, err
	}

	var sampler *Entry
	if desc.AutoSampler && kind != KindStorageTexture {
		s, err := a.AddSampler(name+AutoSamplerSuffix, desc.SamplerType, desc.Visibility)
		if err != nil {
			return nil, err
		}
		sampler = s
	}

	count := max(desc.ArraySize, 1)
	locs := make([]Location, 0, count)
	for range count {
		loc, err := a.NextFreeBinding()
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", name, err)
		}
		locs = append(locs, loc)
	}

	e := &Entry{
		Name:          name,
		Kind:          kind,
		Locations:     locs,
		Visibility:    desc.Visibility,
		SampleType:    desc.SampleType,
		ViewDimension: desc.ViewDimension,
		Multisampled:  desc.Multisampled,
		StorageFormat: desc.StorageFormat,
		StorageAccess: desc.StorageAccess,
		Sampler:       sampler,
		textureIndex:  -1,
	}
	if kind != KindStorageTexture {
		e.textureIndex = a.numTextures
		a.numTextures++
	}
	if sampler != nil {
		sampler.Texture = e
	}
	a.register(e)
	return e, nil
}

// Layout returns the binding layout for everything registered so far.
// The result is rebuilt only after new registrations.
func (a *Allocator) Layout() *Layout {
	if a.layout == nil {
		a.layout = newLayout(a.order)
	}
	return a.layout
}
