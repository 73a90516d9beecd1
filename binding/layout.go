package binding

import (
	"slices"

	"github.com/gogpu/gputypes"
)

// Slot is one (group, binding) record of a Layout. Texture arrays contribute
// one Slot per element, all sharing the same Entry.
type Slot struct {
	Location Location
	Entry    *Entry

	// Element is the array index for texture arrays, 0 otherwise.
	Element int
}

// Layout is the immutable binding table produced by an Allocator.
type Layout struct {
	entries []*Entry
	groups  [][]Slot

	hasExternal bool
}

func newLayout(entries []*Entry) *Layout {
	l := &Layout{entries: slices.Clone(entries)}
	for _, e := range entries {
		if e.Kind == KindExternalTexture {
			l.hasExternal = true
		}
		for i, loc := range e.Locations {
			for int(loc.Group) >= len(l.groups) {
				l.groups = append(l.groups, nil)
			}
			l.groups[loc.Group] = append(l.groups[loc.Group], Slot{Location: loc, Entry: e, Element: i})
		}
	}
	for _, g := range l.groups {
		slices.SortFunc(g, func(a, b Slot) int {
			return int(a.Location.Binding) - int(b.Location.Binding)
		})
	}
	return l
}

// Groups returns the number of bind groups, including empty ones below the
// highest used group.
func (l *Layout) Groups() int {
	return len(l.groups)
}

// Slots returns the slots of a group ordered by binding index.
func (l *Layout) Slots(group int) []Slot {
	if group < 0 || group >= len(l.groups) {
		return nil
	}
	return l.groups[group]
}

// Entries returns every entry in discovery order.
func (l *Layout) Entries() []*Entry {
	return l.entries
}

// HasExternalTextures reports whether bind groups built from this layout must
// be rebuilt on every use.
func (l *Layout) HasExternalTextures() bool {
	return l.hasExternal
}

// Names returns the names of all entries of the given kind in discovery order.
func (l *Layout) Names(kind Kind) []string {
	var names []string
	for _, e := range l.entries {
		if e.Kind == kind {
			names = append(names, e.Name)
		}
	}
	return names
}

// unfilterable reports whether the texture state marks e as unfilterable.
func unfilterable(e *Entry, textureState uint32) bool {
	return e.textureIndex >= 0 && e.textureIndex < 32 && textureState&(1<<uint(e.textureIndex)) != 0
}

// GroupEntries builds the bind group layout entries of a group. Bit i of
// textureState switches the i-th sampled texture to an unfilterable float
// sample type and its auto sampler to a non-filtering sampler.
func (l *Layout) GroupEntries(group int, textureState uint32) []gputypes.BindGroupLayoutEntry {
	slots := l.Slots(group)
	out := make([]gputypes.BindGroupLayoutEntry, 0, len(slots))
	for _, s := range slots {
		out = append(out, layoutEntry(s, textureState))
	}
	return out
}

func layoutEntry(s Slot, textureState uint32) gputypes.BindGroupLayoutEntry {
	e := s.Entry
	le := gputypes.BindGroupLayoutEntry{
		Binding:    s.Location.Binding,
		Visibility: e.Visibility,
	}
	switch e.Kind {
	case KindUniformBuffer:
		le.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: e.MinBindingSize,
		}
	case KindStorageBuffer:
		typ := gputypes.BufferBindingTypeStorage
		if e.ReadOnly {
			typ = gputypes.BufferBindingTypeReadOnlyStorage
		}
		le.Buffer = &gputypes.BufferBindingLayout{Type: typ, MinBindingSize: e.MinBindingSize}
	case KindTexture:
		sampleType := e.SampleType
		if sampleType == gputypes.TextureSampleTypeFloat && unfilterable(e, textureState) {
			sampleType = gputypes.TextureSampleTypeUnfilterableFloat
		}
		le.Texture = &gputypes.TextureBindingLayout{
			SampleType:    sampleType,
			ViewDimension: viewDimension(e.ViewDimension),
			Multisampled:  e.Multisampled,
		}
	case KindExternalTexture:
		// Bound as a regular 2D float texture; the handle is refreshed per use.
		le.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case KindStorageTexture:
		le.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        e.StorageAccess,
			Format:        e.StorageFormat,
			ViewDimension: viewDimension(e.ViewDimension),
		}
	case KindSampler:
		typ := e.SamplerType
		if e.Texture != nil && unfilterable(e.Texture, textureState) {
			typ = gputypes.SamplerBindingTypeNonFiltering
		}
		le.Sampler = &gputypes.SamplerBindingLayout{Type: typ}
	}
	return le
}

func viewDimension(d gputypes.TextureViewDimension) gputypes.TextureViewDimension {
	if d == gputypes.TextureViewDimensionUndefined {
		return gputypes.TextureViewDimension2D
	}
	return d
}
