package bindgroup

import (
	"fmt"
	"slices"

	"github.com/gogpu/pipecache"
	"github.com/gogpu/pipecache/binding"
)

// Handle is an opaque bind group owned by the backend.
type Handle any

// Entry is one bind group entry.
type Entry struct {
	Binding  uint32
	Resource Resource
}

// Creator creates bind groups for one group of a layout. The pipeline layout
// the group belongs to was built with the same texture state. The entries
// slice is reused by later calls and must not be retained.
type Creator interface {
	CreateBindGroup(layout *binding.Layout, group int, textureState uint32, entries []Entry) (Handle, error)
}

// CreatorFunc adapts a function to the Creator interface.
type CreatorFunc func(layout *binding.Layout, group int, textureState uint32, entries []Entry) (Handle, error)

// CreateBindGroup calls f.
func (f CreatorFunc) CreateBindGroup(layout *binding.Layout, group int, textureState uint32, entries []Entry) (Handle, error) {
	return f(layout, group, textureState, entries)
}

// position is the index of a slot in its group's entry list.
type position struct {
	group, index int
}

// resourceKey is the identity of one bound resource in the lookup tree.
type resourceKey struct {
	id           ID
	offset, size uint64
}

type node struct {
	children map[resourceKey]*node
	groups   []Handle
}

func (n *node) child(k resourceKey) *node {
	c, ok := n.children[k]
	if !ok {
		if n.children == nil {
			n.children = make(map[resourceKey]*node, 1)
		}
		c = &node{}
		n.children[k] = c
	}
	return c
}

func (n *node) walk(fn func([]Handle)) {
	if n.groups != nil {
		fn(n.groups)
	}
	for _, c := range n.children {
		c.walk(fn)
	}
}

// template holds the entry lists of one layout and texture state, with the
// position of every slot memoized.
type template struct {
	groups    [][]Entry
	positions map[*binding.Entry][]position

	tree     node
	keys     []resourceKey
	lastKeys []resourceKey
	last     []Handle

	// pending holds the uncached bind groups created this frame. They are
	// released by EndFrame.
	pending []Handle
}

func (t *template) build(layout *binding.Layout) {
	t.groups = make([][]Entry, layout.Groups())
	t.positions = make(map[*binding.Entry][]position, len(layout.Entries()))
	for g := range t.groups {
		slots := layout.Slots(g)
		t.groups[g] = make([]Entry, len(slots))
		for i, s := range slots {
			t.groups[g][i].Binding = s.Location.Binding
			pos := t.positions[s.Entry]
			if pos == nil {
				pos = make([]position, s.Entry.ArraySize())
				t.positions[s.Entry] = pos
			}
			pos[s.Element] = position{group: g, index: i}
		}
	}
}

type templateKey struct {
	layout       *binding.Layout
	textureState uint32
}

// Assembler builds the bind groups of a binding layout from bound resources.
//
// The first call for a layout and texture state builds the entry lists of
// every group and memoizes the position of each resource in them; later
// calls overwrite the resources in place. A lookup tree keyed by the
// identity of every bound resource returns previously created bind groups.
// Layouts with external textures are rebuilt and recreated on every call;
// those uncached bind groups stay alive until EndFrame.
//
// An Assembler is not safe for concurrent use.
type Assembler struct {
	creator   Creator
	templates map[templateKey]*template
	stats     *Stats
	disabled  bool
	release   func(Handle)
	label     string
}

// New creates an assembler that creates bind groups with creator.
func New(creator Creator, opts ...Option) *Assembler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &Assembler{
		creator:   creator,
		templates: make(map[templateKey]*template),
		stats:     o.stats,
		disabled:  o.disabled,
		release:   o.release,
		label:     o.label,
	}
	if a.stats == nil {
		a.stats = &Stats{}
	}
	return a
}

// Stats returns the counters of the assembler.
func (a *Assembler) Stats() *Stats {
	return a.stats
}

// BindGroups returns one bind group per group of layout for the resources in
// res. textureState selects the pipeline layout variant, see
// binding.Layout.GroupEntries. The returned slice must not be modified.
func (a *Assembler) BindGroups(layout *binding.Layout, textureState uint32, res *Resources) ([]Handle, error) {
	if layout == nil {
		return nil, ErrNilLayout
	}
	external := layout.HasExternalTextures()
	key := templateKey{layout: layout, textureState: textureState}
	t := a.templates[key]
	if t == nil {
		t = &template{}
		t.build(layout)
		a.templates[key] = t
	} else if external {
		t.build(layout)
	}

	stable, err := a.fill(t, layout, res)
	if err != nil {
		return nil, err
	}
	stable = stable && !external && !a.disabled

	var n *node
	if stable {
		if t.last != nil && slices.Equal(t.keys, t.lastKeys) {
			a.stats.noLookup.Add(1)
			return t.last, nil
		}
		a.stats.lookupsFrame.Add(1)
		n = &t.tree
		for _, k := range t.keys {
			n = n.child(k)
		}
		if n.groups != nil {
			t.last = n.groups
			t.lastKeys = append(t.lastKeys[:0], t.keys...)
			return n.groups, nil
		}
	}

	groups, err := a.create(t, layout, textureState)
	if err != nil {
		return nil, err
	}
	if stable {
		n.groups = groups
		t.last = groups
		t.lastKeys = append(t.lastKeys[:0], t.keys...)
	} else {
		t.pending = append(t.pending, groups...)
		t.last = nil
	}
	return groups, nil
}

// fill writes the bound resources into the entry lists of t. It reports
// whether every resource has a stable identity.
func (a *Assembler) fill(t *template, layout *binding.Layout, res *Resources) (bool, error) {
	t.keys = t.keys[:0]
	stable := true
	write := func(p position, r Resource) {
		t.groups[p.group][p.index].Resource = r
		t.keys = append(t.keys, resourceKey{id: r.ID, offset: r.Offset, size: r.Size})
		if r.ID == 0 {
			stable = false
		}
	}

	for _, e := range layout.Entries() {
		if e.Kind == binding.KindSampler && e.Texture != nil {
			// Written together with its texture.
			continue
		}
		pos := t.positions[e]
		switch e.Kind {
		case binding.KindUniformBuffer, binding.KindStorageBuffer:
			r, err := lookup(res, e, 0, ResourceBuffer)
			if err != nil {
				return false, err
			}
			write(pos[0], r)
		case binding.KindTexture, binding.KindStorageTexture, binding.KindExternalTexture:
			want := ResourceTexture
			if e.Kind == binding.KindExternalTexture {
				want = ResourceExternal
			}
			for i := range pos {
				r, err := lookup(res, e, i, want)
				if err != nil {
					return false, err
				}
				if i == 0 && e.Sampler != nil {
					s, err := pairedSampler(res, e, r)
					if err != nil {
						return false, err
					}
					write(t.positions[e.Sampler][0], s)
				}
				write(pos[i], r)
			}
		case binding.KindSampler:
			r, err := lookup(res, e, 0, ResourceSampler)
			if err != nil {
				return false, err
			}
			write(pos[0], r)
		}
	}
	return stable, nil
}

func lookup(res *Resources, e *binding.Entry, element int, want ResourceKind) (Resource, error) {
	var r Resource
	var ok bool
	if res != nil {
		r, ok = res.Get(e.Name, element)
	}
	if !ok {
		if e.ArraySize() > 1 {
			return Resource{}, fmt.Errorf("%w: %q[%d] at %s", ErrMissingResource, e.Name, element, e.Locations[element])
		}
		return Resource{}, fmt.Errorf("%w: %q at %s", ErrMissingResource, e.Name, e.Location())
	}
	if r.Kind != want {
		return Resource{}, fmt.Errorf("%w: %q is a %s, want a %s", ErrWrongResourceKind, e.Name, r.Kind, want)
	}
	return r, nil
}

// pairedSampler returns the sampler for the auto sampler slot of texture e:
// the sampler bound under the slot's own name, else the texture's sampler.
func pairedSampler(res *Resources, e *binding.Entry, tex Resource) (Resource, error) {
	if res != nil {
		if s, ok := res.Get(e.Sampler.Name, 0); ok {
			if s.Kind != ResourceSampler {
				return Resource{}, fmt.Errorf("%w: %q is a %s, want a sampler", ErrWrongResourceKind, e.Sampler.Name, s.Kind)
			}
			return s, nil
		}
	}
	if tex.Sampler == nil {
		return Resource{}, fmt.Errorf("%w: sampler %q of texture %q", ErrMissingResource, e.Sampler.Name, e.Name)
	}
	if tex.Sampler.Kind != ResourceSampler {
		return Resource{}, fmt.Errorf("%w: sampler of %q is a %s", ErrWrongResourceKind, e.Name, tex.Sampler.Kind)
	}
	return *tex.Sampler, nil
}

func (a *Assembler) create(t *template, layout *binding.Layout, textureState uint32) ([]Handle, error) {
	if a.creator == nil {
		return nil, ErrNoCreator
	}
	groups := make([]Handle, len(t.groups))
	for g, entries := range t.groups {
		h, err := a.creator.CreateBindGroup(layout, g, textureState, entries)
		if err != nil {
			a.releaseAll(groups[:g])
			return nil, fmt.Errorf("bindgroup: create group %d: %w", g, err)
		}
		groups[g] = h
	}
	a.stats.created.Add(uint64(len(groups)))
	a.stats.createdFrame.Add(uint64(len(groups)))
	pipecache.Logger().Debug("bindgroup: created",
		"assembler", a.label, "groups", len(groups), "textureState", textureState)
	return groups, nil
}

func (a *Assembler) releaseAll(groups []Handle) {
	if a.release == nil {
		return
	}
	for _, h := range groups {
		if h != nil {
			a.release(h)
		}
	}
}

func (a *Assembler) drop(t *template) {
	t.tree.walk(a.releaseAll)
	a.releaseAll(t.pending)
	t.pending = nil
}

// Entries returns the memoized entry list of a group, or nil if no bind
// group was assembled yet for layout and textureState.
func (a *Assembler) Entries(layout *binding.Layout, textureState uint32, group int) []Entry {
	t := a.templates[templateKey{layout: layout, textureState: textureState}]
	if t == nil || group < 0 || group >= len(t.groups) {
		return nil
	}
	return t.groups[group]
}

// Len returns the number of cached bind group sets.
func (a *Assembler) Len() int {
	n := 0
	for _, t := range a.templates {
		t.tree.walk(func([]Handle) { n++ })
	}
	return n
}

// Forget drops the templates and bind groups of layout.
func (a *Assembler) Forget(layout *binding.Layout) {
	for k, t := range a.templates {
		if k.layout == layout {
			a.drop(t)
			delete(a.templates, k)
		}
	}
}

// EndFrame releases the uncached bind groups created since the previous
// EndFrame and clears the per-frame counters. Call it once the frame's
// command buffers have finished executing.
func (a *Assembler) EndFrame() {
	for _, t := range a.templates {
		a.releaseAll(t.pending)
		clear(t.pending)
		t.pending = t.pending[:0]
	}
	a.stats.EndFrame()
}

// Reset drops every template and cached bind group.
func (a *Assembler) Reset() {
	for _, t := range a.templates {
		a.drop(t)
	}
	clear(a.templates)
	pipecache.Logger().Info("bindgroup: assembler reset", "assembler", a.label)
}
