package bindgroup

import (
	"fmt"
	"sync/atomic"
)

// ResourceKind tags the payload of a Resource.
type ResourceKind uint8

// Resource kinds.
const (
	ResourceNone ResourceKind = iota
	ResourceBuffer
	ResourceTexture
	ResourceSampler
	// ResourceExternal is a texture whose handle changes every frame, such
	// as a video frame. Layouts binding one are never memoized.
	ResourceExternal
)

// String returns the kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceNone:
		return "none"
	case ResourceBuffer:
		return "buffer"
	case ResourceTexture:
		return "texture"
	case ResourceSampler:
		return "sampler"
	case ResourceExternal:
		return "external texture"
	default:
		return fmt.Sprintf("ResourceKind(%d)", uint8(k))
	}
}

// ID identifies a bound object across draws. Zero means the object has no
// stable identity; bind groups using it are created on every call.
type ID uint64

var ids atomic.Uint64

// NewID returns a process-unique non-zero ID.
func NewID() ID {
	return ID(ids.Add(1))
}

// Resource is a bound buffer, texture view, sampler or external texture.
type Resource struct {
	Kind ResourceKind
	ID   ID

	// Handle is the backend object: a buffer, a texture view or a sampler.
	Handle any

	// Offset and Size select a buffer range. Size 0 binds the whole buffer.
	Offset uint64
	Size   uint64

	// Sampler is the sampler a texture brings along. It fills the auto
	// sampler slot of the texture unless a sampler is bound by name.
	Sampler *Resource
}

// Buffer returns a buffer range resource.
func Buffer(id ID, handle any, offset, size uint64) Resource {
	return Resource{Kind: ResourceBuffer, ID: id, Handle: handle, Offset: offset, Size: size}
}

// Texture returns a texture view resource. sampler may be nil.
func Texture(id ID, view any, sampler *Resource) Resource {
	return Resource{Kind: ResourceTexture, ID: id, Handle: view, Sampler: sampler}
}

// Sampler returns a sampler resource.
func Sampler(id ID, handle any) Resource {
	return Resource{Kind: ResourceSampler, ID: id, Handle: handle}
}

// External returns an external texture resource for the current frame.
func External(view any, sampler *Resource) Resource {
	return Resource{Kind: ResourceExternal, Handle: view, Sampler: sampler}
}

// Resources is the set of resources bound by name. Texture arrays bind one
// resource per element.
type Resources struct {
	named map[string][]Resource
}

// NewResources creates an empty resource set.
func NewResources() *Resources {
	return &Resources{named: make(map[string][]Resource)}
}

// Set binds r under name, replacing any previous binding.
func (rs *Resources) Set(name string, r Resource) {
	rs.named[name] = append(rs.named[name][:0], r)
}

// SetArray binds the elements of a texture array.
func (rs *Resources) SetArray(name string, elements []Resource) {
	rs.named[name] = append(rs.named[name][:0], elements...)
}

// Get returns the resource bound to element of name.
func (rs *Resources) Get(name string, element int) (Resource, bool) {
	bound := rs.named[name]
	if element < 0 || element >= len(bound) {
		return Resource{}, false
	}
	return bound[element], true
}

// Delete removes the binding of name.
func (rs *Resources) Delete(name string) {
	delete(rs.named, name)
}

// Len returns the number of bound names.
func (rs *Resources) Len() int {
	return len(rs.named)
}
