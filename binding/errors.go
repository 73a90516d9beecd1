package binding

import "errors"

// Binding allocation errors.
var (
	// ErrTooManyGroups is returned when allocation would exceed the
	// configured number of bind groups.
	ErrTooManyGroups = errors.New("binding: too many textures or buffers declared for the available bind groups")

	// ErrKindMismatch is returned when a name is registered again with a
	// different resource kind.
	ErrKindMismatch = errors.New("binding: resource re-registered with a different kind")

	// ErrInvalidArraySize is returned for a texture array size below one.
	ErrInvalidArraySize = errors.New("binding: invalid texture array size")

	// ErrEmptyName is returned when a resource is registered without a name.
	ErrEmptyName = errors.New("binding: empty resource name")
)
