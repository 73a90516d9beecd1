package halgpu

import "errors"

var (
	// ErrNilDevice is returned by New without a device or queue.
	ErrNilDevice = errors.New("halgpu: nil device or queue")

	// ErrNotShaderModule is returned when an effect's module was not created
	// by this backend.
	ErrNotShaderModule = errors.New("halgpu: effect module is not a hal.ShaderModule")

	// ErrForeignResource is returned when a bound resource handle is not the
	// hal type its binding needs.
	ErrForeignResource = errors.New("halgpu: resource handle has the wrong hal type")

	// ErrNoGroup is returned for a group index outside the layout.
	ErrNoGroup = errors.New("halgpu: group index out of range")

	// ErrDestroyed is returned after Destroy.
	ErrDestroyed = errors.New("halgpu: backend destroyed")
)
