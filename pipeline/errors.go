package pipeline

import "errors"

// Configuration errors. They indicate a programming error in the calling
// renderer and abort the draw; retrying cannot succeed.
var (
	// ErrTooManyAttachments is returned when more color attachments are
	// requested than the packed MRT slots can describe.
	ErrTooManyAttachments = errors.New("pipeline: too many color attachments")

	// ErrUnsupportedTopology is returned for fill modes with no WebGPU
	// primitive topology.
	ErrUnsupportedTopology = errors.New("pipeline: unsupported primitive topology")

	// ErrTooManyAttributes is returned when an effect declares more vertex
	// attributes than there are vertex state slots.
	ErrTooManyAttributes = errors.New("pipeline: too many vertex attributes")

	// ErrTooManyFormats is returned when an encoder sees more distinct
	// texture formats than a format index can hold.
	ErrTooManyFormats = errors.New("pipeline: too many distinct texture formats")

	// ErrNilEffect is returned when a pipeline is requested without an effect.
	ErrNilEffect = errors.New("pipeline: effect is nil")

	// ErrNoCompiler is returned when a cache miss occurs on a cache created
	// without a compiler.
	ErrNoCompiler = errors.New("pipeline: no compiler configured")
)
