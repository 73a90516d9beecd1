package vertex

import "errors"

// Vertex input errors. All of them are configuration errors: the draw that
// triggered them cannot proceed.
var (
	// ErrUnsupportedFormat is returned for a data type and component count
	// combination with no vertex format.
	ErrUnsupportedFormat = errors.New("vertex: unsupported vertex format")

	// ErrLocationOutOfRange is returned for a shader location that does not
	// fit the packed state word.
	ErrLocationOutOfRange = errors.New("vertex: shader location out of range")

	// ErrStrideTooLarge is returned for a buffer whose stride exceeds the
	// resolver's stride limit.
	ErrStrideTooLarge = errors.New("vertex: vertex stride too large")

	// ErrNoStorage is returned for a buffer without underlying storage.
	ErrNoStorage = errors.New("vertex: buffer has no storage")
)
