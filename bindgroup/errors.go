package bindgroup

import "errors"

var (
	// ErrMissingResource is returned when a resource of the layout is not bound.
	ErrMissingResource = errors.New("bindgroup: missing resource")

	// ErrWrongResourceKind is returned when a bound resource does not match
	// the kind its binding expects.
	ErrWrongResourceKind = errors.New("bindgroup: wrong resource kind")

	// ErrNoCreator is returned when a bind group is needed and the assembler
	// has no creator.
	ErrNoCreator = errors.New("bindgroup: no bind group creator")

	// ErrNilLayout is returned for a nil layout.
	ErrNilLayout = errors.New("bindgroup: nil layout")
)
