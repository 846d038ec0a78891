package cityjson

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDocument aborts a decode before any object is built.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrMalformedBoundary marks a geometry whose boundaries cannot be used.
	ErrMalformedBoundary = errors.New("malformed boundary")

	ErrUnsupportedGeometryType = errors.New("unsupported geometry type")

	// ErrSemanticsMisaligned is recovered by dropping the geometry's semantics.
	ErrSemanticsMisaligned = errors.New("semantics misaligned")

	// ErrMissingRequiredAttribute is raised on encode for a single CityObject.
	ErrMissingRequiredAttribute = errors.New("missing required attribute")
)

// GeometryError identifies the geometry an error belongs to.
type GeometryError struct {
	ObjectID string
	Index    int
	Err      error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("cityobject %q geometry %d: %v", e.ObjectID, e.Index, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// ObjectError identifies the CityObject an error belongs to.
type ObjectError struct {
	ObjectID string
	Err      error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("cityobject %q: %v", e.ObjectID, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

func missingMember(name string) error {
	return fmt.Errorf("%w: missing required member %q", ErrMalformedDocument, name)
}
