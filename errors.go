package isotet

import (
	"errors"
	"fmt"
)

var (
	ErrVertexOutOfRange  = errors.New("vertex id out of range")
	ErrMissingScalar     = errors.New("no scalar value for vertex")
	ErrNonFiniteScalar   = errors.New("non-finite scalar value")
	ErrNonFinitePosition = errors.New("non-finite vertex position")
	ErrInvalidIsovalue   = errors.New("isovalue must be finite")
)

// InputError is returned when a tetrahedron references invalid input.
// The extraction produces no output when it is returned.
type InputError struct {
	Tetra  int
	Vertex int
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("tetrahedron %d vertex %d: %s", e.Tetra, e.Vertex, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
