// Package render streams extracted isosurfaces as triangles and writes them
// to triangle mesh files.
package render

import (
	"github.com/soypat/isotet/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer streams triangles into dst. It returns io.EOF once all
// triangles have been read.
type Renderer interface {
	ReadTriangles(dst []Triangle3) (n int, err error)
}

// Triangle3 is a 3D triangle with counter-clockwise winding.
type Triangle3 [3]r3.Vec

// Normal returns the unit normal of the triangle.
func (t Triangle3) Normal() r3.Vec {
	e1 := r3.Sub(t[1], t[0])
	e2 := r3.Sub(t[2], t[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Degenerate returns true if two vertices of the triangle are within tol of each other.
func (t Triangle3) Degenerate(tol float64) bool {
	return d3.EqualWithin(t[0], t[1], tol) ||
		d3.EqualWithin(t[1], t[2], tol) ||
		d3.EqualWithin(t[2], t[0], tol)
}
