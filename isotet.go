// Package isotet extracts isosurfaces from scalar fields sampled on
// tetrahedral meshes using the marching tetrahedra algorithm.
//
// The output is a single indexed triangle mesh: crossed edges shared between
// neighbouring tetrahedra resolve to the same output vertex so the surface is
// watertight by construction.
package isotet

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is the read-only view of a tetrahedral mesh consumed by the extractor.
type Mesh interface {
	// NumVertices returns the number of vertices. Valid vertex ids are in [0, NumVertices).
	NumVertices() int
	// Vertex returns the position of vertex id.
	Vertex(id int) r3.Vec
	// NumTetras returns the number of tetrahedra.
	NumTetras() int
	// Tetra returns the vertex ids of tetrahedron tid in its fixed local order.
	Tetra(tid int) [4]int
}

// ScalarField maps vertex ids to scalar values. ok is false if
// the field has no value for the vertex.
type ScalarField interface {
	Scalar(id int) (value float64, ok bool)
}

// Scalars is a ScalarField backed by a slice indexed by vertex id.
type Scalars []float64

// Scalar implements ScalarField.
func (s Scalars) Scalar(id int) (float64, bool) {
	if id < 0 || id >= len(s) {
		return 0, false
	}
	return s[id], true
}

// EdgeKey identifies a mesh edge by its two vertex ids, lowest id first.
type EdgeKey [2]int

// MakeEdgeKey returns the canonical key of the edge joining vertices a and b.
func MakeEdgeKey(a, b int) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{a, b}
}

// Split records where an edge was cut by the isosurface. The split point is
//
//	Lambda*pos(key[0]) + (1-Lambda)*pos(key[1])
//
// and Vertex is the index of that point in Result.Vertices.
type Split struct {
	Lambda float64
	Vertex int
}

// Stats counts recoverable conditions found during an extraction.
// None of them change the result's control flow.
type Stats struct {
	// Tetras is the number of tetrahedra processed.
	Tetras int
	// CutTetras is the number of tetrahedra the isosurface crosses.
	CutTetras int
	// ClampedEdges is the number of splits whose interpolation parameter
	// fell outside [0,1] and was clamped.
	ClampedEdges int
	// DegenerateEdges is the number of crossed edges with equal endpoint values.
	DegenerateEdges int
	// SnappedVertices is the number of output vertices placed exactly on a mesh vertex.
	SnappedVertices int
	// SkippedTriangles is the number of triangles dropped for repeating a vertex.
	SkippedTriangles int
}

// Result is the extracted surface.
type Result struct {
	// Vertices are the surface vertices. Mesh vertices are never copied
	// except when a split lands exactly on one.
	Vertices []r3.Vec
	// Triangles index into Vertices. Winding is counter-clockwise as seen
	// from the side where the field is above the isovalue.
	Triangles [][3]int
	// Normals holds one unit normal per vertex pointing toward increasing field
	// values. Vertices without non-degenerate incident triangles get the zero vector.
	Normals []r3.Vec
	// Splits maps every cut edge to its split record.
	Splits map[EdgeKey]Split
	Stats  Stats
}

// Interpolate evaluates a per-mesh-vertex attribute at every output vertex
// by interpolating along the split edges with the same parameters used
// to place the vertices.
func (r *Result) Interpolate(attr func(vertex int) float64) []float64 {
	out := make([]float64, len(r.Vertices))
	for key, split := range r.Splits {
		out[split.Vertex] = split.Lambda*attr(key[0]) + (1-split.Lambda)*attr(key[1])
	}
	return out
}
