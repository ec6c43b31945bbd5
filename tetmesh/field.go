package tetmesh

import (
	"github.com/soypat/isotet/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDF3 is the interface to a 3d signed distance function object.
type SDF3 interface {
	// Evaluate takes a point in 3D space as input and returns
	// the minimum distance of the SDF3 to the point. The distance
	// is negative if the point is contained within the SDF3.
	Evaluate(p r3.Vec) float64
	// Bounds returns the bounding box that completely contains
	// the SDF3.
	Bounds() r3.Box
}

// Sample evaluates f at every node of m. The result is indexed by node id.
func Sample(m *Mesh, f func(r3.Vec) float64) []float64 {
	vals := make([]float64, len(m.Nodes))
	for i, n := range m.Nodes {
		vals[i] = f(n)
	}
	return vals
}

// FromSDF meshes the bounds of s with a BCC lattice of the given resolution
// and samples the distance at every node. The lattice is enlarged so the
// meshed region contains the SDF3's bounds, its zero isosurface is then closed.
func FromSDF(s SDF3, resolution float64) (*Mesh, []float64, error) {
	bb := d3.Box(s.Bounds()).Enlarge(d3.Elem(2 * resolution))
	m, err := NewBCC(r3.Box(bb), resolution)
	if err != nil {
		return nil, nil, err
	}
	return m, Sample(m, s.Evaluate), nil
}
