// Package tetmesh provides a tetrahedral mesh container, a body centered
// cubic lattice mesher and scalar field sampling for isosurface extraction.
package tetmesh

import (
	"fmt"

	"github.com/soypat/isotet/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a tetrahedral mesh. Tetras index into Nodes.
type Mesh struct {
	Nodes  []r3.Vec
	Tetras [][4]int
}

// NumVertices returns the number of nodes. Mesh implements isotet.Mesh.
func (m *Mesh) NumVertices() int { return len(m.Nodes) }

// Vertex returns the position of node id.
func (m *Mesh) Vertex(id int) r3.Vec { return m.Nodes[id] }

// NumTetras returns the number of tetrahedra.
func (m *Mesh) NumTetras() int { return len(m.Tetras) }

// Tetra returns the node indices of tetrahedron tid.
func (m *Mesh) Tetra(tid int) [4]int { return m.Tetras[tid] }

func (m *Mesh) tetraPos(tid int) [4]r3.Vec {
	t := m.Tetras[tid]
	return [4]r3.Vec{m.Nodes[t[0]], m.Nodes[t[1]], m.Nodes[t[2]], m.Nodes[t[3]]}
}

// SignedVolume returns the signed volume of tetrahedron tid. It is positive
// when the fourth vertex lies on the counter-clockwise side of the first three.
func (m *Mesh) SignedVolume(tid int) float64 {
	p := m.tetraPos(tid)
	return d3.SignedVolume(p[0], p[1], p[2], p[3]) / 6
}

// Validate checks all tetrahedra reference existing, distinct nodes
// and that all node positions are finite.
func (m *Mesh) Validate() error {
	for i, n := range m.Nodes {
		if !d3.Finite(n) {
			return fmt.Errorf("node %d: non-finite position %v", i, n)
		}
	}
	for tid, t := range m.Tetras {
		for i, v := range t {
			if v < 0 || v >= len(m.Nodes) {
				return fmt.Errorf("tetrahedron %d: node %d out of range", tid, v)
			}
			for _, w := range t[i+1:] {
				if v == w {
					return fmt.Errorf("tetrahedron %d: repeated node %d", tid, v)
				}
			}
		}
	}
	return nil
}

// Bounds returns the bounding box of the mesh nodes.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Nodes) == 0 {
		return r3.Box{}
	}
	set := d3.Set(m.Nodes)
	return r3.Box{Min: set.Min(), Max: set.Max()}
}

// Orient reorders the vertices of negatively oriented tetrahedra so that
// all tetrahedra have non-negative signed volume.
func (m *Mesh) Orient() {
	for tid := range m.Tetras {
		if m.SignedVolume(tid) < 0 {
			t := &m.Tetras[tid]
			t[1], t[2] = t[2], t[1]
		}
	}
}
