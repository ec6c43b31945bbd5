package tetmesh

// Incidence answers vertex to tetrahedron and vertex to vertex adjacency
// queries over a Mesh. It does not track later changes to the mesh.
type Incidence struct {
	// tetras[v] are the tetrahedra containing node v.
	tetras [][]int
	// connectivity[v] contains unique node indices sharing an edge with v.
	connectivity [][]int
}

// NewIncidence builds the incidence of all nodes of m.
func NewIncidence(m *Mesh) *Incidence {
	inc := &Incidence{
		tetras:       make([][]int, len(m.Nodes)),
		connectivity: make([][]int, len(m.Nodes)),
	}
	for tid, tetra := range m.Tetras {
		for i, n := range tetra {
			if inc.tetras[n] == nil {
				// Interior BCC nodes have 24 tetrahedra and 14 neighbors.
				inc.tetras[n] = make([]int, 0, 4*6)
				inc.connectivity[n] = make([]int, 0, 16)
			}
			inc.tetras[n] = append(inc.tetras[n], tid)
			// Add tetrahedron's other nodes to connectivity if not present.
			for j := 1; j < 4; j++ {
				c := tetra[(i+j)%4]
				if !contains(inc.connectivity[n], c) {
					inc.connectivity[n] = append(inc.connectivity[n], c)
				}
			}
		}
	}
	return inc
}

// Tetras returns the tetrahedra containing node v in ascending order.
func (inc *Incidence) Tetras(v int) []int { return inc.tetras[v] }

// Neighbors returns the nodes sharing an edge with node v.
func (inc *Incidence) Neighbors(v int) []int { return inc.connectivity[v] }

// EdgeTetras returns the tetrahedra containing both nodes a and b in ascending order.
func (inc *Incidence) EdgeTetras(m *Mesh, a, b int) (tetras []int) {
	for _, tid := range inc.tetras[a] {
		t := m.Tetras[tid]
		if t[0] == b || t[1] == b || t[2] == b || t[3] == b {
			tetras = append(tetras, tid)
		}
	}
	return tetras
}

// Edges calls fn once for every unique edge of the mesh with a < b.
func (inc *Incidence) Edges(fn func(a, b int)) {
	for a, conn := range inc.connectivity {
		for _, b := range conn {
			if a < b {
				fn(a, b)
			}
		}
	}
}

func contains(s []int, v int) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
