package isotet

import "errors"

// Range returns the minimum and maximum values of f over the vertices
// referenced by the tetrahedra of m. Isovalues outside [lo, hi] produce
// empty surfaces.
func Range(m Mesh, f ScalarField) (lo, hi float64, err error) {
	ntet := m.NumTetras()
	if ntet == 0 {
		return 0, 0, errors.New("mesh has no tetrahedra")
	}
	nv := m.NumVertices()
	first := true
	for tid := 0; tid < ntet; tid++ {
		for _, v := range m.Tetra(tid) {
			_, s, err := lookup(m, f, nv, v)
			if err != nil {
				return 0, 0, &InputError{Tetra: tid, Vertex: v, Err: err}
			}
			if first {
				lo, hi = s, s
				first = false
			} else if s < lo {
				lo = s
			} else if s > hi {
				hi = s
			}
		}
	}
	return lo, hi, nil
}

// MidIsovalue returns the isovalue halfway between the extrema of f over m.
func MidIsovalue(m Mesh, f ScalarField) (float64, error) {
	lo, hi, err := Range(m, f)
	if err != nil {
		return 0, err
	}
	return lo/2 + hi/2, nil
}
