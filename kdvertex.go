package isotet

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = kdVertices{}
	_ kdtree.Comparable = kdVertex{}
)

// CoincidentVertices returns all pairs {i, j} with i < j of distinct output
// vertices within distance tol of each other, sorted. Surfaces extracted
// from conforming meshes should have none for small tol.
func (r *Result) CoincidentVertices(tol float64) [][2]int {
	if len(r.Vertices) < 2 || tol < 0 {
		return nil
	}
	verts := make(kdVertices, len(r.Vertices))
	for i, v := range r.Vertices {
		verts[i] = kdVertex{Vec: v, idx: i}
	}
	tree := kdtree.New(verts, false)
	var pairs [][2]int
	for i, v := range r.Vertices {
		keep := kdtree.NewDistKeeper(tol * tol)
		tree.NearestSet(keep, kdVertex{Vec: v, idx: i})
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue // sentinel.
			}
			j := c.Comparable.(kdVertex).idx
			if j > i {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

type kdVertex struct {
	r3.Vec
	idx int
}

type kdVertices []kdVertex

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a kdVertex) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return kdComp(a.Vec, b.(kdVertex).Vec, int(d))
}

func (a kdVertex) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the receiver and
// the parameter.
func (a kdVertex) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.Vec, b.(kdVertex).Vec))
}

func (k kdVertices) Index(i int) kdtree.Comparable { return k[i] }

func (k kdVertices) Len() int { return len(k) }

// Pivot partitions the list based on the dimension specified.
func (k kdVertices) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: int(d), vertices: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (k kdVertices) Slice(start, end int) kdtree.Interface { return k[start:end] }

// c = a.dim - b.dim
func kdComp(a, b r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return a.X - b.X
	case 1:
		return a.Y - b.Y
	case 2:
		return a.Z - b.Z
	}
	panic("unreachable")
}

type kdPlane struct {
	dim      int
	vertices kdVertices
}

func (p kdPlane) Less(i, j int) bool {
	return kdComp(p.vertices[i].Vec, p.vertices[j].Vec, p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i]
}
func (p kdPlane) Len() int {
	return len(p.vertices)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.vertices = p.vertices[start:end]
	return p
}
