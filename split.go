package isotet

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// splitter resolves crossed edges to output vertices. It is owned by a
// single extraction call and is not safe for concurrent use.
type splitter struct {
	iso      float64
	splits   map[EdgeKey]Split
	snapped  map[int]int // mesh vertex id -> output vertex for splits landing on a mesh vertex.
	vertices []r3.Vec
	stats    *Stats
}

func newSplitter(iso float64, sizeHint int, stats *Stats) *splitter {
	return &splitter{
		iso:      iso,
		splits:   make(map[EdgeKey]Split, sizeHint),
		snapped:  make(map[int]int),
		vertices: make([]r3.Vec, 0, sizeHint),
		stats:    stats,
	}
}

// resolve returns the output vertex of the edge joining mesh vertices a and b
// with positions pa, pb and values sa, sb. The first call for an edge creates
// the vertex, later calls return the same id.
func (sp *splitter) resolve(a, b int, pa, pb r3.Vec, sa, sb float64) int {
	if a > b {
		a, b = b, a
		pa, pb = pb, pa
		sa, sb = sb, sa
	}
	key := EdgeKey{a, b}
	if split, ok := sp.splits[key]; ok {
		return split.Vertex
	}
	lambda, clamped, degenerate := edgeLambda(sa, sb, sp.iso)
	if degenerate {
		sp.stats.DegenerateEdges++
	}
	if clamped {
		sp.stats.ClampedEdges++
	}
	var id int
	switch lambda {
	case 1:
		id = sp.snap(a, pa)
	case 0:
		id = sp.snap(b, pb)
	default:
		id = len(sp.vertices)
		sp.vertices = append(sp.vertices, lerp(pa, pb, lambda))
	}
	sp.splits[key] = Split{Lambda: lambda, Vertex: id}
	return id
}

// snap returns the output vertex placed exactly on mesh vertex v.
func (sp *splitter) snap(v int, pos r3.Vec) int {
	if id, ok := sp.snapped[v]; ok {
		return id
	}
	id := len(sp.vertices)
	sp.vertices = append(sp.vertices, pos)
	sp.snapped[v] = id
	sp.stats.SnappedVertices++
	return id
}

// edgeLambda returns the parameter at which the linear interpolation
// between s0 and s1 equals iso, so that lambda*s0 + (1-lambda)*s1 == iso.
// Lambda is clamped to [0,1]. Equal endpoint values yield 1.
func edgeLambda(s0, s1, iso float64) (lambda float64, clamped, degenerate bool) {
	num, den := iso-s1, s0-s1
	if math.IsInf(num, 0) || math.IsInf(den, 0) {
		// Finite operands whose difference overflows. Scaling all three
		// by the same power of two leaves the quotient unchanged.
		_, exp := math.Frexp(math.Max(math.Abs(iso), math.Max(math.Abs(s0), math.Abs(s1))))
		s0, s1, iso = math.Ldexp(s0, -exp), math.Ldexp(s1, -exp), math.Ldexp(iso, -exp)
		num, den = iso-s1, s0-s1
	}
	if den == 0 {
		return 1, true, true
	}
	lambda = num / den
	switch {
	case math.IsNaN(lambda):
		return 1, true, false
	case lambda < 0:
		return 0, true, false
	case lambda > 1:
		return 1, true, false
	}
	return lambda, false, false
}

// lerp returns lambda*p0 + (1-lambda)*p1.
func lerp(p0, p1 r3.Vec, lambda float64) r3.Vec {
	return r3.Add(r3.Scale(lambda, p0), r3.Scale(1-lambda, p1))
}
