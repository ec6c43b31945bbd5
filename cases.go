package isotet

import (
	"github.com/soypat/isotet/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Local tetrahedron edges as pairs of local vertex indices.
var tetEdges = [6][2]uint8{
	{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3},
}

// tetCase describes the triangulation of one above/below vertex pattern.
// Triangle corners are local edge indices.
type tetCase struct {
	ntri uint8
	tri  [2][3]uint8
}

// marchingTetsMaxTriangles is the maximum amount of triangles a single
// tetrahedron can produce.
const marchingTetsMaxTriangles = 2

// caseTable is indexed by a 4 bit mask where bit i is set if local vertex i
// is above the isovalue. Winding is counter-clockwise seen from the above side for
// positively oriented tetrahedra. Complementary masks cut the same edges
// with reversed winding.
var caseTable = [16]tetCase{
	0b0000: {},
	0b0001: {1, [2][3]uint8{{0, 2, 1}}},
	0b0010: {1, [2][3]uint8{{0, 3, 4}}},
	0b0011: {2, [2][3]uint8{{1, 4, 2}, {1, 3, 4}}},
	0b0100: {1, [2][3]uint8{{1, 5, 3}}},
	0b0101: {2, [2][3]uint8{{0, 2, 5}, {0, 5, 3}}},
	0b0110: {2, [2][3]uint8{{0, 5, 4}, {0, 1, 5}}},
	0b0111: {1, [2][3]uint8{{2, 5, 4}}},
	0b1000: {1, [2][3]uint8{{2, 4, 5}}},
	0b1001: {2, [2][3]uint8{{0, 5, 1}, {0, 4, 5}}},
	0b1010: {2, [2][3]uint8{{0, 3, 5}, {0, 5, 2}}},
	0b1011: {1, [2][3]uint8{{1, 3, 5}}},
	0b1100: {2, [2][3]uint8{{1, 4, 3}, {1, 2, 4}}},
	0b1101: {1, [2][3]uint8{{0, 4, 3}}},
	0b1110: {1, [2][3]uint8{{0, 1, 2}}},
	0b1111: {},
}

// classify returns the case mask of a tetrahedron. A vertex is above
// when its value exceeds the isovalue by more than tol so values on the
// isovalue are always below.
func classify(vals [4]float64, iso, tol float64) (mask uint8) {
	for i, v := range vals {
		if v-iso > tol {
			mask |= 1 << i
		}
	}
	return mask
}

// positiveOrientation reports whether det[p1-p0, p2-p0, p3-p0] >= 0.
func positiveOrientation(p [4]r3.Vec) bool {
	return d3.SignedVolume(p[0], p[1], p[2], p[3]) >= 0
}
