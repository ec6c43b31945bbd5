package isotet_test

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soypat/isotet"
	"github.com/soypat/isotet/tetmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitTetra() *tetmesh.Mesh {
	return &tetmesh.Mesh{
		Nodes: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1},
		},
		Tetras: [][4]int{{0, 1, 2, 3}},
	}
}

func TestSingleVertexAbove(t *testing.T) {
	res, err := isotet.Extract(unitTetra(), isotet.Scalars{0, 0, 0, 10}, 5, isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Triangles) != 1 || len(res.Vertices) != 3 {
		t.Fatalf("want 1 triangle and 3 vertices, got %d and %d", len(res.Triangles), len(res.Vertices))
	}
	wantSplits := map[isotet.EdgeKey]isotet.Split{}
	for _, v := range res.Vertices {
		if v.Z != 0.5 {
			t.Errorf("vertex %v not at height 0.5", v)
		}
	}
	for key, split := range res.Splits {
		if key[1] != 3 {
			t.Errorf("unexpected split edge %v", key)
		}
		wantSplits[key] = isotet.Split{Lambda: 0.5, Vertex: split.Vertex}
	}
	if diff := cmp.Diff(wantSplits, res.Splits); diff != "" {
		t.Errorf("splits mismatch (-want +got):\n%s", diff)
	}
	for _, key := range []isotet.EdgeKey{{0, 3}, {1, 3}, {2, 3}} {
		if _, ok := res.Splits[key]; !ok {
			t.Errorf("missing split for edge %v", key)
		}
	}
	up := r3.Vec{Z: 1}
	if n := triangleNormal(res, 0); r3.Dot(n, up) <= 0 {
		t.Errorf("triangle normal %v does not face the above side", n)
	}
	for i, n := range res.Normals {
		if !vecEqual(n, up, 1e-12) {
			t.Errorf("vertex %d normal %v, want %v", i, n, up)
		}
	}
	want := isotet.Stats{Tetras: 1, CutTetras: 1}
	if res.Stats != want {
		t.Errorf("got stats %+v, want %+v", res.Stats, want)
	}
}

func TestTwoVerticesAbove(t *testing.T) {
	res, err := isotet.Extract(unitTetra(), isotet.Scalars{0, 0, 10, 10}, 5, isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Triangles) != 2 || len(res.Vertices) != 4 {
		t.Fatalf("want 2 triangles and 4 vertices, got %d and %d", len(res.Triangles), len(res.Vertices))
	}
	for _, key := range []isotet.EdgeKey{{0, 2}, {0, 3}, {1, 2}, {1, 3}} {
		split, ok := res.Splits[key]
		if !ok {
			t.Errorf("missing split for edge %v", key)
		} else if split.Lambda != 0.5 {
			t.Errorf("edge %v lambda %g, want 0.5", key, split.Lambda)
		}
	}
	want := r3.Unit(r3.Vec{Y: 1, Z: 1})
	for i := range res.Triangles {
		if n := triangleNormal(res, i); !vecEqual(r3.Unit(n), want, 1e-12) {
			t.Errorf("triangle %d normal %v, want %v", i, r3.Unit(n), want)
		}
	}
	for i, v := range res.Vertices {
		if math.Abs(v.Y+v.Z-0.5) > 1e-12 {
			t.Errorf("vertex %d at %v off the isoplane", i, v)
		}
		if !vecEqual(res.Normals[i], want, 1e-12) {
			t.Errorf("vertex %d normal %v, want %v", i, res.Normals[i], want)
		}
	}
	// The two triangles share the quad's diagonal.
	if shared := sharedVertices(res.Triangles[0], res.Triangles[1]); shared != 2 {
		t.Errorf("quad triangles share %d vertices, want 2", shared)
	}
}

func TestAllCasesOrientation(t *testing.T) {
	base := unitTetra()
	for _, order := range [][4]int{{0, 1, 2, 3}, {1, 0, 2, 3}, {3, 2, 0, 1}} {
		m := &tetmesh.Mesh{Nodes: base.Nodes, Tetras: [][4]int{order}}
		for mask := 0; mask < 16; mask++ {
			// Values are assigned per local vertex.
			vals := make(isotet.Scalars, 4)
			for i, v := range order {
				vals[v] = float64(mask >> i & 1)
			}
			res, err := isotet.Extract(m, vals, 0.5, isotet.Config{})
			if err != nil {
				t.Fatal(err)
			}
			var wantTri int
			switch popcount(mask) {
			case 1, 3:
				wantTri = 1
			case 2:
				wantTri = 2
			}
			if len(res.Triangles) != wantTri {
				t.Errorf("order %v mask %04b: got %d triangles, want %d", order, mask, len(res.Triangles), wantTri)
				continue
			}
			grad := r3.Vec{X: vals[1] - vals[0], Y: vals[2] - vals[0], Z: vals[3] - vals[0]}
			for i := range res.Triangles {
				if n := triangleNormal(res, i); r3.Dot(n, grad) <= 0 {
					t.Errorf("order %v mask %04b triangle %d: normal %v faces away from gradient %v", order, mask, i, n, grad)
				}
			}
		}
	}
}

func TestSharedFace(t *testing.T) {
	m := unitTetra()
	m.Nodes = append(m.Nodes, r3.Vec{X: 1, Y: 1, Z: 1})
	m.Tetras = append(m.Tetras, [4]int{1, 2, 3, 4})
	// Linear field y+z.
	vals := isotet.Scalars{0, 0, 1, 1, 2}
	res, err := isotet.Extract(m, vals, 0.5, isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Triangles) != 3 || len(res.Vertices) != 5 || len(res.Splits) != 5 {
		t.Fatalf("want 3 triangles, 5 vertices and 5 splits, got %d, %d and %d",
			len(res.Triangles), len(res.Vertices), len(res.Splits))
	}
	// Edges 1-2 and 1-3 lie on the shared face and must be split once.
	a, b := res.Splits[isotet.EdgeKey{1, 2}].Vertex, res.Splits[isotet.EdgeKey{1, 3}].Vertex
	var uses int
	for _, tri := range res.Triangles {
		for k := range tri {
			u, v := tri[k], tri[(k+1)%3]
			if u == a && v == b || u == b && v == a {
				uses++
			}
		}
	}
	if uses != 2 {
		t.Errorf("shared face edge used by %d triangles, want 2", uses)
	}
	split := res.Splits[isotet.EdgeKey{1, 4}]
	if split.Lambda != 0.75 {
		t.Errorf("edge 1-4 lambda %g, want 0.75", split.Lambda)
	}
	if got := res.Vertices[split.Vertex]; !vecEqual(got, r3.Vec{X: 1, Y: 0.25, Z: 0.25}, 1e-12) {
		t.Errorf("edge 1-4 split at %v", got)
	}
	grad := r3.Vec{Y: 1, Z: 1}
	for i := range res.Triangles {
		if n := triangleNormal(res, i); r3.Dot(n, grad) <= 0 {
			t.Errorf("triangle %d normal %v faces away from gradient", i, n)
		}
	}
	interp := res.Interpolate(func(v int) float64 { return vals[v] })
	for i, s := range interp {
		if math.Abs(s-0.5) > 1e-12 {
			t.Errorf("vertex %d interpolates to %g, want 0.5", i, s)
		}
	}
}

func TestIsovalueOutOfRange(t *testing.T) {
	vals := isotet.Scalars{0, 0, 0, 10}
	for _, iso := range []float64{-1, 10, 20} {
		res, err := isotet.Extract(unitTetra(), vals, iso, isotet.Config{})
		if err != nil {
			t.Fatalf("iso=%g: %v", iso, err)
		}
		if len(res.Triangles) != 0 || len(res.Vertices) != 0 || len(res.Splits) != 0 {
			t.Errorf("iso=%g: want empty result, got %d triangles", iso, len(res.Triangles))
		}
		if res.Stats.CutTetras != 0 || res.Stats.Tetras != 1 {
			t.Errorf("iso=%g: unexpected stats %+v", iso, res.Stats)
		}
	}
}

func TestIsovalueAtMinimum(t *testing.T) {
	// Vertices on the isovalue are below it, the surface then lies on the base face.
	res, err := isotet.Extract(unitTetra(), isotet.Scalars{0, 0, 0, 10}, 0, isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Triangles) != 1 || res.Stats.SnappedVertices != 3 {
		t.Fatalf("want a single triangle of snapped vertices, got %d triangles and stats %+v", len(res.Triangles), res.Stats)
	}
	for i, v := range res.Vertices {
		if v.Z != 0 {
			t.Errorf("vertex %d at %v not on base face", i, v)
		}
	}
}

func TestPlateauSkipsDegenerateTriangle(t *testing.T) {
	res, err := isotet.Extract(unitTetra(), isotet.Scalars{10, 10, 10, 5}, 5, isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Triangles) != 0 {
		t.Errorf("degenerate triangle emitted: %v", res.Triangles)
	}
	if len(res.Vertices) != 1 || res.Vertices[0] != (r3.Vec{Z: 1}) {
		t.Errorf("want single vertex snapped to apex, got %v", res.Vertices)
	}
	if res.Normals[0] != (r3.Vec{}) {
		t.Errorf("isolated vertex normal %v, want zero", res.Normals[0])
	}
	want := isotet.Stats{Tetras: 1, CutTetras: 1, SnappedVertices: 1, SkippedTriangles: 1}
	if res.Stats != want {
		t.Errorf("got stats %+v, want %+v", res.Stats, want)
	}
}

func TestToleranceClamping(t *testing.T) {
	// Vertex 2 sits inside the tolerance band so it is classified below
	// although its value exceeds the isovalue.
	vals := isotet.Scalars{0, 0, 5.05, 10}
	res, err := isotet.Extract(unitTetra(), vals, 5, isotet.Config{Tolerance: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	split, ok := res.Splits[isotet.EdgeKey{2, 3}]
	if !ok {
		t.Fatal("missing split on edge 2-3")
	}
	if split.Lambda != 1 {
		t.Errorf("edge 2-3 lambda %g, want clamped to 1", split.Lambda)
	}
	if res.Stats.ClampedEdges != 1 {
		t.Errorf("got %d clamped edges, want 1", res.Stats.ClampedEdges)
	}
	if got := res.Vertices[split.Vertex]; got != (r3.Vec{Y: 1}) {
		t.Errorf("clamped split at %v, want mesh vertex 2", got)
	}
}

func TestExtremeScalars(t *testing.T) {
	res, err := isotet.Extract(unitTetra(), isotet.Scalars{-1e308, -1e308, -1e308, 1e308}, 0, isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Triangles) != 1 {
		t.Fatalf("want 1 triangle, got %d", len(res.Triangles))
	}
	for _, v := range res.Vertices {
		if v.Z != 0.5 {
			t.Errorf("vertex %v not at height 0.5", v)
		}
	}
	want := isotet.Stats{Tetras: 1, CutTetras: 1}
	if res.Stats != want {
		t.Errorf("got stats %+v, want %+v", res.Stats, want)
	}
}

func TestExtractErrors(t *testing.T) {
	nan := math.NaN()
	for _, test := range []struct {
		name    string
		m       *tetmesh.Mesh
		vals    isotet.Scalars
		wantErr error
		tetra   int
		vertex  int
	}{
		{
			name:    "vertex out of range",
			m:       &tetmesh.Mesh{Nodes: unitTetra().Nodes, Tetras: [][4]int{{0, 1, 2, 3}, {0, 1, 2, 7}}},
			vals:    isotet.Scalars{0, 1, 2, 3},
			wantErr: isotet.ErrVertexOutOfRange,
			tetra:   1, vertex: 7,
		},
		{
			name:    "missing scalar",
			m:       unitTetra(),
			vals:    isotet.Scalars{0, 1, 2},
			wantErr: isotet.ErrMissingScalar,
			tetra:   0, vertex: 3,
		},
		{
			name:    "nan scalar",
			m:       unitTetra(),
			vals:    isotet.Scalars{0, nan, 2, 3},
			wantErr: isotet.ErrNonFiniteScalar,
			tetra:   0, vertex: 1,
		},
		{
			name:    "infinite position",
			m:       &tetmesh.Mesh{Nodes: []r3.Vec{{}, {X: 1}, {Y: math.Inf(1)}, {Z: 1}}, Tetras: [][4]int{{0, 1, 2, 3}}},
			vals:    isotet.Scalars{0, 1, 2, 3},
			wantErr: isotet.ErrNonFinitePosition,
			tetra:   0, vertex: 2,
		},
	} {
		res, err := isotet.Extract(test.m, test.vals, 1.5, isotet.Config{})
		if res != nil {
			t.Errorf("%s: got partial result", test.name)
		}
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%s: got error %v, want %v", test.name, err, test.wantErr)
			continue
		}
		var inputErr *isotet.InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("%s: error %T is not an InputError", test.name, err)
		}
		if inputErr.Tetra != test.tetra || inputErr.Vertex != test.vertex {
			t.Errorf("%s: error reports tetrahedron %d vertex %d, want %d and %d",
				test.name, inputErr.Tetra, inputErr.Vertex, test.tetra, test.vertex)
		}
	}
	_, err := isotet.Extract(unitTetra(), isotet.Scalars{0, 1, 2, 3}, math.Inf(-1), isotet.Config{})
	if !errors.Is(err, isotet.ErrInvalidIsovalue) {
		t.Errorf("infinite isovalue: got %v", err)
	}
}

func TestExtractLowestFailingTetra(t *testing.T) {
	m, vals := sphereMesh(t, 0.25)
	bad := len(m.Tetras) / 3
	m.Tetras[bad][2] = len(m.Nodes) + 10
	m.Tetras[len(m.Tetras)-1][0] = -1
	for _, workers := range []int{1, 4, 16} {
		_, err := isotet.Extract(m, vals, 0.9, isotet.Config{Concurrency: workers})
		var inputErr *isotet.InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("workers=%d: want InputError, got %v", workers, err)
		}
		if inputErr.Tetra != bad {
			t.Errorf("workers=%d: error reports tetrahedron %d, want %d", workers, inputErr.Tetra, bad)
		}
	}
}

func TestNewExtractorConfig(t *testing.T) {
	for _, cfg := range []isotet.Config{
		{Tolerance: -1},
		{Tolerance: math.NaN()},
		{Tolerance: math.Inf(1)},
		{Concurrency: -2},
	} {
		if _, err := isotet.NewExtractor(cfg); err == nil {
			t.Errorf("expected error for config %+v", cfg)
		}
	}
	ex, err := isotet.NewExtractor(isotet.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ex.Extract(nil, isotet.Scalars{}, 0); err == nil {
		t.Error("expected error for nil mesh")
	}
}

func TestExtractorLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := isotet.Config{Logger: log.New(&buf, "", 0)}
	_, err := isotet.Extract(unitTetra(), isotet.Scalars{0, 0, 0, 10}, 5, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.Contains(got, "cut=1") || !strings.Contains(got, "triangles=1") {
		t.Errorf("unexpected log output %q", got)
	}
}

func TestRange(t *testing.T) {
	m := unitTetra()
	lo, hi, err := isotet.Range(m, isotet.Scalars{3, -1, 7, 2})
	if err != nil {
		t.Fatal(err)
	}
	if lo != -1 || hi != 7 {
		t.Errorf("got range [%g, %g], want [-1, 7]", lo, hi)
	}
	mid, err := isotet.MidIsovalue(m, isotet.Scalars{3, -1, 7, 2})
	if err != nil {
		t.Fatal(err)
	}
	if mid != 3 {
		t.Errorf("got mid isovalue %g, want 3", mid)
	}
	mid, err = isotet.MidIsovalue(m, isotet.Scalars{-1e308, -1e308, 1e308, 1e308})
	if err != nil || mid != 0 {
		t.Errorf("got mid isovalue %g with error %v, want 0", mid, err)
	}
	if _, _, err := isotet.Range(&tetmesh.Mesh{}, isotet.Scalars{}); err == nil {
		t.Error("expected error for empty mesh")
	}
	if _, _, err := isotet.Range(m, isotet.Scalars{0, 1}); !errors.Is(err, isotet.ErrMissingScalar) {
		t.Errorf("want missing scalar error, got %v", err)
	}
}

func triangleNormal(res *isotet.Result, i int) r3.Vec {
	tri := res.Triangles[i]
	a, b, c := res.Vertices[tri[0]], res.Vertices[tri[1]], res.Vertices[tri[2]]
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

func vecEqual(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func sharedVertices(a, b [3]int) (n int) {
	for _, u := range a {
		for _, v := range b {
			if u == v {
				n++
			}
		}
	}
	return n
}

func popcount(mask int) (n int) {
	for ; mask != 0; mask &= mask - 1 {
		n++
	}
	return n
}
