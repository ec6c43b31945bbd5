package isotet

import (
	"errors"
	"log"
	"math"
	"sync"

	"github.com/soypat/isotet/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config configures an Extractor. The zero value is a valid sequential configuration.
type Config struct {
	// Tolerance widens the band of values treated as lying on the isovalue.
	// A vertex is above the isovalue only if value-iso > Tolerance. Must be >= 0.
	Tolerance float64
	// Concurrency is the number of goroutines used to classify tetrahedra
	// and emit triangles. Values of 0 or 1 run on the calling goroutine.
	// Output does not depend on Concurrency.
	Concurrency int
	// Logger receives a one line summary after every extraction if not nil.
	Logger *log.Logger
}

// Extractor runs marching tetrahedra extractions. It reuses scratch buffers
// between calls and is not safe for concurrent use; use one per goroutine.
type Extractor struct {
	cfg   Config
	cells []tetClass
	cut   []cutTet
	slots []triSlot
}

// tetClass is the classification of a single tetrahedron.
type tetClass struct {
	mask uint8
	flip bool // negatively oriented tetrahedron, winding must be reversed.
}

// cutTet holds the resolved output vertices of a crossed tetrahedron.
type cutTet struct {
	tri  [marchingTetsMaxTriangles][3]int
	ntri uint8
	flip bool
}

type triSlot struct {
	tri     [3]int
	normal  r3.Vec // area weighted.
	ok      bool
	skipped bool
}

// NewExtractor returns an Extractor configured with cfg.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.Tolerance < 0 || math.IsNaN(cfg.Tolerance) || math.IsInf(cfg.Tolerance, 0) {
		return nil, errors.New("tolerance must be finite and non-negative")
	} else if cfg.Concurrency < 0 {
		return nil, errors.New("negative concurrency")
	}
	return &Extractor{cfg: cfg}, nil
}

// Extract is a convenience function that extracts the isosurface of f at
// isovalue iso over m with a new Extractor.
func Extract(m Mesh, f ScalarField, iso float64, cfg Config) (*Result, error) {
	ex, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return ex.Extract(m, f, iso)
}

// Extract returns the isosurface of field f at isovalue iso over mesh m.
// Invalid input fails the whole call with an *InputError and no result.
// An isovalue outside the range of f yields an empty result.
func (ex *Extractor) Extract(m Mesh, f ScalarField, iso float64) (*Result, error) {
	if m == nil || f == nil {
		return nil, errors.New("nil mesh or scalar field")
	} else if math.IsNaN(iso) || math.IsInf(iso, 0) {
		return nil, ErrInvalidIsovalue
	}
	ntet := m.NumTetras()
	if cap(ex.cells) < ntet {
		ex.cells = make([]tetClass, ntet)
	}
	ex.cells = ex.cells[:ntet]

	// Classification only reads the mesh and field so it may run in parallel.
	err := forEachChunk(ntet, ex.cfg.Concurrency, func(lo, hi int) error {
		return ex.classifyRange(m, f, iso, lo, hi)
	})
	if err != nil {
		return nil, err
	}

	// Split resolution mutates the split map and runs in tetrahedron order,
	// which makes output ids a function of that order alone.
	stats := Stats{Tetras: ntet}
	sp := newSplitter(iso, ntet/4, &stats)
	ex.resolveSplits(m, f, sp)
	stats.CutTetras = len(ex.cut)

	nslots := marchingTetsMaxTriangles * len(ex.cut)
	if cap(ex.slots) < nslots {
		ex.slots = make([]triSlot, nslots)
	}
	ex.slots = ex.slots[:nslots]
	forEachChunk(len(ex.cut), ex.cfg.Concurrency, func(lo, hi int) error {
		ex.emitRange(sp.vertices, lo, hi)
		return nil
	})

	res := &Result{
		Vertices:  sp.vertices,
		Triangles: make([][3]int, 0, nslots),
		Normals:   make([]r3.Vec, len(sp.vertices)),
		Splits:    sp.splits,
	}
	for _, slot := range ex.slots {
		if slot.skipped {
			stats.SkippedTriangles++
		}
		if !slot.ok {
			continue
		}
		res.Triangles = append(res.Triangles, slot.tri)
		for _, v := range slot.tri {
			res.Normals[v] = r3.Add(res.Normals[v], slot.normal)
		}
	}
	for i, n := range res.Normals {
		if norm := r3.Norm(n); norm > 0 {
			res.Normals[i] = r3.Scale(1/norm, n)
		}
	}
	res.Stats = stats
	if ex.cfg.Logger != nil {
		ex.cfg.Logger.Printf("isotet: iso=%g tetras=%d cut=%d vertices=%d triangles=%d clamped=%d degenerate=%d snapped=%d skipped=%d",
			iso, stats.Tetras, stats.CutTetras, len(res.Vertices), len(res.Triangles),
			stats.ClampedEdges, stats.DegenerateEdges, stats.SnappedVertices, stats.SkippedTriangles)
	}
	return res, nil
}

// classifyRange validates and classifies tetrahedra in [lo, hi).
func (ex *Extractor) classifyRange(m Mesh, f ScalarField, iso float64, lo, hi int) error {
	nv := m.NumVertices()
	tol := ex.cfg.Tolerance
	for tid := lo; tid < hi; tid++ {
		tv := m.Tetra(tid)
		var pos [4]r3.Vec
		var vals [4]float64
		for i, v := range tv {
			p, s, err := lookup(m, f, nv, v)
			if err != nil {
				return &InputError{Tetra: tid, Vertex: v, Err: err}
			}
			pos[i], vals[i] = p, s
		}
		mask := classify(vals, iso, tol)
		ex.cells[tid] = tetClass{
			mask: mask,
			flip: caseTable[mask].ntri > 0 && !positiveOrientation(pos),
		}
	}
	return nil
}

// resolveSplits assigns output vertices to the crossed edges of every cut tetrahedron.
// Input has already been validated during classification.
func (ex *Extractor) resolveSplits(m Mesh, f ScalarField, sp *splitter) {
	ex.cut = ex.cut[:0]
	for tid, cell := range ex.cells {
		tc := caseTable[cell.mask]
		if tc.ntri == 0 {
			continue
		}
		tv := m.Tetra(tid)
		var pos [4]r3.Vec
		var vals [4]float64
		for i, v := range tv {
			pos[i] = m.Vertex(v)
			vals[i], _ = f.Scalar(v)
		}
		ct := cutTet{ntri: tc.ntri, flip: cell.flip}
		for it := 0; it < int(tc.ntri); it++ {
			for k, edge := range tc.tri[it] {
				a, b := tetEdges[edge][0], tetEdges[edge][1]
				ct.tri[it][k] = sp.resolve(tv[a], tv[b], pos[a], pos[b], vals[a], vals[b])
			}
		}
		ex.cut = append(ex.cut, ct)
	}
}

// emitRange writes the triangles of cut tetrahedra in [lo, hi) to their slots.
// vertices must not be modified while emitting.
func (ex *Extractor) emitRange(vertices []r3.Vec, lo, hi int) {
	for i := lo; i < hi; i++ {
		ct := &ex.cut[i]
		for it := 0; it < marchingTetsMaxTriangles; it++ {
			slot := &ex.slots[marchingTetsMaxTriangles*i+it]
			*slot = triSlot{}
			if it >= int(ct.ntri) {
				continue
			}
			tri := ct.tri[it]
			if ct.flip {
				tri[1], tri[2] = tri[2], tri[1]
			}
			if tri[0] == tri[1] || tri[1] == tri[2] || tri[2] == tri[0] {
				slot.skipped = true
				continue
			}
			a, b, c := vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]
			slot.tri = tri
			slot.normal = r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
			slot.ok = true
		}
	}
}

func lookup(m Mesh, f ScalarField, nv, v int) (r3.Vec, float64, error) {
	if v < 0 || v >= nv {
		return r3.Vec{}, 0, ErrVertexOutOfRange
	}
	s, ok := f.Scalar(v)
	if !ok {
		return r3.Vec{}, 0, ErrMissingScalar
	} else if !isFinite(s) {
		return r3.Vec{}, 0, ErrNonFiniteScalar
	}
	p := m.Vertex(v)
	if !d3.Finite(p) {
		return r3.Vec{}, 0, ErrNonFinitePosition
	}
	return p, s, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// forEachChunk splits [0, n) into contiguous chunks processed by up to workers
// goroutines. It returns the error of the lowest failing chunk so errors
// are reported for the lowest failing index regardless of scheduling.
func forEachChunk(n, workers int, fn func(lo, hi int) error) error {
	if workers <= 1 || n < 2*workers {
		return fn(0, n)
	}
	chunk := (n + workers - 1) / workers
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			errs[w] = fn(lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
