package render

import (
	"io"

	"github.com/soypat/isotet"
)

var _ Renderer = (*ResultRenderer)(nil)

// ResultRenderer streams the triangles of an extracted isosurface in
// the order they appear in the result.
type ResultRenderer struct {
	res  *isotet.Result
	next int
}

// NewResultRenderer returns a Renderer over the triangles of res.
func NewResultRenderer(res *isotet.Result) *ResultRenderer {
	return &ResultRenderer{res: res}
}

// Reset switches the underlying result and rewinds the renderer.
func (rr *ResultRenderer) Reset(res *isotet.Result) {
	rr.res = res
	rr.next = 0
}

// ReadTriangles implements Renderer.
func (rr *ResultRenderer) ReadTriangles(dst []Triangle3) (n int, err error) {
	if len(dst) == 0 {
		return 0, io.ErrShortBuffer
	}
	remaining := rr.res.Triangles[rr.next:]
	if len(remaining) == 0 {
		return 0, io.EOF // Done rendering model.
	}
	verts := rr.res.Vertices
	for n < len(dst) && n < len(remaining) {
		tri := remaining[n]
		dst[n] = Triangle3{verts[tri[0]], verts[tri[1]], verts[tri[2]]}
		n++
	}
	rr.next += n
	return n, nil
}
