package tetmesh

import (
	"errors"
	"math"

	"github.com/soypat/isotet/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// NewBCC meshes a box with a body centered cubic lattice of cubes of side
// resolution. Every pair of face-adjacent cubes is joined by four tetrahedra
// spanning both cube centers and one edge of the shared face, which results in
// a conforming, nearly isotropic mesh. The meshed region spans the cube centers,
// so it is half a cube smaller than the lattice on every side.
// All returned tetrahedra are positively oriented.
//
// Inspired by Tetrahedral Mesh Generation for Deformable Bodies
// Molino, Bridson, Fedkiw.
func NewBCC(bounds r3.Box, resolution float64) (*Mesh, error) {
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return nil, errors.New("invalid BCC resolution")
	}
	bb := d3.Box(bounds)
	if bb.Empty() || !d3.Finite(bb.Min) || !d3.Finite(bb.Max) {
		return nil, errors.New("invalid BCC bounds")
	}
	sz := bb.Size()
	div := [3]int{
		int(math.Ceil(sz.X / resolution)),
		int(math.Ceil(sz.Y / resolution)),
		int(math.Ceil(sz.Z / resolution)),
	}
	if div[0] < 3 || div[1] < 3 || div[2] < 3 {
		return nil, errors.New("resolution too low: need at least 3 BCC cells per axis")
	}
	lattice := newBCCLattice(bb.Min, div, resolution)
	m := lattice.mesh()
	m.Orient()
	return m, nil
}

type bccLattice struct {
	cells      []bccCell
	div        [3]int
	resolution float64
}

type bccidx int

// BCC node indices within a cell. Corners are named after the axes
// on which they sit at the cell's maximum.
const (
	i000 bccidx = iota
	ix00
	ixy0
	i0y0
	i00z
	ix0z
	ixyz
	i0yz
	ictr // BCC central node index.
	nBCC // number of BCC nodes.
)

// Corner offsets from the cell minimum in units of resolution.
var bccCorners = [ictr][3]float64{
	i000: {0, 0, 0},
	ix00: {1, 0, 0},
	ixy0: {1, 1, 0},
	i0y0: {0, 1, 0},
	i00z: {0, 0, 1},
	ix0z: {1, 0, 1},
	ixyz: {1, 1, 1},
	i0yz: {0, 1, 1},
}

var unmeshed = [nBCC]int{-1, -1, -1 /**/, -1, -1, -1 /**/, -1, -1, -1}

type bccCell struct {
	nodes [nBCC]int
	min   r3.Vec // minimum corner position.
	// Face neighbors, nil on the lattice boundary.
	xp, xm *bccCell
	yp, ym *bccCell
	zp, zm *bccCell
}

func newBCCLattice(origin r3.Vec, div [3]int, resolution float64) *bccLattice {
	l := &bccLattice{
		cells:      make([]bccCell, div[0]*div[1]*div[2]),
		div:        div,
		resolution: resolution,
	}
	l.foreach(func(i, j, k int, c *bccCell) {
		*c = bccCell{
			nodes: unmeshed,
			min: r3.Vec{
				X: origin.X + float64(i)*resolution,
				Y: origin.Y + float64(j)*resolution,
				Z: origin.Z + float64(k)*resolution,
			},
			xm: l.at(i-1, j, k), xp: l.at(i+1, j, k),
			ym: l.at(i, j-1, k), yp: l.at(i, j+1, k),
			zm: l.at(i, j, k-1), zp: l.at(i, j, k+1),
		}
	})
	return l
}

// mesh numbers lattice nodes and generates tetrahedra. Cells are visited
// in index order so corner nodes are always shared with already numbered
// face neighbors in the minus directions.
func (l *bccLattice) mesh() *Mesh {
	m := &Mesh{
		Nodes:  make([]r3.Vec, 0, 2*len(l.cells)),
		Tetras: make([][4]int, 0, 12*len(l.cells)),
	}
	res := l.resolution
	l.foreach(func(_, _, _ int, c *bccCell) {
		c.nodes[ictr] = len(m.Nodes)
		m.Nodes = append(m.Nodes, r3.Add(c.min, d3.Elem(res/2)))
		for in := i000; in < ictr; in++ {
			if v := c.neighborNode(in); v >= 0 {
				c.nodes[in] = v
				continue
			}
			off := bccCorners[in]
			c.nodes[in] = len(m.Nodes)
			m.Nodes = append(m.Nodes, r3.Add(c.min, r3.Vec{X: off[0] * res, Y: off[1] * res, Z: off[2] * res}))
		}
		m.Tetras = append(m.Tetras, c.tetras()...)
	})
	return m
}

func (c *bccCell) nodeAt(idx bccidx) int {
	if c == nil {
		return -1
	}
	return c.nodes[idx]
}

// neighborNode returns the id of corner idx if a face neighbor already numbered it, or -1.
func (c *bccCell) neighborNode(idx bccidx) int {
	var nx, ny, nz int
	switch idx {
	case i000:
		nx = c.xm.nodeAt(ix00)
		ny = c.ym.nodeAt(i0y0)
		nz = c.zm.nodeAt(i00z)
	case ix00:
		nx = c.xp.nodeAt(i000)
		ny = c.ym.nodeAt(ixy0)
		nz = c.zm.nodeAt(ix0z)
	case ixy0:
		nx = c.xp.nodeAt(i0y0)
		ny = c.yp.nodeAt(ix00)
		nz = c.zm.nodeAt(ixyz)
	case i0y0:
		nx = c.xm.nodeAt(ixy0)
		ny = c.yp.nodeAt(i000)
		nz = c.zm.nodeAt(i0yz)
	case i00z:
		nx = c.xm.nodeAt(ix0z)
		ny = c.ym.nodeAt(i0yz)
		nz = c.zp.nodeAt(i000)
	case ix0z:
		nx = c.xp.nodeAt(i00z)
		ny = c.ym.nodeAt(ixyz)
		nz = c.zp.nodeAt(ix00)
	case ixyz:
		nx = c.xp.nodeAt(i0yz)
		ny = c.yp.nodeAt(ix0z)
		nz = c.zp.nodeAt(ixy0)
	case i0yz:
		nx = c.xm.nodeAt(ixyz)
		ny = c.yp.nodeAt(i00z)
		nz = c.zp.nodeAt(i0y0)
	default:
		panic("bad bcc corner index")
	}
	bad := nx >= 0 && ny >= 0 && nx != ny ||
		nx >= 0 && nz >= 0 && nx != nz ||
		nz >= 0 && ny >= 0 && nz != ny
	if bad {
		panic("bad mesh operation detected")
	}
	return max(nx, ny, nz)
}

// tetras joins the cell to its already meshed minus-direction neighbors.
func (c *bccCell) tetras() (tetras [][4]int) {
	ctr := c.nodes[ictr]
	n := &c.nodes
	// Start with z since the lattice is stored with z as the fastest
	// varying index so zm is likely in cache.
	if zctr := c.zm.nodeAt(ictr); zctr >= 0 {
		tetras = append(tetras,
			[4]int{ctr, n[i000], n[ix00], zctr},
			[4]int{ctr, n[ix00], n[ixy0], zctr},
			[4]int{ctr, n[ixy0], n[i0y0], zctr},
			[4]int{ctr, n[i0y0], n[i000], zctr},
		)
	}
	if yctr := c.ym.nodeAt(ictr); yctr >= 0 {
		tetras = append(tetras,
			[4]int{ctr, n[ix00], n[i000], yctr},
			[4]int{ctr, n[ix0z], n[ix00], yctr},
			[4]int{ctr, n[i00z], n[ix0z], yctr},
			[4]int{ctr, n[i000], n[i00z], yctr},
		)
	}
	if xctr := c.xm.nodeAt(ictr); xctr >= 0 {
		tetras = append(tetras,
			[4]int{ctr, n[i000], n[i0y0], xctr},
			[4]int{ctr, n[i00z], n[i000], xctr},
			[4]int{ctr, n[i0yz], n[i00z], xctr},
			[4]int{ctr, n[i0y0], n[i0yz], xctr},
		)
	}
	return tetras
}

func (l *bccLattice) at(i, j, k int) *bccCell {
	if i < 0 || j < 0 || k < 0 || i >= l.div[0] || j >= l.div[1] || k >= l.div[2] {
		return nil
	}
	return &l.cells[i*l.div[1]*l.div[2]+j*l.div[2]+k]
}

func (l *bccLattice) foreach(f func(i, j, k int, c *bccCell)) {
	for i := 0; i < l.div[0]; i++ {
		ii := i * l.div[1] * l.div[2]
		for j := 0; j < l.div[1]; j++ {
			jj := j * l.div[2]
			for k := 0; k < l.div[2]; k++ {
				f(i, j, k, &l.cells[ii+jj+k])
			}
		}
	}
}
