/*
DESCRIPTION
  neighbor.go implements the availability/slice-match lookups of spec.md
  section 4.2's general invariant ("a block's availability for prediction
  requires (a) geometric in-bounds, (b) same-slice neighbor, (c)
  already-reconstructed in raster + top-right-limited order") and the
  spatial neighbor set of section 4.4 (LEFT, TOP, TOP2, TOPLEFT, LEFT2,
  TOPRIGHT). It tracks decode progress at 4x4-unit granularity directly,
  rather than a separate precomputed z-scan availability table, per the
  Open Question decision recorded in DESIGN.md: an explicit decoded-bitmap
  check is equivalent to a table-driven flag and needs no second source of
  truth to keep in sync with CUParser's actual decode order.
*/

package avs2dec

// BlockMap tracks, at 4x4-unit granularity across a whole frame, which
// slice owns each unit and whether it has been reconstructed yet. CUParser
// marks units decoded as it walks the CTU quadtree; NeighborQuery consults
// it to resolve availability.
type BlockMap struct {
	widthIn4x4, heightIn4x4 int
	sliceID                 []int32
	decoded                 []bool
}

// NewBlockMap allocates a BlockMap for a frame of the given 4x4-unit
// dimensions, with every unit initially unowned and undecoded.
func NewBlockMap(widthIn4x4, heightIn4x4 int) *BlockMap {
	n := widthIn4x4 * heightIn4x4
	b := &BlockMap{
		widthIn4x4:  widthIn4x4,
		heightIn4x4: heightIn4x4,
		sliceID:     make([]int32, n),
		decoded:     make([]bool, n),
	}
	for i := range b.sliceID {
		b.sliceID[i] = -1
	}
	return b
}

// InBounds reports whether (x, y), in 4x4 units, lies within the frame.
func (b *BlockMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.widthIn4x4 && y < b.heightIn4x4
}

func (b *BlockMap) index(x, y int) int { return y*b.widthIn4x4 + x }

// SliceIDAt returns the slice owning (x, y), or -1 if out of bounds or
// unassigned.
func (b *BlockMap) SliceIDAt(x, y int) int32 {
	if !b.InBounds(x, y) {
		return -1
	}
	return b.sliceID[b.index(x, y)]
}

// IsDecoded reports whether (x, y) has been reconstructed.
func (b *BlockMap) IsDecoded(x, y int) bool {
	if !b.InBounds(x, y) {
		return false
	}
	return b.decoded[b.index(x, y)]
}

// MarkDecoded marks every 4x4 unit in the w x h (in units) box at (x, y) as
// decoded under slice, called by CUParser as it finishes a CU/PU.
func (b *BlockMap) MarkDecoded(x, y, w, h int, slice int32) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			if !b.InBounds(xx, yy) {
				continue
			}
			i := b.index(xx, yy)
			b.decoded[i] = true
			b.sliceID[i] = slice
		}
	}
}

// NeighborQuery resolves availability and yields concrete neighbor
// positions against a BlockMap.
type NeighborQuery struct {
	Blocks *BlockMap
}

// NewNeighborQuery returns a NeighborQuery over blocks.
func NewNeighborQuery(blocks *BlockMap) *NeighborQuery {
	return &NeighborQuery{Blocks: blocks}
}

// Available reports whether the 4x4 unit at (x, y) may be used as a
// prediction neighbor for a block belonging to curSlice, per spec.md
// section 4.2's three-part invariant.
func (nq *NeighborQuery) Available(curSlice int32, x, y int) bool {
	if !nq.Blocks.InBounds(x, y) {
		return false
	}
	if !nq.Blocks.IsDecoded(x, y) {
		return false
	}
	return nq.Blocks.SliceIDAt(x, y) == curSlice
}

// Neighbor is one resolved spatial-candidate position: its 4x4-unit
// coordinates and whether it is usable.
type Neighbor struct {
	X, Y      int
	Available bool
}

// SpatialNeighbors is the six-candidate set of spec.md section 4.4, for a
// PU occupying the 4x4-unit box [x0, x0+bsx) x [y0, y0+bsy).
type SpatialNeighbors struct {
	Left, Left2         Neighbor
	Top, Top2           Neighbor
	TopLeft, TopRight   Neighbor
}

// Spatial resolves the six named neighbor candidates for a PU at (x0, y0)
// of size (bsx, bsy) in 4x4 units, belonging to curSlice.
func (nq *NeighborQuery) Spatial(curSlice int32, x0, y0, bsx, bsy int) SpatialNeighbors {
	resolve := func(x, y int) Neighbor {
		return Neighbor{X: x, Y: y, Available: nq.Available(curSlice, x, y)}
	}
	return SpatialNeighbors{
		Left:      resolve(x0-1, y0),
		Left2:     resolve(x0-1, y0+bsy-1),
		Top:       resolve(x0, y0-1),
		Top2:      resolve(x0+bsx-1, y0-1),
		TopLeft:   resolve(x0-1, y0-1),
		TopRight:  resolve(x0+bsx, y0-1),
	}
}
