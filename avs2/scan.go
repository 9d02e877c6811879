/*
DESCRIPTION
  scan.go precomputes the fixed permutations of spec.md section 4.3: the
  4x4 zig-zag-within-coefficient-group pattern, the raster-to-zig-zag scan
  for each coefficient-group grid shape, and the coefficient-group ordering
  for each (tu_log2, split mode) pair including the vertical-strip and
  horizontal-strip orderings non-square TUs use. It generalizes the
  teacher's static single-geometry zig-zag table (h264dec's 4x4/8x8 scan
  constants) into a precomputed table keyed by TU geometry.
*/

package avs2dec

import "sync"

// TUSplit enumerates how a TU area is divided into coefficient groups, per
// spec.md section 4.3 ("non-square TUs have vertical-strip and
// horizontal-strip orderings").
type TUSplit int

const (
	// TUSplitNone covers square TUs and the uniform 4x4-CG case.
	TUSplitNone TUSplit = iota
	// TUSplitVertical covers NSQT/SDIP vertical strip TUs (tall, narrow CGs).
	TUSplitVertical
	// TUSplitHorizontal covers NSQT/SDIP horizontal strip TUs (wide, short CGs).
	TUSplitHorizontal
)

// tabScanCoeffPosInCG is the fixed zig-zag-within-a-4x4-coefficient-group
// permutation, spec.md section 4.3's tab_scan_coeff_pos_in_cg[4][4],
// verified against _examples/original_source/source/common/aec.cc.
var tabScanCoeffPosInCG = [4][4]int{
	{0, 1, 5, 6},
	{2, 4, 7, 12},
	{3, 8, 11, 13},
	{9, 10, 14, 15},
}

// raster2ZZ4x4 is the raster-to-zig-zag permutation for a 4x4 coefficient
// grid, matching aec.cc's raster2ZZ_4x4 exactly.
var raster2ZZ4x4 = [16]int{
	0, 1, 5, 6,
	2, 4, 7, 12,
	3, 8, 11, 13,
	9, 10, 14, 15,
}

// raster2ZZ8x8 is the raster-to-zig-zag permutation for an 8x8 coefficient
// grid, matching aec.cc's raster2ZZ_8x8 exactly.
var raster2ZZ8x8 = [64]int{
	0, 1, 5, 6, 14, 15, 27, 28,
	2, 4, 7, 13, 16, 26, 29, 42,
	3, 8, 12, 17, 25, 30, 41, 43,
	9, 11, 18, 24, 31, 40, 44, 53,
	10, 19, 23, 32, 39, 45, 52, 54,
	20, 22, 33, 38, 46, 51, 55, 60,
	21, 34, 37, 47, 50, 56, 59, 61,
	35, 36, 48, 49, 57, 58, 62, 63,
}

// raster2ZZ2x8 is the raster-to-zig-zag permutation for a 2-wide, 8-tall
// coefficient grid, matching aec.cc's raster2ZZ_2x8 exactly.
var raster2ZZ2x8 = [16]int{
	0, 1, 4, 5, 8, 9, 12, 13,
	2, 3, 6, 7, 10, 11, 14, 15,
}

// raster2ZZ8x2 is the raster-to-zig-zag permutation for an 8-wide, 2-tall
// coefficient grid, matching aec.cc's raster2ZZ_8x2 exactly.
var raster2ZZ8x2 = [16]int{
	0, 1,
	2, 4,
	3, 5,
	6, 8,
	7, 9,
	10, 12,
	11, 13,
	14, 15,
}

// CGGrid identifies the shape of a coefficient-group grid a TU is divided
// into, in CG units (not samples).
type CGGrid struct {
	W, H int
}

func cgGridFor(tuLog2 int, split TUSplit) CGGrid {
	tuSize := 1 << uint(tuLog2)
	cgCols := tuSize / 4
	if cgCols < 1 {
		cgCols = 1
	}
	halfCols := cgCols / 2
	if halfCols < 1 {
		halfCols = 1
	}
	switch split {
	case TUSplitVertical:
		return CGGrid{W: halfCols, H: cgCols * 2}
	case TUSplitHorizontal:
		return CGGrid{W: cgCols * 2, H: halfCols}
	default:
		return CGGrid{W: cgCols, H: cgCols}
	}
}

// cgScanOrder returns the CG-visiting order (CG raster indices, in visit
// order) for a grid of the given shape. Square grids use diagonal zig-zag
// (the same traversal shape as the within-CG 4x4 permutation, generalized
// to the CG count); vertical-strip grids scan column-major and
// horizontal-strip grids scan row-major, matching spec.md section 4.3's
// "non-square TUs have vertical-strip and horizontal-strip orderings".
func cgScanOrder(g CGGrid) []int {
	n := g.W * g.H
	order := make([]int, 0, n)
	switch {
	case g.W == g.H:
		order = zigZagDiagonal(g.W, g.H)
	case g.H > g.W:
		// vertical strip: column-major (top-to-bottom within each column,
		// left column first).
		for x := 0; x < g.W; x++ {
			for y := 0; y < g.H; y++ {
				order = append(order, y*g.W+x)
			}
		}
	default:
		// horizontal strip: row-major (left-to-right within each row, top
		// row first).
		for y := 0; y < g.H; y++ {
			for x := 0; x < g.W; x++ {
				order = append(order, y*g.W+x)
			}
		}
	}
	return order
}

// zigZagDiagonal returns the anti-diagonal zig-zag visiting order of a w x h
// raster grid, alternating sweep direction each diagonal the way the 4x4
// and 8x8 within-CG tables above do.
func zigZagDiagonal(w, h int) []int {
	order := make([]int, 0, w*h)
	for d := 0; d < w+h-1; d++ {
		var xs []int
		for x := 0; x < w; x++ {
			y := d - x
			if y >= 0 && y < h {
				xs = append(xs, x)
			}
		}
		if d%2 == 0 {
			for i := len(xs) - 1; i >= 0; i-- {
				x := xs[i]
				order = append(order, (d-x)*w+x)
			}
		} else {
			for _, x := range xs {
				order = append(order, (d-x)*w+x)
			}
		}
	}
	return order
}

// ScanTables is the fixed set of permutations of spec.md section 4.3,
// resolved per (tu_log2, split) at decoder construction and then reused for
// every TU of that geometry.
type ScanTables struct {
	// WithinCG is the raster-to-zig-zag permutation inside one 4x4
	// coefficient group, applicable to every geometry (tab_scan_coeff_pos_in_cg).
	WithinCG [4][4]int

	// CGOrder is the CG-visiting order for this geometry, as raster indices
	// into the CG grid.
	CGOrder []int

	// Grid is the CG grid shape this table set was built for.
	Grid CGGrid
}

// scanTableCache memoizes ScanTables by (tuLog2, split) since the set of
// TU geometries in use is small and fixed per sequence. FrameScheduler
// decodes rows across goroutines (spec.md section 5), so the cache is
// guarded rather than a bare map.
var (
	scanTableMu    sync.Mutex
	scanTableCache = map[[2]int]*ScanTables{}
)

// NewScanTables returns (building and caching, if not already built) the
// ScanTables for a TU of log2 size tuLog2 split per split.
func NewScanTables(tuLog2 int, split TUSplit) *ScanTables {
	key := [2]int{tuLog2, int(split)}

	scanTableMu.Lock()
	defer scanTableMu.Unlock()

	if st, ok := scanTableCache[key]; ok {
		return st
	}
	grid := cgGridFor(tuLog2, split)
	st := &ScanTables{
		WithinCG: tabScanCoeffPosInCG,
		CGOrder:  cgScanOrder(grid),
		Grid:     grid,
	}
	scanTableCache[key] = st
	return st
}

// RasterToZigZag returns the flat raster-to-zig-zag permutation table for a
// coefficient grid of the given width and height in samples, per spec.md
// section 4.3's four named grid shapes.
func RasterToZigZag(w, h int) []int {
	switch {
	case w == 4 && h == 4:
		return raster2ZZ4x4[:]
	case w == 8 && h == 8:
		return raster2ZZ8x8[:]
	case w == 2 && h == 8:
		return raster2ZZ2x8[:]
	case w == 8 && h == 2:
		return raster2ZZ8x2[:]
	}
	return nil
}
