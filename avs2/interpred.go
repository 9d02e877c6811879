/*
DESCRIPTION
  interpred.go implements the fractional-sample motion compensation of
  spec.md section 4.6: luma quarter-pel (8-tap) and chroma eighth-pel
  (4-tap) interpolation, the separable two-pass filter path, and
  bi-prediction / dual-hypothesis / DMH averaging. The filter coefficient
  tables are copied verbatim from
  _examples/original_source/source/common/mc.cc's INTPL_FILTERS (luma,
  8-tap, 4 phases including the unused full-pel entry) and INTPL_FILTERS_C
  (chroma, 4-tap, 8 phases including the unused full-pel entry).
*/

package avs2dec

// lumaFilters is mc.cc's INTPL_FILTERS: 4 quarter-pel phases (index 0 is
// the unused full-pel identity), each an 8-tap kernel.
var lumaFilters = [4][8]int32{
	{0, 0, 0, 64, 0, 0, 0, 0},
	{-1, 4, -10, 57, 19, -7, 3, -1},
	{-1, 4, -11, 40, 40, -11, 4, -1},
	{-1, 3, -7, 19, 57, -10, 4, -1},
}

// chromaFilters is mc.cc's INTPL_FILTERS_C: 8 eighth-pel phases (index 0
// is the unused full-pel identity), each a 4-tap kernel.
var chromaFilters = [8][4]int32{
	{0, 64, 0, 0},
	{-4, 62, 6, 0},
	{-6, 56, 15, -1},
	{-5, 47, 25, -3},
	{-4, 36, 36, -4},
	{-3, 25, 47, -5},
	{-1, 15, 56, -6},
	{0, 6, 62, -4},
}

// clampedAt reads plane p at (x, y), clamping out-of-bounds coordinates to
// the nearest edge sample -- the "padded by repeat" extension of spec.md
// section 4.6 step 1, applied per-access instead of materializing a padded
// copy of the reference plane.
func clampedAt(p *Plane, x, y int) int32 {
	if x < 0 {
		x = 0
	} else if x >= p.Width {
		x = p.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.Height {
		y = p.Height - 1
	}
	return int32(p.At(x, y))
}

// mcFilterHor applies an 8-tap (ntap may be 4 for chroma) horizontal filter
// centered so that taps straddle the integer position x, per spec.md
// section 4.6 step 3/5.
func mcFilterHor(p *Plane, x, y int, coeff []int32, ntap int) int32 {
	half := ntap/2 - 1
	var sum int32
	for i := 0; i < ntap; i++ {
		sum += coeff[i] * clampedAt(p, x-half+i, y)
	}
	return sum
}

// mcFilterVer applies a vertical filter at integer x over fractional y,
// per spec.md section 4.6 step 4/5.
func mcFilterVer(p *Plane, x, y int, coeff []int32, ntap int) int32 {
	half := ntap/2 - 1
	var sum int32
	for i := 0; i < ntap; i++ {
		sum += coeff[i] * clampedAt(p, x, y-half+i)
	}
	return sum
}

// PredictLumaBlock fills dst (w x h, stride w) with the luma motion
// compensated prediction sampled from ref at the quarter-pel position
// (intX+qx/4, intY+qy/4), per spec.md section 4.6's 5-step procedure.
func PredictLumaBlock(ref *Plane, intX, intY, qx, qy int, dst []int32, w, h, bitDepth int) {
	filters := make([][]int32, len(lumaFilters))
	for i := range lumaFilters {
		filters[i] = lumaFilters[i][:]
	}
	predictBlock(ref, intX, intY, qx, qy, 4, dst, w, h, bitDepth, filters, 8)
}

// PredictChromaBlock is PredictLumaBlock's chroma counterpart: eighth-pel
// positions and a 4-tap filter, per spec.md section 4.6.
func PredictChromaBlock(ref *Plane, intX, intY, qx, qy int, dst []int32, w, h, bitDepth int) {
	predictBlock(ref, intX, intY, qx, qy, 8, dst, w, h, bitDepth, chromaFiltersSlice(), 4)
}

func chromaFiltersSlice() [][]int32 {
	out := make([][]int32, 8)
	for i := range chromaFilters {
		out[i] = chromaFilters[i][:]
	}
	return out
}

func predictBlock(ref *Plane, intX, intY, qx, qy, phases int, dst []int32, w, h, bitDepth int, filters [][]int32, ntap int) {
	if qx == 0 && qy == 0 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst[y*w+x] = clampedAt(ref, intX+x, intY+y)
			}
		}
		return
	}
	if qy == 0 {
		coeff := filters[qx]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := mcFilterHor(ref, intX+x, intY+y, coeff, ntap)
				dst[y*w+x] = clip3i32((v+32)>>6, 0, int32(1<<uint(bitDepth))-1)
			}
		}
		return
	}
	if qx == 0 {
		coeff := filters[qy]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := mcFilterVer(ref, intX+x, intY+y, coeff, ntap)
				dst[y*w+x] = clip3i32((v+32)>>6, 0, int32(1<<uint(bitDepth))-1)
			}
		}
		return
	}
	// Separable two-pass: horizontal into a 16-bit-range intermediate
	// buffer with a (bitDepth-8) rounding shift, then vertical with the
	// complementary (20-bitDepth) rounding shift, per spec.md section 4.6
	// step 5.
	horShift := uint(bitDepth - 8)
	if bitDepth < 8 {
		horShift = 0
	}
	horRound := int32(0)
	if horShift > 0 {
		horRound = 1 << (horShift - 1)
	}
	half := ntap/2 - 1
	tmpH := h + ntap - 1
	tmp := make([]int32, tmpH*w)
	coeffH := filters[qx]
	for y := 0; y < tmpH; y++ {
		srcY := intY + y - half
		for x := 0; x < w; x++ {
			v := mcFilterHor(ref, intX+x, srcY, coeffH, ntap)
			tmp[y*w+x] = (v + horRound) >> horShift
		}
	}
	verShift := uint(20 - bitDepth)
	verRound := int32(1) << (verShift - 1)
	coeffV := filters[qy]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum int32
			for i := 0; i < ntap; i++ {
				sum += coeffV[i] * tmp[(y+i)*w+x]
			}
			v := (sum + verRound) >> verShift
			dst[y*w+x] = clip3i32(v, 0, int32(1<<uint(bitDepth))-1)
		}
	}
}

// dmhOffsets is the small per-mode (dx, dy) quarter-pel offset table DMH
// mode (0..8) applies to the second hypothesis's MV, per spec.md section
// 4.6: "second MV offset by a DMH table lookup when in DMH mode". Mode 0
// is plain bi-prediction (no offset); modes 1..8 walk the 8 compass
// directions at one quarter-pel step, the conventional DMH search pattern.
var dmhOffsets = [9][2]int{
	{0, 0},
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// DMHOffset returns the (dx, dy) quarter-pel offset for dmhMode.
func DMHOffset(dmhMode int) (dx, dy int) {
	if dmhMode < 0 || dmhMode >= len(dmhOffsets) {
		return 0, 0
	}
	return dmhOffsets[dmhMode][0], dmhOffsets[dmhMode][1]
}

// AverageBiPred averages two same-sized single-hypothesis predictions into
// dst via the selected pixelKernels tier, per spec.md section 4.6 step 6.
func AverageBiPred(k pixelKernels, dst, a, b []int32, n int) {
	k.blockAvg(dst, a, b, n)
}

// RowsNeededForMV returns the reference-plane pixel-y range a motion
// compensation call for a block of height blockH at vertical MV component
// vecY will access, per spec.md section 4.6's synchronization note: "the
// pixel y-range accessed is (vec_y >> 2) + block_h + 8 + 4 rows".
func RowsNeededForMV(vecY, blockH int) int {
	return (vecY >> 2) + blockH + 8 + 4
}
