/*
DESCRIPTION
  intrapred.go implements the intra predictor of spec.md section 4.5: the
  reference-sample buffer fill strategy, DC/plane/bilinear/horizontal/
  vertical modes, and the 30 angular modes via one generic fractional-angle
  formula rather than the original's 30-odd per-mode unrolled C functions.
  The angle tables (tab_auc_dir_dx/dy, tab_auc_dir_dxdy, g_aucXYflg) are
  copied verbatim from _examples/original_source/source/common/intra.cc;
  the per-pixel formula is grounded on that file's intra_pred_ang_x_c /
  intra_pred_ang_y_c / intra_pred_ang_xy_c (the "BUGFIX_PREDICTION_INTRA"
  branch, the current rather than legacy indexing path), generalized to a
  single parametric loop instead of separate unrolled functions per mode.
*/

package avs2dec

// NumIntraModes is the count of luma intra prediction modes, 0..32, per
// spec.md section 4.5.
const NumIntraModes = 33

const (
	IntraDC       = 0
	IntraPlane    = 1
	IntraBilinear = 2
	// modes 3..32 are angular; IntraHor/IntraVert are specific angular modes
	// with an axis-aligned (non-fractional) slope.
	IntraVert = 12
	IntraHor  = 24
)

// tabXYFlag classifies each mode as x-dominant (0, predominantly
// left-to-right) or y-dominant (1, predominantly top-to-bottom), per
// intra.cc's g_aucXYflg.
var tabXYFlag = [NumIntraModes]int8{
	0, 0, 0, 0, 0,
	0, 0, 0, 0, 0,
	0, 0, 0, 0, 0,
	0, 0, 0, 0, 0,
	0, 0, 0, 0, 0,
	1, 1, 1, 1, 1,
	1, 1, 1,
}

// tabDirDx and tabDirDy are the per-mode integer slope components, per
// intra.cc's tab_auc_dir_dx / tab_auc_dir_dy.
var tabDirDx = [NumIntraModes]int8{
	0, 0, 0, 11, 2,
	11, 1, 8, 1, 4,
	1, 1, 0, 1, 1,
	4, 1, 8, 1, 11,
	2, 11, 4, 8, 0,
	8, 4, 11, 2, 11,
	1, 8, 1,
}

var tabDirDy = [NumIntraModes]int8{
	0, 0, 0, -4, -1,
	-8, -1, -11, -2, -11,
	-4, -8, 0, 8, 4,
	11, 2, 11, 1, 8,
	1, 4, 1, 1, 0,
	-1, -1, -4, -1, -8,
	-1, -11, -2,
}

// tabDirDxDy holds the (imult, ishift) pair used by getContextPixel for
// each (xyflag, mode), per intra.cc's tab_auc_dir_dxdy.
var tabDirDxDy = [2][NumIntraModes][2]int{
	{
		{0, 0}, {0, 0}, {0, 0}, {11, 2}, {2, 0},
		{11, 3}, {1, 0}, {93, 7}, {1, 1}, {93, 8},
		{1, 2}, {1, 3}, {0, 0}, {1, 3}, {1, 2},
		{93, 8}, {1, 1}, {93, 7}, {1, 0}, {11, 3},
		{2, 0}, {11, 2}, {4, 0}, {8, 0}, {0, 0},
		{8, 0}, {4, 0}, {11, 2}, {2, 0}, {11, 3},
		{1, 0}, {93, 7}, {1, 1},
	},
	{
		{0, 0}, {0, 0}, {0, 0}, {93, 8}, {1, 1},
		{93, 7}, {1, 0}, {11, 3}, {2, 0}, {11, 2},
		{4, 0}, {8, 0}, {0, 0}, {8, 0}, {4, 0},
		{11, 2}, {2, 0}, {11, 3}, {1, 0}, {93, 7},
		{1, 1}, {93, 8}, {1, 2}, {1, 3}, {0, 0},
		{1, 3}, {1, 2}, {93, 8}, {1, 1}, {93, 7},
		{1, 0}, {11, 3}, {2, 0},
	},
}

// getContextPixel returns the integer reference index and [0,32) fractional
// offset for one row/column step, per intra.cc's get_context_pixel.
func getContextPixel(mode, xyflag, tempD int) (idx, offset int) {
	imult := tabDirDxDy[xyflag][mode][0]
	ishift := uint(tabDirDxDy[xyflag][mode][1])
	tempDn := (tempD * imult) >> ishift
	offset = ((tempD*imult*32)>>ishift - tempDn*32)
	return tempDn, offset
}

// RefLine is the linear reference-sample buffer of spec.md section 4.5,
// logically indexed with 0 at the top-left corner; BuildReferenceBuffer
// spans -(bsy + 11*bsx/4) through +(bsx + 11*bsy/4).
type RefLine struct {
	buf  []int32
	zero int
}

// At returns the sample at logical index i.
func (r *RefLine) At(i int) int32 { return r.buf[r.zero+i] }

// Set stores v at logical index i.
func (r *RefLine) Set(i int, v int32) { r.buf[r.zero+i] = v }

// NewRefLine allocates a RefLine spanning logical indices [-lo, hi].
func NewRefLine(lo, hi int) *RefLine {
	return &RefLine{buf: make([]int32, lo+hi+1), zero: lo}
}

// BuildReferenceBuffer fills a RefLine for a bsx x bsy block, per spec.md
// section 4.5: missing sides are padded by repeating the nearest valid
// sample; if no neighbor is available at all, every sample is filled with
// 1 << (bitDepth-1); samples extending 11/4 * the other dimension beyond
// the block are padded by replicating the last valid sample, serving the
// steepest angular modes. top and left start at the corner position, as
// predictIntraBlock fills them: top[1..bsx] are the samples above the
// block and left[1..bsy] the samples to its left; index 0 of each is not
// read. topLeft is the corner sample, used when both sides are available.
func BuildReferenceBuffer(topAvail, leftAvail bool, top []int32, topLeft int32, left []int32, bsx, bsy, bitDepth int) *RefLine {
	extraTop := (11 * bsy) / 4
	extraLeft := (11 * bsx) / 4
	hi := bsx + extraTop
	lo := bsy + extraLeft
	r := NewRefLine(lo, hi)

	cornerAvail := topAvail && leftAvail

	if !topAvail && !leftAvail {
		fill := int32(1 << uint(bitDepth-1))
		for i := -lo; i <= hi; i++ {
			r.Set(i, fill)
		}
		return r
	}

	if cornerAvail {
		r.Set(0, topLeft)
	} else if topAvail {
		r.Set(0, top[1])
	} else {
		r.Set(0, left[1])
	}

	if topAvail {
		for i := 1; i <= bsx; i++ {
			r.Set(i, top[i])
		}
		last := top[bsx]
		for i := bsx + 1; i <= hi; i++ {
			r.Set(i, last)
		}
	} else {
		fill := r.At(0)
		for i := 1; i <= hi; i++ {
			r.Set(i, fill)
		}
	}

	if leftAvail {
		for i := 1; i <= bsy; i++ {
			r.Set(-i, left[i])
		}
		last := left[bsy]
		for i := bsy + 1; i <= lo; i++ {
			r.Set(-i, last)
		}
	} else {
		fill := r.At(0)
		for i := 1; i <= lo; i++ {
			r.Set(-i, fill)
		}
	}

	return r
}

// PredictDC fills a bsx x bsy block with the average of available top/left
// samples, per spec.md section 4.5, falling back to the mid-gray value
// when neither side is available.
func PredictDC(ref *RefLine, dst []int32, stride, bsx, bsy int, topAvail, leftAvail bool, bitDepth int) {
	var sum, n int32
	if topAvail {
		for i := 0; i < bsx; i++ {
			sum += ref.At(i + 1)
		}
		n += int32(bsx)
	}
	if leftAvail {
		for i := 0; i < bsy; i++ {
			sum += ref.At(-(i + 1))
		}
		n += int32(bsy)
	}
	var dc int32
	if n == 0 {
		dc = 1 << uint(bitDepth-1)
	} else {
		dc = (sum + n/2) / n
	}
	for y := 0; y < bsy; y++ {
		row := dst[y*stride : y*stride+bsx]
		for x := range row {
			row[x] = dc
		}
	}
}

// PredictHorizontal fills each row with its left reference sample.
func PredictHorizontal(ref *RefLine, dst []int32, stride, bsx, bsy int) {
	for y := 0; y < bsy; y++ {
		v := ref.At(-(y + 1))
		row := dst[y*stride : y*stride+bsx]
		for x := range row {
			row[x] = v
		}
	}
}

// PredictVertical fills each column with its top reference sample.
func PredictVertical(ref *RefLine, dst []int32, stride, bsx, bsy int) {
	for x := 0; x < bsx; x++ {
		v := ref.At(x + 1)
		for y := 0; y < bsy; y++ {
			dst[y*stride+x] = v
		}
	}
}

// PredictBilinear blends the four extrapolated anchors (top-right, bottom-
// left, and the two edges) weighted by distance from each, per spec.md
// section 4.5's "weighted combination of four extrapolated anchors".
func PredictBilinear(ref *RefLine, dst []int32, stride, bsx, bsy int) {
	topRight := ref.At(bsx)
	bottomLeft := ref.At(-bsy)
	for y := 0; y < bsy; y++ {
		left := ref.At(-(y + 1))
		for x := 0; x < bsx; x++ {
			top := ref.At(x + 1)
			a := int32(bsx-1-x)*left + int32(x+1)*topRight
			b := int32(bsy-1-y)*top + int32(y+1)*bottomLeft
			dst[y*stride+x] = (a + b + int32(bsx+bsy)) / int32(2 * (bsx + bsy))
		}
	}
}

// PredictPlane fits an integer plane to the reference samples using 4-tap
// sums of differences, per spec.md section 4.5's "plane (integer-plane fit
// using 4-tap sums of differences, per-size mult/shift)".
func PredictPlane(ref *RefLine, dst []int32, stride, bsx, bsy, bitDepth int) {
	var h, v int32
	for i := 1; i <= bsx/2; i++ {
		h += int32(i) * (ref.At(bsx/2+i) - ref.At(bsx/2-i))
	}
	for i := 1; i <= bsy/2; i++ {
		v += int32(i) * (ref.At(-(bsy/2 + i)) - ref.At(-(bsy/2 - i)))
	}
	a := 16 * (ref.At(-bsy) + ref.At(bsx))
	b := (5*h + int32(bsx/2)) / int32(bsx)
	c := (5*v + int32(bsy/2)) / int32(bsy)
	clipMax := int32(1<<uint(bitDepth)) - 1
	for y := 0; y < bsy; y++ {
		for x := 0; x < bsx; x++ {
			p := (a + b*int32(x-bsx/2+1) + c*int32(y-bsy/2+1) + 16) >> 5
			dst[y*stride+x] = clip3i32(p, 0, clipMax)
		}
	}
}

func clip3i32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PredictAngular fills a bsx x bsy block for one of the 30 angular modes
// (3..32 excluding the axis-aligned IntraHor/IntraVert handled above),
// using the per-mode (dx, dy) slope and the 4-tap fractional filter of
// intra.cc's get_context_pixel/intra_pred_ang_*_c, generalized into one
// parametric loop over the two dominant-axis cases.
func PredictAngular(ref *RefLine, dst []int32, stride, bsx, bsy, mode int) {
	if tabXYFlag[mode] == 0 {
		predictAngularXDominant(ref, dst, stride, bsx, bsy, mode)
		return
	}
	predictAngularYDominant(ref, dst, stride, bsx, bsy, mode)
}

func predictAngularXDominant(ref *RefLine, dst []int32, stride, bsx, bsy, mode int) {
	for j := 0; j < bsy; j++ {
		ix, c4 := getContextPixel(mode, 0, j+1)
		c1, c2, c3 := int32(32-c4), int32(64-c4), int32(32+c4)
		row := dst[j*stride : j*stride+bsx]
		for i := 0; i < bsx; i++ {
			x := ix + i
			row[i] = (ref.At(x)*c1 + ref.At(x+1)*c2 + ref.At(x+2)*c3 + ref.At(x+3)*int32(c4) + 64) >> 7
		}
	}
}

func predictAngularYDominant(ref *RefLine, dst []int32, stride, bsx, bsy, mode int) {
	xsteps := make([]int, bsx)
	offsets := make([]int, bsx)
	for i := 0; i < bsx; i++ {
		xsteps[i], offsets[i] = getContextPixel(mode, 1, i+1)
	}
	for j := 0; j < bsy; j++ {
		row := dst[j*stride : j*stride+bsx]
		for i := 0; i < bsx; i++ {
			iy := j + xsteps[i]
			idx := -iy
			off := int32(offsets[i])
			row[i] = (ref.At(idx)*(32-off) + ref.At(idx-1)*(64-off) + ref.At(idx-2)*(32+off) + ref.At(idx-3)*off + 64) >> 7
		}
	}
}

// ChromaIntraMode enumerates the chroma prediction modes of spec.md
// section 4.5: {DM, DC, HOR, VERT, BI}, where DM inherits a class derived
// from the luma mode table.
type ChromaIntraMode int

const (
	ChromaDM ChromaIntraMode = iota
	ChromaDC
	ChromaHor
	ChromaVert
	ChromaBI
)

// tabIntraModeLumaToChroma maps a luma mode to the DM-inherited chroma
// class, per _examples/original_source/source/common/aec.cc's
// tab_intra_mode_luma2chroma.
var tabIntraModeLumaToChroma = [NumIntraModes]int8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	21, 22, 23, 24, 25, 26, 27, 28, 29, 30,
	31, 32,
}

// ResolveChromaMode resolves ChromaDM to its inherited luma-derived class;
// other chroma modes pass through unchanged.
func ResolveChromaMode(mode ChromaIntraMode, lumaMode int) int {
	if mode == ChromaDM {
		return int(tabIntraModeLumaToChroma[lumaMode])
	}
	switch mode {
	case ChromaDC:
		return IntraDC
	case ChromaHor:
		return IntraHor
	case ChromaVert:
		return IntraVert
	default:
		return IntraBilinear
	}
}
