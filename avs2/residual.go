/*
DESCRIPTION
  residual.go implements the per-TU residual decode of spec.md section
  4.8: last coefficient-group position, the per-CG significance/position/
  run/level/sign walk, and dct_pattern tracking. It consumes the
  ScanTables of scan.go for CG visiting order and within-CG zig-zag, and
  produces a raster-order coefficient buffer for transform.go's
  Dequant/InverseTransform2D. The run/level binarization (DecodeRunToZero
  for run-length, DecodeRunToZero plus an exp-Golomb bypass tail for
  level) follows spec.md's prose description directly, rather than the
  untracked original's exact per-(cg-index,rank,scan-class) context
  selection -- see the Open Question entry in DESIGN.md.
*/

package avs2dec

// TUInfo is one decoded transform unit: its pixel rectangle (relative to
// the frame), whether it is a luma or chroma block, and its raster-order
// dequantized-and-untransformed coefficient buffer.
type TUInfo struct {
	X, Y, W, H int
	Luma       bool
	Chroma     int // 0 = Cb, 1 = Cr; meaningful only when !Luma
	Coeffs     []int32 // length W*H, raster order, post-dequant pre-transform
	Pattern    DCTPattern
}

// tChr is the threshold table of spec.md section 4.8's run/rank update
// rule: tab_rank lookup keyed by abs_sum_5 against T_Chr = {0,1,2,4,3000}.
// rankFromAbsSum indexes tabRank by the sum capped at 5, so sums 0..2 map
// to ranks 0..2, sums 3 and 4 to rank 3, and any sum above 4 to rank 4.
var tChr = [5]int{0, 1, 2, 4, 3000}
var tabRank = [6]int{0, 1, 2, 3, 3, 4}

func rankFromAbsSum(absSum int) int {
	return tabRank[mini(absSum, len(tabRank)-1)]
}

// readLevel reads one level_minus1 via run-to-zero continuation capped at
// 32 bins, escaping to an exp-Golomb tail (order grows with each zero
// bypass bit) when the capped value is reached, per spec.md section 4.8.
func (p *CUParser) readLevel(ctx *Context) int {
	n := p.AEC.DecodeRunToZero(ctx, 32)
	if n < 32 {
		return n + 1
	}
	order := 0
	for p.AEC.DecodeBypass() == 0 {
		order++
	}
	extra := 0
	if order > 0 {
		extra = p.bypassBits(order)
	}
	return n + 1 + (1<<uint(order) - 1) + extra
}

// readRun reads a run-length via unary-to-zero against the (luma/chroma x
// first-CG/other-CG) context family, per spec.md section 4.8.
func (p *CUParser) readRun(ctx *Context, max int) int {
	return p.AEC.DecodeRunToZero(ctx, max)
}

// readLastCGPos reads (CGx, CGy) via a length-constrained unary scheme,
// per spec.md section 4.8 step 1.
func (p *CUParser) readLastCGPos(cgW, cgH int) (int, int) {
	cgx := p.AEC.DecodeUnaryMax(p.Slice.Contexts.Get(ctxLastCGPos, 0), p.Slice.Contexts.Get(ctxLastCGPos, 1), maxi(cgW-1, 0))
	cgy := p.AEC.DecodeUnaryMax(p.Slice.Contexts.Get(ctxLastCGPos, 2), p.Slice.Contexts.Get(ctxLastCGPos, 3), maxi(cgH-1, 0))
	return cgx, cgy
}

// readLastPosInCG reads the (x, y) position of the last coefficient within
// a significant CG, each axis a 3-bin unary, per spec.md section 4.8 step
// 2.
func (p *CUParser) readLastPosInCG() (int, int) {
	x := p.AEC.DecodeUnaryMax(p.Slice.Contexts.Get(ctxLastPosInCG, 0), p.Slice.Contexts.Get(ctxLastPosInCG, 1), 3)
	y := p.AEC.DecodeUnaryMax(p.Slice.Contexts.Get(ctxLastPosInCG, 2), p.Slice.Contexts.Get(ctxLastPosInCG, 3), 3)
	return x, y
}

// ReadResidualTU decodes one TU's coefficients into raster order (w x h,
// dequantized but not yet inverse-transformed), per spec.md section 4.8.
// isLuma and isFirstCG select the run-length context family.
func (p *CUParser) ReadResidualTU(w, h, qp int, isLuma, isFirstCG bool) TUInfo {
	log2 := log2i(maxi(w, h))
	grid := CGGrid{W: maxi(w/4, 1), H: maxi(h/4, 1)}
	cgOrder := cgScanOrder(grid)

	coeffs := make([]int32, w*h)
	cgx, cgy := p.readLastCGPos(grid.W, grid.H)
	lastCGRaster := cgy*grid.W + cgx

	// Find the visiting-order rank of the last significant CG so the walk
	// proceeds from there down to CG 0, per spec.md's "from last down to
	// first".
	lastRank := 0
	for i, idx := range cgOrder {
		if idx == lastCGRaster {
			lastRank = i
			break
		}
	}

	var recentAbs [6]int
	recentN := 0
	rank := 0
	pattern := DCTQuad

	for r := lastRank; r >= 0; r-- {
		cgRaster := cgOrder[r]
		cgX := (cgRaster % grid.W) * 4
		cgY := (cgRaster / grid.W) * 4

		significant := r == lastRank
		if !significant {
			significant = p.AEC.DecodeBin(p.Slice.Contexts.Get(ctxCoeffRun, 0)) != 0
		}
		if !significant {
			continue
		}
		cp := ClassifyDCTPattern(cgRaster%grid.W, cgRaster/grid.W, grid.W, grid.H)
		if cp < pattern {
			pattern = cp
		}

		lastX, lastY := p.readLastPosInCG()
		startScanIdx := lastY*4 + lastX
		scanPos := 0
		for scanPos < 16 {
			if tabScanCoeffPosInCG[scanPos/4][scanPos%4] == startScanIdx {
				break
			}
			scanPos++
		}
		if scanPos >= 16 {
			scanPos = 15
		}

		for pos := scanPos; pos >= 0; {
			ctxFam := 1
			if isFirstCG {
				ctxFam = 0
			}
			levelCtx := p.Slice.Contexts.Get(ctxCoeffLevel, mini(rank, ctxGroupSize[ctxCoeffLevel]-1))
			level := p.readLevel(levelCtx)

			runCtx := p.Slice.Contexts.Get(ctxCoeffRun, 1+ctxFam*2+boolToInt(isLuma))
			run := p.readRun(runCtx, pos)

			pos -= run
			if pos < 0 {
				break
			}
			within := tabScanCoeffPosInCG[pos/4][pos%4]
			lx, ly := within%4, within/4
			x, y := cgX+lx, cgY+ly
			if x < w && y < h {
				sign := p.AEC.DecodeBypass()
				v := int32(level)
				if sign != 0 {
					v = -v
				}
				coeffs[y*w+x] = v
			}

			recentAbs[recentN%6] = level
			recentN++
			sum := 0
			for i := 0; i < mini(recentN, 6); i++ {
				sum += recentAbs[i]
			}
			rank = rankFromAbsSum(sum)
			pos--
		}
	}

	Dequant(coeffs, qp, log2)
	return TUInfo{W: w, H: h, Luma: isLuma, Coeffs: coeffs, Pattern: pattern}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func log2i(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
