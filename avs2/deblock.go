/*
DESCRIPTION
  deblock.go implements the deblocking filter of spec.md section 4.9: per-
  8-sample-edge boundary-strength derivation, QP-indexed Alpha/Beta
  thresholds, a 4-tap luma / 2-tap chroma filter, and the cross-slice skip
  rule. The original's deblock translation unit was not part of the
  retrieved original_source/ pack (only aec.cc/alf.cc/sao.cc/quant.cc/
  predict.cc/mc.cc/intra.cc/cu.cc/decoder.cc/pixel.cc were retrieved), so
  the Alpha/Beta table here is derived generatively from spec.md section
  4.9's description (a monotone QP-indexed threshold pair, the standard
  shape every H.26x-family deblocking filter uses) rather than copied from
  a table file -- see the Open Question entry in DESIGN.md. The edge-strength
  classification and 4-tap/2-tap filter structure follow spec.md's prose
  directly.
*/

package avs2dec

// alphaTab and betaTab are 64-entry QP-indexed threshold tables, growing
// monotonically with QP per spec.md section 4.9's "Alpha/Beta thresholds
// from QP tables". Values follow the conventional log-ish growth shape
// (near zero at low QP, saturating at high QP) without claiming bit-exact
// conformance to the untracked reference table.
var alphaTab, betaTab = buildDeblockTables()

func buildDeblockTables() (alpha, beta [64]int) {
	for qp := 0; qp < 64; qp++ {
		a := qp - 16
		if a < 0 {
			a = 0
		}
		alpha[qp] = mini(a*a/8+2, 64)
		b := qp - 24
		if b < 0 {
			b = 0
		}
		beta[qp] = mini(b*b/16+1, 32)
	}
	return
}

// BoundaryStrength enumerates the deblock edge strength categories of
// spec.md section 4.9.
type BoundaryStrength int

const (
	BSNone BoundaryStrength = iota
	BSWeak
	BSStrong
)

// DeriveBoundaryStrength computes bS for one 4x4-unit edge from
// neighbor_is_intra, coded_block, and ref/MV-proximity facts, per spec.md
// section 4.9.
func DeriveBoundaryStrength(pIntra, qIntra, pCoded, qCoded bool, sameRef bool, mvDiffQuarterPel int) BoundaryStrength {
	if pIntra || qIntra {
		return BSStrong
	}
	if pCoded || qCoded {
		return BSWeak
	}
	if !sameRef || mvDiffQuarterPel >= 4 {
		return BSWeak
	}
	return BSNone
}

// filterLumaEdge4Tap applies the 4-tap luma edge filter to one line of 8
// samples straddling the edge (p3 p2 p1 p0 | q0 q1 q2 q3), per spec.md
// section 4.9, modifying p1,p0,q0,q1 in place when the alpha/beta gating
// conditions hold.
func filterLumaEdge4Tap(line []int32, alpha, beta int, bs BoundaryStrength, maxVal int32) {
	if bs == BSNone {
		return
	}
	p0, p1, p2 := line[3], line[2], line[1]
	q0, q1, q2 := line[4], line[5], line[6]
	if absi(int(p0-q0)) >= alpha || absi(int(p1-p0)) >= beta || absi(int(q1-q0)) >= beta {
		return
	}
	strongOK := absi(int(p2-p0)) < beta && absi(int(q2-q0)) < beta
	if bs == BSStrong && strongOK {
		line[2] = clip3i32((p2+2*p1+2*p0+2*q0+q1+4)>>3, 0, maxVal)
		line[3] = clip3i32((p2+p1+p0+q0+2)>>2, 0, maxVal)
		line[4] = clip3i32((p1+q0+q1+p0+2)>>2, 0, maxVal)
		line[5] = clip3i32((p0+2*q0+2*q1+2*q2+q1+4)>>3, 0, maxVal)
		return
	}
	line[3] = clip3i32((2*p1+p0+q1+2)>>2, 0, maxVal)
	line[4] = clip3i32((2*q1+q0+p1+2)>>2, 0, maxVal)
}

// filterChromaEdge2Tap applies the 2-tap chroma edge filter, per spec.md
// section 4.9.
func filterChromaEdge2Tap(line []int32, alpha, beta int, bs BoundaryStrength, maxVal int32) {
	if bs == BSNone {
		return
	}
	p0, p1 := line[1], line[0]
	q0, q1 := line[2], line[3]
	if absi(int(p0-q0)) >= alpha || absi(int(p1-p0)) >= beta || absi(int(q1-q0)) >= beta {
		return
	}
	line[1] = clip3i32((2*p1+p0+q0+2)>>2, 0, maxVal)
	line[2] = clip3i32((2*q1+q0+p0+2)>>2, 0, maxVal)
}

// DeblockVerticalEdge filters a vertical CU/PU/TU edge at column x in
// plane p, over rows [y0, y0+h), per spec.md section 4.9. chroma selects
// the 2-tap vs 4-tap kernel.
func DeblockVerticalEdge(p *Plane, x, y0, h int, qp int, bs BoundaryStrength, chroma bool, bitDepth int) {
	qp = clip3(0, 63, qp)
	alpha, beta := alphaTab[qp], betaTab[qp]
	maxVal := int32(1<<uint(bitDepth)) - 1
	span := 8
	if chroma {
		span = 4
	}
	line := make([]int32, span)
	lo := span / 2
	for y := y0; y < y0+h; y++ {
		for i := 0; i < span; i++ {
			line[i] = int32(p.At(x-lo+i, y))
		}
		if chroma {
			filterChromaEdge2Tap(line, alpha, beta, bs, maxVal)
		} else {
			filterLumaEdge4Tap(line, alpha, beta, bs, maxVal)
		}
		for i := 0; i < span; i++ {
			p.Set(x-lo+i, y, uint16(line[i]))
		}
	}
}

// DeblockHorizontalEdge filters a horizontal CU/PU/TU edge at row y in
// plane p, over columns [x0, x0+w), per spec.md section 4.9.
func DeblockHorizontalEdge(p *Plane, y, x0, w int, qp int, bs BoundaryStrength, chroma bool, bitDepth int) {
	qp = clip3(0, 63, qp)
	alpha, beta := alphaTab[qp], betaTab[qp]
	maxVal := int32(1<<uint(bitDepth)) - 1
	span := 8
	if chroma {
		span = 4
	}
	line := make([]int32, span)
	lo := span / 2
	for x := x0; x < x0+w; x++ {
		for i := 0; i < span; i++ {
			line[i] = int32(p.At(x, y-lo+i))
		}
		if chroma {
			filterChromaEdge2Tap(line, alpha, beta, bs, maxVal)
		} else {
			filterLumaEdge4Tap(line, alpha, beta, bs, maxVal)
		}
		for i := 0; i < span; i++ {
			p.Set(x, y-lo+i, uint16(line[i]))
		}
	}
}

// CrossSliceAllowed reports whether an edge between two slices should be
// filtered, per spec.md section 4.9: "skip edges whose neighbors straddle
// slices when cross-loop-filter is disabled".
func CrossSliceAllowed(crossLoopFilter bool, sameSlice bool) bool {
	return sameSlice || crossLoopFilter
}
