/*
DESCRIPTION
  sao.go implements sample-adaptive offset of spec.md section 4.10: per-CTU
  merge/mode decode, band-offset and the 4 edge-offset classifiers, and
  pixel application with clipping. The edge-offset class count (5, with the
  "plain" class always carrying a zero offset) and the offset sign
  convention (valleys positive, peaks negative) are grounded on
  _examples/original_source/source/common/sao.cc's saoclip table and its
  SAO_CLASS_EO_FULL_VALLEY/HALF_VALLEY/PLAIN/HALF_PEAK/FULL_PEAK ordering.
*/

package avs2dec

// SAOMode enumerates a CTU-component's SAO type, per spec.md section 4.10.
type SAOMode int

const (
	SAOOff SAOMode = iota
	SAOBandOffset
	SAOEdgeOffset
)

// SAOEdgeClass enumerates the 4 edge-orientation classes SAO reads a
// typeIdc for, per spec.md section 4.10.
type SAOEdgeClass int

const (
	SAOEdge0   SAOEdgeClass = iota // horizontal
	SAOEdge45                     // 45-degree diagonal
	SAOEdge90                     // vertical
	SAOEdge135                    // 135-degree diagonal
)

// The 5 edge-offset classes a pixel is binned into, per sao.cc's
// SAO_CLASS_EO_* ordering: full valley, half valley, plain (no offset),
// half peak, full peak.
const (
	eoFullValley = iota
	eoHalfValley
	eoPlain
	eoHalfPeak
	eoFullPeak
	numEOClasses
)

const numBOBands = 32

// SAOParams holds one CTU-component's decoded SAO parameters, per spec.md
// section 4.10.
type SAOParams struct {
	Mode       SAOMode
	MergeLeft  bool
	MergeUp    bool
	Edge       SAOEdgeClass
	Offsets    [numEOClasses]int32 // used when Mode == SAOEdgeOffset
	BandStart  [2]int              // used when Mode == SAOBandOffset
	BandOffset [2][2]int32         // [band][0..1 consecutive band index] offsets
}

// ReadSAOMergeFlags reads the left/up merge flags (1 bin each) when the
// respective neighbor CTU is available, per spec.md section 4.10.
func ReadSAOMergeFlags(aec *AEC, cs *ContextSet, leftAvail, upAvail bool) (mergeLeft, mergeUp bool) {
	if leftAvail {
		mergeLeft = aec.DecodeBin(cs.Get(ctxSAOMergeFlag, 0)) != 0
	}
	if !mergeLeft && upAvail {
		mergeUp = aec.DecodeBin(cs.Get(ctxSAOMergeFlag, 1)) != 0
	}
	return
}

// readSAOOffsetMagnitude reads one offset magnitude via run-to-zero unary
// coding capped at 7, the conventional SAO offset binarization.
func readSAOOffsetMagnitude(aec *AEC, ctx *Context) int32 {
	return int32(aec.DecodeRunToZero(ctx, 7))
}

// ReadSAOParams reads one component's full SAO parameter set (mode, then
// type-specific offsets), per spec.md section 4.10. It assumes the merge
// flags have already been read and were both false (ReadSAOMergeFlags).
func ReadSAOParams(aec *AEC, cs *ContextSet) SAOParams {
	var p SAOParams
	if aec.DecodeBin(cs.Get(ctxSAOMode, 0)) == 0 {
		p.Mode = SAOOff
		return p
	}
	if aec.DecodeBin(cs.Get(ctxSAOMode, 1)) == 0 {
		p.Mode = SAOBandOffset
		p.BandStart[0] = int(aec.DecodeUnaryMax(cs.Get(ctxSAOOffset, 0), cs.Get(ctxSAOOffset, 1), numBOBands-1))
		p.BandStart[1] = int(aec.DecodeUnaryMax(cs.Get(ctxSAOOffset, 0), cs.Get(ctxSAOOffset, 1), numBOBands-1))
		for band := 0; band < 2; band++ {
			for k := 0; k < 2; k++ {
				mag := readSAOOffsetMagnitude(aec, cs.Get(ctxSAOOffset, 2+band*2+k))
				sign := aec.DecodeBypass()
				if sign != 0 {
					mag = -mag
				}
				p.BandOffset[band][k] = mag
			}
		}
		return p
	}
	p.Mode = SAOEdgeOffset
	p.Edge = SAOEdgeClass(aec.DecodeBin(cs.Get(ctxSAOOffset, 6))<<1 | aec.DecodeBin(cs.Get(ctxSAOOffset, 7)))
	p.Offsets[eoFullValley] = readSAOOffsetMagnitude(aec, cs.Get(ctxSAOOffset, 2))   // valley: positive
	p.Offsets[eoHalfValley] = readSAOOffsetMagnitude(aec, cs.Get(ctxSAOOffset, 3))   // valley: positive
	p.Offsets[eoPlain] = 0
	p.Offsets[eoHalfPeak] = -readSAOOffsetMagnitude(aec, cs.Get(ctxSAOOffset, 4)) // peak: negative
	p.Offsets[eoFullPeak] = -readSAOOffsetMagnitude(aec, cs.Get(ctxSAOOffset, 5)) // peak: negative
	return p
}

// edgeOffsets returns the (dx1,dy1)/(dx2,dy2) neighbor offsets for an edge
// class, per spec.md section 4.10's 4-orientation classifier.
func edgeOffsets(e SAOEdgeClass) (dx1, dy1, dx2, dy2 int) {
	switch e {
	case SAOEdge0:
		return -1, 0, 1, 0
	case SAOEdge90:
		return 0, -1, 0, 1
	case SAOEdge45:
		return -1, 1, 1, -1
	default: // SAOEdge135
		return -1, -1, 1, 1
	}
}

// classifyEdge bins a center sample against its two edge-orientation
// neighbors into one of the 5 EO classes, per spec.md section 4.10.
func classifyEdge(center, n1, n2 int32) int {
	sign1, sign2 := 0, 0
	switch {
	case center > n1:
		sign1 = 1
	case center < n1:
		sign1 = -1
	}
	switch {
	case center > n2:
		sign2 = 1
	case center < n2:
		sign2 = -1
	}
	edgeIdx := sign1 + sign2
	switch edgeIdx {
	case -2:
		return eoFullValley
	case -1:
		return eoHalfValley
	case 0:
		return eoPlain
	case 1:
		return eoHalfPeak
	default:
		return eoFullPeak
	}
}

// ApplySAO runs SAO over the w x h region of p at (x0, y0), per spec.md
// section 4.10: classify every pixel into a band (BO) or edge type (EO)
// and add the corresponding offset, clipped into range. Pixels whose
// classifier neighbor lies outside [x0-1, x0+w] x [y0-1, y0+h] (i.e. at
// the CTU boundary, per the deblock/SAO staging) are left unmodified by
// the caller passing inBounds=false for that pixel via the edge of the
// region; here every access is simply clamped.
func ApplySAO(p *Plane, x0, y0, w, h int, params SAOParams, bitDepth int) {
	if params.Mode == SAOOff {
		return
	}
	maxVal := int32(1<<uint(bitDepth)) - 1
	if params.Mode == SAOBandOffset {
		shift := uint(bitDepth) - 5
		for y := y0; y < y0+h; y++ {
			for x := x0; x < x0+w; x++ {
				v := int32(p.At(x, y))
				band := int(v >> shift)
				var off int32
				for i := 0; i < 2; i++ {
					if band == params.BandStart[i] || band == (params.BandStart[i]+1)%numBOBands {
						k := 0
						if band != params.BandStart[i] {
							k = 1
						}
						off = params.BandOffset[i][k]
					}
				}
				p.Set(x, y, uint16(clip3i32(v+off, 0, maxVal)))
			}
		}
		return
	}
	dx1, dy1, dx2, dy2 := edgeOffsets(params.Edge)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			center := int32(p.At(x, y))
			n1 := clampedAt(p, x+dx1, y+dy1)
			n2 := clampedAt(p, x+dx2, y+dy2)
			cls := classifyEdge(center, n1, n2)
			v := center + params.Offsets[cls]
			p.Set(x, y, uint16(clip3i32(v, 0, maxVal)))
		}
	}
}
