/*
DESCRIPTION
  mvpred.go implements the motion-vector predictor of spec.md section 4.4:
  spatial-candidate selection and median derivation, reference-distance
  scaling (including the field-coding vertical delta corrections), the
  PMVR search-window wrap, and the B-Direct/P-F-skip spatial and temporal
  derivation rules. Constants mvScaleOffset/mvScaleHalf are grounded on
  _examples/original_source/source/common/predict.h's scale_mv_default /
  scale_mv_skip / scale_mv_biskip (OFFSET, HALF_MULTI) and getDeltas.
*/

package avs2dec

// mvScaleOffset and mvScaleHalf are the fixed-point scale used for
// reference-distance MV rescaling (predict.h's OFFSET / HALF_MULTI); the
// distance operands passed in are expected to already carry a reciprocal
// scale (distScale), matching dist_scale_refs in the original.
const (
	mvScaleOffset = 14
	mvScaleHalf   = 1 << (mvScaleOffset - 1)
)

// DistScale returns the fixed-point reciprocal scale factor for a
// reference distance, precomputed once per reference list entry the way
// the original precomputes dist_scale_refs.
func DistScale(dist int) int {
	if dist == 0 {
		return 0
	}
	return (1 << mvScaleOffset) / dist
}

func clipMV16(v int) int16 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}
	return int16(v)
}

func sign3(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

// ScaleMVDefault scales mv for normal (MVP+MVD) inter prediction, per
// predict.h's scale_mv_default.
func ScaleMVDefault(mv int, distDst, distSrcScale int) int16 {
	v := sign3(mv) * ((absi(mv)*distDst*distSrcScale + mvScaleHalf) >> mvScaleOffset)
	return clipMV16(v)
}

// ScaleMVSkip scales mv for skip/direct prediction, per predict.h's
// scale_mv_skip.
func ScaleMVSkip(mv int, distDst, distSrcScale int) int16 {
	v := (mv*distDst*distSrcScale + mvScaleHalf) >> mvScaleOffset
	return clipMV16(v)
}

// ScaleMVBiSkip scales mv for bi-directional skip/direct prediction, per
// predict.h's scale_mv_biskip.
func ScaleMVBiSkip(mv int, distDst, distSrcScale int) int16 {
	v := sign3(mv) * ((distSrcScale*(1+absi(mv)*distDst) - 1) >> mvScaleOffset)
	return clipMV16(v)
}

// FieldDeltas computes the vertical-offset parity corrections delta/delta2
// for field-coded sequences, per predict.h's getDeltas: the y-component
// receives delta before scaling and delta2 is subtracted after.
func FieldDeltas(topField bool, oriPOC, oriRefPOC, scaledPOC, scaledRefPOC int) (delta, delta2 int) {
	idx := func(p int) int { return ((p + 512) & 511) / 2 }
	oriPOC, oriRefPOC, scaledPOC, scaledRefPOC = idx(oriPOC), idx(oriRefPOC), idx(scaledPOC), idx(scaledRefPOC)

	if topField {
		if scaledRefPOC%2 != scaledPOC%2 {
			delta2 = 2
		}
		if scaledPOC%2 == oriPOC%2 {
			if oriRefPOC%2 != oriPOC%2 {
				delta = 2
			}
		} else if oriRefPOC%2 != oriPOC%2 {
			delta = -2
		}
		return
	}
	if scaledRefPOC%2 != scaledPOC%2 {
		delta2 = -2
	}
	if scaledPOC%2 == oriPOC%2 {
		if oriRefPOC%2 != oriPOC%2 {
			delta = -2
		}
	} else if oriRefPOC%2 != oriPOC%2 {
		delta = 2
	}
	return
}

// PUType enumerates the PU geometries MV prediction candidate preference
// depends on, per spec.md section 4.4's "by PU type (full, upper half,
// lower half, left half, right half)".
type PUType int

const (
	PUFull PUType = iota
	PUUpperHalf
	PULowerHalf
	PULeftHalf
	PURightHalf
)

// SpatialCandidate is one of the three MV-predictor inputs (L, U, UR), per
// spec.md section 4.4's prediction-type selection.
type SpatialCandidate struct {
	MV      MV
	RefIdx  int8 // -1 if unavailable/invalid
	Present bool
}

// PredictMV derives the MV predictor from the three spatial candidates
// against target reference r, per spec.md section 4.4:
//   - if exactly one of L/U/UR has a valid ref, take its MV;
//   - otherwise prefer a candidate whose ref matches r, keyed by PU type;
//   - otherwise the component-wise median of L, U, UR.
func PredictMV(l, u, ur SpatialCandidate, r int8, pu PUType) MV {
	valid := func(c SpatialCandidate) bool { return c.Present && c.RefIdx >= 0 }

	nValid := 0
	var only MV
	if valid(l) {
		nValid++
		only = l.MV
	}
	if valid(u) {
		nValid++
		only = u.MV
	}
	if valid(ur) {
		nValid++
		only = ur.MV
	}
	if nValid == 1 {
		return only
	}

	// PU-type-driven preference for a candidate matching the target ref.
	matches := func(c SpatialCandidate) bool { return valid(c) && c.RefIdx == r }
	switch pu {
	case PUUpperHalf, PULeftHalf:
		if matches(l) {
			return l.MV
		}
		if matches(u) {
			return u.MV
		}
	case PULowerHalf, PURightHalf:
		if matches(ur) {
			return ur.MV
		}
		if matches(u) {
			return u.MV
		}
	}
	if matches(l) {
		return l.MV
	}
	if matches(u) {
		return u.MV
	}
	if matches(ur) {
		return ur.MV
	}

	// Default: component-wise median, substituting zero for unavailable
	// candidates (the standard triangle-inequality-safe fallback: median of
	// three values is insensitive to which is the outlier).
	mvOf := func(c SpatialCandidate) MV {
		if c.Present {
			return c.MV
		}
		return MV{}
	}
	lm, um, urm := mvOf(l), mvOf(u), mvOf(ur)
	return MV{X: median3(lm.X, um.X, urm.X), Y: median3(lm.Y, um.Y, urm.Y)}
}

func median3(a, b, c int16) int16 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		b = a
	}
	return b
}

// pmvrThreshold is the integer-sample search-window half-width spec.md
// section 4.4's PMVR constraint wraps around.
const pmvrThreshold = 3 * 4 // 3 integer samples, in quarter-pel units

// ApplyPMVR wraps a reconstructed MV component back inside the PMVR search
// window when the decoded MVD exceeds the threshold relative to the
// centered predictor, per spec.md section 4.4.
func ApplyPMVR(enabled bool, mvd, predicted int16) int16 {
	if !enabled {
		return predicted + mvd
	}
	if mvd > pmvrThreshold {
		return predicted + mvd - 2*pmvrThreshold
	}
	if mvd < -pmvrThreshold {
		return predicted + mvd + 2*pmvrThreshold
	}
	return predicted + mvd
}

// BDirectSlots holds the five MV/ref slots of spec.md section 4.4's
// B-Direct spatial derivation: {BID, SYM, BWD, FWD, SYM-derived}.
// DeriveBDirectSpatial fills SYM, BWD, FWD and SYMDerived; BID is left
// at its zero value.
type BDirectSlots struct {
	BID, SYM, BWD, FWD, SYMDerived MV
	HasSYM                         bool
}

// DeriveBDirectSpatial fills BDirectSlots from the six spatial candidates,
// per spec.md section 4.4: if no SYM candidate is found, synthesize one
// from the first available BWD/FWD candidate.
func DeriveBDirectSpatial(cands [6]SpatialCandidate, fwdRef, bwdRef int8) BDirectSlots {
	var s BDirectSlots
	var firstBWD, firstFWD MV
	haveBWD, haveFWD := false, false

	for _, c := range cands {
		if !c.Present || c.RefIdx < 0 {
			continue
		}
		switch c.RefIdx {
		case bwdRef:
			if !haveBWD {
				firstBWD, haveBWD = c.MV, true
			}
			s.BWD = c.MV
		case fwdRef:
			if !haveFWD {
				firstFWD, haveFWD = c.MV, true
			}
			s.FWD = c.MV
		}
	}

	for _, c := range cands {
		if c.Present && c.RefIdx == fwdRef && haveBWD {
			s.SYM = c.MV
			s.HasSYM = true
			break
		}
	}
	if !s.HasSYM {
		switch {
		case haveBWD:
			s.SYMDerived = firstBWD
		case haveFWD:
			s.SYMDerived = firstFWD
		}
	}
	return s
}

// DeriveBDirectTemporal scales the col-located 4x4 MV from reference frame
// 0 by the current-to-backward / col-ref distance ratios, per spec.md
// section 4.4's B-Direct temporal rule.
func DeriveBDirectTemporal(colMV MV, distCurToBwd, distColRef int) (fwd, bwd MV) {
	scale := DistScale(distColRef)
	fwd = MV{
		X: ScaleMVSkip(int(colMV.X), distCurToBwd, scale),
		Y: ScaleMVSkip(int(colMV.Y), distCurToBwd, scale),
	}
	bwd = MV{
		X: int16(int(fwd.X) - int(colMV.X)),
		Y: int16(int(fwd.Y) - int(colMV.Y)),
	}
	return
}

// PFSkipSlots holds the four populated MV slots of spec.md section 4.4's
// P/F skip spatial derivation: {DUAL_1ST, DUAL_2ND, SINGLE_1ST, SINGLE_2ND}.
type PFSkipSlots struct {
	Dual1st, Dual2nd, Single1st, Single2nd MV
}

// DerivePFSkipSpatial fills PFSkipSlots from the available spatial
// candidates against the two target reference indices, per spec.md section
// 4.4's P/F skip spatial rule.
func DerivePFSkipSpatial(cands [6]SpatialCandidate, ref1st, ref2nd int8) PFSkipSlots {
	var s PFSkipSlots
	for _, c := range cands {
		if !c.Present || c.RefIdx < 0 {
			continue
		}
		if c.RefIdx == ref1st {
			s.Single1st = c.MV
			s.Dual1st = c.MV
		}
		if c.RefIdx == ref2nd {
			s.Single2nd = c.MV
			s.Dual2nd = c.MV
		}
	}
	return s
}

// DerivePFSkipTemporal scales the col-located MV for P/F skip temporal
// prediction, optionally deriving a second reference when weightedSkip is
// enabled, per spec.md section 4.4.
func DerivePFSkipTemporal(colMV MV, distDst, distSrc int, weightedSkip bool) (first, second MV, hasSecond bool) {
	scale := DistScale(distSrc)
	first = MV{
		X: ScaleMVSkip(int(colMV.X), distDst, scale),
		Y: ScaleMVSkip(int(colMV.Y), distDst, scale),
	}
	if !weightedSkip {
		return first, MV{}, false
	}
	second = MV{X: -first.X, Y: -first.Y}
	return first, second, true
}
