package avs2dec

import "testing"

func TestPredictMVSingleValid(t *testing.T) {
	l := SpatialCandidate{MV: MV{X: 4, Y: -2}, RefIdx: 0, Present: true}
	u := SpatialCandidate{RefIdx: -1, Present: true}
	ur := SpatialCandidate{Present: false}

	got := PredictMV(l, u, ur, 0, PUFull)
	if got != (MV{X: 4, Y: -2}) {
		t.Fatalf("got %+v, want the single valid candidate", got)
	}
}

func TestPredictMVMatchesTargetRef(t *testing.T) {
	l := SpatialCandidate{MV: MV{X: 1, Y: 1}, RefIdx: 1, Present: true}
	u := SpatialCandidate{MV: MV{X: 2, Y: 2}, RefIdx: 0, Present: true}
	ur := SpatialCandidate{MV: MV{X: 3, Y: 3}, RefIdx: 0, Present: true}

	got := PredictMV(l, u, ur, 0, PUFull)
	if got != (MV{X: 2, Y: 2}) {
		t.Fatalf("got %+v, want the U candidate (first ref match)", got)
	}
}

func TestPredictMVMedianFallback(t *testing.T) {
	l := SpatialCandidate{MV: MV{X: 10, Y: 0}, RefIdx: 5, Present: true}
	u := SpatialCandidate{MV: MV{X: 20, Y: 0}, RefIdx: 5, Present: true}
	ur := SpatialCandidate{MV: MV{X: 30, Y: 0}, RefIdx: 5, Present: true}

	got := PredictMV(l, u, ur, 9, PUFull)
	if got.X != 20 {
		t.Fatalf("got X=%d, want median 20", got.X)
	}
}

func TestScaleMVDefaultIdentityAtEqualDistance(t *testing.T) {
	scale := DistScale(4)
	got := ScaleMVDefault(8, 4, scale)
	if got != 8 {
		t.Fatalf("got %d, want 8 (identity scale)", got)
	}
}

func TestScaleMVDefaultNegative(t *testing.T) {
	scale := DistScale(4)
	got := ScaleMVDefault(-8, 4, scale)
	if got != -8 {
		t.Fatalf("got %d, want -8", got)
	}
}

func TestScaleMVDefaultClips(t *testing.T) {
	got := ScaleMVDefault(32767, 1<<mvScaleOffset, 1<<mvScaleOffset)
	if got != 32767 {
		t.Fatalf("got %d, want clip to 32767", got)
	}
}

func TestApplyPMVRWithinWindow(t *testing.T) {
	got := ApplyPMVR(true, 5, 100)
	if got != 105 {
		t.Fatalf("got %d, want 105 (no wrap needed)", got)
	}
}

func TestApplyPMVRWrapsPositive(t *testing.T) {
	got := ApplyPMVR(true, pmvrThreshold+1, 100)
	want := int16(100 + (pmvrThreshold + 1) - 2*pmvrThreshold)
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestApplyPMVRDisabled(t *testing.T) {
	got := ApplyPMVR(false, pmvrThreshold+50, 100)
	if got != 100+pmvrThreshold+50 {
		t.Fatalf("got %d, want unwrapped sum", got)
	}
}

func TestDeriveBDirectSpatialSynthesizesSYM(t *testing.T) {
	var cands [6]SpatialCandidate
	cands[0] = SpatialCandidate{MV: MV{X: 7, Y: 7}, RefIdx: 1, Present: true} // bwdRef
	got := DeriveBDirectSpatial(cands, 0, 1)
	if got.HasSYM {
		t.Fatal("expected no direct SYM candidate in this fixture")
	}
	if got.SYMDerived != (MV{X: 7, Y: 7}) {
		t.Fatalf("got %+v, want synthesized from first BWD", got.SYMDerived)
	}
}

func TestDerivePFSkipSpatialFillsSlots(t *testing.T) {
	var cands [6]SpatialCandidate
	cands[0] = SpatialCandidate{MV: MV{X: 1, Y: 1}, RefIdx: 0, Present: true}
	cands[1] = SpatialCandidate{MV: MV{X: 2, Y: 2}, RefIdx: 1, Present: true}

	got := DerivePFSkipSpatial(cands, 0, 1)
	if got.Single1st != (MV{X: 1, Y: 1}) || got.Single2nd != (MV{X: 2, Y: 2}) {
		t.Fatalf("got %+v", got)
	}
}

func TestDerivePFSkipTemporalWeightedSkip(t *testing.T) {
	colMV := MV{X: 10, Y: -10}
	first, second, has := DerivePFSkipTemporal(colMV, 4, 4, true)
	if !has {
		t.Fatal("expected a second reference under weighted skip")
	}
	if second.X != -first.X || second.Y != -first.Y {
		t.Fatalf("got second=%+v, want negation of first=%+v", second, first)
	}
}

func TestDerivePFSkipTemporalNoWeightedSkip(t *testing.T) {
	colMV := MV{X: 10, Y: -10}
	_, _, has := DerivePFSkipTemporal(colMV, 4, 4, false)
	if has {
		t.Fatal("expected no second reference without weighted skip")
	}
}
