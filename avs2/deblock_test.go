package avs2dec

import "testing"

func TestDeriveBoundaryStrengthIntraIsStrong(t *testing.T) {
	if got := DeriveBoundaryStrength(true, false, false, false, true, 0); got != BSStrong {
		t.Fatalf("an edge touching an intra-coded side must be BSStrong, got %v", got)
	}
}

func TestDeriveBoundaryStrengthCodedResidualIsWeak(t *testing.T) {
	if got := DeriveBoundaryStrength(false, false, true, false, true, 0); got != BSWeak {
		t.Fatalf("an edge touching a coded-residual side must be at least BSWeak, got %v", got)
	}
}

func TestDeriveBoundaryStrengthMatchingMotionIsNone(t *testing.T) {
	if got := DeriveBoundaryStrength(false, false, false, false, true, 0); got != BSNone {
		t.Fatalf("identical motion on both sides with no coded residual must be BSNone, got %v", got)
	}
}

func TestDeblockVerticalEdgeFlatInputIsIdempotent(t *testing.T) {
	p := flatPlane(128, 16, 16)
	before := append([]uint16(nil), p.Samples...)
	DeblockVerticalEdge(p, 8, 0, 16, 40, BSStrong, false, 8)
	for i, v := range p.Samples {
		if v != before[i] {
			t.Fatalf("deblocking a flat region must leave it unchanged, index %d: got %d want %d", i, v, before[i])
		}
	}
}

func TestDeblockHorizontalEdgeFlatInputIsIdempotent(t *testing.T) {
	p := flatPlane(128, 16, 16)
	before := append([]uint16(nil), p.Samples...)
	DeblockHorizontalEdge(p, 8, 0, 16, 40, BSStrong, false, 8)
	for i, v := range p.Samples {
		if v != before[i] {
			t.Fatalf("deblocking a flat region must leave it unchanged, index %d: got %d want %d", i, v, before[i])
		}
	}
}

func TestDeblockChromaEdgeFlatInputIsIdempotent(t *testing.T) {
	p := flatPlane(128, 16, 16)
	before := append([]uint16(nil), p.Samples...)
	DeblockVerticalEdge(p, 8, 0, 16, 40, BSWeak, true, 8)
	for i, v := range p.Samples {
		if v != before[i] {
			t.Fatalf("chroma deblocking a flat region must leave it unchanged, index %d: got %d want %d", i, v, before[i])
		}
	}
}

func TestCrossSliceAllowed(t *testing.T) {
	if !CrossSliceAllowed(false, true) {
		t.Fatalf("filtering within the same slice must always be allowed")
	}
	if CrossSliceAllowed(false, false) {
		t.Fatalf("a cross-slice edge must be skipped when cross-loop-filter is disabled")
	}
	if !CrossSliceAllowed(true, false) {
		t.Fatalf("a cross-slice edge must be filtered when cross-loop-filter is enabled")
	}
}
