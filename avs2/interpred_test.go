package avs2dec

import "testing"

func flatPlane(val uint16, w, h int) *Plane {
	p := NewPlane(w, h)
	for i := range p.Samples {
		p.Samples[i] = val
	}
	return &p
}

func TestPredictLumaBlockFullPelFlatInput(t *testing.T) {
	ref := flatPlane(128, 16, 16)
	dst := make([]int32, 16)
	PredictLumaBlock(ref, 2, 2, 0, 0, dst, 4, 4, 8)
	for i, v := range dst {
		if v != 128 {
			t.Fatalf("index %d: got %d, want 128 (full-pel flat input must pass through unchanged)", i, v)
		}
	}
}

func TestPredictLumaBlockHalfPelFlatInput(t *testing.T) {
	ref := flatPlane(64, 16, 16)
	dst := make([]int32, 16)
	PredictLumaBlock(ref, 2, 2, 2, 2, dst, 4, 4, 8)
	for i, v := range dst {
		if v != 64 {
			t.Fatalf("index %d: got %d, want 64 (8-tap filter on flat input must reproduce the constant)", i, v)
		}
	}
}

func TestPredictChromaBlockFlatInput(t *testing.T) {
	ref := flatPlane(200, 16, 16)
	dst := make([]int32, 16)
	PredictChromaBlock(ref, 2, 2, 4, 4, dst, 4, 4, 8)
	for i, v := range dst {
		if v != 200 {
			t.Fatalf("index %d: got %d, want 200 (4-tap chroma filter on flat input must reproduce the constant)", i, v)
		}
	}
}

func TestAverageBiPredAveragesOperands(t *testing.T) {
	k := selectPixelKernels()
	a := []int32{10, 20, 30, 40}
	b := []int32{30, 40, 50, 60}
	dst := make([]int32, 4)
	AverageBiPred(k, dst, a, b, 4)
	want := []int32{20, 30, 40, 50}
	for i := range dst {
		if dst[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestDMHOffsetZeroForModeZero(t *testing.T) {
	dx, dy := DMHOffset(0)
	if dx != 0 || dy != 0 {
		t.Fatalf("DMH mode 0 should be the zero offset, got (%d,%d)", dx, dy)
	}
}

func TestRowsNeededForMVScalesWithVector(t *testing.T) {
	small := RowsNeededForMV(4, 64)
	large := RowsNeededForMV(64, 64)
	if large < small {
		t.Fatalf("a larger vertical MV component should never need fewer lookahead rows: small=%d large=%d", small, large)
	}
}
