package avs2dec

import "testing"

func flatRefLine(val int32, bsx, bsy int) *RefLine {
	top := make([]int32, 2*bsx+1)
	left := make([]int32, 2*bsy+1)
	for i := range top {
		top[i] = val
	}
	for i := range left {
		left[i] = val
	}
	return BuildReferenceBuffer(true, true, top, val, left, bsx, bsy, 8)
}

func TestPredictDCFlatInputIsFlat(t *testing.T) {
	ref := flatRefLine(100, 8, 8)
	dst := make([]int32, 64)
	PredictDC(ref, dst, 8, 8, 8, true, true, 8)
	for i, v := range dst {
		if v != 100 {
			t.Fatalf("index %d: got %d, want 100 (flat input must produce flat DC prediction)", i, v)
		}
	}
}

func TestPredictHorizontalCopiesLeftColumn(t *testing.T) {
	top := make([]int32, 9)
	left := []int32{0, 10, 20, 30, 40}
	ref := BuildReferenceBuffer(true, true, top, 0, left, 4, 4, 8)
	dst := make([]int32, 16)
	PredictHorizontal(ref, dst, 4, 4, 4)
	for j := 0; j < 4; j++ {
		want := left[j+1]
		for i := 0; i < 4; i++ {
			if dst[j*4+i] != want {
				t.Fatalf("row %d col %d: got %d, want %d", j, i, dst[j*4+i], want)
			}
		}
	}
}

func TestPredictVerticalCopiesTopRow(t *testing.T) {
	top := []int32{0, 10, 20, 30, 40}
	left := make([]int32, 9)
	ref := BuildReferenceBuffer(true, true, top, 0, left, 4, 4, 8)
	dst := make([]int32, 16)
	PredictVertical(ref, dst, 4, 4, 4)
	for i := 0; i < 4; i++ {
		want := top[i+1]
		for j := 0; j < 4; j++ {
			if dst[j*4+i] != want {
				t.Fatalf("row %d col %d: got %d, want %d", j, i, dst[j*4+i], want)
			}
		}
	}
}

func TestResolveChromaModeDMFallsBackToLuma(t *testing.T) {
	got := ResolveChromaMode(ChromaIntraMode(0), IntraHor)
	if got != IntraHor {
		t.Fatalf("DM chroma mode should resolve to the companion luma mode, got %d want %d", got, IntraHor)
	}
}
