package avs2dec

import "testing"

func TestForwardInverseDCTRoundTrip(t *testing.T) {
	for _, n := range []int{4, 8, 16, 32} {
		src := make([]float64, n)
		for i := range src {
			src[i] = float64((i*37)%23 - 11)
		}
		freq := make([]float64, n)
		ForwardDCT1D(src, freq)
		back := make([]float64, n)
		InverseDCT1D(freq, back)
		for i := range src {
			diff := src[i] - back[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-6 {
				t.Fatalf("size %d: index %d: got %v, want %v (round-trip property, spec.md section 8)", n, i, back[i], src[i])
			}
		}
	}
}

func TestInverseTransform2DFlatDC(t *testing.T) {
	w, h := 4, 4
	coeffs := make([]int32, w*h)
	coeffs[0] = 64 // pure DC
	dst := make([]int32, w*h)
	InverseTransform2D(coeffs, dst, w, h)
	first := dst[0]
	for i, v := range dst {
		if v != first {
			t.Fatalf("index %d: got %d, want uniform DC response %d", i, v, first)
		}
	}
}

func TestDequantMonotonicWithQP(t *testing.T) {
	coeffsLow := []int32{100}
	coeffsHigh := []int32{100}
	Dequant(coeffsLow, 10, 3)
	Dequant(coeffsHigh, 50, 3)
	if coeffsHigh[0] < coeffsLow[0] {
		t.Fatalf("expected higher QP to produce a coarser (larger-magnitude) scale step, got low=%d high=%d", coeffsLow[0], coeffsHigh[0])
	}
}

func TestClassifyDCTPattern(t *testing.T) {
	cases := []struct {
		cgx, cgy, w, h int
		want           DCTPattern
	}{
		{0, 0, 4, 4, DCTQuad},
		{1, 0, 4, 4, DCTHalf},
		{2, 0, 4, 4, DCTDefault},
		{3, 3, 4, 4, DCTDefault},
	}
	for _, c := range cases {
		got := ClassifyDCTPattern(c.cgx, c.cgy, c.w, c.h)
		if got != c.want {
			t.Errorf("ClassifyDCTPattern(%d,%d,%d,%d) = %v, want %v", c.cgx, c.cgy, c.w, c.h, got, c.want)
		}
	}
}

func TestChromaQPSaturatesAtHighQP(t *testing.T) {
	if chromaQP(63) >= 63 {
		t.Fatalf("expected chroma QP to saturate below luma QP at the high end, got %d", chromaQP(63))
	}
	if chromaQP(10) != 10 {
		t.Fatalf("expected chroma QP to track luma QP 1:1 below the remap threshold, got %d", chromaQP(10))
	}
}
