package avs2dec

import "testing"

func rectArea(r [4]int) int { return r[2] * r[3] }

func TestPuRectsTileCUExactly(t *testing.T) {
	types := []CUType{
		CU2Nx2N, CUIntra2Nx2N, CUIntraNxN, CU2NxN, CUNx2N,
		CU2NxnU, CU2NxnD, CUnLx2N, CUnRx2N, CUIntra2NxnU, CUIntranLx2N,
	}
	for _, typ := range types {
		rects := puRects(typ, 32)
		total := 0
		for _, r := range rects {
			if r[2] <= 0 || r[3] <= 0 {
				t.Fatalf("type %v: degenerate PU rect %+v", typ, r)
			}
			total += rectArea(r)
		}
		if total != 32*32 {
			t.Fatalf("type %v: PU rects sum to area %d, want %d (must tile the CU exactly)", typ, total, 32*32)
		}
	}
}

func TestCUTypeIsIntra(t *testing.T) {
	intraTypes := []CUType{CUIntra2Nx2N, CUIntraNxN, CUIntra2NxnU, CUIntranLx2N}
	for _, typ := range intraTypes {
		if !typ.IsIntra() {
			t.Errorf("%v should be classified as intra", typ)
		}
	}
	interTypes := []CUType{CUSkip, CU2Nx2N, CU2NxN, CUNx2N, CU2NxnU}
	for _, typ := range interTypes {
		if typ.IsIntra() {
			t.Errorf("%v should not be classified as intra", typ)
		}
	}
}

func TestCUTypeIsAMP(t *testing.T) {
	ampTypes := []CUType{CU2NxnU, CU2NxnD, CUnLx2N, CUnRx2N}
	for _, typ := range ampTypes {
		if !typ.IsAMP() {
			t.Errorf("%v should be classified as AMP", typ)
		}
	}
	if CU2Nx2N.IsAMP() {
		t.Errorf("CU2Nx2N should not be classified as AMP")
	}
}

func TestCUCodedBlockBitmask(t *testing.T) {
	cu := CU{CBP: 0b010101}
	if !cu.CodedBlock(0) || cu.CodedBlock(1) || !cu.CodedBlock(2) {
		t.Fatalf("CodedBlock bit readout mismatched the CBP bitmask 0b010101")
	}
}

func TestCUSize(t *testing.T) {
	cu := CU{Log2Size: 5}
	if got := cu.Size(); got != 32 {
		t.Fatalf("Log2Size 5 should give Size() 32, got %d", got)
	}
}
