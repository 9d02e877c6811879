package avs2dec

import "testing"

func TestRegionIndexCornersAreDistinct(t *testing.T) {
	tl := RegionIndex(0, 0, 8, 8)
	tr := RegionIndex(7, 0, 8, 8)
	bl := RegionIndex(0, 7, 8, 8)
	br := RegionIndex(7, 7, 8, 8)
	seen := map[int]bool{tl: true}
	for _, v := range []int{tr, bl, br} {
		if seen[v] {
			t.Fatalf("expected the 4 frame corners to map to distinct region classes, got duplicate %d", v)
		}
		seen[v] = true
	}
	for _, v := range []int{tl, tr, bl, br} {
		if v < 0 || v >= AlfNumRegions {
			t.Fatalf("region index %d out of [0,%d) range", v, AlfNumRegions)
		}
	}
}

func TestMortonInterleaveMasksToTwoBits(t *testing.T) {
	for v := 0; v < 8; v++ {
		got := mortonInterleave(v)
		if want := [4]int{0, 1, 4, 5}[v&3]; got != want {
			t.Fatalf("mortonInterleave(%d) = %d, want %d (low two bits kept, bit 1 spread to bit 2)", v, got, want)
		}
	}
}

func TestApplyALFRowIdentityCoeffPassesThrough(t *testing.T) {
	src := flatPlane(77, 8, 8)
	dst := flatPlane(0, 8, 8)
	var coeff [AlfNumCoeff]int32
	coeff[8] = 1 << alfShift // center-only identity filter
	ApplyALFRow(dst, src, 3, coeff, 8, 0)
	for _, v := range dst.Row(3) {
		if v != 77 {
			t.Fatalf("identity coefficient set must reproduce the input unchanged, got %d want 77", v)
		}
	}
}

func TestApplyALFRowClipsToBitDepthRange(t *testing.T) {
	src := flatPlane(250, 8, 8)
	dst := flatPlane(0, 8, 8)
	var coeff [AlfNumCoeff]int32
	coeff[8] = 2 << alfShift // doubling filter, should overflow and clip
	ApplyALFRow(dst, src, 3, coeff, 8, 0)
	for _, v := range dst.Row(3) {
		if v != 255 {
			t.Fatalf("filtered output must clip to the 8-bit max, got %d want 255", v)
		}
	}
}
