/*
DESCRIPTION
  alf.go implements the adaptive loop filter of spec.md section 4.11:
  per-CTU per-component enable flags, a region-index lookup that buckets
  each LCU into one of 16 region classes, and the symmetric 9-coefficient
  diamond filter. The filter tap layout (coeff[0..8] against a vertical arm
  at +-1/+-2/+-3, a horizontal arm at +-1/+-2/+-3, two diagonal taps, and a
  center tap) is copied directly from
  _examples/original_source/source/common/alf.cc's alf_one_lcu_row
  row-application kernel (the p_src1..p_src6 row pointers at offsets
  -1,+1,-2,+2,-3,+3 and the x+-1 diagonal/horizontal accesses).
*/

package avs2dec

// AlfNumCoeff is the number of distinct coefficients in the symmetric
// diamond filter, per spec.md section 4.11 ("center coefficient, plus 4
// vertical reflection pairs, plus 4 cross-shaped pairs").
const AlfNumCoeff = 9

// AlfNumRegions is the number of luma region classes ALF coefficients are
// grouped by, per spec.md section 4.11's "4x4 quad partition ... z-order-
// like mapping of 16 regions".
const AlfNumRegions = 16

const (
	alfShift = 7
	alfRound = 1 << (alfShift - 1)
)

// RegionIndex maps an LCU at (lcuX, lcuY) in a frame of widthInLCU x
// heightInLCU LCUs to one of the 16 region classes, per spec.md section
// 4.11: a 4x4 quadrant partition of the frame, Morton (z-order) numbered.
func RegionIndex(lcuX, lcuY, widthInLCU, heightInLCU int) int {
	qx := lcuX * 4 / maxi(widthInLCU, 1)
	qy := lcuY * 4 / maxi(heightInLCU, 1)
	if qx > 3 {
		qx = 3
	}
	if qy > 3 {
		qy = 3
	}
	return mortonInterleave(qx) | (mortonInterleave(qy) << 1)
}

// mortonInterleave spreads the low 2 bits of v apart by one bit, the
// building block of a 2-bit-per-axis Morton (z-order) index.
func mortonInterleave(v int) int {
	v &= 3
	return (v & 1) | ((v & 2) << 1)
}

// ReadALFEnableFlags reads the 3 per-component (Y, U, V) enable bins, each
// against its own context, per spec.md section 4.11.
func ReadALFEnableFlags(aec *AEC, cs *ContextSet) [3]bool {
	var en [3]bool
	for i := 0; i < 3; i++ {
		en[i] = aec.DecodeBin(cs.Get(ctxALFEnable, i)) != 0
	}
	return en
}

// alfRow returns row y of p clamped to [0, height), matching the "sample
// replication beyond the picture boundary" extension every in-loop filter
// in this pipeline uses.
func alfRow(p *Plane, y int) []uint16 {
	if y < 0 {
		y = 0
	} else if y >= p.Height {
		y = p.Height - 1
	}
	return p.Row(y)
}

func alfAt(row []uint16, x int) int32 {
	if x < 0 {
		x = 0
	} else if x >= len(row) {
		x = len(row) - 1
	}
	return int32(row[x])
}

// ApplyALFRow filters luma/chroma row y of src into dst using the 9
// coefficients of one region class, per spec.md section 4.11. virtualShift
// rows the filter 4 lines below the deblock output at the CTU's top/bottom
// boundary (the "virtual boundary" of spec.md section 4.11); pass 0 away
// from a CTU boundary.
func ApplyALFRow(dst *Plane, src *Plane, y int, coeff [AlfNumCoeff]int32, bitDepth int, virtualShift int) {
	maxVal := int32(1<<uint(bitDepth)) - 1
	y += virtualShift
	r1, r2 := alfRow(src, y-1), alfRow(src, y+1)
	r3, r4 := alfRow(src, y-2), alfRow(src, y+2)
	r5, r6 := alfRow(src, y-3), alfRow(src, y+3)
	rc := alfRow(src, y)
	width := src.Width
	out := dst.Row(clip3(0, dst.Height-1, y))
	for x := 0; x < width; x++ {
		sum := coeff[0]*(alfAt(r5, x)+alfAt(r6, x)) +
			coeff[1]*(alfAt(r3, x)+alfAt(r4, x)) +
			coeff[2]*(alfAt(r1, x+1)+alfAt(r2, x-1)) +
			coeff[3]*(alfAt(r1, x)+alfAt(r2, x)) +
			coeff[4]*(alfAt(r1, x-1)+alfAt(r2, x+1)) +
			coeff[5]*(alfAt(rc, x+3)+alfAt(rc, x-3)) +
			coeff[6]*(alfAt(rc, x+2)+alfAt(rc, x-2)) +
			coeff[7]*(alfAt(rc, x+1)+alfAt(rc, x-1)) +
			coeff[8]*alfAt(rc, x)
		v := (sum + alfRound) >> alfShift
		out[x] = uint16(clip3i32(v, 0, maxVal))
	}
}

// ALFCoeffSet holds the per-region decoded coefficient sets for one
// component, indexed by RegionIndex's 0..15 class, per spec.md section
// 4.11's "Coefficients reconstructed from a group-index-to-coeffs mapping
// decoded at the picture header".
type ALFCoeffSet [AlfNumRegions][AlfNumCoeff]int32
