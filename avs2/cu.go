/*
DESCRIPTION
  cu.go defines the coding-unit data model of spec.md section 3 ("Coding
  Unit (CU)"): the CU/PU attribute set the CUParser state machine
  (cuparser.go) fills in and the Reconstructor (reconstruct.go) consumes.
  Grounded on _examples/original_source/source/common/cu.h's cu_t fields,
  generalized from its C struct-of-arrays layout to a plain Go struct.
*/

package avs2dec

// CUType enumerates spec.md section 3's CU types.
type CUType int

const (
	CUSkip CUType = iota
	CU2Nx2N
	CU2NxN
	CUNx2N
	CU2NxnU // AMP: 2N x (N/2 + 3N/2) upper-biased split
	CU2NxnD // AMP: 2N x (3N/2 + N/2) lower-biased split
	CUnLx2N // AMP: (N/2 + 3N/2) x 2N left-biased split
	CUnRx2N // AMP: (3N/2 + N/2) x 2N right-biased split
	CUIntra2Nx2N
	CUIntraNxN
	CUIntra2NxnU // SDIP: 2N wide, split into 4 horizontal strips
	CUIntranLx2N // SDIP: 2N tall, split into 4 vertical strips
)

// IsIntra reports whether t is one of the intra CU types.
func (t CUType) IsIntra() bool { return t >= CUIntra2Nx2N }

// IsAMP reports whether t is one of the asymmetric-motion-partition types.
func (t CUType) IsAMP() bool { return t == CU2NxnU || t == CU2NxnD || t == CUnLx2N || t == CUnRx2N }

// TUSplitMode enumerates spec.md section 3's TU split modes.
type TUSplitMode int

const (
	TUSplitModeNone TUSplitMode = iota
	TUSplitModeHor
	TUSplitModeVer
	TUSplitModeCross
)

// PredDir enumerates spec.md section 3's per-PU prediction direction.
type PredDir int

const (
	PredInvalid PredDir = iota
	PredFWD
	PredBWD
	PredSYM
	PredBID
	PredDual
)

// PU is one prediction unit of a CU, per spec.md section 3.
type PU struct {
	X, Y, W, H int // pixel offsets relative to the CU origin, and size
	MV         [2]MV
	RefIdx     [2]int8
	Dir        PredDir
	IntraLumaMode int // valid only when the owning CU is intra
}

// CU is one coding unit, per spec.md section 3. Lifetime: created on
// entropy parse, consumed by reconstruction, released with its frame.
type CU struct {
	X, Y, Log2Size int // pixel position and log2 size within the frame
	Type           CUType
	QP             int
	CBP            uint8 // 4 luma sub-block bits (0..3) + 2 chroma bits (4,5)
	TUSplit        TUSplitMode
	DMHMode        int
	WeightedSkip   bool
	DirectSkipMode int
	ChromaMode     ChromaIntraMode

	PUs []PU

	// TUs holds the decoded, dequantized (pre-inverse-transform)
	// coefficient buffers of every coded transform unit, populated by
	// cuparser.go's readResidualCoeffs.
	TUs []TUInfo

	// dir holds the CU-level prediction direction read by readInterDir,
	// before per-PU Dir/MV/RefIdx are filled in by readInterMVs.
	dir PredDir

	// SecondaryTransform records, once for the whole CU, whether the
	// secondary 4x4 transform fired (spec.md section 4.7: "applied to intra
	// blocks <= 8x8 when the secondary-transform flag fires"); when set it
	// applies to every 4x4 TU of the CU.
	SecondaryTransform bool

	// Pattern is the dct_pattern classification of spec.md section 4.8,
	// used by the transform stage to pick the DEFAULT/HALF/QUAD fidelity
	// tier.
	Pattern DCTPattern
}

// Size returns the CU's side length in samples.
func (c *CU) Size() int { return 1 << uint(c.Log2Size) }

// CodedBlock reports whether luma sub-block i (0..3) or chroma component c
// (0=Cb,1=Cr via index 4,5) carries non-zero coefficients, per spec.md
// section 3's CBP bitmask.
func (c *CU) CodedBlock(i int) bool { return c.CBP&(1<<uint(i)) != 0 }

// puRects tiles a bsx x bsy CU into PU rectangles for type t, per spec.md
// section 3's invariant "every contained PU lies entirely within the CU
// and tiles the CU exactly".
func puRects(t CUType, size int) [][4]int {
	n := size
	h := size / 2
	q := size / 4
	switch t {
	case CU2Nx2N, CUIntra2Nx2N:
		return [][4]int{{0, 0, n, n}}
	case CUIntraNxN:
		return [][4]int{{0, 0, h, h}, {h, 0, h, h}, {0, h, h, h}, {h, h, h, h}}
	case CU2NxN:
		return [][4]int{{0, 0, n, h}, {0, h, n, h}}
	case CUNx2N:
		return [][4]int{{0, 0, h, n}, {h, 0, h, n}}
	case CU2NxnU:
		return [][4]int{{0, 0, n, q}, {0, q, n, n - q}}
	case CU2NxnD:
		return [][4]int{{0, 0, n, n - q}, {0, n - q, n, q}}
	case CUnLx2N:
		return [][4]int{{0, 0, q, n}, {q, 0, n - q, n}}
	case CUnRx2N:
		return [][4]int{{0, 0, n - q, n}, {n - q, 0, q, n}}
	case CUIntra2NxnU:
		s := size / 4
		return [][4]int{{0, 0, n, s}, {0, s, n, s}, {0, 2 * s, n, s}, {0, 3 * s, n, s}}
	case CUIntranLx2N:
		s := size / 4
		return [][4]int{{0, 0, s, n}, {s, 0, s, n}, {2 * s, 0, s, n}, {3 * s, 0, s, n}}
	default:
		return [][4]int{{0, 0, n, n}}
	}
}
