/*
DESCRIPTION
  params.go defines the sequence- and slice-level parameter records of
  spec.md section 3. These are filled by the external sequence/picture
  header parser (out of scope per spec.md section 1) and merely consumed
  here; the struct shapes mirror SPS/PPS in sps.go and pps.go, generalized
  from H.264's field set to AVS2's tool-enable-flag set.
*/

package avs2dec

// ChromaFormat enumerates the chroma sampling structures this core
// supports, per spec.md section 3.
type ChromaFormat int

const (
	Chroma400 ChromaFormat = iota // monochrome
	Chroma420
)

// SeqParams holds the immutable per-sequence configuration of spec.md
// section 3.
type SeqParams struct {
	Width, Height int
	LCUSizeLog2   int // log2 of the largest coding unit size, e.g. 6 for 64.
	Chroma        ChromaFormat
	BitDepth      int // sample bit depth
	OutputDepth   int

	// Tool enable flags, per spec.md section 3.
	WeightedQuant      bool
	NonSquareTU        bool
	SDIP               bool
	AMP                bool
	MHP                bool
	WeightedSkip       bool
	DMH                bool
	PMVR               bool
	CrossLoopFilter    bool
	FieldCoding        bool
	BackgroundRef      bool
}

// LCUSize returns the largest coding unit size in samples.
func (s *SeqParams) LCUSize() int { return 1 << uint(s.LCUSizeLog2) }

// WidthInLCU returns the picture width in LCUs, rounded up.
func (s *SeqParams) WidthInLCU() int {
	lcu := s.LCUSize()
	return (s.Width + lcu - 1) / lcu
}

// HeightInLCU returns the picture height in LCUs, rounded up.
func (s *SeqParams) HeightInLCU() int {
	lcu := s.LCUSize()
	return (s.Height + lcu - 1) / lcu
}

// MinCUSizeLog2 is the smallest coding-unit size the partition tree may
// produce, per spec.md section 3's CU log2-size range {3..LCU_BITS}.
const MinCUSizeLog2 = 3

// Slice is a contiguous CTU range sharing entropy state, per spec.md
// section 3.
type Slice struct {
	Seq *SeqParams

	QP int

	// SAO enable flags per component: Y, U, V.
	SAOEnable [3]bool

	// ALFEnable flags per component: Y, U, V. Despite the name
	// "SIMD-independent" in spec.md section 3, these are plain booleans;
	// the phrase refers to the original decoder's per-component control
	// being independent of the SIMD dispatch tier in use, which this
	// package expresses instead via the pixelKernels seam in kernels.go.
	ALFEnable [3]bool

	// ALFCoeffs holds the per-region ALF coefficient sets for each
	// component, decoded at the picture header (out of this core's scope
	// per spec.md section 1) and supplied by the caller alongside the other
	// slice-level parameters.
	ALFCoeffs [3]ALFCoeffSet

	Type FrameType

	// DeltaQPEnabled mirrors the picture-level "fixed_picture_qp" flag of
	// spec.md section 3: when false, CUs never carry a delta-QP bin and
	// inherit the slice QP unchanged.
	DeltaQPEnabled bool

	// LCURange is the inclusive [first, last) LCU raster-address range
	// this slice covers.
	FirstLCU, LastLCU int

	// Contexts holds this slice's arithmetic-context state, reset to the
	// uniform starting state at construction (spec.md section 3,
	// "Context set").
	Contexts *ContextSet
}

// NewSlice builds a Slice with a fresh, uniformly initialized context set.
func NewSlice(seq *SeqParams, qp int, typ FrameType, first, last int, deltaQPEnabled bool) *Slice {
	return &Slice{
		Seq:            seq,
		QP:             qp,
		Type:           typ,
		FirstLCU:       first,
		LastLCU:        last,
		DeltaQPEnabled: deltaQPEnabled,
		Contexts:       NewContextSet(),
	}
}
