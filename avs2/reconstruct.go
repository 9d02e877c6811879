/*
DESCRIPTION
  reconstruct.go implements the Reconstructor spec.md section 4.12's
  reconstruct stage describes ("predict, then add residual"): it
  composes the prediction stage (intrapred.go for intra PUs, interpred.go
  for inter PUs with AverageBiPred for Dual/SYM/BID hypotheses) with the
  residual stage (transform.go's InverseTransform2D over the coefficient
  buffers cuparser.go's residual decode attached to each CU's TUs),
  writing final clipped samples into the Frame's planes and the per-4x4
  MV/RefIdx fields used by later frames' spatial/temporal MV prediction.
  Grounded on the teacher's h264dec reconstruction seam (prediction buffer
  plus residual add-and-clip, e.g. codec/h264/h264dec macroblock sample
  reconstruction), generalized to AVS2's CU/PU/TU geometry.
*/

package avs2dec

// Reconstructor rebuilds one frame's pixels from its parsed CUs, per
// spec.md section 4.12.
type Reconstructor struct {
	Seq      *SeqParams
	Kernels  pixelKernels
	BitDepth int
}

// NewReconstructor builds a Reconstructor for the given sequence
// parameters, selecting pixel kernels once per spec.md section 9's SIMD-
// dispatch-once note (see kernels.go).
func NewReconstructor(seq *SeqParams, bitDepth int) *Reconstructor {
	return &Reconstructor{Seq: seq, Kernels: selectPixelKernels(), BitDepth: bitDepth}
}

// ReconstructCU predicts and reconstructs every PU/TU of cu into frame,
// consulting refs[0]/refs[1] (forward/backward reference frames) for
// inter prediction, per spec.md section 4.12's per-CU reconstruction
// order: predict all PUs, then add each TU's residual to the already-
// predicted samples.
func (r *Reconstructor) ReconstructCU(cu *CU, frame *Frame, refs [2]*Frame) {
	if cu.Type.IsIntra() {
		r.predictIntraCU(cu, frame)
	} else {
		r.predictInterCU(cu, frame, refs)
		r.storeMVField(cu, frame)
	}
	r.addResiduals(cu, frame)
}

func (r *Reconstructor) predictIntraCU(cu *CU, frame *Frame) {
	for i := range cu.PUs {
		pu := &cu.PUs[i]
		x, y := cu.X+pu.X, cu.Y+pu.Y
		r.predictIntraBlock(&frame.Y, x, y, pu.W, pu.H, pu.IntraLumaMode, r.BitDepth)
	}
	// Chroma intra prediction shares a single mode across the whole CU
	// (spec.md section 4.5's "one chroma mode per CU"); approximate with
	// the luma mode of the first PU when DM-mode resolution is unavailable.
	cMode := ResolveChromaMode(cu.ChromaMode, cu.PUs[0].IntraLumaMode)
	cx, cy := cu.X/2, cu.Y/2
	cw, ch := cu.Size()/2, cu.Size()/2
	r.predictIntraBlock(&frame.U, cx, cy, cw, ch, cMode, r.BitDepth)
	r.predictIntraBlock(&frame.V, cx, cy, cw, ch, cMode, r.BitDepth)
}

func (r *Reconstructor) predictIntraBlock(p *Plane, x, y, w, h, mode, bitDepth int) {
	topAvail := y > 0
	leftAvail := x > 0
	top := make([]int32, 2*w+1)
	left := make([]int32, 2*h+1)
	var topLeft int32
	if topAvail {
		for i := 1; i < len(top); i++ {
			xi := x - 1 + i
			if xi >= p.Width {
				xi = p.Width - 1
			}
			top[i] = int32(p.At(xi, y-1))
		}
	}
	if leftAvail {
		for i := 1; i < len(left); i++ {
			yi := y - 1 + i
			if yi >= p.Height {
				yi = p.Height - 1
			}
			left[i] = int32(p.At(x-1, yi))
		}
	}
	if topAvail && leftAvail {
		topLeft = int32(p.At(x-1, y-1))
	}

	ref := BuildReferenceBuffer(topAvail, leftAvail, top, topLeft, left, w, h, bitDepth)
	dst := make([]int32, w*h)
	switch {
	case mode == IntraDC:
		PredictDC(ref, dst, w, w, h, topAvail, leftAvail, bitDepth)
	case mode == IntraPlane:
		PredictPlane(ref, dst, w, w, h, bitDepth)
	case mode == IntraBilinear:
		PredictBilinear(ref, dst, w, w, h)
	case mode == IntraHor:
		PredictHorizontal(ref, dst, w, w, h)
	case mode == IntraVert:
		PredictVertical(ref, dst, w, w, h)
	default:
		PredictAngular(ref, dst, w, w, h, mode)
	}
	maxVal := int32(1<<uint(bitDepth)) - 1
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			p.Set(x+i, y+j, uint16(clip3i32(dst[j*w+i], 0, maxVal)))
		}
	}
}

func (r *Reconstructor) predictInterCU(cu *CU, frame *Frame, refs [2]*Frame) {
	for i := range cu.PUs {
		pu := &cu.PUs[i]
		r.predictInterPU(pu, cu.X+pu.X, cu.Y+pu.Y, frame, refs)
	}
}

func (r *Reconstructor) predictInterPU(pu *PU, x, y int, frame *Frame, refs [2]*Frame) {
	w, h := pu.W, pu.H
	bufs := make([][]int32, 0, 2)
	for list := 0; list < 2; list++ {
		if pu.RefIdx[list] < 0 || refs[list] == nil {
			continue
		}
		mv := pu.MV[list]
		intX := x + int(mv.X)>>2
		intY := y + int(mv.Y)>>2
		qx, qy := int(mv.X)&3, int(mv.Y)&3
		dst := make([]int32, w*h)
		PredictLumaBlock(&refs[list].Y, intX, intY, qx, qy, dst, w, h, r.BitDepth)
		bufs = append(bufs, dst)
	}
	maxVal := int32(1<<uint(r.BitDepth)) - 1
	var out []int32
	switch len(bufs) {
	case 0:
		return
	case 1:
		out = bufs[0]
	default:
		out = make([]int32, w*h)
		AverageBiPred(r.Kernels, out, bufs[0], bufs[1], w*h)
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			frame.Y.Set(x+i, y+j, uint16(clip3i32(out[j*w+i], 0, maxVal)))
		}
	}
	r.predictInterChroma(pu, x, y, frame, refs)
}

func (r *Reconstructor) predictInterChroma(pu *PU, lx, ly int, frame *Frame, refs [2]*Frame) {
	cw, ch := pu.W/2, pu.H/2
	if cw == 0 || ch == 0 {
		return
	}
	cx, cy := lx/2, ly/2
	bufsU := make([][]int32, 0, 2)
	bufsV := make([][]int32, 0, 2)
	for list := 0; list < 2; list++ {
		if pu.RefIdx[list] < 0 || refs[list] == nil {
			continue
		}
		mv := pu.MV[list]
		intX := cx + int(mv.X)>>3
		intY := cy + int(mv.Y)>>3
		qx, qy := int(mv.X)&7, int(mv.Y)&7
		du := make([]int32, cw*ch)
		dv := make([]int32, cw*ch)
		PredictChromaBlock(&refs[list].U, intX, intY, qx, qy, du, cw, ch, r.BitDepth)
		PredictChromaBlock(&refs[list].V, intX, intY, qx, qy, dv, cw, ch, r.BitDepth)
		bufsU = append(bufsU, du)
		bufsV = append(bufsV, dv)
	}
	maxVal := int32(1<<uint(r.BitDepth)) - 1
	writeChroma := func(p *Plane, bufs [][]int32) {
		if len(bufs) == 0 {
			return
		}
		out := bufs[0]
		if len(bufs) == 2 {
			out = make([]int32, cw*ch)
			AverageBiPred(r.Kernels, out, bufs[0], bufs[1], cw*ch)
		}
		for j := 0; j < ch; j++ {
			for i := 0; i < cw; i++ {
				p.Set(cx+i, cy+j, uint16(clip3i32(out[j*cw+i], 0, maxVal)))
			}
		}
	}
	writeChroma(&frame.U, bufsU)
	writeChroma(&frame.V, bufsV)
}

// addResiduals inverse-transforms every TU's coefficient buffer and adds
// it to the already-predicted samples, clipping to the bit-depth range,
// per spec.md section 4.12.
func (r *Reconstructor) addResiduals(cu *CU, frame *Frame) {
	maxVal := int32(1<<uint(r.BitDepth)) - 1
	for _, tu := range cu.TUs {
		if cu.SecondaryTransform && tu.W == 4 && tu.H == 4 {
			applySecondaryTransform4x4(tu.Coeffs)
		}
		residual := make([]int32, tu.W*tu.H)
		InverseTransform2D(tu.Coeffs, residual, tu.W, tu.H)

		plane := r.planeFor(frame, tu)
		for j := 0; j < tu.H; j++ {
			for i := 0; i < tu.W; i++ {
				v := int32(plane.At(tu.X+i, tu.Y+j)) + residual[j*tu.W+i]
				plane.Set(tu.X+i, tu.Y+j, uint16(clip3i32(v, 0, maxVal)))
			}
		}
	}
}

// planeFor resolves which plane a TU belongs to, per spec.md section
// 4.12's luma/Cb/Cr TU bookkeeping.
func (r *Reconstructor) planeFor(frame *Frame, tu TUInfo) *Plane {
	switch {
	case tu.Luma:
		return &frame.Y
	case tu.Chroma == 0:
		return &frame.U
	default:
		return &frame.V
	}
}

// storeMVField records each PU's MV/RefIdx into the frame's per-4x4
// fields, per spec.md section 3's "MVField/RefIdx filled per 4x4 luma
// unit" invariant, so later frames' spatial/temporal MV prediction
// (mvpred.go) can consult real neighbor state.
func (r *Reconstructor) storeMVField(cu *CU, frame *Frame) {
	for i := range cu.PUs {
		pu := &cu.PUs[i]
		x0, y0 := (cu.X+pu.X)/4, (cu.Y+pu.Y)/4
		w4, h4 := maxi(pu.W/4, 1), maxi(pu.H/4, 1)
		for dy := 0; dy < h4; dy++ {
			for dx := 0; dx < w4; dx++ {
				idx := frame.MVIndex(x0+dx, y0+dy)
				for list := 0; list < 2; list++ {
					frame.MVField[list][idx] = pu.MV[list]
					frame.RefIdx[list][idx] = pu.RefIdx[list]
				}
			}
		}
	}
}
