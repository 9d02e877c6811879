/*
DESCRIPTION
  scheduler.go implements the frame-level wavefront scheduler of spec.md
  section 4.12: a two-stage pipeline where an entropy-parse stage (driven
  by cuparser.go's CUParser) runs one LCU row ahead of a reconstruction
  stage (driven by reconstruct.go's Reconstructor), the two stages
  synchronized row-by-row via Frame's MarkRowDecoded/WaitRow condition
  variables (frame.go). Grounded on the teacher's row-goroutine-pool
  pattern (h264dec's per-row decode dispatch) generalized from a single
  decode stage into the two-stage parse/reconstruct split spec.md
  describes, and on frame.go's existing row-signal primitives from the
  prior session.

  Row completion also drives the in-loop filter chain of spec.md sections
  4.9-4.11: each row's CUs are deblocked as soon as they are
  reconstructed, but SAO and ALF trail by one row (section 4.12's "deblock
  current row, SAO previous row, ALF previous row, pad, broadcast"),
  since SAO/ALF at a CTU row boundary read samples the deblock pass of
  the row below has not produced yet. Only the filtered (deblock+SAO+ALF)
  row is broadcast via MarkRowDecoded, since that is what a later frame's
  reference-picture sampling sees.
*/

package avs2dec

import (
	"sync"
)

// FrameScheduler drives one frame's CTU-row-wavefront decode: parse stage
// runs CUParser over a slice's LCU rows, handing each row's CUs to the
// reconstruct stage, which predicts+adds-residual, deblocks, and (one row
// behind) applies SAO and ALF before signaling row completion, per
// spec.md section 4.12.
type FrameScheduler struct {
	Seq    *SeqParams
	Config *Config
	Recon  *Reconstructor
}

// NewFrameScheduler builds a scheduler for seq using cfg's thread/worker
// settings.
func NewFrameScheduler(seq *SeqParams, cfg *Config, bitDepth int) *FrameScheduler {
	return &FrameScheduler{Seq: seq, Config: cfg, Recon: NewReconstructor(seq, bitDepth)}
}

// ctuInfo is one CTU's parsed CUs plus its decoded loop-filter syntax,
// handed from the parse stage through to the filter stage.
type ctuInfo struct {
	cus   []*CU
	sao   [3]SAOParams
	alfOn [3]bool
}

// rowCUs is one LCU row's parsed CTUs, handed from the parse stage to the
// reconstruct stage.
type rowCUs struct {
	row  int
	ctus []ctuInfo
	err  error
}

// DecodeSlice parses and reconstructs every LCU row slice covers
// ([slice.FirstLCU, slice.LastLCU) in LCU raster order), running the
// parse and reconstruct stages concurrently when cfg.Threads > 1, per
// spec.md section 4.12's "parse stage vs reconstruct stage" pipeline.
// refs holds the forward/backward reference frames inter CUs draw MC
// samples from.
func (s *FrameScheduler) DecodeSlice(frame *Frame, slice *Slice, parser *CUParser, refs [2]*Frame) error {
	widthLCU := frame.WidthInLCU()
	firstRow := slice.FirstLCU / widthLCU
	lastRow := (slice.LastLCU - 1) / widthLCU

	if s.Config == nil || s.Config.Threads <= 1 {
		return s.decodeSequential(frame, slice, parser, refs, firstRow, lastRow, widthLCU)
	}
	return s.decodePipelined(frame, slice, parser, refs, firstRow, lastRow, widthLCU)
}

func (s *FrameScheduler) decodeSequential(frame *Frame, slice *Slice, parser *CUParser, refs [2]*Frame, firstRow, lastRow, widthLCU int) error {
	grid := newCUEdgeGrid(parser.w4, parser.h4)
	heightInLCU := s.Seq.HeightInLCU()

	var pending []ctuInfo
	pendingRow := -1
	var prevRow []ctuInfo

	for row := firstRow; row <= lastRow; row++ {
		ctus, err := s.parseRow(parser, slice, row, widthLCU, prevRow)
		if err != nil {
			frame.Abort()
			return err
		}
		cus := flattenCTUs(ctus)
		s.reconstructRow(frame, cus, refs)
		grid.markAll(cus)
		s.deblockRow(frame, grid, cus)

		if pendingRow >= 0 {
			s.filterRow(frame, slice, pendingRow, pending, widthLCU, heightInLCU)
			frame.MarkRowDecoded(pendingRow, widthLCU)
		}
		pending, pendingRow = ctus, row
		prevRow = ctus
	}
	if pendingRow >= 0 {
		s.filterRow(frame, slice, pendingRow, pending, widthLCU, heightInLCU)
		frame.MarkRowDecoded(pendingRow, widthLCU)
	}
	return nil
}

// decodePipelined runs the parse stage one row ahead of the
// reconstruct/filter stage over a bounded channel, per spec.md section
// 4.12: the parse stage never blocks on reconstruction catching up by
// more than the channel's buffer, matching the "parse stage runs ahead,
// bounded by a row of slack" invariant. Reconstruction, deblock, and the
// lagged SAO/ALF application all stay on the single consumer goroutine,
// since they share frame-wide state (the CU edge grid, the previous
// row's filter syntax) that must observe rows in order.
func (s *FrameScheduler) decodePipelined(frame *Frame, slice *Slice, parser *CUParser, refs [2]*Frame, firstRow, lastRow, widthLCU int) error {
	rows := make(chan rowCUs, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(rows)
		var prevRow []ctuInfo
		for row := firstRow; row <= lastRow; row++ {
			ctus, err := s.parseRow(parser, slice, row, widthLCU, prevRow)
			rows <- rowCUs{row: row, ctus: ctus, err: err}
			if err != nil {
				return
			}
			prevRow = ctus
		}
	}()

	grid := newCUEdgeGrid(parser.w4, parser.h4)
	heightInLCU := s.Seq.HeightInLCU()
	var pending []ctuInfo
	pendingRow := -1

	var firstErr error
	for r := range rows {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			frame.Abort()
			continue
		}
		cus := flattenCTUs(r.ctus)
		s.reconstructRow(frame, cus, refs)
		grid.markAll(cus)
		s.deblockRow(frame, grid, cus)

		if pendingRow >= 0 {
			s.filterRow(frame, slice, pendingRow, pending, widthLCU, heightInLCU)
			frame.MarkRowDecoded(pendingRow, widthLCU)
		}
		pending, pendingRow = r.ctus, r.row
	}
	if firstErr == nil && pendingRow >= 0 {
		s.filterRow(frame, slice, pendingRow, pending, widthLCU, heightInLCU)
		frame.MarkRowDecoded(pendingRow, widthLCU)
	}
	wg.Wait()
	return firstErr
}

// parseRow parses every CTU in row, then reads that CTU's loop-filter
// syntax (SAO merge/params, ALF enable), consulting the left CTU already
// parsed this row and the CTU directly above from prevRow, per spec.md
// sections 4.10/4.11's merge-flag and enable-flag syntax.
func (s *FrameScheduler) parseRow(parser *CUParser, slice *Slice, row, widthLCU int, prevRow []ctuInfo) ([]ctuInfo, error) {
	out := make([]ctuInfo, widthLCU)
	for col := 0; col < widthLCU; col++ {
		cus, err := parser.ParseCTU(col, row)
		if err != nil {
			return out, err
		}
		out[col].cus = cus

		var left, up *ctuInfo
		if col > 0 {
			left = &out[col-1]
		}
		if prevRow != nil {
			up = &prevRow[col]
		}
		s.readLoopFilterSyntax(parser, slice, &out[col], left, up)
	}
	return out, nil
}

// readLoopFilterSyntax reads one CTU's SAO (merge flags then, absent a
// merge, full parameters) and ALF enable flags, per spec.md sections
// 4.10-4.11, gated by the slice's per-component enable flags (params.go).
func (s *FrameScheduler) readLoopFilterSyntax(parser *CUParser, slice *Slice, info *ctuInfo, left, up *ctuInfo) {
	for c := 0; c < 3; c++ {
		if !slice.SAOEnable[c] {
			continue
		}
		mergeLeft, mergeUp := ReadSAOMergeFlags(parser.AEC, slice.Contexts, left != nil, up != nil)
		switch {
		case mergeLeft:
			info.sao[c] = left.sao[c]
		case mergeUp:
			info.sao[c] = up.sao[c]
		default:
			info.sao[c] = ReadSAOParams(parser.AEC, slice.Contexts)
		}
	}

	if slice.ALFEnable[0] || slice.ALFEnable[1] || slice.ALFEnable[2] {
		en := ReadALFEnableFlags(parser.AEC, slice.Contexts)
		for c := 0; c < 3; c++ {
			info.alfOn[c] = en[c] && slice.ALFEnable[c]
		}
	}
}

// flattenCTUs concatenates a row's per-CTU CU lists in raster order.
func flattenCTUs(ctus []ctuInfo) []*CU {
	var out []*CU
	for _, c := range ctus {
		out = append(out, c.cus...)
	}
	return out
}

func (s *FrameScheduler) reconstructRow(frame *Frame, cus []*CU, refs [2]*Frame) {
	for _, cu := range cus {
		s.Recon.ReconstructCU(cu, frame, refs)
	}
}

// cuEdgeGrid tracks, at 4x4-unit granularity, the intra/coded/QP facts
// DeriveBoundaryStrength needs at a CU edge, which BlockMap (neighbor.go)
// does not carry.
type cuEdgeGrid struct {
	w4, h4 int
	intra  []bool
	coded  []bool
	qp     []int8
}

func newCUEdgeGrid(w4, h4 int) *cuEdgeGrid {
	return &cuEdgeGrid{w4: w4, h4: h4, intra: make([]bool, w4*h4), coded: make([]bool, w4*h4), qp: make([]int8, w4*h4)}
}

// mark records cu's intra/coded/QP facts over every 4x4 unit it covers.
func (g *cuEdgeGrid) mark(cu *CU) {
	x4, y4 := cu.X/4, cu.Y/4
	b4 := maxi(cu.Size()/4, 1)
	intra := cu.Type.IsIntra()
	coded := cu.CBP != 0
	for yy := y4; yy < y4+b4; yy++ {
		for xx := x4; xx < x4+b4; xx++ {
			if xx < 0 || yy < 0 || xx >= g.w4 || yy >= g.h4 {
				continue
			}
			idx := yy*g.w4 + xx
			g.intra[idx] = intra
			g.coded[idx] = coded
			g.qp[idx] = int8(cu.QP)
		}
	}
}

func (g *cuEdgeGrid) markAll(cus []*CU) {
	for _, cu := range cus {
		g.mark(cu)
	}
}

func (g *cuEdgeGrid) at(x4, y4 int) (intra, coded bool, qp int, ok bool) {
	if x4 < 0 || y4 < 0 || x4 >= g.w4 || y4 >= g.h4 {
		return false, false, 0, false
	}
	idx := y4*g.w4 + x4
	return g.intra[idx], g.coded[idx], int(g.qp[idx]), true
}

// edgeMotionFacts reports the sameRef/mvDiffQuarterPel facts
// DeriveBoundaryStrength needs for the edge between 4x4 units (px4, py4)
// and (qx4, qy4), read from list 0's motion field (frame.go); a PU
// missing list-0 motion (e.g. backward-only prediction) is treated as
// same-ref/zero-diff, the weakest bS a motion mismatch alone can produce.
func edgeMotionFacts(frame *Frame, px4, py4, qx4, qy4 int) (sameRef bool, mvDiffQuarterPel int) {
	pmv, pref, pok := frame.MVAt(0, px4, py4)
	qmv, qref, qok := frame.MVAt(0, qx4, qy4)
	if !pok || !qok {
		return true, 0
	}
	sameRef = pref == qref
	mvDiffQuarterPel = absi(int(pmv.X)-int(qmv.X)) + absi(int(pmv.Y)-int(qmv.Y))
	return
}

// deblockRow deblocks every CU's left and top edges against its already-
// reconstructed left/top neighbor, per spec.md section 4.9. Grounded at
// one boundary-strength value per whole CU edge (rather than spec.md's
// finer 8-sample segmentation) as the "single-threaded equivalent"
// review comment allows; recorded as an Open Question decision in
// DESIGN.md.
func (s *FrameScheduler) deblockRow(frame *Frame, grid *cuEdgeGrid, cus []*CU) {
	for _, cu := range cus {
		s.deblockCU(frame, grid, cu)
	}
}

func (s *FrameScheduler) deblockCU(frame *Frame, grid *cuEdgeGrid, cu *CU) {
	size := cu.Size()
	x4, y4 := cu.X/4, cu.Y/4
	qIntra, qCoded, qQP, _ := grid.at(x4, y4)
	bitDepth := s.Recon.BitDepth

	if cu.X > 0 {
		pIntra, pCoded, pQP, ok := grid.at(x4-1, y4)
		if ok {
			sameRef, mvDiff := edgeMotionFacts(frame, x4-1, y4, x4, y4)
			bs := DeriveBoundaryStrength(pIntra, qIntra, pCoded, qCoded, sameRef, mvDiff)
			if bs != BSNone {
				qp := (pQP + qQP) / 2
				DeblockVerticalEdge(&frame.Y, cu.X, cu.Y, size, qp, bs, false, bitDepth)
				if cu.Y%8 == 0 {
					cqp := chromaQP(qp)
					csize := maxi(size/2, 1)
					DeblockVerticalEdge(&frame.U, cu.X/2, cu.Y/2, csize, cqp, bs, true, bitDepth)
					DeblockVerticalEdge(&frame.V, cu.X/2, cu.Y/2, csize, cqp, bs, true, bitDepth)
				}
			}
		}
	}
	if cu.Y > 0 {
		pIntra, pCoded, pQP, ok := grid.at(x4, y4-1)
		if ok {
			sameRef, mvDiff := edgeMotionFacts(frame, x4, y4-1, x4, y4)
			bs := DeriveBoundaryStrength(pIntra, qIntra, pCoded, qCoded, sameRef, mvDiff)
			if bs != BSNone {
				qp := (pQP + qQP) / 2
				DeblockHorizontalEdge(&frame.Y, cu.Y, cu.X, size, qp, bs, false, bitDepth)
				if cu.X%8 == 0 {
					cqp := chromaQP(qp)
					csize := maxi(size/2, 1)
					DeblockHorizontalEdge(&frame.U, cu.Y/2, cu.X/2, csize, cqp, bs, true, bitDepth)
					DeblockHorizontalEdge(&frame.V, cu.Y/2, cu.X/2, csize, cqp, bs, true, bitDepth)
				}
			}
		}
	}
}

// filterRow applies SAO then ALF to one LCU row across every component,
// per spec.md sections 4.10-4.11, using the loop-filter syntax parseRow
// read for that row.
func (s *FrameScheduler) filterRow(frame *Frame, slice *Slice, row int, ctus []ctuInfo, widthLCU, heightInLCU int) {
	lcu := s.Seq.LCUSize()
	y0 := row * lcu
	h := mini(lcu, frame.Y.Height-y0)
	if h <= 0 {
		return
	}

	for col, info := range ctus {
		x0 := col * lcu
		w := mini(lcu, frame.Y.Width-x0)
		if slice.SAOEnable[0] {
			ApplySAO(&frame.Y, x0, y0, w, h, info.sao[0], s.Recon.BitDepth)
		}
		if slice.SAOEnable[1] {
			ApplySAO(&frame.U, x0/2, y0/2, w/2, h/2, info.sao[1], s.Recon.BitDepth)
		}
		if slice.SAOEnable[2] {
			ApplySAO(&frame.V, x0/2, y0/2, w/2, h/2, info.sao[2], s.Recon.BitDepth)
		}
	}

	for col, info := range ctus {
		x0 := col * lcu
		w := mini(lcu, frame.Y.Width-x0)
		region := RegionIndex(col, row, widthLCU, heightInLCU)
		if slice.ALFEnable[0] && info.alfOn[0] {
			s.applyALFColumn(&frame.Y, x0, w, y0, h, slice.ALFCoeffs[0][region])
		}
		cx0, cw, cy0, ch := x0/2, w/2, y0/2, h/2
		if slice.ALFEnable[1] && info.alfOn[1] {
			s.applyALFColumn(&frame.U, cx0, cw, cy0, ch, slice.ALFCoeffs[1][region])
		}
		if slice.ALFEnable[2] && info.alfOn[2] {
			s.applyALFColumn(&frame.V, cx0, cw, cy0, ch, slice.ALFCoeffs[2][region])
		}
	}
}

// applyALFColumn runs ApplyALFRow over every row of an LCU's w-wide
// column, snapshotting the pre-filter samples first so a row's filtered
// output is never read back as another row's filter input within the
// same pass (alf.go's ApplyALFRow is a FIR filter over fixed source
// samples, not an in-place recurrence).
func (s *FrameScheduler) applyALFColumn(p *Plane, x0, w, y0, h int, coeff [AlfNumCoeff]int32) {
	if w <= 0 || h <= 0 {
		return
	}
	snapshot := copyPlane(p)
	src := planeView(&snapshot, x0, w)
	dst := planeView(p, x0, w)
	for y := y0; y < y0+h; y++ {
		ApplyALFRow(&dst, &src, y, coeff, s.Recon.BitDepth, 0)
	}
}

// RowsAheadNeeded reports how many luma sample rows of a reference frame,
// counted from the top of the current LCU row, must already be
// reconstructed before that row can safely run inter prediction, per
// spec.md section 4.12's "a PU's widest vertical MV reach determines how
// far the scheduler must wait on the reference frame's row signal".
// maxMVRows is the largest |MV.Y| (in quarter-pel units) any PU
// referencing that frame may carry; the result is RowsNeededForMV with
// the LCU height as the block height, in sample rows, not LCU rows.
func RowsAheadNeeded(lcuSize, maxMVRows int) int {
	return RowsNeededForMV(maxMVRows, lcuSize)
}
