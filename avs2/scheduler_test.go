package avs2dec

import (
	"testing"

	"github.com/ausocean/avs2dec/avs2/bits"
)

// TestRowSignalMonotonicity checks spec.md section 3's row-progress
// invariant: RowProgress for a given row never decreases as MarkRowDecoded
// is called with increasing counts, the property FrameScheduler's
// sequential and pipelined paths both rely on for row-wavefront sync.
func TestRowSignalMonotonicity(t *testing.T) {
	frame := NewFrame(32, 32, 16, 8)
	seen := -1
	for _, n := range []int{0, 1, 1, 2} {
		frame.MarkRowDecoded(0, n)
		got := frame.RowProgress(0)
		if got < seen {
			t.Fatalf("RowProgress went backwards: was %d, now %d", seen, got)
		}
		seen = got
	}
	if seen != 2 {
		t.Fatalf("got final row progress %d, want 2", seen)
	}
}

func newTestScheduler(seq *SeqParams) *FrameScheduler {
	return NewFrameScheduler(seq, &Config{Threads: 1}, seq.BitDepth)
}

func testSeqParams() *SeqParams {
	return &SeqParams{Width: 32, Height: 32, LCUSizeLog2: 4, BitDepth: 8}
}

func TestDecodeSliceSequentialMarksEveryRow(t *testing.T) {
	seq := testSeqParams()
	frame := NewFrame(seq.Width, seq.Height, seq.LCUSize(), seq.BitDepth)
	slice := NewSlice(seq, 32, FrameI, 0, frame.WidthInLCU()*seq.HeightInLCU(), false)
	blocks := NewBlockMap((seq.Width+3)/4, (seq.Height+3)/4)

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i * 7)
	}
	aec := NewAEC(bits.NewBitReader(data))
	parser := NewCUParser(seq, slice, aec, blocks, 0, [2]*Frame{}, 0)
	sched := newTestScheduler(seq)

	err := sched.DecodeSlice(frame, slice, parser, [2]*Frame{})
	if err != nil && !frame.ErrorFlag {
		t.Fatalf("DecodeSlice returned error %v but did not mark the frame aborted", err)
	}
	for row := 0; row < seq.HeightInLCU(); row++ {
		if frame.RowProgress(row) <= 0 && !frame.ErrorFlag {
			t.Fatalf("row %d was never marked decoded and the frame was not aborted", row)
		}
	}
}

func TestDecodeSlicePipelinedMatchesSequentialRowCompletion(t *testing.T) {
	seq := testSeqParams()
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i * 13)
	}

	run := func(threads int) (*Frame, error) {
		frame := NewFrame(seq.Width, seq.Height, seq.LCUSize(), seq.BitDepth)
		slice := NewSlice(seq, 32, FrameI, 0, frame.WidthInLCU()*seq.HeightInLCU(), false)
		blocks := NewBlockMap((seq.Width+3)/4, (seq.Height+3)/4)
		aec := NewAEC(bits.NewBitReader(data))
		parser := NewCUParser(seq, slice, aec, blocks, 0, [2]*Frame{}, 0)
		sched := NewFrameScheduler(seq, &Config{Threads: threads}, seq.BitDepth)
		err := sched.DecodeSlice(frame, slice, parser, [2]*Frame{})
		return frame, err
	}

	seqFrame, seqErr := run(1)
	pipeFrame, pipeErr := run(4)

	if (seqErr == nil) != (pipeErr == nil) {
		t.Fatalf("sequential and pipelined paths disagreed on error outcome: seq=%v pipe=%v", seqErr, pipeErr)
	}
	for row := 0; row < seq.HeightInLCU(); row++ {
		seqDone := seqFrame.RowProgress(row) > 0 || seqFrame.ErrorFlag
		pipeDone := pipeFrame.RowProgress(row) > 0 || pipeFrame.ErrorFlag
		if seqDone != pipeDone {
			t.Fatalf("row %d completion disagreed between sequential (%v) and pipelined (%v) execution", row, seqDone, pipeDone)
		}
	}
}
