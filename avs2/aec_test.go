package avs2dec

import (
	"testing"

	"github.com/ausocean/avs2dec/avs2/bits"
)

// encodeBinSeq drives an AECEncoder over a sequence of (ctx, bin) pairs,
// using independent context copies for encode and decode sides so each
// round-trip test exercises context adaptation identically on both ends.
func encodeBinSeq(bins []int, ctxSeed Context) []byte {
	w := bits.NewBitWriter()
	enc := NewAECEncoder(w)
	ctx := ctxSeed
	for _, b := range bins {
		enc.EncodeBin(&ctx, b)
	}
	enc.Finish()
	return w.Bytes()
}

// TestAECRoundTripContextCoded checks property 2 of spec.md section 8: bins
// produced by the symmetric encoder decode back to the same sequence.
func TestAECRoundTripContextCoded(t *testing.T) {
	bins := []int{0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 1, 1, 0, 1, 0, 0, 1, 1, 1, 1}
	seed := uniformStartState

	buf := encodeBinSeq(bins, seed)

	br := bits.NewBitReader(buf)
	dec := NewAEC(br)
	ctx := seed
	for i, want := range bins {
		got := dec.DecodeBin(&ctx)
		if got != want {
			t.Fatalf("bin %d: got %d, want %d", i, got, want)
		}
	}
	if dec.Error() {
		t.Fatal("unexpected bitstream underrun")
	}
}

// TestAECRoundTripBypass checks the bypass path round-trips independently
// of the context-coded path, since both are implemented via EncodeBin and
// DecodeBin against a fixed throwaway context.
func TestAECRoundTripBypass(t *testing.T) {
	bins := []int{1, 0, 0, 1, 1, 0, 1, 0, 1, 1, 0, 0, 0, 1}

	w := bits.NewBitWriter()
	enc := NewAECEncoder(w)
	for _, b := range bins {
		enc.EncodeBypass(b)
	}
	enc.Finish()

	br := bits.NewBitReader(w.Bytes())
	dec := NewAEC(br)
	for i, want := range bins {
		got := dec.DecodeBypass()
		if got != want {
			t.Fatalf("bypass bin %d: got %d, want %d", i, got, want)
		}
	}
	if dec.Error() {
		t.Fatal("unexpected bitstream underrun")
	}
}

// TestAECRoundTripMixed interleaves context-coded and bypass bins, the
// pattern the residual and MV-difference syntax elements actually use.
func TestAECRoundTripMixed(t *testing.T) {
	type step struct {
		bypass bool
		bin    int
	}
	seq := []step{
		{false, 0}, {false, 0}, {true, 1}, {false, 1}, {true, 0},
		{false, 1}, {true, 1}, {true, 1}, {false, 0}, {false, 0},
	}

	w := bits.NewBitWriter()
	enc := NewAECEncoder(w)
	ctx := uniformStartState
	for _, s := range seq {
		if s.bypass {
			enc.EncodeBypass(s.bin)
		} else {
			enc.EncodeBin(&ctx, s.bin)
		}
	}
	enc.Finish()

	br := bits.NewBitReader(w.Bytes())
	dec := NewAEC(br)
	ctx = uniformStartState
	for i, s := range seq {
		var got int
		if s.bypass {
			got = dec.DecodeBypass()
		} else {
			got = dec.DecodeBin(&ctx)
		}
		if got != s.bin {
			t.Fatalf("step %d: got %d, want %d", i, got, s.bin)
		}
	}
}

// TestDecodeRunToZero checks the run-length helper stops at the first bin
// that disagrees with the context's current mps, well before the cap of 10.
func TestDecodeRunToZero(t *testing.T) {
	// Construct a context whose mps stays 0 long enough for 3 MPS bins, then
	// force an LPS by encoding a mismatching bin.
	bins := []int{0, 0, 0, 1, 0, 0}
	seed := uniformStartState

	buf := encodeBinSeq(bins, seed)
	br := bits.NewBitReader(buf)
	dec := NewAEC(br)
	ctx := seed

	n := dec.DecodeRunToZero(&ctx, 10)
	if n != 3 {
		t.Fatalf("got run length %d, want 3", n)
	}
}

// TestDecodeUnaryMax checks the unary decoder counts the 1 bins before the
// terminating 0 (below its cap of 10), reading the first bin against the
// first context and the rest against the continuation context.
func TestDecodeUnaryMax(t *testing.T) {
	bins := []int{1, 1, 1, 0}
	seed := uniformStartState

	w := bits.NewBitWriter()
	enc := NewAECEncoder(w)
	encFirst := seed
	encCont := seed
	for i, b := range bins {
		if i == 0 {
			enc.EncodeBin(&encFirst, b)
		} else {
			enc.EncodeBin(&encCont, b)
		}
	}
	enc.Finish()

	br := bits.NewBitReader(w.Bytes())
	dec := NewAEC(br)
	first := seed
	cont := seed
	n := dec.DecodeUnaryMax(&first, &cont, 10)
	if n != 3 {
		t.Fatalf("got %d, want 3", n)
	}
}

// TestDecodeFinal checks that a terminating bin encoded as 1 decodes back
// as 1.
func TestDecodeFinal(t *testing.T) {
	w := bits.NewBitWriter()
	enc := NewAECEncoder(w)
	enc.EncodeFinal(1)
	enc.Finish()

	br := bits.NewBitReader(w.Bytes())
	dec := NewAEC(br)
	if got := dec.DecodeFinal(); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}
