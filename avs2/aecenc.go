/*
DESCRIPTION
  aecenc.go provides a symmetric AEC encoder, used by the test suite to
  produce the "pre-encoded bit sequence produced by the symmetric encoder"
  referenced by spec.md section 8, property 2 (AEC round-trip). It is the
  encode-side counterpart of aec.go, the same way the teacher pairs
  cabac.go with cabacenc.go; it is not part of the decoder's public
  control-flow surface (spec.md section 6), only its test harness.
*/

package avs2dec

import "github.com/ausocean/avs2dec/avs2/bits"

// AECEncoder is the encode-side counterpart of AEC, implementing the
// standard carry-propagating renormalization (E1/E2/E3) that arithmetic
// coders need on the write side but not the read side.
type AECEncoder struct {
	w *bits.BitWriter

	low   uint32
	rng   uint32
	outst int // bits outstanding across an E3 (underflow) straddle

	started bool // set once the first determined bit has been dropped
}

// NewAECEncoder returns an AECEncoder writing to w, matching NewAEC's
// start-of-slice range initialization.
func NewAECEncoder(w *bits.BitWriter) *AECEncoder {
	return &AECEncoder{w: w, rng: 510}
}

// putBit emits a determined bit followed by any outstanding bits. The very
// first determined bit is the carry position above low's 9-bit window,
// which NewAEC's initial B_BITS-1 bit read does not cover, so it is
// dropped.
func (e *AECEncoder) putBit(b uint32) {
	if e.started {
		e.w.WriteBit(b)
	}
	e.started = true
	for ; e.outst > 0; e.outst-- {
		e.w.WriteBit(1 - b)
	}
}

// renorm mirrors AEC.renorm, emitting one determined (or deferred, via the
// E3 underflow case) bit per doubling.
func (e *AECEncoder) renorm() {
	for e.rng < quarter {
		switch {
		case e.low < quarter:
			e.putBit(0)
		case e.low >= 2*quarter:
			e.low -= 2 * quarter
			e.putBit(1)
		default:
			e.low -= quarter
			e.outst++
		}
		e.rng <<= 1
		e.low <<= 1
	}
}

// EncodeBin encodes bin under ctx, advancing ctx exactly as AEC.DecodeBin
// would for the same observed bin.
func (e *AECEncoder) EncodeBin(ctx *Context, bin int) {
	rLPS := rangeLPS(e.rng, ctx.LgPmps)
	rMPS := e.rng - rLPS

	if bin == int(ctx.Mps) {
		e.rng = rMPS
		*ctx = ctx.next(true)
	} else {
		e.low += rMPS
		e.rng = rLPS
		*ctx = ctx.next(false)
	}
	e.renorm()
}

// EncodeBypass encodes one equal-probability bin. It delegates to EncodeBin
// against a throwaway copy of bypassContext (the same fixed 50/50 context
// AEC.DecodeBypass decodes against), so it shares EncodeBin's renorm
// behavior exactly instead of duplicating a second carry-handling path.
func (e *AECEncoder) EncodeBypass(bin int) {
	ctx := bypassContext
	e.EncodeBin(&ctx, bin)
}

// EncodeFinal encodes the end-of-slice / terminating bin, the counterpart
// of AEC.DecodeFinal. The "terminate" outcome is a fixed two-wide slice at
// the top of the range and is never renormalized, matching the decoder's
// early return on that branch.
func (e *AECEncoder) EncodeFinal(bin int) {
	e.rng -= 2
	if bin != 0 {
		e.low += e.rng
		return
	}
	e.renorm()
}

// Finish flushes the remaining low bits so a decoder reading the output
// can complete its final renormalizations. It pads with extra zero bits so
// a decoder never underruns while finishing the bin it is currently
// renormalizing.
func (e *AECEncoder) Finish() {
	// Write low in full, so the decoder's value equals the bottom of the
	// final interval: the top bit goes through putBit (not a raw write) to
	// flush any carry bits still deferred in e.outst from a straddling E3
	// step, the other 9 bits are written directly. Zero padding covers any
	// in-flight renormalization lookahead on the decode side.
	e.putBit((e.low >> 9) & 1)
	for i := 8; i >= 0; i-- {
		e.w.WriteBit((e.low >> uint(i)) & 1)
	}
	for i := 0; i < 32; i++ {
		e.w.WriteBit(0)
	}
}
