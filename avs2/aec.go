/*
DESCRIPTION
  aec.go implements the binary arithmetic entropy decoder of spec.md
  section 4.2, generalizing the teacher's H.264 CABAC engine
  (cabac.go's ArithmeticDecoding/BinaryDecision/RenormD and
  DecodeBypass/DecodeTerminate) from a static 64-entry pStateIdx/rangeTabLPS
  lookup to AVS2's packed (lg_pmps, mps, cycno) Context and its procedurally
  generated transition tables in context.go. The renormalization loop
  (double the range and shift a fresh bit in while below a quarter-range
  threshold) is the same shape as RenormD; only the LPS-range derivation
  and context update differ.

AUTHORS
  adapted from the teacher's codec/h264/h264dec/cabac.go structure.
*/

package avs2dec

import "github.com/ausocean/avs2dec/avs2/bits"

// AEC is the binary arithmetic entropy decoder of spec.md section 4.2.
type AEC struct {
	br *bits.BitReader

	rng    uint32 // range register, kept in [quarter, 4*quarter)
	offset uint32

	bitError bool
}

// NewAEC constructs an AEC reading from br, running the start-of-slice
// procedure of spec.md section 4.2: reset the range register and consume
// B_BITS-1 bits into the value register.
func NewAEC(br *bits.BitReader) *AEC {
	a := &AEC{br: br, rng: 510}
	a.offset = br.U(bBits - 1)
	return a
}

// Error reports whether a bitstream underrun has occurred, either in the
// AEC's own bit consumption or in the underlying BitReader.
func (a *AEC) Error() bool { return a.bitError || a.br.Error() }

func (a *AEC) nextBit() uint32 {
	if a.br.Error() {
		a.bitError = true
		return 0
	}
	return a.br.U(1)
}

// renorm doubles rng and shifts a fresh bit into offset until rng reaches
// the quarter-range threshold, mirroring RenormD.
func (a *AEC) renorm() {
	for a.rng < quarter {
		a.rng <<= 1
		a.offset = (a.offset << 1) | a.nextBit()
	}
}

// rangeLPS derives the LPS sub-interval length from the current range and
// the context's lg_pmps estimate (an 11-bit probability-like value scaled
// to 2048), per the codIRangeLPS role of spec.md section 4.2 step 2.
func rangeLPS(rng uint32, lgPmps uint16) uint32 {
	r := (rng * uint32(lgPmps)) >> 11
	if r < 1 {
		r = 1
	}
	if r >= rng {
		r = rng - 1
	}
	return r
}

// DecodeBin decodes one context-coded bin and advances ctx to its
// post-update state, per spec.md section 4.2's decode-symbol (ctx-bin)
// procedure.
func (a *AEC) DecodeBin(ctx *Context) int {
	if a.Error() {
		return 0
	}
	rLPS := rangeLPS(a.rng, ctx.LgPmps)
	rMPS := a.rng - rLPS

	var bin int
	if a.offset < rMPS {
		bin = int(ctx.Mps)
		a.rng = rMPS
		*ctx = ctx.next(true)
	} else {
		bin = 1 - int(ctx.Mps)
		a.offset -= rMPS
		a.rng = rLPS
		*ctx = ctx.next(false)
	}
	a.renorm()
	return bin
}

// bypassContext is a fixed, non-adapting 50/50 context: lg_pmps = 1024
// (half of the 2048 scale) makes rangeLPS split rng exactly in two.
var bypassContext = Context{LgPmps: 1024, Mps: 0, Cycno: 0}

// DecodeBypass decodes one equal-probability bin, per spec.md section
// 4.2's "decode equal-probability bin" specialization. It is implemented
// as DecodeBin against a fixed 50/50 context that is never updated, rather
// than a separate bit-shifting path, so it shares DecodeBin's renorm and
// round-trip guarantees exactly.
func (a *AEC) DecodeBypass() int {
	ctx := bypassContext
	return a.DecodeBin(&ctx)
}

// DecodeFinal decodes the end-of-slice / terminating bin, per spec.md
// section 4.2's "decode-final" specialization.
func (a *AEC) DecodeFinal() int {
	if a.Error() {
		return 0
	}
	a.rng -= 2
	if a.offset >= a.rng {
		return 1
	}
	a.renorm()
	return 0
}

// DecodeRunToZero returns the count of MPS bins decoded before the first
// LPS, capped at max, per spec.md section 4.2's decode-run-to-zero helper.
func (a *AEC) DecodeRunToZero(ctx *Context, max int) int {
	n := 0
	for n < max {
		priorMPS := int(ctx.Mps)
		if a.DecodeBin(ctx) != priorMPS {
			break
		}
		n++
	}
	return n
}

// DecodeUnaryMax decodes a unary-coded value using first for the first bin
// and cont for every continuation bin, capped at max, per spec.md section 4.2's
// decode-unary-max helper.
func (a *AEC) DecodeUnaryMax(first, cont *Context, max int) int {
	n := 0
	c := first
	for n < max {
		if a.DecodeBin(c) == 0 {
			break
		}
		n++
		c = cont
	}
	return n
}
