package avs2dec

import "github.com/pkg/errors"

// Error taxonomy, per spec.md section 7.
var (
	// ErrBitstreamUnderrun indicates the AEC or BitReader ran past the end
	// of the slice buffer. The frame carrying it is emitted with its error
	// flag set rather than dropped, so POC ordering downstream is preserved.
	ErrBitstreamUnderrun = errors.New("avs2dec: bitstream underrun")

	// ErrInvalidReference indicates a motion vector or skip/direct candidate
	// referenced a reference-picture index that does not exist in the
	// current reference list. The slice aborts.
	ErrInvalidReference = errors.New("avs2dec: invalid reference index")

	// ErrResourceExhausted indicates a frame or scratch buffer could not be
	// allocated. It surfaces at the API boundary immediately; it is not
	// local to one frame.
	ErrResourceExhausted = errors.New("avs2dec: resource exhausted")

	// ErrBackgroundRefUnsupported names S-frame/G-frame background
	// reference handling. spec.md section 9 notes the original's handling
	// of this case is an unconfirmed, commented-out branch. No function in
	// this package returns it: G and S frames go through the same decode
	// path as the other frame types, with no background reference.
	ErrBackgroundRefUnsupported = errors.New("avs2dec: background-reference (S/G-frame) decoding is not supported")

	// ErrClosed is returned by Decode and by a repeated Close after Close
	// has released the decoder's resources.
	ErrClosed = errors.New("avs2dec: decoder is closed")
)

// SyntaxRangeError records a syntax element whose decoded value fell
// outside its legal range and was clipped, per spec.md section 7's
// Syntax-range-violation taxonomy entry. Decoding continues; bit-exact
// match is not guaranteed from this point on, so these are surfaced for
// logging rather than treated as fatal.
type SyntaxRangeError struct {
	Element    string
	Got, Clamp int
}

func (e *SyntaxRangeError) Error() string {
	return errors.Errorf("avs2dec: %s out of range: got %d, clipped to %d", e.Element, e.Got, e.Clamp).Error()
}

// clip3 clamps z to the inclusive range [x, y], mirroring section 9-5's
// Clip3 used throughout the reconstruction pipeline.
func clip3(x, y, z int) int {
	if z < x {
		return x
	}
	if z > y {
		return y
	}
	return z
}

func absi(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func mini(a, b int) int {
	if a < b {
		return a
	}
	return b
}
