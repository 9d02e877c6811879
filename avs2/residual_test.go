package avs2dec

import (
	"testing"

	"github.com/ausocean/avs2dec/avs2/bits"
)

func TestRankFromAbsSumThresholds(t *testing.T) {
	cases := []struct {
		sum  int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 3},
		{5, 4},
		{100, 4},
	}
	for _, c := range cases {
		if got := rankFromAbsSum(c.sum); got != c.want {
			t.Errorf("rankFromAbsSum(%d) = %d, want %d", c.sum, got, c.want)
		}
	}
}

func TestLog2i(t *testing.T) {
	cases := []struct{ v, want int }{
		{1, 0}, {2, 1}, {4, 2}, {8, 3}, {16, 4}, {32, 5}, {64, 6},
	}
	for _, c := range cases {
		if got := log2i(c.v); got != c.want {
			t.Errorf("log2i(%d) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestBoolToInt(t *testing.T) {
	if boolToInt(true) != 1 {
		t.Fatalf("boolToInt(true) should be 1")
	}
	if boolToInt(false) != 0 {
		t.Fatalf("boolToInt(false) should be 0")
	}
}

func TestReadResidualTUProducesRightSizedBuffer(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = 0xA5
	}
	br := bits.NewBitReader(data)
	aec := NewAEC(br)
	seq := &SeqParams{Width: 64, Height: 64, BitDepth: 8}
	slice := NewSlice(seq, 32, FrameI, 0, 1, false)
	blocks := NewBlockMap(16, 16)
	parser := NewCUParser(seq, slice, aec, blocks, 0, [2]*Frame{}, 0)

	tu := parser.ReadResidualTU(8, 8, 32, true, true)
	if len(tu.Coeffs) != 64 {
		t.Fatalf("got coefficient buffer of length %d, want 64 (8x8 TU)", len(tu.Coeffs))
	}
	if tu.W != 8 || tu.H != 8 {
		t.Fatalf("got TU dims %dx%d, want 8x8", tu.W, tu.H)
	}
	if !tu.Luma {
		t.Fatalf("expected isLuma=true to be preserved on the returned TUInfo")
	}
}
