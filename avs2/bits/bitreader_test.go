package bits

import "testing"

func TestU(t *testing.T) {
	r := NewBitReader([]byte{0x8f, 0xe3}) // 1000 1111, 1110 0011
	cases := []struct {
		n    int
		want uint32
	}{
		{4, 0x8},
		{2, 0x3},
		{4, 0xf},
		{6, 0x23},
	}
	for i, c := range cases {
		got := r.U(c.n)
		if got != c.want {
			t.Errorf("read %d: U(%d) = %#x, want %#x", i, c.n, got, c.want)
		}
	}
	if r.Error() {
		t.Fatal("unexpected sticky error")
	}
}

func TestUnderrunSticksError(t *testing.T) {
	r := NewBitReader([]byte{0xff})
	r.U(8)
	if r.U(1) != 0 {
		t.Fatal("expected 0 on underrun")
	}
	if !r.Error() {
		t.Fatal("expected sticky error after underrun")
	}
	if r.U(4) != 0 {
		t.Fatal("expected reads to keep returning 0 while error is set")
	}
	r.ClearError()
	if r.Error() {
		t.Fatal("ClearError should reset the flag")
	}
}

func TestUE(t *testing.T) {
	// codewords "1" "010" "011" "00100" concatenated and zero-padded to a
	// byte boundary decode to 0, 1, 2, 3.
	r := NewBitReader([]byte{0xA6, 0x40})
	want := []uint32{0, 1, 2, 3}
	for i, w := range want {
		got := r.UE()
		if got != w {
			t.Errorf("UE() #%d = %d, want %d", i, got, w)
		}
	}
}

func TestSE(t *testing.T) {
	// ue codewords for 0,1,2,3,4 concatenated: 1 010 011 00100 00101,
	// padded with zero bits to a byte boundary.
	r := NewBitReader([]byte{0xA6, 0x42, 0x80})
	// ue values 0,1,2,3,4 map to se values 0,1,-1,2,-2.
	want := []int32{0, 1, -1, 2, -2}
	for i, w := range want {
		got := r.SE()
		if got != w {
			t.Errorf("SE() #%d = %d, want %d", i, got, w)
		}
	}
}

func TestByteAlign(t *testing.T) {
	r := NewBitReader([]byte{0xff, 0x00})
	r.U(3)
	if r.ByteAligned() {
		t.Fatal("should not be byte aligned after reading 3 bits")
	}
	r.ByteAlign()
	if !r.ByteAligned() || r.BytePos() != 1 {
		t.Fatalf("ByteAlign: bytePos = %d, aligned = %v", r.BytePos(), r.ByteAligned())
	}
}

func TestPeekStartcodePrefix(t *testing.T) {
	r := NewBitReader([]byte{0, 0, 1, 0xAB})
	if !r.PeekStartcodePrefix() {
		t.Fatal("expected startcode prefix to be detected")
	}
	if r.BytePos() != 0 {
		t.Fatal("peek must not advance the reader")
	}
}
