package avs2dec

import "testing"

func TestBlockMapOutOfBounds(t *testing.T) {
	b := NewBlockMap(4, 4)
	if b.InBounds(-1, 0) || b.InBounds(0, -1) || b.InBounds(4, 0) || b.InBounds(0, 4) {
		t.Fatal("expected out-of-bounds positions to report false")
	}
	if b.SliceIDAt(-1, -1) != -1 {
		t.Fatal("expected -1 slice id for an out-of-bounds query")
	}
	if b.IsDecoded(10, 10) {
		t.Fatal("expected out-of-bounds positions to report undecoded")
	}
}

func TestBlockMapMarkDecoded(t *testing.T) {
	b := NewBlockMap(8, 8)
	b.MarkDecoded(2, 2, 2, 2, 5)

	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			if !b.IsDecoded(x, y) {
				t.Fatalf("(%d,%d) should be decoded", x, y)
			}
			if b.SliceIDAt(x, y) != 5 {
				t.Fatalf("(%d,%d) slice id got %d, want 5", x, y, b.SliceIDAt(x, y))
			}
		}
	}
	if b.IsDecoded(1, 2) || b.IsDecoded(4, 2) {
		t.Fatal("neighboring untouched units should remain undecoded")
	}
}

func TestNeighborQueryAvailableRequiresAllThree(t *testing.T) {
	b := NewBlockMap(8, 8)
	nq := NewNeighborQuery(b)

	// Not yet decoded.
	if nq.Available(1, 2, 2) {
		t.Fatal("undecoded block should not be available")
	}

	b.MarkDecoded(2, 2, 1, 1, 1)

	// Decoded, but wrong slice.
	if nq.Available(2, 2, 2) {
		t.Fatal("cross-slice block should not be available")
	}

	// Decoded and same slice.
	if !nq.Available(1, 2, 2) {
		t.Fatal("decoded same-slice in-bounds block should be available")
	}

	// Out of bounds.
	if nq.Available(1, -1, 0) {
		t.Fatal("out-of-bounds block should not be available")
	}
}

func TestSpatialNeighborsPositions(t *testing.T) {
	b := NewBlockMap(16, 16)
	nq := NewNeighborQuery(b)

	// A PU at (4,4) sized 2x3 (8x12 samples in 4x4 units): bsx=2, bsy=3.
	n := nq.Spatial(0, 4, 4, 2, 3)

	check := func(name string, got Neighbor, wantX, wantY int) {
		t.Helper()
		if got.X != wantX || got.Y != wantY {
			t.Errorf("%s: got (%d,%d), want (%d,%d)", name, got.X, got.Y, wantX, wantY)
		}
	}
	check("Left", n.Left, 3, 4)
	check("Left2", n.Left2, 3, 6)
	check("Top", n.Top, 4, 3)
	check("Top2", n.Top2, 5, 3)
	check("TopLeft", n.TopLeft, 3, 3)
	check("TopRight", n.TopRight, 6, 3)
}

func TestSpatialNeighborsAvailability(t *testing.T) {
	b := NewBlockMap(16, 16)
	nq := NewNeighborQuery(b)

	// Decode the entire row above and the column to the left, all slice 0.
	b.MarkDecoded(0, 3, 16, 1, 0)
	b.MarkDecoded(3, 4, 1, 3, 0)

	n := nq.Spatial(0, 4, 4, 2, 3)
	if !n.Top.Available || !n.Top2.Available || !n.TopLeft.Available || !n.TopRight.Available {
		t.Fatal("expected all top-row neighbors to be available")
	}
	if !n.Left.Available || !n.Left2.Available {
		t.Fatal("expected both left-column neighbors to be available")
	}
}
