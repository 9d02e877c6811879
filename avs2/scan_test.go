package avs2dec

import "testing"

func isPermutation(t *testing.T, name string, order []int, n int) {
	t.Helper()
	if len(order) != n {
		t.Fatalf("%s: got %d entries, want %d", name, len(order), n)
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n {
			t.Fatalf("%s: entry %d out of range [0,%d)", name, v, n)
		}
		if seen[v] {
			t.Fatalf("%s: entry %d repeated", name, v)
		}
		seen[v] = true
	}
}

func TestRasterToZigZagKnownGeometries(t *testing.T) {
	cases := []struct {
		w, h int
		want []int
	}{
		{4, 4, raster2ZZ4x4[:]},
		{8, 8, raster2ZZ8x8[:]},
		{2, 8, raster2ZZ2x8[:]},
		{8, 2, raster2ZZ8x2[:]},
	}
	for _, c := range cases {
		got := RasterToZigZag(c.w, c.h)
		if len(got) != len(c.want) {
			t.Fatalf("%dx%d: got %d entries, want %d", c.w, c.h, len(got), len(c.want))
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%dx%d[%d]: got %d, want %d", c.w, c.h, i, got[i], c.want[i])
			}
		}
	}
}

func TestRasterToZigZagUnknownGeometry(t *testing.T) {
	if got := RasterToZigZag(16, 16); got != nil {
		t.Fatalf("got %v, want nil for an unsupported geometry", got)
	}
}

func TestWithinCGIsPermutation(t *testing.T) {
	var flat []int
	for _, row := range tabScanCoeffPosInCG {
		flat = append(flat, row[:]...)
	}
	isPermutation(t, "tabScanCoeffPosInCG", flat, 16)
}

func TestCGScanOrderSquareIsPermutation(t *testing.T) {
	for _, tuLog2 := range []int{4, 5, 6} {
		st := NewScanTables(tuLog2, TUSplitNone)
		isPermutation(t, "square CG order", st.CGOrder, st.Grid.W*st.Grid.H)
	}
}

func TestCGScanOrderStripIsPermutation(t *testing.T) {
	for _, tuLog2 := range []int{4, 5, 6} {
		for _, split := range []TUSplit{TUSplitVertical, TUSplitHorizontal} {
			st := NewScanTables(tuLog2, split)
			isPermutation(t, "strip CG order", st.CGOrder, st.Grid.W*st.Grid.H)
		}
	}
}

func TestNewScanTablesCaches(t *testing.T) {
	a := NewScanTables(5, TUSplitNone)
	b := NewScanTables(5, TUSplitNone)
	if a != b {
		t.Fatal("expected NewScanTables to return the cached instance for the same geometry")
	}
}

func TestCGGridShapes(t *testing.T) {
	g := cgGridFor(5, TUSplitNone) // 32x32 TU -> 8x8 CGs
	if g.W != 8 || g.H != 8 {
		t.Fatalf("got %+v, want 8x8", g)
	}
	gv := cgGridFor(5, TUSplitVertical)
	if gv.W*gv.H != g.W*g.H {
		t.Fatalf("vertical split CG count %d != square CG count %d", gv.W*gv.H, g.W*g.H)
	}
	if gv.H <= gv.W {
		t.Fatalf("vertical split should be taller than wide, got %+v", gv)
	}
	gh := cgGridFor(5, TUSplitHorizontal)
	if gh.W <= gh.H {
		t.Fatalf("horizontal split should be wider than tall, got %+v", gh)
	}
}
