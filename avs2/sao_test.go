package avs2dec

import "testing"

func TestClassifyEdgeValleyAndPeak(t *testing.T) {
	if got := classifyEdge(5, 10, 10); got != eoFullValley {
		t.Fatalf("center lower than both neighbors should classify as full valley, got %d", got)
	}
	if got := classifyEdge(10, 5, 5); got != eoFullPeak {
		t.Fatalf("center higher than both neighbors should classify as full peak, got %d", got)
	}
	if got := classifyEdge(10, 10, 10); got != eoPlain {
		t.Fatalf("flat neighborhood should classify as plain, got %d", got)
	}
}

func TestApplySAOOffDoesNotTouchPlane(t *testing.T) {
	p := flatPlane(50, 8, 8)
	before := append([]uint16(nil), p.Samples...)
	ApplySAO(p, 0, 0, 8, 8, SAOParams{Mode: SAOOff}, 8)
	for i, v := range p.Samples {
		if v != before[i] {
			t.Fatalf("SAOOff must leave samples untouched, index %d: got %d want %d", i, v, before[i])
		}
	}
}

func TestApplySAOEdgeOffsetFlatPlaneIsPlain(t *testing.T) {
	p := flatPlane(100, 8, 8)
	params := SAOParams{Mode: SAOEdgeOffset, Edge: SAOEdge0}
	params.Offsets[eoFullValley] = 7
	params.Offsets[eoFullPeak] = -7
	ApplySAO(p, 0, 0, 8, 8, params, 8)
	for i, v := range p.Samples {
		if v != 100 {
			t.Fatalf("a flat plane classifies as eoPlain everywhere (zero offset), index %d: got %d", i, v)
		}
	}
}

func TestApplySAOBandOffsetAppliesToMatchingBand(t *testing.T) {
	p := flatPlane(64, 4, 4) // band = 64>>3 = 8 at 8-bit depth
	params := SAOParams{Mode: SAOBandOffset}
	params.BandStart[0] = 8
	params.BandOffset[0][0] = 5
	ApplySAO(p, 0, 0, 4, 4, params, 8)
	for i, v := range p.Samples {
		if v != 69 {
			t.Fatalf("index %d: got %d, want 69 (64+5 offset for the matching band)", i, v)
		}
	}
}
