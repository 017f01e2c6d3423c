package recast

import (
	"errors"
	"testing"
)

// gridFloor describes a w*h test floor: height(x, z) returns the top of the
// single span of a column, or -1 to leave the column empty.
type gridFloor struct {
	w, h   int
	height func(x, z int) int
	area   func(x, z int) uint8
}

func (g gridFloor) heightfield(t *testing.T, ctx *RcContext) *RcHeightfield {
	t.Helper()
	hf, err := RcCreateHeightfield(ctx, g.w, g.h, [3]float32{}, [3]float32{float32(g.w), 64, float32(g.h)}, 1, 1)
	if err != nil {
		t.Fatalf("create heightfield: %v", err)
	}
	for z := 0; z < g.h; z++ {
		for x := 0; x < g.w; x++ {
			top := 1
			if g.height != nil {
				top = g.height(x, z)
			}
			if top < 0 {
				continue
			}
			area := uint8(RC_WALKABLE_AREA)
			if g.area != nil {
				area = g.area(x, z)
			}
			if err := RcAddSpan(ctx, hf, x, z, 0, uint16(top), area, 1); err != nil {
				t.Fatalf("add span (%d,%d): %v", x, z, err)
			}
		}
	}
	return hf
}

func (g gridFloor) compact(t *testing.T, ctx *RcContext) *RcCompactHeightfield {
	t.Helper()
	chf, err := RcBuildCompactHeightfield(ctx, 2, 1, g.heightfield(t, ctx))
	if err != nil {
		t.Fatalf("build compact heightfield: %v", err)
	}
	return chf
}

// spanAt returns the index of the first span of column (x, z), or -1.
func spanAt(chf *RcCompactHeightfield, x, z int) int {
	c := chf.Cells[x+z*chf.Width]
	if c.Count == 0 {
		return -1
	}
	return c.Index
}

func TestBuildCompactHeightfieldFlat(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 4, h: 3}.compact(t, ctx)

	assertTrue(t, chf.SpanCount == 12, "one compact span per column")
	assertTrue(t, chf.WalkableHeight == 2 && chf.WalkableClimb == 1, "walkable limits recorded")
	assertTrue(t, chf.Bmax[1] == 64+2, "bounds raised by the walkable height")

	for z := 0; z < 3; z++ {
		for x := 0; x < 4; x++ {
			i := spanAt(chf, x, z)
			s := &chf.Spans[i]
			assertTrue(t, s.Y == 1, "floor starts at solid top")
			assertTrue(t, s.H == 0xff, "open column clamps height")
			assertTrue(t, chf.Areas[i] == RC_WALKABLE_AREA, "area carried over")
			assertTrue(t, (s.GetCon(0) == RC_NOT_CONNECTED) == (x == 0), "west link only off the edge")
			assertTrue(t, (s.GetCon(2) == RC_NOT_CONNECTED) == (x == 3), "east link only off the edge")
			assertTrue(t, (s.GetCon(3) == RC_NOT_CONNECTED) == (z == 0), "south link only off the edge")
			assertTrue(t, (s.GetCon(1) == RC_NOT_CONNECTED) == (z == 2), "north link only off the edge")
		}
	}
}

func TestBuildCompactHeightfieldClimb(t *testing.T) {
	ctx := newTestContext(t)
	// A step of 1 is climbable, a step of 3 is not.
	chf := gridFloor{w: 3, h: 1, height: func(x, z int) int {
		return []int{1, 2, 5}[x]
	}}.compact(t, ctx)

	s0 := &chf.Spans[spanAt(chf, 0, 0)]
	s1 := &chf.Spans[spanAt(chf, 1, 0)]
	assertTrue(t, s0.GetCon(2) != RC_NOT_CONNECTED, "step within climb is linked")
	assertTrue(t, s1.GetCon(0) != RC_NOT_CONNECTED, "links are symmetric")
	assertTrue(t, s1.GetCon(2) == RC_NOT_CONNECTED, "step above climb is not linked")
}

func TestBuildCompactHeightfieldSkipsNullSpans(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 3, h: 1, area: func(x, z int) uint8 {
		if x == 1 {
			return RC_NULL_AREA
		}
		return RC_WALKABLE_AREA
	}}.compact(t, ctx)

	assertTrue(t, chf.SpanCount == 2, "null spans are not compacted")
	assertTrue(t, chf.Cells[1].Count == 0, "null column is empty")
	assertTrue(t, chf.Spans[spanAt(chf, 0, 0)].GetCon(2) == RC_NOT_CONNECTED, "no link across the gap")
}

func TestBuildCompactHeightfieldLowCeiling(t *testing.T) {
	ctx := newTestContext(t)
	hf, err := RcCreateHeightfield(ctx, 2, 1, [3]float32{}, [3]float32{2, 64, 1}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Column 1 has a ceiling one voxel above the floor.
	assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 1, RC_WALKABLE_AREA, 1) == nil, "floor 0")
	assertTrue(t, RcAddSpan(ctx, hf, 1, 0, 0, 1, RC_WALKABLE_AREA, 1) == nil, "floor 1")
	assertTrue(t, RcAddSpan(ctx, hf, 1, 0, 2, 3, RC_NULL_AREA, 1) == nil, "ceiling")

	chf, err := RcBuildCompactHeightfield(ctx, 2, 1, hf)
	if err != nil {
		t.Fatal(err)
	}
	s := &chf.Spans[spanAt(chf, 1, 0)]
	assertTrue(t, s.H == 1, "span height stops at the ceiling")
	assertTrue(t, s.GetCon(0) == RC_NOT_CONNECTED, "gap lower than walkable height is not linked")
}

func TestBuildCompactHeightfieldTooManyLayers(t *testing.T) {
	ctx := newTestContext(t)
	hf, err := RcCreateHeightfield(ctx, 2, 1, [3]float32{}, [3]float32{2, 1024, 1}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Column 0 stacks more floors than a neighbour link can address, and
	// only the top one lines up with column 1.
	const floors = RC_MAX_LAYERS_PER_COLUMN + 4
	for i := 0; i < floors; i++ {
		y := uint16(i * 4)
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, y, y+1, RC_WALKABLE_AREA, 1) == nil, "stacked floor")
	}
	top := uint16((floors-1)*4 + 1)
	assertTrue(t, RcAddSpan(ctx, hf, 1, 0, 0, top, RC_WALKABLE_AREA, 1) == nil, "tall neighbour")

	_, err = RcBuildCompactHeightfield(ctx, 2, 1, hf)
	assertTrue(t, errors.Is(err, ErrTooManyLayers), "unaddressable neighbour layer fails the build")
}
