package recast

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Error(msg)
	}
}

func newTestContext(t *testing.T) *RcContext {
	return NewRcContext(zaptest.NewLogger(t))
}

func newTestHeightfield(t *testing.T, ctx *RcContext, verts []float32, cs, ch float32) *RcHeightfield {
	t.Helper()
	bmin, bmax := RcCalcBounds(verts)
	width, height := RcCalcGridSize(bmin, bmax, cs)
	hf, err := RcCreateHeightfield(ctx, width, height, bmin, bmax, cs, ch)
	if err != nil {
		t.Fatalf("create heightfield: %v", err)
	}
	return hf
}

// assertSingleSpan checks that column (x, z) holds exactly one span.
func assertSingleSpan(t *testing.T, hf *RcHeightfield, x, z int, smin, smax uint16, area uint8, msg string) {
	t.Helper()
	spans := hf.ColumnSpans(x, z)
	if len(spans) != 1 {
		t.Errorf("%s: column (%d,%d) has %d spans, want 1", msg, x, z, len(spans))
		return
	}
	s := spans[0]
	assertTrue(t, s.Smin == smin, msg)
	assertTrue(t, s.Smax == smax, msg)
	assertTrue(t, s.Area == area, msg)
	assertTrue(t, s.Next == RC_NULL_SPAN, msg)
}

func TestCalcBounds(t *testing.T) {
	verts := []float32{1, 2, 3}
	bmin, bmax := RcCalcBounds(verts)
	msg := "bounds of one vector"
	assertTrue(t, bmin == [3]float32{1, 2, 3}, msg)
	assertTrue(t, bmax == [3]float32{1, 2, 3}, msg)

	verts = []float32{
		1, 2, 3,
		0, 2, 5,
	}
	bmin, bmax = RcCalcBounds(verts)
	msg = "bounds of more than one vector"
	assertTrue(t, bmin == [3]float32{0, 2, 3}, msg)
	assertTrue(t, bmax == [3]float32{1, 2, 5}, msg)
}

func TestCalcGridSize(t *testing.T) {
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	bmin, bmax := RcCalcBounds(verts)
	width, height := RcCalcGridSize(bmin, bmax, 1.5)
	assertTrue(t, width == 1, "computes the size of an x & z axis grid")
	assertTrue(t, height == 2, "computes the size of an x & z axis grid")
}

func TestCreateHeightfield(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	hf := newTestHeightfield(t, ctx, verts, 1.5, 2)
	msg := "create a heightfield"
	assertTrue(t, hf.Width == 1 && hf.Height == 2, msg)
	assertTrue(t, hf.Bmin == [3]float32{0, 2, 3}, msg)
	assertTrue(t, hf.Bmax == [3]float32{1, 2, 6}, msg)
	assertTrue(t, hf.Cs == 1.5 && hf.Ch == 2, msg)
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			assertTrue(t, hf.ColumnHead(x, z) == RC_NULL_SPAN, msg)
		}
	}

	_, err := RcCreateHeightfield(ctx, 0, 4, hf.Bmin, hf.Bmax, 1, 1)
	assertTrue(t, errors.Is(err, ErrInvalidInput), "empty grid is rejected")
}

func TestMarkWalkableTriangles(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int{0, 1, 2}
	unwalkableTri := []int{0, 2, 1}

	areas := []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(ctx, 45, verts, walkableTri, areas)
	assertTrue(t, areas[0] == RC_WALKABLE_AREA, "One walkable triangle")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(ctx, 45, verts, unwalkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "One non-walkable triangle")

	areas = []uint8{42}
	RcMarkWalkableTriangles(ctx, 45, verts, unwalkableTri, areas)
	assertTrue(t, areas[0] == 42, "Non-walkable triangle area id's are not modified")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(ctx, 0, verts, walkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "Slopes equal to the max slope are considered unwalkable.")
}

func TestClearUnwalkableTriangles(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int{0, 1, 2}
	unwalkableTri := []int{0, 2, 1}

	areas := []uint8{42}
	RcClearUnwalkableTriangles(ctx, 45, verts, unwalkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "Sets area ID of unwalkable triangle to RC_NULL_AREA")

	areas = []uint8{42}
	RcClearUnwalkableTriangles(ctx, 45, verts, walkableTri, areas)
	assertTrue(t, areas[0] == 42, "Does not modify walkable triangle aread ID's")

	areas = []uint8{42}
	RcClearUnwalkableTriangles(ctx, 0, verts, walkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "Slopes equal to the max slope are considered unwalkable.")
}

func TestAddSpan(t *testing.T) {
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	const area = 42
	const flagMergeThr = 1

	t.Run("empty heightfield", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, 1.5, 2)
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 1, area, flagMergeThr) == nil, "Add a span to an empty heightfield.")
		assertSingleSpan(t, hf, 0, 0, 0, 1, area, "Add a span to an empty heightfield.")
	})

	t.Run("merge with existing", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, 1.5, 2)
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 1, area, flagMergeThr) == nil, "first span")
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 1, 2, area, flagMergeThr) == nil, "touching span")
		assertSingleSpan(t, hf, 0, 0, 0, 2, area, "Add a span that gets merged with an existing span.")
	})

	t.Run("merge above and below", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, 1.5, 2)
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 1, area, flagMergeThr) == nil, "lower span")
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 3, 4, area, flagMergeThr) == nil, "upper span")
		spans := hf.ColumnSpans(0, 0)
		assertTrue(t, len(spans) == 2, "disjoint spans stay apart")
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 1, 3, area, flagMergeThr) == nil, "middle span")
		assertSingleSpan(t, hf, 0, 0, 0, 4, area, "Add a span that merges with two spans above and below.")
	})

	t.Run("area merge threshold", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, 1.5, 2)
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 10, 1, flagMergeThr) == nil, "base span")
		// Tops one apart: the higher area id wins.
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 5, 11, 7, flagMergeThr) == nil, "near top")
		assertSingleSpan(t, hf, 0, 0, 0, 11, 7, "area max within threshold")
		// Tops far apart: the new area replaces the old one.
		assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 20, 3, flagMergeThr) == nil, "far top")
		assertSingleSpan(t, hf, 0, 0, 0, 20, 3, "area replaced beyond threshold")
	})

	t.Run("out of bounds", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, 1.5, 2)
		err := RcAddSpan(ctx, hf, 5, 0, 0, 1, area, flagMergeThr)
		assertTrue(t, errors.Is(err, ErrOutOfBounds), "span outside the grid")
	})
}

func TestAddSpanKeepsColumnsSorted(t *testing.T) {
	ctx := newTestContext(t)
	hf, err := RcCreateHeightfield(ctx, 1, 1, [3]float32{}, [3]float32{1, 100, 1}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	inserts := [][2]uint16{{40, 42}, {10, 12}, {60, 61}, {11, 20}, {0, 2}, {30, 35}, {35, 38}, {90, 95}, {70, 71}}
	for _, in := range inserts {
		if err := RcAddSpan(ctx, hf, 0, 0, in[0], in[1], RC_WALKABLE_AREA, 1); err != nil {
			t.Fatal(err)
		}
	}
	spans := hf.ColumnSpans(0, 0)
	for i, s := range spans {
		assertTrue(t, s.Smin < s.Smax, "span has positive height")
		if i > 0 {
			assertTrue(t, spans[i-1].Smax < s.Smin, "spans sorted and separated by a gap")
		}
	}
	// {10,12}+{11,20} and {30,35}+{35,38} merge.
	assertTrue(t, len(spans) == 7, "overlapping and touching spans merged")
}

func TestRasterizeTriangle(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	hf := newTestHeightfield(t, ctx, verts, .5, .5)
	const area = 42
	RcRasterizeTriangle(ctx, verts[0:], verts[3:], verts[6:], area, hf, 1)

	msg := "Rasterize a triangle"
	assertTrue(t, hf.ColumnHead(1, 0) == RC_NULL_SPAN, msg)
	assertSingleSpan(t, hf, 0, 0, 0, 1, area, msg)
	assertSingleSpan(t, hf, 0, 1, 0, 1, area, msg)
	assertSingleSpan(t, hf, 1, 1, 0, 1, area, msg)
}

func TestRasterizeTriangleOutsideGrid(t *testing.T) {
	// Bounding boxes overlap but the triangle itself misses the grid.
	ctx := newTestContext(t)
	hf, err := RcCreateHeightfield(ctx, 10, 10, [3]float32{0, 0, 0}, [3]float32{10, 10, 10}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	verts := []float32{
		-10.0, 5.5, -10.0,
		-10.0, 5.5, 3,
		3.0, 5.5, -10.0,
	}
	RcRasterizeTriangle(ctx, verts[0:], verts[3:], verts[6:], 42, hf, 1)
	for x := 0; x < hf.Width; x++ {
		for z := 0; z < hf.Height; z++ {
			assertTrue(t, hf.ColumnHead(x, z) == RC_NULL_SPAN, "rcRasterizeTriangle overlapping bb but non-overlapping triangle")
		}
	}
}

func TestRasterizeSkinnyTriangles(t *testing.T) {
	cases := []struct {
		name  string
		verts []float32
	}{
		{"Skinny triangle along x axis", []float32{
			5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, 0.005,

			-5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, -0.005,
		}},
		{"Skinny triangle along z axis", []float32{
			0.005, 0, 5,
			-0.005, 0, 5,
			0.005, 0, -5,

			0.005, 0, -5,
			-0.005, 0, 5,
			-0.005, 0, -5,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t)
			// The triangles are thinner than a cell, so the grid is padded
			// around them instead of fitted to their bounds.
			hf, err := RcCreateHeightfield(ctx, 10, 10, [3]float32{-5, -1, -5}, [3]float32{5, 1, 5}, 1, 1)
			if err != nil {
				t.Fatal(err)
			}
			err = RcRasterizeTriangleSoup(ctx, tc.verts, []uint8{42, 42}, hf, 1)
			assertTrue(t, err == nil, tc.name)
			away := func(v int) bool { return v < 4 || v > 5 }
			for z := 0; z < hf.Height; z++ {
				for x := 0; x < hf.Width; x++ {
					if away(x) && away(z) {
						assertTrue(t, hf.ColumnHead(x, z) == RC_NULL_SPAN, "no spans away from the sliver")
					}
				}
			}
		})
	}
}

// The three triangle list entry points must produce the same heightfield.
func TestRasterizeTrianglesOverloads(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
		0, 0, 1,
	}
	tris := []int{
		0, 1, 2,
		0, 3, 1,
	}
	areas := []uint8{1, 2}

	check := func(t *testing.T, hf *RcHeightfield, msg string) {
		w := hf.Width
		assertTrue(t, w == 2 && hf.Height == 4, msg)
		assertTrue(t, hf.ColumnHead(1, 0) == RC_NULL_SPAN, msg)
		assertTrue(t, hf.ColumnHead(1, 3) == RC_NULL_SPAN, msg)
		assertSingleSpan(t, hf, 0, 0, 0, 1, 1, msg)
		assertSingleSpan(t, hf, 0, 1, 0, 1, 1, msg)
		assertSingleSpan(t, hf, 0, 2, 0, 1, 2, msg)
		assertSingleSpan(t, hf, 0, 3, 0, 1, 2, msg)
		assertSingleSpan(t, hf, 1, 1, 0, 1, 1, msg)
		assertSingleSpan(t, hf, 1, 2, 0, 1, 2, msg)
	}

	t.Run("int indices", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, .5, .5)
		assertTrue(t, RcRasterizeTriangles(ctx, verts, tris, areas, hf, 1) == nil, "Rasterize some triangles")
		check(t, hf, "Rasterize some triangles")
	})

	t.Run("uint16 indices", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, .5, .5)
		utris := []uint16{0, 1, 2, 0, 3, 1}
		assertTrue(t, RcRasterizeTrianglesU16(ctx, verts, utris, areas, hf, 1) == nil, "Unsigned short overload")
		check(t, hf, "Unsigned short overload")
	})

	t.Run("triangle soup", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, .5, .5)
		soup := []float32{
			0, 0, 0,
			1, 0, 0,
			0, 0, -1,
			0, 0, 0,
			0, 0, 1,
			1, 0, 0,
		}
		assertTrue(t, RcRasterizeTriangleSoup(ctx, soup, areas, hf, 1) == nil, "Triangle list overload")
		check(t, hf, "Triangle list overload")
	})

	t.Run("mismatched areas", func(t *testing.T) {
		ctx := newTestContext(t)
		hf := newTestHeightfield(t, ctx, verts, .5, .5)
		err := RcRasterizeTriangles(ctx, verts, tris, areas[:1], hf, 1)
		assertTrue(t, errors.Is(err, ErrInvalidInput), "one area per triangle")
	})
}

// A closed box inside one column rasterizes to a single span, from the
// floor voxel through the voxel holding the lid.
func TestRasterizeUnitBox(t *testing.T) {
	ctx := newTestContext(t)
	hf, err := RcCreateHeightfield(ctx, 8, 8, [3]float32{0, 0, 0}, [3]float32{4, 4, 4}, .5, .5)
	if err != nil {
		t.Fatal(err)
	}
	verts, tris := boxMesh([3]float32{1.1, .5, 1.1}, [3]float32{1.4, 2.5, 1.4})
	areas := make([]uint8, len(tris)/3)
	for i := range areas {
		areas[i] = RC_WALKABLE_AREA
	}
	if err := RcRasterizeTriangles(ctx, verts, tris, areas, hf, 1); err != nil {
		t.Fatal(err)
	}

	assertSingleSpan(t, hf, 2, 2, 1, 6, RC_WALKABLE_AREA, "box column")
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			if x != 2 || z != 2 {
				assertTrue(t, hf.ColumnHead(x, z) == RC_NULL_SPAN, "no spans outside the box")
			}
		}
	}
}

// boxMesh returns the 12 triangles of an axis-aligned box.
func boxMesh(bmin, bmax [3]float32) ([]float32, []int) {
	verts := []float32{
		bmin[0], bmin[1], bmin[2],
		bmax[0], bmin[1], bmin[2],
		bmax[0], bmin[1], bmax[2],
		bmin[0], bmin[1], bmax[2],
		bmin[0], bmax[1], bmin[2],
		bmax[0], bmax[1], bmin[2],
		bmax[0], bmax[1], bmax[2],
		bmin[0], bmax[1], bmax[2],
	}
	tris := []int{
		0, 1, 2, 0, 2, 3, // bottom
		4, 6, 5, 4, 7, 6, // top
		0, 4, 5, 0, 5, 1,
		1, 5, 6, 1, 6, 2,
		2, 6, 7, 2, 7, 3,
		3, 7, 4, 3, 4, 0,
	}
	return verts, tris
}

func TestContextTimers(t *testing.T) {
	ctx := newTestContext(t)
	assertTrue(t, ctx.GetAccumulatedTime(RC_TIMER_TOTAL) < 0, "unused timer reports -1")
	stop := ctx.ScopedTimer(RC_TIMER_TOTAL)
	stop()
	assertTrue(t, ctx.GetAccumulatedTime(RC_TIMER_TOTAL) >= 0, "used timer accumulates")
	ctx.EnableTimer(false)
	assertTrue(t, ctx.GetAccumulatedTime(RC_TIMER_TOTAL) < 0, "disabled timers report -1")
}
