package recast

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gorustyt/gonavbake/common"
)

var partitions = []RcPartitionType{RC_PARTITION_WATERSHED, RC_PARTITION_MONOTONE, RC_PARTITION_LAYERS}

func regionAt(chf *RcCompactHeightfield, x, z int) int {
	i := spanAt(chf, x, z)
	if i < 0 {
		return 0
	}
	return chf.Spans[i].Reg
}

// plateaus returns a floor made of square w*w plateaus at the given origins.
func plateaus(gridW, gridH, size int, origins ...[2]int) gridFloor {
	return gridFloor{w: gridW, h: gridH, height: func(x, z int) int {
		for _, o := range origins {
			if x >= o[0] && x < o[0]+size && z >= o[1] && z < o[1]+size {
				return 1
			}
		}
		return -1
	}}
}

func TestBuildDistanceField(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 5, h: 5}.compact(t, ctx)
	RcBuildDistanceField(ctx, chf)

	assertTrue(t, len(chf.Dist) == chf.SpanCount, "one distance per span")
	assertTrue(t, chf.Dist[spanAt(chf, 0, 0)] == 0, "edge spans have zero distance")
	centre := int(chf.Dist[spanAt(chf, 2, 2)])
	assertTrue(t, centre > 0, "interior span is away from the boundary")
	assertTrue(t, chf.MaxDistance >= centre, "max distance bounds every span")
}

func TestBuildRegionsRequiresDistanceField(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 4, h: 4}.compact(t, ctx)
	err := RcBuildRegions(ctx, chf, 0, 0, 0)
	assertTrue(t, errors.Is(err, ErrInvalidInput), "watershed without distance field is rejected")
}

func TestBuildRegionsWithPartitionUnknown(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 4, h: 4}.compact(t, ctx)
	err := RcBuildRegionsWithPartition(ctx, chf, RcPartitionType(42), 0, 0, 0)
	assertTrue(t, errors.Is(err, ErrInvalidInput), "unknown partition is rejected")
}

func TestBuildRegionsMinArea(t *testing.T) {
	for _, partition := range partitions {
		t.Run(partition.String(), func(t *testing.T) {
			ctx := newTestContext(t)

			full := gridFloor{w: 4, h: 4}.compact(t, ctx)
			if err := RcBuildRegionsWithPartition(ctx, full, partition, 0, 16, 0); err != nil {
				t.Fatal(err)
			}
			for i := range full.Spans {
				assertTrue(t, full.Spans[i].Reg != 0, "island as large as the minimum is kept")
			}
			assertTrue(t, full.MaxRegions >= 1, "kept island has a region")

			notched := gridFloor{w: 4, h: 4, height: func(x, z int) int {
				if x == 3 && z == 3 {
					return -1
				}
				return 1
			}}.compact(t, ctx)
			if err := RcBuildRegionsWithPartition(ctx, notched, partition, 0, 16, 0); err != nil {
				t.Fatal(err)
			}
			for i := range notched.Spans {
				assertTrue(t, notched.Spans[i].Reg == 0, "island smaller than the minimum is removed")
			}
			assertTrue(t, notched.MaxRegions == 0, "no regions left")
		})
	}
}

func TestBuildRegionsKeepsBorderIslands(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 10, h: 10}.compact(t, ctx)
	if err := RcBuildRegionsWithPartition(ctx, chf, RC_PARTITION_WATERSHED, 2, 1000, 0); err != nil {
		t.Fatal(err)
	}
	assertTrue(t, chf.BorderSize == 2, "border size recorded")
	for z := 0; z < 10; z++ {
		for x := 0; x < 10; x++ {
			r := regionAt(chf, x, z)
			inBorder := x < 2 || z < 2 || x >= 8 || z >= 8
			if inBorder {
				assertTrue(t, r&RC_BORDER_REG != 0, "border spans carry the border flag")
			} else {
				assertTrue(t, r != 0 && r&RC_BORDER_REG == 0, "island touching the tile border survives the minimum")
			}
		}
	}
}

func TestBuildRegionsSeparatePlateaus(t *testing.T) {
	for _, partition := range partitions {
		t.Run(partition.String(), func(t *testing.T) {
			ctx := newTestContext(t)
			chf := plateaus(12, 5, 4, [2]int{0, 0}, [2]int{7, 0}).compact(t, ctx)
			if err := RcBuildRegionsWithPartition(ctx, chf, partition, 0, 0, 0); err != nil {
				t.Fatal(err)
			}

			left := map[int]bool{}
			right := map[int]bool{}
			for z := 0; z < 4; z++ {
				for x := 0; x < 4; x++ {
					left[regionAt(chf, x, z)] = true
					right[regionAt(chf, x+7, z)] = true
				}
			}
			for r := range left {
				assertTrue(t, r != 0, "left plateau is fully assigned")
				assertTrue(t, !right[r], "plateaus never share a region")
			}
			for r := range right {
				assertTrue(t, r != 0, "right plateau is fully assigned")
				assertTrue(t, r <= chf.MaxRegions, "region ids are compacted")
			}
		})
	}
}

func TestBuildRegionsMonotoneRectangle(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 12, h: 6}.compact(t, ctx)
	if err := RcBuildRegionsMonotone(ctx, chf, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	assertTrue(t, chf.MaxRegions == 1, "rectangle is a single monotone region")
	for i := range chf.Spans {
		assertTrue(t, chf.Spans[i].Reg == 1, "every span belongs to region 1")
	}
}

func TestBuildRegionsWatershedCoversFloor(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 16, h: 9}.compact(t, ctx)
	if err := RcBuildRegionsWithPartition(ctx, chf, RC_PARTITION_WATERSHED, 0, 0, 20); err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for i := range chf.Spans {
		r := chf.Spans[i].Reg
		assertTrue(t, r > 0 && r <= chf.MaxRegions, "every walkable span is assigned a compact id")
		seen[r] = true
	}
	assertTrue(t, len(seen) == chf.MaxRegions, "compacted ids are dense")
}

func TestBuildRegionsSkipsNullArea(t *testing.T) {
	ctx := newTestContext(t)
	chf := gridFloor{w: 6, h: 6}.compact(t, ctx)
	chf.Areas[spanAt(chf, 2, 2)] = RC_NULL_AREA
	if err := RcBuildRegionsMonotone(ctx, chf, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	assertTrue(t, regionAt(chf, 2, 2) == 0, "null area spans get no region")
	assertTrue(t, regionAt(chf, 3, 3) != 0, "walkable spans get a region")
}

func TestBuildRegionsSeparatesAreaTypes(t *testing.T) {
	for _, partition := range partitions {
		t.Run(partition.String(), func(t *testing.T) {
			ctx := newTestContext(t)
			chf := gridFloor{w: 8, h: 4, area: func(x, z int) uint8 {
				if x < 4 {
					return 1
				}
				return 2
			}}.compact(t, ctx)
			if err := RcBuildRegionsWithPartition(ctx, chf, partition, 0, 0, 100); err != nil {
				t.Fatal(err)
			}
			for z := 0; z < 4; z++ {
				for x := 0; x < 4; x++ {
					a, b := regionAt(chf, x, z), regionAt(chf, x+4, z)
					assertTrue(t, a != 0 && b != 0, "both halves assigned")
					assertTrue(t, a != b, "different areas never share a region")
				}
			}
		})
	}
}

func TestBuildLayerRegionsRing(t *testing.T) {
	ctx := newTestContext(t)
	chf := ringFloor().compact(t, ctx)
	if err := RcBuildLayerRegions(ctx, chf, 0, 0); err != nil {
		t.Fatal(err)
	}
	assertTrue(t, chf.MaxRegions == 1, "a flat ring is a single layer")
	for i := range chf.Spans {
		assertTrue(t, chf.Spans[i].Reg == 1, "every ring span is in layer 1")
	}
}

// ringFloor is a 9x9 floor with a 3x3 hole in the middle.
func ringFloor() gridFloor {
	return gridFloor{w: 9, h: 9, height: func(x, z int) int {
		if x >= 3 && x <= 5 && z >= 3 && z <= 5 {
			return -1
		}
		return 1
	}}
}

func TestCompactRing(t *testing.T) {
	ring := compactRing([]int{1, 1, 2, 3, 3, 1})
	assertTrue(t, len(ring) == 3, "runs collapse including the wrap")
	assertTrue(t, ring[0] == 1 && ring[1] == 2 && ring[2] == 3, "order kept")
	assertTrue(t, len(compactRing([]int{4, 4, 4})) == 1, "uniform ring keeps one entry")
}

func TestRegionCanMergeWith(t *testing.T) {
	regions := newRegions(4)
	regions[1].areaType = 1
	regions[2].areaType = 1
	regions[3].areaType = 2
	regions[1].connections = []int{2, 0, 2}
	regions[2].connections = []int{1}

	assertTrue(t, !regions[1].canMergeWith(&regions[2]), "two shared edges do not merge")
	regions[1].connections = []int{2, 0}
	assertTrue(t, regions[1].canMergeWith(&regions[2]), "one shared edge merges")
	assertTrue(t, !regions[1].canMergeWith(&regions[3]), "different area types do not merge")

	regions[1].floors = []int{2}
	assertTrue(t, !regions[1].canMergeWith(&regions[2]), "stacked regions do not merge")
}

type namedFloor struct {
	name  string
	floor gridFloor
}

// testFloors are fields with holes, steps, cliffs, islands and mixed areas.
func testFloors() []namedFloor {
	return []namedFloor{
		{"ring", ringFloor()},
		{"plateaus", plateaus(12, 5, 4, [2]int{0, 0}, [2]int{7, 0})},
		{"stairs", gridFloor{w: 12, h: 8, height: func(x, z int) int { return 1 + x/3 }}},
		{"cliffs", gridFloor{w: 12, h: 8, height: func(x, z int) int { return 1 + 2*(x/4) }}},
		{"comb", gridFloor{w: 11, h: 9, height: func(x, z int) int {
			if x%2 == 1 && z >= 2 && z <= 6 {
				return -1
			}
			return 1
		}}},
		{"quadrants", gridFloor{w: 8, h: 8, area: func(x, z int) uint8 {
			return uint8(1 + x/4 + 2*(z/4))
		}}},
		{"obstacle", obstacleFloor()},
	}
}

// components counts the connected pieces of every key, walking span
// connections between spans of equal key. Spans keyed 0 are skipped.
func components(chf *RcCompactHeightfield, key func(i int) int) map[int]int {
	seen := make([]bool, chf.SpanCount)
	comps := map[int]int{}
	var stack [][3]int
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			c := chf.Cells[x+z*chf.Width]
			for i := c.Index; i < c.Index+c.Count; i++ {
				k := key(i)
				if seen[i] || k == 0 {
					continue
				}
				comps[k]++
				seen[i] = true
				stack = append(stack[:0], [3]int{x, z, i})
				for len(stack) > 0 {
					cur := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					s := &chf.Spans[cur[2]]
					for dir := 0; dir < 4; dir++ {
						if s.GetCon(dir) == RC_NOT_CONNECTED {
							continue
						}
						ai := chf.NeighbourIndex(cur[0], cur[1], s, dir)
						if seen[ai] || key(ai) != k {
							continue
						}
						seen[ai] = true
						stack = append(stack, [3]int{cur[0] + common.GetDirOffsetX(dir), cur[1] + common.GetDirOffsetY(dir), ai})
					}
				}
			}
		}
	}
	return comps
}

func regionKey(chf *RcCompactHeightfield) func(i int) int {
	return func(i int) int {
		if r := chf.Spans[i].Reg; r&RC_BORDER_REG == 0 {
			return r
		}
		return 0
	}
}

// assertDenseIDs checks that the non-border region ids in use are exactly
// 1..MaxRegions.
func assertDenseIDs(t *testing.T, chf *RcCompactHeightfield) {
	t.Helper()
	used := map[int]bool{}
	for i := range chf.Spans {
		if r := chf.Spans[i].Reg; r != 0 && r&RC_BORDER_REG == 0 {
			used[r] = true
		}
	}
	for r := range used {
		assertTrue(t, r >= 1 && r <= chf.MaxRegions, "region id within 1..MaxRegions")
	}
	if len(used) != chf.MaxRegions {
		t.Errorf("%d region ids in use, MaxRegions is %d", len(used), chf.MaxRegions)
	}
}

func TestBuildRegionsDenseIDs(t *testing.T) {
	for _, partition := range partitions {
		for _, border := range []int{0, 2} {
			t.Run(fmt.Sprintf("%s/border_%d", partition, border), func(t *testing.T) {
				ctx := newTestContext(t)
				chf := gridFloor{w: 12, h: 12}.compact(t, ctx)
				if err := RcBuildRegionsWithPartition(ctx, chf, partition, border, 0, 1000); err != nil {
					t.Fatal(err)
				}
				assertDenseIDs(t, chf)
				if chf.MaxRegions != 1 {
					t.Errorf("MaxRegions is %d, want 1", chf.MaxRegions)
				}
				for z := border; z < 12-border; z++ {
					for x := border; x < 12-border; x++ {
						assertTrue(t, regionAt(chf, x, z) == 1, "merged floor is region 1")
					}
				}
			})
		}
	}
}

func TestBuildRegionsAreConnected(t *testing.T) {
	for _, partition := range partitions {
		for _, tf := range testFloors() {
			t.Run(partition.String()+"/"+tf.name, func(t *testing.T) {
				ctx := newTestContext(t)
				chf := tf.floor.compact(t, ctx)
				if err := RcBuildRegionsWithPartition(ctx, chf, partition, 0, 2, 8); err != nil {
					t.Fatal(err)
				}
				assertDenseIDs(t, chf)
				for r, n := range components(chf, regionKey(chf)) {
					if n != 1 {
						t.Errorf("region %d is split into %d pieces", r, n)
					}
				}
			})
		}
	}
}

// isolatedCells returns a w*h field of walkable spans without neighbours,
// so the row sweep starts a region at every span.
func isolatedCells(w, h int) *RcCompactHeightfield {
	n := w * h
	chf := &RcCompactHeightfield{
		Width:          w,
		Height:         h,
		SpanCount:      n,
		WalkableHeight: 2,
		WalkableClimb:  1,
		Cells:          make([]RcCompactCell, n),
		Spans:          make([]RcCompactSpan, n),
		Areas:          make([]uint8, n),
	}
	for i := 0; i < n; i++ {
		chf.Cells[i] = RcCompactCell{Index: i, Count: 1}
		chf.Spans[i] = RcCompactSpan{
			Y:   1,
			H:   0xff,
			Con: [4]uint8{RC_NOT_CONNECTED, RC_NOT_CONNECTED, RC_NOT_CONNECTED, RC_NOT_CONNECTED},
		}
		chf.Areas[i] = RC_WALKABLE_AREA
	}
	return chf
}

func TestBuildRegionsIDLimit(t *testing.T) {
	for _, partition := range []RcPartitionType{RC_PARTITION_MONOTONE, RC_PARTITION_LAYERS} {
		t.Run(partition.String(), func(t *testing.T) {
			ctx := newTestContext(t)
			// 217*151 regions use every id below the border flag.
			chf := isolatedCells(217, 151)
			if err := RcBuildRegionsWithPartition(ctx, chf, partition, 0, 0, 0); err != nil {
				t.Fatal(err)
			}
			assertTrue(t, chf.MaxRegions == RC_BORDER_REG-1, "every id up to 0x7fff is usable")
			assertTrue(t, chf.Spans[chf.SpanCount-1].Reg == RC_BORDER_REG-1, "last span gets id 0x7fff")

			chf = isolatedCells(256, 128)
			err := RcBuildRegionsWithPartition(ctx, chf, partition, 0, 0, 0)
			assertTrue(t, errors.Is(err, ErrRegionIDOverflow), "one region more overflows")
		})
	}
}
