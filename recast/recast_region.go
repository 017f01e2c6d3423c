package recast

import (
	"fmt"

	"github.com/gorustyt/gonavbake/common"
)

const (
	rcLogNbStacks = 3
	rcNbStacks    = 1 << rcLogNbStacks
	rcExpandIters = 8
	// Largest usable region id, ids with the border bit read as border regions.
	rcMaxRegionID = RC_BORDER_REG - 1
)

type levelStackEntry struct {
	x, y, index int
}

type dirtyEntry struct {
	index, region, distance2 int
}

func paintRectRegion(minx, maxx, miny, maxy int, regID int, chf *RcCompactHeightfield, srcReg []int) {
	w := chf.Width
	for y := miny; y < maxy; y++ {
		for x := minx; x < maxx; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if chf.Areas[i] != RC_NULL_AREA {
					srcReg[i] = regID
				}
			}
		}
	}
}

// paintBorderRegions flags the four border strips and returns the next free id.
func paintBorderRegions(chf *RcCompactHeightfield, borderSize int, srcReg []int, regionID int) int {
	if borderSize <= 0 {
		return regionID
	}
	w := chf.Width
	h := chf.Height
	// Make sure border will not overflow.
	bw := min(w, borderSize)
	bh := min(h, borderSize)
	// Paint regions
	paintRectRegion(0, bw, 0, h, regionID|RC_BORDER_REG, chf, srcReg)
	regionID++
	paintRectRegion(w-bw, w, 0, h, regionID|RC_BORDER_REG, chf, srcReg)
	regionID++
	paintRectRegion(0, w, 0, bh, regionID|RC_BORDER_REG, chf, srcReg)
	regionID++
	paintRectRegion(0, w, h-bh, h, regionID|RC_BORDER_REG, chf, srcReg)
	regionID++
	return regionID
}

func floodRegion(x, y, i int, level, r int, chf *RcCompactHeightfield, srcReg, srcDist []int, stack *Stack[levelStackEntry]) bool {
	area := chf.Areas[i]

	// Flood fill mark region.
	stack.Clear()
	stack.Push(levelStackEntry{x, y, i})
	srcReg[i] = r
	srcDist[i] = 0

	lev := 0
	if level >= 2 {
		lev = level - 2
	}
	count := 0

	for stack.Len() > 0 {
		back := stack.Pop()
		cx, cy, ci := back.x, back.y, back.index
		cs := &chf.Spans[ci]

		// Check if any of the neighbours already have a valid region set.
		ar := 0
		for dir := 0; dir < 4; dir++ {
			// 8 connected
			if cs.GetCon(dir) == RC_NOT_CONNECTED {
				continue
			}
			ax := cx + common.GetDirOffsetX(dir)
			ay := cy + common.GetDirOffsetY(dir)
			ai := chf.NeighbourIndex(cx, cy, cs, dir)
			if chf.Areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr&RC_BORDER_REG != 0 { // Do not take borders into account.
				continue
			}
			if nr != 0 && nr != r {
				ar = nr
				break
			}

			as := &chf.Spans[ai]
			dir2 := (dir + 1) & 0x3
			if as.GetCon(dir2) != RC_NOT_CONNECTED {
				ai2 := chf.NeighbourIndex(ax, ay, as, dir2)
				if chf.Areas[ai2] != area {
					continue
				}
				nr2 := srcReg[ai2]
				if nr2 != 0 && nr2 != r {
					ar = nr2
					break
				}
			}
		}
		if ar != 0 {
			srcReg[ci] = 0
			continue
		}

		count++

		// Expand neighbours.
		for dir := 0; dir < 4; dir++ {
			if cs.GetCon(dir) == RC_NOT_CONNECTED {
				continue
			}
			ax := cx + common.GetDirOffsetX(dir)
			ay := cy + common.GetDirOffsetY(dir)
			ai := chf.NeighbourIndex(cx, cy, cs, dir)
			if chf.Areas[ai] != area {
				continue
			}
			if int(chf.Dist[ai]) >= lev && srcReg[ai] == 0 {
				srcReg[ai] = r
				srcDist[ai] = 0
				stack.Push(levelStackEntry{ax, ay, ai})
			}
		}
	}

	return count > 0
}

// expandRegions grows existing regions into unassigned cells of the stack.
// Above level 0 the growth stops after maxIter rounds; at level 0 it runs
// until a round claims nothing.
func expandRegions(maxIter, level int, chf *RcCompactHeightfield, srcReg, srcDist []int,
	stack *Stack[levelStackEntry], dirtyEntries *Stack[dirtyEntry], fillStack bool) {
	w := chf.Width
	h := chf.Height

	if fillStack {
		// Find cells revealed by the raised level.
		stack.Clear()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := chf.Cells[x+y*w]
				for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
					if int(chf.Dist[i]) >= level && srcReg[i] == 0 && chf.Areas[i] != RC_NULL_AREA {
						stack.Push(levelStackEntry{x, y, i})
					}
				}
			}
		}
	} else { // use cells in the input stack
		// mark all cells which already have a region
		data := stack.Data()
		for j := range data {
			i := data[j].index
			if srcReg[i] != 0 {
				data[j].index = -1
			}
		}
	}

	iter := 0
	for stack.Len() > 0 {
		failed := 0
		dirtyEntries.Clear()
		data := stack.Data()

		for j := range data {
			x, y, i := data[j].x, data[j].y, data[j].index
			if i < 0 {
				failed++
				continue
			}

			r := srcReg[i]
			d2 := 0xffff
			area := chf.Areas[i]
			s := &chf.Spans[i]
			for dir := 0; dir < 4; dir++ {
				if s.GetCon(dir) == RC_NOT_CONNECTED {
					continue
				}
				ai := chf.NeighbourIndex(x, y, s, dir)
				if chf.Areas[ai] != area {
					continue
				}
				if srcReg[ai] > 0 && (srcReg[ai]&RC_BORDER_REG) == 0 {
					if srcDist[ai]+2 < d2 {
						r = srcReg[ai]
						d2 = srcDist[ai] + 2
					}
				}
			}
			if r != 0 {
				data[j].index = -1 // mark as used
				dirtyEntries.Push(dirtyEntry{i, r, d2})
			} else {
				failed++
			}
		}

		// Copy entries that differ between src and dst to keep them in sync.
		for _, e := range dirtyEntries.Data() {
			srcReg[e.index] = e.region
			srcDist[e.index] = e.distance2
		}

		if failed == stack.Len() {
			break
		}

		if level > 0 {
			iter++
			if iter >= maxIter {
				break
			}
		}
	}
}

func sortCellsByLevel(startLevel int, chf *RcCompactHeightfield, srcReg []int,
	stacks []Stack[levelStackEntry], loglevelsPerStack int) { // the levels per stack (2 in our case) as a bit shift
	w := chf.Width
	h := chf.Height
	startLevel = startLevel >> loglevelsPerStack

	for j := range stacks {
		stacks[j].Clear()
	}

	// put all cells in the level range into the appropriate stacks
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if chf.Areas[i] == RC_NULL_AREA || srcReg[i] != 0 {
					continue
				}

				level := int(chf.Dist[i]) >> loglevelsPerStack
				sID := startLevel - level
				if sID >= len(stacks) {
					continue
				}
				if sID < 0 {
					sID = 0
				}
				stacks[sID].Push(levelStackEntry{x, y, i})
			}
		}
	}
}

func appendStacks(srcStack, dstStack *Stack[levelStackEntry], srcReg []int) {
	for _, e := range srcStack.Data() {
		if e.index < 0 || srcReg[e.index] != 0 {
			continue
		}
		dstStack.Push(e)
	}
}

// / Builds region data for the heightfield using watershed partitioning.
// /
// / Non-null areas will consist of connected, non-overlapping walkable spans that form a single contour.
// / Contours will form simple polygons.
// /
// / If multiple regions form an area that is smaller than @p minRegionArea, then all spans will be
// / re-assigned to the zero (null) region.
// /
// / Watershed partitioning can result in smaller than necessary regions, especially in diagonal corridors.
// / @p mergeRegionArea helps reduce unnecessarily small regions.
// /
// / The distance field must be created using #RcBuildDistanceField before attempting to build regions.
func RcBuildRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_REGIONS)()

	if len(chf.Dist) != chf.SpanCount {
		return fmt.Errorf("build regions: %w: distance field missing", ErrInvalidInput)
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	srcReg := make([]int, chf.SpanCount)
	srcDist := make([]int, chf.SpanCount)

	lvlStacks := ctx.arena.lvlStacks[:]
	stack := &ctx.arena.stack
	dirty := &ctx.arena.dirty

	regionID := 1
	level := (chf.MaxDistance + 1) &^ 1

	regionID = paintBorderRegions(chf, borderSize, srcReg, regionID)
	chf.BorderSize = borderSize

	sID := -1
	for level > 0 {
		if level >= 2 {
			level -= 2
		} else {
			level = 0
		}
		sID = (sID + 1) & (rcNbStacks - 1)

		if sID == 0 {
			sortCellsByLevel(level, chf, srcReg, lvlStacks, 1)
		} else {
			appendStacks(&lvlStacks[sID-1], &lvlStacks[sID], srcReg) // copy left overs from last level
		}

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_EXPAND)
		// Expand current regions until no empty connected cells found.
		expandRegions(rcExpandIters, level, chf, srcReg, srcDist, &lvlStacks[sID], dirty, false)
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_EXPAND)

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
		// Mark new regions with IDs.
		for _, current := range lvlStacks[sID].Data() {
			x, y, i := current.x, current.y, current.index
			if i >= 0 && srcReg[i] == 0 {
				if regionID > rcMaxRegionID {
					ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
					ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)
					ctx.Log(RC_LOG_ERROR, "rcBuildRegions: Region ID overflow")
					return fmt.Errorf("build regions: %w: more than %d regions", ErrRegionIDOverflow, rcMaxRegionID)
				}
				if floodRegion(x, y, i, level, regionID, chf, srcReg, srcDist, stack) {
					regionID++
				}
			}
		}
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
	}

	// Expand current regions until no empty connected cells found.
	expandRegions(rcExpandIters*8, 0, chf, srcReg, srcDist, stack, dirty, true)

	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	chf.MaxRegions = regionID
	overlaps := mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, &chf.MaxRegions, chf, srcReg)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// If overlapping regions were found during merging, split those regions.
	if len(overlaps) > 0 {
		ctx.Log(RC_LOG_ERROR, "rcBuildRegions: %d overlapping regions.", len(overlaps))
	}

	// Write the result out.
	for i := 0; i < chf.SpanCount; i++ {
		chf.Spans[i].Reg = srcReg[i]
	}
	return nil
}

// RcBuildRegionsWithPartition dispatches to the partitioner selected by partition.
func RcBuildRegionsWithPartition(ctx *RcContext, chf *RcCompactHeightfield, partition RcPartitionType,
	borderSize, minRegionArea, mergeRegionArea int) error {
	switch partition {
	case RC_PARTITION_WATERSHED:
		// Prepare for region partitioning, by calculating distance field along the walkable surface.
		RcBuildDistanceField(ctx, chf)
		// Partition the walkable surface into simple regions without holes.
		return RcBuildRegions(ctx, chf, borderSize, minRegionArea, mergeRegionArea)
	case RC_PARTITION_MONOTONE:
		// Partition the walkable surface into simple regions without holes.
		// Monotone partitioning does not need distancefield.
		return RcBuildRegionsMonotone(ctx, chf, borderSize, minRegionArea, mergeRegionArea)
	case RC_PARTITION_LAYERS:
		// Partition the walkable surface into simple regions without holes.
		return RcBuildLayerRegions(ctx, chf, borderSize, minRegionArea)
	}
	return fmt.Errorf("%w: partition %v", ErrInvalidInput, partition)
}
