package recast

import "fmt"

const rcNullNei = 0xffff

type rcSweepSpan struct {
	rid int // row id
	id  int // region id
	ns  int // number samples
	nei int // neighbour id
}

// sweepRows partitions the walkable spans row by row. A run of spans along x
// keeps the id of the region below it when it is that region's only
// continuation, otherwise it starts a new region. It returns the next free id.
func sweepRows(chf *RcCompactHeightfield, borderSize int, srcReg []int, id int) int {
	w := chf.Width
	h := chf.Height

	sweeps := make([]rcSweepSpan, 1, max(w, h)+1)
	var prev []int

	// Sweep one line at a time.
	for y := borderSize; y < h-borderSize; y++ {
		// Collect spans from this row.
		prev = append(prev[:0], make([]int, id+1)...)
		sweeps = sweeps[:1]

		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				if chf.Areas[i] == RC_NULL_AREA {
					continue
				}

				// -x
				previd := 0
				if s.GetCon(0) != RC_NOT_CONNECTED {
					ai := chf.NeighbourIndex(x, y, s, 0)
					if srcReg[ai]&RC_BORDER_REG == 0 && chf.Areas[i] == chf.Areas[ai] {
						previd = srcReg[ai]
					}
				}

				if previd == 0 {
					previd = len(sweeps)
					sweeps = append(sweeps, rcSweepSpan{rid: previd})
				}

				// -y
				if s.GetCon(3) != RC_NOT_CONNECTED {
					ai := chf.NeighbourIndex(x, y, s, 3)
					if srcReg[ai] > 0 && srcReg[ai]&RC_BORDER_REG == 0 && chf.Areas[i] == chf.Areas[ai] {
						nr := srcReg[ai]
						sw := &sweeps[previd]
						if sw.nei == 0 || sw.nei == nr {
							sw.nei = nr
							sw.ns++
							prev[nr]++
						} else {
							sw.nei = rcNullNei
						}
					}
				}

				srcReg[i] = previd
			}
		}

		// Create unique ID.
		for i := 1; i < len(sweeps); i++ {
			sw := &sweeps[i]
			if sw.nei != rcNullNei && sw.nei != 0 && prev[sw.nei] == sw.ns {
				sw.id = sw.nei
			} else {
				sw.id = id
				id++
			}
		}

		// Remap IDs
		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if srcReg[i] > 0 && srcReg[i] < len(sweeps) {
					srcReg[i] = sweeps[srcReg[i]].id
				}
			}
		}
	}
	return id
}

// RcBuildRegionsMonotone partitions the walkable surface with row sweeps.
// It needs no distance field and is faster than watershed, at the cost of
// long thin regions. Small regions are filtered and merged like RcBuildRegions.
func RcBuildRegionsMonotone(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) error {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_REGIONS)()

	srcReg := make([]int, chf.SpanCount)

	// Mark border regions.
	id := paintBorderRegions(chf, borderSize, srcReg, 1)
	chf.BorderSize = borderSize

	id = sweepRows(chf, borderSize, srcReg, id)
	if id-1 > rcMaxRegionID {
		ctx.Log(RC_LOG_ERROR, "rcBuildRegionsMonotone: Region ID overflow")
		return fmt.Errorf("build monotone regions: %w: %d ids", ErrRegionIDOverflow, id-1)
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	chf.MaxRegions = id
	// Monotone partitioning does not generate overlapping regions.
	mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, &chf.MaxRegions, chf, srcReg)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Store the result out.
	for i := 0; i < chf.SpanCount; i++ {
		chf.Spans[i].Reg = srcReg[i]
	}
	return nil
}

// RcBuildLayerRegions partitions the walkable surface into non-overlapping
// layers. Regions may contain holes, which the contour stage merges into the
// outline.
func RcBuildLayerRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea int) error {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_REGIONS)()

	srcReg := make([]int, chf.SpanCount)

	id := paintBorderRegions(chf, borderSize, srcReg, 1)
	chf.BorderSize = borderSize

	id = sweepRows(chf, borderSize, srcReg, id)
	if id-1 > rcMaxRegionID {
		ctx.Log(RC_LOG_ERROR, "rcBuildLayerRegions: Region ID overflow")
		return fmt.Errorf("build layer regions: %w: %d ids", ErrRegionIDOverflow, id-1)
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge monotone regions to layers and remove small regions.
	chf.MaxRegions = id
	mergeAndFilterLayerRegions(ctx, minRegionArea, &chf.MaxRegions, chf, srcReg)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Store the result out.
	for i := 0; i < chf.SpanCount; i++ {
		chf.Spans[i].Reg = srcReg[i]
	}
	return nil
}
