package recast

import "github.com/gorustyt/gonavbake/common"

const rcMaxHeightfieldHeight = 0xffff

// / Marks non-walkable spans as walkable if their maximum is within @p walkableClimb of the span below them.
// /
// / This removes small obstacles and rasterization artifacts that the agent would be able to walk over
// / such as curbs.  It also allows agents to move up terraced structures like stairs.
// /
// / Obstacle spans are marked walkable if: <tt>obstacleSpan.smax - walkableSpan.smax < walkableClimb</tt>
// /
// / @warning Will override the effect of #RcFilterLedgeSpans.  If both filters are used, call #RcFilterLedgeSpans only after applying this filter.
func RcFilterLowHangingWalkableObstacles(ctx *RcContext, walkableClimb int, hf *RcHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_FILTER_LOW_OBSTACLES)()

	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			previous := RC_NULL_SPAN
			previousWasWalkable := false
			var previousAreaID uint8 = RC_NULL_AREA

			for si := hf.heads[x+z*hf.Width]; si != RC_NULL_SPAN; previous, si = si, hf.pool[si].Next {
				span := &hf.pool[si]
				walkable := span.Area != RC_NULL_AREA

				// If current span is not walkable, but there is walkable span just below it and the height difference
				// is small enough for the agent to walk over, mark the current span as walkable too.
				if !walkable && previousWasWalkable {
					if common.Abs(int(span.Smax)-int(hf.pool[previous].Smax)) <= walkableClimb {
						span.Area = previousAreaID
					}
				}

				// Copy the original walkable value regardless of whether we changed it.
				// This prevents multiple consecutive non-walkable spans from being erroneously marked as walkable.
				previousWasWalkable = walkable
				previousAreaID = span.Area
			}
		}
	}
}

// / Marks spans that are ledges as not-walkable.
// /
// / A ledge is a span with one or more neighbors whose maximum is further away than @p walkableClimb
// / from the current span's maximum.
// / This method removes the impact of the overestimation of conservative voxelization
// / so the resulting mesh will not have regions hanging in the air over ledges.
// /
// / A span is a ledge if: <tt>abs(currentSpan.smax - neighborSpan.smax) > walkableClimb</tt>
func RcFilterLedgeSpans(ctx *RcContext, walkableHeight, walkableClimb int, hf *RcHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_FILTER_BORDER)()

	xSize := hf.Width
	zSize := hf.Height

	// Mark spans that are adjacent to a ledge as unwalkable..
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			for si := hf.heads[x+z*xSize]; si != RC_NULL_SPAN; si = hf.pool[si].Next {
				span := &hf.pool[si]
				// Skip non-walkable spans.
				if span.Area == RC_NULL_AREA {
					continue
				}

				floor := int(span.Smax)
				ceiling := rcMaxHeightfieldHeight
				if span.Next != RC_NULL_SPAN {
					ceiling = int(hf.pool[span.Next].Smin)
				}

				// The difference between this walkable area and the lowest neighbor walkable area.
				// This is the difference between the current span and all neighbor spans that have
				// enough space for an agent to move between, but not accounting at all for surface slope.
				lowestNeighborFloorDifference := rcMaxHeightfieldHeight

				// Min and max height of accessible neighbours.
				lowestTraversableNeighborFloor := int(span.Smax)
				highestTraversableNeighborFloor := int(span.Smax)

				for direction := 0; direction < 4; direction++ {
					neighborX := x + common.GetDirOffsetX(direction)
					neighborZ := z + common.GetDirOffsetY(direction)

					// Skip neighbours which are out of bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						lowestNeighborFloorDifference = -walkableClimb - 1
						break
					}

					neighborSpan := hf.heads[neighborX+neighborZ*xSize]

					// The most we can step down to the neighbor is the walkableClimb distance.
					// Start with the area under the neighbor span
					neighborCeiling := rcMaxHeightfieldHeight
					if neighborSpan != RC_NULL_SPAN {
						neighborCeiling = int(hf.pool[neighborSpan].Smin)
					}

					// Skip neighbour if the gap between the spans is too small.
					if min(ceiling, neighborCeiling)-floor >= walkableHeight {
						lowestNeighborFloorDifference = -walkableClimb - 1
						break
					}

					// For each span in the neighboring column...
					for ; neighborSpan != RC_NULL_SPAN; neighborSpan = hf.pool[neighborSpan].Next {
						ns := &hf.pool[neighborSpan]
						neighborFloor := int(ns.Smax)
						neighborCeiling = rcMaxHeightfieldHeight
						if ns.Next != RC_NULL_SPAN {
							neighborCeiling = int(hf.pool[ns.Next].Smin)
						}

						// Only consider neighboring areas that have enough overlap to be potentially traversable.
						if min(ceiling, neighborCeiling)-max(floor, neighborFloor) < walkableHeight {
							// No space to traverse between them.
							continue
						}

						neighborFloorDifference := neighborFloor - floor
						lowestNeighborFloorDifference = min(lowestNeighborFloorDifference, neighborFloorDifference)

						// Find min/max accessible neighbor height.
						// Only consider neighbors that are at most walkableClimb away.
						if common.Abs(neighborFloorDifference) <= walkableClimb {
							// There is space to move to the neighbor cell and the slope isn't too much.
							lowestTraversableNeighborFloor = min(lowestTraversableNeighborFloor, neighborFloor)
							highestTraversableNeighborFloor = max(highestTraversableNeighborFloor, neighborFloor)
						} else if neighborFloorDifference < -walkableClimb {
							// We already know this will be considered a ledge span so we can early-out
							break
						}
					}
				}

				// The current span is close to a ledge if the magnitude of the drop to any neighbour span exceeds the walkableClimb distance.
				// That is, there is a gap that is large enough to let an agent move between them, but the drop (surface slope) is too large.
				// (If this is the case, then biggestNeighborStepDown will be negative, so compare against the negative walkableClimb as a means of checking
				// the magnitude of the delta)
				if lowestNeighborFloorDifference < -walkableClimb {
					span.Area = RC_NULL_AREA
				} else if highestTraversableNeighborFloor-lowestTraversableNeighborFloor > walkableClimb {
					// If the difference between all neighbor floors is too large, this is a steep slope, so mark the span as an unwalkable ledge.
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}

// / Marks walkable spans as not walkable if the clearance above the span is less than the specified walkableHeight.
// /
// / For this filter, the clearance above the span is the distance from the span's
// / maximum to the minimum of the next higher span in the same column.
// / If there is no higher span in the column, the clearance is computed as the
// / distance from the top of the span to the maximum heightfield height.
func RcFilterWalkableLowHeightSpans(ctx *RcContext, walkableHeight int, hf *RcHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_FILTER_WALKABLE)()

	// Remove walkable flag from spans which do not have enough
	// space above them for the agent to stand there.
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			for si := hf.heads[x+z*hf.Width]; si != RC_NULL_SPAN; si = hf.pool[si].Next {
				span := &hf.pool[si]
				floor := int(span.Smax)
				ceiling := rcMaxHeightfieldHeight
				if span.Next != RC_NULL_SPAN {
					ceiling = int(hf.pool[span.Next].Smin)
				}
				if ceiling-floor < walkableHeight {
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}
