package recast

import (
	"fmt"

	"github.com/gorustyt/gonavbake/common"
)

// / Provides information on the content of a cell column in a compact heightfield.
type RcCompactCell struct {
	Index int ///< Index to the first span in the column.
	Count int ///< Number of spans in the column.
}

// / Represents a span of unobstructed space within a compact heightfield.
type RcCompactSpan struct {
	Y   int      ///< The lower extent of the span. (Measured from the heightfield's base.)
	Reg int      ///< The id of the region the span belongs to. (Or zero if not in a region.)
	Con [4]uint8 ///< Per-direction local neighbour index, RC_NOT_CONNECTED when absent.
	H   int      ///< The height of the span.  (Measured from #Y.)
}

// / Gets neighbor connection data for the specified direction.
// / @return The neighbor connection data for the specified direction, or #RC_NOT_CONNECTED if there is no connection.
func (s *RcCompactSpan) GetCon(dir int) int {
	return int(s.Con[dir])
}

// / Sets the neighbor connection data for the specified direction.
func (s *RcCompactSpan) SetCon(dir, i int) {
	s.Con[dir] = uint8(i)
}

// / A compact, static heightfield representing unobstructed space.
type RcCompactHeightfield struct {
	Width          int             ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height         int             ///< The height of the heightfield. (Along the z-axis in cell units.)
	SpanCount      int             ///< The number of spans in the heightfield.
	WalkableHeight int             ///< The walkable height used during the build of the field.
	WalkableClimb  int             ///< The walkable climb used during the build of the field.
	BorderSize     int             ///< The AABB border size used during the build of the field.
	MaxDistance    int             ///< The maximum distance value of any span within the field.
	MaxRegions     int             ///< The maximum region id of any span within the field.
	Bmin           [3]float32      ///< The minimum bounds in world space. [(x, y, z)]
	Bmax           [3]float32      ///< The maximum bounds in world space. [(x, y, z)]
	Cs             float32         ///< The size of each cell. (On the xz-plane.)
	Ch             float32         ///< The height of each cell. (The minimum increment along the y-axis.)
	Cells          []RcCompactCell ///< Array of cells. [Size: #Width*#Height]
	Spans          []RcCompactSpan ///< Array of spans. [Size: #SpanCount]
	Dist           []uint16        ///< Array containing border distance data. [Size: #SpanCount]
	Areas          []uint8         ///< Array containing area id data. [Size: #SpanCount]
}

// NeighbourIndex returns the span index reached from span s of cell (x, z)
// in direction dir. The caller must have checked the connection.
func (chf *RcCompactHeightfield) NeighbourIndex(x, z int, s *RcCompactSpan, dir int) int {
	ax := x + common.GetDirOffsetX(dir)
	az := z + common.GetDirOffsetY(dir)
	return chf.Cells[ax+az*chf.Width].Index + s.GetCon(dir)
}

// / Builds a compact heightfield representing open space, from a heightfield representing solid space.
// /
// / This is just the beginning of the process of fully building a compact heightfield.
// / Various filters may be applied, then the distance field and regions built.
// / E.g: #RcBuildDistanceField and #RcBuildRegions
// /
// / A column holding more walkable spans than a neighbour reference can address
// / fails the build with ErrTooManyLayers.
func RcBuildCompactHeightfield(ctx *RcContext, walkableHeight, walkableClimb int, hf *RcHeightfield) (*RcCompactHeightfield, error) {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)()

	xSize := hf.Width
	zSize := hf.Height
	spanCount := hf.SpanCount()

	// Fill in header.
	chf := &RcCompactHeightfield{
		Width:          xSize,
		Height:         zSize,
		SpanCount:      spanCount,
		WalkableHeight: walkableHeight,
		WalkableClimb:  walkableClimb,
		BorderSize:     hf.BorderSize,
		Bmin:           hf.Bmin,
		Bmax:           hf.Bmax,
		Cs:             hf.Cs,
		Ch:             hf.Ch,
		Cells:          make([]RcCompactCell, xSize*zSize),
		Spans:          make([]RcCompactSpan, spanCount),
		Areas:          make([]uint8, spanCount),
	}
	chf.Bmax[1] += float32(walkableHeight) * hf.Ch

	// Fill in cells and spans.
	currentCellIndex := 0
	numColumns := xSize * zSize
	for columnIndex := 0; columnIndex < numColumns; columnIndex++ {
		si := hf.heads[columnIndex]
		// If there are no spans at this cell, just leave the data to index=0, count=0.
		if si == RC_NULL_SPAN {
			continue
		}
		cell := &chf.Cells[columnIndex]
		cell.Index = currentCellIndex
		cell.Count = 0

		for ; si != RC_NULL_SPAN; si = hf.pool[si].Next {
			span := &hf.pool[si]
			if span.Area == RC_NULL_AREA {
				continue
			}
			bot := int(span.Smax)
			top := rcMaxHeightfieldHeight
			if span.Next != RC_NULL_SPAN {
				top = int(hf.pool[span.Next].Smin)
			}
			cs := &chf.Spans[currentCellIndex]
			cs.Y = common.Clamp(bot, 0, 0xffff)
			cs.H = common.Clamp(top-bot, 0, 0xff)
			chf.Areas[currentCellIndex] = span.Area
			currentCellIndex++
			cell.Count++
		}
	}

	// Find neighbour connections.
	maxLayerIndex := 0
	zStride := xSize
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for i, ni := cell.Index, cell.Index+cell.Count; i < ni; i++ {
				span := &chf.Spans[i]
				for dir := 0; dir < 4; dir++ {
					span.SetCon(dir, RC_NOT_CONNECTED)
					neighborX := x + common.GetDirOffsetX(dir)
					neighborZ := z + common.GetDirOffsetY(dir)
					// First check that the neighbour cell is in bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						continue
					}

					// Iterate over all neighbour spans and check if any of the is
					// accessible from current cell.
					neighborCell := chf.Cells[neighborX+neighborZ*zStride]
					for k, nk := neighborCell.Index, neighborCell.Index+neighborCell.Count; k < nk; k++ {
						neighborSpan := &chf.Spans[k]
						bot := max(span.Y, neighborSpan.Y)
						top := min(span.Y+span.H, neighborSpan.Y+neighborSpan.H)

						// Check that the gap between the spans is walkable,
						// and that the climb height between the gaps is not too high.
						if (top-bot) >= walkableHeight && common.Abs(neighborSpan.Y-span.Y) <= walkableClimb {
							// Mark direction as walkable.
							layerIndex := k - neighborCell.Index
							if layerIndex < 0 || layerIndex > RC_MAX_LAYERS_PER_COLUMN {
								maxLayerIndex = max(maxLayerIndex, layerIndex)
								continue
							}
							span.SetCon(dir, layerIndex)
							break
						}
					}
				}
			}
		}
	}

	if maxLayerIndex > RC_MAX_LAYERS_PER_COLUMN {
		ctx.Log(RC_LOG_ERROR, "rcBuildCompactHeightfield: Heightfield has too many layers %d (max: %d)", maxLayerIndex, RC_MAX_LAYERS_PER_COLUMN)
		return nil, fmt.Errorf("build compact heightfield: layer index %d exceeds %d: %w", maxLayerIndex, RC_MAX_LAYERS_PER_COLUMN, ErrTooManyLayers)
	}
	return chf, nil
}
