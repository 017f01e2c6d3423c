package recast

import (
	"slices"

	"github.com/gorustyt/gonavbake/common"
)

// RcAreaModification rewrites the bits of an area id selected by Mask.
// Bits outside the mask survive, so flag bits stored above the area id are
// kept while the id itself is replaced.
type RcAreaModification struct {
	Value uint8
	Mask  uint8
}

// NewAreaModification replaces the whole area id with value.
func NewAreaModification(value uint8) RcAreaModification {
	return RcAreaModification{Value: value, Mask: RC_AREA_FLAGS_MASK}
}

func (m RcAreaModification) Apply(area uint8) uint8 {
	return (m.Value & m.Mask) | (area &^ m.Mask)
}

// / Erodes the walkable area within the heightfield by the specified radius.
// /
// / Basically, any spans that are closer to a boundary or obstruction than the specified radius
// / are marked as unwalkable.
// /
// / This method is usually called immediately after the heightfield has been built.
func RcErodeWalkableArea(ctx *RcContext, erosionRadius int, chf *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_ERODE_AREA)()

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize // For readability

	distanceToBoundary := make([]uint8, chf.SpanCount)
	for i := range distanceToBoundary {
		distanceToBoundary[i] = 0xff
	}

	// Mark boundary cells.
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					distanceToBoundary[spanIndex] = 0
					continue
				}
				span := &chf.Spans[spanIndex]

				// Check that there is a non-null adjacent span in each of the 4 cardinal directions.
				neighborCount := 0
				for direction := 0; direction < 4; direction++ {
					if span.GetCon(direction) == RC_NOT_CONNECTED {
						break
					}
					neighborSpanIndex := chf.NeighbourIndex(x, z, span, direction)
					if chf.Areas[neighborSpanIndex] == RC_NULL_AREA {
						break
					}
					neighborCount++
				}

				// At least one missing neighbour, so this is a boundary cell.
				if neighborCount != 4 {
					distanceToBoundary[spanIndex] = 0
				}
			}
		}
	}

	// relax pulls the distance of spanIndex down from a neighbour.
	relax := func(spanIndex, neighborIndex, cost int) {
		d := int(distanceToBoundary[neighborIndex]) + cost
		if d > 255 {
			d = 255
		}
		if d < int(distanceToBoundary[spanIndex]) {
			distanceToBoundary[spanIndex] = uint8(d)
		}
	}

	// Pass 1
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]

				if span.GetCon(0) != RC_NOT_CONNECTED {
					// (-1,0)
					aX := x + common.GetDirOffsetX(0)
					aZ := z + common.GetDirOffsetY(0)
					aIndex := chf.NeighbourIndex(x, z, span, 0)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (-1,-1)
					if aSpan.GetCon(3) != RC_NOT_CONNECTED {
						bIndex := chf.NeighbourIndex(aX, aZ, aSpan, 3)
						relax(spanIndex, bIndex, 3)
					}
				}
				if span.GetCon(3) != RC_NOT_CONNECTED {
					// (0,-1)
					aX := x + common.GetDirOffsetX(3)
					aZ := z + common.GetDirOffsetY(3)
					aIndex := chf.NeighbourIndex(x, z, span, 3)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (1,-1)
					if aSpan.GetCon(2) != RC_NOT_CONNECTED {
						bIndex := chf.NeighbourIndex(aX, aZ, aSpan, 2)
						relax(spanIndex, bIndex, 3)
					}
				}
			}
		}
	}

	// Pass 2
	for z := zSize - 1; z >= 0; z-- {
		for x := xSize - 1; x >= 0; x-- {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]

				if span.GetCon(2) != RC_NOT_CONNECTED {
					// (1,0)
					aX := x + common.GetDirOffsetX(2)
					aZ := z + common.GetDirOffsetY(2)
					aIndex := chf.NeighbourIndex(x, z, span, 2)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (1,1)
					if aSpan.GetCon(1) != RC_NOT_CONNECTED {
						bIndex := chf.NeighbourIndex(aX, aZ, aSpan, 1)
						relax(spanIndex, bIndex, 3)
					}
				}
				if span.GetCon(1) != RC_NOT_CONNECTED {
					// (0,1)
					aX := x + common.GetDirOffsetX(1)
					aZ := z + common.GetDirOffsetY(1)
					aIndex := chf.NeighbourIndex(x, z, span, 1)
					aSpan := &chf.Spans[aIndex]
					relax(spanIndex, aIndex, 2)

					// (-1,1)
					if aSpan.GetCon(0) != RC_NOT_CONNECTED {
						bIndex := chf.NeighbourIndex(aX, aZ, aSpan, 0)
						relax(spanIndex, bIndex, 3)
					}
				}
			}
		}
	}

	minBoundaryDistance := erosionRadius * 2
	for spanIndex := 0; spanIndex < chf.SpanCount; spanIndex++ {
		if int(distanceToBoundary[spanIndex]) < minBoundaryDistance {
			chf.Areas[spanIndex] = RC_NULL_AREA
		}
	}
}

// / Applies a median filter to walkable area types (based on area id), removing noise.
// /
// / This filter is usually applied after applying area id's using functions
// / such as #RcMarkBoxArea, #RcMarkConvexPolyArea, and #RcMarkCylinderArea.
func RcMedianFilterWalkableArea(ctx *RcContext, chf *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MEDIAN_AREA)()

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize // For readability

	areas := make([]uint8, chf.SpanCount)
	var neighborAreas [9]uint8
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					areas[spanIndex] = chf.Areas[spanIndex]
					continue
				}

				for neighborIndex := 0; neighborIndex < 9; neighborIndex++ {
					neighborAreas[neighborIndex] = chf.Areas[spanIndex]
				}

				for dir := 0; dir < 4; dir++ {
					if span.GetCon(dir) == RC_NOT_CONNECTED {
						continue
					}
					aX := x + common.GetDirOffsetX(dir)
					aZ := z + common.GetDirOffsetY(dir)
					aIndex := chf.NeighbourIndex(x, z, span, dir)
					if chf.Areas[aIndex] != RC_NULL_AREA {
						neighborAreas[dir*2+0] = chf.Areas[aIndex]
					}

					aSpan := &chf.Spans[aIndex]
					dir2 := (dir + 1) & 0x3
					if aSpan.GetCon(dir2) != RC_NOT_CONNECTED {
						bIndex := chf.NeighbourIndex(aX, aZ, aSpan, dir2)
						if chf.Areas[bIndex] != RC_NULL_AREA {
							neighborAreas[dir*2+1] = chf.Areas[bIndex]
						}
					}
				}
				slices.Sort(neighborAreas[:])
				areas[spanIndex] = neighborAreas[4]
			}
		}
	}
	chf.Areas = areas
}

// / Applies an area id to all spans within the specified bounding box. (AABB)
// /
// / The value of spacial parameters are in world units.
func RcMarkBoxArea(ctx *RcContext, boxMinBounds, boxMaxBounds []float32, mod RcAreaModification, chf *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MARK_BOX_AREA)()

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize // For readability

	// Find the footprint of the box area in grid cell coordinates.
	minX := int((boxMinBounds[0] - chf.Bmin[0]) / chf.Cs)
	minY := int((boxMinBounds[1] - chf.Bmin[1]) / chf.Ch)
	minZ := int((boxMinBounds[2] - chf.Bmin[2]) / chf.Cs)
	maxX := int((boxMaxBounds[0] - chf.Bmin[0]) / chf.Cs)
	maxY := int((boxMaxBounds[1] - chf.Bmin[1]) / chf.Ch)
	maxZ := int((boxMaxBounds[2] - chf.Bmin[2]) / chf.Cs)

	// Early-out if the box is outside the bounds of the grid.
	if maxX < 0 || minX >= xSize || maxZ < 0 || minZ >= zSize {
		return
	}

	// Clamp relevant bound coordinates to the grid.
	minX = max(minX, 0)
	maxX = min(maxX, xSize-1)
	minZ = max(minZ, 0)
	maxZ = min(maxZ, zSize-1)

	// Mark relevant cells.
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]

				// Skip if the span is outside the box extents.
				if span.Y < minY || span.Y > maxY {
					continue
				}

				// Skip if the span has been removed.
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Mark the span.
				chf.Areas[spanIndex] = mod.Apply(chf.Areas[spanIndex])
			}
		}
	}
}

// / Applies the area id to the all spans within the specified convex polygon.
// /
// / The value of spacial parameters are in world units.
// /
// / The y-values of the polygon vertices are ignored. So the polygon is effectively
// / projected onto the xz-plane, translated to @p minY, and extruded to @p maxY.
func RcMarkConvexPolyArea(ctx *RcContext, verts []float32, minY, maxY float32, mod RcAreaModification, chf *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)()

	numVerts := len(verts) / 3
	if numVerts < 3 {
		return
	}

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize // For readability

	// Compute the bounding box of the polygon
	var bmin, bmax [3]float32
	copy(bmin[:], verts[:3])
	copy(bmax[:], verts[:3])
	for i := 1; i < numVerts; i++ {
		common.Vmin(bmin[:], common.GetVert3(verts, i))
		common.Vmax(bmax[:], common.GetVert3(verts, i))
	}
	bmin[1] = minY
	bmax[1] = maxY

	// Compute the grid footprint of the polygon
	minx := int((bmin[0] - chf.Bmin[0]) / chf.Cs)
	miny := int((bmin[1] - chf.Bmin[1]) / chf.Ch)
	minz := int((bmin[2] - chf.Bmin[2]) / chf.Cs)
	maxx := int((bmax[0] - chf.Bmin[0]) / chf.Cs)
	maxy := int((bmax[1] - chf.Bmin[1]) / chf.Ch)
	maxz := int((bmax[2] - chf.Bmin[2]) / chf.Cs)

	// Early-out if the polygon lies entirely outside the grid.
	if maxx < 0 || minx >= xSize || maxz < 0 || minz >= zSize {
		return
	}

	// Clamp the polygon footprint to the grid
	minx = max(minx, 0)
	maxx = min(maxx, xSize-1)
	minz = max(minz, 0)
	maxz = min(maxz, zSize-1)

	var point [3]float32
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			cell := chf.Cells[x+z*zStride]
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]

				// Skip if span is removed.
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Skip if y extents don't overlap.
				if span.Y < miny || span.Y > maxy {
					continue
				}

				point[0] = chf.Bmin[0] + (float32(x)+0.5)*chf.Cs
				point[1] = 0
				point[2] = chf.Bmin[2] + (float32(z)+0.5)*chf.Cs
				if common.PointInPoly(verts, point[:]) {
					chf.Areas[spanIndex] = mod.Apply(chf.Areas[spanIndex])
				}
			}
		}
	}
}

// / Applies the area id to all spans within the specified y-axis-aligned cylinder.
// /
// / The value of spacial parameters are in world units.
func RcMarkCylinderArea(ctx *RcContext, position []float32, radius, height float32, mod RcAreaModification, chf *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MARK_CYLINDER_AREA)()

	xSize := chf.Width
	zSize := chf.Height
	zStride := xSize // For readability

	// Compute the bounding box of the cylinder
	cylinderBBMin := [3]float32{position[0] - radius, position[1], position[2] - radius}
	cylinderBBMax := [3]float32{position[0] + radius, position[1] + height, position[2] + radius}

	// Compute the grid footprint of the cylinder
	minx := int((cylinderBBMin[0] - chf.Bmin[0]) / chf.Cs)
	miny := int((cylinderBBMin[1] - chf.Bmin[1]) / chf.Ch)
	minz := int((cylinderBBMin[2] - chf.Bmin[2]) / chf.Cs)
	maxx := int((cylinderBBMax[0] - chf.Bmin[0]) / chf.Cs)
	maxy := int((cylinderBBMax[1] - chf.Bmin[1]) / chf.Ch)
	maxz := int((cylinderBBMax[2] - chf.Bmin[2]) / chf.Cs)

	// Early-out if the cylinder is completely outside the grid bounds.
	if maxx < 0 || minx >= xSize || maxz < 0 || minz >= zSize {
		return
	}

	// Clamp the cylinder bounds to the grid.
	minx = max(minx, 0)
	maxx = min(maxx, xSize-1)
	minz = max(minz, 0)
	maxz = min(maxz, zSize-1)

	radiusSq := radius * radius
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			cell := chf.Cells[x+z*zStride]
			cellX := chf.Bmin[0] + (float32(x)+0.5)*chf.Cs
			cellZ := chf.Bmin[2] + (float32(z)+0.5)*chf.Cs
			deltaX := cellX - position[0]
			deltaZ := cellZ - position[2]

			// Skip this column if it's too far from the center point of the cylinder.
			if deltaX*deltaX+deltaZ*deltaZ >= radiusSq {
				continue
			}

			// Mark all overlapping spans
			for spanIndex, maxSpanIndex := cell.Index, cell.Index+cell.Count; spanIndex < maxSpanIndex; spanIndex++ {
				span := &chf.Spans[spanIndex]

				// Skip if span is removed.
				if chf.Areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Mark if y extents overlap.
				if span.Y >= miny && span.Y <= maxy {
					chf.Areas[spanIndex] = mod.Apply(chf.Areas[spanIndex])
				}
			}
		}
	}
}

// / Expands a convex polygon along its vertex normals by the given offset amount.
// / Inserts extra vertices to bevel sharp corners.
// /
// / Helper function to offset convex polygons for RcMarkConvexPolyArea.
// /
// / @return The offset polygon, or nil when it would exceed maxOutVerts vertices.
func RcOffsetPoly(verts []float32, offset float32, maxOutVerts int) []float32 {
	// Defines the limit at which a miter becomes a bevel.
	// Similar in behavior to https://developer.mozilla.org/en-US/docs/Web/SVG/Attribute/stroke-miterlimit
	const MITER_LIMIT = 1.20

	numVerts := len(verts) / 3
	outVerts := make([]float32, 0, maxOutVerts*3)
	for vertIndex := 0; vertIndex < numVerts; vertIndex++ {
		// Grab three vertices of the polygon.
		vertIndexA := (vertIndex + numVerts - 1) % numVerts
		vertIndexB := vertIndex
		vertIndexC := (vertIndex + 1) % numVerts
		vertA := common.GetVert3(verts, vertIndexA)
		vertB := common.GetVert3(verts, vertIndexB)
		vertC := common.GetVert3(verts, vertIndexC)

		// From A to B on the x/z plane
		prevSegmentDir := [3]float32{vertB[0] - vertA[0], 0, vertB[2] - vertA[2]}
		common.Vnormalize(prevSegmentDir[:])

		// From B to C on the x/z plane
		currSegmentDir := [3]float32{vertC[0] - vertB[0], 0, vertC[2] - vertB[2]}
		common.Vnormalize(currSegmentDir[:])

		// The y component of the cross product of the two normalized segment directions.
		// The X and Z components of the cross product are both zero because the two
		// segment direction vectors fall within the x/z plane.
		cross := currSegmentDir[0]*prevSegmentDir[2] - prevSegmentDir[0]*currSegmentDir[2]

		// CCW perpendicular vector to AB.  The segment normal.
		prevSegmentNormX := -prevSegmentDir[2]
		prevSegmentNormZ := prevSegmentDir[0]

		// CCW perpendicular vector to BC.  The segment normal.
		currSegmentNormX := -currSegmentDir[2]
		currSegmentNormZ := currSegmentDir[0]

		// Average the two segment normals to get the proportional miter offset for B.
		// This isn't normalized because it's defining the distance and direction the corner will need to be
		// adjusted proportionally to the edge offsets to properly miter the adjoining edges.
		cornerMiterX := (prevSegmentNormX + currSegmentNormX) * 0.5
		cornerMiterZ := (prevSegmentNormZ + currSegmentNormZ) * 0.5
		cornerMiterSqMag := cornerMiterX*cornerMiterX + cornerMiterZ*cornerMiterZ

		// If the magnitude of the segment normal average is less than about .69444,
		// the corner is an acute enough angle that the result should be beveled.
		bevel := cornerMiterSqMag*MITER_LIMIT*MITER_LIMIT < 1.0

		// Scale the corner miter so it's proportional to how much the corner should be offset compared to the edges.
		if cornerMiterSqMag > 1e-6 {
			scale := 1.0 / cornerMiterSqMag
			cornerMiterX *= scale
			cornerMiterZ *= scale
		}

		if bevel && cross < 0.0 { // If the corner is convex and an acute enough angle, generate a bevel.
			if len(outVerts)+2*3 > maxOutVerts*3 {
				return nil
			}

			// Generate two bevel vertices at a distances from B proportional to the angle between the two segments.
			// Move each bevel vertex out proportional to the given offset.
			d := (1.0 - (prevSegmentDir[0]*currSegmentDir[0] + prevSegmentDir[2]*currSegmentDir[2])) * 0.5

			outVerts = append(outVerts,
				vertB[0]+(-prevSegmentNormX+prevSegmentDir[0]*d)*offset,
				vertB[1],
				vertB[2]+(-prevSegmentNormZ+prevSegmentDir[2]*d)*offset,
				vertB[0]+(-currSegmentNormX-currSegmentDir[0]*d)*offset,
				vertB[1],
				vertB[2]+(-currSegmentNormZ-currSegmentDir[2]*d)*offset,
			)
		} else {
			if len(outVerts)+3 > maxOutVerts*3 {
				return nil
			}

			// Move B along the miter direction by the specified offset.
			outVerts = append(outVerts,
				vertB[0]-cornerMiterX*offset,
				vertB[1],
				vertB[2]-cornerMiterZ*offset,
			)
		}
	}
	return outVerts
}
