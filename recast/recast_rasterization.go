package recast

import (
	"fmt"
	"math"

	"github.com/gorustyt/gonavbake/common"
)

type rcAxis int

const (
	RC_AXIS_X rcAxis = 0
	RC_AXIS_Y rcAxis = 1
	RC_AXIS_Z rcAxis = 2
)

// Every clipped polygon fits in 7 vertices.
const rcClipVerts = 7

// / Divides a convex polygon of max 12 vertices into two convex polygons
// / across a separating axis.
// /
// / @param[in]	inVerts			The input polygon vertices
// / @param[in]	inVertsCount	The number of input polygon vertices
// / @param[out]	outVerts1		Resulting polygon 1's vertices
// / @param[out]	outVerts2		Resulting polygon 2's vertices
// / @param[in]	axisOffset		THe offset along the specified axis
// / @param[in]	axis			The separating axis
// / @return the vertex counts of polygon 1 and polygon 2
func dividePoly(inVerts []float32, inVertsCount int, outVerts1, outVerts2 []float32, axisOffset float32, axis rcAxis) (poly1Vert, poly2Vert int) {
	// How far positive or negative away from the separating axis is each vertex.
	var inVertAxisDelta [12]float32
	for inVert := 0; inVert < inVertsCount; inVert++ {
		inVertAxisDelta[inVert] = axisOffset - inVerts[inVert*3+int(axis)]
	}

	for inVertA, inVertB := 0, inVertsCount-1; inVertA < inVertsCount; inVertB, inVertA = inVertA, inVertA+1 {
		// If the two vertices are on the same side of the separating axis
		sameSide := (inVertAxisDelta[inVertA] >= 0) == (inVertAxisDelta[inVertB] >= 0)
		if !sameSide {
			s := inVertAxisDelta[inVertB] / (inVertAxisDelta[inVertB] - inVertAxisDelta[inVertA])
			outVerts1[poly1Vert*3+0] = inVerts[inVertB*3+0] + (inVerts[inVertA*3+0]-inVerts[inVertB*3+0])*s
			outVerts1[poly1Vert*3+1] = inVerts[inVertB*3+1] + (inVerts[inVertA*3+1]-inVerts[inVertB*3+1])*s
			outVerts1[poly1Vert*3+2] = inVerts[inVertB*3+2] + (inVerts[inVertA*3+2]-inVerts[inVertB*3+2])*s
			copy(outVerts2[poly2Vert*3:poly2Vert*3+3], outVerts1[poly1Vert*3:poly1Vert*3+3])
			poly1Vert++
			poly2Vert++

			// add the inVertA point to the right polygon. Do NOT add points that are on the dividing line
			// since these were already added above
			if inVertAxisDelta[inVertA] > 0 {
				copy(outVerts1[poly1Vert*3:poly1Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
				poly1Vert++
			} else if inVertAxisDelta[inVertA] < 0 {
				copy(outVerts2[poly2Vert*3:poly2Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
				poly2Vert++
			}
			continue
		}

		// add the inVertA point to the right polygon. Addition is done even for points on the dividing line
		if inVertAxisDelta[inVertA] >= 0 {
			copy(outVerts1[poly1Vert*3:poly1Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
			poly1Vert++
			if inVertAxisDelta[inVertA] != 0 {
				continue
			}
		}
		copy(outVerts2[poly2Vert*3:poly2Vert*3+3], inVerts[inVertA*3:inVertA*3+3])
		poly2Vert++
	}
	return poly1Vert, poly2Vert
}

// / Rasterize a single triangle to the heightfield.
// /
// / This code is extremely hot, so much care should be given to maintaining maximum perf here.
// /
// / @param[in] 	v0					Triangle vertex 0
// / @param[in] 	v1					Triangle vertex 1
// / @param[in] 	v2					Triangle vertex 2
// / @param[in] 	areaID				The area ID to assign to the rasterized spans
// / @param[in] 	hf					Heightfield to rasterize into
// / @param[in] 	inverseCellSize		1 / cellSize
// / @param[in] 	inverseCellHeight	1 / cellHeight
// / @param[in] 	flagMergeThreshold	The threshold in which area flags will be merged
func rasterizeTri(v0, v1, v2 []float32, areaID uint8, hf *RcHeightfield,
	inverseCellSize, inverseCellHeight float32, flagMergeThreshold int) {
	hfBBMin := hf.Bmin[:]
	hfBBMax := hf.Bmax[:]
	cellSize := hf.Cs

	// Calculate the bounding box of the triangle.
	var triBBMin, triBBMax [3]float32
	common.Vcopy(triBBMin[:], v0)
	common.Vmin(triBBMin[:], v1)
	common.Vmin(triBBMin[:], v2)
	common.Vcopy(triBBMax[:], v0)
	common.Vmax(triBBMax[:], v1)
	common.Vmax(triBBMax[:], v2)

	// If the triangle does not touch the bounding box of the heightfield, skip the triangle.
	if !common.OverlapBounds(triBBMin[:], triBBMax[:], hfBBMin, hfBBMax) {
		return
	}

	w := hf.Width
	h := hf.Height
	by := hfBBMax[1] - hfBBMin[1]

	// Calculate the footprint of the triangle on the grid's z-axis
	z0 := int((triBBMin[2] - hfBBMin[2]) * inverseCellSize)
	z1 := int((triBBMax[2] - hfBBMin[2]) * inverseCellSize)

	// use -1 rather than 0 to cut the polygon properly at the start of the tile
	z0 = common.Clamp(z0, -1, h-1)
	z1 = common.Clamp(z1, 0, h-1)

	// Clip the triangle into all grid cells it touches.
	var buf [rcClipVerts * 3 * 4]float32
	in := buf[0 : rcClipVerts*3]
	inRow := buf[rcClipVerts*3 : rcClipVerts*3*2]
	p1 := buf[rcClipVerts*3*2 : rcClipVerts*3*3]
	p2 := buf[rcClipVerts*3*3 : rcClipVerts*3*4]

	copy(in[0:3], v0)
	copy(in[3:6], v1)
	copy(in[6:9], v2)
	nvIn := 3
	var nvRow int

	for z := z0; z <= z1; z++ {
		// Clip polygon to row. Store the remaining polygon as well
		cellZ := hfBBMin[2] + float32(z)*cellSize
		nvRow, nvIn = dividePoly(in, nvIn, inRow, p1, cellZ+cellSize, RC_AXIS_Z)
		in, p1 = p1, in

		if nvRow < 3 {
			continue
		}
		if z < 0 {
			continue
		}

		// find X-axis bounds of the row
		minX := inRow[0]
		maxX := inRow[0]
		for vert := 1; vert < nvRow; vert++ {
			minX = min(minX, inRow[vert*3])
			maxX = max(maxX, inRow[vert*3])
		}
		x0 := int((minX - hfBBMin[0]) * inverseCellSize)
		x1 := int((maxX - hfBBMin[0]) * inverseCellSize)
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = common.Clamp(x0, -1, w-1)
		x1 = common.Clamp(x1, 0, w-1)

		var nv int
		nv2 := nvRow
		for x := x0; x <= x1; x++ {
			// Clip polygon to column. store the remaining polygon as well
			cx := hfBBMin[0] + float32(x)*cellSize
			nv, nv2 = dividePoly(inRow, nv2, p1, p2, cx+cellSize, RC_AXIS_X)
			inRow, p2 = p2, inRow

			if nv < 3 {
				continue
			}
			if x < 0 {
				continue
			}

			// Calculate min and max of the span.
			spanMin := p1[1]
			spanMax := p1[1]
			for vert := 1; vert < nv; vert++ {
				spanMin = min(spanMin, p1[vert*3+1])
				spanMax = max(spanMax, p1[vert*3+1])
			}
			spanMin -= hfBBMin[1]
			spanMax -= hfBBMin[1]

			// Skip the span if it's completely outside the heightfield bounding box
			if spanMax < 0.0 {
				continue
			}
			if spanMin > by {
				continue
			}

			// Clamp the span to the heightfield bounding box.
			if spanMin < 0.0 {
				spanMin = 0
			}
			if spanMax > by {
				spanMax = by
			}

			// Snap the span to the heightfield height grid.
			spanMinCellIndex := uint16(common.Clamp(int(math.Floor(float64(spanMin*inverseCellHeight))), 0, RC_SPAN_MAX_HEIGHT))
			spanMaxCellIndex := uint16(common.Clamp(int(math.Ceil(float64(spanMax*inverseCellHeight))), int(spanMinCellIndex)+1, RC_SPAN_MAX_HEIGHT))

			hf.addSpan(x, z, spanMinCellIndex, spanMaxCellIndex, areaID, flagMergeThreshold)
		}
	}
}

// / Rasterizes a triangle into the specified heightfield.
// /
// / No spans will be added if the triangle does not overlap the heightfield grid.
func RcRasterizeTriangle(ctx *RcContext, v0, v1, v2 []float32, areaID uint8, hf *RcHeightfield, flagMergeThreshold int) {
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	rasterizeTri(v0, v1, v2, areaID, hf, inverseCellSize, inverseCellHeight, flagMergeThreshold)
}

// / Rasterizes an indexed triangle mesh into the specified heightfield.
// /
// / Spans will only be added for triangles that overlap the heightfield grid.
func RcRasterizeTriangles(ctx *RcContext, verts []float32, tris []int, triAreaIDs []uint8, hf *RcHeightfield, flagMergeThreshold int) error {
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	numTris := len(tris) / 3
	if len(triAreaIDs) < numTris {
		return fmt.Errorf("%w: %d area ids for %d triangles", ErrInvalidInput, len(triAreaIDs), numTris)
	}
	numVerts := len(verts) / 3
	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	for triIndex := 0; triIndex < numTris; triIndex++ {
		t := tris[triIndex*3 : triIndex*3+3]
		if t[0] < 0 || t[1] < 0 || t[2] < 0 || t[0] >= numVerts || t[1] >= numVerts || t[2] >= numVerts {
			return fmt.Errorf("%w: triangle %d references missing vertex", ErrInvalidInput, triIndex)
		}
		v0 := common.GetVert3(verts, t[0])
		v1 := common.GetVert3(verts, t[1])
		v2 := common.GetVert3(verts, t[2])
		rasterizeTri(v0, v1, v2, triAreaIDs[triIndex], hf, inverseCellSize, inverseCellHeight, flagMergeThreshold)
	}
	return nil
}

// RcRasterizeTrianglesU16 is RcRasterizeTriangles for 16-bit index buffers.
func RcRasterizeTrianglesU16(ctx *RcContext, verts []float32, tris []uint16, triAreaIDs []uint8, hf *RcHeightfield, flagMergeThreshold int) error {
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	numTris := len(tris) / 3
	if len(triAreaIDs) < numTris {
		return fmt.Errorf("%w: %d area ids for %d triangles", ErrInvalidInput, len(triAreaIDs), numTris)
	}
	numVerts := len(verts) / 3
	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	for triIndex := 0; triIndex < numTris; triIndex++ {
		i0, i1, i2 := int(tris[triIndex*3]), int(tris[triIndex*3+1]), int(tris[triIndex*3+2])
		if i0 >= numVerts || i1 >= numVerts || i2 >= numVerts {
			return fmt.Errorf("%w: triangle %d references missing vertex", ErrInvalidInput, triIndex)
		}
		rasterizeTri(common.GetVert3(verts, i0), common.GetVert3(verts, i1), common.GetVert3(verts, i2),
			triAreaIDs[triIndex], hf, inverseCellSize, inverseCellHeight, flagMergeThreshold)
	}
	return nil
}

// / Rasterizes triangles into the specified heightfield.
// /
// / Expects each triangle to be specified as three sequential vertices of 3 floats.
func RcRasterizeTriangleSoup(ctx *RcContext, verts []float32, triAreaIDs []uint8, hf *RcHeightfield, flagMergeThreshold int) error {
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	numTris := len(verts) / 9
	if len(triAreaIDs) < numTris {
		return fmt.Errorf("%w: %d area ids for %d triangles", ErrInvalidInput, len(triAreaIDs), numTris)
	}
	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	for triIndex := 0; triIndex < numTris; triIndex++ {
		v0 := common.GetVert3(verts, triIndex*3+0)
		v1 := common.GetVert3(verts, triIndex*3+1)
		v2 := common.GetVert3(verts, triIndex*3+2)
		rasterizeTri(v0, v1, v2, triAreaIDs[triIndex], hf, inverseCellSize, inverseCellHeight, flagMergeThreshold)
	}
	return nil
}
