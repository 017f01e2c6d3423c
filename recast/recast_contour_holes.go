package recast

import (
	"cmp"
	"slices"

	"github.com/gorustyt/gonavbake/common"
)

type rcContourHole struct {
	contour    *RcContour
	minx, minz int
	leftmost   int
}

type rcContourRegion struct {
	outline *RcContour
	holes   []rcContourHole
}

type rcPotentialDiagonal struct {
	vert int
	dist int
}

// inCone reports whether pj lies in the cone of polygon vertex i.
func inCone(i, n int, verts, pj []int) bool {
	pi := common.GetVert4(verts, i)
	pi1 := common.GetVert4(verts, common.Next(i, n))
	pin1 := common.GetVert4(verts, common.Prev(i, n))

	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if common.LeftOn(pin1, pi, pi1) {
		return common.Left(pi, pj, pin1) && common.Left(pj, pi, pi1)
	}
	// Assume (i-1,i,i+1) not collinear.
	// else P[i] is reflex.
	return !(common.LeftOn(pi, pj, pi1) && common.LeftOn(pj, pi, pin1))
}

// intersectSegContour reports whether d0-d1 crosses an edge of the contour
// not incident to vertex i. Pass i = -1 to test every edge.
func intersectSegContour(d0, d1 []int, i int, verts []int) bool {
	n := len(verts) / 4
	// For each edge (k,k+1) of P
	for k := 0; k < n; k++ {
		k1 := common.Next(k, n)
		// Skip edges incident to i.
		if i == k || i == k1 {
			continue
		}
		p0 := common.GetVert4(verts, k)
		p1 := common.GetVert4(verts, k1)
		if common.Vequal2D(d0, p0) || common.Vequal2D(d1, p0) || common.Vequal2D(d0, p1) || common.Vequal2D(d1, p1) {
			continue
		}
		if common.Intersect(d0, d1, p0, p1) {
			return true
		}
	}
	return false
}

// mergeContours appends hole cb to outline ca through the diagonal ia-ib.
// Both end points are duplicated so the result stays a single closed ring.
func mergeContours(ca, cb *RcContour, ia, ib int) {
	na := ca.NVerts()
	nb := cb.NVerts()
	verts := make([]int, 0, (na+nb+2)*4)

	// Copy contour A.
	for i := 0; i <= na; i++ {
		verts = append(verts, common.GetVert4(ca.Verts, (ia+i)%na)...)
	}
	// Copy contour B
	for i := 0; i <= nb; i++ {
		verts = append(verts, common.GetVert4(cb.Verts, (ib+i)%nb)...)
	}

	ca.Verts = verts
	cb.Verts = nil
}

func findLeftMostVertex(contour *RcContour) (minx, minz, leftmost int) {
	minx = contour.Verts[0]
	minz = contour.Verts[2]
	for i := 1; i < contour.NVerts(); i++ {
		x := contour.Verts[i*4+0]
		z := contour.Verts[i*4+2]
		if x < minx || (x == minx && z < minz) {
			minx = x
			minz = z
			leftmost = i
		}
	}
	return
}

// mergeRegionHoles connects the holes of a region to its outline one by
// one, left to right, each through the shortest diagonal that crosses
// neither the outline nor a hole still waiting to be merged.
func mergeRegionHoles(ctx *RcContext, region *rcContourRegion) {
	// Sort holes from left to right.
	for i := range region.holes {
		h := &region.holes[i]
		h.minx, h.minz, h.leftmost = findLeftMostVertex(h.contour)
	}
	slices.SortStableFunc(region.holes, func(a, b rcContourHole) int {
		if c := cmp.Compare(a.minx, b.minx); c != 0 {
			return c
		}
		return cmp.Compare(a.minz, b.minz)
	})

	maxVerts := region.outline.NVerts()
	for _, h := range region.holes {
		maxVerts += h.contour.NVerts()
	}
	diags := make([]rcPotentialDiagonal, 0, maxVerts)

	outline := region.outline

	// Merge holes into the outline one by one.
	for i := range region.holes {
		hole := region.holes[i].contour

		index := -1
		bestVertex := region.holes[i].leftmost
		for iter := 0; iter < hole.NVerts(); iter++ {
			// Find potential diagonals.
			// The 'best' vertex must be in the cone described by 3 consecutive vertices of the outline.
			// ..o j-1
			//   |
			//   |   * best
			//   |
			// j o-----o j+1
			//         :
			diags = diags[:0]
			corner := common.GetVert4(hole.Verts, bestVertex)
			nout := outline.NVerts()
			for j := 0; j < nout; j++ {
				if inCone(j, nout, outline.Verts, corner) {
					dx := outline.Verts[j*4+0] - corner[0]
					dz := outline.Verts[j*4+2] - corner[2]
					diags = append(diags, rcPotentialDiagonal{vert: j, dist: dx*dx + dz*dz})
				}
			}
			// Sort potential diagonals by distance, we want to make the connection as short as possible.
			slices.SortStableFunc(diags, func(a, b rcPotentialDiagonal) int {
				return cmp.Compare(a.dist, b.dist)
			})

			// Find a diagonal that is not intersecting the outline not the remaining holes.
			for _, d := range diags {
				pt := common.GetVert4(outline.Verts, d.vert)
				intersect := intersectSegContour(pt, corner, d.vert, outline.Verts)
				for k := i; k < len(region.holes) && !intersect; k++ {
					intersect = intersectSegContour(pt, corner, -1, region.holes[k].contour.Verts)
				}
				if !intersect {
					index = d.vert
					break
				}
			}
			// If found non-intersecting diagonal, stop looking.
			if index != -1 {
				break
			}
			// All the potential diagonals for the current vertex were intersecting, try next vertex.
			bestVertex = (bestVertex + 1) % hole.NVerts()
		}

		if index == -1 {
			ctx.Log(RC_LOG_WARNING, "mergeHoles: Failed to find merge points for region %d hole %d.", outline.Reg, i)
			continue
		}
		mergeContours(outline, hole, index, bestVertex)
	}
}
