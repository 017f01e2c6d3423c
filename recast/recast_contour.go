package recast

import (
	"fmt"
	"slices"

	"github.com/gorustyt/gonavbake/common"
)

// / Represents a simple, non-overlapping contour in field space.
type RcContour struct {
	Verts  []int ///< Simplified contour vertex and connection data. [Size: 4 * #NVerts]
	RVerts []int ///< Raw contour vertex and connection data. [Size: 4 * #NRVerts]
	Reg    int   ///< The region id of the contour.
	Area   uint8 ///< The area id of the contour.
}

func (c *RcContour) NVerts() int  { return len(c.Verts) / 4 }
func (c *RcContour) NRVerts() int { return len(c.RVerts) / 4 }

// / Represents a group of related contours.
type RcContourSet struct {
	Conts      []RcContour ///< An array of the contours in the set.
	Bmin       [3]float32  ///< The minimum bounds in world space. [(x, y, z)]
	Bmax       [3]float32  ///< The maximum bounds in world space. [(x, y, z)]
	Cs         float32     ///< The size of each cell. (On the xz-plane.)
	Ch         float32     ///< The height of each cell. (The minimum increment along the y-axis.)
	Width      int         ///< The width of the set. (Along the x-axis in cell units.)
	Height     int         ///< The height of the set. (Along the z-axis in cell units.)
	BorderSize int         ///< The AABB border size used to generate the source data from which the contours were derived.
	MaxError   float32     ///< The max edge error that this contour set was simplified with.
}

func getCornerHeight(x, y, i, dir int, chf *RcCompactHeightfield) (ch int, isBorderVertex bool) {
	s := &chf.Spans[i]
	ch = s.Y
	dirp := (dir + 1) & 0x3

	// Combine region and area codes in order to prevent
	// border vertices which are in between two areas to be removed.
	var regs [4]int
	regs[0] = s.Reg | int(chf.Areas[i])<<16

	if s.GetCon(dir) != RC_NOT_CONNECTED {
		ax := x + common.GetDirOffsetX(dir)
		ay := y + common.GetDirOffsetY(dir)
		ai := chf.NeighbourIndex(x, y, s, dir)
		as := &chf.Spans[ai]
		ch = max(ch, as.Y)
		regs[1] = as.Reg | int(chf.Areas[ai])<<16
		if as.GetCon(dirp) != RC_NOT_CONNECTED {
			ai2 := chf.NeighbourIndex(ax, ay, as, dirp)
			as2 := &chf.Spans[ai2]
			ch = max(ch, as2.Y)
			regs[2] = as2.Reg | int(chf.Areas[ai2])<<16
		}
	}
	if s.GetCon(dirp) != RC_NOT_CONNECTED {
		ax := x + common.GetDirOffsetX(dirp)
		ay := y + common.GetDirOffsetY(dirp)
		ai := chf.NeighbourIndex(x, y, s, dirp)
		as := &chf.Spans[ai]
		ch = max(ch, as.Y)
		regs[3] = as.Reg | int(chf.Areas[ai])<<16
		if as.GetCon(dir) != RC_NOT_CONNECTED {
			ai2 := chf.NeighbourIndex(ax, ay, as, dir)
			as2 := &chf.Spans[ai2]
			ch = max(ch, as2.Y)
			regs[2] = as2.Reg | int(chf.Areas[ai2])<<16
		}
	}

	// Check if the vertex is special edge vertex, these vertices will be removed later.
	for j := 0; j < 4; j++ {
		a := j
		b := (j + 1) & 0x3
		c := (j + 2) & 0x3
		d := (j + 3) & 0x3

		// The vertex is a border vertex there are two same exterior cells in a row,
		// followed by two interior cells and none of the regions are out of bounds.
		twoSameExts := regs[a]&regs[b]&RC_BORDER_REG != 0 && regs[a] == regs[b]
		twoInts := (regs[c]|regs[d])&RC_BORDER_REG == 0
		intsSameArea := regs[c]>>16 == regs[d]>>16
		noZeros := regs[a] != 0 && regs[b] != 0 && regs[c] != 0 && regs[d] != 0
		if twoSameExts && twoInts && intsSameArea && noZeros {
			return ch, true
		}
	}
	return ch, false
}

// walkContour traces the unvisited boundary edges of span i clockwise and
// appends one (x, y, z, flags) corner per edge to points. Visited edges are
// cleared from flags.
func walkContour(ctx *RcContext, x, y, i int, chf *RcCompactHeightfield, flags []uint8, points *Stack[int]) {
	// Choose the first non-connected edge
	dir := 0
	for flags[i]&(1<<dir) == 0 {
		dir++
	}

	startDir := dir
	starti := i

	area := chf.Areas[i]

	iter := 0
	for {
		iter++
		if iter >= rcMaxContourWalk {
			ctx.Log(RC_LOG_WARNING, "walkContour: gave up after %d steps at (%d,%d)", rcMaxContourWalk, x, y)
			return
		}
		if flags[i]&(1<<dir) != 0 {
			// Choose the edge corner
			py, isBorderVertex := getCornerHeight(x, y, i, dir, chf)
			isAreaBorder := false
			px := x
			pz := y
			switch dir {
			case 0:
				pz++
			case 1:
				px++
				pz++
			case 2:
				px++
			}
			r := 0
			s := &chf.Spans[i]
			if s.GetCon(dir) != RC_NOT_CONNECTED {
				ai := chf.NeighbourIndex(x, y, s, dir)
				r = chf.Spans[ai].Reg
				if area != chf.Areas[ai] {
					isAreaBorder = true
				}
			}
			if isBorderVertex {
				r |= RC_BORDER_VERTEX
			}
			if isAreaBorder {
				r |= RC_AREA_BORDER
			}
			points.Push(px)
			points.Push(py)
			points.Push(pz)
			points.Push(r)

			flags[i] &^= 1 << dir // Remove visited edges
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			s := &chf.Spans[i]
			if s.GetCon(dir) == RC_NOT_CONNECTED {
				// Should not happen.
				return
			}
			i = chf.NeighbourIndex(x, y, s, dir)
			x += common.GetDirOffsetX(dir)
			y += common.GetDirOffsetY(dir)
			dir = (dir + 3) & 0x3 // Rotate CCW
		}

		if starti == i && startDir == dir {
			break
		}
	}
}

// insertVertex places raw point pi of points after simplified vertex i.
func insertVertex(simplified *Stack[int], i int, points []int, pi int) {
	at := (i + 1) * 4
	for k := 3; k >= 0; k-- {
		simplified.Insert(at, 0)
	}
	d := simplified.Data()
	d[at+0] = points[pi*4+0]
	d[at+1] = points[pi*4+1]
	d[at+2] = points[pi*4+2]
	d[at+3] = pi
}

// simplifyContour reduces the raw contour to the vertices needed to stay
// within maxError of it. Portals between regions and area changes are kept
// as fixed vertices. While simplifying, the fourth component of each
// simplified vertex holds the index of its raw point.
func simplifyContour(points []int, simplified *Stack[int], maxError float32, maxEdgeLen, buildFlags int) {
	pn := len(points) / 4

	// Add initial points.
	hasConnections := false
	for i := 0; i < pn; i++ {
		if points[i*4+3]&RC_CONTOUR_REG_MASK != 0 {
			hasConnections = true
			break
		}
	}

	if hasConnections {
		// The contour has some portals to other regions.
		// Add a new point to every location where the region changes.
		for i := 0; i < pn; i++ {
			ii := (i + 1) % pn
			differentRegs := points[i*4+3]&RC_CONTOUR_REG_MASK != points[ii*4+3]&RC_CONTOUR_REG_MASK
			areaBorders := points[i*4+3]&RC_AREA_BORDER != points[ii*4+3]&RC_AREA_BORDER
			if differentRegs || areaBorders {
				simplified.Push(points[i*4+0])
				simplified.Push(points[i*4+1])
				simplified.Push(points[i*4+2])
				simplified.Push(i)
			}
		}
	}

	if simplified.Len() == 0 {
		// If there is no connections at all,
		// create some initial points for the simplification process.
		// Find lower-left and upper-right vertices of the contour.
		lli, uri := 0, 0
		for i := 1; i < pn; i++ {
			x, z := points[i*4+0], points[i*4+2]
			llx, llz := points[lli*4+0], points[lli*4+2]
			urx, urz := points[uri*4+0], points[uri*4+2]
			if x < llx || (x == llx && z < llz) {
				lli = i
			}
			if x > urx || (x == urx && z > urz) {
				uri = i
			}
		}
		simplified.Push(points[lli*4+0])
		simplified.Push(points[lli*4+1])
		simplified.Push(points[lli*4+2])
		simplified.Push(lli)

		simplified.Push(points[uri*4+0])
		simplified.Push(points[uri*4+1])
		simplified.Push(points[uri*4+2])
		simplified.Push(uri)
	}

	// Add points until all raw points are within
	// error tolerance to the simplified shape.
	maxErrorSqr := maxError * maxError
	for i := 0; i < simplified.Len()/4; {
		sv := simplified.Data()
		ii := (i + 1) % (len(sv) / 4)

		ax, az, ai := sv[i*4+0], sv[i*4+2], sv[i*4+3]
		bx, bz, bi := sv[ii*4+0], sv[ii*4+2], sv[ii*4+3]

		// Find maximum deviation from the segment.
		var maxd float32
		maxi := -1
		var ci, cinc, endi int

		// Traverse the segment in lexilogical order so that the
		// max deviation is calculated similarly when traversing
		// opposite segments.
		if bx > ax || (bx == ax && bz > az) {
			cinc = 1
			ci = (ai + cinc) % pn
			endi = bi
		} else {
			cinc = pn - 1
			ci = (bi + cinc) % pn
			endi = ai
			ax, bx = bx, ax
			az, bz = bz, az
		}

		// Tessellate only outer edges or edges between areas.
		if points[ci*4+3]&RC_CONTOUR_REG_MASK == 0 || points[ci*4+3]&RC_AREA_BORDER != 0 {
			for ci != endi {
				d := common.DistancePtSegSqr2D(points[ci*4+0], points[ci*4+2], ax, az, bx, bz)
				if d > maxd {
					maxd = d
					maxi = ci
				}
				ci = (ci + cinc) % pn
			}
		}

		// If the max deviation is larger than accepted error,
		// add new point, else continue to next segment.
		if maxi != -1 && maxd > maxErrorSqr {
			insertVertex(simplified, i, points, maxi)
		} else {
			i++
		}
	}

	// Split too long edges.
	if maxEdgeLen > 0 && buildFlags&(RC_CONTOUR_TESS_WALL_EDGES|RC_CONTOUR_TESS_AREA_EDGES) != 0 {
		for i := 0; i < simplified.Len()/4; {
			sv := simplified.Data()
			ii := (i + 1) % (len(sv) / 4)

			ax, az, ai := sv[i*4+0], sv[i*4+2], sv[i*4+3]
			bx, bz, bi := sv[ii*4+0], sv[ii*4+2], sv[ii*4+3]

			// Find maximum deviation from the segment.
			maxi := -1
			ci := (ai + 1) % pn

			// Tessellate only outer edges or edges between areas.
			tess := false
			// Wall edges.
			if buildFlags&RC_CONTOUR_TESS_WALL_EDGES != 0 && points[ci*4+3]&RC_CONTOUR_REG_MASK == 0 {
				tess = true
			}
			// Edges between areas.
			if buildFlags&RC_CONTOUR_TESS_AREA_EDGES != 0 && points[ci*4+3]&RC_AREA_BORDER != 0 {
				tess = true
			}

			if tess {
				dx := bx - ax
				dz := bz - az
				if dx*dx+dz*dz > maxEdgeLen*maxEdgeLen {
					// Round based on the segments in lexilogical order so that the
					// max tesselation is consistent regardles in which direction
					// segments are traversed.
					n := bi - ai
					if bi < ai {
						n = bi + pn - ai
					}
					if n > 1 {
						if bx > ax || (bx == ax && bz > az) {
							maxi = (ai + n/2) % pn
						} else {
							maxi = (ai + (n+1)/2) % pn
						}
					}
				}
			}

			if maxi != -1 {
				insertVertex(simplified, i, points, maxi)
			} else {
				i++
			}
		}
	}

	sv := simplified.Data()
	for i := 0; i < len(sv)/4; i++ {
		// The edge vertex flag is take from the current raw point,
		// and the neighbour region is take from the next raw point.
		ai := (sv[i*4+3] + 1) % pn
		bi := sv[i*4+3]
		sv[i*4+3] = points[ai*4+3]&(RC_CONTOUR_REG_MASK|RC_AREA_BORDER) | points[bi*4+3]&RC_BORDER_VERTEX
	}
}

// calcAreaOfPolygon2D returns the signed area on the xz-plane; holes come
// out negative.
func calcAreaOfPolygon2D(verts []int) int {
	nverts := len(verts) / 4
	area := 0
	for i, j := 0, nverts-1; i < nverts; j, i = i, i+1 {
		vi := verts[i*4:]
		vj := verts[j*4:]
		area += vi[0]*vj[2] - vj[0]*vi[2]
	}
	return (area + 1) / 2
}

// removeDegenerateSegments drops vertices equal on the xz-plane to their
// successor, which would otherwise confuse triangulation.
func removeDegenerateSegments(simplified *Stack[int]) {
	for i := 0; i < simplified.Len()/4; {
		sv := simplified.Data()
		npts := len(sv) / 4
		if npts <= 1 {
			return
		}
		ni := common.Next(i, npts)
		if common.Vequal2D(sv[i*4:i*4+4], sv[ni*4:ni*4+4]) {
			// Degenerate segment, remove.
			for k := 0; k < 4; k++ {
				simplified.Remove(i * 4)
			}
			continue
		}
		i++
	}
}

// / Builds a contour set from the region outlines in the provided compact heightfield.
// /
// / The raw contours will match the region outlines exactly. The @p maxError and @p maxEdgeLen
// / parameters control how closely the simplified contours will match the raw contours.
// /
// / Simplified contours are generated such that the vertices for portals between areas match up.
// / (They are considered mandatory vertices.)
// /
// / Setting @p maxEdgeLength to zero will disabled the edge length feature.
// /
// / Holes of a region are spliced into its outline. A region that has holes
// / but no outline fails the build with ErrMissingOutline.
func RcBuildContours(ctx *RcContext, chf *RcCompactHeightfield, maxError float32, maxEdgeLen, buildFlags int) (*RcContourSet, error) {
	w := chf.Width
	h := chf.Height
	borderSize := chf.BorderSize

	defer ctx.ScopedTimer(RC_TIMER_BUILD_CONTOURS)()

	cset := &RcContourSet{
		Bmin:       chf.Bmin,
		Bmax:       chf.Bmax,
		Cs:         chf.Cs,
		Ch:         chf.Ch,
		Width:      chf.Width - chf.BorderSize*2,
		Height:     chf.Height - chf.BorderSize*2,
		BorderSize: chf.BorderSize,
		MaxError:   maxError,
		Conts:      make([]RcContour, 0, max(chf.MaxRegions, 8)),
	}
	if borderSize > 0 {
		// If the heightfield was build with bordersize, remove the offset.
		pad := float32(borderSize) * chf.Cs
		cset.Bmin[0] += pad
		cset.Bmin[2] += pad
		cset.Bmax[0] -= pad
		cset.Bmax[2] -= pad
	}

	flags := make([]uint8, chf.SpanCount)

	ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

	// Mark boundaries.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				if s.Reg == 0 || s.Reg&RC_BORDER_REG != 0 {
					flags[i] = 0
					continue
				}
				var res uint8
				for dir := 0; dir < 4; dir++ {
					r := 0
					if s.GetCon(dir) != RC_NOT_CONNECTED {
						r = chf.Spans[chf.NeighbourIndex(x, y, s, dir)].Reg
					}
					if r == s.Reg {
						res |= 1 << dir
					}
				}
				flags[i] = res ^ 0xf // Inverse, mark non connected edges.
			}
		}
	}

	ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

	verts := &ctx.arena.contour
	simplified := &ctx.arena.simplified

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if flags[i] == 0 || flags[i] == 0xf {
					flags[i] = 0
					continue
				}
				reg := chf.Spans[i].Reg
				if reg == 0 || reg&RC_BORDER_REG != 0 {
					continue
				}
				area := chf.Areas[i]

				verts.Clear()
				simplified.Clear()

				ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_TRACE)
				walkContour(ctx, x, y, i, chf, flags, verts)
				ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

				ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_SIMPLIFY)
				simplifyContour(verts.Data(), simplified, maxError, maxEdgeLen, buildFlags)
				removeDegenerateSegments(simplified)
				ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_SIMPLIFY)

				// Create contour.
				if simplified.Len()/4 < 3 {
					continue
				}
				cont := RcContour{
					Verts:  slices.Clone(simplified.Data()),
					RVerts: slices.Clone(verts.Data()),
					Reg:    reg,
					Area:   area,
				}
				if borderSize > 0 {
					// If the heightfield was build with bordersize, remove the offset.
					unpad(cont.Verts, borderSize)
					unpad(cont.RVerts, borderSize)
				}
				cset.Conts = append(cset.Conts, cont)
			}
		}
	}

	if err := mergeHoles(ctx, cset, chf.MaxRegions); err != nil {
		return nil, err
	}
	return cset, nil
}

func unpad(verts []int, borderSize int) {
	for j := 0; j < len(verts); j += 4 {
		verts[j+0] -= borderSize
		verts[j+2] -= borderSize
	}
}

// mergeHoles splices every negatively wound contour into the outline of its
// region and drops the emptied hole contours from the set.
func mergeHoles(ctx *RcContext, cset *RcContourSet, maxRegions int) error {
	if len(cset.Conts) == 0 {
		return nil
	}

	// Calculate winding of all polygons.
	winding := make([]int8, len(cset.Conts))
	nholes := 0
	for i := range cset.Conts {
		// If the contour is wound backwards, it is a hole.
		if calcAreaOfPolygon2D(cset.Conts[i].Verts) < 0 {
			winding[i] = -1
			nholes++
		} else {
			winding[i] = 1
		}
	}
	if nholes == 0 {
		return nil
	}

	// Collect outline contour and holes contours per region.
	// We assume that there is one outline and multiple holes.
	regions := make([]rcContourRegion, maxRegions+1)
	for i := range cset.Conts {
		cont := &cset.Conts[i]
		reg := &regions[cont.Reg]
		// Positively would contours are outlines, negative holes.
		if winding[i] > 0 {
			if reg.outline != nil {
				ctx.Log(RC_LOG_ERROR, "rcBuildContours: Multiple outlines for region %d.", cont.Reg)
			}
			reg.outline = cont
		} else {
			reg.holes = append(reg.holes, rcContourHole{contour: cont})
		}
	}

	// Finally merge each regions holes into the outline.
	for i := range regions {
		reg := &regions[i]
		if len(reg.holes) == 0 {
			continue
		}
		if reg.outline == nil {
			// The region does not have an outline.
			// This can happen if the contour becaomes selfoverlapping because of
			// too aggressive simplification settings.
			ctx.Log(RC_LOG_ERROR, "rcBuildContours: Bad outline for region %d, contour simplification is likely too aggressive.", i)
			return fmt.Errorf("build contours: region %d: %w", i, ErrMissingOutline)
		}
		mergeRegionHoles(ctx, reg)
	}

	cset.Conts = slices.DeleteFunc(cset.Conts, func(c RcContour) bool {
		return len(c.Verts) == 0
	})
	return nil
}
