package recast

import (
	"slices"

	"github.com/gorustyt/gonavbake/common"
)

const rcMaxContourWalk = 40000

type rcRegion struct {
	spanCount        int // Number of spans belonging to this region
	id               int // ID of the region
	areaType         uint8
	visited          bool
	overlap          bool
	connectsToBorder bool
	ymin, ymax       int
	connections      []int
	floors           []int
}

func newRegions(n int) []rcRegion {
	regions := make([]rcRegion, n)
	for i := range regions {
		regions[i].id = i
		regions[i].ymin = 0xffff
	}
	return regions
}

// compactRing removes neighbouring duplicates of a circular list, including
// the wrap from the last element to the first.
func compactRing(ring []int) []int {
	for i := 0; i < len(ring) && len(ring) > 1; {
		ni := (i + 1) % len(ring)
		if ring[i] == ring[ni] {
			ring = slices.Delete(ring, i, i+1)
		} else {
			i++
		}
	}
	return ring
}

func (reg *rcRegion) replaceNeighbour(oldID, newID int) {
	changed := false
	for i, c := range reg.connections {
		if c == oldID {
			reg.connections[i] = newID
			changed = true
		}
	}
	for i, f := range reg.floors {
		if f == oldID {
			reg.floors[i] = newID
		}
	}
	if changed {
		reg.connections = compactRing(reg.connections)
	}
}

func (reg *rcRegion) canMergeWith(other *rcRegion) bool {
	if reg.areaType != other.areaType {
		return false
	}
	n := 0
	for _, c := range reg.connections {
		if c == other.id {
			n++
		}
	}
	if n > 1 {
		return false
	}
	return !slices.Contains(reg.floors, other.id)
}

func (reg *rcRegion) addUniqueFloor(n int) {
	if !slices.Contains(reg.floors, n) {
		reg.floors = append(reg.floors, n)
	}
}

func (reg *rcRegion) addUniqueConnection(n int) {
	if !slices.Contains(reg.connections, n) {
		reg.connections = append(reg.connections, n)
	}
}

// Region is connected to border if one of the neighbours is null id.
func (reg *rcRegion) connectedToBorder() bool {
	return slices.Contains(reg.connections, 0)
}

// mergeRegions splices b's neighbour ring into a's at their shared edge.
func mergeRegions(rega, regb *rcRegion) bool {
	insa := slices.Index(rega.connections, regb.id)
	if insa == -1 {
		return false
	}
	insb := slices.Index(regb.connections, rega.id)
	if insb == -1 {
		return false
	}

	acon := slices.Clone(rega.connections)
	bcon := regb.connections

	merged := make([]int, 0, len(acon)+len(bcon))
	for i := 0; i < len(acon)-1; i++ {
		merged = append(merged, acon[(insa+1+i)%len(acon)])
	}
	for i := 0; i < len(bcon)-1; i++ {
		merged = append(merged, bcon[(insb+1+i)%len(bcon)])
	}
	rega.connections = compactRing(merged)

	for _, f := range regb.floors {
		rega.addUniqueFloor(f)
	}
	rega.spanCount += regb.spanCount
	regb.spanCount = 0
	regb.connections = regb.connections[:0]
	return true
}

func neighbourRegion(chf *RcCompactHeightfield, srcReg []int, x, y int, s *RcCompactSpan, dir int) int {
	if s.GetCon(dir) == RC_NOT_CONNECTED {
		return 0
	}
	return srcReg[chf.NeighbourIndex(x, y, s, dir)]
}

func isSolidEdge(chf *RcCompactHeightfield, srcReg []int, x, y, i, dir int) bool {
	return neighbourRegion(chf, srcReg, x, y, &chf.Spans[i], dir) != srcReg[i]
}

// regionWalkContour follows the boundary of the region owning span i and
// returns the ring of neighbouring region ids met along the way.
func regionWalkContour(x, y, i, dir int, chf *RcCompactHeightfield, srcReg []int, cont []int) []int {
	startDir := dir
	starti := i

	curReg := neighbourRegion(chf, srcReg, x, y, &chf.Spans[i], dir)
	cont = append(cont, curReg)

	for iter := 1; iter < rcMaxContourWalk; iter++ {
		s := &chf.Spans[i]

		if isSolidEdge(chf, srcReg, x, y, i, dir) {
			// Choose the edge corner
			r := neighbourRegion(chf, srcReg, x, y, s, dir)
			if r != curReg {
				curReg = r
				cont = append(cont, curReg)
			}
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			if s.GetCon(dir) == RC_NOT_CONNECTED {
				// Should not happen.
				return cont
			}
			ni := chf.NeighbourIndex(x, y, s, dir)
			x += common.GetDirOffsetX(dir)
			y += common.GetDirOffsetY(dir)
			i = ni
			dir = (dir + 3) & 0x3 // Rotate CCW
		}

		if starti == i && startDir == dir {
			break
		}
	}

	return compactRing(cont)
}

// compressRegionIDs renumbers the non-border regions still referenced by a
// span to 1..N, in slot order, and rewrites srcReg through the new ids. Empty
// slots, such as those reserved while painting the border, get no id. It
// returns N.
func compressRegionIDs(regions []rcRegion, chf *RcCompactHeightfield, srcReg []int) int {
	live := make([]bool, len(regions))
	for i := 0; i < chf.SpanCount; i++ {
		r := srcReg[i]
		if r == 0 || r&RC_BORDER_REG != 0 {
			continue
		}
		if id := regions[r].id; id != 0 && id&RC_BORDER_REG == 0 {
			live[id] = true
		}
	}

	newID := make([]int, len(regions))
	regIDGen := 0
	for i := range regions {
		id := regions[i].id
		if id == 0 || id&RC_BORDER_REG != 0 || !live[id] {
			continue
		}
		if newID[id] == 0 {
			regIDGen++
			newID[id] = regIDGen
		}
	}
	for i := range regions {
		if id := regions[i].id; id&RC_BORDER_REG == 0 {
			regions[i].id = newID[id]
		}
	}

	for i := 0; i < chf.SpanCount; i++ {
		if srcReg[i]&RC_BORDER_REG == 0 {
			srcReg[i] = regions[srcReg[i]].id
		}
	}
	return regIDGen
}

// mergeAndFilterRegions drops island groups smaller than minRegionArea,
// folds small regions into their smallest compatible neighbour until nothing
// changes, and compacts the ids. It returns the ids of regions that were
// found stacked over themselves.
func mergeAndFilterRegions(ctx *RcContext, minRegionArea, mergeRegionSize int, maxRegionID *int,
	chf *RcCompactHeightfield, srcReg []int) []int {
	w := chf.Width
	h := chf.Height

	nreg := *maxRegionID + 1
	regions := newRegions(nreg)

	// Find edge of a region and find connections around the contour.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				r := srcReg[i]
				if r == 0 || r >= nreg {
					continue
				}

				reg := &regions[r]
				reg.spanCount++

				// Update floors.
				for j := c.Index; j < ni; j++ {
					if i == j {
						continue
					}
					floorID := srcReg[j]
					if floorID == 0 || floorID >= nreg {
						continue
					}
					if floorID == r {
						reg.overlap = true
					}
					reg.addUniqueFloor(floorID)
				}

				// Have found contour
				if len(reg.connections) > 0 {
					continue
				}

				reg.areaType = chf.Areas[i]

				// Check if this cell is next to a border.
				ndir := -1
				for dir := 0; dir < 4; dir++ {
					if isSolidEdge(chf, srcReg, x, y, i, dir) {
						ndir = dir
						break
					}
				}

				if ndir != -1 {
					// The cell is at border.
					// Walk around the contour to find all the neighbours.
					reg.connections = regionWalkContour(x, y, i, ndir, chf, srcReg, reg.connections)
				}
			}
		}
	}

	// Remove too small regions.
	stack := &ctx.arena.regionStack
	trace := &ctx.arena.regionTrace
	for i := range regions {
		reg := &regions[i]
		if reg.id == 0 || reg.id&RC_BORDER_REG != 0 || reg.spanCount == 0 || reg.visited {
			continue
		}

		// Count the total size of all the connected regions.
		// Also keep track of the regions connects to a tile border.
		connectsToBorder := false
		spanCount := 0
		stack.Clear()
		trace.Clear()

		reg.visited = true
		stack.Push(i)

		for !stack.Empty() {
			ri := stack.Pop()
			creg := &regions[ri]

			spanCount += creg.spanCount
			trace.Push(ri)

			for _, c := range creg.connections {
				if c&RC_BORDER_REG != 0 {
					connectsToBorder = true
					continue
				}
				neireg := &regions[c]
				if neireg.visited || neireg.id == 0 || neireg.id&RC_BORDER_REG != 0 {
					continue
				}
				// Visit
				stack.Push(neireg.id)
				neireg.visited = true
			}
		}

		// Groups touching a tile border are kept: their true size lies
		// partly in the neighbouring tile.
		if spanCount < minRegionArea && !connectsToBorder {
			// Kill all visited regions.
			for _, ri := range trace.Data() {
				regions[ri].spanCount = 0
				regions[ri].id = 0
			}
		}
	}

	// Merge too small regions to neighbour regions.
	for {
		mergeCount := 0
		for i := range regions {
			reg := &regions[i]
			if reg.id == 0 || reg.id&RC_BORDER_REG != 0 || reg.overlap || reg.spanCount == 0 {
				continue
			}

			// Check to see if the region should be merged.
			if reg.spanCount > mergeRegionSize && reg.connectedToBorder() {
				continue
			}

			// Small region with more than 1 connection.
			// Or region which is not connected to a border at all.
			// Find smallest neighbour region that connects to this one.
			smallest := 0xfffffff
			mergeID := reg.id
			for _, c := range reg.connections {
				if c&RC_BORDER_REG != 0 {
					continue
				}
				mreg := &regions[c]
				if mreg.id == 0 || mreg.id&RC_BORDER_REG != 0 || mreg.overlap {
					continue
				}
				if mreg.spanCount < smallest && reg.canMergeWith(mreg) && mreg.canMergeWith(reg) {
					smallest = mreg.spanCount
					mergeID = mreg.id
				}
			}

			// Found new id.
			if mergeID == reg.id {
				continue
			}
			oldID := reg.id
			if !mergeRegions(&regions[mergeID], reg) {
				continue
			}
			// Fixup regions pointing to current region.
			for j := range regions {
				other := &regions[j]
				if other.id == 0 || other.id&RC_BORDER_REG != 0 {
					continue
				}
				// If another region was already merged into current region
				// change the nid of the previous region too.
				if other.id == oldID {
					other.id = mergeID
				}
				// Replace the current region with the new one if the
				// current regions is neighbour.
				other.replaceNeighbour(oldID, mergeID)
			}
			mergeCount++
		}
		if mergeCount == 0 {
			break
		}
	}

	*maxRegionID = compressRegionIDs(regions, chf, srcReg)

	// Return regions that we found to be overlapping.
	var overlaps []int
	for i := range regions {
		if regions[i].overlap {
			overlaps = append(overlaps, regions[i].id)
		}
	}
	return overlaps
}

// mergeAndFilterLayerRegions joins neighbouring monotone regions into layers
// that never stack over themselves, then drops layers smaller than
// minRegionArea that do not touch the tile border.
func mergeAndFilterLayerRegions(ctx *RcContext, minRegionArea int, maxRegionID *int,
	chf *RcCompactHeightfield, srcReg []int) {
	w := chf.Width
	h := chf.Height

	nreg := *maxRegionID + 1
	regions := newRegions(nreg)

	// Find region neighbours and overlapping regions.
	lregs := &ctx.arena.ints
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]

			lregs.Clear()
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				ri := srcReg[i]
				if ri == 0 || ri >= nreg {
					continue
				}
				reg := &regions[ri]

				reg.spanCount++
				reg.areaType = chf.Areas[i]
				reg.ymin = min(reg.ymin, s.Y)
				reg.ymax = max(reg.ymax, s.Y)

				// Collect all region layers.
				lregs.Push(ri)

				// Update neighbours
				for dir := 0; dir < 4; dir++ {
					if s.GetCon(dir) == RC_NOT_CONNECTED {
						continue
					}
					rai := srcReg[chf.NeighbourIndex(x, y, s, dir)]
					if rai > 0 && rai < nreg && rai != ri {
						reg.addUniqueConnection(rai)
					}
					if rai&RC_BORDER_REG != 0 {
						reg.connectsToBorder = true
					}
				}
			}

			// Update overlapping regions.
			lr := lregs.Data()
			for i := 0; i < len(lr)-1; i++ {
				for j := i + 1; j < len(lr); j++ {
					if lr[i] != lr[j] {
						regions[lr[i]].addUniqueFloor(lr[j])
						regions[lr[j]].addUniqueFloor(lr[i])
					}
				}
			}
		}
	}

	// Create 2D layers from regions.
	layerID := 1
	for i := range regions {
		regions[i].id = 0
	}

	// Merge montone regions to create non-overlapping areas.
	queue := &ctx.arena.regionStack
	for i := 1; i < nreg; i++ {
		root := &regions[i]
		// Skip already visited.
		if root.id != 0 {
			continue
		}

		// Start search.
		root.id = layerID
		queue.Clear()
		queue.Push(i)

		for head := 0; head < queue.Len(); head++ {
			reg := &regions[queue.Index(head)]

			for _, nei := range reg.connections {
				regn := &regions[nei]
				// Skip already visited.
				if regn.id != 0 {
					continue
				}
				// Skip if different area type, do not connect regions with different area type.
				if reg.areaType != regn.areaType {
					continue
				}
				// Skip if the neighbour is overlapping root region.
				if slices.Contains(root.floors, nei) {
					continue
				}
				// Skip if the height range would become too large.
				ymin := min(root.ymin, regn.ymin)
				ymax := max(root.ymax, regn.ymax)
				if ymax-ymin >= 255 {
					continue
				}

				// Deepen
				queue.Push(nei)

				// Mark layer id
				regn.id = layerID
				// Merge current layers to root.
				for _, f := range regn.floors {
					root.addUniqueFloor(f)
				}
				root.ymin = ymin
				root.ymax = ymax
				root.spanCount += regn.spanCount
				regn.spanCount = 0
				root.connectsToBorder = root.connectsToBorder || regn.connectsToBorder
			}
		}

		layerID++
	}

	// Remove small regions
	for i := range regions {
		reg := &regions[i]
		if reg.spanCount > 0 && reg.spanCount < minRegionArea && !reg.connectsToBorder {
			id := reg.id
			for j := range regions {
				if regions[j].id == id {
					regions[j].id = 0
				}
			}
		}
	}

	*maxRegionID = compressRegionIDs(regions, chf, srcReg)
}
