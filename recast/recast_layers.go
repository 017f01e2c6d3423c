package recast

import (
	"fmt"
	"slices"

	"github.com/gorustyt/gonavbake/common"
)

// RC_MAX_LAYERS bounds the regions stacked over one region in a layer set.
const RC_MAX_LAYERS = 63

// RC_MAX_NEIS bounds the neighbours tracked per layer region. Extra
// neighbours only cause a few more layers to be created.
const RC_MAX_NEIS = 16

const rcLayerNoRegion = 0xff

type rcLayerRegion struct {
	layers     []int
	neis       []int
	ymin, ymax int
	layerID    int  // Layer ID
	base       bool // Flag indicating if the region is the base of merged regions.
}

// addUniqueLayer adds v to the overlap list of r, failing once the list is full.
func (r *rcLayerRegion) addUniqueLayer(v int) bool {
	if slices.Contains(r.layers, v) {
		return true
	}
	if len(r.layers) >= RC_MAX_LAYERS {
		return false
	}
	r.layers = append(r.layers, v)
	return true
}

func (r *rcLayerRegion) addUniqueNei(v int) {
	if len(r.neis) < RC_MAX_NEIS && !slices.Contains(r.neis, v) {
		r.neis = append(r.neis, v)
	}
}

func overlapRange(amin, amax, bmin, bmax int) bool {
	return !(amin > bmax || amax < bmin)
}

type rcLayerSweepSpan struct {
	ns  int // number samples
	id  int // region id
	nei int // neighbour id
}

// / Represents a set of heightfield layers.
type RcHeightfieldLayerSet struct {
	Layers []RcHeightfieldLayer ///< The layers in the set.
}

// / Represents a heightfield layer within a layer set.
type RcHeightfieldLayer struct {
	Bmin    [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax    [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs      float32    ///< The size of each cell. (On the xz-plane.)
	Ch      float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	Width   int        ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height  int        ///< The height of the heightfield. (Along the z-axis in cell units.)
	Minx    int        ///< The minimum x-bounds of usable data.
	Maxx    int        ///< The maximum x-bounds of usable data.
	Miny    int        ///< The minimum y-bounds of usable data. (Along the z-axis.)
	Maxy    int        ///< The maximum y-bounds of usable data. (Along the z-axis.)
	Hmin    int        ///< The minimum height bounds of usable data. (Along the y-axis.)
	Hmax    int        ///< The maximum height bounds of usable data. (Along the y-axis.)
	Heights []uint8    ///< The heightfield. [Size: width * height]
	Areas   []uint8    ///< Area ids. [Size: Same as #heights]
	Cons    []uint8    ///< Packed neighbor connection information. [Size: Same as #heights]
}

// layerMonotoneRegions splits the walkable spans into at most 255 monotone
// regions. Spans outside every region keep rcLayerNoRegion.
func layerMonotoneRegions(chf *RcCompactHeightfield, borderSize int, srcReg []int) (int, error) {
	w := chf.Width
	h := chf.Height

	for i := range srcReg {
		srcReg[i] = rcLayerNoRegion
	}

	sweeps := make([]rcLayerSweepSpan, 0, w)
	prevCount := make([]int, 256)
	regID := 0

	for y := borderSize; y < h-borderSize; y++ {
		clear(prevCount)
		sweeps = sweeps[:0]

		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				if chf.Areas[i] == RC_NULL_AREA {
					continue
				}

				sid := rcLayerNoRegion

				// -x
				if s.GetCon(0) != RC_NOT_CONNECTED {
					ai := chf.NeighbourIndex(x, y, s, 0)
					if chf.Areas[ai] != RC_NULL_AREA && srcReg[ai] != rcLayerNoRegion {
						sid = srcReg[ai]
					}
				}

				if sid == rcLayerNoRegion {
					if len(sweeps) >= rcLayerNoRegion {
						return 0, fmt.Errorf("build layers: %w: more than %d sweeps in row %d", ErrRegionIDOverflow, rcLayerNoRegion, y)
					}
					sid = len(sweeps)
					sweeps = append(sweeps, rcLayerSweepSpan{nei: rcLayerNoRegion})
				}

				// -y
				if s.GetCon(3) != RC_NOT_CONNECTED {
					ai := chf.NeighbourIndex(x, y, s, 3)
					nr := srcReg[ai]
					if nr != rcLayerNoRegion {
						sw := &sweeps[sid]
						// Set neighbour when first valid neighbour is encoutered.
						if sw.ns == 0 {
							sw.nei = nr
						}
						if sw.nei == nr {
							// Update existing neighbour
							sw.ns++
							prevCount[nr]++
						} else {
							// This is hit if there is nore than one neighbour.
							// Invalidate the neighbour.
							sw.nei = rcLayerNoRegion
						}
					}
				}

				srcReg[i] = sid
			}
		}

		// Create unique ID.
		for i := range sweeps {
			sw := &sweeps[i]
			// If the neighbour is set and there is only one continuous connection to it,
			// the sweep will be merged with the previous one, else new region is created.
			if sw.nei != rcLayerNoRegion && prevCount[sw.nei] == sw.ns {
				sw.id = sw.nei
			} else {
				if regID == rcLayerNoRegion {
					return 0, fmt.Errorf("build layers: %w: more than %d regions", ErrRegionIDOverflow, rcLayerNoRegion)
				}
				sw.id = regID
				regID++
			}
		}

		// Remap local sweep ids to region ids.
		for x := borderSize; x < w-borderSize; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				if srcReg[i] != rcLayerNoRegion {
					srcReg[i] = sweeps[srcReg[i]].id
				}
			}
		}
	}
	return regID, nil
}

// / Builds a layer set from the specified compact heightfield.
// /
// / Each layer is a 2.5D heightfield in which no two spans overlap. Regions of
// / the partition are grouped into the fewest layers that keep this property
// / and fit in the 8 bit height range of a layer.
func RcBuildHeightfieldLayers(ctx *RcContext, chf *RcCompactHeightfield, borderSize, walkableHeight int) (*RcHeightfieldLayerSet, error) {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_LAYERS)()

	w := chf.Width
	h := chf.Height

	// Partition walkable area into monotone regions.
	srcReg := make([]int, chf.SpanCount)
	nregs, err := layerMonotoneRegions(chf, borderSize, srcReg)
	if err != nil {
		ctx.Log(RC_LOG_ERROR, "rcBuildHeightfieldLayers: %v", err)
		return nil, err
	}

	// Allocate and init layer regions.
	regs := make([]rcLayerRegion, nregs)
	for i := range regs {
		regs[i].layerID = rcLayerNoRegion
		regs[i].ymin = 0xffff
	}

	// Find region neighbours and overlapping regions.
	lregs := make([]int, 0, RC_MAX_LAYERS)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]

			lregs = lregs[:0]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				ri := srcReg[i]
				if ri == rcLayerNoRegion {
					continue
				}

				regs[ri].ymin = min(regs[ri].ymin, s.Y)
				regs[ri].ymax = max(regs[ri].ymax, s.Y)

				// Collect all region layers.
				if len(lregs) < RC_MAX_LAYERS {
					lregs = append(lregs, ri)
				}

				// Update neighbours
				for dir := 0; dir < 4; dir++ {
					if s.GetCon(dir) == RC_NOT_CONNECTED {
						continue
					}
					rai := srcReg[chf.NeighbourIndex(x, y, s, dir)]
					if rai != rcLayerNoRegion && rai != ri {
						regs[ri].addUniqueNei(rai)
					}
				}
			}

			// Update overlapping regions.
			for i := 0; i < len(lregs)-1; i++ {
				for j := i + 1; j < len(lregs); j++ {
					if lregs[i] == lregs[j] {
						continue
					}
					if !regs[lregs[i]].addUniqueLayer(lregs[j]) || !regs[lregs[j]].addUniqueLayer(lregs[i]) {
						ctx.Log(RC_LOG_ERROR, "rcBuildHeightfieldLayers: layer overflow (too many overlapping walkable platforms). Try increasing RC_MAX_LAYERS.")
						return nil, fmt.Errorf("build layers: cell (%d,%d): %w", x, y, ErrTooManyLayers)
					}
				}
			}
		}
	}

	// Create 2D layers from regions.
	layerID := 0
	queue := make([]int, 0, 64)

	for i := range regs {
		root := &regs[i]
		// Skip already visited.
		if root.layerID != rcLayerNoRegion {
			continue
		}

		// Start search.
		root.layerID = layerID
		root.base = true

		queue = append(queue[:0], i)
		for head := 0; head < len(queue); head++ {
			reg := &regs[queue[head]]
			for _, nei := range reg.neis {
				regn := &regs[nei]
				// Skip already visited.
				if regn.layerID != rcLayerNoRegion {
					continue
				}
				// Skip if the neighbour is overlapping root region.
				if slices.Contains(root.layers, nei) {
					continue
				}
				// Skip if the height range would become too large.
				ymin := min(root.ymin, regn.ymin)
				ymax := max(root.ymax, regn.ymax)
				if ymax-ymin >= 255 {
					continue
				}

				// Deepen
				queue = append(queue, nei)

				// Mark layer id
				regn.layerID = layerID
				// Merge current layers to root.
				for _, l := range regn.layers {
					if !root.addUniqueLayer(l) {
						return nil, fmt.Errorf("build layers: region %d: %w", i, ErrTooManyLayers)
					}
				}
				root.ymin = ymin
				root.ymax = ymax
			}
		}

		layerID++
	}

	// Merge non-overlapping regions that are close in height.
	mergeHeight := walkableHeight * 4

	for i := range regs {
		ri := &regs[i]
		if !ri.base {
			continue
		}

		newID := ri.layerID

		for {
			oldID := rcLayerNoRegion

			for j := range regs {
				if i == j {
					continue
				}
				rj := &regs[j]
				if !rj.base {
					continue
				}

				// Skip if the regions are not close to each other.
				if !overlapRange(ri.ymin, ri.ymax+mergeHeight, rj.ymin, rj.ymax+mergeHeight) {
					continue
				}
				// Skip if the height range would become too large.
				ymin := min(ri.ymin, rj.ymin)
				ymax := max(ri.ymax, rj.ymax)
				if ymax-ymin >= 255 {
					continue
				}

				// Make sure that there is no overlap when merging 'ri' and 'rj'.
				overlap := false
				// Iterate over all regions which have the same layerId as 'rj'
				for k := range regs {
					if regs[k].layerID != rj.layerID {
						continue
					}
					// Index to 'regs' is the same as region id.
					if slices.Contains(ri.layers, k) {
						overlap = true
						break
					}
				}
				// Cannot merge of regions overlap.
				if overlap {
					continue
				}

				// Can merge i and j.
				oldID = rj.layerID
				break
			}

			// Could not find anything to merge with, stop.
			if oldID == rcLayerNoRegion {
				break
			}

			// Merge
			for j := range regs {
				rj := &regs[j]
				if rj.layerID != oldID {
					continue
				}
				rj.base = false
				// Remap layerIds.
				rj.layerID = newID
				// Add overlaid layers from 'rj' to 'ri'.
				for _, l := range rj.layers {
					if !ri.addUniqueLayer(l) {
						return nil, fmt.Errorf("build layers: region %d: %w", i, ErrTooManyLayers)
					}
				}
				// Update height bounds.
				ri.ymin = min(ri.ymin, rj.ymin)
				ri.ymax = max(ri.ymax, rj.ymax)
			}
		}
	}

	// Compact layerIds
	var remap [256]int
	for i := range regs {
		remap[regs[i].layerID] = 1
	}
	nlayers := 0
	for i := range remap {
		if remap[i] > 0 {
			remap[i] = nlayers
			nlayers++
		} else {
			remap[i] = rcLayerNoRegion
		}
	}
	for i := range regs {
		regs[i].layerID = remap[regs[i].layerID]
	}

	lset := &RcHeightfieldLayerSet{}
	// No layers, return empty.
	if nlayers == 0 {
		return lset, nil
	}

	// Create layers.
	lw := w - borderSize*2
	lh := h - borderSize*2

	// Build contracted bbox for layers.
	bmin := chf.Bmin
	bmax := chf.Bmax
	pad := float32(borderSize) * chf.Cs
	bmin[0] += pad
	bmin[2] += pad
	bmax[0] -= pad
	bmax[2] -= pad

	lset.Layers = make([]RcHeightfieldLayer, nlayers)

	// Store layers.
	for curID := range lset.Layers {
		layer := &lset.Layers[curID]

		gridSize := lw * lh
		layer.Heights = make([]uint8, gridSize)
		for k := range layer.Heights {
			layer.Heights[k] = 0xff
		}
		layer.Areas = make([]uint8, gridSize)
		layer.Cons = make([]uint8, gridSize)

		// Find layer height bounds.
		hmin, hmax := 0, 0
		for j := range regs {
			if regs[j].base && regs[j].layerID == curID {
				hmin = regs[j].ymin
				hmax = regs[j].ymax
			}
		}

		layer.Width = lw
		layer.Height = lh
		layer.Cs = chf.Cs
		layer.Ch = chf.Ch

		// Adjust the bbox to fit the heightfield.
		layer.Bmin = bmin
		layer.Bmax = bmax
		layer.Bmin[1] = bmin[1] + float32(hmin)*chf.Ch
		layer.Bmax[1] = bmin[1] + float32(hmax)*chf.Ch
		layer.Hmin = hmin
		layer.Hmax = hmax

		// Update usable data region.
		layer.Minx = layer.Width
		layer.Maxx = 0
		layer.Miny = layer.Height
		layer.Maxy = 0

		// Copy height and area from compact heightfield.
		for y := 0; y < lh; y++ {
			for x := 0; x < lw; x++ {
				cx := borderSize + x
				cy := borderSize + y
				c := chf.Cells[cx+cy*w]
				for j, nj := c.Index, c.Index+c.Count; j < nj; j++ {
					s := &chf.Spans[j]
					// Skip unassigned regions.
					if srcReg[j] == rcLayerNoRegion {
						continue
					}
					// Skip of does nto belong to current layer.
					lid := regs[srcReg[j]].layerID
					if lid != curID {
						continue
					}

					// Update data bounds.
					layer.Minx = min(layer.Minx, x)
					layer.Maxx = max(layer.Maxx, x)
					layer.Miny = min(layer.Miny, y)
					layer.Maxy = max(layer.Maxy, y)

					// Store height and area type.
					idx := x + y*lw
					height := s.Y - hmin
					layer.Areas[idx] = chf.Areas[j]

					// Check connection.
					portal := 0
					con := 0
					for dir := 0; dir < 4; dir++ {
						if s.GetCon(dir) == RC_NOT_CONNECTED {
							continue
						}
						ai := chf.NeighbourIndex(cx, cy, s, dir)
						alid := rcLayerNoRegion
						if srcReg[ai] != rcLayerNoRegion {
							alid = regs[srcReg[ai]].layerID
						}
						if chf.Areas[ai] == RC_NULL_AREA {
							continue
						}
						if lid != alid {
							// Portal mask
							portal |= 1 << dir
							// Update height so that it matches on both sides of the portal.
							if as := &chf.Spans[ai]; as.Y > hmin {
								height = max(height, as.Y-hmin)
							}
						} else {
							// Valid connection mask
							nx := cx + common.GetDirOffsetX(dir) - borderSize
							ny := cy + common.GetDirOffsetY(dir) - borderSize
							if nx >= 0 && ny >= 0 && nx < lw && ny < lh {
								con |= 1 << dir
							}
						}
					}
					layer.Heights[idx] = uint8(min(height, 0xff))
					layer.Cons[idx] = uint8(portal<<4 | con)
				}
			}
		}

		if layer.Minx > layer.Maxx {
			layer.Minx, layer.Maxx = 0, 0
		}
		if layer.Miny > layer.Maxy {
			layer.Miny, layer.Maxy = 0, 0
		}
	}

	return lset, nil
}
