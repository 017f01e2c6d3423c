package recast

import "github.com/gorustyt/gonavbake/common"

func calculateDistanceField(chf *RcCompactHeightfield, src []uint16) (maxDist int) {
	w := chf.Width
	h := chf.Height

	// Init distance and points.
	for i := 0; i < chf.SpanCount; i++ {
		src[i] = 0xffff
	}

	// Mark boundary cells.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				area := chf.Areas[i]

				nc := 0
				for dir := 0; dir < 4; dir++ {
					if s.GetCon(dir) != RC_NOT_CONNECTED {
						ai := chf.NeighbourIndex(x, y, s, dir)
						if area == chf.Areas[ai] {
							nc++
						}
					}
				}
				if nc != 4 {
					src[i] = 0
				}
			}
		}
	}

	relax := func(i, ai, cost int) {
		if int(src[ai])+cost < int(src[i]) {
			src[i] = uint16(int(src[ai]) + cost)
		}
	}

	// Pass 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]

				if s.GetCon(0) != RC_NOT_CONNECTED {
					// (-1,0)
					ax := x + common.GetDirOffsetX(0)
					ay := y + common.GetDirOffsetY(0)
					ai := chf.NeighbourIndex(x, y, s, 0)
					as := &chf.Spans[ai]
					relax(i, ai, 2)

					// (-1,-1)
					if as.GetCon(3) != RC_NOT_CONNECTED {
						relax(i, chf.NeighbourIndex(ax, ay, as, 3), 3)
					}
				}
				if s.GetCon(3) != RC_NOT_CONNECTED {
					// (0,-1)
					ax := x + common.GetDirOffsetX(3)
					ay := y + common.GetDirOffsetY(3)
					ai := chf.NeighbourIndex(x, y, s, 3)
					as := &chf.Spans[ai]
					relax(i, ai, 2)

					// (1,-1)
					if as.GetCon(2) != RC_NOT_CONNECTED {
						relax(i, chf.NeighbourIndex(ax, ay, as, 2), 3)
					}
				}
			}
		}
	}

	// Pass 2
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]

				if s.GetCon(2) != RC_NOT_CONNECTED {
					// (1,0)
					ax := x + common.GetDirOffsetX(2)
					ay := y + common.GetDirOffsetY(2)
					ai := chf.NeighbourIndex(x, y, s, 2)
					as := &chf.Spans[ai]
					relax(i, ai, 2)

					// (1,1)
					if as.GetCon(1) != RC_NOT_CONNECTED {
						relax(i, chf.NeighbourIndex(ax, ay, as, 1), 3)
					}
				}
				if s.GetCon(1) != RC_NOT_CONNECTED {
					// (0,1)
					ax := x + common.GetDirOffsetX(1)
					ay := y + common.GetDirOffsetY(1)
					ai := chf.NeighbourIndex(x, y, s, 1)
					as := &chf.Spans[ai]
					relax(i, ai, 2)

					// (-1,1)
					if as.GetCon(0) != RC_NOT_CONNECTED {
						relax(i, chf.NeighbourIndex(ax, ay, as, 0), 3)
					}
				}
			}
		}
	}

	for i := 0; i < chf.SpanCount; i++ {
		maxDist = max(int(src[i]), maxDist)
	}
	return maxDist
}

func boxBlur(chf *RcCompactHeightfield, thr int, src, dst []uint16) []uint16 {
	w := chf.Width
	h := chf.Height

	thr *= 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.Cells[x+y*w]
			for i, ni := c.Index, c.Index+c.Count; i < ni; i++ {
				s := &chf.Spans[i]
				cd := int(src[i])
				if cd <= thr {
					dst[i] = uint16(cd)
					continue
				}

				d := cd
				for dir := 0; dir < 4; dir++ {
					if s.GetCon(dir) != RC_NOT_CONNECTED {
						ax := x + common.GetDirOffsetX(dir)
						ay := y + common.GetDirOffsetY(dir)
						ai := chf.NeighbourIndex(x, y, s, dir)
						d += int(src[ai])

						as := &chf.Spans[ai]
						dir2 := (dir + 1) & 0x3
						if as.GetCon(dir2) != RC_NOT_CONNECTED {
							ai2 := chf.NeighbourIndex(ax, ay, as, dir2)
							d += int(src[ai2])
						} else {
							d += cd
						}
					} else {
						d += cd * 2
					}
				}
				dst[i] = uint16((d + 5) / 9)
			}
		}
	}
	return dst
}

// / Builds the distance field for the specified compact heightfield.
// /
// / This is usually the second to the last step in creating a fully built
// / compact heightfield.  This step is required before regions are built
// / using #RcBuildRegions or #RcBuildRegionsMonotone.
// /
// / After this step, the distance data is available via the RcCompactHeightfield.MaxDistance
// / and RcCompactHeightfield.Dist fields.
func RcBuildDistanceField(ctx *RcContext, chf *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_DISTANCEFIELD)()

	src := make([]uint16, chf.SpanCount)
	dst := make([]uint16, chf.SpanCount)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)
	chf.MaxDistance = calculateDistanceField(chf, src)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
	// Blur
	chf.Dist = boxBlur(chf, 1, src, dst)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
}
