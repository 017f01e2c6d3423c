package recast

import "fmt"

// RC_NULL_SPAN terminates a column's span chain.
const RC_NULL_SPAN int32 = -1

// / Represents a span in a heightfield.
// / @see RcHeightfield
type RcSpan struct {
	Smin uint16 ///< The lower limit of the span. [Limit: < #Smax]
	Smax uint16 ///< The upper limit of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT]
	Area uint8  ///< The area id assigned to the span.
	Next int32  ///< Arena index of the next-higher span in the column, or RC_NULL_SPAN.
}

// / A dynamic heightfield representing obstructed space.
// /
// / Spans are kept in a single arena. Each column stores the index of its
// / lowest span and spans chain upward through RcSpan.Next.
type RcHeightfield struct {
	Width      int        ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height     int        ///< The height of the heightfield. (Along the z-axis in cell units.)
	Bmin       [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax       [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs         float32    ///< The size of each cell. (On the xz-plane.)
	Ch         float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	BorderSize int        ///< Border size in cell units

	heads    []int32
	pool     []RcSpan
	freelist int32
}

// RcCreateHeightfield allocates an empty heightfield.
func RcCreateHeightfield(ctx *RcContext, sizeX, sizeZ int, bmin, bmax [3]float32, cs, ch float32) (*RcHeightfield, error) {
	if sizeX <= 0 || sizeZ <= 0 || cs <= 0 || ch <= 0 {
		return nil, fmt.Errorf("%w: heightfield %dx%d cs=%v ch=%v", ErrInvalidInput, sizeX, sizeZ, cs, ch)
	}
	hf := &RcHeightfield{
		Width:    sizeX,
		Height:   sizeZ,
		Bmin:     bmin,
		Bmax:     bmax,
		Cs:       cs,
		Ch:       ch,
		heads:    make([]int32, sizeX*sizeZ),
		freelist: RC_NULL_SPAN,
	}
	for i := range hf.heads {
		hf.heads[i] = RC_NULL_SPAN
	}
	return hf, nil
}

// Span returns the arena slot at index i.
func (hf *RcHeightfield) Span(i int32) *RcSpan {
	return &hf.pool[i]
}

// ColumnHead returns the lowest span index of column (x, z), or RC_NULL_SPAN.
func (hf *RcHeightfield) ColumnHead(x, z int) int32 {
	return hf.heads[x+z*hf.Width]
}

// ColumnSpans copies the spans of column (x, z) bottom to top.
func (hf *RcHeightfield) ColumnSpans(x, z int) []RcSpan {
	var res []RcSpan
	for si := hf.heads[x+z*hf.Width]; si != RC_NULL_SPAN; si = hf.pool[si].Next {
		res = append(res, hf.pool[si])
	}
	return res
}

// SpanCount counts the spans whose area is not RC_NULL_AREA.
func (hf *RcHeightfield) SpanCount() int {
	spanCount := 0
	for _, head := range hf.heads {
		for si := head; si != RC_NULL_SPAN; si = hf.pool[si].Next {
			if hf.pool[si].Area != RC_NULL_AREA {
				spanCount++
			}
		}
	}
	return spanCount
}

func (hf *RcHeightfield) allocSpan() int32 {
	if hf.freelist != RC_NULL_SPAN {
		i := hf.freelist
		hf.freelist = hf.pool[i].Next
		return i
	}
	hf.pool = append(hf.pool, RcSpan{})
	return int32(len(hf.pool) - 1)
}

func (hf *RcHeightfield) freeSpan(i int32) {
	hf.pool[i] = RcSpan{Next: hf.freelist}
	hf.freelist = i
}

// addSpan inserts [smin, smax] into column (x, z), merging every span it
// overlaps or touches.
func (hf *RcHeightfield) addSpan(x, z int, smin, smax uint16, areaID uint8, flagMergeThreshold int) {
	columnIndex := x + z*hf.Width
	previous := RC_NULL_SPAN
	current := hf.heads[columnIndex]

	// Insert the new span, possibly merging it with existing spans.
	for current != RC_NULL_SPAN {
		cur := &hf.pool[current]
		if cur.Smin > smax {
			// Current span is completely after the new span, break.
			break
		}
		if cur.Smax < smin {
			// Current span is completely before the new span.  Keep going.
			previous = current
			current = cur.Next
			continue
		}

		// The new span overlaps with an existing span.  Merge them.
		if cur.Smin < smin {
			smin = cur.Smin
		}
		if cur.Smax > smax {
			smax = cur.Smax
		}
		// Merge flags.
		if abs(int(smax)-int(cur.Smax)) <= flagMergeThreshold {
			// Higher area ID numbers indicate higher resolution priority.
			areaID = max(areaID, cur.Area)
		}

		// Remove the current span since it's now merged with newSpan.
		next := cur.Next
		hf.freeSpan(current)
		if previous != RC_NULL_SPAN {
			hf.pool[previous].Next = next
		} else {
			hf.heads[columnIndex] = next
		}
		current = next
	}

	newSpan := hf.allocSpan()
	hf.pool[newSpan] = RcSpan{Smin: smin, Smax: smax, Area: areaID}
	// Insert new span after prev
	if previous != RC_NULL_SPAN {
		hf.pool[newSpan].Next = hf.pool[previous].Next
		hf.pool[previous].Next = newSpan
	} else {
		// This span should go before the others in the list
		hf.pool[newSpan].Next = hf.heads[columnIndex]
		hf.heads[columnIndex] = newSpan
	}
}

// / Adds a span to the specified heightfield.
// /
// / The span addition can be set to favor flags. If the span is merged to
// / another span and the new @p smax is within @p flagMergeThreshold units
// / from the existing span, the span flags are merged.
func RcAddSpan(ctx *RcContext, hf *RcHeightfield, x, z int, smin, smax uint16, areaID uint8, flagMergeThreshold int) error {
	if x < 0 || z < 0 || x >= hf.Width || z >= hf.Height {
		return fmt.Errorf("%w: span column (%d,%d) in %dx%d heightfield", ErrOutOfBounds, x, z, hf.Width, hf.Height)
	}
	if smin >= smax || smax > RC_SPAN_MAX_HEIGHT {
		return fmt.Errorf("%w: span [%d,%d]", ErrInvalidInput, smin, smax)
	}
	hf.addSpan(x, z, smin, smax, areaID, flagMergeThreshold)
	return nil
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
