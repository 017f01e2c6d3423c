package debug_utils

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gorustyt/gonavbake/common/rw"
	"github.com/gorustyt/gonavbake/recast"
)

var (
	ErrBadMagic   = errors.New("debug_utils: bad magic")
	ErrBadVersion = errors.New("debug_utils: bad version")
)

const CSET_MAGIC = ('c' << 24) | ('s' << 16) | ('e' << 8) | 't'

const CSET_VERSION = 2

const CHF_MAGIC = ('r' << 24) | ('c' << 16) | ('h' << 8) | 'f'

const CHF_VERSION = 3

// Sections present in a compact heightfield dump.
const (
	chfHasCells = 1 << iota
	chfHasSpans
	chfHasDist
	chfHasAreas
)

// DuSniffMagic returns the magic of a dump, or 0 when data is too short.
func DuSniffMagic(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

func readHeader(r *rw.ReaderWriter, magic, version int32) error {
	m := r.ReadInt32()
	v := r.ReadInt32()
	if err := r.Err(); err != nil {
		return err
	}
	if m != magic {
		return fmt.Errorf("%w: %#x", ErrBadMagic, uint32(m))
	}
	if v != version {
		return fmt.Errorf("%w: %d, want %d", ErrBadVersion, v, version)
	}
	return nil
}

// need fails r when fewer than n bytes are left, before a large allocation.
func need(r *rw.ReaderWriter, n int) error {
	if n < 0 || n > r.Size() {
		return fmt.Errorf("%w: section of %d bytes, %d left", rw.ErrShortBuffer, n, r.Size())
	}
	return nil
}

// DuDumpContourSetToObj writes every simplified contour as a closed OBJ
// polyline in world space.
func DuDumpContourSetToObj(cset *recast.RcContourSet, w *rw.ReaderWriter) {
	orig := cset.Bmin
	cs := cset.Cs
	ch := cset.Ch

	w.WriteString("# Recast Contours\n")
	w.WriteString("o Contours\n")

	base := 1
	for i := range cset.Conts {
		cont := &cset.Conts[i]
		n := cont.NVerts()
		if n == 0 {
			continue
		}
		w.WriteString(fmt.Sprintf("\ng reg%d_area%d\n", cont.Reg, cont.Area))
		for j := 0; j < n; j++ {
			v := cont.Verts[j*4:]
			x := orig[0] + float32(v[0])*cs
			y := orig[1] + float32(v[1]+1)*ch + 0.1
			z := orig[2] + float32(v[2])*cs
			w.WriteString(fmt.Sprintf("v %f %f %f\n", x, y, z))
		}
		w.WriteString("l")
		for j := 0; j < n; j++ {
			w.WriteString(fmt.Sprintf(" %d", base+j))
		}
		w.WriteString(fmt.Sprintf(" %d\n", base))
		base += n
	}
}

func DuDumpContourSet(cset *recast.RcContourSet, w *rw.ReaderWriter) {
	w.WriteInt32(CSET_MAGIC)
	w.WriteInt32(CSET_VERSION)
	w.WriteInt32(int32(len(cset.Conts)))
	w.WriteFloat32s(cset.Bmin[:])
	w.WriteFloat32s(cset.Bmax[:])

	w.WriteFloat32(cset.Cs)
	w.WriteFloat32(cset.Ch)

	w.WriteInt32(int32(cset.Width))
	w.WriteInt32(int32(cset.Height))
	w.WriteInt32(int32(cset.BorderSize))
	w.WriteFloat32(cset.MaxError)
	for i := range cset.Conts {
		cont := &cset.Conts[i]
		w.WriteInt32(int32(cont.NVerts()))
		w.WriteInt32(int32(cont.NRVerts()))

		w.WriteUInt16(uint16(cont.Reg))
		w.WriteUInt8(cont.Area)
		w.WriteInts(cont.Verts)
		w.WriteInts(cont.RVerts)
	}
}

func DuReadContourSet(r *rw.ReaderWriter) (*recast.RcContourSet, error) {
	if err := readHeader(r, CSET_MAGIC, CSET_VERSION); err != nil {
		return nil, fmt.Errorf("read contour set: %w", err)
	}
	nconts := int(r.ReadInt32())
	// Each contour carries at least its 11 byte header.
	if err := need(r, nconts*11); err != nil {
		return nil, fmt.Errorf("read contour set: %w", err)
	}

	cset := &recast.RcContourSet{Conts: make([]recast.RcContour, nconts)}
	r.ReadFloat32s(cset.Bmin[:])
	r.ReadFloat32s(cset.Bmax[:])

	cset.Cs = r.ReadFloat32()
	cset.Ch = r.ReadFloat32()
	cset.Width = int(r.ReadInt32())
	cset.Height = int(r.ReadInt32())
	cset.BorderSize = int(r.ReadInt32())
	cset.MaxError = r.ReadFloat32()
	for i := range cset.Conts {
		cont := &cset.Conts[i]
		nverts := int(r.ReadInt32())
		nrverts := int(r.ReadInt32())
		cont.Reg = int(r.ReadUInt16())
		cont.Area = r.ReadUInt8()
		cont.Verts = r.ReadInts(4 * nverts)
		cont.RVerts = r.ReadInts(4 * nrverts)
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("read contour %d: %w", i, err)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read contour set: %w", err)
	}
	return cset, nil
}

// Cells pack index:24 count:8 and spans pack con:24 h:8, the layout of
// the native rcCompactHeightfield dumps.
func packCell(c recast.RcCompactCell) uint32 {
	return uint32(c.Index)&0xffffff | uint32(c.Count)<<24
}

func unpackCell(v uint32) recast.RcCompactCell {
	return recast.RcCompactCell{Index: int(v & 0xffffff), Count: int(v >> 24)}
}

func packSpanCon(s *recast.RcCompactSpan) uint32 {
	var con uint32
	for dir := 0; dir < 4; dir++ {
		con |= uint32(s.Con[dir]&0x3f) << (dir * 6)
	}
	return con | uint32(s.H&0xff)<<24
}

func unpackSpanCon(s *recast.RcCompactSpan, v uint32) {
	for dir := 0; dir < 4; dir++ {
		s.Con[dir] = uint8(v>>(dir*6)) & 0x3f
	}
	s.H = int(v >> 24)
}

func DuDumpCompactHeightfield(chf *recast.RcCompactHeightfield, w *rw.ReaderWriter) {
	w.WriteInt32(CHF_MAGIC)
	w.WriteInt32(CHF_VERSION)
	w.WriteInt32(int32(chf.Width))
	w.WriteInt32(int32(chf.Height))
	w.WriteInt32(int32(chf.SpanCount))
	w.WriteInt32(int32(chf.WalkableHeight))
	w.WriteInt32(int32(chf.WalkableClimb))
	w.WriteInt32(int32(chf.BorderSize))
	w.WriteUInt16(uint16(chf.MaxDistance))
	w.WriteUInt16(uint16(chf.MaxRegions))
	w.WriteFloat32s(chf.Bmin[:])
	w.WriteFloat32s(chf.Bmax[:])
	w.WriteFloat32(chf.Cs)
	w.WriteFloat32(chf.Ch)
	tmp := 0
	if len(chf.Cells) != 0 {
		tmp |= chfHasCells
	}
	if len(chf.Spans) != 0 {
		tmp |= chfHasSpans
	}
	if len(chf.Dist) != 0 {
		tmp |= chfHasDist
	}
	if len(chf.Areas) != 0 {
		tmp |= chfHasAreas
	}
	w.WriteInt32(int32(tmp))

	for _, c := range chf.Cells {
		w.WriteUInt32(packCell(c))
	}
	for i := range chf.Spans {
		s := &chf.Spans[i]
		w.WriteUInt16(uint16(s.Y))
		w.WriteUInt16(uint16(s.Reg))
		w.WriteUInt32(packSpanCon(s))
	}
	w.WriteUInt16s(chf.Dist)
	w.WriteUInt8s(chf.Areas)
}

func DuReadCompactHeightfield(r *rw.ReaderWriter) (*recast.RcCompactHeightfield, error) {
	if err := readHeader(r, CHF_MAGIC, CHF_VERSION); err != nil {
		return nil, fmt.Errorf("read compact heightfield: %w", err)
	}
	chf := &recast.RcCompactHeightfield{}
	chf.Width = int(r.ReadInt32())
	chf.Height = int(r.ReadInt32())
	chf.SpanCount = int(r.ReadInt32())
	chf.WalkableHeight = int(r.ReadInt32())
	chf.WalkableClimb = int(r.ReadInt32())
	chf.BorderSize = int(r.ReadInt32())

	chf.MaxDistance = int(r.ReadUInt16())
	chf.MaxRegions = int(r.ReadUInt16())
	r.ReadFloat32s(chf.Bmin[:])
	r.ReadFloat32s(chf.Bmax[:])
	chf.Cs = r.ReadFloat32()
	chf.Ch = r.ReadFloat32()
	tmp := r.ReadInt32()
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read compact heightfield: %w", err)
	}
	if chf.Width < 0 || chf.Height < 0 || chf.SpanCount < 0 {
		return nil, fmt.Errorf("read compact heightfield: %w: size %dx%d, %d spans",
			recast.ErrInvalidInput, chf.Width, chf.Height, chf.SpanCount)
	}

	if tmp&chfHasCells != 0 {
		if err := need(r, chf.Width*chf.Height*4); err != nil {
			return nil, fmt.Errorf("read cells: %w", err)
		}
		chf.Cells = make([]recast.RcCompactCell, chf.Width*chf.Height)
		for i := range chf.Cells {
			chf.Cells[i] = unpackCell(r.ReadUInt32())
		}
	}
	if tmp&chfHasSpans != 0 {
		if err := need(r, chf.SpanCount*8); err != nil {
			return nil, fmt.Errorf("read spans: %w", err)
		}
		chf.Spans = make([]recast.RcCompactSpan, chf.SpanCount)
		for i := range chf.Spans {
			s := &chf.Spans[i]
			s.Y = int(r.ReadUInt16())
			s.Reg = int(r.ReadUInt16())
			unpackSpanCon(s, r.ReadUInt32())
		}
	}
	if tmp&chfHasDist != 0 {
		if err := need(r, chf.SpanCount*2); err != nil {
			return nil, fmt.Errorf("read distances: %w", err)
		}
		chf.Dist = make([]uint16, chf.SpanCount)
		r.ReadUInt16s(chf.Dist)
	}
	if tmp&chfHasAreas != 0 {
		if err := need(r, chf.SpanCount); err != nil {
			return nil, fmt.Errorf("read areas: %w", err)
		}
		chf.Areas = make([]uint8, chf.SpanCount)
		r.ReadUInt8s(chf.Areas)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read compact heightfield: %w", err)
	}
	return chf, nil
}
