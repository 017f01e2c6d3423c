package rw

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUInt8(7)
	w.WriteUInt16(0xbeef)
	w.WriteInt32(-42)
	w.WriteFloat32(1.5)
	w.WriteInts([]int{1, -2, 3})
	w.WriteFloat32s([]float32{.25, -8})
	w.WriteUInt8s([]uint8{9, 8})
	w.WriteUInt16s([]uint16{1, 2})

	r := NewReader(w.GetWriteBytes())
	if got := r.ReadUInt8(); got != 7 {
		t.Errorf("uint8: got %d", got)
	}
	if got := r.ReadUInt16(); got != 0xbeef {
		t.Errorf("uint16: got %x", got)
	}
	if got := r.ReadInt32(); got != -42 {
		t.Errorf("int32: got %d", got)
	}
	if got := r.ReadFloat32(); got != 1.5 {
		t.Errorf("float32: got %v", got)
	}
	ints := r.ReadInts(3)
	if len(ints) != 3 || ints[0] != 1 || ints[1] != -2 || ints[2] != 3 {
		t.Errorf("ints: got %v", ints)
	}
	fs := make([]float32, 2)
	r.ReadFloat32s(fs)
	if fs[0] != .25 || fs[1] != -8 {
		t.Errorf("floats: got %v", fs)
	}
	bs := make([]uint8, 2)
	r.ReadUInt8s(bs)
	if bs[0] != 9 || bs[1] != 8 {
		t.Errorf("bytes: got %v", bs)
	}
	us := make([]uint16, 2)
	r.ReadUInt16s(us)
	if us[0] != 1 || us[1] != 2 {
		t.Errorf("uint16s: got %v", us)
	}
	if r.Err() != nil || r.Size() != 0 {
		t.Errorf("clean read expected, err=%v left=%d", r.Err(), r.Size())
	}
}

func TestShortBufferIsSticky(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if got := r.ReadUInt32(); got != 0 {
		t.Errorf("short read returns zero, got %d", got)
	}
	if !errors.Is(r.Err(), ErrShortBuffer) {
		t.Fatalf("want ErrShortBuffer, got %v", r.Err())
	}
	if got := r.ReadUInt8(); got != 0 {
		t.Errorf("reads after an error return zero, got %d", got)
	}
	if r.ReadInts(1) != nil {
		t.Error("ints after an error are nil")
	}
}

func TestReadIntsRejectsHugeCounts(t *testing.T) {
	r := NewReader([]byte{1, 0, 0, 0})
	if r.ReadInts(1 << 30) != nil {
		t.Error("count larger than the buffer is refused")
	}
	if !errors.Is(r.Err(), ErrShortBuffer) {
		t.Errorf("want ErrShortBuffer, got %v", r.Err())
	}
}

func TestChangeOrder(t *testing.T) {
	w := NewWriter()
	w.ChangeOrder(binary.BigEndian)
	w.WriteUInt16(0x0102)
	w.PadZero(2)
	b := w.GetWriteBytes()
	if len(b) != 4 || b[0] != 1 || b[1] != 2 || b[2] != 0 {
		t.Errorf("big endian write: got %v", b)
	}
	r := NewReader(b)
	r.Skip(2)
	if r.Size() != 2 {
		t.Errorf("skip consumes bytes, %d left", r.Size())
	}
}
