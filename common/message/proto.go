// Package message encodes build output in the protobuf wire format so other
// tools can read it with a matching .proto:
//
//	message Contour {
//	  repeated sint32 verts = 1;
//	  repeated sint32 rverts = 2;
//	  uint32 reg = 3;
//	  uint32 area = 4;
//	}
//	message ContourSet {
//	  repeated float bmin = 1;
//	  repeated float bmax = 2;
//	  float cs = 3;
//	  float ch = 4;
//	  int32 width = 5;
//	  int32 height = 6;
//	  int32 border_size = 7;
//	  float max_error = 8;
//	  repeated Contour conts = 9;
//	}
package message

import (
	"errors"
	"fmt"
	"math"

	"github.com/gorustyt/gonavbake/recast"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrBadField = errors.New("message: bad field")

const (
	contourVerts  protowire.Number = 1
	contourRVerts protowire.Number = 2
	contourReg    protowire.Number = 3
	contourArea   protowire.Number = 4
)

const (
	csetBmin       protowire.Number = 1
	csetBmax       protowire.Number = 2
	csetCs         protowire.Number = 3
	csetCh         protowire.Number = 4
	csetWidth      protowire.Number = 5
	csetHeight     protowire.Number = 6
	csetBorderSize protowire.Number = 7
	csetMaxError   protowire.Number = 8
	csetConts      protowire.Number = 9
)

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendFloats(b []byte, num protowire.Number, v []float32) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(4*len(v)))
	for _, f := range v {
		b = protowire.AppendFixed32(b, math.Float32bits(f))
	}
	return b
}

func appendInt(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendSInts(b []byte, num protowire.Number, v []int) []byte {
	var packed []byte
	for _, x := range v {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(x)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func encodeContour(c *recast.RcContour) []byte {
	var b []byte
	b = appendSInts(b, contourVerts, c.Verts)
	b = appendSInts(b, contourRVerts, c.RVerts)
	b = appendInt(b, contourReg, c.Reg)
	b = appendInt(b, contourArea, int(c.Area))
	return b
}

// EncodeContourSet returns cset as a ContourSet message.
func EncodeContourSet(cset *recast.RcContourSet) []byte {
	var b []byte
	b = appendFloats(b, csetBmin, cset.Bmin[:])
	b = appendFloats(b, csetBmax, cset.Bmax[:])
	b = appendFloat(b, csetCs, cset.Cs)
	b = appendFloat(b, csetCh, cset.Ch)
	b = appendInt(b, csetWidth, cset.Width)
	b = appendInt(b, csetHeight, cset.Height)
	b = appendInt(b, csetBorderSize, cset.BorderSize)
	b = appendFloat(b, csetMaxError, cset.MaxError)
	for i := range cset.Conts {
		b = protowire.AppendTag(b, csetConts, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeContour(&cset.Conts[i]))
	}
	return b
}

// field is one decoded tag and its value.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	fixed  uint32
	bytes  []byte
}

// walk calls fn for every field of a message. Unknown wire types are skipped.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			f.fixed, n = protowire.ConsumeFixed32(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) want(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("%w: field %d has wire type %d, want %d", ErrBadField, f.num, f.typ, typ)
	}
	return nil
}

func consumeFloats(dst []float32, b []byte) error {
	if len(b) != 4*len(dst) {
		return fmt.Errorf("%w: %d bytes for %d floats", ErrBadField, len(b), len(dst))
	}
	for i := range dst {
		v, _ := protowire.ConsumeFixed32(b[4*i:])
		dst[i] = math.Float32frombits(v)
	}
	return nil
}

func consumeSInts(b []byte) ([]int, error) {
	var out []int
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, int(protowire.DecodeZigZag(v)))
		b = b[n:]
	}
	return out, nil
}

func decodeContour(b []byte) (recast.RcContour, error) {
	var c recast.RcContour
	err := walk(b, func(f field) (err error) {
		switch f.num {
		case contourVerts, contourRVerts:
			if err = f.want(protowire.BytesType); err != nil {
				return err
			}
			var v []int
			if v, err = consumeSInts(f.bytes); err != nil {
				return err
			}
			if len(v)%4 != 0 {
				return fmt.Errorf("%w: %d contour values", ErrBadField, len(v))
			}
			if f.num == contourVerts {
				c.Verts = v
			} else {
				c.RVerts = v
			}
		case contourReg:
			err = f.want(protowire.VarintType)
			c.Reg = int(f.varint)
		case contourArea:
			err = f.want(protowire.VarintType)
			c.Area = uint8(f.varint)
		}
		return err
	})
	return c, err
}

// DecodeContourSet parses a ContourSet message.
func DecodeContourSet(b []byte) (*recast.RcContourSet, error) {
	cset := &recast.RcContourSet{}
	err := walk(b, func(f field) (err error) {
		switch f.num {
		case csetBmin, csetBmax:
			if err = f.want(protowire.BytesType); err != nil {
				return err
			}
			if f.num == csetBmin {
				return consumeFloats(cset.Bmin[:], f.bytes)
			}
			return consumeFloats(cset.Bmax[:], f.bytes)
		case csetCs:
			err = f.want(protowire.Fixed32Type)
			cset.Cs = math.Float32frombits(f.fixed)
		case csetCh:
			err = f.want(protowire.Fixed32Type)
			cset.Ch = math.Float32frombits(f.fixed)
		case csetMaxError:
			err = f.want(protowire.Fixed32Type)
			cset.MaxError = math.Float32frombits(f.fixed)
		case csetWidth:
			err = f.want(protowire.VarintType)
			cset.Width = int(int64(f.varint))
		case csetHeight:
			err = f.want(protowire.VarintType)
			cset.Height = int(int64(f.varint))
		case csetBorderSize:
			err = f.want(protowire.VarintType)
			cset.BorderSize = int(int64(f.varint))
		case csetConts:
			if err = f.want(protowire.BytesType); err != nil {
				return err
			}
			var c recast.RcContour
			if c, err = decodeContour(f.bytes); err != nil {
				return fmt.Errorf("contour %d: %w", len(cset.Conts), err)
			}
			cset.Conts = append(cset.Conts, c)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("decode contour set: %w", err)
	}
	return cset, nil
}
