package dbuswire

import (
	"errors"
	"fmt"
	"math"

	"github.com/danderson/dbuswire/fragments"
)

// ErrTypeMismatch is returned when a value written to a [Writer] does
// not match the type the Writer expects at that position.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrInvalidValue is returned when a value written to a [Writer] has
// the right Go type but cannot be encoded, for example a string that
// is not valid UTF-8.
var ErrInvalidValue = errors.New("invalid value")

// A UnixFD is a DBus file descriptor value: an index into the array
// of file descriptors sent alongside a message.
type UnixFD uint32

// Basic values are exchanged with Readers and Writers as the
// following Go types:
//
//	TypeByte        byte
//	TypeBoolean     bool
//	TypeInt16       int16
//	TypeUint16      uint16
//	TypeInt32       int32
//	TypeUint32      uint32
//	TypeInt64       int64
//	TypeUint64      uint64
//	TypeDouble      float64
//	TypeString      string
//	TypeObjectPath  ObjectPath (or string, when writing)
//	TypeSignature   Signature (or string, when writing)
//	TypeUnixFD      UnixFD (or uint32, when writing)
func encodeBasic(e *fragments.Encoder, t Type, v any) error {
	mismatch := func() error {
		return fmt.Errorf("%w: cannot write %T as %s", ErrTypeMismatch, v, t)
	}
	switch t {
	case TypeByte:
		u, ok := v.(byte)
		if !ok {
			return mismatch()
		}
		e.Uint8(u)
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		if b {
			e.Uint32(1)
		} else {
			e.Uint32(0)
		}
	case TypeInt16:
		i, ok := v.(int16)
		if !ok {
			return mismatch()
		}
		e.Uint16(uint16(i))
	case TypeUint16:
		u, ok := v.(uint16)
		if !ok {
			return mismatch()
		}
		e.Uint16(u)
	case TypeInt32:
		i, ok := v.(int32)
		if !ok {
			return mismatch()
		}
		e.Uint32(uint32(i))
	case TypeUint32:
		u, ok := v.(uint32)
		if !ok {
			return mismatch()
		}
		e.Uint32(u)
	case TypeUnixFD:
		switch fd := v.(type) {
		case UnixFD:
			e.Uint32(uint32(fd))
		case uint32:
			e.Uint32(fd)
		default:
			return mismatch()
		}
	case TypeInt64:
		i, ok := v.(int64)
		if !ok {
			return mismatch()
		}
		e.Uint64(uint64(i))
	case TypeUint64:
		u, ok := v.(uint64)
		if !ok {
			return mismatch()
		}
		e.Uint64(u)
	case TypeDouble:
		f, ok := v.(float64)
		if !ok {
			return mismatch()
		}
		e.Uint64(math.Float64bits(f))
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return mismatch()
		}
		if !validString([]byte(s)) {
			return fmt.Errorf("%w: string %q is not valid UTF-8 without NULs", ErrInvalidValue, s)
		}
		e.String(s)
	case TypeObjectPath:
		var p ObjectPath
		switch s := v.(type) {
		case ObjectPath:
			p = s
		case string:
			p = ObjectPath(s)
		default:
			return mismatch()
		}
		if !p.Valid() {
			return fmt.Errorf("%w: invalid object path %q", ErrInvalidValue, p)
		}
		e.String(string(p))
	case TypeSignature:
		var s string
		switch sig := v.(type) {
		case Signature:
			s = string(sig)
		case string:
			s = sig
		default:
			return mismatch()
		}
		if r := ValidateSignature(s); r != Valid {
			return fmt.Errorf("%w: signature %q: %s", ErrInvalidValue, s, r)
		}
		e.Signature(s)
	default:
		return fmt.Errorf("%w: %s is not a basic type", ErrTypeMismatch, t)
	}
	return nil
}

// marshalBasic inserts v, encoded as type t with any leading
// alignment padding, into buf at pos. It returns the position just
// past the inserted value. On error buf is unchanged.
func marshalBasic(buf *Buffer, pos int, t Type, v any, ord fragments.ByteOrder) (int, error) {
	e := fragments.Encoder{
		Order: ord,
		Base:  pos,
	}
	if err := encodeBasic(&e, t, v); err != nil {
		return pos, err
	}
	if err := buf.reserve(len(e.Out)); err != nil {
		return pos, err
	}
	buf.insert(pos, e.Out...)
	return pos + len(e.Out), nil
}

// unmarshalBasic reads the value of type t at pos, skipping leading
// alignment padding. It returns the value and the position just past
// it.
//
// data must have been validated. unmarshalBasic panics if the value
// runs past the end of data.
func unmarshalBasic(data []byte, pos int, t Type, ord fragments.ByteOrder) (any, int) {
	d := fragments.Decoder{
		Order:  ord,
		In:     data,
		Offset: pos,
	}
	var (
		ret any
		err error
	)
	switch t {
	case TypeByte:
		ret, err = d.Uint8()
	case TypeBoolean:
		var u uint32
		u, err = d.Uint32()
		ret = u != 0
	case TypeInt16:
		var u uint16
		u, err = d.Uint16()
		ret = int16(u)
	case TypeUint16:
		ret, err = d.Uint16()
	case TypeInt32:
		var u uint32
		u, err = d.Uint32()
		ret = int32(u)
	case TypeUint32:
		ret, err = d.Uint32()
	case TypeUnixFD:
		var u uint32
		u, err = d.Uint32()
		ret = UnixFD(u)
	case TypeInt64:
		var u uint64
		u, err = d.Uint64()
		ret = int64(u)
	case TypeUint64:
		ret, err = d.Uint64()
	case TypeDouble:
		var u uint64
		u, err = d.Uint64()
		ret = math.Float64frombits(u)
	case TypeString:
		ret, err = d.String()
	case TypeObjectPath:
		var s string
		s, err = d.String()
		ret = ObjectPath(s)
	case TypeSignature:
		var s string
		s, err = d.Signature()
		ret = Signature(s)
	default:
		panic(fmt.Sprintf("unmarshalBasic of non-basic type %s", t))
	}
	if err != nil {
		panic(fmt.Sprintf("reading %s at offset %d of unvalidated buffer: %v", t, pos, err))
	}
	return ret, d.Offset
}

// readUint32 reads the 4-byte value at pos, which must be aligned.
func readUint32(data []byte, pos int, ord fragments.ByteOrder) uint32 {
	return ord.Uint32(data[pos : pos+4])
}

// skipBasic returns the position just past the value of type t at
// pos, including its leading alignment padding.
func skipBasic(data []byte, pos int, t Type, ord fragments.ByteOrder) int {
	switch {
	case t.IsFixed():
		return fragments.Align(pos, t.Alignment()) + t.fixedSize()
	case t == TypeString || t == TypeObjectPath:
		pos = fragments.Align(pos, 4)
		return pos + 4 + int(readUint32(data, pos, ord)) + 1
	case t == TypeSignature:
		return pos + 1 + int(data[pos]) + 1
	default:
		panic(fmt.Sprintf("skipBasic of non-basic type %s", t))
	}
}

// skipArray returns the position just past the array at pos whose
// elements are of type elem.
func skipArray(data []byte, pos int, elem Type, ord fragments.ByteOrder) int {
	pos = fragments.Align(pos, 4)
	n := int(readUint32(data, pos, ord))
	pos = fragments.Align(pos+4, elem.Alignment())
	return pos + n
}

// encodeFixedBlock encodes every element of values, which must be a
// slice of the Go type for the fixed type t.
func encodeFixedBlock(e *fragments.Encoder, t Type, values any) (int, error) {
	mismatch := func() (int, error) {
		return 0, fmt.Errorf("%w: cannot write %T as array of %s", ErrTypeMismatch, values, t)
	}
	e.Pad(t.Alignment())
	switch t {
	case TypeByte:
		vs, ok := values.([]byte)
		if !ok {
			return mismatch()
		}
		e.Write(vs)
		return len(vs), nil
	case TypeBoolean:
		vs, ok := values.([]bool)
		if !ok {
			return mismatch()
		}
		for _, v := range vs {
			if v {
				e.Uint32(1)
			} else {
				e.Uint32(0)
			}
		}
		return len(vs), nil
	case TypeInt16:
		return encodeEach(values, e.Uint16, mismatch, func(v int16) uint16 { return uint16(v) })
	case TypeUint16:
		return encodeEach(values, e.Uint16, mismatch, func(v uint16) uint16 { return v })
	case TypeInt32:
		return encodeEach(values, e.Uint32, mismatch, func(v int32) uint32 { return uint32(v) })
	case TypeUint32:
		return encodeEach(values, e.Uint32, mismatch, func(v uint32) uint32 { return v })
	case TypeUnixFD:
		return encodeEach(values, e.Uint32, mismatch, func(v UnixFD) uint32 { return uint32(v) })
	case TypeInt64:
		return encodeEach(values, e.Uint64, mismatch, func(v int64) uint64 { return uint64(v) })
	case TypeUint64:
		return encodeEach(values, e.Uint64, mismatch, func(v uint64) uint64 { return v })
	case TypeDouble:
		return encodeEach(values, e.Uint64, mismatch, math.Float64bits)
	default:
		return 0, fmt.Errorf("%w: %s is not a fixed type", ErrTypeMismatch, t)
	}
}

func encodeEach[T any, W uint16 | uint32 | uint64](values any, put func(W), mismatch func() (int, error), conv func(T) W) (int, error) {
	vs, ok := values.([]T)
	if !ok {
		return mismatch()
	}
	for _, v := range vs {
		put(conv(v))
	}
	return len(vs), nil
}

// decodeFixedBlock returns the n bytes of fixed type t values at
// data[pos:], as a slice of the Go type for t.
func decodeFixedBlock(data []byte, pos, n int, t Type, ord fragments.ByteOrder) any {
	bs := data[pos : pos+n]
	size := t.fixedSize()
	count := n / size
	switch t {
	case TypeByte:
		return append([]byte(nil), bs...)
	case TypeBoolean:
		return decodeEach(bs, count, size, func(b []byte) bool { return ord.Uint32(b) != 0 })
	case TypeInt16:
		return decodeEach(bs, count, size, func(b []byte) int16 { return int16(ord.Uint16(b)) })
	case TypeUint16:
		return decodeEach(bs, count, size, ord.Uint16)
	case TypeInt32:
		return decodeEach(bs, count, size, func(b []byte) int32 { return int32(ord.Uint32(b)) })
	case TypeUint32:
		return decodeEach(bs, count, size, ord.Uint32)
	case TypeUnixFD:
		return decodeEach(bs, count, size, func(b []byte) UnixFD { return UnixFD(ord.Uint32(b)) })
	case TypeInt64:
		return decodeEach(bs, count, size, func(b []byte) int64 { return int64(ord.Uint64(b)) })
	case TypeUint64:
		return decodeEach(bs, count, size, ord.Uint64)
	case TypeDouble:
		return decodeEach(bs, count, size, func(b []byte) float64 { return math.Float64frombits(ord.Uint64(b)) })
	default:
		panic(fmt.Sprintf("decodeFixedBlock of non-fixed type %s", t))
	}
}

func decodeEach[T any](bs []byte, count, size int, get func([]byte) T) []T {
	ret := make([]T, count)
	for i := range ret {
		ret[i] = get(bs[i*size:])
	}
	return ret
}
