package fragments

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/cpu"
)

// A ByteOrder is the byte order used to encode multi-byte values in
// a DBus message.
type ByteOrder interface {
	byteOrder
	// Flag returns the DBus byte order flag that identifies the
	// order in a message header, 'l' or 'B'.
	Flag() byte
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

type wrapStd struct {
	byteOrder
	flag byte
}

func (w wrapStd) Flag() byte { return w.flag }

var (
	BigEndian    ByteOrder = wrapStd{binary.BigEndian, 'B'}
	LittleEndian ByteOrder = wrapStd{binary.LittleEndian, 'l'}

	// NativeEndian is the one of BigEndian or LittleEndian that
	// matches the running CPU. It compares equal to that order.
	NativeEndian = nativeOrder()
)

func nativeOrder() ByteOrder {
	if cpu.IsBigEndian {
		return BigEndian
	}
	return LittleEndian
}

// OrderForFlag returns the ByteOrder identified by a DBus byte order
// flag byte.
func OrderForFlag(flag byte) (ByteOrder, error) {
	switch flag {
	case 'B':
		return BigEndian, nil
	case 'l':
		return LittleEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order flag %q", flag)
	}
}

// Swap16 reverses the byte order of the 2-byte value at the front of
// bs.
func Swap16(bs []byte) {
	bs[0], bs[1] = bs[1], bs[0]
}

// Swap32 reverses the byte order of the 4-byte value at the front of
// bs.
func Swap32(bs []byte) {
	bs[0], bs[1], bs[2], bs[3] = bs[3], bs[2], bs[1], bs[0]
}

// Swap64 reverses the byte order of the 8-byte value at the front of
// bs.
func Swap64(bs []byte) {
	bs[0], bs[1], bs[2], bs[3], bs[4], bs[5], bs[6], bs[7] = bs[7], bs[6], bs[5], bs[4], bs[3], bs[2], bs[1], bs[0]
}

// SwapBlock reverses the byte order of every size-byte word in bs. size
// must be 1, 2, 4 or 8, and len(bs) must be a multiple of size.
func SwapBlock(bs []byte, size int) {
	switch size {
	case 1:
	case 2:
		for i := 0; i+2 <= len(bs); i += 2 {
			Swap16(bs[i:])
		}
	case 4:
		for i := 0; i+4 <= len(bs); i += 4 {
			Swap32(bs[i:])
		}
	case 8:
		for i := 0; i+8 <= len(bs); i += 8 {
			Swap64(bs[i:])
		}
	default:
		panic(fmt.Sprintf("invalid word size %d for SwapBlock", size))
	}
}
