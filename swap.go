package dbuswire

import (
	"fmt"

	"github.com/danderson/dbuswire/fragments"
)

// Byteswap converts the values of signature sig at data[start:] from
// byte order from to byte order to, in place. The values must be
// valid. Alignment is computed relative to data[0].
func Byteswap(sig Signature, from, to fragments.ByteOrder, data []byte, start int) {
	if from.Flag() == to.Flag() {
		return
	}
	r := NewTypesReader(sig)
	swapValues(&r, true, from, data, start)
}

// swapValues swaps the value described by r at data[p:], or every
// remaining value if walkToEnd is set. It returns the position after
// the last value swapped.
func swapValues(r *Reader, walkToEnd bool, from fragments.ByteOrder, data []byte, p int) int {
	for t := r.CurrentType(); t != TypeInvalid; t = r.CurrentType() {
		switch t {
		case TypeByte:
			p++
		case TypeInt16, TypeUint16:
			p = fragments.Align(p, 2)
			fragments.Swap16(data[p:])
			p += 2
		case TypeBoolean, TypeInt32, TypeUint32, TypeUnixFD:
			p = fragments.Align(p, 4)
			fragments.Swap32(data[p:])
			p += 4
		case TypeInt64, TypeUint64, TypeDouble:
			p = fragments.Align(p, 8)
			fragments.Swap64(data[p:])
			p += 8
		case TypeArray, TypeString, TypeObjectPath:
			p = fragments.Align(p, 4)
			n := int(from.Uint32(data[p:]))
			fragments.Swap32(data[p:])
			p += 4
			if t != TypeArray {
				p += n + 1
				break
			}
			elem := r.ElementType()
			p = fragments.Align(p, elem.Alignment())
			if elem.IsFixed() {
				if size := elem.fixedSize(); size > 1 {
					fragments.SwapBlock(data[p:p+n], size)
				}
				p += n
				break
			}
			sub := r.Recurse()
			end := p + n
			for p < end {
				p = swapValues(&sub, false, from, data, p)
			}
		case TypeSignature:
			p += int(data[p]) + 2
		case TypeVariant:
			n := int(data[p])
			sig := data[p+1 : p+1+n]
			p += n + 2
			sub := NewTypesReader(Signature(sig))
			p = fragments.Align(p, typeAt(sig, 0).Alignment())
			p = swapValues(&sub, false, from, data, p)
		case TypeStruct, TypeDictEntry:
			p = fragments.Align(p, 8)
			sub := r.Recurse()
			p = swapValues(&sub, true, from, data, p)
		default:
			panic(fmt.Sprintf("byteswap of unknown type %s", t))
		}

		if !walkToEnd {
			break
		}
		r.Next()
	}
	return p
}
