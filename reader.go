package dbuswire

import (
	"fmt"

	"github.com/danderson/dbuswire/fragments"
)

// containerKind is the kind of container a Reader or Writer is
// positioned inside.
type containerKind uint8

const (
	kindTop containerKind = iota
	kindStruct
	kindDictEntry
	kindArray
	kindVariant
)

func (k containerKind) String() string {
	switch k {
	case kindTop:
		return "top"
	case kindStruct:
		return "struct"
	case kindDictEntry:
		return "dict_entry"
	case kindArray:
		return "array"
	case kindVariant:
		return "variant"
	default:
		return fmt.Sprintf("containerKind(%d)", uint8(k))
	}
}

// A Reader is a cursor over a sequence of DBus values and the
// signature that describes them.
//
// A Reader is a small value that borrows its signature and value
// bytes. Copying a Reader saves its position, and the copy can be
// advanced independently of the original.
//
// Readers trust their input: reading data that has not passed
// [ValidateBody] may panic. A Reader must not be used after the bytes
// it reads have been modified, including by [SetBasic] or [Delete].
type Reader struct {
	order     fragments.ByteOrder
	kind      containerKind
	typesOnly bool
	finished  bool

	sig    []byte
	sigPos int

	data []byte
	pos  int

	// Array readers only. arrayLen is cached from the length field
	// at arrayLenPos when the reader is created.
	arrayLenPos int
	arrayStart  int
	arrayLen    int
}

// NewReader returns a Reader over the values of signature sig, which
// start at data[pos:]. Alignment is computed relative to data[0],
// which must be the start of the message.
func NewReader(order fragments.ByteOrder, sig Signature, data []byte, pos int) Reader {
	return Reader{
		order: order,
		sig:   []byte(sig),
		data:  data,
		pos:   pos,
	}
}

// NewTypesReader returns a Reader that walks the types of sig without
// any values. A types-only Reader cannot read values, and cannot
// recurse into variants, whose content type is only known from
// value data.
func NewTypesReader(sig Signature) Reader {
	return Reader{
		sig:       []byte(sig),
		typesOnly: true,
	}
}

// Order returns the byte order of the values being read.
func (r *Reader) Order() fragments.ByteOrder { return r.order }

// Position returns the reader's offset in the value data. The offset
// is the end of the previous value, which may be before the alignment
// padding of the current value.
func (r *Reader) Position() int { return r.pos }

// CurrentType returns the type of the value under the cursor, or
// TypeInvalid if there are no more values in the current container.
func (r *Reader) CurrentType() Type {
	if r.finished {
		return TypeInvalid
	}
	if r.kind == kindArray && !r.typesOnly && r.pos >= r.arrayStart+r.arrayLen {
		return TypeInvalid
	}
	return typeAt(r.sig, r.sigPos)
}

// ElementType returns the element type of the array under the
// cursor. The current type must be TypeArray.
func (r *Reader) ElementType() Type {
	if t := r.CurrentType(); t != TypeArray {
		panic(fmt.Sprintf("ElementType called on %s", t))
	}
	return typeAt(r.sig, r.sigPos+1)
}

// ArrayLength returns the length in bytes of the array under the
// cursor, not counting the length field or the padding that precedes
// the first element. The current type must be TypeArray.
func (r *Reader) ArrayLength() int {
	if t := r.CurrentType(); t != TypeArray {
		panic(fmt.Sprintf("ArrayLength called on %s", t))
	}
	r.mustHaveValues()
	return int(readUint32(r.data, fragments.Align(r.pos, 4), r.order))
}

// Signature returns the signature of the value under the cursor. For
// a Reader positioned within an array, that is the array's element
// type.
func (r *Reader) Signature() Signature {
	return Signature(r.currentSig())
}

// currentSig returns the signature bytes of the complete type under
// the cursor, aliasing the reader's signature.
func (r *Reader) currentSig() []byte {
	if typeAt(r.sig, r.sigPos) == TypeInvalid {
		return nil
	}
	return r.sig[r.sigPos:skipType(r.sig, r.sigPos)]
}

// HasNext reports whether there is another value after the current
// one in the current container.
func (r *Reader) HasNext() bool {
	c := *r
	return c.Next()
}

func (r *Reader) mustHaveValues() {
	if r.typesOnly {
		panic("cannot read values from a types-only Reader")
	}
}

// Recurse returns a Reader over the contents of the container under
// the cursor. The parent reader is not advanced.
func (r *Reader) Recurse() Reader {
	t := typeAt(r.sig, r.sigPos)
	sub := Reader{
		order:     r.order,
		typesOnly: r.typesOnly,
		sig:       r.sig,
		sigPos:    r.sigPos,
		data:      r.data,
		pos:       r.pos,
	}
	switch t {
	case TypeStruct, TypeDictEntry:
		if t == TypeStruct {
			sub.kind = kindStruct
		} else {
			sub.kind = kindDictEntry
		}
		sub.sigPos++
		if !r.typesOnly {
			sub.pos = fragments.Align(sub.pos, 8)
		}
	case TypeArray:
		sub.kind = kindArray
		sub.sigPos++
		if !r.typesOnly {
			lenPos := fragments.Align(sub.pos, 4)
			sub.arrayLenPos = lenPos
			sub.arrayLen = int(readUint32(r.data, lenPos, r.order))
			sub.pos = fragments.Align(lenPos+4, typeAt(sub.sig, sub.sigPos).Alignment())
			sub.arrayStart = sub.pos
		}
	case TypeVariant:
		if r.typesOnly {
			panic("cannot recurse into a variant with a types-only Reader")
		}
		n := int(r.data[r.pos])
		sigStart := r.pos + 1
		sub.kind = kindVariant
		sub.sig = r.data[sigStart : sigStart+n : sigStart+n]
		sub.sigPos = 0
		sub.pos = fragments.Align(sigStart+n+1, typeAt(sub.sig, 0).Alignment())
	default:
		panic(fmt.Sprintf("Recurse called on non-container type %s", t))
	}
	return sub
}

// Next advances the cursor past the current value. It reports
// whether there is a value after the one it skipped.
func (r *Reader) Next() bool {
	t := r.CurrentType()
	if t == TypeInvalid {
		return false
	}

	switch r.kind {
	case kindArray:
		if r.typesOnly {
			// A types-only array holds exactly one "value", its
			// element type.
			r.finished = true
		} else {
			r.arrayNext(t)
		}
	case kindStruct, kindDictEntry:
		r.skip(t)
		end := byte(structEnd)
		if r.kind == kindDictEntry {
			end = dictEntryEnd
		}
		if r.sigPos < len(r.sig) && r.sig[r.sigPos] == end {
			r.sigPos++
			r.finished = true
		}
	default:
		r.skip(t)
	}

	return r.CurrentType() != TypeInvalid
}

// skip moves the cursor past one value of type t, and its signature
// past t's complete type.
func (r *Reader) skip(t Type) {
	switch t {
	case TypeStruct, TypeDictEntry, TypeVariant:
		if r.typesOnly && t == TypeVariant {
			r.sigPos++
			return
		}
		sub := r.Recurse()
		for sub.Next() {
		}
		if !r.typesOnly {
			r.pos = sub.pos
		}
		if t == TypeVariant {
			// sub's signature position is inside the value data,
			// and tells us nothing about our own signature.
			r.sigPos++
		} else {
			r.sigPos = sub.sigPos
		}
	case TypeArray:
		if !r.typesOnly {
			r.pos = skipArray(r.data, r.pos, typeAt(r.sig, r.sigPos+1), r.order)
		}
		r.sigPos = skipType(r.sig, r.sigPos)
	default:
		if !r.typesOnly {
			r.pos = skipBasic(r.data, r.pos, t, r.order)
		}
		r.sigPos++
	}
}

// arrayNext moves the cursor past one array element of type t. The
// signature position stays on the element type until the last element
// has been skipped.
func (r *Reader) arrayNext(t Type) {
	end := r.arrayStart + r.arrayLen
	switch t {
	case TypeStruct, TypeDictEntry, TypeVariant:
		sub := r.Recurse()
		for sub.Next() {
		}
		r.pos = sub.pos
	case TypeArray:
		r.pos = skipArray(r.data, r.pos, typeAt(r.sig, r.sigPos+1), r.order)
	default:
		r.pos = skipBasic(r.data, r.pos, t, r.order)
	}
	if r.pos > end {
		panic(fmt.Sprintf("array element overran array end (%d > %d)", r.pos, end))
	}
	if r.pos == end {
		r.sigPos = skipType(r.sig, r.sigPos)
	}
}

// ReadBasic returns the basic value under the cursor, as the Go type
// documented on [Writer.WriteBasic]. The cursor is not advanced.
func (r *Reader) ReadBasic() any {
	r.mustHaveValues()
	t := r.CurrentType()
	if !t.IsBasic() {
		panic(fmt.Sprintf("ReadBasic called on %s", t))
	}
	v, _ := unmarshalBasic(r.data, r.pos, t, r.order)
	return v
}

// ReadFixedBlock returns the remaining elements of an array of fixed
// size elements, as a slice of the element's Go type (for example
// []int32 for an array of TypeInt32). r must be a Reader obtained by
// recursing into the array. The cursor is not advanced.
func (r *Reader) ReadFixedBlock() any {
	r.mustHaveValues()
	if r.kind != kindArray {
		panic(fmt.Sprintf("ReadFixedBlock called on %s reader", r.kind))
	}
	t := typeAt(r.sig, r.sigPos)
	if !t.IsFixed() {
		panic(fmt.Sprintf("ReadFixedBlock called on array of %s", t))
	}
	end := r.arrayStart + r.arrayLen
	if r.pos >= end {
		return decodeFixedBlock(r.data, r.pos, 0, t, r.order)
	}
	return decodeFixedBlock(r.data, r.pos, end-r.pos, t, r.order)
}

// sameValue reports whether r and o are positioned on the same value
// of the same signature.
func (r *Reader) sameValue(o *Reader) bool {
	return r.pos == o.pos && r.sigPos == o.sigPos && sameBytes(r.sig, o.sig)
}

// sameBytes reports whether a and b are the same region of memory.
func sameBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
