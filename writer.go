package dbuswire

import (
	"fmt"
	"log"

	"github.com/danderson/dbuswire/fragments"
)

// debugWriter enables tracing of Writer container operations.
const debugWriter = false

// A Writer is a cursor that encodes DBus values into a [Buffer].
//
// A Writer runs in one of two signature modes. In append mode, the
// type of every value written is inserted into a signature Buffer. In
// verify mode, the signature already exists and every value written
// must match it. Writers for array elements and variant contents are
// always in verify mode, since their type was fixed when the
// container was opened.
//
// Values are inserted into the value Buffer at the writer's position,
// shifting any bytes that follow. Alignment is computed relative to
// the start of the value Buffer.
type Writer struct {
	order fragments.ByteOrder
	kind  containerKind

	// sig is nil when types are not being tracked, which happens
	// only inside a variant that was opened while disabled.
	sig    *Buffer
	sigPos int
	expect bool

	data *Buffer
	pos  int

	// enabled is false when the writer is skipping over values
	// without emitting them.
	enabled bool

	// Array writers only. arrayLenPos is -1 if the array's length
	// field was not written by this writer.
	arrayLenPos int
	arrayStart  int

	// Container writers only: the parent's signature position
	// before the container was opened.
	parentSigPos int
}

// NewWriter returns a Writer in append mode. Values are inserted
// into data at pos, and their types into sig at sigPos.
func NewWriter(order fragments.ByteOrder, sig *Buffer, sigPos int, data *Buffer, pos int) *Writer {
	return &Writer{
		order:       order,
		sig:         sig,
		sigPos:      sigPos,
		data:        data,
		pos:         pos,
		enabled:     true,
		arrayLenPos: -1,
	}
}

// NewValuesWriter returns a Writer in verify mode. Values inserted
// into data at pos must match the types of sig, starting at the
// complete type at sigPos.
func NewValuesWriter(order fragments.ByteOrder, sig Signature, sigPos int, data *Buffer, pos int) *Writer {
	return newValuesWriter(order, []byte(sig), sigPos, data, pos)
}

func newValuesWriter(order fragments.ByteOrder, sig []byte, sigPos int, data *Buffer, pos int) *Writer {
	return &Writer{
		order:       order,
		sig:         &Buffer{Data: sig},
		sigPos:      sigPos,
		expect:      true,
		data:        data,
		pos:         pos,
		enabled:     true,
		arrayLenPos: -1,
	}
}

// Position returns the writer's offset in the value buffer.
func (w *Writer) Position() int { return w.pos }

// SetEnabled controls whether the writer emits bytes. A disabled
// writer still checks and advances through the signature, but leaves
// the value buffer untouched.
func (w *Writer) SetEnabled(enabled bool) { w.enabled = enabled }

// reserve checks that sigN signature bytes and dataN value bytes can
// be added. Growth that the writer's mode won't perform is ignored.
func (w *Writer) reserve(sigN, dataN int) error {
	if !w.enabled {
		dataN = 0
	}
	if w.sig == nil || w.expect {
		sigN = 0
	}
	if sigN > 0 && w.sig == w.data {
		return w.data.reserve(sigN + dataN)
	}
	if sigN > 0 {
		if err := w.sig.reserve(sigN); err != nil {
			return err
		}
	}
	if dataN > 0 {
		if err := w.data.reserve(dataN); err != nil {
			return err
		}
	}
	return nil
}

// verifyCode checks, in verify mode, that c is the next type code in
// the signature.
func (w *Writer) verifyCode(c byte) error {
	if w.sig == nil || !w.expect {
		return nil
	}
	if w.sigPos >= len(w.sig.Data) {
		return fmt.Errorf("%w: writing %q past the end of signature %q", ErrTypeMismatch, c, w.sig.Data)
	}
	if got := w.sig.Data[w.sigPos]; got != c {
		return fmt.Errorf("%w: writing %q, but signature %q expects %q at offset %d", ErrTypeMismatch, c, w.sig.Data, got, w.sigPos)
	}
	return nil
}

// commitCode records type code c. In append mode c is inserted into
// the signature. Array writers stay on the element type, every other
// writer moves past c. The caller must have reserved space.
func (w *Writer) commitCode(c byte) {
	if w.sig == nil {
		return
	}
	if !w.expect {
		w.sig.insert(w.sigPos, c)
		w.sigPos++
		return
	}
	if w.kind != kindArray {
		w.sigPos++
	}
}

// WriteBasic writes v as a value of basic type t. v must have the Go
// type that [Reader.ReadBasic] returns for t, except that
// TypeObjectPath and TypeSignature also accept string, and
// TypeUnixFD also accepts uint32.
//
// On error, the writer and its buffers are unchanged.
func (w *Writer) WriteBasic(t Type, v any) error {
	if !t.IsBasic() {
		return fmt.Errorf("%w: WriteBasic of non-basic type %s", ErrTypeMismatch, t)
	}
	if err := w.verifyCode(byte(t)); err != nil {
		return err
	}
	if err := w.reserve(1, 0); err != nil {
		return err
	}
	if w.enabled {
		pos, err := marshalBasic(w.data, w.pos, t, v, w.order)
		if err != nil {
			return err
		}
		w.pos = pos
	}
	w.commitCode(byte(t))
	return nil
}

// WriteFixedBlock writes every element of values, a slice of the Go
// type for fixed type t (for example []int32 for TypeInt32), as
// elements of the array being written. w must be a Writer returned by
// Recurse(TypeArray, ...).
//
// On error, the writer and its buffers are unchanged.
func (w *Writer) WriteFixedBlock(t Type, values any) error {
	if w.kind != kindArray {
		return fmt.Errorf("%w: WriteFixedBlock in %s writer, must be array", ErrTypeMismatch, w.kind)
	}
	if !t.IsFixed() {
		return fmt.Errorf("%w: WriteFixedBlock of non-fixed type %s", ErrTypeMismatch, t)
	}
	if err := w.verifyCode(byte(t)); err != nil {
		return err
	}
	if !w.enabled {
		return nil
	}
	e := fragments.Encoder{
		Order: w.order,
		Base:  w.pos,
	}
	if _, err := encodeFixedBlock(&e, t, values); err != nil {
		return err
	}
	if err := w.reserve(0, len(e.Out)); err != nil {
		return err
	}
	w.data.insert(w.pos, e.Out...)
	w.pos += len(e.Out)
	return nil
}

// Recurse starts writing a container of type t, and returns a Writer
// for the container's contents. When the contents are written, the
// container must be finished with [Writer.Unrecurse].
//
// For arrays, contained is the element type. For variants, contained
// is the type of the variant's value. For structs and dict entries,
// contained is ignored.
//
// On error, the writer and its buffers are unchanged.
func (w *Writer) Recurse(t Type, contained Signature) (*Writer, error) {
	return w.recurse(t, []byte(contained), false)
}

// AppendArray reopens the array at the writer's position, whose
// element type is contained, so that more elements can be written
// after the existing ones. The array's length is updated by
// [Writer.Unrecurse].
func (w *Writer) AppendArray(contained Signature) (*Writer, error) {
	if !w.enabled {
		return nil, fmt.Errorf("cannot append to an array with a disabled writer")
	}
	return w.recurse(TypeArray, []byte(contained), true)
}

func (w *Writer) recurse(t Type, contained []byte, appendArray bool) (*Writer, error) {
	sub := &Writer{
		order:       w.order,
		sig:         w.sig,
		sigPos:      w.sigPos,
		expect:      w.expect,
		data:        w.data,
		pos:         w.pos,
		enabled:      w.enabled,
		arrayLenPos:  -1,
		parentSigPos: w.sigPos,
	}
	var err error
	switch t {
	case TypeStruct:
		sub.kind = kindStruct
		err = w.recurseStruct(sub, structBegin)
	case TypeDictEntry:
		sub.kind = kindDictEntry
		if w.kind != kindArray {
			return nil, fmt.Errorf("%w: dict entry outside of an array", ErrTypeMismatch)
		}
		err = w.recurseStruct(sub, dictEntryBegin)
	case TypeArray:
		sub.kind = kindArray
		err = w.recurseArray(sub, contained, appendArray)
	case TypeVariant:
		sub.kind = kindVariant
		err = w.recurseVariant(sub, contained)
	default:
		err = fmt.Errorf("%w: Recurse into non-container type %s", ErrTypeMismatch, t)
	}
	if err != nil {
		return nil, err
	}
	if debugWriter {
		log.Printf("writer: recurse %s from %s, sig=%q sigPos=%d pos=%d enabled=%v", sub.kind, w.kind, sigBytes(sub.sig), sub.sigPos, sub.pos, sub.enabled)
	}
	return sub, nil
}

func (w *Writer) recurseStruct(sub *Writer, begin byte) error {
	if err := w.verifyCode(begin); err != nil {
		return err
	}
	pad := 0
	if w.enabled {
		pad = fragments.PadLen(w.pos, 8)
	}
	if err := w.reserve(1, pad); err != nil {
		return err
	}
	sub.commitCode(begin)
	if w.enabled {
		w.data.insertZeros(sub.pos, pad)
		sub.pos += pad
	}
	return nil
}

func (w *Writer) recurseArray(sub *Writer, contained []byte, appendArray bool) error {
	if !Signature("a" + string(contained)).SingleComplete() {
		return fmt.Errorf("%w: array element type %q is not a single complete type", ErrTypeMismatch, contained)
	}
	if w.sig != nil && (w.expect || appendArray) {
		end := w.sigPos + 1 + len(contained)
		if end > len(w.sig.Data) || w.sig.Data[w.sigPos] != byte(TypeArray) || string(w.sig.Data[w.sigPos+1:end]) != string(contained) {
			return fmt.Errorf("%w: writing array of %q, but signature %q expects something else at offset %d", ErrTypeMismatch, contained, w.sig.Data, w.sigPos)
		}
	}

	lenPos := fragments.Align(sub.pos, 4)
	start := fragments.Align(lenPos+4, typeAt(contained, 0).Alignment())
	sigN, dataN := 1+len(contained), start-sub.pos
	if appendArray {
		sigN, dataN = 0, 0
	}
	if err := w.reserve(sigN, dataN); err != nil {
		return err
	}

	if w.sig != nil {
		if !w.expect && !appendArray {
			w.sig.insert(w.sigPos, byte(TypeArray))
			w.sig.insert(w.sigPos+1, contained...)
		}
		sub.sigPos = w.sigPos + 1
		// Array writers stay on their element type, everyone else
		// moves past the whole array type.
		if w.kind != kindArray {
			w.sigPos += 1 + len(contained)
		}
	}
	sub.expect = true

	if !w.enabled {
		sub.arrayStart = sub.pos
		return nil
	}

	if appendArray {
		n := int(readUint32(w.data.Data, lenPos, w.order))
		sub.pos = start + n
	} else {
		// Length placeholder is zero, patched in Unrecurse.
		w.data.insertZeros(sub.pos, start-sub.pos)
		sub.pos = start
	}
	sub.arrayLenPos = lenPos
	sub.arrayStart = start
	return nil
}

func (w *Writer) recurseVariant(sub *Writer, contained []byte) error {
	if !Signature(contained).SingleComplete() {
		return fmt.Errorf("%w: variant type %q is not a single complete type", ErrTypeMismatch, contained)
	}
	if err := w.verifyCode(byte(TypeVariant)); err != nil {
		return err
	}
	// Signature length, signature, NUL, worst case padding.
	if err := w.reserve(1, 1+len(contained)+1+7); err != nil {
		return err
	}
	w.commitCode(byte(TypeVariant))
	sub.expect = true

	if !w.enabled {
		sub.sig = nil
		sub.sigPos = 0
		return nil
	}

	w.data.insert(sub.pos, byte(len(contained)))
	sub.pos++
	sigPos := sub.pos
	w.data.insert(sub.pos, contained...)
	sub.pos += len(contained)
	w.data.insert(sub.pos, 0)
	sub.pos++
	pad := fragments.PadLen(sub.pos, typeAt(contained, 0).Alignment())
	w.data.insertZeros(sub.pos, pad)
	sub.pos += pad

	// The variant's value is checked against the signature embedded
	// in the value data.
	sub.sig = w.data
	sub.sigPos = sigPos
	return nil
}

// Unrecurse finishes writing the container that sub was returned
// for, and moves w past it. sub must not be used afterwards.
//
// A struct or dict entry must have all its fields written, and a
// variant its one value. Otherwise Unrecurse returns
// ErrTypeMismatch, removes the unfinished container, and leaves w as
// it was before Recurse.
func (w *Writer) Unrecurse(sub *Writer) error {
	switch sub.kind {
	case kindStruct, kindDictEntry:
		end := byte(structEnd)
		if sub.kind == kindDictEntry {
			end = dictEntryEnd
		}
		if sub.sig != nil && !sub.expect && sub.sigPos == sub.parentSigPos+1 {
			w.discard(sub)
			return fmt.Errorf("%w: struct has no fields", ErrTypeMismatch)
		}
		if err := sub.verifyCode(end); err != nil {
			w.discard(sub)
			return err
		}
		if err := sub.reserve(1, 0); err != nil {
			return err
		}
		sub.commitCode(end)
	case kindVariant:
		if sub.sig != nil && sub.sig.Data[sub.sigPos] != 0 {
			w.discard(sub)
			return fmt.Errorf("%w: variant closed without a value", ErrTypeMismatch)
		}
	case kindArray:
		if sub.arrayLenPos >= 0 {
			n := sub.pos - sub.arrayStart
			w.order.PutUint32(w.data.Data[sub.arrayLenPos:], uint32(n))
		}
	}

	if w.sig != nil && w.kind != kindArray && (sub.kind == kindStruct || sub.kind == kindDictEntry) {
		w.sigPos = sub.sigPos
	}
	w.pos = sub.pos
	if debugWriter {
		log.Printf("writer: unrecurse %s into %s, sigPos=%d pos=%d", sub.kind, w.kind, w.sigPos, w.pos)
	}
	return nil
}

// discard removes the unfinished container that sub was writing, and
// restores w's signature position to before the container.
func (w *Writer) discard(sub *Writer) {
	if w.enabled && sub.enabled {
		w.data.remove(w.pos, sub.pos-w.pos)
	}
	if w.sig != nil && !w.expect {
		end := w.sigPos
		if sub.kind == kindStruct || sub.kind == kindDictEntry {
			end = sub.sigPos
		}
		w.sig.remove(sub.parentSigPos, end-sub.parentSigPos)
	}
	w.sigPos = sub.parentSigPos
}

func sigBytes(b *Buffer) []byte {
	if b == nil {
		return nil
	}
	return b.Data
}
