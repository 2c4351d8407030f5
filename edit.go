package dbuswire

import (
	"fmt"
	"log"

	"github.com/danderson/dbuswire/fragments"
)

// debugEdit enables tracing of in-place edits.
const debugEdit = false

// SetBasic replaces the basic value under target's cursor with v,
// which must have the Go type that [Writer.WriteBasic] accepts for
// target's current type. buf must hold the bytes target reads.
//
// Fixed size values are overwritten in place. Strings, object paths
// and signatures can change size, so every value from target to the
// end of realignRoot's container is rewritten to restore alignment,
// and the length of every array enclosing target is corrected.
// realignRoot must be a top-level Reader positioned at or before
// target, such that target is within the values realignRoot would
// walk. Usually it is the Reader over a whole message body.
//
// On error buf is unchanged. A fixed size edit leaves Readers over buf
// usable. After any other successful edit, all Readers over buf are
// invalid.
func SetBasic(buf *Buffer, target *Reader, v any, realignRoot *Reader) error {
	target.mustHaveValues()
	t := target.CurrentType()
	if !t.IsBasic() {
		return fmt.Errorf("%w: SetBasic on non-basic type %s", ErrTypeMismatch, t)
	}

	if t.IsFixed() {
		e := fragments.Encoder{
			Order: target.order,
			Base:  target.pos,
		}
		if err := encodeBasic(&e, t, v); err != nil {
			return err
		}
		// Padding in e.Out rewrites the zeros already present.
		copy(buf.Data[target.pos:], e.Out)
		return nil
	}

	padding := target.pos % 8
	scratch := &Buffer{
		Data: make([]byte, padding, padding+64),
		Max:  buf.limit(),
	}
	w := newValuesWriter(target.order, target.sig, target.sigPos, scratch, padding)
	if err := w.WriteBasic(t, v); err != nil {
		return err
	}
	return replaceValue(buf, scratch, padding, target, realignRoot)
}

// Delete removes the array element under target's cursor. target
// must be a Reader obtained by recursing into an array. realignRoot
// is as for [SetBasic].
//
// On error buf is unchanged. All Readers over buf are invalid after
// Delete returns successfully.
func Delete(buf *Buffer, target *Reader, realignRoot *Reader) error {
	target.mustHaveValues()
	if target.kind != kindArray {
		return fmt.Errorf("Delete on %s element, must be array element", target.kind)
	}
	if target.CurrentType() == TypeInvalid {
		return fmt.Errorf("Delete past the end of array")
	}
	padding := target.pos % 8
	scratch := &Buffer{
		Data: make([]byte, padding, padding+64),
		Max:  buf.limit(),
	}
	return replaceValue(buf, scratch, padding, target, realignRoot)
}

// replaceValue replaces target's value in buf with the bytes of
// scratch after padding, and rewrites every value after it up to the
// end of realignRoot's container.
//
// padding is target's position modulo 8, so that values copied into
// scratch get the same alignment they will have in buf.
func replaceValue(buf *Buffer, scratch *Buffer, padding int, target, realignRoot *Reader) error {
	if realignRoot.kind != kindTop {
		panic(fmt.Sprintf("realign root must be a top-level Reader, not inside %s", realignRoot.kind))
	}
	if realignRoot.pos > target.pos {
		panic(fmt.Sprintf("realign root at %d is after target at %d", realignRoot.pos, target.pos))
	}

	newLen := scratch.Len() - padding
	r := *realignRoot
	w := newValuesWriter(r.order, r.sig, r.sigPos, scratch, scratch.Len())
	w.SetEnabled(false)

	var fixups []fixup
	if err := w.copyFrom(&r, target, newLen, &fixups, false); err != nil {
		return err
	}

	if debugEdit {
		log.Printf("edit: replacing buf[%d:%d] (%d bytes) with %d bytes, %d fixups", target.pos, r.pos, r.pos-target.pos, scratch.Len()-padding, len(fixups))
	}
	if err := buf.replace(target.pos, r.pos-target.pos, scratch.Data[padding:]); err != nil {
		return err
	}
	for _, f := range fixups {
		if debugEdit {
			log.Printf("edit: fixup array length at %d to %d", f.lenPos, f.length)
		}
		r.order.PutUint32(buf.Data[f.lenPos:], f.length)
	}
	return nil
}
