package dbuswire

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoSpace is returned when an operation would grow a [Buffer]
// beyond its size limit. Operations that return ErrNoSpace leave
// every buffer they touched exactly as it was before the call.
var ErrNoSpace = errors.New("buffer size limit exceeded")

// A Buffer is a growable byte buffer holding DBus values or type
// signatures.
//
// Writers insert into a Buffer at arbitrary positions, and editors
// replace byte ranges within it. Any [Reader] over a Buffer's bytes
// must be considered invalid once the Buffer is modified.
type Buffer struct {
	// Data is the buffer's content.
	Data []byte
	// Max is the largest length Data may grow to. If Max is zero,
	// [DefaultLimits].MaxMessageLength applies.
	Max int
}

// Len returns the length of the buffer's content.
func (b *Buffer) Len() int { return len(b.Data) }

func (b *Buffer) limit() int {
	if b.Max > 0 {
		return b.Max
	}
	return DefaultLimits.MaxMessageLength
}

// reserve returns ErrNoSpace if the buffer cannot grow by n bytes.
func (b *Buffer) reserve(n int) error {
	if len(b.Data)+n > b.limit() {
		return ErrNoSpace
	}
	return nil
}

// insert inserts bs at pos. The caller must have reserved space.
func (b *Buffer) insert(pos int, bs ...byte) {
	if len(b.Data)+len(bs) > b.limit() {
		panic(fmt.Sprintf("insert of %d bytes into Buffer without reserve", len(bs)))
	}
	b.Data = slices.Insert(b.Data, pos, bs...)
}

// insertZeros inserts n zero bytes at pos. The caller must have
// reserved space.
func (b *Buffer) insertZeros(pos, n int) {
	if n == 0 {
		return
	}
	var zeros [8]byte
	for n > 0 {
		k := min(n, len(zeros))
		b.insert(pos, zeros[:k]...)
		n -= k
	}
}

// remove deletes the n bytes starting at pos.
func (b *Buffer) remove(pos, n int) {
	b.Data = slices.Delete(b.Data, pos, pos+n)
}

// replace replaces the n bytes starting at pos with bs.
func (b *Buffer) replace(pos, n int, bs []byte) error {
	if grow := len(bs) - n; grow > 0 {
		if err := b.reserve(grow); err != nil {
			return err
		}
	}
	b.Data = slices.Replace(b.Data, pos, pos+n, bs...)
	return nil
}
