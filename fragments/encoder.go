package fragments

// An Encoder provides utilities to write DBus wire format values to a
// byte slice.
//
// Methods insert padding as needed to conform to DBus alignment
// rules, except for [Encoder.Write] which outputs bytes verbatim.
type Encoder struct {
	// Order is the byte order to use when encoding multi-byte values.
	Order ByteOrder
	// Base is the offset within the whole message at which Out
	// begins. Alignment is computed relative to the message, so an
	// Encoder producing a fragment destined for the middle of a
	// message must know where that fragment will land.
	Base int
	// Out is the encoded output.
	Out []byte
}

// Offset returns the message offset at which the next byte will be
// written.
func (e *Encoder) Offset() int {
	return e.Base + len(e.Out)
}

// Pad inserts padding bytes as needed to make the message a multiple
// of align bytes. If the message is already correctly aligned, no
// padding is inserted.
func (e *Encoder) Pad(align int) {
	n := PadLen(e.Offset(), align)
	if n == 0 {
		return
	}
	var pad [8]byte
	e.Out = append(e.Out, pad[:n]...)
}

// Write writes bs as-is to the output. It is the caller's
// responsibility to ensure correct padding and encoding.
func (e *Encoder) Write(bs []byte) {
	e.Out = append(e.Out, bs...)
}

// String writes a DBus string or object path: a 4-byte length, the
// bytes of s, and a nul terminator.
func (e *Encoder) String(s string) {
	e.Uint32(uint32(len(s)))
	e.Out = append(e.Out, s...)
	e.Out = append(e.Out, 0)
}

// Signature writes a DBus signature: a 1-byte length, the bytes of
// s, and a nul terminator. s must be at most 255 bytes.
func (e *Encoder) Signature(s string) {
	e.Uint8(uint8(len(s)))
	e.Out = append(e.Out, s...)
	e.Out = append(e.Out, 0)
}

// Uint8 writes a uint8.
func (e *Encoder) Uint8(u8 uint8) {
	e.Out = append(e.Out, u8)
}

// Uint16 writes uint16.
func (e *Encoder) Uint16(u16 uint16) {
	e.Pad(2)
	e.Out = e.Order.AppendUint16(e.Out, u16)
}

// Uint32 writes uint32.
func (e *Encoder) Uint32(u32 uint32) {
	e.Pad(4)
	e.Out = e.Order.AppendUint32(e.Out, u32)
}

// Uint64 writes uint64.
func (e *Encoder) Uint64(u64 uint64) {
	e.Pad(8)
	e.Out = e.Order.AppendUint64(e.Out, u64)
}
