// Package dbuswire implements the DBus wire format for message bodies.
//
// A message body is a sequence of values described by a [Signature],
// encoded in one of two byte orders. Every value is aligned to a
// boundary that depends on its type, measured from the start of the
// message.
//
// [Writer] encodes values into a [Buffer], either building the
// signature as it goes or checking values against an existing one.
// [Reader] walks encoded values. Readers trust their input: data from
// the outside world must first pass [Check], which checks the
// signature grammar with [ValidateSignature] and the encoded values
// with [ValidateBody], and reports the first problem as a
// [ValidityError].
//
// Encoded values can be converted to the other byte order in place
// with [Byteswap], and edited in place with [SetBasic] and [Delete],
// which fix up the alignment and array lengths of whatever follows
// the edit.
//
// [Marshal] and [Unmarshal] convert between Go values and encoded
// values, using reflection to map Go types to DBus types.
//
// Operations that grow a Buffer past its size limit fail with
// [ErrNoSpace], and leave every buffer exactly as it was.
package dbuswire
