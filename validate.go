package dbuswire

import (
	"bytes"
	"unicode/utf8"

	"github.com/danderson/dbuswire/fragments"
)

// Limits bounds the size of untrusted data.
type Limits struct {
	// MaxMessageLength is the maximum length of the data being
	// validated. Zero means [DefaultLimits].MaxMessageLength.
	MaxMessageLength int
	// MaxArrayLength is the maximum length in bytes of a single
	// array. Zero means [DefaultLimits].MaxArrayLength.
	MaxArrayLength int
}

// DefaultLimits are the maximum sizes allowed by the DBus protocol.
var DefaultLimits = Limits{
	MaxMessageLength: 128 << 20,
	MaxArrayLength:   64 << 20,
}

func (l Limits) withDefaults() Limits {
	if l.MaxMessageLength == 0 {
		l.MaxMessageLength = DefaultLimits.MaxMessageLength
	}
	if l.MaxArrayLength == 0 {
		l.MaxArrayLength = DefaultLimits.MaxArrayLength
	}
	return l
}

// ValidationMode says whether data is checked before it is trusted.
type ValidationMode int

const (
	// Untrusted data is fully validated.
	Untrusted ValidationMode = iota
	// Trusted data is assumed valid, for example because this
	// process produced it.
	Trusted
)

// Check validates that data[start:] is exactly a sequence of values
// described by sig, in byte order order. Check returns nil for valid
// data, or a [ValidityError] giving the reason the data is invalid.
//
// In Trusted mode, Check does nothing and returns nil.
func Check(mode ValidationMode, sig Signature, order fragments.ByteOrder, data []byte, start int, limits Limits) error {
	if mode == Trusted {
		return nil
	}
	if v := sig.Validate(); v != Valid {
		return v.Err()
	}
	remaining, v := ValidateBody(sig, order, data, start, limits)
	if v != Valid {
		return v.Err()
	}
	if remaining > 0 {
		return TooMuchData.Err()
	}
	return nil
}

// ValidateBody checks that data[start:] begins with a sequence of
// values described by sig, in byte order order. sig must be a valid
// signature. It returns the number of bytes left over after the
// values, and the first problem found.
//
// Alignment is computed relative to data[0], which must be the start
// of the message.
func ValidateBody(sig Signature, order fragments.ByteOrder, data []byte, start int, limits Limits) (remaining int, v Validity) {
	limits = limits.withDefaults()
	if len(data) > limits.MaxMessageLength {
		return 0, MessageTooLong
	}
	if start > len(data) {
		return 0, NotEnoughData
	}
	bv := bodyValidator{
		order:  order,
		data:   data,
		limits: limits,
	}
	r := NewTypesReader(sig)
	p, v := bv.validate(&r, true, 0, start, len(data))
	if v != Valid {
		return 0, v
	}
	return len(data) - p, Valid
}

type bodyValidator struct {
	order  fragments.ByteOrder
	data   []byte
	limits Limits
}

// padding checks that data[p:a] is all zeros.
func (bv *bodyValidator) padding(p, a int) Validity {
	if !fragments.IsZero(bv.data[p:a]) {
		return AlignmentPaddingNotNul
	}
	return Valid
}

// validate checks the value described by r at data[p:end], or every
// remaining value if walkToEnd is set. It returns the position after
// the last value checked.
func (bv *bodyValidator) validate(r *Reader, walkToEnd bool, depth, p, end int) (int, Validity) {
	if depth > 2*MaxTypeRecursionDepth {
		return p, NestedTooDeeply
	}

	for t := r.CurrentType(); t != TypeInvalid; t = r.CurrentType() {
		var v Validity
		switch {
		case t == TypeByte:
			if p >= end {
				return p, NotEnoughData
			}
			p++
		case t.IsFixed():
			p, v = bv.fixed(t, p, end)
		case t == TypeArray || t == TypeString || t == TypeObjectPath:
			p, v = bv.lengthPrefixed(r, t, depth, p, end)
		case t == TypeSignature:
			p, v = bv.signature(p, end)
		case t == TypeVariant:
			p, v = bv.variant(depth, p, end)
		case t == TypeStruct || t == TypeDictEntry:
			a := fragments.Align(p, 8)
			if a > end {
				return p, NotEnoughData
			}
			if v := bv.padding(p, a); v != Valid {
				return p, v
			}
			sub := r.Recurse()
			p, v = bv.validate(&sub, true, depth+1, a, end)
		default:
			return p, UnknownTypeCode
		}
		if v != Valid {
			return p, v
		}
		if p > end {
			return p, NotEnoughData
		}

		if !walkToEnd {
			break
		}
		r.Next()
	}
	return p, Valid
}

func (bv *bodyValidator) fixed(t Type, p, end int) (int, Validity) {
	a := fragments.Align(p, t.Alignment())
	if a+t.fixedSize() > end {
		return p, NotEnoughData
	}
	if v := bv.padding(p, a); v != Valid {
		return p, v
	}
	if t == TypeBoolean {
		if b := bv.order.Uint32(bv.data[a:]); b != 0 && b != 1 {
			return p, BooleanNotZeroOrOne
		}
	}
	return a + t.fixedSize(), Valid
}

func (bv *bodyValidator) lengthPrefixed(r *Reader, t Type, depth, p, end int) (int, Validity) {
	a := fragments.Align(p, 4)
	if a+4 > end {
		return p, NotEnoughData
	}
	if v := bv.padding(p, a); v != Valid {
		return p, v
	}
	claimed := int(bv.order.Uint32(bv.data[a:]))
	p = a + 4

	if t == TypeArray {
		return bv.array(r, claimed, depth, p, end)
	}

	if claimed > end-p {
		return p, NotEnoughData
	}
	s := bv.data[p : p+claimed]
	if t == TypeObjectPath {
		if !validObjectPath(s) {
			return p, BadPath
		}
	} else if !validString(s) {
		return p, BadUTF8InString
	}
	p += claimed
	if p == end {
		return p, NotEnoughData
	}
	if bv.data[p] != 0 {
		return p, StringMissingNul
	}
	return p + 1, Valid
}

func (bv *bodyValidator) array(r *Reader, claimed, depth, p, end int) (int, Validity) {
	elem := r.ElementType()
	if !elem.IsValid() {
		return p, UnknownTypeCode
	}
	a := fragments.Align(p, elem.Alignment())
	if a > end {
		return p, NotEnoughData
	}
	if v := bv.padding(p, a); v != Valid {
		return p, v
	}
	p = a

	if claimed > bv.limits.MaxArrayLength {
		return p, ArrayLengthExceedsMaximum
	}
	if claimed > end-p {
		return p, NotEnoughData
	}
	if claimed == 0 {
		return p, Valid
	}

	arrayEnd := p + claimed
	if elem.IsFixed() {
		size := elem.fixedSize()
		if claimed%size != 0 {
			return p, ArrayLengthIncorrect
		}
		if elem == TypeBoolean {
			for ; p < arrayEnd; p += size {
				if b := bv.order.Uint32(bv.data[p:]); b != 0 && b != 1 {
					return p, BooleanNotZeroOrOne
				}
			}
		}
		return arrayEnd, Valid
	}

	// Only descents into container elements count toward the depth
	// limit.
	subDepth := depth
	if !elem.IsBasic() {
		subDepth++
	}
	sub := r.Recurse()
	for p < arrayEnd {
		var v Validity
		p, v = bv.validate(&sub, false, subDepth, p, end)
		if v != Valid {
			return p, v
		}
	}
	if p != arrayEnd {
		return p, ArrayLengthIncorrect
	}
	return p, Valid
}

func (bv *bodyValidator) signature(p, end int) (int, Validity) {
	if p >= end {
		return p, NotEnoughData
	}
	claimed := int(bv.data[p])
	p++
	if claimed+1 > end-p {
		return p, SignatureLengthOutOfBounds
	}
	if v := ValidateSignature(bv.data[p : p+claimed]); v != Valid {
		return p, v
	}
	p += claimed
	if bv.data[p] != 0 {
		return p, SignatureMissingNul
	}
	return p + 1, Valid
}

func (bv *bodyValidator) variant(depth, p, end int) (int, Validity) {
	if p >= end {
		return p, NotEnoughData
	}
	claimed := int(bv.data[p])
	p++
	if claimed+1 > end-p {
		return p, VariantSignatureLengthOutOfBounds
	}
	sig := bv.data[p : p+claimed]
	if ValidateSignature(sig) != Valid {
		return p, VariantSignatureBad
	}
	p += claimed
	if bv.data[p] != 0 {
		return p, VariantSignatureMissingNul
	}
	p++
	if len(sig) == 0 {
		return p, VariantSignatureEmpty
	}
	if skipType(sig, 0) != len(sig) {
		return p, VariantSignatureSpecifiesMultipleValues
	}

	a := fragments.Align(p, typeAt(sig, 0).Alignment())
	if a > end {
		return p, NotEnoughData
	}
	if v := bv.padding(p, a); v != Valid {
		return p, v
	}
	sub := NewTypesReader(Signature(sig))
	return bv.validate(&sub, false, depth+1, a, end)
}

// validString reports whether s is valid UTF-8 with no NUL bytes.
func validString(s []byte) bool {
	return utf8.Valid(s) && bytes.IndexByte(s, 0) < 0
}

// validObjectPath reports whether p is a valid object path: "/", or
// a sequence of "/element" where each element is one or more of
// [A-Za-z0-9_].
func validObjectPath(p []byte) bool {
	if len(p) == 0 || p[0] != '/' {
		return false
	}
	if len(p) == 1 {
		return true
	}
	if p[len(p)-1] == '/' {
		return false
	}
	prevSlash := true
	for _, c := range p[1:] {
		if c == '/' {
			if prevSlash {
				return false
			}
			prevSlash = true
			continue
		}
		if !isPathChar(c) {
			return false
		}
		prevSlash = false
	}
	return true
}

func isPathChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
