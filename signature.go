package dbuswire

import "fmt"

const (
	// MaxSignatureLength is the maximum length of a signature, in
	// bytes.
	MaxSignatureLength = 255
	// MaxTypeRecursionDepth is the maximum nesting of arrays, and
	// separately of structs and dict entries, in a signature.
	MaxTypeRecursionDepth = 32
)

// A Signature is a DBus type signature: zero or more complete types
// written back to back.
type Signature string

// ParseSignature validates sig and returns it as a Signature. If sig
// is malformed, the returned error is a [ValidityError].
func ParseSignature(sig string) (Signature, error) {
	if v := ValidateSignature(sig); v != Valid {
		return "", fmt.Errorf("invalid type signature %q: %w", sig, v.Err())
	}
	return Signature(sig), nil
}

// String returns the signature text.
func (s Signature) String() string { return string(s) }

// Validate reports whether s is a well-formed signature, or the first
// grammar rule it breaks.
func (s Signature) Validate() Validity { return ValidateSignature(s) }

// First returns the type of the first complete type in s, or
// TypeInvalid if s is empty.
func (s Signature) First() Type {
	if len(s) == 0 {
		return TypeInvalid
	}
	return typeAt([]byte(s[:1]), 0)
}

// Types splits s into its complete types. s must be valid.
func (s Signature) Types() []Signature {
	var ret []Signature
	for pos := 0; pos < len(s); {
		end := skipType(s, pos)
		ret = append(ret, s[pos:end])
		pos = end
	}
	return ret
}

// SingleComplete reports whether s is valid and describes exactly one
// complete type, as required of a variant's signature.
func (s Signature) SingleComplete() bool {
	return s.Validate() == Valid && len(s) > 0 && skipType(s, 0) == len(s)
}

// skipType returns the position just past the complete type that
// starts at sig[pos]. sig must be valid.
func skipType[S ~string | ~[]byte](sig S, pos int) int {
	for sig[pos] == byte(TypeArray) {
		pos++
	}
	var begin, end byte
	switch sig[pos] {
	case structBegin:
		begin, end = structBegin, structEnd
	case dictEntryBegin:
		begin, end = dictEntryBegin, dictEntryEnd
	default:
		return pos + 1
	}
	depth := 1
	for depth > 0 {
		pos++
		switch sig[pos] {
		case begin:
			depth++
		case end:
			depth--
		}
	}
	return pos + 1
}

// ValidateSignature reports whether sig is a well-formed signature,
// or the first grammar rule it breaks. The empty signature is valid.
func ValidateSignature[S ~string | ~[]byte](sig S) Validity {
	if len(sig) > MaxSignatureLength {
		return SignatureTooLong
	}

	var (
		last        byte
		arrayDepth  int
		structDepth int
		dictDepth   int
		// opened records the kind of each open bracket, innermost
		// last. Structs and dict entries share the stack, each
		// bounded separately.
		opened [2 * MaxTypeRecursionDepth]byte
		// counts holds the number of complete types seen so far in
		// each open container. counts[0] is the top level.
		counts [2*MaxTypeRecursionDepth + 1]int
		top    int
	)

	for i := 0; i < len(sig); i++ {
		c := sig[i]
		switch c {
		case byte(TypeByte), byte(TypeBoolean), byte(TypeInt16), byte(TypeUint16),
			byte(TypeInt32), byte(TypeUint32), byte(TypeInt64), byte(TypeUint64),
			byte(TypeDouble), byte(TypeString), byte(TypeObjectPath),
			byte(TypeSignature), byte(TypeUnixFD), byte(TypeVariant):
		case byte(TypeArray):
			arrayDepth++
			if arrayDepth > MaxTypeRecursionDepth {
				return ExceededMaximumArrayRecursion
			}
		case structBegin:
			structDepth++
			if structDepth > MaxTypeRecursionDepth {
				return ExceededMaximumStructRecursion
			}
			opened[structDepth+dictDepth-1] = structBegin
			top++
			counts[top] = 0
		case structEnd:
			if structDepth == 0 {
				return StructEndedButNotStarted
			}
			if last == structBegin {
				return StructHasNoFields
			}
			if opened[structDepth+dictDepth-1] != structBegin {
				return StructEndedButNotStarted
			}
			structDepth--
			top--
		case dictEntryBegin:
			if last != byte(TypeArray) {
				return DictEntryNotInsideArray
			}
			dictDepth++
			if dictDepth > MaxTypeRecursionDepth {
				return ExceededMaximumDictEntryRecursion
			}
			opened[structDepth+dictDepth-1] = dictEntryBegin
			top++
			counts[top] = 0
		case dictEntryEnd:
			if dictDepth == 0 {
				return DictEntryEndedButNotStarted
			}
			if opened[structDepth+dictDepth-1] != dictEntryBegin {
				return DictEntryEndedButNotStarted
			}
			fields := counts[top]
			dictDepth--
			top--
			switch {
			case fields == 0:
				return DictEntryHasNoFields
			case fields == 1:
				return DictEntryHasOnlyOneField
			case fields > 2:
				return DictEntryHasTooManyFields
			}
		default:
			return UnknownTypeCode
		}

		// Arrays and opening brackets are prefixes of a complete
		// type, everything else completes one.
		if c != byte(TypeArray) && c != structBegin && c != dictEntryBegin {
			counts[top]++
		}

		if arrayDepth > 0 {
			if c == byte(TypeArray) {
				if i+1 < len(sig) && (sig[i+1] == structEnd || sig[i+1] == dictEntryEnd) {
					return MissingArrayElementType
				}
			} else {
				arrayDepth = 0
			}
		}

		if last == dictEntryBegin && !Type(c).IsBasic() {
			return DictKeyMustBeBasicType
		}

		last = c
	}

	switch {
	case arrayDepth > 0:
		return MissingArrayElementType
	case structDepth > 0:
		return StructStartedButNotEnded
	case dictDepth > 0:
		return DictEntryStartedButNotEnded
	}
	return Valid
}
