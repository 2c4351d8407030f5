package dbuswire

import "fmt"

// Validity is the outcome of validating a signature or a value
// buffer. Valid is one member of the set. Every other value names
// the first rule the input broke.
type Validity int

const (
	Valid Validity = iota

	// Signature grammar.
	UnknownTypeCode
	MissingArrayElementType
	SignatureTooLong
	ExceededMaximumArrayRecursion
	ExceededMaximumStructRecursion
	StructEndedButNotStarted
	StructStartedButNotEnded
	StructHasNoFields
	ExceededMaximumDictEntryRecursion
	DictEntryEndedButNotStarted
	DictEntryStartedButNotEnded
	DictEntryHasNoFields
	DictEntryHasOnlyOneField
	DictEntryHasTooManyFields
	DictEntryNotInsideArray
	DictKeyMustBeBasicType

	// Value buffers.
	AlignmentPaddingNotNul
	BooleanNotZeroOrOne
	NotEnoughData
	TooMuchData
	MessageTooLong
	ArrayLengthExceedsMaximum
	ArrayLengthIncorrect
	BadPath
	BadUTF8InString
	StringMissingNul
	SignatureLengthOutOfBounds
	SignatureMissingNul
	VariantSignatureLengthOutOfBounds
	VariantSignatureBad
	VariantSignatureEmpty
	VariantSignatureSpecifiesMultipleValues
	VariantSignatureMissingNul
	NestedTooDeeply
)

var validityText = [...]string{
	Valid: "valid",

	UnknownTypeCode:                   "unknown type code",
	MissingArrayElementType:           "array is missing its element type",
	SignatureTooLong:                  "signature is too long",
	ExceededMaximumArrayRecursion:     "exceeded maximum array nesting",
	ExceededMaximumStructRecursion:    "exceeded maximum struct nesting",
	StructEndedButNotStarted:          "struct ended but not started",
	StructStartedButNotEnded:          "struct started but not ended",
	StructHasNoFields:                 "struct has no fields",
	ExceededMaximumDictEntryRecursion: "exceeded maximum dict entry nesting",
	DictEntryEndedButNotStarted:       "dict entry ended but not started",
	DictEntryStartedButNotEnded:       "dict entry started but not ended",
	DictEntryHasNoFields:              "dict entry has no fields",
	DictEntryHasOnlyOneField:          "dict entry has only one field",
	DictEntryHasTooManyFields:         "dict entry has too many fields",
	DictEntryNotInsideArray:           "dict entry not inside an array",
	DictKeyMustBeBasicType:            "dict entry key must be a basic type",

	AlignmentPaddingNotNul:                  "alignment padding is not zero",
	BooleanNotZeroOrOne:                     "boolean is not zero or one",
	NotEnoughData:                           "not enough data",
	TooMuchData:                             "too much data",
	MessageTooLong:                          "message is too long",
	ArrayLengthExceedsMaximum:               "array length exceeds maximum",
	ArrayLengthIncorrect:                    "array length does not match its elements",
	BadPath:                                 "invalid object path",
	BadUTF8InString:                         "string is not valid UTF-8",
	StringMissingNul:                        "string is missing its nul terminator",
	SignatureLengthOutOfBounds:              "signature length out of bounds",
	SignatureMissingNul:                     "signature is missing its nul terminator",
	VariantSignatureLengthOutOfBounds:       "variant signature length out of bounds",
	VariantSignatureBad:                     "variant signature is invalid",
	VariantSignatureEmpty:                   "variant signature is empty",
	VariantSignatureSpecifiesMultipleValues: "variant signature specifies more than one value",
	VariantSignatureMissingNul:              "variant signature is missing its nul terminator",
	NestedTooDeeply:                         "values nested too deeply",
}

func (v Validity) String() string {
	if v >= 0 && int(v) < len(validityText) {
		return validityText[v]
	}
	return fmt.Sprintf("Validity(%d)", int(v))
}

// A ValidityError is the error returned when a signature or value
// buffer fails validation.
type ValidityError struct {
	// Reason is the first validation rule that the input broke.
	Reason Validity
}

func (e ValidityError) Error() string {
	return "message corrupted: " + e.Reason.String()
}

// Err returns nil if v is Valid, or a ValidityError carrying v
// otherwise.
func (v Validity) Err() error {
	if v == Valid {
		return nil
	}
	return ValidityError{v}
}
