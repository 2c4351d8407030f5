package dbuswire

import (
	"fmt"

	"github.com/creachadair/mds/mapset"
)

// A Type is a DBus type code.
//
// The type code of a container is what a [Reader] reports as the
// current type. The bracket characters that delimit structs and dict
// entries only ever appear inside signature text.
type Type byte

const (
	TypeInvalid    Type = 0
	TypeByte       Type = 'y'
	TypeBoolean    Type = 'b'
	TypeInt16      Type = 'n'
	TypeUint16     Type = 'q'
	TypeInt32      Type = 'i'
	TypeUint32     Type = 'u'
	TypeInt64      Type = 'x'
	TypeUint64     Type = 't'
	TypeDouble     Type = 'd'
	TypeString     Type = 's'
	TypeObjectPath Type = 'o'
	TypeSignature  Type = 'g'
	TypeUnixFD     Type = 'h'
	TypeArray      Type = 'a'
	TypeVariant    Type = 'v'
	// TypeStruct and TypeDictEntry never appear in signatures, which
	// use the bracket characters below instead.
	TypeStruct    Type = 'r'
	TypeDictEntry Type = 'e'
)

// Signature bracket characters.
const (
	structBegin    = '('
	structEnd      = ')'
	dictEntryBegin = '{'
	dictEntryEnd   = '}'
)

var (
	// basicTypes are the types that can be read and written as a
	// single value, and that can be dict entry keys.
	basicTypes = mapset.New(
		TypeByte,
		TypeBoolean,
		TypeInt16,
		TypeUint16,
		TypeInt32,
		TypeUint32,
		TypeInt64,
		TypeUint64,
		TypeDouble,
		TypeString,
		TypeObjectPath,
		TypeSignature,
		TypeUnixFD,
	)

	// fixedTypes are the basic types with a constant encoded size,
	// which is always equal to their alignment.
	fixedTypes = mapset.New(
		TypeByte,
		TypeBoolean,
		TypeInt16,
		TypeUint16,
		TypeInt32,
		TypeUint32,
		TypeInt64,
		TypeUint64,
		TypeDouble,
		TypeUnixFD,
	)

	containerTypes = mapset.New(
		TypeArray,
		TypeStruct,
		TypeDictEntry,
		TypeVariant,
	)
)

// IsBasic reports whether t is a basic type.
func (t Type) IsBasic() bool { return basicTypes.Has(t) }

// IsFixed reports whether t is a basic type of constant size.
func (t Type) IsFixed() bool { return fixedTypes.Has(t) }

// IsContainer reports whether t is a container type.
func (t Type) IsContainer() bool { return containerTypes.Has(t) }

// IsValid reports whether t is a known type code. TypeInvalid is not
// valid.
func (t Type) IsValid() bool { return t.IsBasic() || t.IsContainer() }

// Alignment returns the alignment in bytes of values of type t.
//
// Alignment panics if t is not a valid type.
func (t Type) Alignment() int {
	switch t {
	case TypeByte, TypeSignature, TypeVariant:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeBoolean, TypeInt32, TypeUint32, TypeUnixFD, TypeString, TypeObjectPath, TypeArray:
		return 4
	case TypeInt64, TypeUint64, TypeDouble, TypeStruct, TypeDictEntry:
		return 8
	default:
		panic(fmt.Sprintf("Alignment of invalid type code %q", byte(t)))
	}
}

// fixedSize returns the encoded size of a fixed type.
func (t Type) fixedSize() int {
	if !t.IsFixed() {
		panic(fmt.Sprintf("fixedSize of non-fixed type %s", t))
	}
	return t.Alignment()
}

// String returns the name of the type.
func (t Type) String() string {
	switch t {
	case TypeInvalid:
		return "invalid"
	case TypeByte:
		return "byte"
	case TypeBoolean:
		return "boolean"
	case TypeInt16:
		return "int16"
	case TypeUint16:
		return "uint16"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeObjectPath:
		return "object_path"
	case TypeSignature:
		return "signature"
	case TypeUnixFD:
		return "unix_fd"
	case TypeArray:
		return "array"
	case TypeVariant:
		return "variant"
	case TypeStruct:
		return "struct"
	case TypeDictEntry:
		return "dict_entry"
	default:
		return fmt.Sprintf("unknown(%q)", byte(t))
	}
}

// typeAt returns the type of the complete type that starts at
// sig[pos], mapping brackets to TypeStruct and TypeDictEntry. It
// returns TypeInvalid at the end of sig or on a closing bracket or
// nul.
func typeAt(sig []byte, pos int) Type {
	if pos >= len(sig) {
		return TypeInvalid
	}
	switch c := sig[pos]; c {
	case structBegin:
		return TypeStruct
	case dictEntryBegin:
		return TypeDictEntry
	case structEnd, dictEntryEnd, 0:
		return TypeInvalid
	default:
		return Type(c)
	}
}
