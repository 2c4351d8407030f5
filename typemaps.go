package dbuswire

import (
	"cmp"
	"reflect"

	"github.com/creachadair/mds/mapset"
)

var (
	objectPathType = reflect.TypeFor[ObjectPath]()
	signatureType  = reflect.TypeFor[Signature]()
	unixFDType     = reflect.TypeFor[UnixFD]()
	variantType    = reflect.TypeFor[Variant]()
	anyType        = reflect.TypeFor[any]()

	// namedTypes maps Go types that have their own DBus type, rather
	// than the type of their underlying kind.
	namedTypes = map[reflect.Type]Type{
		objectPathType: TypeObjectPath,
		signatureType:  TypeSignature,
		unixFDType:     TypeUnixFD,
		variantType:    TypeVariant,
		anyType:        TypeVariant,
	}

	// kindToType maps the reflect.Kinds of the basic types
	// representable by DBus to the corresponding DBus type.
	kindToType = map[reflect.Kind]Type{
		reflect.Bool:    TypeBoolean,
		reflect.Uint8:   TypeByte,
		reflect.Int16:   TypeInt16,
		reflect.Uint16:  TypeUint16,
		reflect.Int32:   TypeInt32,
		reflect.Uint32:  TypeUint32,
		reflect.Int64:   TypeInt64,
		reflect.Uint64:  TypeUint64,
		reflect.Float64: TypeDouble,
		reflect.String:  TypeString,
	}

	// basicGoTypes is the Go type that Reader.ReadBasic returns for
	// each DBus basic type, and that Unmarshal uses for values of
	// unknown type.
	basicGoTypes = map[Type]reflect.Type{
		TypeByte:       reflect.TypeFor[byte](),
		TypeBoolean:    reflect.TypeFor[bool](),
		TypeInt16:      reflect.TypeFor[int16](),
		TypeUint16:     reflect.TypeFor[uint16](),
		TypeInt32:      reflect.TypeFor[int32](),
		TypeUint32:     reflect.TypeFor[uint32](),
		TypeInt64:      reflect.TypeFor[int64](),
		TypeUint64:     reflect.TypeFor[uint64](),
		TypeDouble:     reflect.TypeFor[float64](),
		TypeString:     reflect.TypeFor[string](),
		TypeObjectPath: objectPathType,
		TypeSignature:  signatureType,
		TypeUnixFD:     unixFDType,
	}

	// mapKeyKinds is the set of reflect.Kinds that can be in a DBus
	// map key.
	mapKeyKinds = mapset.New(
		reflect.Bool,
		reflect.Uint8,
		reflect.Int16,
		reflect.Uint16,
		reflect.Int32,
		reflect.Uint32,
		reflect.Int64,
		reflect.Uint64,
		reflect.Float64,
		reflect.String,
	)
)

// dbusTypeOf returns the DBus type that t encodes to, ignoring
// pointers. It returns TypeInvalid if t has no DBus representation.
func dbusTypeOf(t reflect.Type) Type {
	t = derefType(t)
	if ret, ok := namedTypes[t]; ok {
		return ret
	}
	if ret, ok := kindToType[t.Kind()]; ok {
		return ret
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return TypeArray
	case reflect.Struct:
		return TypeStruct
	}
	return TypeInvalid
}

// mapKeyCmp returns a comparison function for the given map key type.
func mapKeyCmp(t reflect.Type) func(a, b reflect.Value) int {
	switch t.Kind() {
	case reflect.Bool:
		return func(a, b reflect.Value) int {
			if a.Bool() == b.Bool() {
				return 0
			}
			if !a.Bool() {
				return -1
			}
			return 1
		}
	case reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.Int(), b.Int())
		}
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.Uint(), b.Uint())
		}
	case reflect.Float64:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.Float(), b.Float())
		}
	case reflect.String:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.String(), b.String())
		}
	default:
		panic("invalid map key type")
	}
}
