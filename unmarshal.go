package dbuswire

import (
	"fmt"
	"log"
	"reflect"

	"github.com/danderson/dbuswire/fragments"
)

// Unmarshal decodes the values of signature sig in data into the
// values pointed to by vs. There must be exactly one pointer per
// complete type in sig. data is validated before decoding, and
// invalid data results in a [ValidityError].
//
// Unmarshal applies the inverse of the rules used by [Marshal]. The
// signature must match the Go types of the targets: for example, an
// int32 target cannot decode a DBus uint32.
//
// Slices are reset and refilled with the decoded elements. Arrays
// must have exactly as many elements as the DBus array. Maps are
// replaced by a new map holding the decoded dictionary. Struct fields
// decode in declaration order, and the DBus struct must have exactly
// as many fields as the Go struct.
//
// Pointers are allocated as needed. [Variant] and interface targets
// receive the variant's content as its natural Go type, as described
// on [Variant].
func Unmarshal(sig Signature, order fragments.ByteOrder, data []byte, vs ...any) error {
	if err := Check(Untrusted, sig, order, data, 0, Limits{}); err != nil {
		return err
	}
	r := NewReader(order, sig, data, 0)
	for i, v := range vs {
		if r.CurrentType() == TypeInvalid {
			return fmt.Errorf("signature %q has fewer than %d values", sig, len(vs))
		}
		if err := r.ReadValue(v); err != nil {
			return fmt.Errorf("decoding value %d: %w", i, err)
		}
		r.Next()
	}
	if r.CurrentType() != TypeInvalid {
		return fmt.Errorf("signature %q has more than %d values", sig, len(vs))
	}
	return nil
}

// ReadValue decodes the value under the cursor into the value pointed
// to by v, as described by [Unmarshal]. The cursor is not advanced.
func (r *Reader) ReadValue(v any) error {
	r.mustHaveValues()
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return typeErr(reflect.TypeOf(v), "can only unmarshal into a non-nil pointer")
	}
	dec, err := decoderFor(rv.Type().Elem())
	if err != nil {
		return err
	}
	return dec(r, rv.Elem())
}

const debugDecoders = false

func debugDecoder(msg string, args ...any) {
	if !debugDecoders {
		return
	}
	log.Printf(msg, args...)
}

// decoderFunc decodes the value under r's cursor into v, without
// advancing r. v must be settable.
type decoderFunc func(r *Reader, v reflect.Value) error

var decoders cache[reflect.Type, decoderFunc]

func decoderFor(t reflect.Type) (ret decoderFunc, err error) {
	if ret, err := decoders.Get(t); err != errNotFound {
		return ret, err
	}
	sig, err := signatureFor(t, nil)
	if err != nil {
		return nil, err
	}
	defer func(t reflect.Type) {
		if err != nil {
			decoders.SetErr(t, err)
		} else {
			decoders.Set(t, ret)
		}
	}(t)
	debugDecoder("decoderFor(%s) = %q", t, sig)

	if t.Kind() == reflect.Pointer {
		return newPtrDecoder(t)
	}
	switch dt := dbusTypeOf(t); {
	case dt == TypeVariant:
		return newVariantDecoder(t), nil
	case dt.IsBasic():
		return newBasicDecoder(t, dt), nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return newSliceDecoder(t, sig)
	case reflect.Map:
		return newMapDecoder(t)
	case reflect.Struct:
		return newStructDecoder(t)
	}
	return nil, typeErr(t, "no mapping available")
}

func expectType(r *Reader, want Type, t reflect.Type) error {
	if got := r.CurrentType(); got != want {
		return fmt.Errorf("%w: cannot decode DBus %s into %s", ErrTypeMismatch, got, t)
	}
	return nil
}

func newPtrDecoder(t reflect.Type) (decoderFunc, error) {
	elemDec, err := decoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	return func(r *Reader, v reflect.Value) error {
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return elemDec(r, v.Elem())
	}, nil
}

func newBasicDecoder(t reflect.Type, dt Type) decoderFunc {
	return func(r *Reader, v reflect.Value) error {
		if err := expectType(r, dt, t); err != nil {
			return err
		}
		v.Set(reflect.ValueOf(r.ReadBasic()).Convert(t))
		return nil
	}
}

func newVariantDecoder(t reflect.Type) decoderFunc {
	return func(r *Reader, v reflect.Value) error {
		if err := expectType(r, TypeVariant, t); err != nil {
			return err
		}
		sub := r.Recurse()
		nt := naturalType(sub.sig, 0)
		dec, err := decoderFor(nt)
		if err != nil {
			return err
		}
		val := reflect.New(nt).Elem()
		if err := dec(&sub, val); err != nil {
			return fmt.Errorf("decoding variant of type %q: %w", sub.sig, err)
		}
		if t == variantType {
			v.Field(0).Set(val)
		} else {
			v.Set(val)
		}
		return nil
	}
}

// naturalType returns the Go type that a value of the complete type
// at sig[pos] decodes to when nothing else is known about it.
func naturalType(sig []byte, pos int) reflect.Type {
	ret, _ := naturalTypeAt(sig, pos)
	return ret
}

func naturalTypeAt(sig []byte, pos int) (reflect.Type, int) {
	switch t := typeAt(sig, pos); {
	case t.IsBasic():
		return basicGoTypes[t], pos + 1
	case t == TypeVariant:
		return variantType, pos + 1
	case t == TypeArray:
		if typeAt(sig, pos+1) == TypeDictEntry {
			k, next := naturalTypeAt(sig, pos+2)
			v, next := naturalTypeAt(sig, next)
			return reflect.MapOf(k, v), next + 1
		}
		elem, next := naturalTypeAt(sig, pos+1)
		return reflect.SliceOf(elem), next
	case t == TypeStruct:
		var fields []reflect.StructField
		pos++
		for sig[pos] != structEnd {
			var ft reflect.Type
			ft, pos = naturalTypeAt(sig, pos)
			fields = append(fields, reflect.StructField{
				Name: fmt.Sprintf("Field%d", len(fields)),
				Type: ft,
			})
		}
		return reflect.StructOf(fields), pos + 1
	default:
		panic(fmt.Sprintf("no natural type for %s in signature %q", t, sig))
	}
}

func newSliceDecoder(t reflect.Type, sig Signature) (decoderFunc, error) {
	elemSig := sig[1:]
	if dt := elemSig.First(); dt.IsFixed() && t.Elem() == basicGoTypes[dt] && t.Kind() == reflect.Slice {
		return func(r *Reader, v reflect.Value) error {
			if err := expectType(r, TypeArray, t); err != nil {
				return err
			}
			if et := r.ElementType(); et != dt {
				return fmt.Errorf("%w: cannot decode DBus array of %s into %s", ErrTypeMismatch, et, t)
			}
			sub := r.Recurse()
			v.Set(reflect.ValueOf(sub.ReadFixedBlock()).Convert(t))
			return nil
		}, nil
	}

	elemDec, err := decoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	if t.Kind() == reflect.Array {
		return func(r *Reader, v reflect.Value) error {
			if err := expectType(r, TypeArray, t); err != nil {
				return err
			}
			sub := r.Recurse()
			i := 0
			for ; sub.CurrentType() != TypeInvalid; sub.Next() {
				if i >= v.Len() {
					return fmt.Errorf("DBus array has more than the %d elements of %s", v.Len(), t)
				}
				if err := elemDec(&sub, v.Index(i)); err != nil {
					return fmt.Errorf("decoding %s element %d: %w", t, i, err)
				}
				i++
			}
			if i != v.Len() {
				return fmt.Errorf("DBus array has %d elements, %s needs %d", i, t, v.Len())
			}
			return nil
		}, nil
	}

	return func(r *Reader, v reflect.Value) error {
		if err := expectType(r, TypeArray, t); err != nil {
			return err
		}
		ret := reflect.MakeSlice(t, 0, 0)
		sub := r.Recurse()
		for i := 0; sub.CurrentType() != TypeInvalid; i++ {
			ret = reflect.Append(ret, reflect.Zero(t.Elem()))
			if err := elemDec(&sub, ret.Index(i)); err != nil {
				return fmt.Errorf("decoding %s element %d: %w", t, i, err)
			}
			sub.Next()
		}
		v.Set(ret)
		return nil
	}, nil
}

func newMapDecoder(t reflect.Type) (decoderFunc, error) {
	kt, vt := t.Key(), t.Elem()
	kDec, err := decoderFor(kt)
	if err != nil {
		return nil, err
	}
	vDec, err := decoderFor(vt)
	if err != nil {
		return nil, err
	}
	return func(r *Reader, v reflect.Value) error {
		if err := expectType(r, TypeArray, t); err != nil {
			return err
		}
		if et := r.ElementType(); et != TypeDictEntry {
			return fmt.Errorf("%w: cannot decode DBus array of %s into %s", ErrTypeMismatch, et, t)
		}
		ret := reflect.MakeMap(t)
		sub := r.Recurse()
		for ; sub.CurrentType() != TypeInvalid; sub.Next() {
			entry := sub.Recurse()
			key := reflect.New(kt).Elem()
			if err := kDec(&entry, key); err != nil {
				return fmt.Errorf("decoding %s key: %w", t, err)
			}
			entry.Next()
			val := reflect.New(vt).Elem()
			if err := vDec(&entry, val); err != nil {
				return fmt.Errorf("decoding %s value for key %v: %w", t, key, err)
			}
			ret.SetMapIndex(key, val)
		}
		v.Set(ret)
		return nil
	}, nil
}

func newStructDecoder(t reflect.Type) (decoderFunc, error) {
	si, err := getStructInfo(t)
	if err != nil {
		return nil, err
	}
	fieldDecs := make([]decoderFunc, len(si.Fields))
	for i, f := range si.Fields {
		dec, err := decoderFor(f.Type)
		if err != nil {
			return nil, err
		}
		fieldDecs[i] = dec
	}

	return func(r *Reader, v reflect.Value) error {
		if err := expectType(r, TypeStruct, t); err != nil {
			return err
		}
		sub := r.Recurse()
		for i, f := range si.Fields {
			if sub.CurrentType() == TypeInvalid {
				return fmt.Errorf("DBus struct has %d fields, %s needs %d", i, t, len(si.Fields))
			}
			if err := fieldDecs[i](&sub, v.FieldByIndex(f.Index)); err != nil {
				return fmt.Errorf("decoding field %s.%s: %w", t, f.Name, err)
			}
			sub.Next()
		}
		if sub.CurrentType() != TypeInvalid {
			return fmt.Errorf("DBus struct has more than the %d fields of %s", len(si.Fields), t)
		}
		return nil
	}, nil
}
