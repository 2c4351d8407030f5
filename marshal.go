package dbuswire

import (
	"fmt"
	"log"
	"reflect"
	"slices"
	"strings"

	"github.com/danderson/dbuswire/fragments"
)

// Marshal returns the DBus encoding of vs as a sequence of values, and
// the signature describing them.
//
// Marshal uses the following type-dependent encodings:
//
// bool, uint8, int16, uint16, int32, uint32, int64, uint64, float64
// and string values encode to the corresponding DBus basic type.
// [ObjectPath], [Signature] and [UnixFD] values encode to object
// paths, signatures and unix file descriptors respectively.
//
// Array and slice values encode as DBus arrays. Nil slices encode the
// same as an empty slice.
//
// Map values encode as a DBus dictionary, i.e. an array of key/value
// dict entries, in ascending key order. The map's key type must be
// one of the basic types above.
//
// Struct values encode as DBus structs. Each exported struct field is
// encoded in declaration order, according to its own type. Embedded
// struct fields are encoded as if their inner exported fields were
// fields in the outer struct, subject to the usual Go visibility
// rules. Fields tagged `dbus:"-"` are skipped.
//
// [Variant] and interface values encode as DBus variants, whose
// content type is that of the value they hold.
//
// Pointer values encode as the value pointed to. A nil pointer
// encodes as the zero value of the type pointed to.
//
// int8, int, uint, uintptr, float32, complex, channel and function
// values cannot be encoded, and neither can cyclic types. Attempting
// to encode them causes Marshal to return a [TypeError].
func Marshal(order fragments.ByteOrder, vs ...any) (Signature, []byte, error) {
	var sig, data Buffer
	w := NewWriter(order, &sig, 0, &data, 0)
	for _, v := range vs {
		if err := w.WriteValue(v); err != nil {
			return "", nil, err
		}
	}
	return Signature(sig.Data), data.Data, nil
}

// WriteValue writes v, encoded as described by [Marshal].
//
// On error, the writer and its buffers are unchanged.
func (w *Writer) WriteValue(v any) error {
	val := reflect.ValueOf(v)
	if !val.IsValid() {
		return typeErr(nil, "cannot marshal nil value")
	}
	enc, err := encoderFor(val.Type())
	if err != nil {
		return err
	}

	orig := *w
	dataLen := w.data.Len()
	ownedSig := w.sig != nil && !w.expect
	sigLen := 0
	if ownedSig {
		sigLen = w.sig.Len()
	}
	if err := enc(w, val); err != nil {
		w.data.remove(orig.pos, w.data.Len()-dataLen)
		if ownedSig {
			w.sig.remove(orig.sigPos, w.sig.Len()-sigLen)
		}
		*w = orig
		return err
	}
	return nil
}

// SignatureOf returns the signature of v's DBus encoding.
func SignatureOf(v any) (Signature, error) {
	return signatureFor(reflect.TypeOf(v), nil)
}

// SignatureFor returns the signature of the DBus encoding of T.
func SignatureFor[T any]() (Signature, error) {
	return signatureFor(reflect.TypeFor[T](), nil)
}

var signatures cache[reflect.Type, Signature]

func signatureFor(t reflect.Type, stack []reflect.Type) (sig Signature, err error) {
	if t == nil {
		return "", typeErr(t, "nil interface")
	}
	if ret, err := signatures.Get(t); err != errNotFound {
		return ret, err
	}
	if slices.Contains(stack, t) {
		return "", typeErr(t, "recursive type")
	}
	stack = append(stack, t)

	defer func(t reflect.Type) {
		if err != nil {
			signatures.SetErr(t, err)
		} else {
			signatures.Set(t, sig)
		}
	}(t)

	t = derefType(t)
	switch dt := dbusTypeOf(t); {
	case dt == TypeInvalid:
		return "", typeErr(t, "no mapping available")
	case dt.IsBasic() || dt == TypeVariant:
		return Signature([]byte{byte(dt)}), nil
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		es, err := signatureFor(t.Elem(), stack)
		if err != nil {
			return "", err
		}
		return "a" + es, nil
	case reflect.Map:
		if !mapKeyKinds.Has(t.Key().Kind()) {
			return "", typeErr(t, "map key type %s is not a DBus basic type", t.Key())
		}
		ks, err := signatureFor(t.Key(), stack)
		if err != nil {
			return "", err
		}
		vs, err := signatureFor(t.Elem(), stack)
		if err != nil {
			return "", err
		}
		return "a{" + ks + vs + "}", nil
	case reflect.Struct:
		si, err := getStructInfo(t)
		if err != nil {
			return "", err
		}
		var s strings.Builder
		s.WriteByte(structBegin)
		for _, f := range si.Fields {
			fs, err := signatureFor(f.Type, stack)
			if err != nil {
				return "", err
			}
			s.WriteString(string(fs))
		}
		s.WriteByte(structEnd)
		ret := Signature(s.String())
		if v := ret.Validate(); v != Valid {
			return "", typeErr(t, "invalid signature %q: %w", ret, v.Err())
		}
		return ret, nil
	}
	return "", typeErr(t, "no mapping available")
}

const debugEncoders = false

func debugEncoder(msg string, args ...any) {
	if !debugEncoders {
		return
	}
	log.Printf(msg, args...)
}

// encoderFunc writes v to w.
type encoderFunc func(w *Writer, v reflect.Value) error

var encoders cache[reflect.Type, encoderFunc]

func encoderFor(t reflect.Type) (ret encoderFunc, err error) {
	if ret, err := encoders.Get(t); err != errNotFound {
		return ret, err
	}
	// Weed out unrepresentable and recursive types before building
	// an encoder, which would otherwise recurse forever.
	sig, err := signatureFor(t, nil)
	if err != nil {
		return nil, err
	}
	defer func(t reflect.Type) {
		if err != nil {
			encoders.SetErr(t, err)
		} else {
			encoders.Set(t, ret)
		}
	}(t)
	debugEncoder("encoderFor(%s) = %q", t, sig)

	if t.Kind() == reflect.Pointer {
		return newPtrEncoder(t)
	}
	switch dt := dbusTypeOf(t); {
	case dt == TypeVariant:
		return newVariantEncoder(t), nil
	case dt.IsBasic():
		return newBasicEncoder(t, dt), nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return newSliceEncoder(t)
	case reflect.Map:
		return newMapEncoder(t)
	case reflect.Struct:
		return newStructEncoder(t)
	}
	return nil, typeErr(t, "no mapping available")
}

func newPtrEncoder(t reflect.Type) (encoderFunc, error) {
	elemEnc, err := encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	return func(w *Writer, v reflect.Value) error {
		if v.IsNil() {
			return elemEnc(w, reflect.Zero(t.Elem()))
		}
		return elemEnc(w, v.Elem())
	}, nil
}

// basicValue returns v converted to the Go type that WriteBasic
// accepts for t.
func basicValue(v reflect.Value, t Type) any {
	return v.Convert(basicGoTypes[t]).Interface()
}

func newBasicEncoder(t reflect.Type, dt Type) encoderFunc {
	if t == basicGoTypes[dt] {
		return func(w *Writer, v reflect.Value) error {
			return w.WriteBasic(dt, v.Interface())
		}
	}
	return func(w *Writer, v reflect.Value) error {
		return w.WriteBasic(dt, basicValue(v, dt))
	}
}

func newVariantEncoder(t reflect.Type) encoderFunc {
	inner := func(v reflect.Value) reflect.Value {
		if t == variantType {
			return v.Field(0)
		}
		return v
	}
	return func(w *Writer, v reflect.Value) error {
		v = inner(v)
		if v.IsNil() {
			return typeErr(t, "cannot marshal nil variant value")
		}
		v = v.Elem()
		sig, err := signatureFor(v.Type(), nil)
		if err != nil {
			return err
		}
		enc, err := encoderFor(v.Type())
		if err != nil {
			return err
		}
		sub, err := w.Recurse(TypeVariant, sig)
		if err != nil {
			return err
		}
		if err := enc(sub, v); err != nil {
			return err
		}
		return w.Unrecurse(sub)
	}
}

func newSliceEncoder(t reflect.Type) (encoderFunc, error) {
	elemSig, err := signatureFor(t.Elem(), nil)
	if err != nil {
		return nil, err
	}
	// Slices of the exact Go types for fixed DBus types go out in a
	// single block.
	if dt := elemSig.First(); dt.IsFixed() && t.Elem() == basicGoTypes[dt] && t.Kind() == reflect.Slice {
		fixed := reflect.SliceOf(basicGoTypes[dt])
		return func(w *Writer, v reflect.Value) error {
			sub, err := w.Recurse(TypeArray, elemSig)
			if err != nil {
				return err
			}
			if err := sub.WriteFixedBlock(dt, v.Convert(fixed).Interface()); err != nil {
				return err
			}
			return w.Unrecurse(sub)
		}, nil
	}

	elemEnc, err := encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	return func(w *Writer, v reflect.Value) error {
		sub, err := w.Recurse(TypeArray, elemSig)
		if err != nil {
			return err
		}
		for i := range v.Len() {
			if err := elemEnc(sub, v.Index(i)); err != nil {
				return fmt.Errorf("encoding %s element %d: %w", t, i, err)
			}
		}
		return w.Unrecurse(sub)
	}, nil
}

func newMapEncoder(t reflect.Type) (encoderFunc, error) {
	sig, err := signatureFor(t, nil)
	if err != nil {
		return nil, err
	}
	entrySig := sig[1:]
	kEnc, err := encoderFor(t.Key())
	if err != nil {
		return nil, err
	}
	vEnc, err := encoderFor(t.Elem())
	if err != nil {
		return nil, err
	}
	kCmp := mapKeyCmp(t.Key())

	return func(w *Writer, v reflect.Value) error {
		ks := v.MapKeys()
		slices.SortFunc(ks, kCmp)
		sub, err := w.Recurse(TypeArray, entrySig)
		if err != nil {
			return err
		}
		for _, k := range ks {
			entry, err := sub.Recurse(TypeDictEntry, "")
			if err != nil {
				return err
			}
			if err := kEnc(entry, k); err != nil {
				return err
			}
			if err := vEnc(entry, v.MapIndex(k)); err != nil {
				return fmt.Errorf("encoding %s value for key %v: %w", t, k, err)
			}
			if err := sub.Unrecurse(entry); err != nil {
				return err
			}
		}
		return w.Unrecurse(sub)
	}, nil
}

func newStructEncoder(t reflect.Type) (encoderFunc, error) {
	si, err := getStructInfo(t)
	if err != nil {
		return nil, err
	}
	fieldEncs := make([]encoderFunc, len(si.Fields))
	for i, f := range si.Fields {
		enc, err := encoderFor(f.Type)
		if err != nil {
			return nil, err
		}
		fieldEncs[i] = enc
	}

	return func(w *Writer, v reflect.Value) error {
		sub, err := w.Recurse(TypeStruct, "")
		if err != nil {
			return err
		}
		for i, f := range si.Fields {
			if err := fieldEncs[i](sub, v.FieldByIndex(f.Index)); err != nil {
				return fmt.Errorf("encoding field %s.%s: %w", t, f.Name, err)
			}
		}
		return w.Unrecurse(sub)
	}, nil
}
