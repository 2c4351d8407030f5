package dbuswire

import (
	"fmt"
	"iter"
	"reflect"
)

// structField is a struct field that gets marshaled.
type structField struct {
	Name  string
	Index []int
	Type  reflect.Type
}

// structInfo is the information about a struct relevant to
// marshaling and unmarshaling.
type structInfo struct {
	Type   reflect.Type
	Fields []structField
}

var structInfos cache[reflect.Type, *structInfo]

// getStructInfo returns the structInfo for t.
//
// getStructInfo returns an error if t is not a struct, or if the
// struct cannot be represented as a DBus struct.
func getStructInfo(t reflect.Type) (ret *structInfo, err error) {
	if ret, err := structInfos.Get(t); err != errNotFound {
		return ret, err
	}
	defer func() {
		if err != nil {
			structInfos.SetErr(t, err)
		} else {
			structInfos.Set(t, ret)
		}
	}()

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}
	ret = &structInfo{Type: t}
	// Embedded fields follow Go's visibility rules: the shallowest
	// field of a name wins, and names that are ambiguous at that
	// depth are hidden.
	var (
		shallowest = map[string]int{}
		ambiguous  = map[string]bool{}
		fields     []reflect.StructField
	)
	for f := range structFields(t, nil) {
		if !f.IsExported() || f.Tag.Get("dbus") == "-" {
			continue
		}
		depth, seen := shallowest[f.Name]
		switch {
		case !seen || len(f.Index) < depth:
			shallowest[f.Name] = len(f.Index)
			ambiguous[f.Name] = false
		case len(f.Index) == depth:
			ambiguous[f.Name] = true
		}
		fields = append(fields, f)
	}
	for _, f := range fields {
		if len(f.Index) != shallowest[f.Name] || ambiguous[f.Name] {
			continue
		}
		ret.Fields = append(ret.Fields, structField{
			Name:  f.Name,
			Index: f.Index,
			Type:  f.Type,
		})
	}
	if len(ret.Fields) == 0 {
		return nil, typeErr(t, "struct has no exported fields")
	}
	return ret, nil
}

// structFields yields the fields of t in declaration order. The
// fields of embedded structs are yielded in place of the embedded
// field, with an Index relative to t.
func structFields(t reflect.Type, idx []int) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			f := t.Field(i)
			idx = append(idx, i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				for af := range structFields(f.Type, idx) {
					if !yield(af) {
						return
					}
				}
				idx = idx[:len(idx)-1]
				continue
			}
			f.Index = append([]int(nil), idx...)
			if !yield(f) {
				return
			}
			idx = idx[:len(idx)-1]
		}
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// derefAlloc follows pointers from v, allocating zero values for any
// nil pointers along the way.
func derefAlloc(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return v
}
