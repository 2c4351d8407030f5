package dbuswire

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danderson/dbuswire/fragments"
	"github.com/google/go-cmp/cmp"
)

func TestUnmarshalNatural(t *testing.T) {
	type testCase struct {
		name string
		v    any
		want any
	}
	tests := []testCase{
		{"byte", Variant{byte(1)}, byte(1)},
		{"path", Variant{ObjectPath("/a")}, ObjectPath("/a")},
		{"signature", Variant{Signature("a{sv}")}, Signature("a{sv}")},
		{"array", Variant{[]int32{1, 2}}, []int32{1, 2}},
		{"array of arrays", Variant{[][]string{{"a"}, {}}}, [][]string{{"a"}, {}}},
		{"dict", Variant{map[string]uint64{"x": 1}}, map[string]uint64{"x": 1}},
		{"variant", Variant{Variant{true}}, Variant{true}},
		{"struct", Variant{Nested{1, Simple{2, true}}}, struct {
			Field0 uint8
			Field1 struct {
				Field0 int16
				Field1 bool
			}
		}{1, struct {
			Field0 int16
			Field1 bool
		}{2, true}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig, raw := body(t, fragments.LittleEndian, tc.v)

			var got any
			if err := Unmarshal(sig, fragments.LittleEndian, raw, &got); err != nil {
				t.Fatalf("Unmarshal into any: %v", err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Unmarshal into any (-got+want):\n%s", diff)
			}

			var gotV Variant
			if err := Unmarshal(sig, fragments.LittleEndian, raw, &gotV); err != nil {
				t.Fatalf("Unmarshal into Variant: %v", err)
			}
			if diff := cmp.Diff(gotV.Value, tc.want); diff != "" {
				t.Errorf("Unmarshal into Variant (-got+want):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalReplaces(t *testing.T) {
	sig, raw := body(t, fragments.LittleEndian, []string{"a"}, map[uint16]string{2: "b"})

	s := []string{"stale", "values"}
	m := map[uint16]string{1: "stale"}
	if err := Unmarshal(sig, fragments.LittleEndian, raw, &s, &m); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, []string{"a"}); diff != "" {
		t.Errorf("slice not replaced (-got+want):\n%s", diff)
	}
	if diff := cmp.Diff(m, map[uint16]string{2: "b"}); diff != "" {
		t.Errorf("map not replaced (-got+want):\n%s", diff)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	le := fragments.LittleEndian

	t.Run("type mismatch", func(t *testing.T) {
		sig, raw := body(t, le, uint32(1))
		var i int32
		if err := Unmarshal(sig, le, raw, &i); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("decoding u into int32 got err %v, want ErrTypeMismatch", err)
		}
		var s []uint32
		if err := Unmarshal(sig, le, raw, &s); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("decoding u into []uint32 got err %v, want ErrTypeMismatch", err)
		}
		var a any
		if err := Unmarshal(sig, le, raw, &a); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("decoding u into any got err %v, want ErrTypeMismatch", err)
		}
	})

	t.Run("array element mismatch", func(t *testing.T) {
		sig, raw := body(t, le, []uint16{1, 2})
		var s []int16
		if err := Unmarshal(sig, le, raw, &s); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("decoding aq into []int16 got err %v, want ErrTypeMismatch", err)
		}
		var m map[uint16]uint16
		if err := Unmarshal(sig, le, raw, &m); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("decoding aq into map got err %v, want ErrTypeMismatch", err)
		}
	})

	t.Run("value count", func(t *testing.T) {
		sig, raw := body(t, le, uint32(1), uint32(2))
		var a, b, c uint32
		if err := Unmarshal(sig, le, raw, &a); err == nil {
			t.Error("decoding 2 values into 1 target succeeded")
		}
		if err := Unmarshal(sig, le, raw, &a, &b, &c); err == nil {
			t.Error("decoding 2 values into 3 targets succeeded")
		}
		if err := Unmarshal(sig, le, raw, &a, &b); err != nil {
			t.Errorf("decoding 2 values into 2 targets: %v", err)
		}
	})

	t.Run("struct field count", func(t *testing.T) {
		sig, raw := body(t, le, Embedded{Simple{1, true}, 2})
		var s Simple
		if err := Unmarshal(sig, le, raw, &s); err == nil {
			t.Error("decoding (nby) into 2-field struct succeeded")
		}
	})

	t.Run("array length", func(t *testing.T) {
		sig, raw := body(t, le, []string{"a", "b", "c"})
		var short [2]string
		if err := Unmarshal(sig, le, raw, &short); err == nil {
			t.Error("decoding 3 elements into [2]string succeeded")
		}
		var long [4]string
		if err := Unmarshal(sig, le, raw, &long); err == nil {
			t.Error("decoding 3 elements into [4]string succeeded")
		}
	})

	t.Run("not a pointer", func(t *testing.T) {
		sig, raw := body(t, le, uint32(1))
		var te TypeError
		if err := Unmarshal(sig, le, raw, uint32(0)); !errors.As(err, &te) {
			t.Errorf("decoding into non-pointer got err %v, want TypeError", err)
		} else if te.Type != reflect.TypeFor[uint32]() {
			t.Errorf("TypeError.Type = %v, want uint32", te.Type)
		}
		if err := Unmarshal(sig, le, raw, (*uint32)(nil)); !errors.As(err, &te) {
			t.Errorf("decoding into nil pointer got err %v, want TypeError", err)
		}
	})

	t.Run("invalid data", func(t *testing.T) {
		var b bool
		err := Unmarshal("b", le, []byte{2, 0, 0, 0}, &b)
		var ve ValidityError
		if !errors.As(err, &ve) {
			t.Fatalf("decoding bad bool got err %v, want ValidityError", err)
		}
		if ve.Reason != BooleanNotZeroOrOne {
			t.Errorf("decoding bad bool got %v, want %v", ve.Reason, BooleanNotZeroOrOne)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		var b bool
		err := Unmarshal("(", le, nil, &b)
		var ve ValidityError
		if !errors.As(err, &ve) || ve.Reason != StructStartedButNotEnded {
			t.Errorf("decoding with bad signature got err %v, want %v", err, StructStartedButNotEnded)
		}
	})
}
