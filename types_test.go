package dbuswire

import "testing"

func TestTypeProperties(t *testing.T) {
	tests := []struct {
		t         Type
		align     int
		basic     bool
		fixed     bool
		container bool
	}{
		{TypeByte, 1, true, true, false},
		{TypeBoolean, 4, true, true, false},
		{TypeInt16, 2, true, true, false},
		{TypeUint16, 2, true, true, false},
		{TypeInt32, 4, true, true, false},
		{TypeUint32, 4, true, true, false},
		{TypeInt64, 8, true, true, false},
		{TypeUint64, 8, true, true, false},
		{TypeDouble, 8, true, true, false},
		{TypeUnixFD, 4, true, true, false},
		{TypeString, 4, true, false, false},
		{TypeObjectPath, 4, true, false, false},
		{TypeSignature, 1, true, false, false},
		{TypeArray, 4, false, false, true},
		{TypeVariant, 1, false, false, true},
		{TypeStruct, 8, false, false, true},
		{TypeDictEntry, 8, false, false, true},
	}
	for _, tc := range tests {
		if got := tc.t.Alignment(); got != tc.align {
			t.Errorf("%s.Alignment() = %d, want %d", tc.t, got, tc.align)
		}
		if got := tc.t.IsBasic(); got != tc.basic {
			t.Errorf("%s.IsBasic() = %v, want %v", tc.t, got, tc.basic)
		}
		if got := tc.t.IsFixed(); got != tc.fixed {
			t.Errorf("%s.IsFixed() = %v, want %v", tc.t, got, tc.fixed)
		}
		if got := tc.t.IsContainer(); got != tc.container {
			t.Errorf("%s.IsContainer() = %v, want %v", tc.t, got, tc.container)
		}
		if !tc.t.IsValid() {
			t.Errorf("%s.IsValid() = false", tc.t)
		}
	}

	for _, bad := range []Type{TypeInvalid, '(', '{', 'z'} {
		if bad.IsValid() {
			t.Errorf("%s.IsValid() = true", bad)
		}
	}
}

func TestObjectPath(t *testing.T) {
	valid := []ObjectPath{"/", "/a", "/org/freedesktop/DBus", "/a_b/C9"}
	invalid := []ObjectPath{"", "a", "//", "/a/", "/a//b", "/a-b", "/é"}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("%q.Valid() = false, want true", p)
		}
	}
	for _, p := range invalid {
		if p.Valid() {
			t.Errorf("%q.Valid() = true, want false", p)
		}
	}

	tests := []struct {
		p, parent ObjectPath
		child     string
		withChild ObjectPath
	}{
		{"/", "/", "a", "/a"},
		{"/a", "/", "b", "/a/b"},
		{"/a/b/c", "/a/b", "d", "/a/b/c/d"},
	}
	for _, tc := range tests {
		if got := tc.p.Parent(); got != tc.parent {
			t.Errorf("%q.Parent() = %q, want %q", tc.p, got, tc.parent)
		}
		if got := tc.p.Child(tc.child); got != tc.withChild {
			t.Errorf("%q.Child(%q) = %q, want %q", tc.p, tc.child, got, tc.withChild)
		}
	}
}
