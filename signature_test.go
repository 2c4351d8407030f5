package dbuswire

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSignatureOf(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{byte(0), "y"},
		{bool(false), "b"},
		{int16(0), "n"},
		{uint16(0), "q"},
		{int32(0), "i"},
		{uint32(0), "u"},
		{int64(0), "x"},
		{uint64(0), "t"},
		{float64(0), "d"},
		{string(""), "s"},
		{Signature(""), "g"},
		{ObjectPath(""), "o"},
		{UnixFD(0), "h"},
		{[]string{}, "as"},
		{[4]byte{}, "ay"},
		{[][]string{}, "aas"},
		{map[string]int64{}, "a{sx}"},
		{map[ObjectPath]map[string]Variant{}, "a{oa{sv}}"},
		{Simple{}, "(nb)"},
		{[]Simple{}, "a(nb)"},
		{Nested{}, "(y(nb))"},
		{[]Nested{}, "a(y(nb))"},
		{Embedded{}, "(nby)"},
		{EmbeddedShadow{}, "(ny)"},
		{Skipped{}, "(uy)"},
		{Arrays{}, "(asa(nb)aa(y(nb)))"},
		{ptr(any(int16(0))), "v"},
		{Variant{}, "v"},
		{ptr(ptr(uint16(0))), "q"},
		{WithAny{}, "(qv)"},

		{nil, ""},
		{struct{}{}, ""},
		{struct{ a int16 }{}, ""},
		{Tree{}, ""},
		{int(0), ""},
		{float32(0), ""},
		{map[Simple]bool{}, ""},
		{map[[2]int64]bool{}, ""},
		{map[any]bool{}, ""},
		{func() int { return 2 }, ""},
	}

	for _, tc := range tests {
		gotSig, err := SignatureOf(tc.in)
		gotErr := err != nil
		wantErr := tc.want == ""
		if gotErr != wantErr {
			wanted := "no error"
			if wantErr {
				wanted = "error"
			}
			t.Errorf("SignatureOf(%T) got err %v, want %s", tc.in, err, wanted)
		}
		if got := gotSig.String(); got != tc.want {
			t.Errorf("SignatureOf(%T).String() = %q, want %q", tc.in, got, tc.want)
		} else if testing.Verbose() {
			t.Logf("SignatureOf(%T).String() = %q, err=%v", tc.in, got, err)
		}
	}
}

func TestValidateSignature(t *testing.T) {
	nest := func(open, inner, close string, n int) string {
		return strings.Repeat(open, n) + inner + strings.Repeat(close, n)
	}
	tests := []struct {
		in   string
		want Validity
	}{
		{"", Valid},
		{"y", Valid},
		{"sss", Valid},
		{"a{sv}", Valid},
		{"aa{oa{sv}}", Valid},
		{"(ii)", Valid},
		{"a(ii)", Valid},
		{"(ia(sv))", Valid},
		{"a(ybnqiuxtdsogh)v", Valid},
		{nest("a", "i", "", 32), Valid},
		{nest("(", "i", ")", 32), Valid},
		{strings.Repeat("i", 255), Valid},

		{"z", UnknownTypeCode},
		{"r", UnknownTypeCode},
		{"e", UnknownTypeCode},
		{"i\x00", UnknownTypeCode},
		{"a", MissingArrayElementType},
		{"aa", MissingArrayElementType},
		{"(a)", MissingArrayElementType},
		{"a{sa}", MissingArrayElementType},
		{strings.Repeat("i", 256), SignatureTooLong},
		{nest("a", "i", "", 33), ExceededMaximumArrayRecursion},
		{nest("(", "i", ")", 33), ExceededMaximumStructRecursion},
		{")", StructEndedButNotStarted},
		{"i)", StructEndedButNotStarted},
		{"a{s(i})", DictEntryEndedButNotStarted},
		{"(", StructStartedButNotEnded},
		{"(i(s)", StructStartedButNotEnded},
		{"()", StructHasNoFields},
		{"}", DictEntryEndedButNotStarted},
		{"a{si", DictEntryStartedButNotEnded},
		{"a{}", DictEntryHasNoFields},
		{"a{s}", DictEntryHasOnlyOneField},
		{"a{sss}", DictEntryHasTooManyFields},
		{"{ss}", DictEntryNotInsideArray},
		{"{s}", DictEntryNotInsideArray},
		{"{si}", DictEntryNotInsideArray},
		{"(i{ss})", DictEntryNotInsideArray},
		{"a{vs}", DictKeyMustBeBasicType},
		{"a{(i)s}", DictKeyMustBeBasicType},
		{"a{ass}", DictKeyMustBeBasicType},
	}

	for _, tc := range tests {
		if got := ValidateSignature(tc.in); got != tc.want {
			t.Errorf("ValidateSignature(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got := ValidateSignature([]byte(tc.in)); got != tc.want {
			t.Errorf("ValidateSignature([]byte(%q)) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSignature(t *testing.T) {
	got, err := ParseSignature("a{sv}")
	if err != nil {
		t.Fatalf("ParseSignature(a{sv}): %v", err)
	}
	if got != "a{sv}" {
		t.Errorf("ParseSignature(a{sv}) = %q", got)
	}

	_, err = ParseSignature("a{vs}")
	var ve ValidityError
	if !errors.As(err, &ve) {
		t.Fatalf("ParseSignature(a{vs}) got err %v, want ValidityError", err)
	}
	if ve.Reason != DictKeyMustBeBasicType {
		t.Errorf("ParseSignature(a{vs}) reason = %v, want %v", ve.Reason, DictKeyMustBeBasicType)
	}
}

func TestSignatureTypes(t *testing.T) {
	tests := []struct {
		in    Signature
		types []Signature
		first Type
	}{
		{"", nil, TypeInvalid},
		{"i", []Signature{"i"}, TypeInt32},
		{"si", []Signature{"s", "i"}, TypeString},
		{"a{sv}as", []Signature{"a{sv}", "as"}, TypeArray},
		{"(i(ss))aai", []Signature{"(i(ss))", "aai"}, TypeStruct},
		{"vg", []Signature{"v", "g"}, TypeVariant},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.in.Types(), tc.types); diff != "" {
			t.Errorf("%q.Types() (-got+want):\n%s", tc.in, diff)
		}
		if got := tc.in.First(); got != tc.first {
			t.Errorf("%q.First() = %v, want %v", tc.in, got, tc.first)
		}
		if got, want := tc.in.SingleComplete(), len(tc.types) == 1; got != want {
			t.Errorf("%q.SingleComplete() = %v, want %v", tc.in, got, want)
		}
	}

	if Signature("a{").SingleComplete() {
		t.Error(`"a{".SingleComplete() = true, want false`)
	}
}
