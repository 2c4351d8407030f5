package dbuswire

import (
	"testing"

	"github.com/danderson/dbuswire/fragments"
)

// Simple is a struct with simple fields.
type Simple struct {
	A int16
	B bool
}

// Nested is a struct with a struct field.
type Nested struct {
	A byte
	B Simple
}

// Embedded is a struct that embeds another struct by value.
type Embedded struct {
	Simple
	C byte
}

// EmbeddedShadow is a struct that embeds another struct by value,
// with one of the embedded fields shadowed by an outer field.
type EmbeddedShadow struct {
	Simple
	B byte
}

// Arrays is a struct with various degrees of complicated arrays
// inside.
type Arrays struct {
	A []string
	B []Simple
	C [][]Nested
}

// Tree is a self-referential struct that can't be represented in the
// DBus wire format.
type Tree struct {
	Left  *Tree
	Right *Tree
}

// WithAny is a struct with an interface field, which encodes as a
// variant.
type WithAny struct {
	A uint16
	B any
}

// Skipped is a struct with fields that don't get encoded.
type Skipped struct {
	A       uint32
	B       uint32 `dbus:"-"`
	private uint32
	C       byte
}

func ptr[T any](v T) *T {
	return &v
}

func mustSignatureFor[T any]() Signature {
	sig, err := SignatureFor[T]()
	if err != nil {
		panic(err)
	}
	return sig
}

// body writes vs with a fresh Writer, and returns the resulting
// signature and data.
func body(t *testing.T, order fragments.ByteOrder, vs ...any) (Signature, []byte) {
	t.Helper()
	sig, data, err := Marshal(order, vs...)
	if err != nil {
		t.Fatalf("Marshal(%v) failed: %v", vs, err)
	}
	return sig, data
}
