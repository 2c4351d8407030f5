package dbuswire

// A Variant holds a value of any DBus type.
//
// When unmarshaled, Value holds the natural Go type for the variant's
// content: the Go type of each basic type as documented on
// [Reader.ReadBasic], []T for arrays, map[K]V for dictionaries,
// Variant for variants, and a struct with fields Field0, Field1, ...
// for structs.
type Variant struct {
	Value any
}
