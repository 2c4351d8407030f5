package dbuswire

import (
	"fmt"
	"reflect"
)

// TypeError is returned by [Marshal], [Unmarshal] and [SignatureOf]
// when a Go type has no mapping to a DBus signature, or a Go value
// cannot be used as the source or destination of a DBus value.
type TypeError struct {
	// Type is the offending Go type. It is nil for an untyped nil
	// value.
	Type reflect.Type
	// Reason says what about Type prevented the mapping.
	Reason error
}

func (e TypeError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("no DBus mapping for nil: %s", e.Reason)
	}
	return fmt.Sprintf("no DBus mapping for Go type %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	return TypeError{t, fmt.Errorf(reason, args...)}
}
