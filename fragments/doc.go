// Package fragments provides the low-level byte order, alignment and
// scalar encoding helpers for the DBus wire format.
//
// The provided encoder and decoder are very low level, and do not
// know about type signatures or containers. They only know how to
// place single values at correctly aligned offsets. The dbuswire
// package builds its type-directed readers and writers on top of
// them.
package fragments
