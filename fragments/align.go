package fragments

// Align returns offset rounded up to the next multiple of align. align
// must be 1, 2, 4 or 8.
func Align(offset, align int) int {
	return (offset + align - 1) &^ (align - 1)
}

// PadLen returns the number of padding bytes needed after offset to
// reach a multiple of align.
func PadLen(offset, align int) int {
	return Align(offset, align) - offset
}

// IsZero reports whether every byte of bs is zero.
func IsZero(bs []byte) bool {
	for _, b := range bs {
		if b != 0 {
			return false
		}
	}
	return true
}
