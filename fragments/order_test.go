package fragments_test

import (
	"bytes"
	"testing"

	"github.com/danderson/dbuswire/fragments"
)

func TestByteOrderFlag(t *testing.T) {
	for _, ord := range []fragments.ByteOrder{fragments.BigEndian, fragments.LittleEndian} {
		got, err := fragments.OrderForFlag(ord.Flag())
		if err != nil {
			t.Fatalf("OrderForFlag(%q) got err: %v", ord.Flag(), err)
		}
		if got != ord {
			t.Errorf("OrderForFlag(%q) = %s, want %s", ord.Flag(), got, ord)
		}
	}
	if _, err := fragments.OrderForFlag('?'); err == nil {
		t.Errorf("OrderForFlag did not error on invalid byte order")
	}
	if n := fragments.NativeEndian; n != fragments.BigEndian && n != fragments.LittleEndian {
		t.Errorf("NativeEndian = %v, want one of BigEndian or LittleEndian", n)
	}
}

func TestSwapBlock(t *testing.T) {
	tests := []struct {
		size int
		in   []byte
		want []byte
	}{
		{1, []byte{1, 2, 3}, []byte{1, 2, 3}},
		{2, []byte{1, 2, 3, 4}, []byte{2, 1, 4, 3}},
		{4, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{4, 3, 2, 1, 8, 7, 6, 5}},
		{8, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
	}
	for _, tc := range tests {
		got := bytes.Clone(tc.in)
		fragments.SwapBlock(got, tc.size)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("SwapBlock(% x, %d) = % x, want % x", tc.in, tc.size, got, tc.want)
		}
	}
}

func TestAlign(t *testing.T) {
	tests := []struct {
		off, align, want int
	}{
		{0, 8, 0},
		{1, 8, 8},
		{7, 4, 8},
		{9, 2, 10},
		{13, 1, 13},
	}
	for _, tc := range tests {
		if got := fragments.Align(tc.off, tc.align); got != tc.want {
			t.Errorf("Align(%d, %d) = %d, want %d", tc.off, tc.align, got, tc.want)
		}
	}
}
