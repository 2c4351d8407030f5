package dbuswire

import (
	"testing"

	"github.com/danderson/dbuswire/fragments"
	"github.com/google/go-cmp/cmp"
)

func TestByteswap(t *testing.T) {
	tests := []struct {
		name string
		vs   []any
	}{
		{"basics", []any{
			byte(1), true, int16(-2), uint16(3), int32(-4), uint32(5),
			int64(-6), uint64(7), float64(8.5), UnixFD(9),
			"str", ObjectPath("/p"), Signature("a{sv}"),
		}},
		{"fixed arrays", []any{
			[]byte{1, 2, 3}, []uint16{1, 2}, []bool{true, false},
			[]int64{-1, 1}, []float64{},
		}},
		{"structs", []any{Nested{1, Simple{2, true}}, []Embedded{{Simple{3, false}, 4}}}},
		{"dicts", []any{map[string]uint32{"a": 1, "b": 2}, map[uint64][]string{7: {"x"}}}},
		{"variants", []any{
			Variant{int32(1)},
			Variant{Variant{[]Simple{{1, true}}}},
			map[string]Variant{"k": {map[int16]Variant{-1: {"deep"}}}},
		}},
		{"nested arrays", []any{[][]uint32{{1}, {}, {2, 3}}, [][]string{{"a", "b"}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig, le := body(t, fragments.LittleEndian, tc.vs...)
			_, be := body(t, fragments.BigEndian, tc.vs...)

			got := append([]byte(nil), le...)
			Byteswap(sig, fragments.LittleEndian, fragments.BigEndian, got, 0)
			if diff := cmp.Diff(got, be); diff != "" {
				t.Fatalf("little to big endian (-got+want):\n%s", diff)
			}
			Byteswap(sig, fragments.BigEndian, fragments.LittleEndian, got, 0)
			if diff := cmp.Diff(got, le); diff != "" {
				t.Errorf("big to little endian (-got+want):\n%s", diff)
			}
			Byteswap(sig, fragments.LittleEndian, fragments.LittleEndian, got, 0)
			if diff := cmp.Diff(got, le); diff != "" {
				t.Errorf("swap to same order changed data (-got+want):\n%s", diff)
			}
		})
	}
}

func TestByteswapOffset(t *testing.T) {
	// Values start after some other bytes, as a message body does
	// after its header.
	var sig, data Buffer
	data.Data = []byte{0xaa, 0xbb, 0xcc}
	w := NewWriter(fragments.BigEndian, &sig, 0, &data, 3)
	must(t, w.WriteValue(uint32(0x01020304)))
	must(t, w.WriteValue([]uint16{0x0506}))

	Byteswap(Signature(sig.Data), fragments.BigEndian, fragments.LittleEndian, data.Data, 3)
	want := []byte{
		0xaa, 0xbb, 0xcc,
		// pad
		0,
		0x04, 0x03, 0x02, 0x01,
		// array length
		2, 0, 0, 0,
		0x06, 0x05,
	}
	if diff := cmp.Diff(data.Data, want); diff != "" {
		t.Errorf("swapped data (-got+want):\n%s", diff)
	}
}
