package dbuswire_test

import (
	"fmt"

	"github.com/danderson/dbuswire"
	"github.com/danderson/dbuswire/fragments"
)

func ExampleMarshal() {
	sig, data, err := dbuswire.Marshal(fragments.LittleEndian, "ping", int32(42))
	if err != nil {
		panic(err)
	}
	fmt.Printf("%q %x\n", sig, data)
	// Output: "si" 0400000070696e67000000002a000000
}

func ExampleUnmarshal() {
	data := []byte{
		4, 0, 0, 0, 'p', 'i', 'n', 'g', 0,
		0, 0, 0,
		42, 0, 0, 0,
	}
	var (
		s string
		i int32
	)
	if err := dbuswire.Unmarshal("si", fragments.LittleEndian, data, &s, &i); err != nil {
		panic(err)
	}
	fmt.Println(s, i)
	// Output: ping 42
}

func ExampleReader() {
	sig, data, err := dbuswire.Marshal(fragments.LittleEndian, map[string]dbuswire.Variant{
		"a": {Value: int32(1)},
		"b": {Value: "two"},
	})
	if err != nil {
		panic(err)
	}

	r := dbuswire.NewReader(fragments.LittleEndian, sig, data, 0)
	dict := r.Recurse()
	for ; dict.CurrentType() != dbuswire.TypeInvalid; dict.Next() {
		entry := dict.Recurse()
		key := entry.ReadBasic()
		entry.Next()
		v := entry.Recurse()
		fmt.Println(key, v.Signature(), v.ReadBasic())
	}
	// Output:
	// a i 1
	// b s two
}

func ExampleSetBasic() {
	sig, data, err := dbuswire.Marshal(fragments.LittleEndian, "hi", int32(7))
	if err != nil {
		panic(err)
	}
	buf := dbuswire.Buffer{Data: data}

	root := dbuswire.NewReader(fragments.LittleEndian, sig, buf.Data, 0)
	target := root
	if err := dbuswire.SetBasic(&buf, &target, "hello world", &root); err != nil {
		panic(err)
	}

	var (
		s string
		i int32
	)
	if err := dbuswire.Unmarshal(sig, fragments.LittleEndian, buf.Data, &s, &i); err != nil {
		panic(err)
	}
	fmt.Println(s, i, len(buf.Data))
	// Output: hello world 7 20
}
