package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/danderson/dbuswire"
)

type indenter struct {
	prefix     string
	indentNext bool
}

func newIndenter() *indenter {
	return &indenter{indentNext: true}
}

func (i *indenter) indent() *indenter {
	return &indenter{
		prefix:     i.prefix + "  ",
		indentNext: true,
	}
}

func (i *indenter) f(msg string, args ...any) {
	fmt.Fprintf(i, msg+"\n", args...)
}

func (i *indenter) Write(bs []byte) (int, error) {
	ret := 0
	for len(bs) > 0 {
		if i.indentNext {
			i.indentNext = false
			_, err := io.WriteString(os.Stdout, i.prefix)
			if err != nil {
				return ret, err
			}
		}

		var wr []byte
		idx := bytes.IndexByte(bs, '\n')
		if idx >= 0 {
			i.indentNext = true
			wr, bs = bs[:idx+1], bs[idx+1:]
		} else {
			wr, bs = bs, nil
		}

		n, err := os.Stdout.Write(wr)
		ret += n
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

// printTree prints the values remaining in r's container, one per
// line, with container contents indented below their container.
func printTree(out *indenter, r *dbuswire.Reader) {
	for ; r.CurrentType() != dbuswire.TypeInvalid; r.Next() {
		t := r.CurrentType()
		if t.IsBasic() {
			out.f("@%d %s: %#v", r.Position(), t, r.ReadBasic())
			continue
		}
		switch t {
		case dbuswire.TypeArray:
			out.f("@%d %s %q (%d bytes)", r.Position(), t, r.Signature(), r.ArrayLength())
		case dbuswire.TypeVariant:
			out.f("@%d %s", r.Position(), t)
		default:
			out.f("@%d %s %q", r.Position(), t, r.Signature())
		}
		sub := r.Recurse()
		printTree(out.indent(), &sub)
	}
}

// readAny returns the value under r's cursor as a generic Go value.
func readAny(r *dbuswire.Reader) any {
	t := r.CurrentType()
	if t.IsBasic() {
		return r.ReadBasic()
	}
	switch t {
	case dbuswire.TypeArray:
		elem := r.ElementType()
		sub := r.Recurse()
		if elem.IsFixed() {
			return sub.ReadFixedBlock()
		}
		if elem == dbuswire.TypeDictEntry {
			ret := map[any]any{}
			for ; sub.CurrentType() != dbuswire.TypeInvalid; sub.Next() {
				entry := sub.Recurse()
				k := entry.ReadBasic()
				entry.Next()
				ret[k] = readAny(&entry)
			}
			return ret
		}
		var ret []any
		for ; sub.CurrentType() != dbuswire.TypeInvalid; sub.Next() {
			ret = append(ret, readAny(&sub))
		}
		return ret
	case dbuswire.TypeStruct:
		sub := r.Recurse()
		var ret []any
		for ; sub.CurrentType() != dbuswire.TypeInvalid; sub.Next() {
			ret = append(ret, readAny(&sub))
		}
		return ret
	case dbuswire.TypeVariant:
		sub := r.Recurse()
		return dbuswire.Variant{Value: readAny(&sub)}
	default:
		panic(fmt.Sprintf("unexpected type %s", t))
	}
}
