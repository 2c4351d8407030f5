package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/dbuswire"
	"github.com/danderson/dbuswire/fragments"
	"github.com/kr/pretty"
)

var globalArgs struct {
	Order          string `flag:"order,default=l,Byte order of input data, l (little endian) or B (big endian)"`
	MaxArrayLength int    `flag:"max-array,Maximum array length in bytes (default 64MiB)"`
	Trusted        bool   `flag:"trusted,Skip validation of input data"`
}

var dumpArgs struct {
	Tree bool `flag:"tree,Print the value tree with types, instead of Go values"`
}

func main() {
	root := &command.C{
		Name:     "dbuswire",
		Usage:    "command args...",
		Help:     "Inspect DBus wire format signatures and values.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "sig",
				Usage: "sig signature...",
				Help:  "Validate type signatures, and list the complete types in each.",
				Run:   runSig,
			},
			{
				Name:  "check",
				Usage: "check signature hex-data",
				Help: `Validate hex-encoded values against a signature.

Whitespace in the hex data is ignored.`,
				Run: command.Adapt(runCheck),
			},
			{
				Name:     "dump",
				Usage:    "dump signature hex-data",
				Help:     "Validate and decode hex-encoded values.",
				SetFlags: command.Flags(flax.MustBind, &dumpArgs),
				Run:      command.Adapt(runDump),
			},
			{
				Name:  "swap",
				Usage: "swap signature hex-data",
				Help:  "Validate hex-encoded values, and print them in the other byte order.",
				Run:   command.Adapt(runSwap),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	env := root.NewEnv(nil)
	command.RunOrFail(env, os.Args[1:])
}

func runSig(env *command.Env) error {
	if len(env.Args) == 0 {
		return env.Usagef("no signatures given")
	}
	var errs []error
	for _, s := range env.Args {
		sig, err := dbuswire.ParseSignature(s)
		if err != nil {
			fmt.Printf("%q: %v\n", s, err)
			errs = append(errs, err)
			continue
		}
		fmt.Printf("%q: ok\n", s)
		for _, t := range sig.Types() {
			fmt.Printf("  %s (%s)\n", t, t.First())
		}
	}
	return errors.Join(errs...)
}

func runCheck(env *command.Env, sig, data string) error {
	_, _, _, err := loadBody(sig, data)
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runDump(env *command.Env, sig, data string) error {
	s, order, bs, err := loadBody(sig, data)
	if err != nil {
		return err
	}
	r := dbuswire.NewReader(order, s, bs, 0)
	if dumpArgs.Tree {
		printTree(newIndenter(), &r)
		return nil
	}
	var vals []any
	for ; r.CurrentType() != dbuswire.TypeInvalid; r.Next() {
		vals = append(vals, readAny(&r))
	}
	for _, v := range vals {
		fmt.Printf("%# v\n", pretty.Formatter(v))
	}
	return nil
}

func runSwap(env *command.Env, sig, data string) error {
	s, order, bs, err := loadBody(sig, data)
	if err != nil {
		return err
	}
	to := fragments.BigEndian
	if order == fragments.BigEndian {
		to = fragments.LittleEndian
	}
	dbuswire.Byteswap(s, order, to, bs, 0)
	fmt.Printf("order %c: %s\n", to.Flag(), hex.EncodeToString(bs))
	return nil
}

// loadBody parses and, unless --trusted is set, validates a signature
// and hex-encoded body.
func loadBody(sig, data string) (dbuswire.Signature, fragments.ByteOrder, []byte, error) {
	if len(globalArgs.Order) != 1 {
		return "", nil, nil, fmt.Errorf("invalid byte order %q", globalArgs.Order)
	}
	order, err := fragments.OrderForFlag(globalArgs.Order[0])
	if err != nil {
		return "", nil, nil, err
	}
	s, err := dbuswire.ParseSignature(sig)
	if err != nil {
		return "", nil, nil, err
	}
	bs, err := hex.DecodeString(strings.Join(strings.Fields(data), ""))
	if err != nil {
		return "", nil, nil, fmt.Errorf("decoding hex data: %w", err)
	}

	mode := dbuswire.Untrusted
	if globalArgs.Trusted {
		mode = dbuswire.Trusted
	}
	limits := dbuswire.Limits{MaxArrayLength: globalArgs.MaxArrayLength}
	if err := dbuswire.Check(mode, s, order, bs, 0, limits); err != nil {
		return "", nil, nil, err
	}
	return s, order, bs, nil
}
