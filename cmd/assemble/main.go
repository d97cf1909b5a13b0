// Command assemble implements the "assemble <input.s> <output.bin>" CLI:
// two-pass assembly of the documented AArch64 subset into a raw
// little-endian word stream, or, with -obj, an AAOF object file carrying
// the same words plus the resolved symbol table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"

	"aarch64vm/encoder"
	"aarch64vm/errs"
	"aarch64vm/objfile"
)

func main() {
	verbose := flag.Bool("v", false, "print verbose diagnostic dumps to stderr")
	asObj := flag.Bool("obj", false, "emit an AAOF object file instead of a raw word stream")
	flag.Parse()

	if flag.NArg() != 2 {
		printUsageErr(&errs.UsageError{Usage: "assemble <input.s> <output.bin>"})
	}

	if err := run(flag.Arg(0), flag.Arg(1), *verbose, *asObj); err != nil {
		printUsageErr(err)
	}
}

func run(inPath, outPath string, verbose, asObj bool) error {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return &errs.IOError{Path: inPath, Err: err}
	}

	asm := encoder.NewAssembler()
	words, err := asm.Assemble(string(src))
	if err != nil {
		return err
	}

	if verbose {
		pp.Fprintf(os.Stderr, "resolved symbols: %v\n", asm.Symbols.Defined())
		pp.Fprintf(os.Stderr, "words: %v\n", words)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return &errs.IOError{Path: outPath, Err: err}
	}
	defer out.Close()

	if asObj {
		obj := objfile.New(words, asm.Symbols.Defined())
		if err := obj.Write(out); err != nil {
			return &errs.IOError{Path: outPath, Err: err}
		}
		return nil
	}

	for _, w := range words {
		b := []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
		if _, err := out.Write(b); err != nil {
			return &errs.IOError{Path: outPath, Err: err}
		}
	}
	return nil
}

func printUsageErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
