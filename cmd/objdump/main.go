// Command objdump prints the contents of an AAOF object file: its header,
// resolved symbol table, and each word's address, raw encoding, and
// decoded instruction kind.
//
// Adapted from debug/objdump.go's pp.Println(obj) dump, generalized from
// reading a teacher assembler.ObjectFile off stdin to reading an AAOF
// File (by path or stdin) and additionally decoding each word through
// isa.Decode for a per-line disassembly.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"

	"aarch64vm/errs"
	"aarch64vm/isa"
	"aarch64vm/objfile"
)

func main() {
	var r io.Reader = os.Stdin
	var path string

	if len(os.Args) == 2 {
		path = os.Args[1]
		f, err := os.Open(path)
		if err != nil {
			printErr(&errs.IOError{Path: path, Err: err})
		}
		defer f.Close()
		r = f
	}

	obj, err := objfile.Read(r)
	if err != nil {
		printErr(&errs.IOError{Path: path, Err: err})
	}

	pp.Println(obj.Header)

	fmt.Println("symbols:")
	for _, sym := range obj.Symbols {
		fmt.Printf("  %-24s = 0x%08x\n", obj.SymbolName(sym.NameOffset), sym.Address)
	}

	fmt.Println("words:")
	for i, w := range obj.Words {
		addr := uint32(i) * isa.InstrSize
		inst, err := isa.Decode(w)
		if err != nil {
			fmt.Printf("  0x%08x: %08x  <%v>\n", addr, w, err)
			continue
		}
		fmt.Printf("  0x%08x: %08x  %s\n", addr, w, inst.Kind)
	}
}

func printErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
