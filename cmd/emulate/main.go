// Command emulate implements the "emulate <input.bin> [output.txt]" CLI:
// loads a raw little-endian word stream, runs it on the synchronous
// fetch/decode/execute core to halt, and dumps final register and memory
// state in the bit-exact format the specification requires.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"

	"aarch64vm/emulator"
	"aarch64vm/errs"
	"aarch64vm/isa"
)

func main() {
	verbose := flag.Bool("v", false, "print verbose diagnostic dumps to stderr")
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		fmt.Fprintln(os.Stderr, &errs.UsageError{Usage: "emulate <input.bin> [output.txt]"})
		os.Exit(1)
	}

	var outPath string
	if flag.NArg() == 2 {
		outPath = flag.Arg(1)
	}

	if err := run(flag.Arg(0), outPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, verbose bool) error {
	prog, err := os.ReadFile(inPath)
	if err != nil {
		return &errs.IOError{Path: inPath, Err: err}
	}

	m := emulator.NewMachine()
	if err := m.LoadProgram(prog); err != nil {
		return err
	}

	if verbose {
		pp.Fprintf(os.Stderr, "loaded %d bytes at address 0\n", len(prog))
	}

	if err := m.Run(); err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return &errs.IOError{Path: outPath, Err: err}
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	dumpRegisters(w, m)
	dumpMemory(w, m)
	return w.Flush()
}

func dumpRegisters(w io.Writer, m *emulator.Machine) {
	fmt.Fprintln(w, "Registers:")
	for i := uint8(0); i < isa.NumGeneralRegisters; i++ {
		fmt.Fprintf(w, "X%02d    = %016x\n", i, m.Regs.X(i))
	}
	fmt.Fprintf(w, "PC     = %016x\n", m.Regs.PC())
	fmt.Fprintf(w, "PSTATE : %s\n", pstateString(m.PState))
}

// pstateString renders the four condition flags in fixed N,Z,C,V order,
// each printed as its letter when set or "-" otherwise.
func pstateString(p *emulator.PState) string {
	letter := func(set bool, c byte) byte {
		if set {
			return c
		}
		return '-'
	}
	return string([]byte{
		letter(p.N, 'N'),
		letter(p.Z, 'Z'),
		letter(p.C, 'C'),
		letter(p.V, 'V'),
	})
}

func dumpMemory(w io.Writer, m *emulator.Machine) {
	fmt.Fprintln(w, "Non-Zero Memory:")
	for _, word := range m.Mem.Dump() {
		fmt.Fprintf(w, "0x%08x: %08x\n", word.Address, word.Value)
	}
}
