// Package debugger implements the non-UI core a breakpoint/step front-end
// drives: a Session composing one Assembler and one Machine, an
// address-to-source-line map, and breakpoint-aware stepping and running.
// No terminal rendering or key handling lives here; this package exposes
// exactly the contract a frontend needs and nothing about how one would
// be drawn.
//
// Grounded on original_source/src/extension/debugger.c and
// debug_logic.c's decode_debug(), which built the same address->line map
// this package's Assemble method derives from the Assembler's
// AddressLine, and on VirtualMachine/main.go's SourceFile/editor
// composition of an assembler over buffered source text (the part of
// that file this package keeps; the gioui rendering around it does not
// belong here).
package debugger

import (
	"os"

	"aarch64vm/emulator"
	"aarch64vm/encoder"
	"aarch64vm/errs"
	"aarch64vm/isa"
)

// Session composes an assembler and a machine around one program: assemble
// once, then step or run it with optional breakpoints.
type Session struct {
	Assembler *encoder.Assembler
	Machine   *emulator.Machine

	Breakpoints map[uint32]bool
}

// NewSession returns an empty session ready to Assemble a program into.
func NewSession() *Session {
	return &Session{
		Assembler:   encoder.NewAssembler(),
		Machine:     emulator.NewMachine(),
		Breakpoints: make(map[uint32]bool),
	}
}

// Assemble reads path, assembles it, and loads the result into the
// session's machine at address 0 with PC reset to 0. The Assembler's
// AddressLine map becomes available via SourceLineForPC afterward.
func (s *Session) Assemble(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &errs.IOError{Path: path, Err: err}
	}
	words, err := s.Assembler.Assemble(string(src))
	if err != nil {
		return err
	}
	prog := make([]byte, len(words)*isa.InstrSize)
	for i, w := range words {
		prog[i*4+0] = byte(w)
		prog[i*4+1] = byte(w >> 8)
		prog[i*4+2] = byte(w >> 16)
		prog[i*4+3] = byte(w >> 24)
	}
	return s.Machine.LoadProgram(prog)
}

// AddBreakpoint arms a breakpoint at address.
func (s *Session) AddBreakpoint(address uint32) { s.Breakpoints[address] = true }

// RemoveBreakpoint disarms a breakpoint at address.
func (s *Session) RemoveBreakpoint(address uint32) { delete(s.Breakpoints, address) }

// HasBreakpoint reports whether a breakpoint is armed at address.
func (s *Session) HasBreakpoint(address uint32) bool { return s.Breakpoints[address] }

// StepInstruction performs exactly one fetch/decode/execute cycle and
// reports whether the HALT sentinel was observed.
func (s *Session) StepInstruction() (halted bool, err error) {
	return s.Machine.Step()
}

// Run steps the machine until it halts or PC lands on an armed
// breakpoint. Landing on a breakpoint does not execute it: a subsequent
// StepInstruction or Run call executes past it.
func (s *Session) Run() error {
	first := true
	for {
		pc := uint32(s.Machine.Regs.PC())
		if !first && s.HasBreakpoint(pc) {
			return nil
		}
		first = false
		halted, err := s.Machine.Step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// SourceLineForPC returns the 1-based source line the instruction at the
// current PC was assembled from, if known.
func (s *Session) SourceLineForPC() (line int, ok bool) {
	line, ok = s.Assembler.AddressLine[uint32(s.Machine.Regs.PC())]
	return
}
