package emulator

import "aarch64vm/isa"

// RegisterFile holds the 31 general-purpose registers plus the program
// counter. Index isa.ZR (31) is the synthetic zero register: it always
// reads as 0 and silently discards writes. SP is tracked separately and,
// per the documented subset, is never a valid execution target — nothing
// in this toolchain writes it, so it exists only as a reserved value.
type RegisterFile struct {
	x  [isa.NumGeneralRegisters]uint64
	pc uint64
	sp uint64
}

// NewRegisterFile returns a register file with every register, including
// PC and SP, initialized to 0.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{}
}

// X reads register n as a full 64-bit value. Reading the zero register
// always yields 0.
func (r *RegisterFile) X(n uint8) uint64 {
	if n == isa.ZR {
		return 0
	}
	return r.x[n]
}

// W reads register n as a 32-bit value (the low 32 bits of its 64-bit
// storage).
func (r *RegisterFile) W(n uint8) uint32 {
	return uint32(r.X(n))
}

// SetX writes a full 64-bit value to register n. Writing the zero
// register is a no-op.
func (r *RegisterFile) SetX(n uint8, v uint64) {
	if n == isa.ZR {
		return
	}
	r.x[n] = v
}

// SetW writes a 32-bit value to register n, clearing the upper 32 bits of
// its 64-bit storage (matching the union-of-w-and-x aliasing of the
// original register representation).
func (r *RegisterFile) SetW(n uint8, v uint32) {
	if n == isa.ZR {
		return
	}
	r.x[n] = uint64(v)
}

// PC returns the program counter.
func (r *RegisterFile) PC() uint64 { return r.pc }

// SetPC sets the program counter.
func (r *RegisterFile) SetPC(v uint64) { r.pc = v }

// AdvancePC moves the program counter forward by one instruction word.
func (r *RegisterFile) AdvancePC() { r.pc += uint64(isa.InstrSize) }

// SP returns the stack pointer. It is exposed read-only: the documented
// subset never executes instructions that write it.
func (r *RegisterFile) SP() uint64 { return r.sp }
