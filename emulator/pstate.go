package emulator

import "aarch64vm/isa"

// PState holds the four condition flags arithmetic and logic instructions
// set when their "set flags" bit is on: Negative, Zero, Carry, oVerflow.
type PState struct {
	N, Z, C, V bool
}

// SetNZ sets N and Z from a signed result's sign and zero-ness. width is
// the operand width in bits (32 or 64): only that many low bits of result
// are significant.
func (p *PState) SetNZ(result uint64, width int) {
	if width == 32 {
		result &= 0xFFFFFFFF
		p.N = result&0x80000000 != 0
	} else {
		p.N = result&0x8000000000000000 != 0
	}
	p.Z = result == 0
}

// Satisfies reports whether the current flags satisfy branch condition c.
func (p *PState) Satisfies(c isa.Cond) bool {
	switch c {
	case isa.CondEQ:
		return p.Z
	case isa.CondNE:
		return !p.Z
	case isa.CondGE:
		return p.N == p.V
	case isa.CondLT:
		return p.N != p.V
	case isa.CondGT:
		return !p.Z && p.N == p.V
	case isa.CondLE:
		return p.Z || p.N != p.V
	case isa.CondAL:
		return true
	default:
		return false
	}
}
