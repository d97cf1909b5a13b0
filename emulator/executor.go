package emulator

import (
	"math/bits"

	"aarch64vm/errs"
	"aarch64vm/isa"
)

// applyShift applies one of LSL/LSR/ASR/ROR to value, truncated to width
// bits (32 or 64), by amount, itself taken modulo width.
func applyShift(st isa.ShiftType, value uint64, amount uint8, width int) uint64 {
	amount %= uint8(width)
	if width == 32 {
		v := uint32(value)
		switch st {
		case isa.LSL:
			return uint64(v << amount)
		case isa.LSR:
			return uint64(v >> amount)
		case isa.ASR:
			return uint64(uint32(int32(v) >> amount))
		case isa.ROR:
			return uint64(bits.RotateLeft32(v, -int(amount)))
		}
		return uint64(v)
	}
	switch st {
	case isa.LSL:
		return value << amount
	case isa.LSR:
		return value >> amount
	case isa.ASR:
		return uint64(int64(value) >> amount)
	case isa.ROR:
		return bits.RotateLeft64(value, -int(amount))
	}
	return value
}

// addWithFlags computes a+b+carryIn truncated to width bits and reports
// the carry-out and signed-overflow flags using the textbook definitions:
// carry is the unsigned carry out of the top bit, overflow is set when
// the operands share a sign but the result does not. This replaces the
// C source's dead overflow test (which compared an unsigned result
// against zero and could never be true).
func addWithFlags(a, b uint64, carryIn uint64, width int) (result uint64, carry, overflow bool) {
	if width == 32 {
		aw := a & 0xFFFFFFFF
		bw := b & 0xFFFFFFFF
		sum := aw + bw + carryIn
		result = sum & 0xFFFFFFFF
		carry = sum>>32 != 0
		signA := aw>>31&1 != 0
		signB := bw>>31&1 != 0
		signR := result>>31&1 != 0
		overflow = signA == signB && signR != signA
		return
	}
	sum, c := bits.Add64(a, b, carryIn)
	result = sum
	carry = c != 0
	signA := a>>63&1 != 0
	signB := b>>63&1 != 0
	signR := result>>63&1 != 0
	overflow = signA == signB && signR != signA
	return
}

// subWithFlags computes a-b via two's-complement addition: a + ^b + 1.
// This is the standard ARM convention where the carry flag reports "no
// borrow occurred" rather than the arithmetic carry out of a subtractor.
func subWithFlags(a, b uint64, width int) (result uint64, carry, overflow bool) {
	mask := uint64(0xFFFFFFFF)
	if width == 64 {
		mask = ^uint64(0)
	}
	return addWithFlags(a, (^b)&mask, 1, width)
}

func width(sf uint8) int {
	if sf == 1 {
		return 64
	}
	return 32
}

// Step executes exactly one instruction at the current PC. It returns
// halted=true without advancing PC if the fetched word is the HALT
// sentinel (bit-identical to "and x0, x0, x0", so it is recognized by raw
// bit pattern before decoding, not as a distinct opcode).
func (m *Machine) Step() (halted bool, err error) {
	addr := uint32(m.Regs.PC())
	word, err := m.Mem.LoadWord(addr)
	if err != nil {
		return false, err
	}
	if word == isa.HALT {
		return true, nil
	}
	inst, err := Decode(addr, word)
	if err != nil {
		return false, err
	}
	return false, m.execute(inst)
}

func (m *Machine) execute(inst isa.Instruction) error {
	pcSet := false
	switch inst.Kind {
	case isa.KindImmArith:
		m.execImmArith(inst)
	case isa.KindImmWide:
		m.execImmWide(inst)
	case isa.KindRegArith:
		m.execRegArith(inst)
	case isa.KindRegLogic:
		m.execRegLogic(inst)
	case isa.KindRegMultiply:
		m.execRegMultiply(inst)
	case isa.KindDTImmOffset:
		if err := m.execDTImmOffset(inst); err != nil {
			return err
		}
	case isa.KindDTRegOffset:
		if err := m.execDTRegOffset(inst); err != nil {
			return err
		}
	case isa.KindDTLoadLiteral:
		if err := m.execDTLoadLiteral(inst); err != nil {
			return err
		}
	case isa.KindDTPrePostIndex:
		if err := m.execDTPrePostIndex(inst); err != nil {
			return err
		}
	case isa.KindBranchUncond:
		m.Regs.SetPC(uint64(int64(m.Regs.PC()) + int64(inst.Simm26)*4))
		pcSet = true
	case isa.KindBranchCond:
		if m.PState.Satisfies(inst.BCond) {
			m.Regs.SetPC(uint64(int64(m.Regs.PC()) + int64(inst.Simm19)*4))
			pcSet = true
		}
	case isa.KindBranchReg:
		m.Regs.SetPC(m.Regs.X(inst.Xn))
		pcSet = true
	default:
		return &errs.DecodeError{Address: uint32(m.Regs.PC()), Err: errUnknownKind(inst.Kind)}
	}
	if !pcSet {
		m.Regs.AdvancePC()
	}
	return nil
}

func (m *Machine) execImmArith(inst isa.Instruction) {
	w := width(inst.SF)
	op2 := uint64(inst.Imm12)
	if inst.Sh == 1 {
		op2 <<= 12
	}
	m.doArith(inst.Rd, inst.Rn, op2, inst.OpcOp, inst.OpcFlag, w)
}

func (m *Machine) execRegArith(inst isa.Instruction) {
	w := width(inst.SF)
	op2 := applyShift(inst.Shift, m.Regs.X(inst.Rm), inst.Operand, w)
	m.doArith(inst.Rd, inst.Rn, op2, inst.OpcOp, inst.OpcFlag, w)
}

func (m *Machine) doArith(rd, rn uint8, op2 uint64, opcOp, opcFlag uint8, w int) {
	a := m.Regs.X(rn)
	var result uint64
	var carry, overflow bool
	if opcOp == 0 {
		result, carry, overflow = addWithFlags(a, op2, 0, w)
	} else {
		result, carry, overflow = subWithFlags(a, op2, w)
	}
	if w == 32 {
		m.Regs.SetW(rd, uint32(result))
	} else {
		m.Regs.SetX(rd, result)
	}
	if opcFlag == 1 {
		m.PState.SetNZ(result, w)
		m.PState.C = carry
		m.PState.V = overflow
	}
}

func (m *Machine) execImmWide(inst isa.Instruction) {
	w := width(inst.SF)
	shiftAmt := uint(inst.Hw) * 16
	imm := uint64(inst.Imm16) << shiftAmt
	switch inst.WideOpc {
	case isa.MOVZ:
		m.writeWidth(inst.Rd, imm, w)
	case isa.MOVN:
		m.writeWidth(inst.Rd, ^imm, w)
	case isa.MOVK:
		cur := m.Regs.X(inst.Rd)
		cleared := cur &^ (uint64(0xFFFF) << shiftAmt)
		m.writeWidth(inst.Rd, cleared|imm, w)
	}
}

func (m *Machine) writeWidth(rd uint8, v uint64, w int) {
	if w == 32 {
		m.Regs.SetW(rd, uint32(v))
	} else {
		m.Regs.SetX(rd, v)
	}
}

func (m *Machine) execRegLogic(inst isa.Instruction) {
	w := width(inst.SF)
	op2 := applyShift(inst.Shift, m.Regs.X(inst.Rm), inst.Operand, w)
	if inst.N == 1 {
		op2 = ^op2
	}
	a := m.Regs.X(inst.Rn)
	var result uint64
	switch inst.LogicOpc {
	case isa.OpAND, isa.OpANDS:
		result = a & op2
	case isa.OpORR:
		result = a | op2
	case isa.OpEOR:
		result = a ^ op2
	}
	m.writeWidth(inst.Rd, result, w)
	if inst.LogicOpc == isa.OpANDS {
		m.PState.SetNZ(result, w)
		m.PState.C = false
		m.PState.V = false
	}
}

func (m *Machine) execRegMultiply(inst isa.Instruction) {
	w := width(inst.SF)
	rn := m.Regs.X(inst.Rn)
	rm := m.Regs.X(inst.Rm)
	// Ra reads 0 through the zero register for an absent accumulator,
	// replacing the source's dead "ra == 32" check (ra is a 5-bit field
	// and can never reach 32; index 31 is what actually means "none").
	ra := m.Regs.X(inst.Ra)
	product := rn * rm
	var result uint64
	if inst.X == 1 {
		result = ra - product
	} else {
		result = ra + product
	}
	m.writeWidth(inst.Rd, result, w)
}

func (m *Machine) execDTImmOffset(inst isa.Instruction) error {
	addr := uint32(m.Regs.X(inst.Xn) + uint64(inst.Imm12)*uint64(accessSize(inst.SF)))
	return m.doTransfer(inst.Rt, addr, inst.L, inst.SF)
}

// accessSize is the byte size a DTImmOffset's imm12 field is scaled by: 8
// bytes in 64-bit mode, 4 in 32-bit mode.
func accessSize(sf uint8) uint32 {
	if sf == 1 {
		return 8
	}
	return 4
}

func (m *Machine) execDTRegOffset(inst isa.Instruction) error {
	addr := uint32(m.Regs.X(inst.Xn) + m.Regs.X(inst.Xm))
	return m.doTransfer(inst.Rt, addr, inst.L, inst.SF)
}

func (m *Machine) execDTLoadLiteral(inst isa.Instruction) error {
	addr := uint32(int64(m.Regs.PC()) + int64(inst.Simm19)*4)
	return m.doTransfer(inst.Rt, addr, 1, inst.SF)
}

func (m *Machine) execDTPrePostIndex(inst isa.Instruction) error {
	base := m.Regs.X(inst.Xn)
	effective := base
	if inst.I == 1 {
		effective = uint64(int64(base) + int64(inst.Simm9))
	}
	if err := m.doTransfer(inst.Rt, uint32(effective), inst.L, inst.SF); err != nil {
		return err
	}
	if inst.I == 1 {
		m.Regs.SetX(inst.Xn, effective)
	} else {
		m.Regs.SetX(inst.Xn, uint64(int64(base)+int64(inst.Simm9)))
	}
	return nil
}

func (m *Machine) doTransfer(rt uint8, addr uint32, load byte, sf uint8) error {
	if load == 1 {
		if sf == 1 {
			v, err := m.Mem.LoadDoubleWord(addr)
			if err != nil {
				return err
			}
			m.Regs.SetX(rt, v)
		} else {
			v, err := m.Mem.LoadWord(addr)
			if err != nil {
				return err
			}
			m.Regs.SetW(rt, v)
		}
		return nil
	}
	if sf == 1 {
		return m.Mem.StoreDoubleWord(addr, m.Regs.X(rt))
	}
	// A 32-bit store always uses StoreWord, correcting the source's
	// post-index store which wrote a full double word regardless of sf.
	return m.Mem.StoreWord(addr, m.Regs.W(rt))
}

type unknownKindError struct{ kind isa.Kind }

func (e unknownKindError) Error() string { return "unrecognized instruction kind " + e.kind.String() }

func errUnknownKind(k isa.Kind) error { return unknownKindError{k} }
