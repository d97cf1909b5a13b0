// Package isa declares the bit-level shape of the supported AArch64
// instruction subset: the tagged instruction variants, their field layout,
// and the group-dispatch patterns the decoder and encoder both consult.
//
// Grounded on original_source/src/instructions.h (the packed bit-field
// structs/union this module replaces with explicit masks and shifts) and
// on the flat instruction-table style of datatypes/datatypes.go and
// shared/instruction.go in the teacher repo.
package isa

import "fmt"

// Word is a single machine instruction: a little-endian 32-bit value both
// on disk and in memory.
type Word = uint32

// HALT is bit-identical to "and x0, x0, x0" and terminates execution when
// fetched.
const HALT Word = 0x8A000000

// InstrSize is the size in bytes of one emitted instruction word.
const InstrSize = 4

// ZR is the synthetic zero-register index: reads as 0, writes discarded.
const ZR = 31

// NumGeneralRegisters is the count of real general-purpose registers
// (indices 0..30); index 31 is the zero register.
const NumGeneralRegisters = 31

// Kind tags which instruction variant a decoded Instruction carries.
type Kind uint8

const (
	KindImmArith Kind = iota
	KindImmWide
	KindRegArith
	KindRegLogic
	KindRegMultiply
	KindDTImmOffset
	KindDTRegOffset
	KindDTLoadLiteral
	KindDTPrePostIndex
	KindBranchUncond
	KindBranchCond
	KindBranchReg
)

func (k Kind) String() string {
	switch k {
	case KindImmArith:
		return "ImmArith"
	case KindImmWide:
		return "ImmWide"
	case KindRegArith:
		return "RegArith"
	case KindRegLogic:
		return "RegLogic"
	case KindRegMultiply:
		return "RegMultiply"
	case KindDTImmOffset:
		return "DTImmOffset"
	case KindDTRegOffset:
		return "DTRegOffset"
	case KindDTLoadLiteral:
		return "DTLoadLiteral"
	case KindDTPrePostIndex:
		return "DTPrePostIndex"
	case KindBranchUncond:
		return "BranchUncond"
	case KindBranchCond:
		return "BranchCond"
	case KindBranchReg:
		return "BranchReg"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ShiftType selects the shift applied to a register operand.
type ShiftType uint8

const (
	LSL ShiftType = iota
	LSR
	ASR
	ROR
)

// LogicOp selects the bitwise operation a RegLogic instruction performs.
type LogicOp uint8

const (
	OpAND LogicOp = iota
	OpORR
	OpEOR
	OpANDS
)

// WideOp selects the operation of an ImmWide (movn/movz/movk) instruction.
// Values match the encoded opc field directly.
type WideOp uint8

const (
	MOVN WideOp = 0
	MOVZ WideOp = 2
	MOVK WideOp = 3
)

// Cond is a branch condition. Values match the encoded cond field.
type Cond uint8

const (
	CondEQ Cond = 0
	CondNE Cond = 1
	CondGE Cond = 10
	CondLT Cond = 11
	CondGT Cond = 12
	CondLE Cond = 13
	CondAL Cond = 14
)

var condNames = map[Cond]string{
	CondEQ: "eq", CondNE: "ne", CondGE: "ge",
	CondLT: "lt", CondGT: "gt", CondLE: "le", CondAL: "al",
}

// CondFromSuffix maps a b.<cond> suffix to its Cond value.
func CondFromSuffix(s string) (Cond, bool) {
	for c, name := range condNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

func (c Cond) String() string {
	if name, ok := condNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cond(%d)", uint8(c))
}

// Instruction is a decoded instruction: a tagged union over the variants
// named in the specification, represented as one flat struct carrying only
// the fields its Kind uses. Unused fields are left zero.
type Instruction struct {
	Kind Kind

	SF uint8 // operand-size flag: 0 = 32-bit, 1 = 64-bit

	// ImmArith / RegArith
	OpcFlag uint8 // S: set condition flags
	OpcOp   uint8 // 0 = add, 1 = sub

	// ImmArith
	Imm12 uint16
	Sh    uint8 // lsl #12 present

	// ImmWide
	WideOpc WideOp
	Imm16   uint16
	Hw      uint8 // shift amount / 16, range 0..3

	// RegArith / RegLogic
	Shift   ShiftType
	Operand uint8 // shift amount, 0..63

	// RegLogic
	LogicOpc LogicOp
	N        uint8 // invert operand2

	// RegMultiply
	X uint8 // 0 = madd, 1 = msub

	// Register operands, by role. Not all are used by every Kind.
	Rd, Rn, Rm, Ra, Rt, Xn, Xm uint8

	// Data transfer
	L byte // 1 = load, 0 = store

	// DTPrePostIndex
	I     uint8 // 1 = pre-index, 0 = post-index
	Simm9 int32

	// DTLoadLiteral / BranchCond
	Simm19 int32

	// BranchUncond
	Simm26 int32

	// BranchCond
	BCond Cond
}
