package isa

import "fmt"

// field describes one bit-field of an encoded word: its width and its
// offset from bit 0. Field positions below are transcribed directly from
// the packed bit-field struct declarations in instructions.h, where the
// first-declared member occupies the low bits and each subsequent member
// is packed immediately above it.
type field struct {
	shift uint
	width uint
}

func (f field) mask() uint32 {
	return (uint32(1)<<f.width - 1) << f.shift
}

func (f field) get(w Word) uint32 {
	return (w & f.mask()) >> f.shift
}

func (f field) put(w Word, v uint32) Word {
	return (w &^ f.mask()) | ((v << f.shift) & f.mask())
}

// signExtend sign-extends the low `bits` bits of v to an int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func truncate(v int32, bits uint) uint32 {
	return uint32(v) & (1<<bits - 1)
}

// Class-selector fields, shared across every variant in their group.
var (
	fDpImmOp0  = field{26, 3} // == groupDpImm on data-processing-immediate words
	fDpRegOp0  = field{25, 3} // == groupDpReg on data-processing-register words
	fDtOp0_1   = field{27, 1}
	fDtOp0_2   = field{25, 1}
	fBranchOp0 = field{26, 3} // == groupBranch on branch words
)

const (
	groupDpImm  = 4
	groupDpReg  = 5
	groupBranch = 5
)

// ImmArith / ImmWide share layout for rd, opi, op0, sf.
var (
	fImmArithRd      = field{0, 5}
	fImmArithRn      = field{5, 5}
	fImmArithImm12   = field{10, 12}
	fImmArithSh      = field{22, 1}
	fImmArithOpi     = field{23, 3}
	fImmArithOpcFlag = field{29, 1}
	fImmArithOpcOp   = field{30, 1}
	fImmArithSf      = field{31, 1}

	fImmWideRd    = field{0, 5}
	fImmWideImm16 = field{5, 16}
	fImmWideHw    = field{21, 2}
	fImmWideOpi   = field{23, 3}
	fImmWideOpc   = field{29, 2}
	fImmWideSf    = field{31, 1}
)

const (
	itpImmArith = 2 // opi value selecting ImmArith within the DP-immediate class
	itpWideMove = 5 // opi value selecting ImmWide within the DP-immediate class
)

// RegArith / RegLogic / RegMultiply share rd, rn, op0, M, sf, and the first
// two additionally share operand/rm/N/shift/id/opc_flag/opc_op, while
// RegMultiply replaces operand/N/shift/opc with ra/x/opr/opc.
var (
	fRegRd      = field{0, 5}
	fRegRn      = field{5, 5}
	fRegOperand = field{10, 6}
	fRegRm      = field{16, 5}
	fRegN       = field{21, 1}
	fRegShift   = field{22, 2}
	fRegID      = field{24, 1}
	fRegM       = field{28, 1}

	fRegArithOpcFlag = field{29, 1}
	fRegArithOpcOp   = field{30, 1}
	fRegArithSf      = field{31, 1}

	fRegLogicOpc = field{29, 2}
	fRegLogicSf  = field{31, 1}

	fMulRa  = field{10, 5}
	fMulX   = field{15, 1}
	fMulRm  = field{16, 5}
	fMulOpr = field{21, 3}
	fMulOpc = field{29, 2}
	fMulSf  = field{31, 1}
)

const (
	itpRegMultiply = 1 // M value selecting RegMultiply within the DP-register class
	itpRegArith    = 1 // id value selecting RegArith once M has ruled out Multiply
	itpRegLogic    = 0 // id value selecting RegLogic once M has ruled out Multiply
)

// Data-transfer variants share rt, xn, L, U, sf, id at identical or
// structurally-equivalent offsets.
var (
	fDtRt = field{0, 5}
	fDtXn = field{5, 5}
	fDtSf = field{30, 1}
	fDtID = field{31, 1}

	fImmOffImm12 = field{10, 12}
	fImmOffL     = field{22, 1}
	fImmOffU     = field{24, 1}

	fRegOffXm  = field{16, 5}
	fRegOffID2 = field{21, 1}
	fRegOffL   = field{22, 1}
	fRegOffU   = field{24, 1}

	fLitSimm19 = field{5, 19}

	fPPIBit   = field{11, 1} // "I": pre (1) vs post (0) index
	fPPISimm9 = field{12, 9}
	fPPIL     = field{22, 1}
	fPPIU     = field{24, 1}
)

const (
	itpDTLoadLiteral = 0 // id value selecting DTLoadLiteral
	itpDTImmOffset   = 1 // U value selecting DTImmOffset once id rules out LoadLiteral
	itpDTRegisterOff = 1 // id2 value selecting DTRegOffset once U rules out ImmOffset
	itpDTPreIndex    = 1 // I value selecting pre-index within DTPrePostIndex
	itpDTPostIndex   = 0 // I value selecting post-index within DTPrePostIndex
)

// Branch variants share op0 and id at identical offsets.
var (
	fBranchID     = field{30, 2}
	fUncondSimm26 = field{0, 26}
	fCondCond     = field{0, 4}
	fCondSimm19   = field{5, 19}
	fRegXn        = field{5, 5}
)

const (
	itpBranchUncond = 0
	itpBranchCond   = 1
	itpBranchReg    = 3
)

// Decode reads the bit layout of w and returns the tagged Instruction it
// represents, following the same class-then-variant cascade as the
// original decode_and_execute dispatch: data-processing-immediate,
// data-processing-register, data-transfer, and branch, each narrowed by
// its own selector bits.
func Decode(w Word) (Instruction, error) {
	switch {
	case fDpImmOp0.get(w) == groupDpImm:
		return decodeDpImm(w)
	case fDpRegOp0.get(w) == groupDpReg:
		return decodeDpReg(w)
	case fDtOp0_1.get(w) == 1 && fDtOp0_2.get(w) == 0:
		return decodeDataTransfer(w)
	case fBranchOp0.get(w) == groupBranch:
		return decodeBranch(w)
	default:
		return Instruction{}, fmt.Errorf("isa: word %#08x matches no known instruction class", w)
	}
}

func decodeDpImm(w Word) (Instruction, error) {
	switch fImmArithOpi.get(w) {
	case itpImmArith:
		return Instruction{
			Kind:    KindImmArith,
			SF:      uint8(fImmArithSf.get(w)),
			OpcFlag: uint8(fImmArithOpcFlag.get(w)),
			OpcOp:   uint8(fImmArithOpcOp.get(w)),
			Rd:      uint8(fImmArithRd.get(w)),
			Rn:      uint8(fImmArithRn.get(w)),
			Imm12:   uint16(fImmArithImm12.get(w)),
			Sh:      uint8(fImmArithSh.get(w)),
		}, nil
	case itpWideMove:
		return Instruction{
			Kind:    KindImmWide,
			SF:      uint8(fImmWideSf.get(w)),
			WideOpc: WideOp(fImmWideOpc.get(w)),
			Rd:      uint8(fImmWideRd.get(w)),
			Imm16:   uint16(fImmWideImm16.get(w)),
			Hw:      uint8(fImmWideHw.get(w)),
		}, nil
	default:
		return Instruction{}, fmt.Errorf("isa: word %#08x has unrecognized opi %d in DP-immediate class", w, fImmArithOpi.get(w))
	}
}

func decodeDpReg(w Word) (Instruction, error) {
	if fRegM.get(w) == itpRegMultiply {
		return Instruction{
			Kind: KindRegMultiply,
			SF:   uint8(fMulSf.get(w)),
			X:    uint8(fMulX.get(w)),
			Rd:   uint8(fRegRd.get(w)),
			Rn:   uint8(fRegRn.get(w)),
			Ra:   uint8(fMulRa.get(w)),
			Rm:   uint8(fMulRm.get(w)),
		}, nil
	}
	if fRegID.get(w) == itpRegArith {
		return Instruction{
			Kind:    KindRegArith,
			SF:      uint8(fRegArithSf.get(w)),
			OpcFlag: uint8(fRegArithOpcFlag.get(w)),
			OpcOp:   uint8(fRegArithOpcOp.get(w)),
			Rd:      uint8(fRegRd.get(w)),
			Rn:      uint8(fRegRn.get(w)),
			Rm:      uint8(fRegRm.get(w)),
			N:       uint8(fRegN.get(w)),
			Shift:   ShiftType(fRegShift.get(w)),
			Operand: uint8(fRegOperand.get(w)),
		}, nil
	}
	return Instruction{
		Kind:     KindRegLogic,
		SF:       uint8(fRegLogicSf.get(w)),
		LogicOpc: LogicOp(fRegLogicOpc.get(w)),
		Rd:       uint8(fRegRd.get(w)),
		Rn:       uint8(fRegRn.get(w)),
		Rm:       uint8(fRegRm.get(w)),
		N:        uint8(fRegN.get(w)),
		Shift:    ShiftType(fRegShift.get(w)),
		Operand:  uint8(fRegOperand.get(w)),
	}, nil
}

func decodeDataTransfer(w Word) (Instruction, error) {
	if fDtID.get(w) == itpDTLoadLiteral {
		return Instruction{
			Kind:   KindDTLoadLiteral,
			SF:     uint8(fDtSf.get(w)),
			Rt:     uint8(fDtRt.get(w)),
			Simm19: signExtend(fLitSimm19.get(w), 19),
		}, nil
	}
	if fImmOffU.get(w) == itpDTImmOffset {
		return Instruction{
			Kind:  KindDTImmOffset,
			SF:    uint8(fDtSf.get(w)),
			L:     byte(fImmOffL.get(w)),
			Rt:    uint8(fDtRt.get(w)),
			Xn:    uint8(fDtXn.get(w)),
			Imm12: uint16(fImmOffImm12.get(w)),
		}, nil
	}
	if fRegOffID2.get(w) == itpDTRegisterOff {
		return Instruction{
			Kind: KindDTRegOffset,
			SF:   uint8(fDtSf.get(w)),
			L:    byte(fRegOffL.get(w)),
			Rt:   uint8(fDtRt.get(w)),
			Xn:   uint8(fDtXn.get(w)),
			Xm:   uint8(fRegOffXm.get(w)),
		}, nil
	}
	return Instruction{
		Kind:  KindDTPrePostIndex,
		SF:    uint8(fDtSf.get(w)),
		L:     byte(fPPIL.get(w)),
		I:     uint8(fPPIBit.get(w)),
		Rt:    uint8(fDtRt.get(w)),
		Xn:    uint8(fDtXn.get(w)),
		Simm9: signExtend(fPPISimm9.get(w), 9),
	}, nil
}

func decodeBranch(w Word) (Instruction, error) {
	switch fBranchID.get(w) {
	case itpBranchUncond:
		return Instruction{
			Kind:   KindBranchUncond,
			Simm26: signExtend(fUncondSimm26.get(w), 26),
		}, nil
	case itpBranchCond:
		return Instruction{
			Kind:   KindBranchCond,
			BCond:  Cond(fCondCond.get(w)),
			Simm19: signExtend(fCondSimm19.get(w), 19),
		}, nil
	case itpBranchReg:
		return Instruction{
			Kind: KindBranchReg,
			Xn:   uint8(fRegXn.get(w)),
		}, nil
	default:
		return Instruction{}, fmt.Errorf("isa: word %#08x has unrecognized id %d in branch class", w, fBranchID.get(w))
	}
}

// Encode is the inverse of Decode: it packs an Instruction's fields back
// into a single word according to the same layout.
func Encode(inst Instruction) (Word, error) {
	var w Word
	switch inst.Kind {
	case KindImmArith:
		w = fDpImmOp0.put(w, groupDpImm)
		w = fImmArithOpi.put(w, itpImmArith)
		w = fImmArithSf.put(w, uint32(inst.SF))
		w = fImmArithOpcFlag.put(w, uint32(inst.OpcFlag))
		w = fImmArithOpcOp.put(w, uint32(inst.OpcOp))
		w = fImmArithRd.put(w, uint32(inst.Rd))
		w = fImmArithRn.put(w, uint32(inst.Rn))
		w = fImmArithImm12.put(w, uint32(inst.Imm12))
		w = fImmArithSh.put(w, uint32(inst.Sh))
	case KindImmWide:
		w = fDpImmOp0.put(w, groupDpImm)
		w = fImmWideOpi.put(w, itpWideMove)
		w = fImmWideSf.put(w, uint32(inst.SF))
		w = fImmWideOpc.put(w, uint32(inst.WideOpc))
		w = fImmWideRd.put(w, uint32(inst.Rd))
		w = fImmWideImm16.put(w, uint32(inst.Imm16))
		w = fImmWideHw.put(w, uint32(inst.Hw))
	case KindRegArith:
		w = fDpRegOp0.put(w, groupDpReg)
		w = fRegM.put(w, 0)
		w = fRegID.put(w, itpRegArith)
		w = fRegArithSf.put(w, uint32(inst.SF))
		w = fRegArithOpcFlag.put(w, uint32(inst.OpcFlag))
		w = fRegArithOpcOp.put(w, uint32(inst.OpcOp))
		w = fRegRd.put(w, uint32(inst.Rd))
		w = fRegRn.put(w, uint32(inst.Rn))
		w = fRegRm.put(w, uint32(inst.Rm))
		w = fRegN.put(w, uint32(inst.N))
		w = fRegShift.put(w, uint32(inst.Shift))
		w = fRegOperand.put(w, uint32(inst.Operand))
	case KindRegLogic:
		w = fDpRegOp0.put(w, groupDpReg)
		w = fRegM.put(w, 0)
		w = fRegID.put(w, itpRegLogic)
		w = fRegLogicSf.put(w, uint32(inst.SF))
		w = fRegLogicOpc.put(w, uint32(inst.LogicOpc))
		w = fRegRd.put(w, uint32(inst.Rd))
		w = fRegRn.put(w, uint32(inst.Rn))
		w = fRegRm.put(w, uint32(inst.Rm))
		w = fRegN.put(w, uint32(inst.N))
		w = fRegShift.put(w, uint32(inst.Shift))
		w = fRegOperand.put(w, uint32(inst.Operand))
	case KindRegMultiply:
		w = fDpRegOp0.put(w, groupDpReg)
		w = fRegM.put(w, itpRegMultiply)
		w = fMulSf.put(w, uint32(inst.SF))
		w = fMulX.put(w, uint32(inst.X))
		w = fRegRd.put(w, uint32(inst.Rd))
		w = fRegRn.put(w, uint32(inst.Rn))
		w = fMulRa.put(w, uint32(inst.Ra))
		w = fMulRm.put(w, uint32(inst.Rm))
	case KindDTImmOffset:
		w = fDtOp0_1.put(w, 1)
		w = fDtOp0_2.put(w, 0)
		w = fDtID.put(w, 1)
		w = fImmOffU.put(w, itpDTImmOffset)
		w = fDtSf.put(w, uint32(inst.SF))
		w = fImmOffL.put(w, uint32(inst.L))
		w = fDtRt.put(w, uint32(inst.Rt))
		w = fDtXn.put(w, uint32(inst.Xn))
		w = fImmOffImm12.put(w, uint32(inst.Imm12))
	case KindDTRegOffset:
		w = fDtOp0_1.put(w, 1)
		w = fDtOp0_2.put(w, 0)
		w = fDtID.put(w, 1)
		w = fRegOffU.put(w, 0)
		w = fRegOffID2.put(w, itpDTRegisterOff)
		w = fDtSf.put(w, uint32(inst.SF))
		w = fRegOffL.put(w, uint32(inst.L))
		w = fDtRt.put(w, uint32(inst.Rt))
		w = fDtXn.put(w, uint32(inst.Xn))
		w = fRegOffXm.put(w, uint32(inst.Xm))
	case KindDTLoadLiteral:
		w = fDtOp0_1.put(w, 1)
		w = fDtOp0_2.put(w, 0)
		w = fDtID.put(w, itpDTLoadLiteral)
		w = fDtSf.put(w, uint32(inst.SF))
		w = fDtRt.put(w, uint32(inst.Rt))
		w = fLitSimm19.put(w, truncate(inst.Simm19, 19))
	case KindDTPrePostIndex:
		w = fDtOp0_1.put(w, 1)
		w = fDtOp0_2.put(w, 0)
		w = fDtID.put(w, 1)
		w = fPPIU.put(w, 0)
		w = fRegOffID2.put(w, 0)
		w = fDtSf.put(w, uint32(inst.SF))
		w = fPPIL.put(w, uint32(inst.L))
		w = fPPIBit.put(w, uint32(inst.I))
		w = fDtRt.put(w, uint32(inst.Rt))
		w = fDtXn.put(w, uint32(inst.Xn))
		w = fPPISimm9.put(w, truncate(inst.Simm9, 9))
	case KindBranchUncond:
		w = fBranchOp0.put(w, groupBranch)
		w = fBranchID.put(w, itpBranchUncond)
		w = fUncondSimm26.put(w, truncate(inst.Simm26, 26))
	case KindBranchCond:
		w = fBranchOp0.put(w, groupBranch)
		w = fBranchID.put(w, itpBranchCond)
		w = fCondCond.put(w, uint32(inst.BCond))
		w = fCondSimm19.put(w, truncate(inst.Simm19, 19))
	case KindBranchReg:
		w = fBranchOp0.put(w, groupBranch)
		w = fBranchID.put(w, itpBranchReg)
		w = fRegXn.put(w, uint32(inst.Xn))
	default:
		return 0, fmt.Errorf("isa: cannot encode unrecognized kind %v", inst.Kind)
	}
	return w, nil
}
