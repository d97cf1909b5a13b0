package emulator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aarch64vm/emulator"
	"aarch64vm/isa"
)

func machineWith(words ...isa.Word) *emulator.Machine {
	m := emulator.NewMachine()
	prog := make([]byte, len(words)*4)
	for i, w := range words {
		prog[i*4+0] = byte(w)
		prog[i*4+1] = byte(w >> 8)
		prog[i*4+2] = byte(w >> 16)
		prog[i*4+3] = byte(w >> 24)
	}
	Expect(m.LoadProgram(prog)).To(Succeed())
	return m
}

func encode(inst isa.Instruction) isa.Word {
	w, err := isa.Encode(inst)
	Expect(err).NotTo(HaveOccurred())
	return w
}

var _ = Describe("arithmetic flags", func() {
	It("sets Z and clears N when a subtraction produces zero", func() {
		sub := encode(isa.Instruction{Kind: isa.KindRegArith, SF: 1, OpcOp: 1, OpcFlag: 1, Rd: 2, Rn: 0, Rm: 0})
		m := machineWith(sub, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.PState.Z).To(BeTrue())
		Expect(m.PState.N).To(BeFalse())
	})

	It("computes textbook signed overflow on add, not the dead unsigned check", func() {
		// movz x0, #0x7fffffff's low 16 bits, then build up to MaxInt32,
		// then add 1 and expect V=true, N=true (result wraps negative).
		movzLo := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 0, Imm16: 0xFFFF, Hw: 0})
		movkHi := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVK, Rd: 0, Imm16: 0x7FFF, Hw: 1})
		addOne := encode(isa.Instruction{Kind: isa.KindImmArith, SF: 0, OpcOp: 0, OpcFlag: 1, Rd: 1, Rn: 0, Imm12: 1})
		m := machineWith(movzLo, movkHi, addOne, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.W(1)).To(Equal(uint32(0x80000000)))
		Expect(m.PState.V).To(BeTrue())
		Expect(m.PState.N).To(BeTrue())
	})
})

var _ = Describe("shifts", func() {
	It("applies LSL to the second operand of a register-form add", func() {
		movz := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 1, Imm16: 1})
		add := encode(isa.Instruction{Kind: isa.KindRegArith, SF: 1, OpcOp: 0, Rd: 2, Rn: 1, Rm: 1, Shift: isa.LSL, Operand: 4})
		m := machineWith(movz, add, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.X(2)).To(Equal(uint64(1 + 1<<4)))
	})
})

var _ = Describe("multiply", func() {
	It("reads the zero register for an absent accumulator instead of the dead ra==32 check", func() {
		movzRn := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 1, Imm16: 6})
		movzRm := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 2, Imm16: 7})
		madd := encode(isa.Instruction{Kind: isa.KindRegMultiply, SF: 1, Rd: 3, Rn: 1, Rm: 2, Ra: isa.ZR})
		m := machineWith(movzRn, movzRm, madd, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.X(3)).To(Equal(uint64(42)))
	})
})

var _ = Describe("data transfer", func() {
	It("round trips a store then load through memory", func() {
		movzVal := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 1, Imm16: 99})
		movzAddr := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 2, Imm16: 256})
		str := encode(isa.Instruction{Kind: isa.KindDTImmOffset, SF: 1, L: 0, Rt: 1, Xn: 2})
		ldr := encode(isa.Instruction{Kind: isa.KindDTImmOffset, SF: 1, L: 1, Rt: 3, Xn: 2})
		m := machineWith(movzVal, movzAddr, str, ldr, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.X(3)).To(Equal(uint64(99)))
	})

	It("scales a 64-bit immediate offset by 8 bytes when computing the effective address", func() {
		movzVal := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 1, Imm16: 77})
		movzAddr := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 2, Imm16: 256})
		// Imm12=2 with an 8-byte access size reaches byte offset 16, not 2.
		str := encode(isa.Instruction{Kind: isa.KindDTImmOffset, SF: 1, L: 0, Rt: 1, Xn: 2, Imm12: 2})
		ldr := encode(isa.Instruction{Kind: isa.KindDTImmOffset, SF: 1, L: 1, Rt: 3, Xn: 2, Imm12: 2})
		m := machineWith(movzVal, movzAddr, str, ldr, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.X(3)).To(Equal(uint64(77)))

		dump := m.Mem.Dump()
		Expect(dump).To(ContainElement(emulator.MemoryWord{Address: 256 + 16, Value: 77}))
	})

	It("uses a 32-bit store on a post-index 32-bit store, not a double word", func() {
		movzAddr := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 2, Imm16: 512})
		movzSentinel := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 4, Imm16: 0xAAAA})
		// Seed the word 4 bytes past the post-index store's address so a
		// double-word write would corrupt it.
		stSentinel := encode(isa.Instruction{Kind: isa.KindDTImmOffset, SF: 0, L: 0, Rt: 4, Xn: 2, Imm12: 1})
		movzVal := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 0, WideOpc: isa.MOVZ, Rd: 1, Imm16: 0xBEEF})
		post := encode(isa.Instruction{Kind: isa.KindDTPrePostIndex, SF: 0, L: 0, I: 0, Rt: 1, Xn: 2, Simm9: 4})
		ldSentinel := encode(isa.Instruction{Kind: isa.KindDTImmOffset, SF: 0, L: 1, Rt: 5, Xn: 2, Imm12: 0})
		m := machineWith(movzAddr, movzSentinel, stSentinel, movzVal, post, ldSentinel, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.W(5)).To(Equal(uint32(0xAAAA)))
	})
})

var _ = Describe("branches", func() {
	It("takes an unconditional branch and skips the instruction in between", func() {
		b := encode(isa.Instruction{Kind: isa.KindBranchUncond, Simm26: 2})
		skipped := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 0, Imm16: 111})
		target := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 0, Imm16: 222})
		m := machineWith(b, skipped, target, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.X(0)).To(Equal(uint64(222)))
	})

	It("does not take a conditional branch whose condition is unmet", func() {
		movz := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 0, Imm16: 1})
		subs := encode(isa.Instruction{Kind: isa.KindImmArith, SF: 1, OpcOp: 1, OpcFlag: 1, Rd: 1, Rn: 0, Imm12: 2})
		beq := encode(isa.Instruction{Kind: isa.KindBranchCond, BCond: isa.CondEQ, Simm19: 2})
		notTaken := encode(isa.Instruction{Kind: isa.KindImmWide, SF: 1, WideOpc: isa.MOVZ, Rd: 2, Imm16: 1})
		m := machineWith(movz, subs, beq, notTaken, isa.HALT)
		Expect(m.Run()).To(Succeed())
		Expect(m.Regs.X(2)).To(Equal(uint64(1)))
	})
})

var _ = Describe("halt", func() {
	It("stops on the bit-identical HALT sentinel without treating it as a distinct opcode", func() {
		m := machineWith(isa.HALT)
		halted, err := m.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(halted).To(BeTrue())
		Expect(m.Regs.PC()).To(Equal(uint64(0)))
	})
})

var _ = Describe("memory bounds", func() {
	It("rejects a word access that would run past the end of memory", func() {
		mem := emulator.NewMemory()
		_, err := mem.LoadWord(emulator.MemorySize - 2)
		Expect(err).To(HaveOccurred())
	})

	It("accepts a word access that ends exactly at the boundary", func() {
		mem := emulator.NewMemory()
		_, err := mem.LoadWord(emulator.MemorySize - 4)
		Expect(err).NotTo(HaveOccurred())
	})
})
