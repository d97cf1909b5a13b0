package encoder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aarch64vm/encoder"
	"aarch64vm/isa"
)

func decodeAt(words []isa.Word, i int) isa.Instruction {
	inst, err := isa.Decode(words[i])
	Expect(err).NotTo(HaveOccurred())
	return inst
}

var _ = Describe("Assemble", func() {
	It("resolves a backward branch reference and a forward one in the same pass", func() {
		src := `
movz x0, #10
loop:
subs x0, x0, #1
b.ne loop
b done
movz x1, #999
done:
movz x2, #1
`
		a := encoder.NewAssembler()
		words, err := a.Assemble(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(6))

		bne := decodeAt(words, 2)
		Expect(bne.Kind).To(Equal(isa.KindBranchCond))
		Expect(bne.BCond).To(Equal(isa.CondNE))
		Expect(bne.Simm19).To(Equal(int32(-1)))

		b := decodeAt(words, 3)
		Expect(b.Kind).To(Equal(isa.KindBranchUncond))
		Expect(b.Simm26).To(Equal(int32(2)))
	})

	It("assembles the .int directive as a literal word and branches back to it", func() {
		src := `
foo: .int 305419896
b foo
`
		a := encoder.NewAssembler()
		words, err := a.Assemble(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))
		Expect(words[0]).To(Equal(isa.Word(305419896)))

		b := decodeAt(words, 1)
		Expect(b.Simm26).To(Equal(int32(-1)))
	})

	It("resolves cmp to the same encoding as the canonical subs it aliases", func() {
		aliased, err := encoder.NewAssembler().Assemble("cmp x0, x1\n")
		Expect(err).NotTo(HaveOccurred())
		canonical, err := encoder.NewAssembler().Assemble("subs xzr, x0, x1\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(aliased).To(Equal(canonical))
	})

	It("resolves mov of a register operand to orr with the zero register", func() {
		aliased, err := encoder.NewAssembler().Assemble("mov x0, x1\n")
		Expect(err).NotTo(HaveOccurred())
		canonical, err := encoder.NewAssembler().Assemble("orr x0, xzr, x1\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(aliased).To(Equal(canonical))
	})

	It("resolves mov of an immediate operand to movz", func() {
		aliased, err := encoder.NewAssembler().Assemble("mov x0, #7\n")
		Expect(err).NotTo(HaveOccurred())
		canonical, err := encoder.NewAssembler().Assemble("movz x0, #7\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(aliased).To(Equal(canonical))
	})

	It("encodes a pre-indexed store with its offset and writeback bit", func() {
		src := `
movz x0, #100
str x1, [x0, #8]!
`
		a := encoder.NewAssembler()
		words, err := a.Assemble(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(2))

		st := decodeAt(words, 1)
		Expect(st.Kind).To(Equal(isa.KindDTPrePostIndex))
		Expect(st.I).To(Equal(uint8(1)))
		Expect(st.L).To(Equal(uint8(0)))
		Expect(st.Simm9).To(Equal(int32(8)))
	})

	It("encodes bic as and with the N bit set to invert the second operand", func() {
		aliased, err := encoder.NewAssembler().Assemble("bic x0, x1, x2\n")
		Expect(err).NotTo(HaveOccurred())
		inst := decodeAt(aliased, 0)
		Expect(inst.Kind).To(Equal(isa.KindRegLogic))
		Expect(inst.LogicOpc).To(Equal(isa.OpAND))
		Expect(inst.N).To(Equal(uint8(1)))
	})

	It("encodes eor distinctly from and/orr", func() {
		words, err := encoder.NewAssembler().Assemble("eor x0, x1, x2\n")
		Expect(err).NotTo(HaveOccurred())
		inst := decodeAt(words, 0)
		Expect(inst.Kind).To(Equal(isa.KindRegLogic))
		Expect(inst.LogicOpc).To(Equal(isa.OpEOR))
		Expect(inst.N).To(Equal(uint8(0)))
	})

	It("takes bit-mode from the second operand when the first is a hand-written zero register", func() {
		words, err := encoder.NewAssembler().Assemble("subs xzr, w1, w2\n")
		Expect(err).NotTo(HaveOccurred())
		inst := decodeAt(words, 0)
		Expect(inst.SF).To(Equal(uint8(0)))
	})

	It("accepts a bare decimal immediate without a leading #", func() {
		withHash, err := encoder.NewAssembler().Assemble("add x0, x1, #5\n")
		Expect(err).NotTo(HaveOccurred())
		bare, err := encoder.NewAssembler().Assemble("add x0, x1, 5\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(bare).To(Equal(withHash))
	})

	It("scales an immediate offset by the access size before encoding it", func() {
		words64, err := encoder.NewAssembler().Assemble("str x1, [x0, #16]\n")
		Expect(err).NotTo(HaveOccurred())
		st64 := decodeAt(words64, 0)
		Expect(st64.Kind).To(Equal(isa.KindDTImmOffset))
		Expect(st64.Imm12).To(Equal(uint16(2)))

		words32, err := encoder.NewAssembler().Assemble("str w1, [w0, #16]\n")
		Expect(err).NotTo(HaveOccurred())
		st32 := decodeAt(words32, 0)
		Expect(st32.Imm12).To(Equal(uint16(4)))
	})

	It("rejects a label defined twice", func() {
		_, err := encoder.NewAssembler().Assemble("start:\nstart:\nmovz x0, #1\n")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a branch to a label that is never defined", func() {
		_, err := encoder.NewAssembler().Assemble("b nowhere\n")
		Expect(err).To(HaveOccurred())
	})
})
