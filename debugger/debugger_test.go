package debugger_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"aarch64vm/debugger"
)

func writeSource(body string) string {
	dir := GinkgoT().TempDir()
	path := filepath.Join(dir, "prog.s")
	Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Session", func() {
	const src = `
movz x0, #1
movz x1, #2
movz x2, #3
.int 0x8A000000
`

	It("maps a PC back to the source line it was assembled from", func() {
		s := debugger.NewSession()
		Expect(s.Assemble(writeSource(src))).To(Succeed())
		line, ok := s.SourceLineForPC()
		Expect(ok).To(BeTrue())
		Expect(line).To(Equal(2))
	})

	It("stops Run at an armed breakpoint without executing it", func() {
		s := debugger.NewSession()
		Expect(s.Assemble(writeSource(src))).To(Succeed())
		s.AddBreakpoint(4)

		Expect(s.Run()).To(Succeed())
		Expect(s.Machine.Regs.PC()).To(Equal(uint64(4)))
		Expect(s.Machine.Regs.X(0)).To(Equal(uint64(1)))
		Expect(s.Machine.Regs.X(1)).To(Equal(uint64(0)))

		halted, err := s.StepInstruction()
		Expect(err).NotTo(HaveOccurred())
		Expect(halted).To(BeFalse())
		Expect(s.Machine.Regs.X(1)).To(Equal(uint64(2)))

		Expect(s.Run()).To(Succeed())
		Expect(s.Machine.Regs.X(2)).To(Equal(uint64(3)))
	})

	It("removes a disarmed breakpoint so Run no longer stops there", func() {
		s := debugger.NewSession()
		Expect(s.Assemble(writeSource(src))).To(Succeed())
		s.AddBreakpoint(4)
		s.RemoveBreakpoint(4)
		Expect(s.HasBreakpoint(4)).To(BeFalse())

		Expect(s.Run()).To(Succeed())
		Expect(s.Machine.Regs.X(2)).To(Equal(uint64(3)))
	})
})
