// Package encoder implements the two-pass assembler: a left-to-right scan
// over source lines that resolves backward label references immediately
// and defers forward ones to a SymbolTable, followed by a single
// back-patching sweep once every label has been seen.
//
// Grounded on original_source/src/assembler/decode.c's decode()/
// determine_and_assemble() dispatch and assemble_*() family, and on
// shared/assembler/assembler.go's FirstPass/SecondPass split in the
// teacher repo.
package encoder

import (
	"strconv"
	"strings"

	"aarch64vm/errs"
	"aarch64vm/isa"
)

// Assembler holds the state of one assembly run: the emitted word stream,
// the symbol table backing label resolution, and an address-to-line map
// a debugger front-end can use to show the source line a given PC came
// from.
type Assembler struct {
	Symbols     *SymbolTable
	AddressLine map[uint32]int

	words []isa.Word
	line  int
}

// NewAssembler returns an empty Assembler ready to assemble source.
func NewAssembler() *Assembler {
	return &Assembler{
		Symbols:     NewSymbolTable(),
		AddressLine: make(map[uint32]int),
	}
}

// Assemble runs both passes over source and returns the resolved little
// endian word stream. It is the Encoder's sole external entry point.
func (a *Assembler) Assemble(source string) ([]isa.Word, error) {
	for lineNo, raw := range strings.Split(source, "\n") {
		a.line = lineNo + 1
		if err := a.assembleLine(raw); err != nil {
			return nil, err
		}
	}
	a.Symbols.Backpatch(a.words)
	if unresolved := a.Symbols.Unresolved(); len(unresolved) > 0 {
		return nil, &errs.EncodingError{Line: a.line, Source: unresolved[0], Err: errUndefinedLabel}
	}
	return a.words, nil
}

var errUndefinedLabel = symbolError("referenced label is never defined")

func (a *Assembler) currentAddress() uint32 { return uint32(len(a.words)) * isa.InstrSize }

func (a *Assembler) assembleLine(raw string) error {
	line := stripComment(raw)
	label, rest, hasLabel := splitLabel(line)
	if hasLabel {
		if err := a.Symbols.Define(label, a.currentAddress(), a.line); err != nil {
			return err
		}
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	if strings.HasPrefix(rest, ".") {
		return a.assembleDirective(rest)
	}
	return a.assembleInstruction(rest)
}

// assembleDirective implements the single directive the specification
// requires: ".int <value>" emits a literal 32-bit word.
func (a *Assembler) assembleDirective(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != ".int" {
		return &errs.EncodingError{Line: a.line, Source: line, Err: errUnknownDirective}
	}
	v, err := strconv.ParseInt(fields[1], 0, 64)
	if err != nil {
		return &errs.EncodingError{Line: a.line, Source: line, Err: err}
	}
	a.AddressLine[a.currentAddress()] = a.line
	a.words = append(a.words, uint32(v))
	return nil
}

var errUnknownDirective = symbolError("unrecognized directive")

func (a *Assembler) assembleInstruction(line string) error {
	fields := strings.SplitN(line, " ", 2)
	mnemonic := fields[0]
	var operandStr string
	if len(fields) == 2 {
		operandStr = fields[1]
	}
	var operands []string
	if strings.TrimSpace(operandStr) != "" {
		operands = splitTopLevelCommas(operandStr)
	}

	if isa.IsAlias(mnemonic) {
		mnemonic, operands = isa.ResolveAlias(mnemonic, operands)
	}

	addr := a.currentAddress()
	inst, err := a.build(mnemonic, operands)
	if err != nil {
		return err
	}
	word, err := isa.Encode(inst)
	if err != nil {
		return &errs.EncodingError{Line: a.line, Source: line, Err: err}
	}
	a.AddressLine[addr] = a.line
	a.words = append(a.words, word)
	return nil
}

func (a *Assembler) build(mnemonic string, operands []string) (isa.Instruction, error) {
	switch mnemonic {
	case "add", "adds", "sub", "subs":
		return a.buildArith(mnemonic, operands)
	case "and", "ands", "bic", "bics", "orr", "orn", "eor", "eon":
		return a.buildLogic(mnemonic, operands)
	case "movz", "movn", "movk":
		return a.buildWideMove(mnemonic, operands)
	case "madd", "msub":
		return a.buildMultiply(mnemonic, operands)
	case "ldr", "str":
		return a.buildLoadStore(mnemonic, operands)
	case "b":
		return a.buildBranchUncond(operands)
	case "br":
		return a.buildBranchReg(operands)
	default:
		if strings.HasPrefix(mnemonic, "b.") {
			return a.buildBranchCond(mnemonic, operands)
		}
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: mnemonic, Err: errUnknownMnemonic}
	}
}

var errUnknownMnemonic = symbolError("unrecognized mnemonic")

func sfOf(r isa.Register) uint8 {
	if r.Is64 {
		return 1
	}
	return 0
}

// sfForDest picks the bit-mode for an instruction whose first operand is
// rd: ordinarily rd's own width, but when rd is the zero register (written
// directly, or inserted by alias normalisation) the literal xzr/wzr
// spelling is not authoritative, so bit-mode falls back to the next
// operand's width instead.
func sfForDest(rd, next isa.Register) uint8 {
	if rd.Index == isa.ZR {
		return sfOf(next)
	}
	return sfOf(rd)
}

func (a *Assembler) parseDestAndSrc(operands []string, n int) ([]isa.Register, error) {
	regs := make([]isa.Register, n)
	for i := 0; i < n; i++ {
		r, err := isa.ParseRegister(operands[i])
		if err != nil {
			return nil, &errs.EncodingError{Line: a.line, Source: operands[i], Err: err}
		}
		regs[i] = r
	}
	return regs, nil
}

func (a *Assembler) buildArith(mnemonic string, operands []string) (isa.Instruction, error) {
	if len(operands) < 3 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	regs, err := a.parseDestAndSrc(operands, 2)
	if err != nil {
		return isa.Instruction{}, err
	}
	opcOp := uint8(0)
	if mnemonic == "sub" || mnemonic == "subs" {
		opcOp = 1
	}
	opcFlag := uint8(0)
	if mnemonic == "adds" || mnemonic == "subs" {
		opcFlag = 1
	}
	inst := isa.Instruction{
		SF:      sfForDest(regs[0], regs[1]),
		OpcOp:   opcOp,
		OpcFlag: opcFlag,
		Rd:      regs[0].Index,
		Rn:      regs[1].Index,
	}
	if isImmediateToken(operands[2]) {
		imm, err := parseImmediate(operands[2])
		if err != nil {
			return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[2], Err: err}
		}
		inst.Kind = isa.KindImmArith
		if imm >= 1<<12 {
			inst.Imm12 = uint16(imm >> 12)
			inst.Sh = 1
		} else {
			inst.Imm12 = uint16(imm)
		}
		return inst, nil
	}
	rm, err := isa.ParseRegister(operands[2])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[2], Err: err}
	}
	inst.Kind = isa.KindRegArith
	inst.Rm = rm.Index
	if len(operands) > 3 {
		st, ok := parseShiftSuffix(operands[3])
		if !ok {
			return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[3], Err: errBadShift}
		}
		inst.Shift = shiftTypeOf(st.kind)
		inst.Operand = st.amount
	}
	return inst, nil
}

var (
	errOperandCount = symbolError("wrong number of operands")
	errBadShift     = symbolError("malformed shift suffix")
)

func shiftTypeOf(kind string) isa.ShiftType {
	switch kind {
	case "lsl":
		return isa.LSL
	case "lsr":
		return isa.LSR
	case "asr":
		return isa.ASR
	case "ror":
		return isa.ROR
	default:
		return isa.LSL
	}
}

func (a *Assembler) buildLogic(mnemonic string, operands []string) (isa.Instruction, error) {
	if len(operands) < 3 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	regs, err := a.parseDestAndSrc(operands, 2)
	if err != nil {
		return isa.Instruction{}, err
	}
	rm, err := isa.ParseRegister(operands[2])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[2], Err: err}
	}
	inst := isa.Instruction{
		Kind: isa.KindRegLogic,
		SF:   sfForDest(regs[0], regs[1]),
		Rd:   regs[0].Index,
		Rn:   regs[1].Index,
		Rm:   rm.Index,
	}
	switch mnemonic {
	case "and", "bic":
		inst.LogicOpc = isa.OpAND
	case "ands", "bics":
		inst.LogicOpc = isa.OpANDS
	case "orr", "orn":
		inst.LogicOpc = isa.OpORR
	case "eor", "eon":
		inst.LogicOpc = isa.OpEOR
	}
	switch mnemonic {
	case "bic", "bics", "orn", "eon":
		inst.N = 1
	}
	if len(operands) > 3 {
		st, ok := parseShiftSuffix(operands[3])
		if !ok {
			return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[3], Err: errBadShift}
		}
		inst.Shift = shiftTypeOf(st.kind)
		inst.Operand = st.amount
	}
	return inst, nil
}

func (a *Assembler) buildWideMove(mnemonic string, operands []string) (isa.Instruction, error) {
	if len(operands) < 2 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	rd, err := isa.ParseRegister(operands[0])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[0], Err: err}
	}
	imm, err := parseImmediate(operands[1])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[1], Err: err}
	}
	inst := isa.Instruction{
		Kind:  isa.KindImmWide,
		SF:    sfOf(rd),
		Rd:    rd.Index,
		Imm16: uint16(imm),
	}
	switch mnemonic {
	case "movz":
		inst.WideOpc = isa.MOVZ
	case "movn":
		inst.WideOpc = isa.MOVN
	case "movk":
		inst.WideOpc = isa.MOVK
	}
	if len(operands) > 2 {
		st, ok := parseShiftSuffix(operands[2])
		if !ok || st.kind != "lsl" {
			return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[2], Err: errBadShift}
		}
		inst.Hw = st.amount / 16
	}
	return inst, nil
}

func (a *Assembler) buildMultiply(mnemonic string, operands []string) (isa.Instruction, error) {
	if len(operands) != 4 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	regs, err := a.parseDestAndSrc(operands, 4)
	if err != nil {
		return isa.Instruction{}, err
	}
	inst := isa.Instruction{
		Kind: isa.KindRegMultiply,
		SF:   sfForDest(regs[0], regs[1]),
		Rd:   regs[0].Index,
		Rn:   regs[1].Index,
		Rm:   regs[2].Index,
		Ra:   regs[3].Index,
	}
	if mnemonic == "msub" {
		inst.X = 1
	}
	return inst, nil
}

func (a *Assembler) buildLoadStore(mnemonic string, operands []string) (isa.Instruction, error) {
	if len(operands) < 2 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	rt, err := isa.ParseRegister(operands[0])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[0], Err: err}
	}
	mem, err := parseMemOperand(operands[1:])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: strings.Join(operands[1:], ","), Err: err}
	}
	load := byte(0)
	if mnemonic == "ldr" {
		load = 1
	}
	sf := sfOf(rt)

	switch mem.kind {
	case "literal":
		if load == 0 {
			return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: mem.label, Err: errStoreToLiteral}
		}
		addr := a.currentAddress()
		wordIndex := len(a.words)
		patch := func(displacement int32) isa.Word {
			w, _ := isa.Encode(isa.Instruction{Kind: isa.KindDTLoadLiteral, SF: sf, Rt: rt.Index, Simm19: displacement})
			return w
		}
		if target, ok := a.Symbols.LookupOrDefer(mem.label, wordIndex, a.line, patch); ok {
			return isa.Instruction{Kind: isa.KindDTLoadLiteral, SF: sf, Rt: rt.Index, Simm19: int32((int64(target) - int64(addr)) / 4)}, nil
		}
		return isa.Instruction{Kind: isa.KindDTLoadLiteral, SF: sf, Rt: rt.Index}, nil
	case "reg":
		return isa.Instruction{Kind: isa.KindDTRegOffset, SF: sf, L: load, Rt: rt.Index, Xn: mem.xn, Xm: mem.xm}, nil
	case "pre":
		return isa.Instruction{Kind: isa.KindDTPrePostIndex, SF: sf, L: load, I: 1, Rt: rt.Index, Xn: mem.xn, Simm9: int32(mem.imm)}, nil
	case "post":
		return isa.Instruction{Kind: isa.KindDTPrePostIndex, SF: sf, L: load, I: 0, Rt: rt.Index, Xn: mem.xn, Simm9: int32(mem.imm)}, nil
	default: // "imm"
		return isa.Instruction{Kind: isa.KindDTImmOffset, SF: sf, L: load, Rt: rt.Index, Xn: mem.xn, Imm12: uint16(mem.imm / accessSize(sf))}, nil
	}
}

// accessSize returns the addressing unit a DTImmOffset's imm12 field is
// scaled by: 8 bytes in 64-bit mode, 4 in 32-bit mode.
func accessSize(sf uint8) int64 {
	if sf == 1 {
		return 8
	}
	return 4
}

var errStoreToLiteral = symbolError("str cannot target a pc-relative literal")

func (a *Assembler) buildBranchUncond(operands []string) (isa.Instruction, error) {
	if len(operands) != 1 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	return a.resolveBranch(operands[0], func(disp int32) isa.Instruction {
		return isa.Instruction{Kind: isa.KindBranchUncond, Simm26: disp}
	})
}

func (a *Assembler) buildBranchCond(mnemonic string, operands []string) (isa.Instruction, error) {
	if len(operands) != 1 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	suffix := strings.TrimPrefix(mnemonic, "b.")
	cond, ok := isa.CondFromSuffix(suffix)
	if !ok {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: mnemonic, Err: errUnknownCond}
	}
	return a.resolveBranch(operands[0], func(disp int32) isa.Instruction {
		return isa.Instruction{Kind: isa.KindBranchCond, BCond: cond, Simm19: disp}
	})
}

var errUnknownCond = symbolError("unrecognized branch condition")

// resolveBranch resolves operand as a label, either immediately (the
// label was already defined) or deferred until Backpatch runs. build
// constructs the final Instruction from a resolved word-displacement.
func (a *Assembler) resolveBranch(label string, build func(int32) isa.Instruction) (isa.Instruction, error) {
	addr := a.currentAddress()
	wordIndex := len(a.words)
	patch := func(displacement int32) isa.Word {
		w, _ := isa.Encode(build(displacement))
		return w
	}
	if target, ok := a.Symbols.LookupOrDefer(label, wordIndex, a.line, patch); ok {
		return build(int32((int64(target) - int64(addr)) / 4)), nil
	}
	return build(0), nil
}

func (a *Assembler) buildBranchReg(operands []string) (isa.Instruction, error) {
	if len(operands) != 1 {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Err: errOperandCount}
	}
	xn, err := isa.ParseRegister(operands[0])
	if err != nil {
		return isa.Instruction{}, &errs.EncodingError{Line: a.line, Source: operands[0], Err: err}
	}
	return isa.Instruction{Kind: isa.KindBranchReg, Xn: xn.Index}, nil
}
