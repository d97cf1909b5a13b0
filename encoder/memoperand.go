package encoder

import (
	"strings"

	"aarch64vm/isa"
)

// memOperand is the parsed form of a load/store's second operand: either
// a bracketed addressing mode or a bare label for a pc-relative literal
// load.
type memOperand struct {
	kind  string // "imm", "reg", "pre", "post", "literal"
	xn    uint8
	xm    uint8
	imm   int64
	label string
}

// parseMemOperand parses the operand tokens following a load/store's
// destination register: "[xn]", "[xn, #imm]", "[xn, xm]",
// "[xn, #imm]!" (pre-index), "[xn], #imm" (post-index, split across two
// top-level tokens since the offset sits outside the brackets), or a bare
// label for a literal load.
func parseMemOperand(remaining []string) (memOperand, error) {
	if len(remaining) == 1 && !isBracketed(remaining[0]) {
		return memOperand{kind: "literal", label: remaining[0]}, nil
	}
	if len(remaining) == 2 {
		base, err := parseBracketedRegister(remaining[0])
		if err != nil {
			return memOperand{}, err
		}
		imm, err := parseImmediate(remaining[1])
		if err != nil {
			return memOperand{}, err
		}
		return memOperand{kind: "post", xn: base.Index, imm: imm}, nil
	}

	tok := remaining[0]
	preIndex := strings.HasSuffix(tok, "]!")
	tok = strings.TrimSuffix(tok, "!")
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "["), "]")
	parts := splitTopLevelCommas(inner)

	base, err := isa.ParseRegister(strings.TrimSpace(parts[0]))
	if err != nil {
		return memOperand{}, err
	}
	if len(parts) == 1 {
		return memOperand{kind: "imm", xn: base.Index}, nil
	}

	second := strings.TrimSpace(parts[1])
	if isImmediateToken(second) {
		imm, err := parseImmediate(second)
		if err != nil {
			return memOperand{}, err
		}
		if preIndex {
			return memOperand{kind: "pre", xn: base.Index, imm: imm}, nil
		}
		return memOperand{kind: "imm", xn: base.Index, imm: imm}, nil
	}
	reg2, err := isa.ParseRegister(second)
	if err != nil {
		return memOperand{}, err
	}
	return memOperand{kind: "reg", xn: base.Index, xm: reg2.Index}, nil
}

func parseBracketedRegister(tok string) (isa.Register, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tok, "["), "]")
	return isa.ParseRegister(strings.TrimSpace(inner))
}
