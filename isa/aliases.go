package isa

import "strings"

// ResolveAlias rewrites an alias mnemonic (neg, negs, cmp, cmn, tst, mvn,
// mov, mul, mneg) into its canonical target (sub, subs, adds, ands, orn,
// orr, movz, madd, msub) plus the operand list the canonical mnemonic
// expects, inserting the zero register where the alias omits a source
// operand. Non-alias mnemonics pass through unchanged.
//
// Grounded on original_source/src/assembler/decode.c's convert_aliases:
// this implementation applies the same zero-register insertion uniformly
// to every alias that needs one (including mvn, which the C source's
// narrower operand-shifting special case omits — treated here as the
// general rule the specification states, not the C source's narrower
// grouping).
func ResolveAlias(mnemonic string, operands []string) (string, []string) {
	switch mnemonic {
	case "neg":
		return "sub", insertZero(operands, 1, operands[1])
	case "negs":
		return "subs", insertZero(operands, 1, operands[1])
	case "cmp":
		return "subs", insertZero(operands, 0, operands[0])
	case "cmn":
		return "adds", insertZero(operands, 0, operands[0])
	case "tst":
		return "ands", insertZero(operands, 0, operands[0])
	case "mvn":
		return "orn", insertZero(operands, 1, operands[1])
	case "mov":
		if len(operands) == 2 && strings.HasPrefix(operands[1], "#") {
			return "movz", operands
		}
		return "orr", insertZero(operands, 1, operands[1])
	case "mul":
		return "madd", append(append([]string{}, operands...), zeroLike(operands[0]))
	case "mneg":
		return "msub", append(append([]string{}, operands...), zeroLike(operands[0]))
	default:
		return mnemonic, operands
	}
}

// insertZero returns a copy of operands with the zero register (matching
// ref's bit-width prefix) inserted at position i. cmp/cmn/tst have no
// destination operand of their own, so their "operands[0]" is the first
// source register, which also serves as ref; for neg/negs/mvn/mov the
// first operand is the real destination and operands[1] is the source
// used as ref for width matching.
func insertZero(operands []string, i int, ref string) []string {
	out := make([]string, 0, len(operands)+1)
	out = append(out, operands[:i]...)
	out = append(out, zeroLike(ref))
	out = append(out, operands[i:]...)
	return out
}

// zeroLike returns the zero-register spelling matching ref's bit width.
func zeroLike(ref string) string {
	if strings.HasPrefix(ref, "w") {
		return "wzr"
	}
	return "xzr"
}

// IsAlias reports whether mnemonic is one of the recognized aliases.
func IsAlias(mnemonic string) bool {
	switch mnemonic {
	case "neg", "negs", "cmp", "cmn", "tst", "mvn", "mov", "mul", "mneg":
		return true
	default:
		return false
	}
}
