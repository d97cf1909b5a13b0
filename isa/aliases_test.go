package isa

import (
	"reflect"
	"testing"
)

func TestResolveAlias(t *testing.T) {
	cases := []struct {
		mnemonic string
		operands []string
		wantOp   string
		wantArgs []string
	}{
		{"neg", []string{"x0", "x1"}, "sub", []string{"x0", "xzr", "x1"}},
		{"negs", []string{"w0", "w1"}, "subs", []string{"w0", "wzr", "w1"}},
		{"cmp", []string{"x0", "x1"}, "subs", []string{"xzr", "x0", "x1"}},
		{"cmn", []string{"x0", "#5"}, "adds", []string{"xzr", "x0", "#5"}},
		{"tst", []string{"x0", "x1"}, "ands", []string{"xzr", "x0", "x1"}},
		{"mvn", []string{"x0", "x1"}, "orn", []string{"x0", "xzr", "x1"}},
		{"mov", []string{"x0", "x1"}, "orr", []string{"x0", "xzr", "x1"}},
		{"mov", []string{"x0", "#7"}, "movz", []string{"x0", "#7"}},
		{"mul", []string{"x0", "x1", "x2"}, "madd", []string{"x0", "x1", "x2", "xzr"}},
		{"mneg", []string{"x0", "x1", "x2"}, "msub", []string{"x0", "x1", "x2", "xzr"}},
		{"add", []string{"x0", "x1", "x2"}, "add", []string{"x0", "x1", "x2"}},
	}
	for _, c := range cases {
		gotOp, gotArgs := ResolveAlias(c.mnemonic, c.operands)
		if gotOp != c.wantOp || !reflect.DeepEqual(gotArgs, c.wantArgs) {
			t.Errorf("ResolveAlias(%q, %v) = %q, %v; want %q, %v",
				c.mnemonic, c.operands, gotOp, gotArgs, c.wantOp, c.wantArgs)
		}
	}
}

func TestResolveAliasZeroRegisterWidthMatchesSourceOperand(t *testing.T) {
	// neg/negs/mvn/mov insert the zero register as the canonical form's
	// source operand, so its width must track the operand being negated
	// or copied from (operands[1]), not the destination (operands[0]).
	op, args := ResolveAlias("mvn", []string{"w0", "x1"})
	want := []string{"w0", "xzr", "x1"}
	if op != "orn" || !reflect.DeepEqual(args, want) {
		t.Errorf("ResolveAlias(mvn, w0, x1) = %q, %v; want orn, %v", op, args, want)
	}
}

func TestResolveAliasShiftSuffixRidesAlong(t *testing.T) {
	op, args := ResolveAlias("neg", []string{"x0", "x1", "lsl #4"})
	want := []string{"x0", "xzr", "x1", "lsl #4"}
	if op != "sub" || !reflect.DeepEqual(args, want) {
		t.Errorf("ResolveAlias with shift suffix = %q, %v; want sub, %v", op, args, want)
	}
}
