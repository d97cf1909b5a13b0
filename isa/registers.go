package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// Register is a parsed register operand: an index (0..30, or ZR for the
// zero register) plus the bit width the token's x/w prefix selected.
type Register struct {
	Index uint8
	Is64  bool
}

// ParseRegister recognizes x0..x30, w0..w30, and the zero-register
// spellings xzr/wzr/rzr (the generic "rzr" spelling carries no width of
// its own and is always treated as 64-bit; when a zero register is an
// instruction's destination, the encoder takes bit-mode from the next
// operand instead).
func ParseRegister(tok string) (Register, error) {
	if len(tok) < 2 {
		return Register{}, fmt.Errorf("isa: %q is not a register", tok)
	}
	prefix := tok[0]
	rest := tok[1:]
	if rest == "zr" {
		switch prefix {
		case 'w':
			return Register{Index: ZR, Is64: false}, nil
		case 'x', 'r':
			return Register{Index: ZR, Is64: true}, nil
		default:
			return Register{}, fmt.Errorf("isa: %q is not a register", tok)
		}
	}
	var is64 bool
	switch prefix {
	case 'x':
		is64 = true
	case 'w':
		is64 = false
	default:
		return Register{}, fmt.Errorf("isa: %q is not a register", tok)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n > 30 {
		return Register{}, fmt.Errorf("isa: %q is not a valid register index", tok)
	}
	return Register{Index: uint8(n), Is64: is64}, nil
}

// IsRegisterToken reports whether tok looks like a register operand,
// without fully validating its index.
func IsRegisterToken(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	switch tok[0] {
	case 'x', 'w', 'r':
		return strings.HasPrefix(tok[1:], "zr") || tok[0] != 'r'
	default:
		return false
	}
}

// Name renders a register back to its canonical x/w spelling.
func (r Register) Name() string {
	prefix := byte('w')
	if r.Is64 {
		prefix = 'x'
	}
	if r.Index == ZR {
		return string(prefix) + "zr"
	}
	return fmt.Sprintf("%c%d", prefix, r.Index)
}
