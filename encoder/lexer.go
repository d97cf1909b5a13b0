package encoder

import (
	"strconv"
	"strings"
)

// splitLabel separates an optional "label:" prefix from the rest of a
// source line. ok is false if the line carries no label.
func splitLabel(line string) (label string, rest string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", line, false
	}
	candidate := strings.TrimSpace(line[:idx])
	if candidate == "" || strings.ContainsAny(candidate, " \t") {
		return "", line, false
	}
	return candidate, strings.TrimSpace(line[idx+1:]), true
}

// stripComment removes a trailing "/ ..." comment. Per the specification
// comments begin with a bare "/" (not C's "//"), distinct from the
// teacher's own ";"-comment convention.
func stripComment(line string) string {
	if idx := strings.IndexByte(line, '/'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// splitTopLevelCommas splits s on commas that are not nested inside
// "[...]", so "[x0, #4]" survives as one operand token while the comma
// separating it from a following operand still splits.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

// parseImmediate reads a "#123", "#0x1F", "#0b101", "#0o17", or "#-5"
// style immediate operand, matching the base prefixes original_source's
// parse_num recognizes.
func parseImmediate(tok string) (int64, error) {
	tok = strings.TrimPrefix(tok, "#")
	return strconv.ParseInt(tok, 0, 64)
}

// parseShiftSuffix parses a trailing "lsl #4" / "lsr #4" / "asr #4" / "ror #4"
// operand, if present, as a single token (the caller has already split on
// commas, so this token reads as e.g. "lsl #4").
func parseShiftSuffix(tok string) (shift shiftToken, ok bool) {
	fields := strings.Fields(tok)
	if len(fields) != 2 {
		return shiftToken{}, false
	}
	amt, err := parseImmediate(fields[1])
	if err != nil {
		return shiftToken{}, false
	}
	switch fields[0] {
	case "lsl":
		return shiftToken{kind: "lsl", amount: uint8(amt)}, true
	case "lsr":
		return shiftToken{kind: "lsr", amount: uint8(amt)}, true
	case "asr":
		return shiftToken{kind: "asr", amount: uint8(amt)}, true
	case "ror":
		return shiftToken{kind: "ror", amount: uint8(amt)}, true
	default:
		return shiftToken{}, false
	}
}

type shiftToken struct {
	kind   string
	amount uint8
}

// isImmediateToken reports whether tok is an immediate operand: "#123"
// style, or the bare decimal/hex form the specification also allows
// ("123", "0x1F", "-5"), distinguished from a register token by its
// leading digit (or a "-" followed by one).
func isImmediateToken(tok string) bool {
	if strings.HasPrefix(tok, "#") {
		return true
	}
	if tok == "" {
		return false
	}
	if tok[0] == '-' {
		return len(tok) > 1 && isDigit(tok[1])
	}
	return isDigit(tok[0])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// isBracketed reports whether tok is a "[...]" memory operand.
func isBracketed(tok string) bool {
	return strings.HasPrefix(tok, "[")
}
