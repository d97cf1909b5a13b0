package isa

import "testing"

func TestParseRegister(t *testing.T) {
	cases := []struct {
		tok  string
		want Register
	}{
		{"x0", Register{Index: 0, Is64: true}},
		{"x30", Register{Index: 30, Is64: true}},
		{"w5", Register{Index: 5, Is64: false}},
		{"xzr", Register{Index: ZR, Is64: true}},
		{"wzr", Register{Index: ZR, Is64: false}},
		{"rzr", Register{Index: ZR, Is64: true}},
	}
	for _, c := range cases {
		got, err := ParseRegister(c.tok)
		if err != nil {
			t.Errorf("ParseRegister(%q): %v", c.tok, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseRegister(%q) = %+v, want %+v", c.tok, got, c.want)
		}
	}
}

func TestParseRegisterRejectsOutOfRange(t *testing.T) {
	for _, tok := range []string{"x31", "w99", "q0", ""} {
		if _, err := ParseRegister(tok); err == nil {
			t.Errorf("ParseRegister(%q): expected error", tok)
		}
	}
}
