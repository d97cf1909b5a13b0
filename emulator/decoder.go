package emulator

import (
	"aarch64vm/errs"
	"aarch64vm/isa"
)

// Decode wraps isa.Decode, attaching the address a malformed word was
// fetched from so the caller can report it.
func Decode(address uint32, word uint32) (isa.Instruction, error) {
	inst, err := isa.Decode(word)
	if err != nil {
		return isa.Instruction{}, &errs.DecodeError{Address: address, Word: word, Err: err}
	}
	return inst, nil
}
