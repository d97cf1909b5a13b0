package emulator

import (
	"encoding/binary"

	"aarch64vm/errs"
)

// MemorySize is the flat address space every Machine operates over: 2^21
// bytes, matching the original fixed-size memory array.
const MemorySize = 1 << 21

// Memory is a flat, byte-addressable little-endian address space. Bounds
// are checked strictly: an access is rejected not just when it starts out
// of range but when it would read or write past the end of the space,
// correcting the off-by-the-access-width bug in the source this toolchain
// is modeled on (which compared address against capacity-sizeof(word)
// rather than address+sizeof(word) against capacity).
type Memory struct {
	bytes [MemorySize]byte
}

// NewMemory returns a zeroed memory space.
func NewMemory() *Memory {
	return &Memory{}
}

// Load copies prog into memory starting at address 0. It returns a
// BoundsError if prog does not fit.
func (m *Memory) Load(prog []byte) error {
	if len(prog) > MemorySize {
		return &errs.BoundsError{Address: 0, Size: len(prog), Op: "load program"}
	}
	copy(m.bytes[:], prog)
	return nil
}

func (m *Memory) checkRange(address uint32, size int, op string) error {
	if uint64(address)+uint64(size) > MemorySize {
		return &errs.BoundsError{Address: address, Size: size, Op: op}
	}
	return nil
}

// LoadWord reads a 32-bit little-endian word at address.
func (m *Memory) LoadWord(address uint32) (uint32, error) {
	if err := m.checkRange(address, 4, "load word"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.bytes[address : address+4]), nil
}

// StoreWord writes a 32-bit little-endian word at address.
func (m *Memory) StoreWord(address uint32, v uint32) error {
	if err := m.checkRange(address, 4, "store word"); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.bytes[address:address+4], v)
	return nil
}

// LoadDoubleWord reads a 64-bit little-endian word at address.
func (m *Memory) LoadDoubleWord(address uint32) (uint64, error) {
	if err := m.checkRange(address, 8, "load double word"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.bytes[address : address+8]), nil
}

// StoreDoubleWord writes a 64-bit little-endian word at address.
func (m *Memory) StoreDoubleWord(address uint32, v uint64) error {
	if err := m.checkRange(address, 8, "store double word"); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.bytes[address:address+8], v)
	return nil
}

// Dump returns the address and value of every non-zero 32-bit word in
// memory, in ascending address order, matching the original dump's
// "0x%08x: %08x" line format one level up in the CLI.
func (m *Memory) Dump() []MemoryWord {
	var words []MemoryWord
	for addr := uint32(0); addr+4 <= MemorySize; addr += 4 {
		v := binary.LittleEndian.Uint32(m.bytes[addr : addr+4])
		if v != 0 {
			words = append(words, MemoryWord{Address: addr, Value: v})
		}
	}
	return words
}

// MemoryWord is one non-zero word surfaced by Memory.Dump.
type MemoryWord struct {
	Address uint32
	Value   uint32
}
