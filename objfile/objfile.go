// Package objfile implements AAOF, an optional object-file container for
// assembled programs: the magic-tagged header/section/symbol layout the
// specification's "assemble" leaves unspecified, carrying the same
// little-endian word stream plus the resolved symbol table for tooling
// (an object dumper, a future linker) that wants that metadata without
// re-assembling from source.
//
// Grounded on shared/assembler/dulf.go (the teacher's "DULF" format) and
// the GenerateObjectFile/Write/Read trio in shared/assembler/assembler.go,
// adapted from the teacher's 16-bit words to this toolchain's 32-bit
// little-endian words and from a two-table (defined + external) symbol
// scheme to one resolved table, since this assembler never emits
// relocations — every symbol is fully resolved by the time it reaches
// the object file.
package objfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic identifies an AAOF object file.
var Magic = [4]byte{'A', 'A', 'O', 'F'}

// Header is the fixed-size file header.
type Header struct {
	Magic        [4]byte
	WordCount    uint32
	SymbolCount  uint32
	EntryPoint   uint32
	WordsOffset  uint32
	SymbolOffset uint32
}

// Symbol is one resolved label: its name (by offset into the trailing
// string table) and its address.
type Symbol struct {
	NameOffset uint32
	Address    uint32
}

// File is a fully in-memory AAOF object: a header, the assembled word
// stream, resolved symbols, and the string table symbol names are stored
// in.
type File struct {
	Header      Header
	Words       []uint32
	Symbols     []Symbol
	StringTable []byte

	stringMap map[string]uint32
}

// New builds a File from an assembled word stream and its resolved
// symbol table (label name -> address).
func New(words []uint32, symbols map[string]uint32) *File {
	f := &File{
		Words:     words,
		stringMap: make(map[string]uint32),
	}
	f.addString("")
	for name, addr := range symbols {
		f.Symbols = append(f.Symbols, Symbol{
			NameOffset: f.addString(name),
			Address:    addr,
		})
	}
	f.Header.Magic = Magic
	f.Header.WordCount = uint32(len(words))
	f.Header.SymbolCount = uint32(len(f.Symbols))
	return f
}

func (f *File) addString(s string) uint32 {
	if offset, ok := f.stringMap[s]; ok {
		return offset
	}
	offset := uint32(len(f.StringTable))
	f.StringTable = append(f.StringTable, []byte(s)...)
	f.StringTable = append(f.StringTable, 0)
	f.stringMap[s] = offset
	return offset
}

// SymbolName resolves a Symbol's NameOffset against the string table.
func (f *File) SymbolName(offset uint32) string {
	if offset >= uint32(len(f.StringTable)) {
		return ""
	}
	end := offset
	for end < uint32(len(f.StringTable)) && f.StringTable[end] != 0 {
		end++
	}
	return string(f.StringTable[offset:end])
}

const headerSize = 24 // 4 (magic) + 4*5 (uint32 fields)

// Write serializes f to w in the layout: header, word stream, symbol
// table, string table.
func (f *File) Write(w io.Writer) error {
	f.Header.WordsOffset = headerSize
	f.Header.SymbolOffset = f.Header.WordsOffset + uint32(len(f.Words))*4

	if err := binary.Write(w, binary.LittleEndian, f.Header); err != nil {
		return err
	}
	for _, word := range f.Words {
		if err := binary.Write(w, binary.LittleEndian, word); err != nil {
			return err
		}
	}
	for _, sym := range f.Symbols {
		if err := binary.Write(w, binary.LittleEndian, sym); err != nil {
			return err
		}
	}
	_, err := w.Write(f.StringTable)
	return err
}

// Read parses an AAOF object previously written by Write.
func Read(r io.Reader) (*File, error) {
	f := &File{}
	if err := binary.Read(r, binary.LittleEndian, &f.Header); err != nil {
		return nil, err
	}
	if f.Header.Magic != Magic {
		return nil, fmt.Errorf("objfile: bad magic %q", f.Header.Magic)
	}
	f.Words = make([]uint32, f.Header.WordCount)
	for i := range f.Words {
		if err := binary.Read(r, binary.LittleEndian, &f.Words[i]); err != nil {
			return nil, err
		}
	}
	f.Symbols = make([]Symbol, f.Header.SymbolCount)
	for i := range f.Symbols {
		if err := binary.Read(r, binary.LittleEndian, &f.Symbols[i]); err != nil {
			return nil, err
		}
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.StringTable = rest
	return f, nil
}
