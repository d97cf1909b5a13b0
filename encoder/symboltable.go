package encoder

import (
	"aarch64vm/errs"
	"aarch64vm/isa"
)

// reference is one not-yet-resolved use of a label: the word index that
// needs back-patching, the source line it came from (for error
// reporting), and a closure that re-encodes the word once the final
// word-displacement to the label is known.
type reference struct {
	wordIndex int
	line      int
	patch     func(displacement int32) isa.Word
}

// SymbolTable tracks label definitions and the forward references waiting
// on them, following the same two-phase contract as the original
// label/address HashMaps: `define` records a label's address (fatal on a
// redefinition), `lookupOrDefer` returns a resolved address immediately if
// the label is already defined, or records the reference to be
// back-patched once it is.
//
// Grounded on original_source/src/assembler/symbol_table.c
// (symbol_table_add_label / symbol_table_get_address / modify_line) and
// on the teacher's UndefSymChain in shared/assembler/assembler.go, adapted
// from a single linked chain of deferred uses into a map of slices keyed
// by label, which is simpler to walk at end-of-pass.
type SymbolTable struct {
	defined map[string]uint32
	pending map[string][]reference
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		defined: make(map[string]uint32),
		pending: make(map[string][]reference),
	}
}

// Define records label's address. It is an EncodingError for a label to
// be defined twice.
func (t *SymbolTable) Define(label string, address uint32, line int) error {
	if _, ok := t.defined[label]; ok {
		return &errs.EncodingError{Line: line, Source: label, Err: errAlreadyDefined}
	}
	t.defined[label] = address
	return nil
}

// LookupOrDefer returns label's address if already defined; otherwise it
// records the reference for later back-patching and reports ok=false.
func (t *SymbolTable) LookupOrDefer(label string, wordIndex, line int, patch func(int32) isa.Word) (address uint32, ok bool) {
	if addr, ok := t.defined[label]; ok {
		return addr, true
	}
	t.pending[label] = append(t.pending[label], reference{wordIndex: wordIndex, line: line, patch: patch})
	return 0, false
}

// Unresolved returns the labels that were referenced but never defined,
// for end-of-pass validation.
func (t *SymbolTable) Unresolved() []string {
	var labels []string
	for label := range t.pending {
		if _, ok := t.defined[label]; !ok {
			labels = append(labels, label)
		}
	}
	return labels
}

// Backpatch resolves every deferred reference against the now-complete
// symbol table, invoking each reference's patch closure with the final
// word-displacement to its label and writing the result into words.
func (t *SymbolTable) Backpatch(words []isa.Word) {
	for label, refs := range t.pending {
		target, ok := t.defined[label]
		if !ok {
			continue
		}
		for _, ref := range refs {
			refAddr := uint32(ref.wordIndex * 4)
			displacement := (int64(target) - int64(refAddr)) / 4
			words[ref.wordIndex] = ref.patch(int32(displacement))
		}
	}
}

// Defined returns a copy of the resolved label -> address table, for
// consumers (the objfile writer, a debugger front-end) that want the
// final symbol set after assembly completes.
func (t *SymbolTable) Defined() map[string]uint32 {
	out := make(map[string]uint32, len(t.defined))
	for k, v := range t.defined {
		out[k] = v
	}
	return out
}

var errAlreadyDefined = symbolError("label already defined")

type symbolError string

func (e symbolError) Error() string { return string(e) }
