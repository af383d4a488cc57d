// codegen_isa.go - Instruction selection for the generated update code

package main

import (
	"fmt"
	"strings"
)

// InstructionSet renders the handful of operations the generators use.
// Operands are assembler expressions; the generators never format
// mnemonics themselves, so retargeting means providing another set.
type InstructionSet interface {
	LoadImmediate(value int) string
	LoadAbsolute(addr string) string
	LoadIndexed(base string) string
	Store(addr string) string
	StoreIndexed(base string) string
	LoadIndex(value int) string
	// Loop tails: decrement the index and branch while it is non-zero,
	// or while it has not wrapped below zero.
	DecrementBranchNotZero(label string) []string
	DecrementBranchNotNegative(label string) []string
	IncrementBranchBelow(limit int, label string) []string
	Return() string
	Address(addr uint16) string
}

// mos6502 emits ca65 syntax for the 6502, using A for data and X as the
// loop index.
type mos6502 struct{}

func (mos6502) LoadImmediate(value int) string { return fmt.Sprintf("lda\t#%d", value) }
func (mos6502) LoadAbsolute(addr string) string { return "lda\t" + addr }
func (mos6502) LoadIndexed(base string) string  { return "lda\t" + base + ",x" }
func (mos6502) Store(addr string) string        { return "sta\t" + addr }
func (mos6502) StoreIndexed(base string) string { return "sta\t" + base + ",x" }
func (mos6502) LoadIndex(value int) string      { return fmt.Sprintf("ldx\t#%d", value) }
func (mos6502) Return() string                  { return "rts" }

func (mos6502) DecrementBranchNotZero(label string) []string {
	return []string{"dex", "bne\t" + label}
}

func (mos6502) DecrementBranchNotNegative(label string) []string {
	return []string{"dex", "bpl\t" + label}
}

func (mos6502) IncrementBranchBelow(limit int, label string) []string {
	return []string{"inx", fmt.Sprintf("cpx\t#%d", limit), "bne\t" + label}
}

func (mos6502) Address(addr uint16) string { return fmt.Sprintf("$%04X", addr) }

// ---------------------------------------------------------------------
// ca65 directives
// ---------------------------------------------------------------------

// asmWriter accumulates one section of assembler text.
type asmWriter struct {
	strings.Builder
	indent string // prefix for instructions
}

func (w *asmWriter) op(lines ...string) {
	for _, l := range lines {
		w.WriteString(w.indent)
		w.WriteString(l)
		w.WriteByte('\n')
	}
}

func (w *asmWriter) label(name string) {
	w.WriteString(name)
	w.WriteString(":\n")
}

func (w *asmWriter) directive(name string, args ...string) {
	w.WriteByte('\t')
	w.WriteString(name)
	if len(args) > 0 {
		w.WriteByte('\t')
		w.WriteString(strings.Join(args, ", "))
	}
	w.WriteByte('\n')
}

// bytes writes values as .byte lines of at most DATA_BYTES_PER_LINE entries.
func (w *asmWriter) bytes(values []int) int {
	for i, v := range values {
		if i%DATA_BYTES_PER_LINE == 0 {
			w.WriteString("\n\t.byte\t")
		} else {
			w.WriteString(", ")
		}
		fmt.Fprintf(w, "%d", v)
	}
	w.WriteByte('\n')
	return len(values)
}
