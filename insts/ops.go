package insts

import (
	"fmt"
	"strings"
)

// Op is a symbolic micro-operation class. An Instruction carries two of them:
// Op for the primary data-path operation and Op2 for the secondary
// classification (load, store, jump, trap).
type Op uint8

// Micro-operation classes.
const (
	OpNOP  Op = iota // No operation
	OpMOV            // Register move
	OpADDI           // Add with the second operand
	OpALU            // ALU operation selected by funct3/funct7
	OpCMP            // Comparison selected by funct3
	OpLD             // Memory load
	OpST             // Memory store
	OpJMP            // Unconditional PC-relative jump
	OpJPR            // Indirect jump through a register
	OpJCC            // Conditional jump
	OpSPC            // System/privileged instruction
	OpEXP            // Illegal instruction
)

var opNames = [...]string{
	OpNOP:  "NOP",
	OpMOV:  "MOV",
	OpADDI: "ADDI",
	OpALU:  "ALU",
	OpCMP:  "CMP",
	OpLD:   "LD",
	OpST:   "ST",
	OpJMP:  "JMP",
	OpJPR:  "JPR",
	OpJCC:  "JCC",
	OpSPC:  "SPC",
	OpEXP:  "EXP",
}

// String returns the symbolic name of the operation.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// MarshalText encodes the operation as its symbolic name.
func (op Op) MarshalText() ([]byte, error) {
	if int(op) >= len(opNames) {
		return nil, fmt.Errorf("invalid op %d", uint8(op))
	}
	return []byte(opNames[op]), nil
}

// UnmarshalText decodes a symbolic operation name.
func (op *Op) UnmarshalText(text []byte) error {
	for i, name := range opNames {
		if strings.EqualFold(name, string(text)) {
			*op = Op(i)
			return nil
		}
	}
	return fmt.Errorf("unknown op %q", text)
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR // Register-register
	FormatI // Short immediate
	FormatS // Store
	FormatB // Conditional branch
	FormatU // Upper immediate
	FormatJ // Jump
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	FormatR:       "R",
	FormatI:       "I",
	FormatS:       "S",
	FormatB:       "B",
	FormatU:       "U",
	FormatJ:       "J",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// MarshalText encodes the format as its letter.
func (f Format) MarshalText() ([]byte, error) {
	if int(f) >= len(formatNames) {
		return nil, fmt.Errorf("invalid format %d", uint8(f))
	}
	return []byte(formatNames[f]), nil
}
