package insts

import "fmt"

// Sentinel register indices. The architectural register space is 0-31;
// these out-of-range values let a register field name a non-register
// operand.
const (
	RegImmediate uint8 = 32 // the resolved immediate (Instruction.Immd)
	RegPC        uint8 = 33 // the program counter of the instruction
	RegPCPlus4   uint8 = 34 // the program counter plus 4 (return address)
)

// NumRegisters is the number of architectural integer registers.
const NumRegisters = 32

// OperandKind tags what an Operand refers to.
type OperandKind uint8

// Operand kinds.
const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandPC
	OperandPCPlus4
)

// Operand is a tagged view of a register index field.
type Operand struct {
	Kind OperandKind
	Reg  uint8 // valid only when Kind is OperandRegister
}

// OperandFromIndex converts a register index, sentinels included, into an
// Operand. Indices above RegPCPlus4 are reduced to their low 5 bits.
func OperandFromIndex(idx uint8) Operand {
	switch idx {
	case RegImmediate:
		return Operand{Kind: OperandImmediate}
	case RegPC:
		return Operand{Kind: OperandPC}
	case RegPCPlus4:
		return Operand{Kind: OperandPCPlus4}
	default:
		return Operand{Kind: OperandRegister, Reg: idx & 0x1F}
	}
}

// Index returns the register index encoding of the operand, mapping
// non-register kinds back to their sentinel.
func (o Operand) Index() uint8 {
	switch o.Kind {
	case OperandImmediate:
		return RegImmediate
	case OperandPC:
		return RegPC
	case OperandPCPlus4:
		return RegPCPlus4
	default:
		return o.Reg & 0x1F
	}
}

// IsRegister reports whether the operand names an architectural register.
func (o Operand) IsRegister() bool {
	return o.Kind == OperandRegister
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandImmediate:
		return "imm"
	case OperandPC:
		return "pc"
	case OperandPCPlus4:
		return "pc+4"
	default:
		return fmt.Sprintf("x%d", o.Reg)
	}
}
