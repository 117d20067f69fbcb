// Package insts provides RV32I instruction definitions and decoding.
package insts

import "fmt"

// Base opcodes (bits [6:0]) recognized by the decoder.
const (
	OpcodeLUI     uint8 = 0x37
	OpcodeAUIPC   uint8 = 0x17
	OpcodeJAL     uint8 = 0x6F
	OpcodeJALR    uint8 = 0x67
	OpcodeBranch  uint8 = 0x63
	OpcodeLoad    uint8 = 0x03
	OpcodeStore   uint8 = 0x23
	OpcodeOpImm   uint8 = 0x13
	OpcodeOp      uint8 = 0x33
	OpcodeMiscMem uint8 = 0x0F
	OpcodeSystem  uint8 = 0x73
)

// Instruction represents a decoded RV32I instruction.
//
// Rd, Rs1, Rs2 and Rs3 hold register indices 0-31 or one of the sentinels
// RegImmediate, RegPC and RegPCPlus4.
type Instruction struct {
	Word   uint32 `json:"word"`   // Raw instruction word
	Format Format `json:"format"` // Encoding format selected by the opcode

	Opcode uint8 `json:"opcode"` // bits [6:0]
	Rd     uint8 `json:"rd"`     // Destination register
	Rs1    uint8 `json:"rs1"`    // First source register
	Rs2    uint8 `json:"rs2"`    // Second source register
	Rs3    uint8 `json:"rs3"`    // Store data register (S-type only)

	// Sub-operation selectors, passed through for a later stage.
	Funct3 uint8 `json:"funct3"` // bits [14:12]
	Funct7 uint8 `json:"funct7"` // bits [30:25]; bit 31 is not modeled

	// Resolved immediate, sign- or zero-extended for the format.
	Immd uint32 `json:"immd"`

	Op  Op `json:"op"`  // Primary operation
	Op2 Op `json:"op2"` // Secondary classification
}

// IsIllegal reports whether the word did not match any base opcode.
func (i *Instruction) IsIllegal() bool {
	return i.Op2 == OpEXP
}

// Rs1Operand returns Rs1 as a tagged operand.
func (i *Instruction) Rs1Operand() Operand {
	return OperandFromIndex(i.Rs1)
}

// Rs2Operand returns Rs2 as a tagged operand.
func (i *Instruction) Rs2Operand() Operand {
	return OperandFromIndex(i.Rs2)
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%08x %s/%s fmt=%v rd=%v rs1=%v rs2=%v rs3=%v funct3=%d funct7=0x%02x immd=0x%08x",
		i.Word, i.Op, i.Op2, i.Format,
		OperandFromIndex(i.Rd), i.Rs1Operand(), i.Rs2Operand(), OperandFromIndex(i.Rs3),
		i.Funct3, i.Funct7, i.Immd)
}

// Decoder decodes RV32I machine code into instructions.
//
// A Decoder holds no state; Decode may be called from any number of
// goroutines at once.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word. It never fails: a word
// with an unrecognized opcode decodes to an instruction whose Op2 is OpEXP.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := d.extractFields(word)
	imm := ResolveImmediates(word)

	switch inst.Opcode {
	case OpcodeLUI:
		d.decodeLUI(inst, imm)
	case OpcodeAUIPC:
		d.decodeAUIPC(inst, imm)
	case OpcodeJAL:
		d.decodeJAL(inst, imm)
	case OpcodeJALR:
		d.decodeJALR(inst)
	case OpcodeBranch:
		d.decodeBranch(inst, imm)
	case OpcodeLoad:
		d.decodeLoad(inst, imm)
	case OpcodeStore:
		d.decodeStore(inst, imm)
	case OpcodeOpImm:
		d.decodeOpImm(inst, imm)
	case OpcodeOp:
		d.decodeOp(inst)
	case OpcodeMiscMem:
		d.decodeMiscMem(inst, imm)
	case OpcodeSystem:
		d.decodeSystem(inst, imm)
	default:
		d.decodeIllegal(inst)
	}

	return inst
}

// extractFields pulls the fixed-position fields shared by all formats.
// Format: funct7 | rs2 | rs1 | funct3 | rd | opcode
func (d *Decoder) extractFields(word uint32) *Instruction {
	return &Instruction{
		Word:   word,
		Opcode: uint8(word & 0x7F),         // bits [6:0]
		Rd:     uint8((word >> 7) & 0x1F),  // bits [11:7]
		Funct3: uint8((word >> 12) & 0x7),  // bits [14:12]
		Rs1:    uint8((word >> 15) & 0x1F), // bits [19:15]
		Rs2:    uint8((word >> 20) & 0x1F), // bits [24:20]
		Funct7: uint8((word >> 25) & 0x3F), // bits [30:25]
	}
}

// decodeLUI decodes LUI: rd = imm.
func (d *Decoder) decodeLUI(inst *Instruction, imm Immediates) {
	inst.Format = FormatU
	inst.Immd = imm.U
	inst.Rs2 = RegImmediate
	inst.Op = OpMOV
	inst.Op2 = OpNOP
}

// decodeAUIPC decodes AUIPC: rd = pc + imm.
func (d *Decoder) decodeAUIPC(inst *Instruction, imm Immediates) {
	inst.Format = FormatU
	inst.Immd = imm.U
	inst.Rs1 = RegPC
	inst.Rs2 = RegImmediate
	inst.Op = OpADDI
	inst.Op2 = OpNOP
}

// decodeJAL decodes JAL: rd = pc + 4, jump to pc + imm.
func (d *Decoder) decodeJAL(inst *Instruction, imm Immediates) {
	inst.Format = FormatJ
	inst.Immd = imm.JSext
	inst.Rs2 = RegPCPlus4
	inst.Op = OpMOV
	inst.Op2 = OpJMP
}

// decodeJALR decodes JALR: rd = pc + 4, jump through rs1.
// The I-type offset is not resolved.
func (d *Decoder) decodeJALR(inst *Instruction) {
	inst.Format = FormatI
	inst.Rs2 = RegPCPlus4
	inst.Op = OpMOV
	inst.Op2 = OpJPR
}

// decodeBranch decodes conditional branches. The comparison is left in
// funct3.
func (d *Decoder) decodeBranch(inst *Instruction, imm Immediates) {
	inst.Format = FormatB
	inst.Immd = imm.BSext
	inst.Rd = 0
	inst.Op = OpCMP
	inst.Op2 = OpJCC
}

// decodeLoad decodes loads: address = rs1 + imm. Width and signedness are
// left in funct3.
func (d *Decoder) decodeLoad(inst *Instruction, imm Immediates) {
	inst.Format = FormatI
	inst.Immd = imm.ISext
	inst.Rs2 = RegImmediate
	inst.Op = OpADDI
	inst.Op2 = OpLD
}

// decodeStore decodes stores: address = rs1 + imm, data from rs3.
func (d *Decoder) decodeStore(inst *Instruction, imm Immediates) {
	inst.Format = FormatS
	inst.Immd = imm.SSext
	inst.Rs3 = inst.Rs2
	inst.Rs2 = RegImmediate
	inst.Rd = 0
	inst.Op = OpADDI
	inst.Op2 = OpST
}

// decodeOpImm decodes register-immediate ALU operations.
// Shifts (funct3 1 and 5) only use the low 5 bits of the immediate.
func (d *Decoder) decodeOpImm(inst *Instruction, imm Immediates) {
	inst.Format = FormatI
	inst.Rs2 = RegImmediate

	switch inst.Funct3 {
	case 0b001, 0b101:
		inst.Immd = imm.ISext & 0x1F
	default:
		inst.Immd = imm.ISext
	}

	if inst.Funct3 == 0b000 {
		inst.Op = OpADDI
	} else {
		inst.Op = OpALU
	}
	inst.Op2 = OpNOP
}

// decodeOp decodes register-register ALU operations. The operation is left
// in funct3/funct7.
func (d *Decoder) decodeOp(inst *Instruction) {
	inst.Format = FormatR
	inst.Op = OpALU
	inst.Op2 = OpNOP
}

// decodeMiscMem decodes FENCE. No register effect is modeled.
func (d *Decoder) decodeMiscMem(inst *Instruction, imm Immediates) {
	inst.Format = FormatI
	inst.Immd = imm.ISext
	inst.Rd = 0
	inst.Op = OpNOP
	inst.Op2 = OpNOP
}

// decodeSystem decodes ECALL, EBREAK and the other SYSTEM encodings.
func (d *Decoder) decodeSystem(inst *Instruction, imm Immediates) {
	inst.Format = FormatI
	inst.Immd = imm.ISext
	inst.Rd = 0
	inst.Op = OpNOP
	inst.Op2 = OpSPC
}

// decodeIllegal marks an unrecognized opcode. Funct fields are kept.
func (d *Decoder) decodeIllegal(inst *Instruction) {
	inst.Format = FormatUnknown
	inst.Rd = 0
	inst.Rs1 = 0
	inst.Rs2 = 0
	inst.Immd = 0
	inst.Op = OpNOP
	inst.Op2 = OpEXP
}
