package insts

// Immediates holds every immediate encoding of a word. All of them are
// computed for each decode; the opcode handler picks the one matching its
// format.
type Immediates struct {
	IZext uint32 // bits [31:20]
	ISext uint32
	SZext uint32 // bits [31:25] and [11:7]
	SSext uint32
	U     uint32 // bits [31:12], low 12 bits clear; already carries its sign
	BZext uint32 // bit 0 clear
	BSext uint32
	JZext uint32 // bit 0 clear
	JSext uint32
}

// ResolveImmediates computes the zero- and sign-extended immediates of
// every format for word.
func ResolveImmediates(word uint32) Immediates {
	i := ImmI(word)
	s := ImmS(word)
	b := ImmB(word)
	j := ImmJ(word)

	return Immediates{
		IZext: i,
		ISext: SignExtendI(i),
		SZext: s,
		SSext: SignExtendS(s),
		U:     ImmU(word),
		BZext: b,
		BSext: SignExtendB(b),
		JZext: j,
		JSext: SignExtendJ(j),
	}
}

// ImmI returns the zero-extended I-type immediate.
// Format: imm[11:0] | rs1 | funct3 | rd | opcode
func ImmI(word uint32) uint32 {
	return (word >> 20) & 0xFFF // bits [31:20]
}

// ImmS returns the zero-extended S-type immediate.
// Format: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode
func ImmS(word uint32) uint32 {
	hi := (word >> 25) & 0x7F // bits [31:25]
	lo := (word >> 7) & 0x1F  // bits [11:7]
	return hi<<5 | lo
}

// ImmU returns the U-type immediate. The low 12 bits are always zero.
// Format: imm[31:12] | rd | opcode
func ImmU(word uint32) uint32 {
	return ((word >> 12) & 0xFFFFF) << 12
}

// ImmB returns the zero-extended B-type immediate. Bit 0 is always zero.
// Format: imm[12] | imm[10:5] | rs2 | rs1 | funct3 | imm[4:1] | imm[11] | opcode
func ImmB(word uint32) uint32 {
	return ((word>>31)&0x1)<<12 | // bit 31 -> 12
		((word>>7)&0x1)<<11 |  // bit 7 -> 11
		((word>>25)&0x3F)<<5 | // bits [30:25] -> [10:5]
		((word>>8)&0xF)<<1     // bits [11:8] -> [4:1]
}

// ImmJ returns the zero-extended J-type immediate. Bit 0 is always zero.
// Format: imm[20] | imm[10:1] | imm[11] | imm[19:12] | rd | opcode
func ImmJ(word uint32) uint32 {
	return ((word>>31)&0x1)<<20 | // bit 31 -> 20
		((word>>12)&0xFF)<<12 | // bits [19:12] -> [19:12]
		((word>>20)&0x1)<<11 |  // bit 20 -> 11
		((word>>21)&0x3FF)<<1   // bits [30:21] -> [10:1]
}

// SignExtendI sign-extends a 12-bit I-type immediate. Bits above bit 11 of
// v are discarded first.
func SignExtendI(v uint32) uint32 {
	v &= 0xFFF
	if v&0x800 != 0 {
		return v | 0xFFFFF000
	}
	return v
}

// SignExtendS sign-extends a 12-bit S-type immediate.
func SignExtendS(v uint32) uint32 {
	return SignExtendI(v)
}

// SignExtendB sign-extends a 13-bit B-type immediate.
func SignExtendB(v uint32) uint32 {
	v &= 0x1FFF
	if v&0x1000 != 0 {
		return v | 0xFFFFE000
	}
	return v
}

// SignExtendJ sign-extends a 21-bit J-type immediate.
func SignExtendJ(v uint32) uint32 {
	v &= 0x1FFFFF
	if v&(1<<20) != 0 {
		return v | 0xFFE00000
	}
	return v
}
