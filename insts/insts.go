// Package insts provides RV32I instruction definitions and decoding.
//
// This package decodes 32-bit RISC-V base integer machine words into
// structured instruction records. It supports every base opcode family:
//   - Upper immediates: LUI, AUIPC
//   - Jumps: JAL, JALR
//   - Conditional branches
//   - Loads and stores
//   - Register-immediate and register-register ALU operations
//   - FENCE and SYSTEM
//
// Register indices 32, 33 and 34 are sentinels standing for the resolved
// immediate, the program counter and the program counter plus 4. Every
// field holding a register index (Rd, Rs1, Rs2, Rs3) may carry one of them;
// use Operand for a tagged view.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00a00093) // ADDI x1, x0, 10
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Immd: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Immd)
package insts
