// Package main provides a demonstration entry point for rvdecode.
// It decodes a single instruction word and prints the result.
//
// For the full CLI, use: go run ./cmd/rvdecode
package main

import (
	"fmt"

	"github.com/sarchlab/rvdecode/insts"
)

func main() {
	fmt.Println("rvdecode - RISC-V RV32I instruction decoder")
	fmt.Println("")

	decoder := insts.NewDecoder()
	inst := decoder.Decode(0x00000013) // ADDI x0, x0, 0
	fmt.Println(inst)

	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvdecode' for the full CLI.")
}
