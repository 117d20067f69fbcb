// Validate decoder allocation behavior - each decode should allocate only
// the returned instruction record.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/rvdecode/insts"
)

func main() {
	decoder := insts.NewDecoder()

	words := []uint32{
		0x02a00093, // ADDI x1, x0, 42
		0x00208463, // BEQ x1, x2, +8
		0x00512623, // SW x5, 12(x2)
		0x008000EF, // JAL x1, +8
		0x402081B3, // SUB x3, x1, x2
		0x00000000, // illegal
	}

	// Warm up
	for i := 0; i < 1000; i++ {
		decoder.Decode(words[i%len(words)])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	var illegal int
	for i := 0; i < iterations; i++ {
		for _, w := range words {
			if decoder.Decode(w).IsIllegal() {
				illegal++
			}
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc
	perDecode := float64(allocations) / float64(totalDecodes)

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Illegal words seen: %d\n", illegal)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", perDecode)
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	if perDecode <= 1.0 {
		fmt.Printf("\n✅ SUCCESS: at most one allocation (the returned record) per decode\n")
	} else {
		fmt.Printf("\n⚠️  WARNING: decode allocates more than the returned record\n")
	}
}
