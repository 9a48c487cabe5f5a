// Command benchmark runs built-in microbenchmark kernels through the
// timing pipeline.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv     Output results in CSV format (default: human-readable)
//	-cycles  Pipeline cycles to run each kernel for
//
// Example:
//
//	# Run all kernels with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// The kernels stress individual pipeline behaviors (ALU throughput,
// load-use interlocks, cache miss handling) so timing model changes
// can be compared against VR4300 hardware expectations.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"

	"github.com/sarchlab/vr4300sim/timing/core"
)

var (
	csvOutput = flag.Bool("csv", false, "Output results in CSV format")
	numCycles = flag.Uint64("cycles", 100000, "Pipeline cycles to run each kernel for")
)

// kseg0Base maps the kernel into unmapped cached space at physical 0.
const kseg0Base = 0xFFFFFFFF80000000

type kernel struct {
	name  string
	words []uint32
}

// Instruction encoders for the kernel assembler.
func rtype(funct, rd, rs, rt uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | funct
}

func itype(op, rt, rs, imm uint32) uint32 {
	return op<<26 | rs<<21 | rt<<16 | imm&0xFFFF
}

func kernels() []kernel {
	// Every kernel ends in a busy-wait loop so it parks cleanly after
	// the measured work.
	spin := []uint32{
		itype(0x04, 0, 0, 0xFFFF), // beq r0, r0, -4
		0,                         // nop
	}

	alu := make([]uint32, 0, 258)
	for i := 0; i < 128; i++ {
		alu = append(alu,
			itype(0x09, 1, 1, 1), // addiu r1, r1, 1
			rtype(0x21, 2, 2, 1)) // addu r2, r2, r1
	}
	alu = append(alu, spin...)

	loadUse := make([]uint32, 0, 258)
	for i := 0; i < 128; i++ {
		loadUse = append(loadUse,
			itype(0x23, 3, 0, 0x1000), // lw r3, 0x1000(r0)
			rtype(0x21, 4, 4, 3))      // addu r4, r4, r3
	}
	loadUse = append(loadUse, spin...)

	storeStream := make([]uint32, 0, 258)
	for i := 0; i < 128; i++ {
		storeStream = append(storeStream,
			itype(0x2B, 1, 0, uint32(0x1000+i*4)), // sw r1, off(r0)
			itype(0x09, 1, 1, 1))                  // addiu r1, r1, 1
	}
	storeStream = append(storeStream, spin...)

	return []kernel{
		{"alu", alu},
		{"load-use", loadUse},
		{"store-stream", storeStream},
	}
}

func main() {
	flag.Parse()

	if *csvOutput {
		fmt.Println("kernel,cycles,stalls,faults,interlocks")
	}

	for _, k := range kernels() {
		c := core.NewCore(core.Config{})

		image := make([]byte, len(k.words)*4)
		for i, w := range k.words {
			binary.LittleEndian.PutUint32(image[i*4:], w)
		}
		for i := uint32(0); i < uint32(len(image)); i += 4 {
			c.Memory().WriteWord(i, binary.LittleEndian.Uint32(image[i:]), 0xFFFFFFFF)
		}

		c.Pipeline().SetPC(kseg0Base)
		c.RunCycles(*numCycles)

		stats := c.Stats()
		if *csvOutput {
			fmt.Printf("%s,%d,%d,%d,%d\n",
				k.name, stats.Cycles, stats.Stalls, stats.Faults, stats.Interlocks)
		} else {
			fmt.Printf("%-14s cycles=%-8d stalls=%-8d faults=%-6d interlocks=%d\n",
				k.name, stats.Cycles, stats.Stalls, stats.Faults, stats.Interlocks)
		}
	}
}
