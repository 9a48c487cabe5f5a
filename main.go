// Package main provides the entry point for vr4300sim.
// vr4300sim is a cycle-accurate NEC VR4300 pipeline simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/vr4300sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("vr4300sim - NEC VR4300 Pipeline Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: vr4300sim [options] <rom.z64>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -cycles    Pipeline cycles to simulate")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/vr4300sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/vr4300sim' instead.")
	}
}
