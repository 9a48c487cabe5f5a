// Package main provides the entry point for vr4300sim.
// vr4300sim is a cycle-accurate NEC VR4300 pipeline simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/vr4300sim/loader"
	"github.com/sarchlab/vr4300sim/timing/core"
	"github.com/sarchlab/vr4300sim/timing/latency"
	"github.com/sarchlab/vr4300sim/timing/pipeline"
)

var (
	cycles     = flag.Uint64("cycles", 100000000, "Pipeline cycles to simulate")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: vr4300sim [options] <rom.z64>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	romPath := flag.Arg(0)

	rom, err := loader.Load(romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ROM: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", romPath)
		fmt.Printf("Title: %s\n", rom.Title)
		fmt.Printf("Boot address: 0x%X\n", rom.BootAddress)
		fmt.Printf("Image size: %d bytes\n", len(rom.Image))
	}

	var timingConfig *latency.TimingConfig
	if *configPath != "" {
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}

	c := core.NewCore(core.Config{Timing: timingConfig})
	c.AttachROM(rom.Image)

	c.RunCycles(*cycles)

	printReport(romPath, c.Stats())
}

func printReport(romPath string, stats pipeline.Statistics) {
	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1 // Avoid division by zero
	}

	fmt.Printf("\n")
	fmt.Printf("ROM: %s\n", romPath)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("Stall Cycles: %d (%5.1f%%)\n",
		stats.Stalls, 100.0*float64(stats.Stalls)/float64(totalCycles))
	fmt.Printf("\n")
	fmt.Printf("Pipeline Events:\n")
	fmt.Printf("  Faults:     %d\n", stats.Faults)
	fmt.Printf("  Interlocks: %d\n", stats.Interlocks)
	fmt.Printf("\n")
	fmt.Printf("Fault Breakdown:\n")
	for f := pipeline.FaultRST; f <= pipeline.FaultLDI; f++ {
		if stats.FaultCounts[f] == 0 {
			continue
		}
		fmt.Printf("  %-28s %d\n", f.String()+":", stats.FaultCounts[f])
	}
}
