// Package main provides a profiling wrapper for vr4300sim to identify
// simulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/vr4300sim/loader"
	"github.com/sarchlab/vr4300sim/timing/core"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	numCycles  = flag.Uint64("cycles", 10000000, "pipeline cycles to simulate")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <rom.z64>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	rom, err := loader.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ROM: %v\n", err)
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	c := core.NewCore(core.Config{})
	c.AttachROM(rom.Image)

	start := time.Now()
	c.RunCycles(*numCycles)
	elapsed := time.Since(start)

	stats := c.Stats()
	fmt.Printf("Simulated %d cycles in %v (%.2f Mcycles/s)\n",
		stats.Cycles, elapsed,
		float64(stats.Cycles)/elapsed.Seconds()/1e6)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
			os.Exit(1)
		}
	}
}
