// Package core assembles the VR4300 pipeline, caches, and memory into
// a runnable processor model.
package core

import (
	"github.com/sarchlab/vr4300sim/bus"
	"github.com/sarchlab/vr4300sim/timing/cache"
	"github.com/sarchlab/vr4300sim/timing/latency"
	"github.com/sarchlab/vr4300sim/timing/pipeline"
)

// Core is one VR4300 processor with its memory system.
type Core struct {
	memory   *bus.Memory
	pipeline *pipeline.Pipeline
}

// Config collects the tunable parameters of a core.
type Config struct {
	// Timing selects the memory latency model. Nil means defaults.
	Timing *latency.TimingConfig
}

// NewCore creates a core in the cold reset state.
func NewCore(config Config) *Core {
	memory := bus.NewMemory()

	opts := []pipeline.Option{
		pipeline.WithICacheConfig(cache.ICacheConfig()),
		pipeline.WithDCacheConfig(cache.DCacheConfig()),
	}
	if config.Timing != nil {
		opts = append(opts, pipeline.WithLatencyTable(
			latency.NewTableWithConfig(config.Timing)))
	}

	return &Core{
		memory:   memory,
		pipeline: pipeline.NewPipeline(memory, opts...),
	}
}

// Memory returns the core's physical memory model.
func (c *Core) Memory() *bus.Memory {
	return c.memory
}

// Pipeline returns the core's pipeline.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// AttachROM maps a cartridge image into the physical address space.
func (c *Core) AttachROM(image []byte) {
	c.memory.AttachROM(image)
}

// Tick advances the core by one pipeline clock.
func (c *Core) Tick() {
	c.pipeline.Tick()
}

// RunCycles advances the core by n pipeline clocks.
func (c *Core) RunCycles(n uint64) {
	c.pipeline.RunCycles(n)
}

// Reset returns the core to the cold reset state. Memory contents are
// preserved.
func (c *Core) Reset() {
	c.pipeline.Reset()
}

// Stats returns the pipeline's aggregate counters.
func (c *Core) Stats() pipeline.Statistics {
	return c.pipeline.Stats()
}
