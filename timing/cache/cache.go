// Package cache provides the VR4300 L1 cache models using Akita cache
// components for tag, state, and replacement bookkeeping.
//
// Unlike a self-filling cache, these models follow the hardware split:
// Probe reports hit or miss and never fills; a miss surfaces as a
// pipeline fault, and the external fill flow calls Fill once the line
// has been fetched over the bus.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/vr4300sim/bus"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// ICacheConfig returns the VR4300 instruction cache geometry:
// 16 KB direct-mapped with 32-byte lines.
func ICacheConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 1,
		BlockSize:     32,
	}
}

// DCacheConfig returns the VR4300 data cache geometry:
// 8 KB direct-mapped with 16-byte lines.
func DCacheConfig() Config {
	return Config{
		Size:          8 * 1024,
		Associativity: 1,
		BlockSize:     16,
	}
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Probes     uint64
	Hits       uint64
	Misses     uint64
	Fills      uint64
	Writebacks uint64
}

// Line is a handle to one resident cache line. Data aliases the cache's
// storage for the line, so stage code reads and writes it in place.
type Line struct {
	block *akitacache.Block

	// Data is the line contents, BlockSize bytes.
	Data []byte
}

// Cache represents one L1 cache.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats Statistics
}

// New creates a cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// lineAddr returns the line-aligned physical address.
func (c *Cache) lineAddr(paddr uint32) uint64 {
	return uint64(paddr) &^ uint64(c.config.BlockSize-1)
}

// Probe looks up the line holding paddr. It returns nil on miss and
// never allocates or fills: misses are serviced by the external fill
// flow. vaddr is accepted for interface symmetry with the hardware's
// virtually-indexed lookup; indexing here uses the physical address.
func (c *Cache) Probe(vaddr uint64, paddr uint32) *Line {
	_ = vaddr
	c.stats.Probes++

	block := c.directory.Lookup(0, c.lineAddr(paddr))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		return nil
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return &Line{
		block: block,
		Data:  c.dataStore[c.blockIndex(block)],
	}
}

// Fill installs a line fetched over the bus and returns its handle.
// data must be BlockSize bytes. If the victim line is dirty it is
// written back through dev before being replaced.
func (c *Cache) Fill(paddr uint32, data []byte, dev bus.Device) *Line {
	c.stats.Fills++
	blockAddr := c.lineAddr(paddr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// This shouldn't happen with proper directory setup
		return nil
	}
	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid && victim.IsDirty && dev != nil {
		c.stats.Writebacks++
		bus.WriteLine(dev, uint32(victim.Tag), victimData)
	}

	copy(victimData, data)
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return &Line{
		block: victim,
		Data:  victimData,
	}
}

// MarkDirty flags a resident line as modified.
func (c *Cache) MarkDirty(line *Line) {
	line.block.IsDirty = true
}

// Invalidate drops the line holding paddr without writeback.
func (c *Cache) Invalidate(paddr uint32) {
	block := c.directory.Lookup(0, c.lineAddr(paddr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty lines through dev and invalidates
// everything.
func (c *Cache) Flush(dev bus.Device) {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && dev != nil {
				c.stats.Writebacks++
				bus.WriteLine(dev, uint32(block.Tag), c.dataStore[c.blockIndex(block)])
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all lines without writeback and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
