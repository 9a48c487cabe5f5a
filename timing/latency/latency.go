// Package latency provides the stall-cycle timing model for
// cycle-accurate simulation.
//
// Latency values approximate VR4300 bus timing and can be configured
// via TimingConfig.
package latency

// Table provides stall-cycle lookups for memory-system events.
type Table struct {
	config *TimingConfig
}

// NewTable creates a latency table with default VR4300 timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a latency table with custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// ICacheFill returns the stall for an instruction cache line fill.
func (t *Table) ICacheFill() uint64 {
	return t.config.ICacheFillLatency
}

// DCacheFill returns the stall for a data cache line fill.
func (t *Table) DCacheFill() uint64 {
	return t.config.DCacheFillLatency
}

// UncachedRead returns the stall for an uncached word read.
func (t *Table) UncachedRead() uint64 {
	return t.config.UncachedReadLatency
}

// UncachedWrite returns the stall for an uncached word write.
func (t *Table) UncachedWrite() uint64 {
	return t.config.UncachedWriteLatency
}
