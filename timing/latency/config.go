package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the stall-cycle costs of memory-system events.
// The pipeline itself is single-issue with one stage per pclock;
// everything that takes longer than a cycle is modeled as a stall
// configured here.
type TimingConfig struct {
	// ICacheFillLatency is the stall, in pclocks, for fetching a
	// 32-byte instruction cache line over the bus. Default: 50.
	ICacheFillLatency uint64 `json:"icache_fill_latency"`

	// DCacheFillLatency is the stall for fetching a 16-byte data cache
	// line over the bus. Default: 44.
	DCacheFillLatency uint64 `json:"dcache_fill_latency"`

	// UncachedReadLatency is the stall for a single uncached read
	// (instruction or data). Default: 38.
	UncachedReadLatency uint64 `json:"uncached_read_latency"`

	// UncachedWriteLatency is the stall for a single uncached write.
	// Default: 38.
	UncachedWriteLatency uint64 `json:"uncached_write_latency"`
}

// DefaultTimingConfig returns a TimingConfig with VR4300-based default
// values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ICacheFillLatency:    50,
		DCacheFillLatency:    44,
		UncachedReadLatency:  38,
		UncachedWriteLatency: 38,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields absent from
// the file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// Save writes the TimingConfig to a JSON file.
func (c *TimingConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}
