package predecode

import (
	"fmt"
	"os"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tailscale/hujson"
)

// Config holds predecode cache geometry.
type Config struct {
	// Size in bytes of instruction memory covered by the cache.
	Size int `json:"size"`
	// Associativity (number of ways).
	Associativity int `json:"associativity"`
	// BlockSize in bytes. Must be a multiple of the instruction size.
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns a 4KB, 4-way cache with 64B blocks.
func DefaultConfig() Config {
	return Config{
		Size:          4 * 1024, // 4KB
		Associativity: 4,        // 4-way
		BlockSize:     64,       // 16 instructions per block
	}
}

// NumSets returns the number of sets the geometry yields.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry describes a usable cache.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be > 0")
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.BlockSize <= 0 || c.BlockSize%instructionSize != 0 {
		return fmt.Errorf("block_size must be a positive multiple of %d", instructionSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size must be a multiple of associativity * block_size")
	}
	return nil
}

// LoadConfig loads a Config from a HuJSON (JSON with comments and trailing
// commas) file. Keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	huJSONData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predecode config file: %w", err)
	}

	jsonData, err := hujson.Standardize(huJSONData)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse predecode config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := jsonv2.Unmarshal(jsonData, &config, jsonv2.RejectUnknownMembers(true)); err != nil {
		return Config{}, fmt.Errorf("failed to parse predecode config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid predecode config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := jsonv2.Marshal(c, jsontext.Multiline(true))
	if err != nil {
		return fmt.Errorf("failed to serialize predecode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predecode config file: %w", err)
	}

	return nil
}
