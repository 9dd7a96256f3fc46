package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for geometries the engine cannot
// decompose into tag, index and offset fields.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// AddressWidth in bits
	AddressWidth int `json:"address_width" yaml:"address_width"`
}

// DefaultConfig returns the configuration of the Ibex instruction cache
// prototype: 4KB, 2-way, 8B lines, 32-bit addresses.
func DefaultConfig() Config {
	return Config{
		Size:          4 * 1024,
		Associativity: 2,
		BlockSize:     8,
		AddressWidth:  32,
	}
}

// Geometry is the address decomposition derived from a Config.
type Geometry struct {
	NumSets   int
	LineBits  uint
	IndexBits uint
	TagBits   uint
}

// NumSets returns the number of sets (blocks per way).
func (c Config) NumSets() int {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return 0
	}
	return c.Size / (c.Associativity * c.BlockSize)
}

// Geometry derives field widths. The result is only meaningful for a
// configuration that passes Validate.
func (c Config) Geometry() Geometry {
	numSets := c.NumSets()
	g := Geometry{
		NumSets:   numSets,
		LineBits:  log2(c.BlockSize),
		IndexBits: log2(numSets),
	}

	used := int(g.LineBits + g.IndexBits)
	if c.AddressWidth > used {
		g.TagBits = uint(c.AddressWidth - used)
	}

	return g
}

// Validate checks that the geometry decomposes cleanly.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size must be > 0", ErrInvalidConfig)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("%w: associativity must be > 0", ErrInvalidConfig)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be > 0", ErrInvalidConfig)
	}
	if c.AddressWidth <= 0 || c.AddressWidth > 64 {
		return fmt.Errorf("%w: address_width must be in [1, 64]", ErrInvalidConfig)
	}
	if !isPow2(c.Associativity) {
		return fmt.Errorf("%w: associativity %d is not a power of two",
			ErrInvalidConfig, c.Associativity)
	}
	if !isPow2(c.BlockSize) {
		return fmt.Errorf("%w: block_size %d is not a power of two",
			ErrInvalidConfig, c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of associativity*block_size",
			ErrInvalidConfig, c.Size)
	}
	if !isPow2(c.NumSets()) {
		return fmt.Errorf("%w: set count %d is not a power of two",
			ErrInvalidConfig, c.NumSets())
	}

	g := c.Geometry()
	if int(g.LineBits+g.IndexBits) > c.AddressWidth {
		return fmt.Errorf("%w: %d offset+index bits exceed a %d-bit address",
			ErrInvalidConfig, g.LineBits+g.IndexBits, c.AddressWidth)
	}

	return nil
}

// String renders the configuration the way the report header shows it.
func (c Config) String() string {
	return fmt.Sprintf("%dB/%d-way/%dB line/%d-bit",
		c.Size, c.Associativity, c.BlockSize, c.AddressWidth)
}

// LoadConfig loads a Config from a JSON or YAML file. Fields missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&config); err != nil {
			return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
		}
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON or YAML file, picked by extension.
func (c Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

func isPow2(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func log2(v int) uint {
	if v <= 1 {
		return 0
	}
	return uint(bits.Len(uint(v)) - 1)
}
