package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/driver"
	"gopkg.in/yaml.v3"
)

// Receiver kinds accepted in the configuration.
const (
	ReceiverAlways   = "always"
	ReceiverRandom   = "random"
	ReceiverScripted = "scripted"
)

// Config describes a bench run.
type Config struct {
	Name         string             `yaml:"name" json:"name"`
	Seed         int64              `yaml:"seed" json:"seed"`
	Count        *int               `yaml:"count" json:"count"`
	Runs         int                `yaml:"runs" json:"runs"`
	PacketLength int                `yaml:"packet_length" json:"packet_length"`
	Widths       axis.Widths        `yaml:"widths" json:"widths"`
	Delay        driver.DelayPolicy `yaml:"delay" json:"delay"`
	Receiver     ReceiverConfig     `yaml:"receiver" json:"receiver"`
	Resets       []ResetPulse       `yaml:"resets" json:"resets"`
	Record       RecordConfig       `yaml:"record" json:"record"`
	Monitor      MonitorConfig      `yaml:"monitor" json:"monitor"`
}

// ReceiverConfig selects the receiver at the far end of the handshake.
type ReceiverConfig struct {
	Kind        string  `yaml:"kind" json:"kind"`
	Probability float64 `yaml:"probability" json:"probability"`
	Pattern     []bool  `yaml:"pattern" json:"pattern"`
	Default     bool    `yaml:"default" json:"default"`
}

// ResetPulse asserts the reset at Start for Cycles cycles.
type ResetPulse struct {
	Start  uint64 `yaml:"start" json:"start"`
	Cycles uint64 `yaml:"cycles" json:"cycles"`
}

// RecordConfig enables the SQLite recording of transfers.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// MonitorConfig enables the HTTP monitor.
type MonitorConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// DefaultConfig returns the configuration used when nothing is specified. It
// has no transaction count, which must always be given explicitly.
func DefaultConfig() Config {
	return Config{
		Name:         "axisbench",
		Seed:         1,
		Runs:         1,
		PacketLength: 1,
		Widths:       axis.DefaultWidths(),
		Delay:        driver.DefaultDelayPolicy(),
		Receiver: ReceiverConfig{
			Kind:        ReceiverRandom,
			Probability: 0.7,
		},
		Resets: []ResetPulse{{Start: 0, Cycles: 4}},
	}
}

// LoadFile reads a YAML or JSON configuration file. Fields missing from the
// file keep their default values. A file without a count still loads; the
// count may come from elsewhere before Validate.
func LoadFile(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return config, fmt.Errorf("unsupported config format: %s", ext)
	}

	return config, nil
}

// SetCount sets the number of transactions per generator run.
func (c *Config) SetCount(n int) {
	c.Count = &n
}

// TransactionCount returns the number of transactions per generator run, or 0
// if it is not specified.
func (c Config) TransactionCount() int {
	if c.Count == nil {
		return 0
	}

	return *c.Count
}

// Validate checks that a bench can be built from the configuration.
func (c Config) Validate() error {
	const component = "bench"

	if c.Name == "" || strings.ContainsAny(c.Name, " \t\n") {
		return axis.NewConfigurationError(component,
			"name %q must be non-empty and without white spaces", c.Name)
	}

	if c.Count == nil {
		return axis.NewConfigurationError(component,
			"the transaction count is not specified")
	}

	if *c.Count < 0 {
		return axis.NewConfigurationError(component,
			"count must be non-negative, got %d", *c.Count)
	}

	if c.Runs < 1 {
		return axis.NewConfigurationError(component,
			"runs must be at least 1, got %d", c.Runs)
	}

	if c.PacketLength < 1 {
		return axis.NewConfigurationError(component,
			"packet_length must be at least 1, got %d", c.PacketLength)
	}

	if err := c.Widths.Validate(); err != nil {
		return err
	}

	if err := c.Delay.Validate(component); err != nil {
		return err
	}

	return c.Receiver.validate()
}

func (r ReceiverConfig) validate() error {
	const component = "receiver"

	switch r.Kind {
	case ReceiverAlways:
	case ReceiverRandom:
		if r.Probability <= 0 || r.Probability > 1 {
			return axis.NewConfigurationError(component,
				"probability must be within (0, 1], got %g", r.Probability)
		}
	case ReceiverScripted:
		if !r.Default {
			return axis.NewConfigurationError(component,
				"a scripted receiver must default to ready")
		}
	default:
		return axis.NewConfigurationError(component,
			"unknown receiver kind %q", r.Kind)
	}

	return nil
}
