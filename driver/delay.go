package driver

import (
	"math/rand"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/dist"
)

// DelayPolicy bounds the number of cycles between the end of a transfer and
// the start of the next one. After each transfer the driver stays idle for a
// number of cycles drawn uniformly from [Min-1, Max-1].
type DelayPolicy struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// DefaultDelayPolicy allows back-to-back transfers.
func DefaultDelayPolicy() DelayPolicy {
	return DelayPolicy{Min: 1, Max: 1}
}

// Validate checks 1 <= Min <= Max.
func (p DelayPolicy) Validate(component string) error {
	if p.Min < 1 {
		return axis.NewConfigurationError(component,
			"min delay %d must be at least 1", p.Min)
	}

	if p.Max < p.Min {
		return axis.NewConfigurationError(component,
			"max delay %d must not be smaller than min delay %d", p.Max, p.Min)
	}

	return nil
}

// Sample draws the number of idle cycles to insert after a transfer.
func (p DelayPolicy) Sample(rng *rand.Rand) int {
	return dist.UniformInt(rng, p.Min-1, p.Max-1)
}
