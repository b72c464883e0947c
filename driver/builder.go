package driver

import (
	"math/rand"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/sim"
	"github.com/sirupsen/logrus"
)

// Builder can build drivers.
type Builder struct {
	engine   sim.EventScheduler
	widths   axis.Widths
	policy   DelayPolicy
	rng      *rand.Rand
	source   ItemSource
	receiver axis.Receiver
	reset    axis.ResetLine
	log      *logrus.Entry
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		widths: axis.DefaultWidths(),
		policy: DefaultDelayPolicy(),
	}
}

// WithEngine sets the engine that ticks the driver.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithWidths sets the field widths the driver accepts.
func (b Builder) WithWidths(w axis.Widths) Builder {
	b.widths = w
	return b
}

// WithDelay sets the delay policy.
func (b Builder) WithDelay(minDelay, maxDelay int) Builder {
	b.policy = DelayPolicy{Min: minDelay, Max: maxDelay}
	return b
}

// WithRand sets the random source used to draw delays.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithSource sets where the transactions come from.
func (b Builder) WithSource(s ItemSource) Builder {
	b.source = s
	return b
}

// WithReceiver sets the far end of the handshake.
func (b Builder) WithReceiver(r axis.Receiver) Builder {
	b.receiver = r
	return b
}

// WithResetLine sets the reset line. Without one the reset is never asserted.
func (b Builder) WithResetLine(r axis.ResetLine) Builder {
	b.reset = r
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *logrus.Entry) Builder {
	b.log = l
	return b
}

// Build creates the driver. The driver starts in the reset-hold state with
// valid deasserted.
func (b Builder) Build(name string) (*Comp, error) {
	if err := b.parametersMustBeValid(name); err != nil {
		return nil, err
	}

	c := &Comp{
		log:      b.log,
		widths:   b.widths,
		policy:   b.policy,
		rng:      b.rng,
		source:   b.source,
		receiver: b.receiver,
		reset:    b.reset,
		state:    StateResetHold,
	}

	c.TickingComponent = sim.NewSecondaryTickingComponent(name, b.engine, c)

	if c.log == nil {
		c.log = logrus.WithField("component", name)
	}

	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(1))
	}

	if c.reset == nil {
		c.reset = neverReset{}
	}

	return c, nil
}

func (b Builder) parametersMustBeValid(name string) error {
	if b.engine == nil {
		return axis.NewConfigurationError(name, "engine is not set")
	}

	if b.source == nil {
		return axis.NewConfigurationError(name, "item source is not set")
	}

	if b.receiver == nil {
		return axis.NewConfigurationError(name, "receiver is not set")
	}

	if err := b.widths.Validate(); err != nil {
		return err
	}

	return b.policy.Validate(name)
}
