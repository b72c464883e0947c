package sequencer

import (
	"math/rand"
	"sync"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/dist"
	"github.com/sirupsen/logrus"
)

// Generator is a sequence of a fixed number of constrained-random
// transactions. The data field follows a weighted distribution that keeps the
// all-zeros and all-ones values at a guaranteed frequency.
type Generator struct {
	name         string
	log          *logrus.Entry
	widths       axis.Widths
	dataDist     *dist.Sampler
	packetLength int
	history      bool

	lock    sync.Mutex
	count   int
	rng     *rand.Rand
	nextSeq uint64
	emitted []*axis.Transaction
}

// Configure sets the number of transactions each run emits.
func (g *Generator) Configure(count int) error {
	if count < 0 {
		return axis.NewConfigurationError(g.name,
			"transaction count %d must not be negative", count)
	}

	g.lock.Lock()
	g.count = count
	g.lock.Unlock()

	return nil
}

// Count returns the number of transactions each run emits.
func (g *Generator) Count() int {
	g.lock.Lock()
	defer g.lock.Unlock()

	return g.count
}

// Widths returns the widths of the generated transactions.
func (g *Generator) Widths() axis.Widths {
	return g.widths
}

// Run starts the generator on the sequencer and waits until all of its
// transactions are done. It can be called again to emit another batch.
func (g *Generator) Run(s *Sequencer) error {
	return <-s.Start(g)
}

// Body implements Sequence.
func (g *Generator) Body(h Handoff) error {
	count := g.Count()

	g.log.WithField("count", count).Debug("sequence started")

	for i := 0; i < count; i++ {
		txn, err := g.Sample()
		if err != nil {
			return err
		}

		err = h.Execute(txn)
		if err != nil {
			return err
		}
	}

	g.log.WithField("count", count).Debug("sequence finished")

	return nil
}

// Sample creates the next random transaction without handing it off.
func (g *Generator) Sample() (*axis.Transaction, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	seq := g.nextSeq
	keep := axis.Mask(g.widths.StrobeWidth())

	fields := axis.Fields{
		Data: g.dataDist.Sample(g.rng),
		Keep: keep,
		Strb: g.rng.Uint64() & keep,
		Last: (seq+1)%uint64(g.packetLength) == 0,
		ID:   g.sideband(g.widths.ID),
		Dest: g.sideband(g.widths.Dest),
		User: g.sideband(g.widths.User),
	}

	txn, err := axis.NewTransaction(g.widths, seq, fields)
	if err != nil {
		return nil, err
	}

	g.nextSeq++
	if g.history {
		g.emitted = append(g.emitted, txn)
	}

	return txn, nil
}

func (g *Generator) sideband(width int) uint64 {
	if width == 0 {
		return 0
	}

	return g.rng.Uint64() & axis.Mask(width)
}

// NumEmitted returns the number of transactions sampled so far.
func (g *Generator) NumEmitted() uint64 {
	g.lock.Lock()
	defer g.lock.Unlock()

	return g.nextSeq
}

// Emitted returns every transaction sampled so far, in order. It is empty
// unless the generator was built WithHistory.
func (g *Generator) Emitted() []*axis.Transaction {
	g.lock.Lock()
	defer g.lock.Unlock()

	out := make([]*axis.Transaction, len(g.emitted))
	copy(out, g.emitted)

	return out
}

// GeneratorBuilder builds Generators.
type GeneratorBuilder struct {
	count        int
	countSet     bool
	widths       axis.Widths
	rng          *rand.Rand
	dataDist     *dist.Sampler
	packetLength int
	history      bool
	log          *logrus.Entry
}

// MakeGeneratorBuilder creates a GeneratorBuilder with default parameters.
func MakeGeneratorBuilder() GeneratorBuilder {
	return GeneratorBuilder{
		widths:       axis.DefaultWidths(),
		packetLength: 1,
	}
}

// WithCount sets the number of transactions to emit. It is required.
func (b GeneratorBuilder) WithCount(count int) GeneratorBuilder {
	b.count = count
	b.countSet = true

	return b
}

// WithWidths sets the field widths.
func (b GeneratorBuilder) WithWidths(w axis.Widths) GeneratorBuilder {
	b.widths = w
	return b
}

// WithRand sets the random source.
func (b GeneratorBuilder) WithRand(rng *rand.Rand) GeneratorBuilder {
	b.rng = rng
	return b
}

// WithDataDistribution replaces the distribution of the data field.
func (b GeneratorBuilder) WithDataDistribution(
	s *dist.Sampler,
) GeneratorBuilder {
	b.dataDist = s
	return b
}

// WithPacketLength sets the number of beats per packet; last is asserted on
// the final beat of every packet.
func (b GeneratorBuilder) WithPacketLength(n int) GeneratorBuilder {
	b.packetLength = n
	return b
}

// WithHistory keeps every sampled transaction, see Generator.Emitted.
func (b GeneratorBuilder) WithHistory() GeneratorBuilder {
	b.history = true
	return b
}

// WithLogger sets the logger.
func (b GeneratorBuilder) WithLogger(l *logrus.Entry) GeneratorBuilder {
	b.log = l
	return b
}

// Build creates the Generator.
func (b GeneratorBuilder) Build(name string) (*Generator, error) {
	if !b.countSet {
		return nil, axis.NewConfigurationError(name,
			"transaction count is not specified")
	}

	if err := b.widths.Validate(); err != nil {
		return nil, err
	}

	if b.packetLength < 1 {
		return nil, axis.NewConfigurationError(name,
			"packet length %d must be at least 1", b.packetLength)
	}

	g := &Generator{
		name:         name,
		log:          b.log,
		widths:       b.widths,
		dataDist:     b.dataDist,
		packetLength: b.packetLength,
		history:      b.history,
		rng:          b.rng,
	}

	if g.log == nil {
		g.log = logrus.WithField("component", name)
	}

	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(1))
	}

	if g.dataDist == nil {
		s, err := dist.BoundaryBiased(b.widths.Data)
		if err != nil {
			return nil, axis.NewConfigurationError(name, "%v", err)
		}

		g.dataDist = s
	}

	if err := g.Configure(b.count); err != nil {
		return nil, err
	}

	return g, nil
}

// IsBoundary tells whether the data of the transaction is one of the two
// boundary values of its width.
func IsBoundary(txn *axis.Transaction) bool {
	return txn.IsZero() || txn.IsAllOnes()
}
