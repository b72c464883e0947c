package axis

import (
	"math/rand"
	"sync"

	"github.com/sarchlab/axisverif/sim"
)

// A Receiver is the far end of the handshake. The driver samples Ready once
// per cycle and calls Accept in the cycle a transfer completes.
type Receiver interface {
	Ready(now sim.VTimeInCycle) bool
	Accept(now sim.VTimeInCycle, txn *Transaction)
}

// Sink counts the accepted transactions. It is embedded by all the receivers
// of this package. The transactions themselves are only kept when history is
// enabled, so a long run does not hold on to every payload.
type Sink struct {
	lock      sync.Mutex
	history   bool
	count     uint64
	lastCycle sim.VTimeInCycle
	accepted  []*Transaction
	cycles    []sim.VTimeInCycle
}

func (s *Sink) keepHistory() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.history = true
}

// Accept counts the transaction and records it if history is enabled.
func (s *Sink) Accept(now sim.VTimeInCycle, txn *Transaction) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.count++
	s.lastCycle = now

	if !s.history {
		return
	}

	s.accepted = append(s.accepted, txn)
	s.cycles = append(s.cycles, now)
}

// NumAccepted returns the number of accepted transactions.
func (s *Sink) NumAccepted() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.count
}

// LastAcceptCycle returns the cycle of the latest accepted transaction.
func (s *Sink) LastAcceptCycle() sim.VTimeInCycle {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.lastCycle
}

// Accepted returns the accepted transactions in acceptance order. It is empty
// unless history is enabled.
func (s *Sink) Accepted() []*Transaction {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]*Transaction, len(s.accepted))
	copy(out, s.accepted)

	return out
}

// AcceptCycles returns the cycles in which the recorded transactions were
// accepted.
func (s *Sink) AcceptCycles() []sim.VTimeInCycle {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]sim.VTimeInCycle, len(s.cycles))
	copy(out, s.cycles)

	return out
}

// AlwaysReady is a receiver that never applies backpressure.
type AlwaysReady struct {
	Sink
}

// NewAlwaysReady creates an AlwaysReady receiver.
func NewAlwaysReady() *AlwaysReady {
	return &AlwaysReady{}
}

// WithHistory makes the receiver keep every accepted transaction.
func (r *AlwaysReady) WithHistory() *AlwaysReady {
	r.keepHistory()
	return r
}

// Ready always returns true.
func (r *AlwaysReady) Ready(_ sim.VTimeInCycle) bool {
	return true
}

// RandomReceiver asserts ready with a fixed probability in every cycle.
type RandomReceiver struct {
	Sink

	probability float64
	rng         *rand.Rand
}

// NewRandomReceiver creates a RandomReceiver. The probability is clamped to
// [0, 1]. A probability of 0 stalls the driver forever.
func NewRandomReceiver(probability float64, rng *rand.Rand) *RandomReceiver {
	if probability < 0 {
		probability = 0
	}

	if probability > 1 {
		probability = 1
	}

	return &RandomReceiver{
		probability: probability,
		rng:         rng,
	}
}

// WithHistory makes the receiver keep every accepted transaction.
func (r *RandomReceiver) WithHistory() *RandomReceiver {
	r.keepHistory()
	return r
}

// Ready draws from the random source.
func (r *RandomReceiver) Ready(_ sim.VTimeInCycle) bool {
	return r.rng.Float64() < r.probability
}

// ScriptedReceiver follows an explicit ready pattern indexed by cycle. Cycles
// beyond the pattern use the default value.
type ScriptedReceiver struct {
	Sink

	pattern      []bool
	defaultReady bool
}

// NewScriptedReceiver creates a ScriptedReceiver.
func NewScriptedReceiver(pattern []bool, defaultReady bool) *ScriptedReceiver {
	p := make([]bool, len(pattern))
	copy(p, pattern)

	return &ScriptedReceiver{
		pattern:      p,
		defaultReady: defaultReady,
	}
}

// WithHistory makes the receiver keep every accepted transaction.
func (r *ScriptedReceiver) WithHistory() *ScriptedReceiver {
	r.keepHistory()
	return r
}

// Ready returns the scripted value of the cycle.
func (r *ScriptedReceiver) Ready(now sim.VTimeInCycle) bool {
	if uint64(now) < uint64(len(r.pattern)) {
		return r.pattern[now]
	}

	return r.defaultReady
}
