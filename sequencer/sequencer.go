// Package sequencer connects transaction producers to a driver through a
// single-slot rendezvous.
package sequencer

import (
	"errors"
	"sync"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sirupsen/logrus"
)

// ErrNotStarted is returned by Execute when it is called outside of a
// sequence started on the sequencer.
var ErrNotStarted = errors.New("sequencer: no sequence is running")

// A Sequence produces transactions through a Handoff.
type Sequence interface {
	Body(h Handoff) error
}

// A Handoff passes one transaction to the consumer. Execute blocks until the
// consumer has taken the transaction and reported it done.
type Handoff interface {
	Execute(txn *axis.Transaction) error
}

// A Waker is woken up when a sequence starts.
type Waker interface {
	NotifyItemAvailable()
}

type request struct {
	txn  *axis.Transaction
	done chan struct{}
}

// Sequencer arbitrates between running sequences and one consumer. At most one
// transaction is in flight at any time: a producer is released only after the
// consumer finished its transaction.
type Sequencer struct {
	name string
	log  *logrus.Entry

	slot chan request

	lock      sync.Mutex
	active    int
	idle      chan struct{}
	waker     Waker
	inFlight  *request
	handedOff uint64
	completed uint64
}

// New creates a Sequencer.
func New(name string) *Sequencer {
	idle := make(chan struct{})
	close(idle)

	return &Sequencer{
		name: name,
		log:  logrus.WithField("component", name),
		slot: make(chan request),
		idle: idle,
	}
}

// Name returns the name of the sequencer.
func (s *Sequencer) Name() string {
	return s.name
}

// SetLogger replaces the logger.
func (s *Sequencer) SetLogger(l *logrus.Entry) {
	s.log = l
}

// SetWaker registers the consumer to wake up when a sequence starts.
func (s *Sequencer) SetWaker(w Waker) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.waker = w
}

// Start runs the sequence body in a new goroutine and returns a channel that
// receives the result of the body. The sequence counts as running as soon as
// Start returns.
func (s *Sequencer) Start(seq Sequence) <-chan error {
	result := make(chan error, 1)

	s.lock.Lock()
	if s.active == 0 {
		s.idle = make(chan struct{})
	}
	s.active++
	waker := s.waker
	s.lock.Unlock()

	if waker != nil {
		waker.NotifyItemAvailable()
	}

	go func() {
		err := seq.Body(s)

		s.lock.Lock()
		s.active--
		if s.active == 0 {
			close(s.idle)
		}
		s.lock.Unlock()

		if err != nil {
			s.log.WithError(err).Error("sequence failed")
		}

		result <- err
	}()

	return result
}

// Execute hands the transaction to the consumer and waits until the consumer
// reports it done.
func (s *Sequencer) Execute(txn *axis.Transaction) error {
	s.lock.Lock()
	active := s.active
	s.lock.Unlock()

	if active == 0 {
		return ErrNotStarted
	}

	req := request{txn: txn, done: make(chan struct{})}
	s.slot <- req
	<-req.done

	return nil
}

// TryNextItem returns the next transaction. While a sequence is running it
// blocks until that sequence hands over a transaction or finishes. It returns
// nil when no sequence is running.
func (s *Sequencer) TryNextItem() *axis.Transaction {
	s.lock.Lock()
	if s.inFlight != nil {
		s.lock.Unlock()
		panic("sequencer: next item requested before the previous one is done")
	}
	idle := s.idle
	s.lock.Unlock()

	select {
	case req := <-s.slot:
		s.lock.Lock()
		s.inFlight = &req
		s.handedOff++
		s.lock.Unlock()

		return req.txn
	case <-idle:
		return nil
	}
}

// ItemDone reports that the consumer finished the current transaction and
// releases the producer waiting on it.
func (s *Sequencer) ItemDone() {
	s.lock.Lock()
	req := s.inFlight
	if req == nil {
		s.lock.Unlock()
		panic("sequencer: item done without an item in flight")
	}
	s.inFlight = nil
	s.completed++
	s.lock.Unlock()

	close(req.done)
}

// IsRunning tells if any sequence is running.
func (s *Sequencer) IsRunning() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.active > 0
}

// NumHandedOff returns the number of transactions taken by the consumer.
func (s *Sequencer) NumHandedOff() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.handedOff
}

// NumCompleted returns the number of transactions reported done.
func (s *Sequencer) NumCompleted() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.completed
}
