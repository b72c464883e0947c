// Package driver provides the component that drives transactions over a
// valid/ready handshake.
package driver

import (
	"math/rand"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/sim"
	"github.com/sirupsen/logrus"
)

// State is the state of the driver's control flow.
type State int

// The states of the driver.
const (
	StateResetHold State = iota
	StateWaitRelease
	StateIdle
	StateDrive
	StatePostDelay
)

func (s State) String() string {
	switch s {
	case StateResetHold:
		return "ResetHold"
	case StateWaitRelease:
		return "WaitRelease"
	case StateIdle:
		return "Idle"
	case StateDrive:
		return "Drive"
	case StatePostDelay:
		return "PostDelay"
	default:
		return "Unknown"
	}
}

// An ItemSource hands transactions to the driver one at a time.
type ItemSource interface {
	// TryNextItem returns the next transaction, or nil if there is nothing
	// left to drive.
	TryNextItem() *axis.Transaction

	// ItemDone reports that the transaction returned by the last TryNextItem
	// call has been transferred.
	ItemDone()
}

// Stats counts what the driver did.
type Stats struct {
	Transfers   uint64
	StallCycles uint64
	IdleCycles  uint64
	ResetCycles uint64
	Replays     uint64
}

type neverReset struct{}

func (neverReset) Asserted() bool { return false }

// Comp is the protocol driver. It is a secondary ticking component, so in
// every cycle it observes the reset level set by primary events of the same
// cycle.
type Comp struct {
	*sim.TickingComponent

	log      *logrus.Entry
	widths   axis.Widths
	policy   DelayPolicy
	rng      *rand.Rand
	source   ItemSource
	receiver axis.Receiver
	reset    axis.ResetLine

	state       State
	valid       bool
	current     *axis.Transaction
	driveStart  sim.VTimeInCycle
	stallCycles uint64
	replays     int
	delayLeft   int
	fault       error
	stats       Stats
}

// Configure replaces the delay policy. An invalid policy is rejected and the
// previous one is kept.
func (c *Comp) Configure(minDelay, maxDelay int) error {
	p := DelayPolicy{Min: minDelay, Max: maxDelay}
	if err := p.Validate(c.Name()); err != nil {
		return err
	}

	c.policy = p

	return nil
}

// Policy returns the delay policy.
func (c *Comp) Policy() DelayPolicy {
	return c.policy
}

// State returns the current state.
func (c *Comp) State() State {
	return c.state
}

// Valid tells if valid was asserted in the last tick.
func (c *Comp) Valid() bool {
	return c.valid
}

// Current returns the transaction being driven or waiting to be replayed.
func (c *Comp) Current() *axis.Transaction {
	return c.current
}

// Stats returns the counters of the driver.
func (c *Comp) Stats() Stats {
	return c.stats
}

// Fault returns the fatal error that stopped the driver, if any.
func (c *Comp) Fault() error {
	return c.fault
}

// NotifyItemAvailable wakes the driver up when a sequence starts.
func (c *Comp) NotifyItemAvailable() {
	c.TickLater()
}

// NotifyReset wakes the driver up when the reset line changes.
func (c *Comp) NotifyReset(_ bool) {
	c.TickNow()
}

// Tick advances the driver by one cycle.
func (c *Comp) Tick() bool {
	if c.fault != nil {
		return false
	}

	now := c.CurrentTime()

	if c.reset.Asserted() {
		c.holdReset(now)
		return true
	}

	switch c.state {
	case StateResetHold:
		c.state = StateWaitRelease
		c.valid = false
		c.countDelay()
		c.publish(now, false)

		return true
	case StateWaitRelease, StateIdle:
		if c.delayLeft > 0 {
			c.state = StatePostDelay
			return c.idle(now)
		}

		c.state = StateIdle

		return c.fetchAndDrive(now)
	case StateDrive:
		return c.drive(now)
	case StatePostDelay:
		return c.idle(now)
	}

	panic("driver: unknown state")
}

func (c *Comp) holdReset(now sim.VTimeInCycle) {
	if c.state != StateResetHold {
		entry := c.log.WithField("cycle", now)
		if c.current != nil {
			entry = entry.WithField("replay", c.current.Seq())
		}
		entry.Info("reset asserted")
	}

	c.state = StateResetHold
	c.valid = false
	c.countDelay()
	c.stats.ResetCycles++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    axis.HookPosLinesDriven,
		Item:   axis.LineSample{Cycle: now, Reset: true},
	})
}

func (c *Comp) fetchAndDrive(now sim.VTimeInCycle) bool {
	if c.current == nil {
		txn := c.source.TryNextItem()
		if txn == nil {
			c.valid = false
			c.publish(now, false)
			c.stats.IdleCycles++

			return false
		}

		if err := c.widths.Match(txn.Widths()); err != nil {
			c.fail(now, err)
			return false
		}

		c.current = txn
		c.replays = 0
	} else {
		c.replays++
		c.stats.Replays++
		c.log.WithFields(logrus.Fields{
			"cycle": now,
			"seq":   c.current.Seq(),
		}).Info("replaying transaction interrupted by reset")
	}

	c.state = StateDrive
	c.driveStart = now
	c.stallCycles = 0

	return c.drive(now)
}

func (c *Comp) drive(now sim.VTimeInCycle) bool {
	c.valid = true
	ready := c.receiver.Ready(now)
	c.publish(now, ready)

	if !ready {
		c.stallCycles++
		c.stats.StallCycles++

		return true
	}

	c.complete(now)

	return true
}

func (c *Comp) complete(now sim.VTimeInCycle) {
	txn := c.current
	c.receiver.Accept(now, txn)

	delay := c.policy.Sample(c.rng)
	record := axis.TransferRecord{
		TxnID:       txn.ID(),
		Seq:         txn.Seq(),
		StartCycle:  c.driveStart,
		EndCycle:    now,
		StallCycles: c.stallCycles,
		IdleAfter:   delay,
		Replays:     c.replays,
	}

	c.current = nil
	c.stats.Transfers++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    axis.HookPosTransferDone,
		Item:   txn,
		Detail: record,
	})

	c.log.WithFields(logrus.Fields{
		"cycle": now,
		"seq":   txn.Seq(),
		"stall": record.StallCycles,
		"delay": delay,
	}).Debug("transfer done")

	c.source.ItemDone()

	if delay == 0 {
		c.state = StateIdle
		return
	}

	c.state = StatePostDelay
	c.delayLeft = delay
}

func (c *Comp) idle(now sim.VTimeInCycle) bool {
	c.valid = false
	c.publish(now, false)
	c.stats.IdleCycles++

	c.delayLeft--
	if c.delayLeft <= 0 {
		c.state = StateIdle
	}

	return true
}

// countDelay consumes one cycle of the pending post-transfer delay. Cycles
// spent in reset or waiting for release keep valid low, so they count.
func (c *Comp) countDelay() {
	if c.delayLeft > 0 {
		c.delayLeft--
	}
}

func (c *Comp) publish(now sim.VTimeInCycle, ready bool) {
	sample := axis.LineSample{
		Cycle: now,
		Valid: c.valid,
		Ready: ready,
	}

	if c.valid {
		sample.Payload = c.current
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    axis.HookPosLinesDriven,
		Item:   sample,
	})
}

func (c *Comp) fail(now sim.VTimeInCycle, err error) {
	c.fault = err
	c.valid = false

	c.log.WithError(err).WithField("cycle", now).Error("driver halted")
}
