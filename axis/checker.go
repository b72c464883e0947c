package axis

import (
	"fmt"
	"sync"

	"github.com/sarchlab/axisverif/sim"
)

// Rules reported by the ProtocolChecker.
const (
	RuleValidDuringReset  = "valid-during-reset"
	RuleValidOnRelease    = "valid-on-reset-release"
	RuleValidDropped      = "valid-dropped"
	RulePayloadChanged    = "payload-changed"
	RuleIdleGapTooShort   = "idle-gap-too-short"
	RuleUnexpectedPayload = "unexpected-payload"
)

// A Violation is a handshake rule broken in a cycle.
type Violation struct {
	Cycle   sim.VTimeInCycle
	Rule    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("cycle %d: %s: %s", v.Cycle, v.Rule, v.Message)
}

// ProtocolChecker is a hook that watches the lines published by a driver and
// records every broken handshake rule. Violations are collected, not fatal.
type ProtocolChecker struct {
	lock sync.Mutex

	minIdle int

	started    bool
	inReset    bool
	prev       LineSample
	afterFire  bool
	idleRun    int
	history    bool
	gaps       []int
	gapStats   GapStats
	violations []Violation
	samples    uint64
}

// GapStats summarizes the idle gaps observed between consecutive transfers.
type GapStats struct {
	Count uint64
	Min   int
	Max   int
}

func (g *GapStats) add(gap int) {
	if g.Count == 0 || gap < g.Min {
		g.Min = gap
	}

	if gap > g.Max {
		g.Max = gap
	}

	g.Count++
}

// NewProtocolChecker creates a checker that requires at least minIdle
// deasserted cycles after each transfer.
func NewProtocolChecker(minIdle int) *ProtocolChecker {
	return &ProtocolChecker{
		minIdle: minIdle,
		inReset: true,
	}
}

// WithHistory makes the checker keep every observed gap, see Gaps.
func (c *ProtocolChecker) WithHistory() *ProtocolChecker {
	c.history = true
	return c
}

// Func implements sim.Hook.
func (c *ProtocolChecker) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosLinesDriven {
		return
	}

	sample, ok := ctx.Item.(LineSample)
	if !ok {
		return
	}

	c.Check(sample)
}

// Check feeds one sample into the checker. Samples must arrive in cycle order.
func (c *ProtocolChecker) Check(s LineSample) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.samples++

	switch {
	case s.Reset:
		c.checkReset(s)
	case c.inReset:
		c.checkRelease(s)
	default:
		c.checkStable(s)
		c.checkGap(s)
	}

	c.started = true
	c.prev = s
}

func (c *ProtocolChecker) checkReset(s LineSample) {
	if s.Valid {
		c.report(s.Cycle, RuleValidDuringReset, "valid asserted while in reset")
	}

	c.inReset = true
	c.countIdle(s)
}

func (c *ProtocolChecker) checkRelease(s LineSample) {
	if s.Valid {
		c.report(s.Cycle, RuleValidOnRelease,
			"valid asserted in the first cycle after reset")
	}

	c.inReset = false
	c.countIdle(s)
}

// countIdle extends the idle run after a transfer. Reset does not end the
// run: the delay after a transfer holds across a reset.
func (c *ProtocolChecker) countIdle(s LineSample) {
	if c.afterFire && !s.Valid {
		c.idleRun++
	}
}

func (c *ProtocolChecker) checkStable(s LineSample) {
	if !c.started || !c.prev.Valid || c.prev.Ready || c.prev.Reset {
		return
	}

	if !s.Valid {
		c.report(s.Cycle, RuleValidDropped,
			"valid deasserted before ready was observed")
		return
	}

	if s.Payload == nil || !s.Payload.Equal(c.prev.Payload) {
		c.report(s.Cycle, RulePayloadChanged,
			fmt.Sprintf("payload changed from %v to %v while stalled",
				c.prev.Payload, s.Payload))
	}
}

func (c *ProtocolChecker) checkGap(s LineSample) {
	if s.Valid && s.Payload == nil {
		c.report(s.Cycle, RuleUnexpectedPayload, "valid asserted without payload")
	}

	if c.afterFire {
		if s.Valid {
			c.gapStats.add(c.idleRun)
			if c.history {
				c.gaps = append(c.gaps, c.idleRun)
			}

			if c.idleRun < c.minIdle {
				c.report(s.Cycle, RuleIdleGapTooShort,
					fmt.Sprintf("%d idle cycles, at least %d required",
						c.idleRun, c.minIdle))
			}

			c.afterFire = false
		} else {
			c.idleRun++
		}
	}

	if s.Fired() {
		c.afterFire = true
		c.idleRun = 0
	}
}

func (c *ProtocolChecker) report(cycle sim.VTimeInCycle, rule, msg string) {
	c.violations = append(c.violations, Violation{
		Cycle:   cycle,
		Rule:    rule,
		Message: msg,
	})
}

// Violations returns the violations found so far.
func (c *ProtocolChecker) Violations() []Violation {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := make([]Violation, len(c.violations))
	copy(out, c.violations)

	return out
}

// Gaps returns the idle gaps observed between consecutive transfers. It is
// empty unless the checker was created WithHistory.
func (c *ProtocolChecker) Gaps() []int {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := make([]int, len(c.gaps))
	copy(out, c.gaps)

	return out
}

// GapStats returns the count and the range of the observed gaps.
func (c *ProtocolChecker) GapStats() GapStats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.gapStats
}

// NumSamples returns the number of cycles checked.
func (c *ProtocolChecker) NumSamples() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.samples
}
