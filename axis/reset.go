package axis

import (
	"sync"

	"github.com/sarchlab/axisverif/sim"
)

// HookPosResetChanged marks a change of the reset line. The item is the new
// level.
var HookPosResetChanged = &sim.HookPos{Name: "Reset Changed"}

// A ResetLine tells whether the reset is currently asserted.
type ResetLine interface {
	Asserted() bool
}

// A ResetListener is notified when the reset line changes.
type ResetListener interface {
	NotifyReset(asserted bool)
}

type resetEvent struct {
	*sim.EventBase
	assert bool
}

// ResetController drives a reset line from events scheduled on the engine.
// Its events are primary events, so a secondary ticking component observes
// the new level in the same cycle.
type ResetController struct {
	*sim.ComponentBase

	engine    sim.EventScheduler
	lock      sync.RWMutex
	asserted  bool
	listeners []ResetListener
}

// NewResetController creates a ResetController with the line deasserted.
func NewResetController(
	name string,
	engine sim.EventScheduler,
) *ResetController {
	return &ResetController{
		ComponentBase: sim.NewComponentBase(name),
		engine:        engine,
	}
}

// AddListener registers a listener.
func (c *ResetController) AddListener(l ResetListener) {
	c.listeners = append(c.listeners, l)
}

// AssertAt asserts the reset line at the given cycle.
func (c *ResetController) AssertAt(cycle sim.VTimeInCycle) {
	c.engine.Schedule(resetEvent{
		EventBase: sim.NewEventBase(cycle, c),
		assert:    true,
	})
}

// DeassertAt deasserts the reset line at the given cycle.
func (c *ResetController) DeassertAt(cycle sim.VTimeInCycle) {
	c.engine.Schedule(resetEvent{
		EventBase: sim.NewEventBase(cycle, c),
		assert:    false,
	})
}

// Pulse asserts the reset line at the start cycle and holds it for the given
// number of cycles. A zero length pulse is ignored.
func (c *ResetController) Pulse(start sim.VTimeInCycle, cycles uint64) {
	if cycles == 0 {
		return
	}

	c.AssertAt(start)
	c.DeassertAt(start + sim.VTimeInCycle(cycles))
}

// Asserted tells if the reset line is asserted.
func (c *ResetController) Asserted() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.asserted
}

// Handle applies a scheduled reset change.
func (c *ResetController) Handle(e sim.Event) error {
	evt, ok := e.(resetEvent)
	if !ok {
		return nil
	}

	c.lock.Lock()
	changed := c.asserted != evt.assert
	c.asserted = evt.assert
	c.lock.Unlock()

	if !changed {
		return nil
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosResetChanged,
		Item:   evt.assert,
	})

	for _, l := range c.listeners {
		l.NotifyReset(evt.assert)
	}

	return nil
}
