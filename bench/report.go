package bench

import (
	"fmt"
	"io"
	"sync"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/sim"
)

// statsHook counts the boundary values seen on completed transfers.
type statsHook struct {
	lock      sync.Mutex
	transfers uint64
	zeros     uint64
	allOnes   uint64
	lastBeats uint64
}

func (h *statsHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != axis.HookPosTransferDone {
		return
	}

	txn, ok := ctx.Item.(*axis.Transaction)
	if !ok {
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	h.transfers++

	switch {
	case txn.IsZero():
		h.zeros++
	case txn.IsAllOnes():
		h.allOnes++
	}

	if txn.Last() {
		h.lastBeats++
	}
}

// RunReport summarizes a bench run.
type RunReport struct {
	Name         string           `json:"name"`
	RunID        string           `json:"run_id"`
	Transactions uint64           `json:"transactions"`
	Cycles       sim.VTimeInCycle `json:"cycles"`
	ZeroValues   uint64           `json:"zero_values"`
	AllOnes      uint64           `json:"all_ones"`
	LastBeats    uint64           `json:"last_beats"`
	StallCycles  uint64           `json:"stall_cycles"`
	IdleCycles   uint64           `json:"idle_cycles"`
	ResetCycles  uint64           `json:"reset_cycles"`
	Replays      uint64           `json:"replays"`
	MinGap       int              `json:"min_gap"`
	MaxGap       int              `json:"max_gap"`
	Violations   []axis.Violation `json:"violations"`
	RecordedTo   string           `json:"recorded_to,omitempty"`
}

// BoundaryRatio returns the share of transfers carrying a boundary value.
func (r *RunReport) BoundaryRatio() float64 {
	if r.Transactions == 0 {
		return 0
	}

	return float64(r.ZeroValues+r.AllOnes) / float64(r.Transactions)
}

// Passed tells if no handshake rule was broken.
func (r *RunReport) Passed() bool {
	return len(r.Violations) == 0
}

func (b *Bench) report() *RunReport {
	b.stats.lock.Lock()
	defer b.stats.lock.Unlock()

	drvStats := b.Driver.Stats()

	r := &RunReport{
		Name:         b.cfg.Name,
		RunID:        b.runID,
		Transactions: b.stats.transfers,
		Cycles:       b.Engine.CurrentTime(),
		ZeroValues:   b.stats.zeros,
		AllOnes:      b.stats.allOnes,
		LastBeats:    b.stats.lastBeats,
		StallCycles:  drvStats.StallCycles,
		IdleCycles:   drvStats.IdleCycles,
		ResetCycles:  drvStats.ResetCycles,
		Replays:      drvStats.Replays,
		Violations:   b.Checker.Violations(),
		RecordedTo:   b.recordedTo,
	}

	gaps := b.Checker.GapStats()
	r.MinGap = gaps.Min
	r.MaxGap = gaps.Max

	return r
}

// Print writes a human readable summary.
func (r *RunReport) Print(w io.Writer) {
	fmt.Fprintf(w, "bench %s (run %s)\n", r.Name, r.RunID)
	fmt.Fprintf(w, "  transactions:   %d in %d cycles\n",
		r.Transactions, r.Cycles)
	fmt.Fprintf(w, "  boundary data:  %d zero, %d all-ones (%.2f%%)\n",
		r.ZeroValues, r.AllOnes, 100*r.BoundaryRatio())
	fmt.Fprintf(w, "  stall/idle:     %d/%d cycles\n",
		r.StallCycles, r.IdleCycles)
	fmt.Fprintf(w, "  reset:          %d cycles, %d replays\n",
		r.ResetCycles, r.Replays)
	fmt.Fprintf(w, "  idle gaps:      [%d, %d]\n", r.MinGap, r.MaxGap)

	if r.RecordedTo != "" {
		fmt.Fprintf(w, "  recorded to:    %s\n", r.RecordedTo)
	}

	if r.Passed() {
		fmt.Fprintln(w, "  result:         PASS")
		return
	}

	fmt.Fprintf(w, "  result:         FAIL (%d violations)\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(w, "    %s\n", v)
	}
}
