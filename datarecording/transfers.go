package datarecording

import (
	"fmt"
	"sync"

	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/sim"
	"github.com/sirupsen/logrus"
)

// Table names used by the TransferRecorder.
const (
	TransferTable = "transfers"
	ResetTable    = "resets"
)

// TransferEntry is a row of the transfer table. Wide values are stored as hex
// strings.
type TransferEntry struct {
	ID          string
	Driver      string
	Seq         uint64
	StartCycle  uint64
	EndCycle    uint64
	StallCycles uint64
	IdleAfter   int
	Replays     int
	Data        string
	Strb        string
	Keep        string
	LastBeat    bool
	TID         string
	TDest       string
	TUser       string
}

// ResetEntry is a row of the reset table.
type ResetEntry struct {
	Source   string
	Cycle    uint64
	Asserted bool
}

// TransferRecorder is a hook that stores every completed transfer and every
// reset change.
type TransferRecorder struct {
	recorder DataRecorder
	clock    sim.TimeTeller
	log      *logrus.Entry

	lock     sync.Mutex
	err      error
	recorded uint64
}

// NewTransferRecorder creates the tables and returns the hook. The clock
// timestamps reset changes.
func NewTransferRecorder(
	recorder DataRecorder,
	clock sim.TimeTeller,
) (*TransferRecorder, error) {
	if err := recorder.CreateTable(TransferTable, TransferEntry{}); err != nil {
		return nil, err
	}

	if err := recorder.CreateTable(ResetTable, ResetEntry{}); err != nil {
		return nil, err
	}

	return &TransferRecorder{
		recorder: recorder,
		clock:    clock,
		log:      logrus.WithField("component", "recorder"),
	}, nil
}

// Func implements sim.Hook.
func (r *TransferRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case axis.HookPosTransferDone:
		r.recordTransfer(ctx)
	case axis.HookPosResetChanged:
		r.recordReset(ctx)
	}
}

func domainName(d sim.Hookable) string {
	if n, ok := d.(sim.Named); ok {
		return n.Name()
	}

	return ""
}

func (r *TransferRecorder) recordTransfer(ctx sim.HookCtx) {
	txn, ok := ctx.Item.(*axis.Transaction)
	if !ok {
		return
	}

	rec, _ := ctx.Detail.(axis.TransferRecord)

	r.insert(TransferTable, TransferEntry{
		ID:          txn.ID(),
		Driver:      domainName(ctx.Domain),
		Seq:         txn.Seq(),
		StartCycle:  uint64(rec.StartCycle),
		EndCycle:    uint64(rec.EndCycle),
		StallCycles: rec.StallCycles,
		IdleAfter:   rec.IdleAfter,
		Replays:     rec.Replays,
		Data:        fmt.Sprintf("%#x", txn.Data()),
		Strb:        fmt.Sprintf("%#x", txn.Strb()),
		Keep:        fmt.Sprintf("%#x", txn.Keep()),
		LastBeat:    txn.Last(),
		TID:         fmt.Sprintf("%#x", txn.TID()),
		TDest:       fmt.Sprintf("%#x", txn.TDest()),
		TUser:       fmt.Sprintf("%#x", txn.TUser()),
	})
}

func (r *TransferRecorder) recordReset(ctx sim.HookCtx) {
	asserted, ok := ctx.Item.(bool)
	if !ok {
		return
	}

	r.insert(ResetTable, ResetEntry{
		Source:   domainName(ctx.Domain),
		Cycle:    uint64(r.clock.CurrentTime()),
		Asserted: asserted,
	})
}

func (r *TransferRecorder) insert(tableName string, entry any) {
	err := r.recorder.InsertData(tableName, entry)

	r.lock.Lock()
	defer r.lock.Unlock()

	if err != nil {
		if r.err == nil {
			r.err = err
			r.log.WithError(err).Error("recording failed")
		}

		return
	}

	r.recorded++
}

// NumRecorded returns the number of rows buffered or written.
func (r *TransferRecorder) NumRecorded() uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.recorded
}

// Err returns the first error met while recording.
func (r *TransferRecorder) Err() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.err
}
