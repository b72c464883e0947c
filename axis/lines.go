package axis

import "github.com/sarchlab/axisverif/sim"

// HookPosLinesDriven marks the end of every driver tick. The hook item is a
// LineSample.
var HookPosLinesDriven = &sim.HookPos{Name: "Lines Driven"}

// HookPosTransferDone marks a completed handshake. The hook item is the
// *Transaction and the detail is a TransferRecord.
var HookPosTransferDone = &sim.HookPos{Name: "Transfer Done"}

// A LineSample is what the receiver observes on the interface in one cycle.
// Payload is meaningless when Valid is low.
type LineSample struct {
	Cycle   sim.VTimeInCycle
	Reset   bool
	Valid   bool
	Ready   bool
	Payload *Transaction
}

// Fired tells if a transfer completed in the cycle.
func (s LineSample) Fired() bool {
	return s.Valid && s.Ready
}

// A TransferRecord summarizes one completed transfer.
type TransferRecord struct {
	TxnID       string
	Seq         uint64
	StartCycle  sim.VTimeInCycle
	EndCycle    sim.VTimeInCycle
	StallCycles uint64
	IdleAfter   int
	Replays     int
}
