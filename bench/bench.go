// Package bench wires a generator, a driver and a receiver into a runnable
// test bench.
package bench

import (
	"math/rand"

	"github.com/rs/xid"
	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/datarecording"
	"github.com/sarchlab/axisverif/driver"
	"github.com/sarchlab/axisverif/monitoring"
	"github.com/sarchlab/axisverif/sequencer"
	"github.com/sarchlab/axisverif/sim"
	"github.com/sirupsen/logrus"
)

// A CountingReceiver is a receiver that counts what it accepted.
type CountingReceiver interface {
	axis.Receiver
	NumAccepted() uint64
}

// Bench owns every component of a run.
type Bench struct {
	cfg   Config
	runID string
	log   *logrus.Entry

	Engine    *sim.SerialEngine
	Reset     *axis.ResetController
	Receiver  CountingReceiver
	Sequencer *sequencer.Sequencer
	Generator *sequencer.Generator
	Driver    *driver.Comp
	Checker   *axis.ProtocolChecker

	stats *statsHook

	recorder     datarecording.DataRecorder
	recordHook   *datarecording.TransferRecorder
	recordedTo   string
	monitor      *monitoring.Monitor
	progress     *monitoring.ProgressBar
	kickedOff    bool
	completedRun int
}

// Build validates the configuration and creates all the components.
func Build(cfg Config) (*Bench, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bench{
		cfg:   cfg,
		runID: xid.New().String(),
	}
	b.log = logrus.WithFields(logrus.Fields{
		"bench": cfg.Name,
		"run":   b.runID,
	})

	master := rand.New(rand.NewSource(cfg.Seed))
	genRng := rand.New(rand.NewSource(master.Int63()))
	delayRng := rand.New(rand.NewSource(master.Int63()))
	readyRng := rand.New(rand.NewSource(master.Int63()))

	b.Engine = sim.NewSerialEngine()
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		b.Engine.AcceptHook(sim.NewEventLogger(b.log))
	}

	b.Reset = axis.NewResetController(cfg.Name+".Reset", b.Engine)
	b.Receiver = buildReceiver(cfg.Receiver, readyRng)

	b.Sequencer = sequencer.New(cfg.Name + ".Sequencer")
	b.Sequencer.SetLogger(b.componentLogger(b.Sequencer.Name()))

	var err error

	genName := cfg.Name + ".Generator"
	b.Generator, err = sequencer.MakeGeneratorBuilder().
		WithCount(cfg.TransactionCount()).
		WithWidths(cfg.Widths).
		WithPacketLength(cfg.PacketLength).
		WithRand(genRng).
		WithLogger(b.componentLogger(genName)).
		Build(genName)
	if err != nil {
		return nil, err
	}

	drvName := cfg.Name + ".Driver"
	b.Driver, err = driver.MakeBuilder().
		WithEngine(b.Engine).
		WithWidths(cfg.Widths).
		WithDelay(cfg.Delay.Min, cfg.Delay.Max).
		WithRand(delayRng).
		WithSource(b.Sequencer).
		WithReceiver(b.Receiver).
		WithResetLine(b.Reset).
		WithLogger(b.componentLogger(drvName)).
		Build(drvName)
	if err != nil {
		return nil, err
	}

	b.Sequencer.SetWaker(b.Driver)
	b.Reset.AddListener(b.Driver)

	for _, p := range cfg.Resets {
		b.Reset.Pulse(sim.VTimeInCycle(p.Start), p.Cycles)
	}

	b.Checker = axis.NewProtocolChecker(cfg.Delay.Min - 1)
	b.Driver.AcceptHook(b.Checker)

	b.stats = &statsHook{}
	b.Driver.AcceptHook(b.stats)

	if err := b.setupRecording(); err != nil {
		return nil, err
	}

	b.setupMonitor()

	return b, nil
}

func (b *Bench) componentLogger(name string) *logrus.Entry {
	return b.log.WithField("component", name)
}

func buildReceiver(cfg ReceiverConfig, rng *rand.Rand) CountingReceiver {
	switch cfg.Kind {
	case ReceiverRandom:
		return axis.NewRandomReceiver(cfg.Probability, rng)
	case ReceiverScripted:
		return axis.NewScriptedReceiver(cfg.Pattern, cfg.Default)
	default:
		return axis.NewAlwaysReady()
	}
}

func (b *Bench) setupRecording() error {
	if !b.cfg.Record.Enabled {
		return nil
	}

	path := b.cfg.Record.Path
	if path == "" {
		path = b.cfg.Name + "_" + b.runID
	}

	recorder, err := datarecording.New(path)
	if err != nil {
		return err
	}

	hook, err := datarecording.NewTransferRecorder(recorder, b.Engine)
	if err != nil {
		recorder.Close()
		return err
	}

	b.Driver.AcceptHook(hook)
	b.Reset.AcceptHook(hook)

	b.recorder = recorder
	b.recordHook = hook
	b.recordedTo = path + ".sqlite3"

	return nil
}

func (b *Bench) setupMonitor() {
	if !b.cfg.Monitor.Enabled {
		return
	}

	b.monitor = monitoring.NewMonitor().WithPortNumber(b.cfg.Monitor.Port)
	b.monitor.RegisterEngine(b.Engine)
	b.monitor.RegisterComponent(b.Driver)
	b.monitor.RegisterComponent(b.Reset)

	total := uint64(b.cfg.TransactionCount()) * uint64(b.cfg.Runs)
	b.progress = b.monitor.CreateProgressBar("Transfers", total)
	b.Driver.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos == axis.HookPosTransferDone {
			b.progress.IncrementFinished(1)
		}
	}))
}

// RunID returns the unique ID of the bench.
func (b *Bench) RunID() string {
	return b.runID
}

// Config returns the configuration the bench was built from.
func (b *Bench) Config() Config {
	return b.cfg
}

// StartMonitor starts the monitor server and returns its URL. It returns an
// empty URL when the monitor is disabled.
func (b *Bench) StartMonitor() (string, error) {
	if b.monitor == nil {
		return "", nil
	}

	return b.monitor.StartServer()
}

// Run runs the generator the configured number of times and the engine until
// all transactions are transferred. A protocol mismatch stops the run with an
// error.
func (b *Bench) Run() (*RunReport, error) {
	if !b.kickedOff {
		b.Driver.TickNow()
		b.kickedOff = true
	}

	for b.completedRun < b.cfg.Runs {
		b.log.WithField("round", b.completedRun).Info("starting generator")

		done := b.Sequencer.Start(b.Generator)

		if err := b.Engine.Run(); err != nil {
			b.log.WithError(err).Error("engine stopped")
			return nil, err
		}

		if err := <-done; err != nil {
			return nil, err
		}

		b.completedRun++
	}

	if b.recordHook != nil {
		if err := b.recordHook.Err(); err != nil {
			return nil, err
		}

		if err := b.recorder.Flush(); err != nil {
			return nil, err
		}
	}

	if b.progress != nil {
		b.monitor.CompleteProgressBar(b.progress)
	}

	return b.report(), nil
}

// Close flushes the recorder and stops the monitor.
func (b *Bench) Close() error {
	if b.monitor != nil {
		if err := b.monitor.StopServer(); err != nil {
			return err
		}
	}

	if b.recorder != nil {
		return b.recorder.Close()
	}

	return nil
}
