package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/sarchlab/axisverif/bench"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errViolations = errors.New("handshake rules were broken")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a bench.",
	Long: "Run a bench built from the defaults, an optional --config file " +
		"(YAML or JSON), AXISBENCH_* environment variables and flags, in " +
		"increasing order of precedence.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		return runBench(cmd, cfg)
	},
}

func init() {
	addRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(f *pflag.FlagSet) {
	d := bench.DefaultConfig()

	f.String("config", "", "YAML or JSON bench configuration file")
	f.String("name", d.Name, "name of the bench")
	f.Int64("seed", d.Seed, "seed of all random sources")
	f.Int("count", 0,
		"number of transactions per generator run, required unless the "+
			"config file sets it")
	f.Int("runs", d.Runs, "number of generator runs")
	f.Int("packet-length", d.PacketLength, "beats per packet")
	f.Int("data-width", d.Widths.Data, "width of tdata in bits")
	f.Int("id-width", d.Widths.ID, "width of tid in bits")
	f.Int("dest-width", d.Widths.Dest, "width of tdest in bits")
	f.Int("user-width", d.Widths.User, "width of tuser in bits")
	f.Int("min-delay", d.Delay.Min, "minimum delay between transfers")
	f.Int("max-delay", d.Delay.Max, "maximum delay between transfers")
	f.String("receiver", d.Receiver.Kind,
		"receiver kind: always, random or scripted; the ready pattern of "+
			"scripted can only be set in a config file")
	f.Float64("ready-prob", d.Receiver.Probability,
		"probability of ready for the random receiver")
	f.Uint64("reset-cycles", d.Resets[0].Cycles,
		"length of the reset pulse at cycle 0")
	f.Bool("record", false, "record transfers into a SQLite database")
	f.String("record-path", "", "database path without the .sqlite3 suffix")
	f.Bool("monitor", false, "serve the HTTP monitor while running")
	f.Int("monitor-port", 0, "port of the monitor, random if 0")
	f.Bool("open-browser", false, "open the monitor in a browser")
	f.Bool("json", false, "print the report as JSON")
}

func configFromFlags(f *pflag.FlagSet) (bench.Config, error) {
	cfg := bench.DefaultConfig()

	if path, _ := f.GetString("config"); path != "" {
		loaded, err := bench.LoadFile(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	setters := map[string]func(){
		"name": func() { cfg.Name, _ = f.GetString("name") },
		"seed": func() { cfg.Seed, _ = f.GetInt64("seed") },
		"count": func() {
			count, _ := f.GetInt("count")
			cfg.SetCount(count)
		},
		"runs":          func() { cfg.Runs, _ = f.GetInt("runs") },
		"packet-length": func() { cfg.PacketLength, _ = f.GetInt("packet-length") },
		"data-width":    func() { cfg.Widths.Data, _ = f.GetInt("data-width") },
		"id-width":      func() { cfg.Widths.ID, _ = f.GetInt("id-width") },
		"dest-width":    func() { cfg.Widths.Dest, _ = f.GetInt("dest-width") },
		"user-width":    func() { cfg.Widths.User, _ = f.GetInt("user-width") },
		"min-delay":     func() { cfg.Delay.Min, _ = f.GetInt("min-delay") },
		"max-delay":     func() { cfg.Delay.Max, _ = f.GetInt("max-delay") },
		"receiver":      func() { cfg.Receiver.Kind, _ = f.GetString("receiver") },
		"ready-prob": func() {
			cfg.Receiver.Probability, _ = f.GetFloat64("ready-prob")
		},
		"reset-cycles": func() {
			cycles, _ := f.GetUint64("reset-cycles")
			cfg.Resets = []bench.ResetPulse{{Start: 0, Cycles: cycles}}
		},
		"record":      func() { cfg.Record.Enabled, _ = f.GetBool("record") },
		"record-path": func() { cfg.Record.Path, _ = f.GetString("record-path") },
		"monitor":     func() { cfg.Monitor.Enabled, _ = f.GetBool("monitor") },
		"monitor-port": func() {
			cfg.Monitor.Port, _ = f.GetInt("monitor-port")
		},
	}

	f.Visit(func(flag *pflag.Flag) {
		if set, ok := setters[flag.Name]; ok {
			set()
		}
	})

	return cfg, cfg.Validate()
}

func runBench(cmd *cobra.Command, cfg bench.Config) error {
	b, err := bench.Build(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	log.WithFields(log.Fields{
		"run":   b.RunID(),
		"count": cfg.TransactionCount(),
		"runs":  cfg.Runs,
		"seed":  cfg.Seed,
	}).Info("bench built")

	url, err := b.StartMonitor()
	if err != nil {
		return err
	}

	if url != "" && GetFlag(cmd, "open-browser") {
		if err := browser.OpenURL(url); err != nil {
			log.WithError(err).Warn("failed to open browser")
		}
	}

	report, err := b.Run()
	if err != nil {
		return err
	}

	if GetFlag(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		report.Print(os.Stdout)
	}

	if !report.Passed() {
		return fmt.Errorf("%w: %d violations",
			errViolations, len(report.Violations))
	}

	return nil
}
