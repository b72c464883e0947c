package main

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
	"golang.org/x/term"
)

// envPrefix prefixes the environment variables that provide flag defaults.
const envPrefix = "AXISBENCH_"

var rootCmd = &cobra.Command{
	Use:   "axisbench",
	Short: "Stimulus bench for valid/ready stream interfaces.",
	Long: "axisbench generates constrained-random transactions, drives them " +
		"over a valid/ready handshake with randomized idle gaps and checks " +
		"the handshake rules on every cycle.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := applyEnvDefaults(cmd.Flags()); err != nil {
			return err
		}

		setupLogging(GetFlag(cmd, "verbose"), GetFlag(cmd, "trace"))

		return nil
	},
}

// Execute runs the root command and exits. Functions registered with atexit
// run before the process ends.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"increase logging verbosity")
	rootCmd.PersistentFlags().Bool("trace", false,
		"log every engine event")
}

// applyEnvDefaults sets every flag not given on the command line from the
// matching AXISBENCH_ environment variable, e.g. --min-delay from
// AXISBENCH_MIN_DELAY.
func applyEnvDefaults(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		name := envPrefix +
			strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		if value, ok := os.LookupEnv(name); ok {
			err = flags.Set(f.Name, value)
		}
	})

	return err
}

func setupLogging(verbose, trace bool) {
	colors := term.IsTerminal(int(os.Stderr.Fd()))

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   colors,
		DisableColors: !colors,
		FullTimestamp: true,
	})

	switch {
	case trace:
		log.SetLevel(log.TraceLevel)
	case verbose:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// GetFlag gets an expected boolean flag, or panics if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		panic(err)
	}

	return r
}
