package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/axisverif/datarecording"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [database]",
	Short: "Print the transfers recorded by a bench run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		transfers, err := datarecording.ReadTransfers(
			context.Background(), reader)
		if err != nil {
			return err
		}

		printTransfers(transfers, limit)

		return nil
	},
}

func init() {
	inspectCmd.Flags().Int("limit", 20, "number of transfers to print, 0 for all")
	rootCmd.AddCommand(inspectCmd)
}

func printTransfers(transfers []datarecording.TransferEntry, limit int) {
	var stalls, replays uint64
	for _, t := range transfers {
		stalls += t.StallCycles
		replays += uint64(t.Replays)
	}

	fmt.Printf("%d transfers, %d stall cycles, %d replays\n",
		len(transfers), stalls, replays)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tSTART\tEND\tSTALL\tIDLE\tLAST\tDATA")

	for i, t := range transfers {
		if limit > 0 && i >= limit {
			break
		}

		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%v\t%s\n",
			t.Seq, t.StartCycle, t.EndCycle, t.StallCycles, t.IdleAfter,
			t.LastBeat, t.Data)
	}

	w.Flush()
}
