package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicebridge/pkg/calllog"
	"github.com/haivivi/voicebridge/pkg/cli"
	"github.com/haivivi/voicebridge/pkg/kv"
)

var callsFlags struct {
	limit     int
	olderThan time.Duration
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect the call ledger",
	Long: `Inspect calls recorded by 'voicebridge serve'.

The ledger is locked while the server runs; stop it first or point
--data-dir of the server elsewhere.`,
}

// recordList renders call records as a table.
type recordList []calllog.Record

func (l recordList) Table() *cli.Table {
	t := cli.NewTable("CALL", "STATUS", "STREAM", "STARTED", "DURATION", "ITEMS", "BARGE-INS", "DROPPED")
	for _, r := range l {
		t.Append(
			r.ID,
			string(r.Status),
			r.StreamID,
			cli.FormatTime(r.StartedAt),
			cli.FormatDuration(r.Duration()),
			strconv.Itoa(r.ItemsCompleted+r.ItemsTruncated),
			strconv.FormatInt(r.Stats.Truncations, 10),
			strconv.FormatInt(r.Stats.FramesDropped+r.Stats.DeltasDropped, 10),
		)
	}
	t.Highlight = func(row int) bool {
		return row >= 0 && row < len(l) && l[row].Status == calllog.StatusFailed
	}
	return t
}

func openLedger() (*calllog.Ledger, kv.Store, error) {
	cfg, b, err := loadBridge()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg, b)
	if err != nil {
		return nil, nil, err
	}
	return calllog.New(store, nil), store, nil
}

var callsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := ledger.List(cmd.Context(), callsFlags.limit)
		if err != nil {
			return err
		}
		if len(records) == 0 && formatOutput == "table" {
			fmt.Fprintln(cmd.OutOrStdout(), "No calls recorded.")
			return nil
		}
		return output(cmd, recordList(records))
	},
}

var callsGetCmd = &cobra.Command{
	Use:   "get <call-id>",
	Short: "Show one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		r, err := ledger.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(cmd, r)
	},
}

var callsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete finished calls older than --older-than",
	RunE: func(cmd *cobra.Command, args []string) error {
		if callsFlags.olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		ledger, store, err := openLedger()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := ledger.Prune(cmd.Context(), time.Now().Add(-callsFlags.olderThan))
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Removed %d call(s).", n)
		return nil
	},
}

func init() {
	callsListCmd.Flags().IntVar(&callsFlags.limit, "limit", 20, "maximum number of calls (0 for all)")
	callsPruneCmd.Flags().DurationVar(&callsFlags.olderThan, "older-than", 30*24*time.Hour, "age of calls to delete")

	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsGetCmd)
	callsCmd.AddCommand(callsPruneCmd)
	rootCmd.AddCommand(callsCmd)
}
