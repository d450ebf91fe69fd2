package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/db"
)

func init() {
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded training runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		ledger, err := db.Open(e.cfg.Paths.LedgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()

		ctx := cmd.Context()
		runs, err := ledger.List(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}

		var mirrored map[string]bool
		if e.cfg.Mirror.Enabled() {
			ids := make([]string, len(runs))
			for i, r := range runs {
				ids[i] = r.ID
			}
			m, err := db.NewMirror(e.cfg.Mirror.Endpoint, e.cfg.Mirror.Region, e.cfg.Mirror.Table)
			if err == nil {
				mirrored, err = m.Mirrored(ctx, ids)
			}
			if err != nil {
				e.logger.Warn("mirror lookup failed", "error", err)
			}
		}

		cols := []column{
			label("Started"), label("Checkpoint"), number("Best epoch"), number("Dev acc"),
			number("Test acc"), number("Epochs"), label("Stop"), number("Duration"),
		}
		if mirrored != nil {
			cols = append(cols, label("Mirrored"))
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			test := "-"
			if r.TestAccuracy != nil {
				test = percent(*r.TestAccuracy)
			}
			row := []string{
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.Checkpoint,
				strconv.Itoa(r.BestEpoch),
				percent(r.BestDevAccuracy),
				test,
				fmt.Sprintf("%d/%d", r.EpochsRun, r.Epochs),
				r.StopReason,
				r.Duration.Round(time.Second).String(),
			}
			if mirrored != nil {
				row = append(row, yesNo(mirrored[r.ID]))
			}
			rows = append(rows, row)
		}
		writeTable(cmd.OutOrStdout(), cols, rows)
		return nil
	},
}
