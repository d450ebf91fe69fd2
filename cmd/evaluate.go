package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/db"
	"github.com/jsphweid/chordrnn/eval"
	"github.com/jsphweid/chordrnn/file"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/train"
	"github.com/jsphweid/chordrnn/vocab"
)

var (
	evalFlags      hyperFlags
	evalCheckpoint string
	evalPartition  string
	evalTop        int
)

func init() {
	evalFlags.bind(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evalCheckpoint, "checkpoint", "", "Checkpoint file name in the data dir (default derived from the hyperparameters)")
	evaluateCmd.Flags().StringVar(&evalPartition, "partition", constants.Test, "Partition to score")
	evaluateCmd.Flags().IntVar(&evalTop, "top", 15, "Chords to list in the per-chord table (0 for all)")
	rootCmd.AddCommand(evaluateCmd)
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a trained checkpoint on the test partition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(func(cfg config.Config) config.Config {
			return evalFlags.apply(cmd, cfg)
		})
		if err != nil {
			return err
		}
		return runEvaluation(cmd.Context(), e, cmd.OutOrStdout())
	},
}

func runEvaluation(ctx context.Context, e env, out io.Writer) error {
	v := tensor.Variant{Clean: e.cfg.Features.NormalizeFlats, Downbeat: e.cfg.Features.DownbeatOnly}
	notes, err := vocab.Load(e.layout.NotesVocab(v.Clean))
	if err != nil {
		return err
	}
	chords, err := vocab.Load(e.layout.ChordsVocab(v.Clean))
	if err != nil {
		return err
	}
	partition, err := tensor.Load(e.layout, evalPartition, v)
	if err != nil {
		return err
	}

	name := evalCheckpoint
	if name == "" {
		name = file.ExperimentFromConfig(e.cfg).CheckpointName()
	}
	ckpt, err := train.LoadCheckpoint(e.layout.Checkpoint(name))
	if err != nil {
		return err
	}
	net, err := ckpt.Network(notes.Len(), chords.Len())
	if err != nil {
		return err
	}

	report, err := eval.Evaluate(net, partition, chords, e.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s accuracy: %s (%d / %d)\n", evalPartition, percent(report.Accuracy), report.Correct, report.Total)
	if len(report.PerChord) > 0 {
		rows := make([][]string, 0, len(report.PerChord))
		for _, c := range report.Top(evalTop) {
			rows = append(rows, []string{c.Chord, strconv.Itoa(c.Support), strconv.Itoa(c.Correct), percent(c.Accuracy())})
		}
		writeTable(out, []column{label("Chord"), number("Support"), number("Correct"), number("Accuracy")}, rows)
	}

	if evalPartition != constants.Test {
		return nil
	}
	ledger, err := db.Open(e.cfg.Paths.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	run, err := ledger.SetTestAccuracy(ctx, name, report.Accuracy)
	if errors.Is(err, db.ErrNoRun) {
		e.logger.Warn("checkpoint has no recorded run", "checkpoint", name)
		return nil
	}
	if err != nil {
		return err
	}
	mirror(ctx, e, run)
	return nil
}
