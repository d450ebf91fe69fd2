package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/db"
	"github.com/jsphweid/chordrnn/file"
	"github.com/jsphweid/chordrnn/optim"
	"github.com/jsphweid/chordrnn/rnn"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/train"
	"github.com/jsphweid/chordrnn/util"
	"github.com/jsphweid/chordrnn/vocab"
)

var trainFlags hyperFlags

func init() {
	trainFlags.bind(trainCmd)
	rootCmd.AddCommand(trainCmd)
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the chord predictor and keep the best dev checkpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(func(cfg config.Config) config.Config {
			return trainFlags.apply(cmd, cfg)
		})
		if err != nil {
			return err
		}
		release, err := util.LockDir(e.cfg.Paths.DataDir)
		if err != nil {
			return err
		}
		defer release()

		return runTraining(cmd.Context(), e, cmd.OutOrStdout())
	},
}

func runTraining(ctx context.Context, e env, out io.Writer) error {
	v := tensor.Variant{Clean: e.cfg.Features.NormalizeFlats, Downbeat: e.cfg.Features.DownbeatOnly}
	notes, err := vocab.Load(e.layout.NotesVocab(v.Clean))
	if err != nil {
		return err
	}
	chords, err := vocab.Load(e.layout.ChordsVocab(v.Clean))
	if err != nil {
		return err
	}
	trainSet, err := tensor.Load(e.layout, constants.Train, v)
	if err != nil {
		return err
	}
	devSet, err := tensor.Load(e.layout, constants.Dev, v)
	if err != nil {
		return err
	}

	net, err := rnn.New(rnn.Params{
		VocabDim:     notes.Len(),
		ChordDim:     chords.Len(),
		EmbeddingDim: e.cfg.Model.EmbeddingDim,
		HiddenDim:    e.cfg.Model.HiddenDim,
		Seed:         e.cfg.Model.Seed,
	})
	if err != nil {
		return err
	}
	opt, err := optim.New(e.cfg.Train.Optimizer, e.cfg.Train.LearningRate, e.cfg.Train.Momentum, e.cfg.Train.Gamma)
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := train.New(net, opt, train.OptionsFromConfig(e.cfg), e.logger).Run(ctx, trainSet, devSet)
	if err != nil {
		return err
	}

	exp := file.ExperimentFromConfig(e.cfg)
	name := exp.CheckpointName()
	if err := train.SaveCheckpoint(e.layout.Checkpoint(name), train.NewCheckpoint(net, res.Best)); err != nil {
		return err
	}
	e.logger.Info("saved checkpoint", "path", e.layout.Checkpoint(name))

	// the run is recorded even when the context was cancelled mid-training
	run, err := recordRun(context.WithoutCancel(ctx), e, db.Run{
		Checkpoint:      name,
		Optimizer:       exp.Optimizer,
		Epochs:          exp.Epochs,
		BatchSize:       exp.BatchSize,
		LearningRate:    exp.LearningRate,
		Momentum:        exp.Momentum,
		Gamma:           exp.Gamma,
		Clean:           exp.Clean,
		Downbeat:        exp.Downbeat,
		BestEpoch:       res.Best.Epoch,
		BestDevAccuracy: res.Best.Accuracy,
		EpochsRun:       len(res.Epochs),
		StoppedEarly:    res.StoppedEarly,
		StopReason:      res.StopReason,
		StartedAt:       started,
		Duration:        res.Duration,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Best dev accuracy: %s at epoch %d (%d epochs, %s)\n",
		percent(res.Best.Accuracy), res.Best.Epoch, len(res.Epochs), res.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Checkpoint: %s\nRun: %s\n", name, run.ID)
	return ctx.Err()
}

func recordRun(ctx context.Context, e env, run db.Run) (db.Run, error) {
	ledger, err := db.Open(e.cfg.Paths.LedgerPath)
	if err != nil {
		return db.Run{}, err
	}
	defer ledger.Close()

	run, err = ledger.Record(ctx, run)
	if err != nil {
		return db.Run{}, err
	}
	mirror(ctx, e, run)
	return run, nil
}

// mirror copies run to DynamoDB when configured. Failures are logged only;
// the local ledger stays authoritative.
func mirror(ctx context.Context, e env, run db.Run) {
	if !e.cfg.Mirror.Enabled() {
		return
	}
	m, err := db.NewMirror(e.cfg.Mirror.Endpoint, e.cfg.Mirror.Region, e.cfg.Mirror.Table)
	if err == nil {
		err = m.Put(ctx, run)
	}
	if err != nil {
		e.logger.Warn("mirror run failed", "run", run.ID, "error", err)
	}
}
