package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/optim"
	"github.com/jsphweid/chordrnn/rnn"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/util"
)

// ErrNoImprovement means no epoch produced a checkpoint, for example when
// training was cancelled before the first epoch finished.
var ErrNoImprovement = errors.New("no epoch produced a checkpoint")

const (
	StopCompleted = "completed"
	StopPatience  = "patience"
)

type Options struct {
	Epochs           int
	BatchSize        int
	PatienceFraction float64
	Granularity      int
	// MaxMeasures keeps only the first n training rows; -1 keeps all.
	MaxMeasures int
	Seed        int64
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Epochs:           cfg.Train.Epochs,
		BatchSize:        cfg.Train.BatchSize,
		PatienceFraction: cfg.Train.PatienceFraction,
		Granularity:      cfg.Train.PatienceGranularity,
		MaxMeasures:      cfg.Train.MaxMeasures,
		Seed:             cfg.Model.Seed,
	}
}

// Patience is max(1, int(PatienceFraction*Epochs)).
func (o Options) Patience() int {
	return max(1, int(o.PatienceFraction*float64(o.Epochs)))
}

type EpochStats struct {
	Epoch         int
	Loss          float64
	TrainAccuracy float64
	DevAccuracy   float64
}

type Result struct {
	Best         Best
	Epochs       []EpochStats
	StoppedEarly bool
	StopReason   string
	Duration     time.Duration
}

type Trainer struct {
	net    *rnn.Network
	opt    optim.Optimizer
	opts   Options
	logger *slog.Logger
}

func New(net *rnn.Network, opt optim.Optimizer, opts Options, logger *slog.Logger) *Trainer {
	return &Trainer{net: net, opt: opt, opts: opts, logger: logger}
}

// Run trains on trainSet, scores every epoch on dev and leaves the network
// holding the best dev checkpoint. Cancelling ctx ends training at the next
// epoch boundary and still returns the best checkpoint so far.
func (t *Trainer) Run(ctx context.Context, trainSet, dev tensor.Partition) (Result, error) {
	start := time.Now()

	trainRows, err := t.prepare(trainSet)
	if err != nil {
		return Result{}, fmt.Errorf("train partition: %w", err)
	}
	trainRows = limit(trainRows, t.opts.MaxMeasures)
	if len(trainRows) == 0 {
		return Result{}, errors.New("train partition is empty")
	}
	devRows, err := t.prepare(dev)
	if err != nil {
		return Result{}, fmt.Errorf("dev partition: %w", err)
	}

	rng := rand.New(rand.NewSource(t.opts.Seed))
	grads := t.net.NewGradients()
	plateau := NewPlateau(t.opts.Granularity, t.opts.Patience())
	best := NoBest()

	res := Result{StopReason: StopCompleted}
	t.logger.Info("training started",
		"rows", len(trainRows),
		"dev_rows", len(devRows),
		"epochs", t.opts.Epochs,
		"batch_size", t.opts.BatchSize,
		"patience", plateau.Patience,
	)

	for epoch := 0; epoch < t.opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			res.StoppedEarly = true
			res.StopReason = err.Error()
			t.logger.Warn("training interrupted", "epoch", epoch, "reason", res.StopReason)
			break
		}

		stats := t.epoch(rng, trainRows, grads)
		stats.Epoch = epoch
		stats.DevAccuracy = accuracy(t.net, devRows)
		best = best.Observe(epoch, stats.DevAccuracy, t.net.Snapshot)
		res.Epochs = append(res.Epochs, stats)

		t.logger.Info("epoch",
			"epoch", epoch,
			"loss", stats.Loss,
			"train_acc", stats.TrainAccuracy,
			"dev_acc", stats.DevAccuracy,
			"best", best.Accuracy,
			"lr", t.opt.LearningRate(),
		)

		t.opt.EpochEnd()
		if plateau.Observe(stats.TrainAccuracy) {
			res.StoppedEarly = true
			res.StopReason = StopPatience
			t.logger.Info("stopping early", "epoch", epoch, "stalled", plateau.Stalled())
			break
		}
	}

	res.Duration = time.Since(start)
	if !best.Found() {
		return res, ErrNoImprovement
	}
	if err := t.net.Restore(best.State); err != nil {
		return res, fmt.Errorf("restore best checkpoint: %w", err)
	}
	res.Best = best

	t.logger.Info("training done",
		"best_epoch", best.Epoch,
		"best_dev_acc", best.Accuracy,
		"epochs_run", len(res.Epochs),
		"reason", res.StopReason,
		"duration", res.Duration.Round(time.Millisecond).String(),
	)
	return res, nil
}

func (t *Trainer) epoch(rng *rand.Rand, rows []example, grads *rnn.Gradients) EpochStats {
	var (
		correct int
		loss    float64
	)
	for _, batch := range batches(rng, rows, t.opts.BatchSize) {
		grads.Zero()
		for _, ex := range batch {
			trace := t.net.Forward(ex.notes)
			l, dLogits := rnn.SoftmaxCrossEntropy(trace.Logits(), ex.target)
			t.net.Backward(trace, dLogits, grads)
			loss += l
			if util.Argmax(trace.Logits()) == ex.target {
				correct++
			}
		}
		grads.Scale(1 / float64(len(batch)))
		t.opt.Step(t.net.Parameters(), grads.Parameters())
	}
	return EpochStats{
		Loss:          loss / float64(len(rows)),
		TrainAccuracy: float64(correct) / float64(len(rows)),
	}
}

func (t *Trainer) prepare(p tensor.Partition) ([]example, error) {
	if len(p.Notes) != len(p.Chords) {
		return nil, fmt.Errorf("%d note rows but %d chord rows", len(p.Notes), len(p.Chords))
	}
	if err := t.net.CheckTokens(p.Notes); err != nil {
		return nil, err
	}
	rows := examples(p)
	chordDim := t.net.Params().ChordDim
	for i, ex := range rows {
		if ex.target < 0 || ex.target >= chordDim || len(p.Chords[i]) != chordDim {
			return nil, fmt.Errorf("%w: row %d label does not fit %d chord classes", rnn.ErrShapeMismatch, i, chordDim)
		}
	}
	return rows, nil
}

// accuracy is the share of rows whose top-1 prediction matches the target.
// An empty set scores 0.
func accuracy(net *rnn.Network, rows []example) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for _, ex := range rows {
		if util.Argmax(net.Logits(ex.notes)) == ex.target {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}
