package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/config"
)

// variantFlags select the flat-normalized and downbeat-only artifacts.
type variantFlags struct {
	clean    bool
	downbeat bool
}

func (v *variantFlags) bind(c *cobra.Command, withDownbeat bool) {
	c.Flags().BoolVar(&v.clean, "clean", false, "Use flat-normalized (enharmonic sharp) tokens")
	if withDownbeat {
		c.Flags().BoolVar(&v.downbeat, "downbeat", false, "Keep only the note on each quarter-note downbeat")
	}
}

func (v *variantFlags) apply(c *cobra.Command, cfg config.Config) config.Config {
	if c.Flags().Changed("clean") {
		cfg.Features.NormalizeFlats = v.clean
	}
	if c.Flags().Changed("downbeat") {
		cfg.Features.DownbeatOnly = v.downbeat
	}
	return cfg
}

// hyperFlags mirror the [train] section. Only flags given on the command
// line override the configuration.
type hyperFlags struct {
	variantFlags

	epochs      int
	batchSize   int
	lr          float64
	momentum    float64
	gamma       float64
	optimizer   string
	maxMeasures int
}

func (h *hyperFlags) bind(c *cobra.Command) {
	h.variantFlags.bind(c, true)
	f := c.Flags()
	f.IntVarP(&h.epochs, "epochs", "E", 0, "Number of epochs")
	f.IntVarP(&h.batchSize, "batch-size", "B", 0, "Batch size")
	f.Float64VarP(&h.lr, "lr", "L", 0, "Learning rate")
	f.Float64Var(&h.momentum, "mu", 0, "SGD momentum")
	f.Float64Var(&h.gamma, "ga", 0, "Per-epoch learning rate decay for SGD")
	f.StringVar(&h.optimizer, "optimizer", "", "Optimizer (adam, sgd)")
	f.IntVar(&h.maxMeasures, "max-measures", 0, "Train on at most this many measures (-1 for all)")
}

func (h *hyperFlags) apply(c *cobra.Command, cfg config.Config) config.Config {
	cfg = h.variantFlags.apply(c, cfg)
	f := c.Flags()
	if f.Changed("epochs") {
		cfg.Train.Epochs = h.epochs
	}
	if f.Changed("batch-size") {
		cfg.Train.BatchSize = h.batchSize
	}
	if f.Changed("lr") {
		cfg.Train.LearningRate = h.lr
	}
	if f.Changed("mu") {
		cfg.Train.Momentum = h.momentum
	}
	if f.Changed("ga") {
		cfg.Train.Gamma = h.gamma
	}
	if f.Changed("optimizer") {
		cfg.Train.Optimizer = strings.ToLower(strings.TrimSpace(h.optimizer))
	}
	if f.Changed("max-measures") {
		cfg.Train.MaxMeasures = h.maxMeasures
	}
	return cfg
}
