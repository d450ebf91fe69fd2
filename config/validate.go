package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if err := c.validateFeatures(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateTrain(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c Config) validateFeatures() error {
	if c.Features.SequenceLength < 0 {
		return errors.New("features.sequence_length must be >= 0")
	}
	if err := validatePolicy("features.missing_note", c.Features.MissingNote); err != nil {
		return err
	}
	return validatePolicy("features.missing_chord", c.Features.MissingChord)
}

func validatePolicy(key, value string) error {
	switch value {
	case PolicyAbort, PolicySkip:
		return nil
	default:
		return fmt.Errorf("%s: unsupported value %q (want %q or %q)", key, value, PolicyAbort, PolicySkip)
	}
}

func (c Config) validateModel() error {
	if c.Model.EmbeddingDim <= 0 {
		return errors.New("model.embedding_dim must be positive")
	}
	if c.Model.HiddenDim <= 0 {
		return errors.New("model.hidden_dim must be positive")
	}
	return nil
}

func (c Config) validateTrain() error {
	t := c.Train
	if t.Epochs <= 0 {
		return errors.New("train.epochs must be positive")
	}
	if t.BatchSize <= 0 {
		return errors.New("train.batch_size must be positive")
	}
	if t.LearningRate <= 0 {
		return errors.New("train.learning_rate must be positive")
	}
	if t.Momentum < 0 || t.Momentum >= 1 {
		return errors.New("train.momentum must be in [0, 1)")
	}
	if t.Gamma <= 0 || t.Gamma > 1 {
		return errors.New("train.gamma must be in (0, 1]")
	}
	if t.PatienceFraction <= 0 || t.PatienceFraction > 1 {
		return errors.New("train.patience_fraction must be in (0, 1]")
	}
	if t.PatienceGranularity < 1 {
		return errors.New("train.patience_granularity must be >= 1")
	}
	if t.MaxMeasures == 0 || t.MaxMeasures < -1 {
		return errors.New("train.max_measures must be -1 or positive")
	}
	switch t.Optimizer {
	case OptimizerAdam, OptimizerSGD:
	default:
		return fmt.Errorf("train.optimizer: unsupported value %q", t.Optimizer)
	}
	return nil
}

func (c Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
