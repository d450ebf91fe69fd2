package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ScoresDir, err = expandPath(c.Paths.ScoresDir); err != nil {
		return fmt.Errorf("paths.scores_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.DataDir, defaultLedgerFile)
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}

	c.Features.MissingNote = lower(c.Features.MissingNote, PolicyAbort)
	c.Features.MissingChord = lower(c.Features.MissingChord, PolicySkip)
	c.Train.Optimizer = lower(c.Train.Optimizer, OptimizerAdam)
	c.Mirror.Table = strings.TrimSpace(c.Mirror.Table)
	c.Mirror.Endpoint = strings.TrimSpace(c.Mirror.Endpoint)
	if strings.TrimSpace(c.Mirror.Region) == "" {
		c.Mirror.Region = defaultDynamoRegion
	}
	c.Logging.Level = lower(c.Logging.Level, defaultLogLevel)
	c.Logging.Format = lower(c.Logging.Format, defaultLogFormat)
	return nil
}

func lower(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
