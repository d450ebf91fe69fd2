package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordrnn/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)

	assert := assert.New(t)
	assert.False(exists)
	assert.Equal(filepath.Join(dir, "chordrnn.toml"), resolved)
	assert.Equal(filepath.Join(dir, "usable_data"), cfg.Paths.DataDir)
	assert.Equal(filepath.Join(dir, "usable_data", "runs.db"), cfg.Paths.LedgerPath)
	assert.Equal(500, cfg.Train.Epochs)
	assert.Equal(config.OptimizerAdam, cfg.Train.Optimizer)
	assert.Equal(config.PolicyAbort, cfg.Features.MissingNote)
	assert.Equal(config.PolicySkip, cfg.Features.MissingChord)
	assert.Equal(0.05, cfg.Train.PatienceFraction)
	assert.Equal(0, cfg.Features.SequenceLength)
}

func TestLoadParsesFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.toml")
	body := `
[train]
epochs = 40
optimizer = "SGD"
momentum = 0.5
gamma = 0.99

[features]
normalize_flats = true
missing_chord = "abort"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("CHORDRNN_DATA_DIR", filepath.Join(dir, "elsewhere"))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.True(exists)
	assert.Equal(40, cfg.Train.Epochs)
	assert.Equal(config.OptimizerSGD, cfg.Train.Optimizer)
	assert.True(cfg.Features.NormalizeFlats)
	assert.Equal(config.PolicyAbort, cfg.Features.MissingChord)
	assert.Equal(filepath.Join(dir, "elsewhere"), cfg.Paths.DataDir)
	assert.Equal(0.05, cfg.Train.PatienceFraction)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[train]\nepocs = 3\n"), 0o644))

	_, _, _, err := config.Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"zero epochs":      func(c *config.Config) { c.Train.Epochs = 0 },
		"negative lr":      func(c *config.Config) { c.Train.LearningRate = -1 },
		"gamma above one":  func(c *config.Config) { c.Train.Gamma = 1.5 },
		"momentum one":     func(c *config.Config) { c.Train.Momentum = 1 },
		"bad optimizer":    func(c *config.Config) { c.Train.Optimizer = "adadelta" },
		"bad note policy":  func(c *config.Config) { c.Features.MissingNote = "ignore" },
		"zero granularity": func(c *config.Config) { c.Train.PatienceGranularity = 0 },
		"zero max":         func(c *config.Config) { c.Train.MaxMeasures = 0 },
		"bad log format":   func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, config.Default().Validate())
}

func TestCreateSampleIsLoadable(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "nested", "chordrnn.toml")
	require.NoError(t, config.CreateSample(path))

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, config.Default().Train, cfg.Train)
}

func TestMirrorDisabledByDefault(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CHORDRNN_DYNAMODB_ENDPOINT", "http://localhost:8000")

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Mirror.Enabled())
	assert.Equal(t, "us-east-1", cfg.Mirror.Region)
	assert.Equal(t, "http://localhost:8000", cfg.Mirror.Endpoint)
}

func TestWithDataDirMovesDefaultLedger(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)

	moved := cfg.WithDataDir("other")
	assert.Equal(t, filepath.Join(dir, "other"), moved.Paths.DataDir)
	assert.Equal(t, filepath.Join(dir, "other", "runs.db"), moved.Paths.LedgerPath)
	assert.Equal(t, filepath.Join(dir, "usable_data"), cfg.Paths.DataDir)

	cfg.Paths.LedgerPath = "/srv/ledger.db"
	assert.Equal(t, "/srv/ledger.db", cfg.WithDataDir("other").Paths.LedgerPath)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
