package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains artifact locations.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	ScoresDir  string `toml:"scores_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Features controls extraction and tensorization.
type Features struct {
	NormalizeFlats bool `toml:"normalize_flats"`
	DownbeatOnly   bool `toml:"downbeat_only"`
	// SequenceLength is the note row width before downbeat subsampling.
	// Zero sizes each partition to its longest retained measure.
	SequenceLength int    `toml:"sequence_length"`
	MissingNote    string `toml:"missing_note"`
	MissingChord   string `toml:"missing_chord"`
}

// Model sizes the recurrent classifier.
type Model struct {
	EmbeddingDim int   `toml:"embedding_dim"`
	HiddenDim    int   `toml:"hidden_dim"`
	Seed         int64 `toml:"seed"`
}

// Train contains optimizer and stopping hyperparameters.
type Train struct {
	Epochs              int     `toml:"epochs"`
	BatchSize           int     `toml:"batch_size"`
	LearningRate        float64 `toml:"learning_rate"`
	Momentum            float64 `toml:"momentum"`
	Gamma               float64 `toml:"gamma"`
	Optimizer           string  `toml:"optimizer"`
	PatienceFraction    float64 `toml:"patience_fraction"`
	PatienceGranularity int     `toml:"patience_granularity"`
	// MaxMeasures limits the training set; -1 uses every measure.
	MaxMeasures int `toml:"max_measures"`
}

// Mirror configures the optional DynamoDB copy of the run ledger. An empty
// table disables it.
type Mirror struct {
	Endpoint string `toml:"dynamodb_endpoint"`
	Region   string `toml:"dynamodb_region"`
	Table    string `toml:"dynamodb_table"`
}

// Enabled reports whether runs should be mirrored.
func (m Mirror) Enabled() bool { return m.Table != "" }

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is built once at process start and passed by value to every stage.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Features Features `toml:"features"`
	Model    Model    `toml:"model"`
	Train    Train    `toml:"train"`
	Mirror   Mirror   `toml:"mirror"`
	Logging  Logging  `toml:"logging"`
}

// Load reads the TOML file at path (defaults when it does not exist), applies
// .env and environment overrides, then normalizes and validates the result.
// It returns the resolved path and whether that file existed.
func Load(path string) (Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return Config{}, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return Config{}, "", false, err
	}
	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return Config{}, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", false, err
	}
	return cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigFile
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CHORDRNN_DATA_DIR")); v != "" {
		c.Paths.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CHORDRNN_SCORES_DIR")); v != "" {
		c.Paths.ScoresDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CHORDRNN_DYNAMODB_ENDPOINT")); v != "" {
		c.Mirror.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("CHORDRNN_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

// EnsureDirectories creates the data directory.
func (c Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.DataDir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// WithDataDir returns a copy of c rooted at dir. A ledger left at its default
// location moves along with the data directory.
func (c Config) WithDataDir(dir string) Config {
	expanded, err := expandPath(dir)
	if err != nil {
		expanded = dir
	}
	if c.Paths.LedgerPath == filepath.Join(c.Paths.DataDir, defaultLedgerFile) {
		c.Paths.LedgerPath = filepath.Join(expanded, defaultLedgerFile)
	}
	c.Paths.DataDir = expanded
	return c
}
