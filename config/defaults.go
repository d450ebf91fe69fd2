package config

const (
	defaultConfigFile          = "chordrnn.toml"
	defaultDataDir             = "./usable_data"
	defaultScoresDir           = "./parsing_data"
	defaultLedgerFile          = "runs.db"
	defaultSequenceLength      = 0
	defaultEmbeddingDim        = 32
	defaultHiddenDim           = 64
	defaultSeed                = 1
	defaultEpochs              = 500
	defaultBatchSize           = 64
	defaultLearningRate        = 0.01
	defaultGamma               = 1
	defaultPatienceFraction    = 0.05
	defaultPatienceGranularity = 10
	defaultDynamoRegion        = "us-east-1"
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
)

const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"

	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ScoresDir: defaultScoresDir,
		},
		Features: Features{
			SequenceLength: defaultSequenceLength,
			MissingNote:    PolicyAbort,
			MissingChord:   PolicySkip,
		},
		Model: Model{
			EmbeddingDim: defaultEmbeddingDim,
			HiddenDim:    defaultHiddenDim,
			Seed:         defaultSeed,
		},
		Train: Train{
			Epochs:              defaultEpochs,
			BatchSize:           defaultBatchSize,
			LearningRate:        defaultLearningRate,
			Gamma:               defaultGamma,
			Optimizer:           OptimizerAdam,
			PatienceFraction:    defaultPatienceFraction,
			PatienceGranularity: defaultPatienceGranularity,
			MaxMeasures:         -1,
		},
		Mirror: Mirror{
			Region: defaultDynamoRegion,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
