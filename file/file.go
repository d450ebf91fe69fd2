package file

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/constants"
)

// Layout names every artifact under the configured directories.
type Layout struct {
	DataDir   string
	ScoresDir string
}

func NewLayout(cfg config.Config) Layout {
	return Layout{DataDir: cfg.Paths.DataDir, ScoresDir: cfg.Paths.ScoresDir}
}

// Modifier encodes the normalization and downbeat flags as a file suffix.
func Modifier(clean, downbeat bool) string {
	var s string
	if clean {
		s += "_no_flats"
	}
	if downbeat {
		s += "_downbeat_only"
	}
	return s
}

func (l Layout) Scores(partition string) string {
	return filepath.Join(l.ScoresDir, partition+".json")
}

func (l Layout) Records(partition string, clean bool) string {
	return filepath.Join(l.DataDir, partition+Modifier(clean, false)+".json")
}

func (l Layout) NotesVocab(clean bool) string {
	return filepath.Join(l.DataDir, constants.NotesVocabFile+Modifier(clean, false)+".json")
}

func (l Layout) ChordsVocab(clean bool) string {
	return filepath.Join(l.DataDir, constants.ChordsVocabFile+Modifier(clean, false)+".json")
}

func (l Layout) NotesTensor(partition string, clean, downbeat bool) string {
	return filepath.Join(l.DataDir, partition+"_notes_tensor"+Modifier(clean, downbeat)+".gob")
}

func (l Layout) ChordsTensor(partition string, clean, downbeat bool) string {
	return filepath.Join(l.DataDir, partition+"_chords_tensor"+Modifier(clean, downbeat)+".gob")
}

func (l Layout) Checkpoint(name string) string {
	return filepath.Join(l.DataDir, name)
}

// Experiment is the set of settings that identifies a training run.
type Experiment struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Momentum     float64
	Gamma        float64
	Optimizer    string
	Clean        bool
	Downbeat     bool
}

func ExperimentFromConfig(cfg config.Config) Experiment {
	return Experiment{
		Epochs:       cfg.Train.Epochs,
		BatchSize:    cfg.Train.BatchSize,
		LearningRate: cfg.Train.LearningRate,
		Momentum:     cfg.Train.Momentum,
		Gamma:        cfg.Train.Gamma,
		Optimizer:    cfg.Train.Optimizer,
		Clean:        cfg.Features.NormalizeFlats,
		Downbeat:     cfg.Features.DownbeatOnly,
	}
}

// CheckpointName is the experiment identity key used for checkpoint files
// and ledger rows.
func (e Experiment) CheckpointName() string {
	return fmt.Sprintf("lstm_%s_e%d_b%d_l%s_m%s_g%s_clean-%t_downbeat-%t.ckpt",
		e.Optimizer, e.Epochs, e.BatchSize,
		formatFloat(e.LearningRate), formatFloat(e.Momentum), formatFloat(e.Gamma),
		e.Clean, e.Downbeat)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
