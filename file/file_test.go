package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifier(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", Modifier(false, false))
	assert.Equal("_no_flats", Modifier(true, false))
	assert.Equal("_downbeat_only", Modifier(false, true))
	assert.Equal("_no_flats_downbeat_only", Modifier(true, true))
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{DataDir: "/data", ScoresDir: "/scores"}

	assert := assert.New(t)
	assert.Equal(filepath.Join("/scores", "dev.json"), l.Scores("dev"))
	assert.Equal(filepath.Join("/data", "train_no_flats.json"), l.Records("train", true))
	assert.Equal(filepath.Join("/data", "pitches_vocab.json"), l.NotesVocab(false))
	assert.Equal(filepath.Join("/data", "chords_vocab_no_flats.json"), l.ChordsVocab(true))
	assert.Equal(filepath.Join("/data", "test_notes_tensor_downbeat_only.gob"), l.NotesTensor("test", false, true))
	assert.Equal(filepath.Join("/data", "train_chords_tensor_no_flats_downbeat_only.gob"), l.ChordsTensor("train", true, true))
}

func TestCheckpointNameEncodesExperiment(t *testing.T) {
	e := Experiment{
		Epochs: 500, BatchSize: 64, LearningRate: 0.01, Momentum: 0, Gamma: 1,
		Optimizer: "adam", Clean: true, Downbeat: false,
	}
	assert.Equal(t, "lstm_adam_e500_b64_l0.01_m0_g1_clean-true_downbeat-false.ckpt", e.CheckpointName())

	other := e
	other.Downbeat = true
	assert.NotEqual(t, e.CheckpointName(), other.CheckpointName())
}
