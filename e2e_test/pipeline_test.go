//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/chordrnn/cmd"
	"github.com/jsphweid/chordrnn/db"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/util"
)

const tpq = 96

// progressions alternate C major and G major measures; each measure opens
// with the chord for a quarter and then plays a three-note melody.
var progressions = []struct {
	chord  []uint8
	melody []uint8
}{
	{[]uint8{60, 64, 67}, []uint8{72, 76, 79}},
	{[]uint8{67, 71, 74}, []uint8{79, 83, 74}},
}

func writeSong(t *testing.T, path string, measures, offset int) {
	t.Helper()
	var tr smf.Track
	tr.Add(0, smf.MetaTimeSig(4, 4, 24, 8))
	for m := 0; m < measures; m++ {
		p := progressions[(m+offset)%len(progressions)]
		for _, k := range p.chord {
			tr.Add(0, gomidi.NoteOn(0, k, 90))
		}
		for i, k := range p.chord {
			d := uint32(0)
			if i == 0 {
				d = tpq
			}
			tr.Add(d, gomidi.NoteOff(0, k))
		}
		for _, k := range p.melody {
			tr.Add(0, gomidi.NoteOn(0, k, 90))
			tr.Add(tpq, gomidi.NoteOff(0, k))
		}
	}
	tr.Close(0)

	var s smf.SMF
	s.TimeFormat = smf.MetricTicks(tpq)
	s.Tracks = append(s.Tracks, tr)

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestPipeline(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	scoresDir := filepath.Join(root, "scores")
	configPath := filepath.Join(root, "chordrnn.toml")

	body := fmt.Sprintf(`
[paths]
data_dir = %q
scores_dir = %q

[model]
embedding_dim = 8
hidden_dim = 16

[train]
epochs = 30
batch_size = 4
learning_rate = 0.05
patience_fraction = 0.5

[logging]
level = "warn"
`, dataDir, scoresDir)
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))

	ctx := context.Background()
	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		require.NoError(t, cmd.Run(ctx, append([]string{"--config", configPath}, args...), &out), "%v", args)
		return out.String()
	}

	for i, partition := range []string{"train", "dev", "test"} {
		dir := filepath.Join(root, "midi", partition)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for song := 0; song < 3; song++ {
			writeSong(t, filepath.Join(dir, fmt.Sprintf("song%d.mid", song)), 6, song+i)
		}
		run("import", "--partition", partition, dir)
	}

	run("preprocess")
	records, err := util.ReadJSON[[]model.FeatureRecord](filepath.Join(dataDir, "train.json"))
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, r := range records {
		// the chord's top key opens every bar ahead of the melody
		require.Len(t, r.Notes, 16)
		assert.Contains(t, []string{"G", "D"}, r.Notes[0])
		assert.Len(t, r.Chords, 1)
	}
	assert.FileExists(t, filepath.Join(dataDir, "pitches_vocab.json"))
	assert.FileExists(t, filepath.Join(dataDir, "chords_vocab.json"))

	run("tensors")
	assert.FileExists(t, filepath.Join(dataDir, "train_notes_tensor.gob"))
	assert.FileExists(t, filepath.Join(dataDir, "test_chords_tensor.gob"))

	out := run("train")
	assert.Contains(t, out, "Best dev accuracy")
	name := "lstm_adam_e30_b4_l0.05_m0_g1_clean-false_downbeat-false.ckpt"
	assert.FileExists(t, filepath.Join(dataDir, name))

	out = run("evaluate")
	assert.Contains(t, out, "test accuracy")
	assert.Contains(t, out, "C major triad")

	ledger, err := db.Open(filepath.Join(dataDir, "runs.db"))
	require.NoError(t, err)
	defer ledger.Close()
	runs, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, name, runs[0].Checkpoint)
	require.NotNil(t, runs[0].TestAccuracy)

	out = run("runs")
	assert.Contains(t, out, name)

	// the clean variant derives its inputs from the plain artifacts
	run("tensors", "--clean", "--downbeat")
	assert.FileExists(t, filepath.Join(dataDir, "train_no_flats.json"))
	assert.FileExists(t, filepath.Join(dataDir, "chords_vocab_no_flats.json"))
	assert.FileExists(t, filepath.Join(dataDir, "dev_notes_tensor_no_flats_downbeat_only.gob"))
}
