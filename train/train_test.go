package train

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordrnn/logging"
	"github.com/jsphweid/chordrnn/optim"
	"github.com/jsphweid/chordrnn/rnn"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/util"
)

func TestBestKeepsHighestDevAccuracy(t *testing.T) {
	best := NoBest()
	for epoch, acc := range []float64{0.3, 0.5, 0.4, 0.6, 0.55} {
		best = best.Observe(epoch, acc, func() rnn.State {
			return rnn.State{"epoch": {float64(epoch)}}
		})
	}
	assert.Equal(t, 3, best.Epoch)
	assert.Equal(t, 0.6, best.Accuracy)
	assert.Equal(t, []float64{3}, best.State["epoch"])
}

func TestBestIgnoresTies(t *testing.T) {
	calls := 0
	snap := func() rnn.State { calls++; return rnn.State{} }

	best := NoBest().Observe(0, 0.5, snap).Observe(1, 0.5, snap)
	assert.Equal(t, 0, best.Epoch)
	assert.Equal(t, 1, calls)
	assert.False(t, NoBest().Found())
	assert.True(t, best.Found())
}

func TestPlateauStopsAfterPatience(t *testing.T) {
	p := NewPlateau(10, 5)
	stoppedAt := -1
	for epoch := 0; epoch < 20; epoch++ {
		if p.Observe(0.4213) {
			stoppedAt = epoch
			break
		}
	}
	// epoch 0 sets the bucket, epochs 1..5 stall.
	assert.Equal(t, 5, stoppedAt)
}

func TestPlateauResetsOnChange(t *testing.T) {
	p := NewPlateau(10, 2)
	assert.False(t, p.Observe(0.50))
	assert.False(t, p.Observe(0.5004)) // same bucket at 0.1% resolution
	assert.False(t, p.Observe(0.51))
	assert.Equal(t, 0, p.Stalled())
	assert.False(t, p.Observe(0.51))
	assert.True(t, p.Observe(0.51))
}

func TestPatienceHasFloorOfOne(t *testing.T) {
	assert.Equal(t, 1, Options{Epochs: 10, PatienceFraction: 0.05}.Patience())
	assert.Equal(t, 25, Options{Epochs: 500, PatienceFraction: 0.05}.Patience())
}

func TestBatchesCoverEveryRowOnce(t *testing.T) {
	rows := make([]example, 10)
	for i := range rows {
		rows[i] = example{target: i}
	}
	got := batches(rand.New(rand.NewSource(1)), rows, 4)
	require.Len(t, got, 3)
	assert.Len(t, got[2], 2)

	seen := map[int]bool{}
	for _, b := range got {
		for _, ex := range b {
			seen[ex.target] = true
		}
	}
	assert.Len(t, seen, 10)
	assert.Len(t, limit(rows, 3), 3)
	assert.Len(t, limit(rows, -1), 10)
}

// toyPartition labels each row by its first token, which a small LSTM learns
// quickly.
func toyPartition(n int) tensor.Partition {
	var p tensor.Partition
	for i := 0; i < n; i++ {
		first := 1 + i%2
		p.Notes = append(p.Notes, []int{first, 0, 3, 0})
		p.Chords = append(p.Chords, tensor.OneHot(first-1, 2))
	}
	return p
}

func newNet(t *testing.T) *rnn.Network {
	net, err := rnn.New(rnn.Params{VocabDim: 4, ChordDim: 2, EmbeddingDim: 4, HiddenDim: 8, Seed: 3})
	require.NoError(t, err)
	return net
}

func TestRunLearnsToyTask(t *testing.T) {
	net := newNet(t)
	opts := Options{Epochs: 60, BatchSize: 4, PatienceFraction: 0.5, Granularity: 10, MaxMeasures: -1, Seed: 1}
	trainer := New(net, optim.NewAdam(0.05), opts, logging.NewNop())

	res, err := trainer.Run(context.Background(), toyPartition(16), toyPartition(4))
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Best.Accuracy)
	assert.NotEmpty(t, res.Epochs)
	assert.Equal(t, res.Best.Accuracy, accuracy(net, examples(toyPartition(4))))
}

func TestRunRestoresBestState(t *testing.T) {
	net := newNet(t)
	opts := Options{Epochs: 5, BatchSize: 2, PatienceFraction: 1, Granularity: 10, MaxMeasures: 2, Seed: 1}
	res, err := New(net, optim.NewSGD(0.1, 0, 1), opts, logging.NewNop()).Run(context.Background(), toyPartition(8), toyPartition(2))
	require.NoError(t, err)

	assert.Equal(t, res.Best.State, net.Snapshot())
}

func TestRunStopsOnTrainingPlateau(t *testing.T) {
	opts := Options{Epochs: 100, BatchSize: 4, PatienceFraction: 0.05, Granularity: 10, MaxMeasures: -1, Seed: 1}
	require.Equal(t, 5, opts.Patience())

	res, err := New(newNet(t), optim.NewSGD(1e-9, 0, 1), opts, logging.NewNop()).Run(context.Background(), toyPartition(8), toyPartition(2))
	require.NoError(t, err)

	assert.True(t, res.StoppedEarly)
	assert.Equal(t, StopPatience, res.StopReason)
	assert.Len(t, res.Epochs, opts.Patience()+1)
	assert.Equal(t, 0, res.Best.Epoch)
}

func TestRunCancelledBeforeFirstEpoch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{Epochs: 5, BatchSize: 2, PatienceFraction: 1, Granularity: 10, MaxMeasures: -1}
	res, err := New(newNet(t), optim.NewAdam(0.01), opts, logging.NewNop()).Run(ctx, toyPartition(4), toyPartition(2))
	assert.ErrorIs(t, err, ErrNoImprovement)
	assert.True(t, res.StoppedEarly)
	assert.Equal(t, context.Canceled.Error(), res.StopReason)
}

func TestRunRejectsOutOfVocabularyTokens(t *testing.T) {
	bad := toyPartition(2)
	bad.Notes[1][0] = 9

	opts := Options{Epochs: 1, BatchSize: 1, PatienceFraction: 1, Granularity: 10, MaxMeasures: -1}
	_, err := New(newNet(t), optim.NewAdam(0.01), opts, logging.NewNop()).Run(context.Background(), bad, toyPartition(1))
	assert.ErrorIs(t, err, rnn.ErrShapeMismatch)
}

func TestCheckpointRoundTrip(t *testing.T) {
	net := newNet(t)
	best := NoBest().Observe(2, 0.75, net.Snapshot)
	path := filepath.Join(t.TempDir(), "model.ckpt")

	require.NoError(t, SaveCheckpoint(path, NewCheckpoint(net, best)))
	ckpt, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ckpt.Epoch)
	assert.Equal(t, 0.75, ckpt.DevAccuracy)

	restored, err := ckpt.Network(4, 2)
	require.NoError(t, err)
	assert.Equal(t, net.Logits([]int{1, 2, 3}), restored.Logits([]int{1, 2, 3}))

	_, err = ckpt.Network(5, 2)
	assert.ErrorIs(t, err, rnn.ErrShapeMismatch)

	_, err = LoadCheckpoint(filepath.Join(t.TempDir(), "missing.ckpt"))
	assert.ErrorIs(t, err, util.ErrMissingArtifact)
}
