package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordrnn/logging"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/rnn"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/vocab"
)

// biasedNet always predicts class 1.
func biasedNet(t *testing.T) *rnn.Network {
	net, err := rnn.New(rnn.Params{VocabDim: 3, ChordDim: 3, EmbeddingDim: 2, HiddenDim: 2, Seed: 1})
	require.NoError(t, err)
	net.Wo.Zero()
	net.Bo.SetVec(1, 5)
	return net
}

func chordVocab(t *testing.T) vocab.Vocabulary {
	v, err := vocab.New([]model.Token{"REST", "C major triad", "G major triad"})
	require.NoError(t, err)
	return v
}

func TestEvaluate(t *testing.T) {
	p := tensor.Partition{
		Notes:  [][]int{{1, 2}, {1, 1}, {2, 2}},
		Chords: [][]uint8{tensor.OneHot(1, 3), tensor.OneHot(1, 3), tensor.OneHot(2, 3)},
	}
	r, err := Evaluate(biasedNet(t), p, chordVocab(t), logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 3, r.Total)
	assert.InDelta(t, 2.0/3.0, r.Accuracy, 1e-12)
	require.Len(t, r.PerChord, 2)
	assert.Equal(t, ChordStat{Chord: "C major triad", Support: 2, Correct: 2}, r.PerChord[0])
	assert.Equal(t, 0.0, r.PerChord[1].Accuracy())
	assert.Len(t, r.Top(1), 1)
}

func TestEvaluateEmptyPartition(t *testing.T) {
	r, err := Evaluate(biasedNet(t), tensor.Partition{}, chordVocab(t), logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Accuracy)
	assert.Zero(t, r.Total)
}

func TestEvaluateShapeMismatch(t *testing.T) {
	p := tensor.Partition{Notes: [][]int{{1}}, Chords: [][]uint8{tensor.OneHot(0, 2)}}
	_, err := Evaluate(biasedNet(t), p, chordVocab(t), logging.NewNop())
	assert.ErrorIs(t, err, rnn.ErrShapeMismatch)

	p = tensor.Partition{Notes: [][]int{{7}}, Chords: [][]uint8{tensor.OneHot(0, 3)}}
	_, err = Evaluate(biasedNet(t), p, chordVocab(t), logging.NewNop())
	assert.ErrorIs(t, err, rnn.ErrShapeMismatch)
}
