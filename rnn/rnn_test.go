package rnn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tiny(t *testing.T) *Network {
	t.Helper()
	n, err := New(Params{VocabDim: 3, ChordDim: 4, EmbeddingDim: 2, HiddenDim: 3, Seed: 7})
	require.NoError(t, err)
	return n
}

func TestLogitsShapeAndDeterminism(t *testing.T) {
	a, b := tiny(t), tiny(t)
	seq := []int{0, 2, 1, 1}

	la := a.Logits(seq)
	assert.Len(t, la, 4)
	assert.Equal(t, la, b.Logits(seq))
	assert.Equal(t, la, a.Forward(seq).Logits())

	// Empty sequence yields the output bias.
	assert.Equal(t, a.Bo.RawVector().Data, a.Logits(nil))
}

func TestSoftmaxCrossEntropy(t *testing.T) {
	loss, d := SoftmaxCrossEntropy([]float64{0, 0}, 1)
	assert.InDelta(t, math.Log(2), loss, 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, -0.5}, d, 1e-12)

	// Large logits stay finite.
	loss, _ = SoftmaxCrossEntropy([]float64{1000, 0}, 0)
	assert.InDelta(t, 0, loss, 1e-9)
}

func lossOf(n *Network, seq []int, target int) float64 {
	l, _ := SoftmaxCrossEntropy(n.Logits(seq), target)
	return l
}

func TestBackwardMatchesNumericalGradient(t *testing.T) {
	n := tiny(t)
	seq := []int{2, 0, 1, 2}
	target := 3

	g := n.NewGradients()
	trace := n.Forward(seq)
	_, d := SoftmaxCrossEntropy(trace.Logits(), target)
	n.Backward(trace, d, g)

	const eps = 1e-6
	params := n.Parameters()
	grads := g.Parameters()
	for pi, p := range params {
		for i := range p.Data {
			orig := p.Data[i]
			p.Data[i] = orig + eps
			up := lossOf(n, seq, target)
			p.Data[i] = orig - eps
			down := lossOf(n, seq, target)
			p.Data[i] = orig

			numeric := (up - down) / (2 * eps)
			assert.InDelta(t, numeric, grads[pi].Data[i], 1e-6, "%s[%d]", p.Name, i)
		}
	}
}

func TestGradientsAccumulateAndZero(t *testing.T) {
	n := tiny(t)
	g := n.NewGradients()
	trace := n.Forward([]int{1, 2})
	_, d := SoftmaxCrossEntropy(trace.Logits(), 0)

	n.Backward(trace, d, g)
	once := append([]float64(nil), g.Parameters()[5].Data...)
	n.Backward(trace, d, g)
	g.Scale(0.5)
	assert.InDeltaSlice(t, once, g.Parameters()[5].Data, 1e-12)

	g.Zero()
	for _, p := range g.Parameters() {
		for _, v := range p.Data {
			assert.Zero(t, v)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	n := tiny(t)
	seq := []int{0, 1}
	before := n.Logits(seq)
	snap := n.Snapshot()

	for _, p := range n.Parameters() {
		for i := range p.Data {
			p.Data[i] += 1
		}
	}
	assert.NotEqual(t, before, n.Logits(seq))

	require.NoError(t, n.Restore(snap))
	assert.Equal(t, before, n.Logits(seq))

	// Snapshot is detached from the live weights.
	n.Parameters()[0].Data[0] = 42
	assert.NotEqual(t, 42.0, snap["embedding"][0])
}

func TestRestoreRejectsMismatch(t *testing.T) {
	n := tiny(t)
	other, err := New(Params{VocabDim: 5, ChordDim: 4, EmbeddingDim: 2, HiddenDim: 3})
	require.NoError(t, err)

	err = n.Restore(other.Snapshot())
	require.ErrorIs(t, err, ErrShapeMismatch)

	partial := n.Snapshot()
	delete(partial, "fc.bias")
	require.ErrorIs(t, n.Restore(partial), ErrShapeMismatch)
}

func TestCheckTokens(t *testing.T) {
	n := tiny(t)
	assert.NoError(t, n.CheckTokens([][]int{{0, 1, 2}}))
	assert.ErrorIs(t, n.CheckTokens([][]int{{0}, {3}}), ErrShapeMismatch)
}

func TestNewRejectsZeroDims(t *testing.T) {
	_, err := New(Params{VocabDim: 0, ChordDim: 1, EmbeddingDim: 1, HiddenDim: 1})
	assert.Error(t, err)
}
