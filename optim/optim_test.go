package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/chordrnn/rnn"
)

func param(vals ...float64) []rnn.Parameter {
	return []rnn.Parameter{{Name: "w", Data: vals}}
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	p := param(1, -1, 0)
	g := param(0.5, -2, 0)

	a := NewAdam(0.1)
	a.Step(p, g)

	assert.InDelta(t, 0.9, p[0].Data[0], 1e-6)
	assert.InDelta(t, -0.9, p[0].Data[1], 1e-6)
	assert.Equal(t, 0.0, p[0].Data[2])
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	p := param(5)
	a := NewAdam(0.1)
	for i := 0; i < 500; i++ {
		a.Step(p, param(2*p[0].Data[0]))
	}
	assert.InDelta(t, 0, p[0].Data[0], 0.05)
}

func TestSGDPlain(t *testing.T) {
	p := param(1)
	s := NewSGD(0.5, 0, 1)
	s.Step(p, param(1))
	assert.Equal(t, 0.5, p[0].Data[0])
}

func TestSGDMomentum(t *testing.T) {
	p := param(0)
	s := NewSGD(1, 0.5, 1)
	s.Step(p, param(1))
	s.Step(p, param(1))
	// velocity: 1, then 0.5*1+1
	assert.InDelta(t, -2.5, p[0].Data[0], 1e-12)
}

func TestSGDDecay(t *testing.T) {
	s := NewSGD(1, 0, 0.5)
	s.EpochEnd()
	s.EpochEnd()
	assert.Equal(t, 0.25, s.LearningRate())
}

func TestNew(t *testing.T) {
	o, err := New("adam", 0.01, 0, 1)
	require.NoError(t, err)
	assert.IsType(t, &Adam{}, o)

	o, err = New("sgd", 0.01, 0.9, 0.99)
	require.NoError(t, err)
	assert.IsType(t, &SGD{}, o)
	o.EpochEnd()
	assert.InDelta(t, 0.0099, o.LearningRate(), 1e-12)

	_, err = New("adadelta", 1, 0, 1)
	assert.Error(t, err)
}
