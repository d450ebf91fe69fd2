package optim

import (
	"fmt"
	"math"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/rnn"
)

// Optimizer updates parameters in place from gradients given in the same
// order.
type Optimizer interface {
	Step(params, grads []rnn.Parameter)
	// EpochEnd advances per-epoch schedules.
	EpochEnd()
	LearningRate() float64
}

func New(name string, lr, momentum, gamma float64) (Optimizer, error) {
	switch name {
	case config.OptimizerAdam, "":
		return NewAdam(lr), nil
	case config.OptimizerSGD:
		return NewSGD(lr, momentum, gamma), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}

// Adam keeps per-parameter first and second moment estimates.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t    int
	m, v [][]float64
}

func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

func (a *Adam) Step(params, grads []rnn.Parameter) {
	if a.m == nil {
		a.m = zerosLike(params)
		a.v = zerosLike(params)
	}
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for pi, p := range params {
		g := grads[pi].Data
		m, v := a.m[pi], a.v[pi]
		for i := range p.Data {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g[i]
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g[i]*g[i]
			p.Data[i] -= a.LR * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.Eps)
		}
	}
}

func (a *Adam) EpochEnd() {}

func (a *Adam) LearningRate() float64 { return a.LR }

// SGD with optional momentum and an exponential learning-rate decay of
// Gamma per epoch.
type SGD struct {
	LR       float64
	Momentum float64
	Gamma    float64

	velocity [][]float64
}

func NewSGD(lr, momentum, gamma float64) *SGD {
	if gamma <= 0 {
		gamma = 1
	}
	return &SGD{LR: lr, Momentum: momentum, Gamma: gamma}
}

func (s *SGD) Step(params, grads []rnn.Parameter) {
	if s.Momentum == 0 {
		for pi, p := range params {
			g := grads[pi].Data
			for i := range p.Data {
				p.Data[i] -= s.LR * g[i]
			}
		}
		return
	}
	if s.velocity == nil {
		s.velocity = zerosLike(params)
		for pi := range params {
			copy(s.velocity[pi], grads[pi].Data)
		}
	} else {
		for pi := range params {
			buf, g := s.velocity[pi], grads[pi].Data
			for i := range buf {
				buf[i] = s.Momentum*buf[i] + g[i]
			}
		}
	}
	for pi, p := range params {
		buf := s.velocity[pi]
		for i := range p.Data {
			p.Data[i] -= s.LR * buf[i]
		}
	}
}

func (s *SGD) EpochEnd() { s.LR *= s.Gamma }

func (s *SGD) LearningRate() float64 { return s.LR }

func zerosLike(params []rnn.Parameter) [][]float64 {
	out := make([][]float64, len(params))
	for i, p := range params {
		out[i] = make([]float64, len(p.Data))
	}
	return out
}
