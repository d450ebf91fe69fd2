package rnn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Gradients mirrors the shapes of a Network.
type Gradients struct {
	Emb *mat.Dense
	Wx  *mat.Dense
	Wh  *mat.Dense
	B   *mat.VecDense
	Wo  *mat.Dense
	Bo  *mat.VecDense
}

func (n *Network) NewGradients() *Gradients {
	z := newZero(n.params)
	return &Gradients{Emb: z.Emb, Wx: z.Wx, Wh: z.Wh, B: z.B, Wo: z.Wo, Bo: z.Bo}
}

// Parameters returns views in the same order as Network.Parameters.
func (g *Gradients) Parameters() []Parameter {
	return parameters(g.Emb, g.Wx, g.Wh, g.B, g.Wo, g.Bo)
}

func (g *Gradients) Zero() {
	g.Emb.Zero()
	g.Wx.Zero()
	g.Wh.Zero()
	g.B.Zero()
	g.Wo.Zero()
	g.Bo.Zero()
}

func (g *Gradients) Scale(f float64) {
	for _, p := range g.Parameters() {
		floats.Scale(f, p.Data)
	}
}
