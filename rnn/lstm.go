package rnn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Trace keeps the activations of one forward pass for Backward.
type Trace struct {
	seq []int
	// hs and cs have len(seq)+1 entries; index 0 is the zero initial state.
	hs, cs         [][]float64
	is, fs, gs, os [][]float64
	logits         []float64
}

func (t *Trace) Logits() []float64 { return t.logits }

// Logits runs inference on one note-index sequence.
func (n *Network) Logits(seq []int) []float64 {
	return n.forward(seq, nil)
}

// Forward runs the network and records what Backward needs.
func (n *Network) Forward(seq []int) *Trace {
	t := &Trace{seq: seq}
	t.logits = n.forward(seq, t)
	return t
}

func (n *Network) forward(seq []int, t *Trace) []float64 {
	hd := n.params.HiddenDim
	h := make([]float64, hd)
	c := make([]float64, hd)
	if t != nil {
		t.hs = append(t.hs, h)
		t.cs = append(t.cs, c)
	}

	z := mat.NewVecDense(4*hd, nil)
	rec := mat.NewVecDense(4*hd, nil)
	for _, tok := range seq {
		x := mat.NewVecDense(n.params.EmbeddingDim, n.Emb.RawRowView(tok))
		z.MulVec(n.Wx, x)
		rec.MulVec(n.Wh, mat.NewVecDense(hd, h))
		z.AddVec(z, rec)
		z.AddVec(z, n.B)
		zr := z.RawVector().Data

		ig, fg, gg, og := make([]float64, hd), make([]float64, hd), make([]float64, hd), make([]float64, hd)
		nh, nc := make([]float64, hd), make([]float64, hd)
		for j := 0; j < hd; j++ {
			ig[j] = sigmoid(zr[j])
			fg[j] = sigmoid(zr[hd+j])
			gg[j] = math.Tanh(zr[2*hd+j])
			og[j] = sigmoid(zr[3*hd+j])
			nc[j] = fg[j]*c[j] + ig[j]*gg[j]
			nh[j] = og[j] * math.Tanh(nc[j])
		}
		h, c = nh, nc
		if t != nil {
			t.is = append(t.is, ig)
			t.fs = append(t.fs, fg)
			t.gs = append(t.gs, gg)
			t.os = append(t.os, og)
			t.hs = append(t.hs, h)
			t.cs = append(t.cs, c)
		}
	}

	out := mat.NewVecDense(n.params.ChordDim, nil)
	out.MulVec(n.Wo, mat.NewVecDense(hd, h))
	out.AddVec(out, n.Bo)
	return out.RawVector().Data
}

// Backward accumulates into g the gradient of the loss whose derivative
// with respect to the logits of t is dLogits.
func (n *Network) Backward(t *Trace, dLogits []float64, g *Gradients) {
	hd := n.params.HiddenDim
	steps := len(t.seq)

	dl := mat.NewVecDense(len(dLogits), dLogits)
	g.Wo.RankOne(g.Wo, 1, dl, mat.NewVecDense(hd, t.hs[steps]))
	g.Bo.AddVec(g.Bo, dl)

	dhv := mat.NewVecDense(hd, nil)
	dhv.MulVec(n.Wo.T(), dl)
	dh := dhv.RawVector().Data
	dc := make([]float64, hd)

	dz := mat.NewVecDense(4*hd, nil)
	dx := mat.NewVecDense(n.params.EmbeddingDim, nil)
	for s := steps - 1; s >= 0; s-- {
		ig, fg, gg, og := t.is[s], t.fs[s], t.gs[s], t.os[s]
		c, cPrev := t.cs[s+1], t.cs[s]
		dzr := dz.RawVector().Data
		dcPrev := make([]float64, hd)
		for j := 0; j < hd; j++ {
			tc := math.Tanh(c[j])
			dc[j] += dh[j] * og[j] * (1 - tc*tc)
			dzr[j] = dc[j] * gg[j] * ig[j] * (1 - ig[j])
			dzr[hd+j] = dc[j] * cPrev[j] * fg[j] * (1 - fg[j])
			dzr[2*hd+j] = dc[j] * ig[j] * (1 - gg[j]*gg[j])
			dzr[3*hd+j] = dh[j] * tc * og[j] * (1 - og[j])
			dcPrev[j] = dc[j] * fg[j]
		}

		tok := t.seq[s]
		x := mat.NewVecDense(n.params.EmbeddingDim, n.Emb.RawRowView(tok))
		hPrev := mat.NewVecDense(hd, t.hs[s])
		g.Wx.RankOne(g.Wx, 1, dz, x)
		g.Wh.RankOne(g.Wh, 1, dz, hPrev)
		g.B.AddVec(g.B, dz)

		dx.MulVec(n.Wx.T(), dz)
		row := g.Emb.RawRowView(tok)
		for j, v := range dx.RawVector().Data {
			row[j] += v
		}

		dhv.MulVec(n.Wh.T(), dz)
		dh = dhv.RawVector().Data
		dc = dcPrev
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
