package rnn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var ErrShapeMismatch = errors.New("parameter shape mismatch")

type Params struct {
	VocabDim     int
	ChordDim     int
	EmbeddingDim int
	HiddenDim    int
	Seed         int64
}

func (p Params) validate() error {
	if p.VocabDim <= 0 || p.ChordDim <= 0 || p.EmbeddingDim <= 0 || p.HiddenDim <= 0 {
		return fmt.Errorf("invalid network dimensions %+v", p)
	}
	return nil
}

// Network holds the trainable weights. Gate rows of Wx, Wh and B are laid out
// as input, forget, candidate, output, each HiddenDim long.
type Network struct {
	params Params

	Emb *mat.Dense    // VocabDim x EmbeddingDim
	Wx  *mat.Dense    // 4H x EmbeddingDim
	Wh  *mat.Dense    // 4H x H
	B   *mat.VecDense // 4H
	Wo  *mat.Dense    // ChordDim x H
	Bo  *mat.VecDense // ChordDim
}

// Parameter is a named flat view of one weight tensor.
type Parameter struct {
	Name string
	Data []float64
}

func New(p Params) (*Network, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := newZero(p)
	rng := rand.New(rand.NewSource(p.Seed))

	for i, data := 0, n.Emb.RawMatrix().Data; i < len(data); i++ {
		data[i] = rng.NormFloat64()
	}
	k := 1 / math.Sqrt(float64(p.HiddenDim))
	for _, param := range n.Parameters()[1:] {
		for i := range param.Data {
			param.Data[i] = (rng.Float64()*2 - 1) * k
		}
	}
	return n, nil
}

func newZero(p Params) *Network {
	h4 := 4 * p.HiddenDim
	return &Network{
		params: p,
		Emb:    mat.NewDense(p.VocabDim, p.EmbeddingDim, nil),
		Wx:     mat.NewDense(h4, p.EmbeddingDim, nil),
		Wh:     mat.NewDense(h4, p.HiddenDim, nil),
		B:      mat.NewVecDense(h4, nil),
		Wo:     mat.NewDense(p.ChordDim, p.HiddenDim, nil),
		Bo:     mat.NewVecDense(p.ChordDim, nil),
	}
}

func (n *Network) Params() Params { return n.params }

// Parameters returns views in a fixed order shared with Gradients.
func (n *Network) Parameters() []Parameter {
	return parameters(n.Emb, n.Wx, n.Wh, n.B, n.Wo, n.Bo)
}

func parameters(emb, wx, wh *mat.Dense, b *mat.VecDense, wo *mat.Dense, bo *mat.VecDense) []Parameter {
	return []Parameter{
		{Name: "embedding", Data: emb.RawMatrix().Data},
		{Name: "lstm.weight_ih", Data: wx.RawMatrix().Data},
		{Name: "lstm.weight_hh", Data: wh.RawMatrix().Data},
		{Name: "lstm.bias", Data: b.RawVector().Data},
		{Name: "fc.weight", Data: wo.RawMatrix().Data},
		{Name: "fc.bias", Data: bo.RawVector().Data},
	}
}

// State is a detached copy of every parameter, keyed by name.
type State map[string][]float64

func (n *Network) Snapshot() State {
	s := make(State, 6)
	for _, p := range n.Parameters() {
		cp := make([]float64, len(p.Data))
		copy(cp, p.Data)
		s[p.Name] = cp
	}
	return s
}

// Restore copies s into the network. Nothing is written unless every
// parameter is present with the right size.
func (n *Network) Restore(s State) error {
	params := n.Parameters()
	for _, p := range params {
		v, ok := s[p.Name]
		if !ok {
			return fmt.Errorf("%w: %s missing", ErrShapeMismatch, p.Name)
		}
		if len(v) != len(p.Data) {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrShapeMismatch, p.Name, len(v), len(p.Data))
		}
	}
	for _, p := range params {
		copy(p.Data, s[p.Name])
	}
	return nil
}

// CheckTokens reports the first row holding an index outside the embedding.
func (n *Network) CheckTokens(rows [][]int) error {
	for i, row := range rows {
		for _, tok := range row {
			if tok < 0 || tok >= n.params.VocabDim {
				return fmt.Errorf("%w: row %d holds token %d, vocabulary has %d", ErrShapeMismatch, i, tok, n.params.VocabDim)
			}
		}
	}
	return nil
}
