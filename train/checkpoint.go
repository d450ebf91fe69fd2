package train

import (
	"fmt"

	"github.com/jsphweid/chordrnn/rnn"
	"github.com/jsphweid/chordrnn/util"
)

// Checkpoint is what train persists and evaluate restores.
type Checkpoint struct {
	Params      rnn.Params
	State       rnn.State
	NotesVocab  int
	ChordsVocab int
	Epoch       int
	DevAccuracy float64
}

func NewCheckpoint(net *rnn.Network, best Best) Checkpoint {
	p := net.Params()
	return Checkpoint{
		Params:      p,
		State:       best.State,
		NotesVocab:  p.VocabDim,
		ChordsVocab: p.ChordDim,
		Epoch:       best.Epoch,
		DevAccuracy: best.Accuracy,
	}
}

func SaveCheckpoint(path string, c Checkpoint) error {
	if err := util.CreateBinary(path, c); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func LoadCheckpoint(path string) (Checkpoint, error) {
	c, err := util.ReadBinary[Checkpoint](path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load checkpoint: %w", err)
	}
	return c, nil
}

// Network rebuilds the saved network. The vocabulary sizes must match the
// ones the checkpoint was trained with.
func (c Checkpoint) Network(notesVocab, chordsVocab int) (*rnn.Network, error) {
	if notesVocab != c.NotesVocab || chordsVocab != c.ChordsVocab {
		return nil, fmt.Errorf("%w: checkpoint trained on %d notes and %d chords, vocabularies have %d and %d",
			rnn.ErrShapeMismatch, c.NotesVocab, c.ChordsVocab, notesVocab, chordsVocab)
	}
	net, err := rnn.New(c.Params)
	if err != nil {
		return nil, err
	}
	if err := net.Restore(c.State); err != nil {
		return nil, err
	}
	return net, nil
}
