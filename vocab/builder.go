package vocab

import (
	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/model"
)

// Builder accumulates the distinct note and chord tokens of a partition.
type Builder struct {
	notes  model.TokenSet
	chords model.TokenSet
}

func NewBuilder() *Builder {
	return &Builder{
		notes:  model.TokenSet{constants.Rest: {}},
		chords: model.TokenSet{constants.Rest: {}},
	}
}

func (b *Builder) Add(notes, chords model.TokenSet) {
	for tok := range notes {
		b.notes[tok] = struct{}{}
	}
	for tok := range chords {
		b.chords[tok] = struct{}{}
	}
}

// Build freezes both sets. The builder stays usable.
func (b *Builder) Build() (notes, chords Vocabulary) {
	return FromSet(b.notes), FromSet(b.chords)
}
