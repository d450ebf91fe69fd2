package model

type Token = string

// FeatureRecord holds the token sequences of one measure. Notes are
// duration-expanded to sixteenth-note granularity, chords are not.
type FeatureRecord struct {
	Notes  []Token `json:"notes"`
	Chords []Token `json:"chords"`
}

type TokenSet = map[Token]struct{}
