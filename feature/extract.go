package feature

import (
	"fmt"
	"regexp"

	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/model"
)

var digits = regexp.MustCompile(`[0-9]`)

// Result is the extraction of one measure.
type Result struct {
	Record       model.FeatureRecord
	UniqueNotes  model.TokenSet
	UniqueChords model.TokenSet
}

// Extract converts one measure into note and chord token sequences. Rests
// extend the note sequence but never enter the unique sets.
func Extract(m model.Measure, normalizeFlats bool) Result {
	res := Result{
		Record:       model.FeatureRecord{Notes: []model.Token{}, Chords: []model.Token{}},
		UniqueNotes:  model.TokenSet{},
		UniqueChords: model.TokenSet{},
	}

	for _, evt := range m.Events {
		switch evt.Kind {
		case model.KindNote:
			name := digits.ReplaceAllString(evt.Pitch, "")
			if normalizeFlats {
				name = NormalizeNote(name)
			}
			res.UniqueNotes[name] = struct{}{}
			res.Record.Notes = appendRepeated(res.Record.Notes, name, Sixteenths(evt.QuarterLength))
		case model.KindChord:
			name := digits.ReplaceAllString(fmt.Sprintf("%s %s", evt.Root, evt.CommonName), "")
			if normalizeFlats {
				name = NormalizeChord(name)
			}
			res.UniqueChords[name] = struct{}{}
			res.Record.Chords = append(res.Record.Chords, name)
		case model.KindRest:
			res.Record.Notes = appendRepeated(res.Record.Notes, constants.Rest, Sixteenths(evt.QuarterLength))
		}
	}
	return res
}

// Sixteenths is the number of tokens a duration of q quarter notes expands
// to, truncated toward zero.
func Sixteenths(q float64) int {
	n := int(q * constants.SixteenthsPerQuarter)
	if n < 0 {
		return 0
	}
	return n
}

func appendRepeated(tokens []model.Token, token model.Token, n int) []model.Token {
	for i := 0; i < n; i++ {
		tokens = append(tokens, token)
	}
	return tokens
}
