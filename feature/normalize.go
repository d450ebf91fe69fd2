package feature

import (
	"regexp"
	"strings"

	"github.com/jsphweid/chordrnn/model"
)

type replacement struct {
	flat, sharp string
}

// Enharmonic spellings for the seven natural-note flats.
var flatReplacements = []replacement{
	{"A-", "G#"},
	{"B-", "A#"},
	{"C-", "B"},
	{"D-", "C#"},
	{"E-", "D#"},
	{"F-", "E"},
	{"G-", "F#"},
}

// NormalizeNote rewrites a note token that exactly matches a flat spelling.
func NormalizeNote(name string) string {
	for _, r := range flatReplacements {
		if name == r.flat {
			return r.sharp
		}
	}
	return name
}

// flatRun is a natural note followed by one or more flats.
var flatRun = regexp.MustCompile(`[A-G]-+`)

var (
	naturalClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}
	sharpNames     = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
)

// NormalizeChord rewrites every flat spelling inside a chord token in one
// pass. Single flats follow the table; "C--" becomes "A#".
func NormalizeChord(name string) string {
	return flatRun.ReplaceAllStringFunc(name, func(run string) string {
		flats := strings.Count(run, "-")
		return sharpNames[((naturalClasses[run[0]]-flats)%12+12)%12]
	})
}

// NormalizeRecords returns flat-normalized copies of already extracted
// records.
func NormalizeRecords(records []model.FeatureRecord) []model.FeatureRecord {
	out := make([]model.FeatureRecord, len(records))
	for i, r := range records {
		notes := make([]model.Token, len(r.Notes))
		for j, n := range r.Notes {
			notes[j] = NormalizeNote(n)
		}
		chords := make([]model.Token, len(r.Chords))
		for j, c := range r.Chords {
			chords[j] = NormalizeChord(c)
		}
		out[i] = model.FeatureRecord{Notes: notes, Chords: chords}
	}
	return out
}
