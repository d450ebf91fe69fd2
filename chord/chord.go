// Package chord names simultaneous MIDI keys the way a score reader would
// label them: a root pitch class plus a common name such as "major triad".
package chord

import (
	"fmt"
	"sort"
)

// pitchNames spells pitch classes with "-" for flats.
var pitchNames = [12]string{"C", "C#", "D", "E-", "E", "F", "F#", "G", "G#", "A", "B-", "B"}

// PitchClass returns the spelling of key without an octave.
func PitchClass(key uint8) string {
	return pitchNames[key%12]
}

// PitchName returns the spelling of key with its octave, middle C being C4.
func PitchName(key uint8) string {
	return fmt.Sprintf("%s%d", pitchNames[key%12], int(key)/12-1)
}

type template struct {
	intervals []int
	name      string
}

// templates are tried in order; intervals are semitones above the root.
var templates = []template{
	{[]int{0, 4, 7}, "major triad"},
	{[]int{0, 3, 7}, "minor triad"},
	{[]int{0, 3, 6}, "diminished triad"},
	{[]int{0, 4, 8}, "augmented triad"},
	{[]int{0, 4, 7, 10}, "dominant seventh chord"},
	{[]int{0, 4, 7, 11}, "major seventh chord"},
	{[]int{0, 3, 7, 10}, "minor seventh chord"},
	{[]int{0, 3, 6, 10}, "half-diminished seventh chord"},
	{[]int{0, 3, 6, 9}, "diminished seventh chord"},
	{[]int{0, 3, 7, 11}, "minor-major seventh chord"},
	{[]int{0, 2, 7}, "suspended second triad"},
	{[]int{0, 5, 7}, "suspended fourth triad"},
}

var intervalNames = [12]string{
	"octave",
	"minor second",
	"major second",
	"minor third",
	"major third",
	"perfect fourth",
	"tritone",
	"perfect fifth",
	"minor sixth",
	"major sixth",
	"minor seventh",
	"major seventh",
}

// Name classifies keys. Known triads and sevenths are matched in any
// inversion; two pitch classes are named by their interval above the bass;
// anything else falls back to "<n>-note chord" rooted on the bass.
func Name(keys []uint8) (root, commonName string) {
	root, commonName, _ = classify(keys)
	return root, commonName
}

// Accompaniment names the keys sounding under a melody note. When the whole
// set has no known name and holds at least four keys, the highest key is
// taken as the melody and left out.
func Accompaniment(keys []uint8) (root, commonName string) {
	root, commonName, ok := classify(keys)
	if ok || len(keys) < 4 {
		return root, commonName
	}
	sorted := append([]uint8(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if r, n, ok := classify(sorted[:len(sorted)-1]); ok {
		return r, n
	}
	return root, commonName
}

// classify reports false only for the "<n>-note chord" fallback.
func classify(keys []uint8) (root, commonName string, ok bool) {
	if len(keys) == 0 {
		return "", "", false
	}
	bass := keys[0]
	for _, k := range keys {
		bass = min(bass, k)
	}
	pcs := pitchClasses(keys)

	switch len(pcs) {
	case 1:
		return PitchClass(bass), intervalNames[0], true
	case 2:
		b := int(bass % 12)
		other := pcs[0]
		if other == b {
			other = pcs[1]
		}
		return PitchClass(bass), intervalNames[(other-b+12)%12], true
	}

	for _, r := range rootCandidates(int(bass%12), pcs) {
		set := make([]int, len(pcs))
		for i, pc := range pcs {
			set[i] = (pc - r + 12) % 12
		}
		sort.Ints(set)
		for _, t := range templates {
			if equal(set, t.intervals) {
				return pitchNames[r], t.name, true
			}
		}
	}
	return PitchClass(bass), fmt.Sprintf("%d-note chord", len(pcs)), false
}

// rootCandidates lists the bass first, then the other pitch classes in
// ascending order.
func rootCandidates(bass int, pcs []int) []int {
	out := []int{bass}
	for _, pc := range pcs {
		if pc != bass {
			out = append(out, pc)
		}
	}
	return out
}

func pitchClasses(keys []uint8) []int {
	seen := make(map[int]bool)
	var pcs []int
	for _, k := range keys {
		pc := int(k % 12)
		if !seen[pc] {
			seen[pc] = true
			pcs = append(pcs, pc)
		}
	}
	sort.Ints(pcs)
	return pcs
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
