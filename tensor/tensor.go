package tensor

import (
	"errors"
	"fmt"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/vocab"
)

var (
	ErrMissingNote  = errors.New("note token missing from vocabulary")
	ErrMissingChord = errors.New("chord token missing from vocabulary")
)

// Policy decides what happens to a measure holding a token the vocabulary
// does not know.
type Policy int

const (
	Abort Policy = iota
	Skip
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case config.PolicyAbort:
		return Abort, nil
	case config.PolicySkip:
		return Skip, nil
	default:
		return Abort, fmt.Errorf("unknown missing-token policy %q", s)
	}
}

type Options struct {
	DownbeatOnly bool
	// SequenceLength is the row width in sixteenths before downbeat
	// subsampling. Zero sizes rows to the longest retained measure.
	SequenceLength int
	MissingNote    Policy
	MissingChord   Policy
}

func OptionsFromConfig(cfg config.Config) (Options, error) {
	notePolicy, err := ParsePolicy(cfg.Features.MissingNote)
	if err != nil {
		return Options{}, err
	}
	chordPolicy, err := ParsePolicy(cfg.Features.MissingChord)
	if err != nil {
		return Options{}, err
	}
	return Options{
		DownbeatOnly:   cfg.Features.DownbeatOnly,
		SequenceLength: cfg.Features.SequenceLength,
		MissingNote:    notePolicy,
		MissingChord:   chordPolicy,
	}, nil
}

// Width is the configured row width after subsampling, or 0 when rows are
// sized to the data.
func (o Options) Width() int {
	if o.SequenceLength == 0 || !o.DownbeatOnly {
		return o.SequenceLength
	}
	return (o.SequenceLength + constants.DownbeatStride - 1) / constants.DownbeatStride
}

// Partition holds the row-aligned tensors of one split: Notes[i] are the
// note indices of measure i and Chords[i] its one-hot chord label.
type Partition struct {
	Notes  [][]int
	Chords [][]uint8
}

func (p Partition) Len() int { return len(p.Notes) }

func (p Partition) Width() int {
	if len(p.Notes) == 0 {
		return 0
	}
	return len(p.Notes[0])
}

// Stats counts what happened to each record. Records equals Retained plus
// all three skip counters.
type Stats struct {
	Records      int
	Retained     int
	SkippedEmpty int
	SkippedChord int
	SkippedNote  int
	Truncated    int
	Padded       int
}

// Tensorize maps feature records to index rows against fixed vocabularies.
// Only the first chord of a measure becomes its label.
func Tensorize(records []model.FeatureRecord, notes, chords vocab.Vocabulary, opts Options) (Partition, Stats, error) {
	stats := Stats{Records: len(records)}
	var rows [][]int
	var labels [][]uint8

	for i, rec := range records {
		if len(rec.Notes) == 0 || len(rec.Chords) == 0 {
			stats.SkippedEmpty++
			continue
		}

		chordIdx, err := chords.Lookup(rec.Chords[0])
		if err != nil {
			if opts.MissingChord == Skip {
				stats.SkippedChord++
				continue
			}
			return Partition{}, stats, fmt.Errorf("%w: record %d: %w", ErrMissingChord, i, err)
		}

		row, err := noteRow(rec.Notes, notes, opts.DownbeatOnly)
		if err != nil {
			if opts.MissingNote == Skip {
				stats.SkippedNote++
				continue
			}
			return Partition{}, stats, fmt.Errorf("%w: record %d: %w", ErrMissingNote, i, err)
		}

		rows = append(rows, row)
		labels = append(labels, OneHot(chordIdx, chords.Len()))
	}

	stats.Retained = len(rows)
	width := opts.Width()
	if width == 0 {
		for _, r := range rows {
			width = max(width, len(r))
		}
	}

	pad, err := notes.Lookup(constants.Rest)
	if err != nil {
		return Partition{}, stats, err
	}
	for i, r := range rows {
		switch {
		case len(r) > width:
			rows[i] = r[:width]
			stats.Truncated++
		case len(r) < width:
			for len(r) < width {
				r = append(r, pad)
			}
			rows[i] = r
			stats.Padded++
		}
	}

	return Partition{Notes: rows, Chords: labels}, stats, nil
}

func noteRow(tokens []model.Token, notes vocab.Vocabulary, downbeatOnly bool) ([]int, error) {
	row := make([]int, 0, len(tokens))
	for _, pos := range Positions(len(tokens), downbeatOnly) {
		idx, err := notes.Lookup(tokens[pos])
		if err != nil {
			return nil, err
		}
		row = append(row, idx)
	}
	return row, nil
}

// Positions returns the note positions kept from a sequence of length n:
// all of them, or 0, 4, 8, ... in downbeat-only mode.
func Positions(n int, downbeatOnly bool) []int {
	stride := 1
	if downbeatOnly {
		stride = constants.DownbeatStride
	}
	out := make([]int, 0, (n+stride-1)/stride)
	for i := 0; i < n; i += stride {
		out = append(out, i)
	}
	return out
}

func OneHot(idx, size int) []uint8 {
	v := make([]uint8, size)
	v[idx] = 1
	return v
}
