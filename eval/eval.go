// Package eval scores a trained checkpoint against a held-out partition.
package eval

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/rnn"
	"github.com/jsphweid/chordrnn/tensor"
	"github.com/jsphweid/chordrnn/util"
	"github.com/jsphweid/chordrnn/vocab"
)

type ChordStat struct {
	Chord   model.Token
	Support int
	Correct int
}

func (c ChordStat) Accuracy() float64 {
	if c.Support == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Support)
}

type Report struct {
	Accuracy float64
	Correct  int
	Total    int
	// PerChord is ordered by descending support, then chord name.
	PerChord []ChordStat
}

// Top returns at most n per-chord rows; n <= 0 returns all of them.
func (r Report) Top(n int) []ChordStat {
	if n <= 0 || n >= len(r.PerChord) {
		return r.PerChord
	}
	return r.PerChord[:n]
}

// Evaluate runs one inference pass over p. An empty partition yields a zero
// report and a warning instead of an error.
func Evaluate(net *rnn.Network, p tensor.Partition, chords vocab.Vocabulary, logger *slog.Logger) (Report, error) {
	if len(p.Notes) != len(p.Chords) {
		return Report{}, fmt.Errorf("%d note rows but %d chord rows", len(p.Notes), len(p.Chords))
	}
	if err := net.CheckTokens(p.Notes); err != nil {
		return Report{}, err
	}
	if p.Len() == 0 {
		logger.Warn("test partition is empty, reporting zero accuracy")
		return Report{}, nil
	}

	stats := make(map[int]*ChordStat)
	var r Report
	for i, row := range p.Notes {
		if len(p.Chords[i]) != chords.Len() {
			return Report{}, fmt.Errorf("%w: row %d label has %d classes, vocabulary has %d",
				rnn.ErrShapeMismatch, i, len(p.Chords[i]), chords.Len())
		}
		target := util.Argmax(p.Chords[i])
		s, ok := stats[target]
		if !ok {
			s = &ChordStat{Chord: chords.Token(target)}
			stats[target] = s
		}
		s.Support++
		r.Total++
		if util.Argmax(net.Logits(row)) == target {
			s.Correct++
			r.Correct++
		}
	}
	r.Accuracy = float64(r.Correct) / float64(r.Total)

	for _, k := range util.GetKeys(stats) {
		r.PerChord = append(r.PerChord, *stats[k])
	}
	sort.SliceStable(r.PerChord, func(i, j int) bool {
		a, b := r.PerChord[i], r.PerChord[j]
		if a.Support != b.Support {
			return a.Support > b.Support
		}
		return a.Chord < b.Chord
	})

	logger.Info("evaluation done", "accuracy", r.Accuracy, "correct", r.Correct, "total", r.Total)
	return r, nil
}
