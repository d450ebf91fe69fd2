package train

import "github.com/jsphweid/chordrnn/rnn"

// Best is the highest dev accuracy seen so far together with the network
// state that produced it. The zero value is not valid; use NoBest.
type Best struct {
	Epoch    int
	Accuracy float64
	State    rnn.State
}

// NoBest is the starting point of the fold. Any real accuracy beats it.
func NoBest() Best {
	return Best{Epoch: -1, Accuracy: -1}
}

// Found reports whether any epoch has been observed.
func (b Best) Found() bool { return b.Epoch >= 0 && b.State != nil }

// Observe returns the new best after epoch. snapshot is only called when acc
// is strictly greater than the current accuracy, so ties keep the earlier
// epoch.
func (b Best) Observe(epoch int, acc float64, snapshot func() rnn.State) Best {
	if acc > b.Accuracy {
		return Best{Epoch: epoch, Accuracy: acc, State: snapshot()}
	}
	return b
}

// Plateau stops training once the scaled training accuracy has stayed in
// the same bucket for Patience consecutive epochs. A bucket is
// int(acc*100*Granularity), so Granularity 10 compares at 0.1% resolution.
type Plateau struct {
	Granularity int
	Patience    int

	previous int
	stalled  int
	started  bool
}

func NewPlateau(granularity, patience int) *Plateau {
	return &Plateau{Granularity: granularity, Patience: max(1, patience)}
}

// Observe records one epoch and reports whether training should stop.
func (p *Plateau) Observe(acc float64) bool {
	bucket := int(acc * 100 * float64(p.Granularity))
	if p.started && bucket == p.previous {
		p.stalled++
	} else {
		p.stalled = 0
	}
	p.started = true
	p.previous = bucket
	return p.stalled >= p.Patience
}

// Stalled is the current number of consecutive epochs without a change.
func (p *Plateau) Stalled() int { return p.stalled }
