package midi

import (
	"errors"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/chordrnn/chord"
	"github.com/jsphweid/chordrnn/model"
)

var ErrNoNotes = errors.New("midi file has no notes")

// quantum is the finest quarter-length subdivision kept, 1/48 of a quarter.
const quantum = 48

type meter struct {
	num, denom uint8
}

// onset is every key struck at one tick with the tick each was released.
// Keys never released have no entry in ends.
type onset struct {
	tick uint64
	keys []uint8
	ends map[uint8]uint64
}

func (o onset) top() uint8 {
	return o.keys[len(o.keys)-1]
}

type reducedEvent struct {
	tick      uint64
	isNoteOff bool
	key       uint8
}

// ToScore flattens every track of s into a single part. Measures follow the
// first time signature (4/4 when there is none). The highest key of each
// onset is the melody note and lasts until it is released or the next onset
// begins; silences become rests. Two or more keys struck together also add a
// zero-length chord symbol ahead of the note. Notes crossing a barline are
// split and continue in the next measure.
func ToScore(title string, s *smf.SMF) (model.Score, error) {
	tpq := uint64(480)
	if tf, ok := s.TimeFormat.(smf.MetricTicks); ok && tf > 0 {
		tpq = uint64(tf)
	}

	events, m := collect(s)
	onsets := groupOnsets(events)
	if len(onsets) == 0 {
		return model.Score{}, ErrNoNotes
	}

	measureTicks := tpq * 4 * uint64(m.num) / uint64(m.denom)
	if measureTicks == 0 {
		measureTicks = tpq * 4
	}

	var (
		spans []span
		pos   uint64
	)
	for i, o := range onsets {
		if o.tick > pos {
			spans = append(spans, span{start: pos, end: o.tick})
		}
		end := o.ends[o.top()]
		if end <= o.tick {
			end = o.tick + tpq
		}
		if i+1 < len(onsets) {
			end = min(end, onsets[i+1].tick)
		}
		spans = append(spans, span{start: o.tick, end: end, keys: o.keys})
		pos = end
	}
	total := (pos + measureTicks - 1) / measureTicks * measureTicks
	if total > pos {
		spans = append(spans, span{start: pos, end: total})
	}

	measures := make([]model.Measure, total/measureTicks)
	for i := range measures {
		measures[i].Number = i + 1
	}
	for _, sp := range spans {
		if len(sp.keys) > 1 {
			idx := sp.start / measureTicks
			root, name := chord.Accompaniment(sp.keys)
			measures[idx].Events = append(measures[idx].Events, model.Event{Kind: model.KindChord, Root: root, CommonName: name})
		}
		for start := sp.start; start < sp.end; {
			idx := start / measureTicks
			end := min(sp.end, (idx+1)*measureTicks)
			measures[idx].Events = append(measures[idx].Events, sp.event(quarters(end-start, tpq)))
			start = end
		}
	}

	return model.Score{
		Title: title,
		Parts: []model.Part{{Name: "midi", Measures: measures}},
	}, nil
}

type span struct {
	start, end uint64
	keys       []uint8
}

func (sp span) event(q float64) model.Event {
	if len(sp.keys) == 0 {
		return model.Event{Kind: model.KindRest, QuarterLength: q}
	}
	return model.Event{Kind: model.KindNote, Pitch: chord.PitchName(sp.keys[len(sp.keys)-1]), QuarterLength: q}
}

func quarters(ticks, tpq uint64) float64 {
	return math.Round(float64(ticks)*quantum/float64(tpq)) / quantum
}

// collect gathers note events from every track in absolute ticks and the
// earliest time signature.
func collect(s *smf.SMF) ([]reducedEvent, meter) {
	var (
		events   []reducedEvent
		m        = meter{4, 4}
		meterAt  uint64
		hasMeter bool
	)
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			var channel, key, velocity uint8
			var num, denom, clocks, demis uint8
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				events = append(events, reducedEvent{tick: abs, isNoteOff: velocity == 0, key: key})
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				events = append(events, reducedEvent{tick: abs, isNoteOff: true, key: key})
			case ev.Message.GetMetaTimeSig(&num, &denom, &clocks, &demis):
				if num > 0 && denom > 0 && (!hasMeter || abs < meterAt) {
					m, meterAt, hasMeter = meter{num, denom}, abs, true
				}
			}
		}
	}

	// earlier ticks first, note offs before note ons at the same tick
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].isNoteOff && !events[j].isNoteOff
	})
	return events, m
}

func groupOnsets(events []reducedEvent) []onset {
	var (
		out     []onset
		pressed = make(map[uint8]int) // key -> index into out
	)
	for _, ev := range events {
		if ev.isNoteOff {
			if idx, ok := pressed[ev.key]; ok {
				out[idx].ends[ev.key] = ev.tick
				delete(pressed, ev.key)
			}
			continue
		}
		if n := len(out); n == 0 || out[n-1].tick != ev.tick {
			out = append(out, onset{tick: ev.tick, ends: make(map[uint8]uint64)})
		}
		last := len(out) - 1
		if !contains(out[last].keys, ev.key) {
			out[last].keys = append(out[last].keys, ev.key)
		}
		pressed[ev.key] = last
	}
	for i := range out {
		sort.Slice(out[i].keys, func(a, b int) bool { return out[i].keys[a] < out[i].keys[b] })
	}
	return out
}

func contains(keys []uint8, key uint8) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
