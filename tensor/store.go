package tensor

import (
	"fmt"
	"log/slog"

	"github.com/jsphweid/chordrnn/file"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/util"
	"github.com/jsphweid/chordrnn/vocab"
)

// Variant selects which of the four persisted tensor sets to use.
type Variant struct {
	Clean    bool
	Downbeat bool
}

func Save(layout file.Layout, partition string, v Variant, p Partition) error {
	if len(p.Notes) != len(p.Chords) {
		return fmt.Errorf("%s: %d note rows but %d chord rows", partition, len(p.Notes), len(p.Chords))
	}
	if err := util.CreateBinary(layout.NotesTensor(partition, v.Clean, v.Downbeat), p.Notes); err != nil {
		return err
	}
	return util.CreateBinary(layout.ChordsTensor(partition, v.Clean, v.Downbeat), p.Chords)
}

func Load(layout file.Layout, partition string, v Variant) (Partition, error) {
	notes, err := util.ReadBinary[[][]int](layout.NotesTensor(partition, v.Clean, v.Downbeat))
	if err != nil {
		return Partition{}, err
	}
	chords, err := util.ReadBinary[[][]uint8](layout.ChordsTensor(partition, v.Clean, v.Downbeat))
	if err != nil {
		return Partition{}, err
	}
	if len(notes) != len(chords) {
		return Partition{}, fmt.Errorf("%s tensors are not row aligned: %d notes, %d chords", partition, len(notes), len(chords))
	}
	return Partition{Notes: notes, Chords: chords}, nil
}

// Build tensorizes each partition's feature records against the training
// vocabularies and persists the result.
func Build(layout file.Layout, partitions []string, v Variant, opts Options, logger *slog.Logger) (map[string]Stats, error) {
	notes, err := vocab.Load(layout.NotesVocab(v.Clean))
	if err != nil {
		return nil, err
	}
	chords, err := vocab.Load(layout.ChordsVocab(v.Clean))
	if err != nil {
		return nil, err
	}

	all := make(map[string]Stats, len(partitions))
	for _, partition := range partitions {
		records, err := util.ReadJSON[[]model.FeatureRecord](layout.Records(partition, v.Clean))
		if err != nil {
			return all, err
		}

		p, stats, err := Tensorize(records, notes, chords, opts)
		if err != nil {
			return all, fmt.Errorf("tensorize %s: %w", partition, err)
		}
		if err := Save(layout, partition, v, p); err != nil {
			return all, err
		}
		all[partition] = stats

		logger.Info("tensorized partition",
			"partition", partition,
			"records", stats.Records,
			"retained", stats.Retained,
			"skipped_empty", stats.SkippedEmpty,
			"skipped_chord", stats.SkippedChord,
			"skipped_note", stats.SkippedNote,
			"truncated", stats.Truncated,
			"padded", stats.Padded,
			"width", p.Width(),
		)
	}
	return all, nil
}
