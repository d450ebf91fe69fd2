package feature

import (
	"fmt"
	"log/slog"

	"github.com/jsphweid/chordrnn/constants"
	"github.com/jsphweid/chordrnn/file"
	"github.com/jsphweid/chordrnn/logging"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/util"
	"github.com/jsphweid/chordrnn/vocab"
)

type PartitionStats struct {
	Partition   string
	Scores      int
	Records     int
	EmptyNotes  int
	EmptyChords int
	WroteVocab  bool
	NotesVocab  int
	ChordsVocab int
	RecordsPath string
}

// ProcessScores extracts every measure of every score, skipping each score's
// first measure, and accumulates the partition's tokens into b.
func ProcessScores(scores []model.Score, normalizeFlats bool, b *vocab.Builder, progress logging.Progress) []model.FeatureRecord {
	records := []model.FeatureRecord{}
	for _, s := range scores {
		for _, m := range Measures(s) {
			res := Extract(m, normalizeFlats)
			b.Add(res.UniqueNotes, res.UniqueChords)
			records = append(records, res.Record)
		}
		if progress != nil {
			_ = progress.Add(1)
		}
	}
	return records
}

// Preprocess writes the feature records of each partition, and the note and
// chord vocabularies of the partition that owns them (train or sample).
func Preprocess(layout file.Layout, partitions []string, normalizeFlats bool, logger *slog.Logger) ([]PartitionStats, error) {
	var all []PartitionStats
	for _, partition := range partitions {
		stats, err := preprocessPartition(layout, partition, normalizeFlats, logger)
		if err != nil {
			return all, fmt.Errorf("preprocess %s: %w", partition, err)
		}
		all = append(all, stats)
	}
	return all, nil
}

func preprocessPartition(layout file.Layout, partition string, normalizeFlats bool, logger *slog.Logger) (PartitionStats, error) {
	stats := PartitionStats{Partition: partition}

	logger.Info("loading scores", "partition", partition, "path", layout.Scores(partition))
	scores, err := util.ReadJSON[[]model.Score](layout.Scores(partition))
	if err != nil {
		return stats, err
	}
	stats.Scores = len(scores)

	progress := logging.NewProgress(len(scores), "extracting "+partition)
	b := vocab.NewBuilder()
	records := ProcessScores(scores, normalizeFlats, b, progress)
	_ = progress.Finish()

	stats.Records = len(records)
	for _, r := range records {
		if len(r.Notes) == 0 {
			stats.EmptyNotes++
		}
		if len(r.Chords) == 0 {
			stats.EmptyChords++
		}
	}

	stats.RecordsPath = layout.Records(partition, normalizeFlats)
	if err := util.WriteJSON(stats.RecordsPath, records); err != nil {
		return stats, err
	}

	if constants.OwnsVocabulary(partition) {
		notes, chords := b.Build()
		if err := vocab.Save(layout.NotesVocab(normalizeFlats), notes); err != nil {
			return stats, err
		}
		if err := vocab.Save(layout.ChordsVocab(normalizeFlats), chords); err != nil {
			return stats, err
		}
		stats.WroteVocab = true
		stats.NotesVocab = notes.Len()
		stats.ChordsVocab = chords.Len()
	}

	logger.Info("wrote feature records",
		"partition", partition,
		"scores", stats.Scores,
		"records", stats.Records,
		"empty_notes", stats.EmptyNotes,
		"empty_chords", stats.EmptyChords,
		"vocab_written", stats.WroteVocab,
	)
	return stats, nil
}

// DeriveNormalized writes the flat-normalized records of a partition from
// its plain records, and the normalized vocabularies from the plain ones
// when the partition owns them. Existing normalized files are left alone.
func DeriveNormalized(layout file.Layout, partition string, logger *slog.Logger) error {
	target := layout.Records(partition, true)
	if !util.Exists(target) {
		records, err := util.ReadJSON[[]model.FeatureRecord](layout.Records(partition, false))
		if err != nil {
			return err
		}
		if err := util.WriteJSON(target, NormalizeRecords(records)); err != nil {
			return err
		}
		logger.Info("derived flat-normalized records", "partition", partition, "records", len(records))
	}

	if !constants.OwnsVocabulary(partition) {
		return nil
	}
	if err := deriveVocab(layout.NotesVocab(false), layout.NotesVocab(true), NormalizeNote); err != nil {
		return err
	}
	return deriveVocab(layout.ChordsVocab(false), layout.ChordsVocab(true), NormalizeChord)
}

func deriveVocab(src, dst string, fn func(string) string) error {
	if util.Exists(dst) {
		return nil
	}
	v, err := vocab.Load(src)
	if err != nil {
		return err
	}
	return vocab.Save(dst, vocab.Normalize(v, fn))
}
