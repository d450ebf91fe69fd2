package midi

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jsphweid/chordrnn/file"
	"github.com/jsphweid/chordrnn/logging"
	"github.com/jsphweid/chordrnn/model"
	"github.com/jsphweid/chordrnn/util"
)

type ImportStats struct {
	Partition string
	Files     int
	Scores    int
	Skipped   int
	Path      string
}

// ReadScores converts every .mid/.midi file under dir, in path order.
// Files that cannot be parsed or hold no notes are logged and skipped.
// maxFiles of 0 reads them all.
func ReadScores(dir string, maxFiles int, logger *slog.Logger) ([]model.Score, int, error) {
	paths, err := util.GatherAllMidiPaths(dir, maxFiles)
	if err != nil {
		return nil, 0, err
	}

	progress := logging.NewProgress(len(paths), "import")
	defer progress.Finish()

	scores := []model.Score{}
	skipped := 0
	for _, path := range paths {
		_ = progress.Add(1)
		parsed, err := ReadMidiFile(path)
		if err != nil {
			logger.Warn("skipping midi file", "path", path, "error", err)
			skipped++
			continue
		}
		score, err := ToScore(titleOf(path), parsed)
		if err != nil {
			logger.Warn("skipping midi file", "path", path, "error", err)
			skipped++
			continue
		}
		scores = append(scores, score)
	}
	return scores, skipped, nil
}

// ImportPartition writes the scores found under dir to the partition's
// score file.
func ImportPartition(layout file.Layout, partition, dir string, maxFiles int, logger *slog.Logger) (ImportStats, error) {
	scores, skipped, err := ReadScores(dir, maxFiles, logger)
	if err != nil {
		return ImportStats{}, fmt.Errorf("import %s: %w", partition, err)
	}
	out := layout.Scores(partition)
	if err := util.WriteJSON(out, scores); err != nil {
		return ImportStats{}, fmt.Errorf("import %s: %w", partition, err)
	}

	stats := ImportStats{
		Partition: partition,
		Files:     len(scores) + skipped,
		Scores:    len(scores),
		Skipped:   skipped,
		Path:      out,
	}
	logger.Info("import done",
		"partition", partition,
		"files", stats.Files,
		"scores", stats.Scores,
		"skipped", stats.Skipped,
		"path", out,
	)
	return stats, nil
}

func titleOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
