package feature

import "github.com/jsphweid/chordrnn/model"

// Measures returns the measures of the score's first part without the
// first measure, which is treated as a pickup bar.
func Measures(score model.Score) []model.Measure {
	if len(score.Parts) == 0 || len(score.Parts[0].Measures) < 2 {
		return nil
	}
	return score.Parts[0].Measures[1:]
}
