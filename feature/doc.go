// Package feature turns parsed scores into per-measure token sequences.
//
// Each measure after the first becomes a model.FeatureRecord: note and rest
// tokens repeated once per sixteenth of their duration, and one token per
// chord event. Durations finer than a sixteenth truncate to zero tokens.
package feature
