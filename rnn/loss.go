package rnn

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SoftmaxCrossEntropy returns the cross-entropy loss of logits against the
// target class and its derivative with respect to the logits.
func SoftmaxCrossEntropy(logits []float64, target int) (float64, []float64) {
	lse := floats.LogSumExp(logits)
	d := make([]float64, len(logits))
	for i, l := range logits {
		d[i] = math.Exp(l - lse)
	}
	loss := lse - logits[target]
	d[target] -= 1
	return loss, d
}
