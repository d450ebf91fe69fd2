package train

import (
	"math/rand"

	"github.com/jsphweid/chordrnn/tensor"
)

// example is one row of a partition: a note sequence and its chord class.
type example struct {
	notes  []int
	target int
}

func examples(p tensor.Partition) []example {
	out := make([]example, p.Len())
	for i := range p.Notes {
		out[i] = example{notes: p.Notes[i], target: targetOf(p.Chords[i])}
	}
	return out
}

// targetOf returns the hot index of a one-hot label, -1 for an all-zero row.
func targetOf(oneHot []uint8) int {
	for i, v := range oneHot {
		if v != 0 {
			return i
		}
	}
	return -1
}

// limit keeps the first n examples; a negative n keeps all of them.
func limit(xs []example, n int) []example {
	if n < 0 || n >= len(xs) {
		return xs
	}
	return xs[:n]
}

// batches shuffles xs in place and splits it into consecutive chunks of at
// most size elements. The last batch may be short.
func batches(rng *rand.Rand, xs []example, size int) [][]example {
	rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	if size <= 0 {
		size = len(xs)
	}

	var out [][]example
	for start := 0; start < len(xs); start += size {
		end := min(start+size, len(xs))
		out = append(out, xs[start:end])
	}
	return out
}
