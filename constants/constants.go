package constants

// Rest is the token emitted for rests and the token every vocabulary is
// seeded with. It always sits at index 0 of a built vocabulary.
const Rest = "REST"

// Sixteenths per quarter note. A note of quarter length q expands to
// int(q*SixteenthsPerQuarter) tokens.
const SixteenthsPerQuarter = 4

// DownbeatStride keeps one token per quarter note in downbeat-only mode.
const DownbeatStride = 4

const (
	Train  = "train"
	Dev    = "dev"
	Test   = "test"
	Sample = "sample"
)

// Partitions lists the splits processed by preprocess and tensors, in order.
var Partitions = []string{Train, Dev, Test}

// OwnsVocabulary reports whether a partition's tokens define the vocabulary.
func OwnsVocabulary(partition string) bool {
	return partition == Train || partition == Sample
}

const (
	NotesVocabFile  = "pitches_vocab"
	ChordsVocabFile = "chords_vocab"
	LockFile        = ".chordrnn.lock"
)
