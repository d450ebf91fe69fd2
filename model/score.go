package model

type EventKind = string

const (
	KindNote  EventKind = "note"
	KindChord EventKind = "chord"
	KindRest  EventKind = "rest"
)

type Score struct {
	Title string `json:"title"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Name     string    `json:"name,omitempty"`
	Measures []Measure `json:"measures"`
}

type Measure struct {
	Number int     `json:"number"`
	Events []Event `json:"events"`
}

// Event is one element of a measure. Pitch is set for notes, Root and
// CommonName for chords. Pitch names may carry an octave ("E-4"); digits are
// stripped during feature extraction.
type Event struct {
	Kind          EventKind `json:"kind"`
	Pitch         string    `json:"pitch,omitempty"`
	QuarterLength float64   `json:"quarter_length"`
	Root          string    `json:"root,omitempty"`
	CommonName    string    `json:"common_name,omitempty"`
}
