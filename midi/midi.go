package midi

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadMidiFile parses an SMF file. gomidi panics on some malformed input,
// so a panic is turned into an error here.
func ReadMidiFile(path string) (s *smf.SMF, e error) {
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = fmt.Errorf("parse midi file %s: %v", path, r)
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("parse midi file %s: %w", path, err)
	}
	if len(res.Tracks) == 0 {
		return nil, errors.New("midi file has no tracks: " + path)
	}
	return res, nil
}
