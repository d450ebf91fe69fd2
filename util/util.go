package util

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/exp/constraints"
)

// ErrMissingArtifact is returned when a stage input does not exist on disk.
var ErrMissingArtifact = errors.New("missing artifact")

func missing(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
}

func GatherAllMidiPaths(path string, maxNum int) ([]string, error) {
	var res []string
	walk := func(s string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		lower := strings.ToLower(s)
		if strings.HasSuffix(lower, ".mid") || strings.HasSuffix(lower, ".midi") {
			if maxNum == 0 || len(res) < maxNum {
				res = append(res, s)
			}
		}
		return nil
	}
	if err := filepath.WalkDir(path, walk); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missing(path)
		}
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	sort.Strings(res)
	return res, nil
}

// GetKeys returns the keys of m in ascending order.
func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Argmax returns the index of the largest value, the first one on ties, or
// -1 for an empty slice.
func Argmax[A constraints.Integer | constraints.Float](xs []A) int {
	if len(xs) == 0 {
		return -1
	}
	best := 0
	for i, v := range xs[1:] {
		if v > xs[best] {
			best = i + 1
		}
	}
	return best
}

func CreateBinary(filename string, data any) error {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(data); err != nil {
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return writeAtomic(filename, buf.Bytes())
}

func ReadBinary[A any](path string) (A, error) {
	var data A
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return data, missing(path)
		}
		return data, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return data, fmt.Errorf("decode %s: %w", path, err)
	}
	return data, nil
}

func WriteJSON(filename string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return writeAtomic(filename, b)
}

func ReadJSON[A any](path string) (A, error) {
	var data A
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return data, missing(path)
		}
		return data, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return data, fmt.Errorf("decode %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeAtomic(filename string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", filename, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename %s: %w", filename, err)
	}
	return nil
}
