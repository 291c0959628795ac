package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// IndexState records the fingerprint of the document set that was last
// ingested, persisted next to the vector data.
type IndexState struct {
	Fingerprint string    `json:"fingerprint"`
	LastIndexed time.Time `json:"last_indexed"`
}

const stateFile = "index_state.json"

// LoadState reads the index state from dir, returning a zero state when the
// marker file does not exist yet.
func LoadState(dir string) (*IndexState, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &IndexState{}, nil
		}
		return nil, err
	}

	var state IndexState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the index state marker into dir.
func (s *IndexState) SaveState(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	s.LastIndexed = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}

// Fingerprint digests the (name, mtime, size) tuples of the given files in
// sorted order. Any change to the document set changes the digest.
func Fingerprint(files []DocFile) string {
	sorted := make([]DocFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, f := range sorted {
		fmt.Fprintf(h, "%s|%d|%d\n", f.Name, f.ModTime.UnixNano(), f.Size)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DocFile describes one eligible document in the docs directory.
type DocFile struct {
	Name    string // base name, also the relative path within the docs dir
	Path    string
	Size    int64
	ModTime time.Time
}
