// Package snapshot keeps a copy of the voice catalog on disk so listings can
// be served without logging in.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"fakeyou/internal/fakeyou"
)

const fileName = "catalog_cache.json"

// Snapshot is one refresh worth of catalog data.
type Snapshot struct {
	Categories []fakeyou.Category `json:"categories"`
	Voices     []fakeyou.Voice    `json:"voices"`
	Generated  time.Time          `json:"generated"`
}

// Info describes the cache file.
type Info struct {
	Exists       bool
	Path         string
	Size         int64
	LastModified time.Time
	Fresh        bool
	MaxAge       time.Duration
}

// Store reads and writes the catalog cache file in a directory.
type Store struct {
	dir    string
	file   string
	maxAge time.Duration
}

// New creates a store whose snapshots stay fresh for maxAge.
func New(dir string, maxAge time.Duration) *Store {
	return &Store{
		dir:    dir,
		file:   filepath.Join(dir, fileName),
		maxAge: maxAge,
	}
}

// FromClient captures the client's current catalog.
func FromClient(c *fakeyou.Client) Snapshot {
	return Snapshot{
		Categories: c.Categories(),
		Voices:     c.Voices(),
		Generated:  c.CacheGenerated(),
	}
}

// VoicesByCategoryToken filters the snapshot the same way the client does.
func (s *Snapshot) VoicesByCategoryToken(token string) []fakeyou.Voice {
	voices := make([]fakeyou.Voice, 0)
	for _, v := range s.Voices {
		if slices.Contains(v.CategoryTokens, token) {
			voices = append(voices, v)
		}
	}
	return voices
}

// IsFresh reports whether the cache file exists and is younger than maxAge.
func (st *Store) IsFresh() bool {
	info, err := os.Stat(st.file)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < st.maxAge
}

// Load reads the cached snapshot regardless of its age.
func (st *Store) Load() (*Snapshot, error) {
	f, err := os.Open(st.file)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"voices":     len(snap.Voices),
		"categories": len(snap.Categories),
		"generated":  snap.Generated.Format(time.RFC3339),
	}).Debug("loaded catalog snapshot")
	return &snap, nil
}

// Save replaces the cache file. The snapshot is written to a temp file first
// so a reader never sees a partial document.
func (st *Store) Save(snap Snapshot) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(st.dir, fileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), st.file); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"voices": len(snap.Voices),
		"file":   st.file,
	}).Debug("saved catalog snapshot")
	return nil
}

// Clear removes the cache file if it exists.
func (st *Store) Clear() error {
	if err := os.Remove(st.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Info reports on the cache file without reading it.
func (st *Store) Info() (Info, error) {
	info := Info{Path: st.file, MaxAge: st.maxAge}

	stat, err := os.Stat(st.file)
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("failed to stat cache file: %w", err)
	}

	info.Exists = true
	info.Size = stat.Size()
	info.LastModified = stat.ModTime()
	info.Fresh = time.Since(stat.ModTime()) < st.maxAge
	return info, nil
}
