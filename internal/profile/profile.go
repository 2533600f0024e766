// Package profile stores named station lists as JSON files.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoProfile is returned when the requested profile file does not exist.
var ErrNoProfile = errors.New("profile not found")

const defaultFileName = "default.json"

// Profile is a named, ordered station list.
type Profile struct {
	Name     string   `json:"name"`
	Stations []string `json:"stations"`
}

// Store reads and writes profiles under a directory and remembers the last
// path it used.
type Store struct {
	dir string

	mu   sync.Mutex
	last string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// LastPath returns the most recently loaded or saved profile path.
func (s *Store) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Load reads the profile at path. An empty path uses the last path, or
// default.json in the store directory.
func (s *Store) Load(path string) (Profile, error) {
	resolved := s.resolve(path)

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, fmt.Errorf("%w: %s", ErrNoProfile, resolved)
		}
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", resolved, err)
	}
	p.Stations = cleanStations(p.Stations)

	s.remember(resolved)
	return p, nil
}

// Save writes p as pretty-printed JSON. An empty path follows the same
// resolution as Load.
func (s *Store) Save(path string, p Profile) error {
	resolved := s.resolve(path)

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	p.Stations = cleanStations(p.Stations)
	if p.Stations == nil {
		p.Stations = []string{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(resolved, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	s.remember(resolved)
	return nil
}

func (s *Store) resolve(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		if !filepath.IsAbs(trimmed) && !strings.ContainsRune(trimmed, filepath.Separator) {
			return filepath.Join(s.dir, withJSONExt(trimmed))
		}
		return trimmed
	}
	if last := s.LastPath(); last != "" {
		return last
	}
	return filepath.Join(s.dir, defaultFileName)
}

func (s *Store) remember(path string) {
	s.mu.Lock()
	s.last = path
	s.mu.Unlock()
}

func withJSONExt(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return name
	}
	return name + ".json"
}

func cleanStations(ids []string) []string {
	var out []string
	for _, id := range ids {
		if trimmed := strings.ToUpper(strings.TrimSpace(id)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
