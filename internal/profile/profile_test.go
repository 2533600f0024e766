package profile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestStore_SaveThenLoadByName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	s := NewStore(dir)

	want := Profile{Name: "Bay Area", Stations: []string{"KSFO", " koak ", "", "SJC"}}
	if err := s.Save("bay", want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := s.LastPath(); got != filepath.Join(dir, "bay.json") {
		t.Fatalf("LastPath = %q, want bay.json in %q", got, dir)
	}

	loaded, err := NewStore(dir).Load("bay.json")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Name != "Bay Area" {
		t.Fatalf("Name = %q, want Bay Area", loaded.Name)
	}
	if !reflect.DeepEqual(loaded.Stations, []string{"KSFO", "KOAK", "SJC"}) {
		t.Fatalf("Stations = %v, want [KSFO KOAK SJC]", loaded.Stations)
	}
}

func TestStore_EmptyPathUsesLastThenDefault(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Save("", Profile{Name: "default"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, defaultFileName)); err != nil {
		t.Fatalf("default profile not written: %v", err)
	}

	custom := filepath.Join(t.TempDir(), "elsewhere.json")
	if err := s.Save(custom, Profile{Name: "custom", Stations: []string{"EGLL"}}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	p, err := s.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Name != "custom" {
		t.Fatalf("Load(\"\") = %q, want the last saved profile", p.Name)
	}

	data, err := os.ReadFile(custom)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"stations\": [\n    \"EGLL\"\n  ]") {
		t.Fatalf("profile not pretty-printed:\n%s", data)
	}
}

func TestStore_LoadMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if _, err := s.Load("nope"); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("Load(missing) error = %v, want ErrNoProfile", err)
	}
	if s.LastPath() != "" {
		t.Fatalf("LastPath = %q after failed load, want empty", s.LastPath())
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := s.Load(bad); err == nil || !strings.Contains(err.Error(), "parse profile") {
		t.Fatalf("Load(bad) error = %v, want parse profile error", err)
	}
}
