package window

import (
	"os"
	"sync"
)

// SyncFile wraps a terminal file so every Write is serialized. The UI
// renderer and the Terminal host share one SyncFile, which keeps resize
// and iconify sequences from landing inside a rendered frame.
//
// It exposes Fd so terminal detection and raw mode still work on the
// wrapped file.
type SyncFile struct {
	mu sync.Mutex
	f  *os.File
}

// NewSyncFile wraps f.
func NewSyncFile(f *os.File) *SyncFile {
	return &SyncFile{f: f}
}

func (s *SyncFile) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Write(p)
}

func (s *SyncFile) Read(p []byte) (int, error) { return s.f.Read(p) }
func (s *SyncFile) Close() error               { return s.f.Close() }
func (s *SyncFile) Fd() uintptr                { return s.f.Fd() }
