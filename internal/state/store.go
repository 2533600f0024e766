package state

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/five82/minimetars/internal/metrics"
	"github.com/five82/minimetars/internal/station"
)

// ErrIndexOutOfRange is returned by index-based operations when no station
// exists at the given position.
var ErrIndexOutOfRange = errors.New("station index out of range")

// Identifier length bounds after trimming.
const (
	MinIDLength = 3
	MaxIDLength = 4
)

// Snapshot is an immutable copy of the list for rendering.
type Snapshot struct {
	Input    string
	Stations []station.View
}

// IDs returns the requested identifiers in display order.
func (s Snapshot) IDs() []string {
	if len(s.Stations) == 0 {
		return nil
	}
	ids := make([]string, len(s.Stations))
	for i, v := range s.Stations {
		ids[i] = v.Requested
	}
	return ids
}

// NewUnitFunc builds a unit for an identifier. The store passes its own
// change callback, which the unit must invoke on every visible change.
type NewUnitFunc func(id string, onChange func()) *station.Unit

// Store owns the ordered station units and the add input.
type Store struct {
	ctx     context.Context
	newUnit NewUnitFunc
	metrics *metrics.Registry
	changes chan struct{}

	mu    sync.Mutex
	units []*station.Unit
	input string
}

// NewStore creates an empty list. Units are started with ctx and stop when
// it is cancelled or when they are removed.
func NewStore(ctx context.Context, newUnit NewUnitFunc, reg *metrics.Registry) *Store {
	return &Store{
		ctx:     ctx,
		newUnit: newUnit,
		metrics: reg,
		changes: make(chan struct{}, 1),
	}
}

// Changes delivers one value after any structural or visible change.
// Changes that happen before the receiver drains the channel collapse into
// a single notification.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// SetInput replaces the add input text.
func (s *Store) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// Input returns the current add input text.
func (s *Store) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// ValidID reports whether the trimmed identifier has an acceptable length.
func ValidID(id string) bool {
	n := len([]rune(strings.TrimSpace(id)))
	return n >= MinIDLength && n <= MaxIDLength
}

// AddStation appends the current input as a new station and clears the
// input. Input that is not 3 or 4 characters after trimming is rejected and
// both the list and the input are left alone.
func (s *Store) AddStation() bool {
	s.mu.Lock()
	if !ValidID(s.input) {
		s.mu.Unlock()
		return false
	}
	id := strings.ToUpper(strings.TrimSpace(s.input))
	unit := s.newUnit(id, s.notify)
	s.units = append(s.units, unit)
	s.input = ""
	n := len(s.units)
	s.mu.Unlock()

	unit.Start(s.ctx)
	s.metrics.SetStations(n)
	s.notify()
	return true
}

// RemoveStation tears down the unit at index i and deletes it, preserving
// the order of the rest.
func (s *Store) RemoveStation(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.units) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	unit := s.units[i]
	s.units = append(s.units[:i:i], s.units[i+1:]...)
	n := len(s.units)
	s.mu.Unlock()

	unit.Stop()
	s.metrics.SetStations(n)
	s.notify()
	return nil
}

// Toggle flips the expanded state of the unit at index i. The unit's own
// change notification triggers the resize.
func (s *Store) Toggle(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.units) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}
	unit := s.units[i]
	s.mu.Unlock()

	unit.ToggleExpanded()
	return nil
}

// Replace tears down every unit and mounts ids in order. Invalid
// identifiers are skipped. It returns the number of stations mounted.
func (s *Store) Replace(ids []string) int {
	fresh := make([]*station.Unit, 0, len(ids))
	for _, id := range ids {
		if !ValidID(id) {
			continue
		}
		fresh = append(fresh, s.newUnit(strings.ToUpper(strings.TrimSpace(id)), s.notify))
	}

	s.mu.Lock()
	old := s.units
	s.units = fresh
	s.mu.Unlock()

	for _, u := range old {
		u.Stop()
	}
	for _, u := range fresh {
		u.Start(s.ctx)
	}
	s.metrics.SetStations(len(fresh))
	s.notify()
	return len(fresh)
}

// Len returns the number of stations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units)
}

// Snapshot returns a copy of the input and every unit's view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	units := make([]*station.Unit, len(s.units))
	copy(units, s.units)
	snap := Snapshot{Input: s.input}
	s.mu.Unlock()

	if len(units) > 0 {
		snap.Stations = make([]station.View, len(units))
		for i, u := range units {
			snap.Stations[i] = u.Snapshot()
		}
	}
	return snap
}

// Close stops every unit.
func (s *Store) Close() {
	s.mu.Lock()
	units := s.units
	s.units = nil
	s.mu.Unlock()

	for _, u := range units {
		u.Stop()
	}
}
