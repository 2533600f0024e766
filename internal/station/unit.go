// Package station implements the per-station display unit: it resolves the
// requested identifier once, then keeps weather and ATIS fresh with two
// jittered pollers until it is stopped.
package station

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/minimetars/internal/awc"
	"github.com/five82/minimetars/internal/backend"
	"github.com/five82/minimetars/internal/metrics"
	"github.com/five82/minimetars/internal/poll"
)

// Status is the resolution state of a unit.
type Status int

const (
	Unresolved Status = iota
	Invalid
	Resolved
)

func (s Status) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case Resolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// Default poll cadence.
var (
	DefaultWeatherSchedule = poll.Schedule{Interval: 120 * time.Second, Jitter: 10 * time.Second}
	DefaultAtisSchedule    = poll.Schedule{Interval: 30 * time.Second, Jitter: 5 * time.Second}
)

// Options configures a Unit. Only Client is required.
type Options struct {
	Client   backend.Client
	Weather  poll.Schedule
	Atis     poll.Schedule
	Rand     poll.Int64N
	Metrics  *metrics.Registry
	Log      *zap.SugaredLogger
	OnChange func()
}

// View is an immutable copy of a unit's visible state.
type View struct {
	ID        string
	Requested string
	Display   string
	Status    Status
	Station   awc.Station
	ObsTime   time.Time
	HasObs    bool
	Altimeter string
	Wind      string
	Raw       string
	Atis      string
	Expanded  bool
}

// DetailVisible reports whether the raw report panel is shown.
func (v View) DetailVisible() bool {
	return v.Expanded && v.Raw != ""
}

// Unit is one station row. All fields below mu are guarded by it; the
// pollers only ever write through the Apply methods.
type Unit struct {
	id        string
	requested string
	client    backend.Client
	weather   poll.Schedule
	atis      poll.Schedule
	rnd       poll.Int64N
	metrics   *metrics.Registry
	log       *zap.SugaredLogger
	onChange  func()

	mu        sync.Mutex
	status    Status
	station   awc.Station
	obsTime   time.Time
	hasObs    bool
	altimeter string
	wind      string
	raw       string
	atisText  string
	expanded  bool
	closed    bool
	cancel    context.CancelFunc

	wg sync.WaitGroup
}

// New creates an unresolved unit for the requested identifier. Call Start
// to begin resolution and polling.
func New(requested string, opts Options) *Unit {
	if opts.Weather.Interval <= 0 {
		opts.Weather = DefaultWeatherSchedule
	}
	if opts.Atis.Interval <= 0 {
		opts.Atis = DefaultAtisSchedule
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	id := strings.ToUpper(strings.TrimSpace(requested))
	uid := uuid.NewString()
	return &Unit{
		id:        uid,
		requested: id,
		client:    opts.Client,
		weather:   opts.Weather,
		atis:      opts.Atis,
		rnd:       opts.Rand,
		metrics:   opts.Metrics,
		log:       log.With("station", id, "unit", uid),
		onChange:  opts.OnChange,
	}
}

// ID is a process-unique identifier for the unit, stable across renders.
func (u *Unit) ID() string { return u.id }

// Requested returns the identifier the user typed, upper-cased.
func (u *Unit) Requested() string { return u.requested }

// Start resolves the station in the background and, on success, starts the
// weather and ATIS pollers. It returns immediately. Calling Start twice or
// after Stop does nothing.
func (u *Unit) Start(parent context.Context) {
	u.mu.Lock()
	if u.closed || u.cancel != nil {
		u.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	u.cancel = cancel
	u.wg.Add(1)
	u.mu.Unlock()

	go func() {
		defer u.wg.Done()
		u.run(ctx)
	}()
}

func (u *Unit) run(ctx context.Context) {
	st, err := u.client.LookupStation(ctx, u.requested)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		u.log.Warnw("station lookup failed", "error", err)
		u.Invalidate()
		return
	}
	if !u.Resolve(st) {
		return
	}

	icao := st.ICAOID
	u.wg.Add(2)
	go func() {
		defer u.wg.Done()
		poll.Run(ctx, u.weather, u.rnd, func(ctx context.Context) { u.refreshWeather(ctx, icao) })
	}()
	go func() {
		defer u.wg.Done()
		poll.Run(ctx, u.atis, u.rnd, func(ctx context.Context) { u.refreshAtis(ctx, icao) })
	}()
}

func (u *Unit) refreshWeather(ctx context.Context, icao string) {
	report, err := u.client.FetchWeather(ctx, icao)
	if err != nil {
		if ctx.Err() == nil {
			u.log.Debugw("weather fetch failed", "error", err)
		}
		return
	}
	u.ApplyWeather(report)
}

func (u *Unit) refreshAtis(ctx context.Context, icao string) {
	letter, err := u.client.FetchAtisLetter(ctx, icao)
	if err != nil {
		if ctx.Err() == nil {
			u.log.Debugw("atis fetch failed", "error", err)
		}
		return
	}
	u.ApplyAtis(letter)
}

// Stop cancels both pollers and waits for them to exit. After Stop returns
// the unit never changes again. Stop is safe to call more than once.
func (u *Unit) Stop() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	cancel := u.cancel
	u.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	u.wg.Wait()
}

// Resolve records the looked-up station. Only an unresolved unit can be
// resolved.
func (u *Unit) Resolve(st awc.Station) bool {
	u.mu.Lock()
	if u.closed || u.status != Unresolved {
		u.mu.Unlock()
		return false
	}
	u.status = Resolved
	u.station = st
	u.mu.Unlock()

	u.notify()
	return true
}

// Invalidate marks the lookup as failed. The unit keeps showing the
// requested identifier and never polls.
func (u *Unit) Invalidate() {
	u.mu.Lock()
	if u.closed || u.status != Unresolved {
		u.mu.Unlock()
		return
	}
	u.status = Invalid
	u.mu.Unlock()

	u.notify()
}

// ApplyWeather stores r if the unit has no observation yet or r is strictly
// newer than the stored one. Equal or older observations are dropped and
// counted as stale. It reports whether r was applied.
func (u *Unit) ApplyWeather(r backend.WeatherReport) bool {
	obs := r.Metar.ObsTime.Time

	u.mu.Lock()
	if u.closed || u.status == Invalid {
		u.mu.Unlock()
		return false
	}
	if u.hasObs && !obs.After(u.obsTime) {
		current := u.obsTime
		u.mu.Unlock()
		u.metrics.ObserveStale()
		u.log.Debugw("stale observation dropped", "obs_time", obs, "current", current)
		return false
	}
	u.hasObs = true
	u.obsTime = obs
	u.altimeter = fmt.Sprintf("%.2f", r.Altimeter)
	u.wind = r.WindString
	u.raw = r.Metar.RawOb
	u.mu.Unlock()

	u.notify()
	return true
}

// ApplyAtis replaces the ATIS letter. It reports whether the visible value
// changed.
func (u *Unit) ApplyAtis(letter string) bool {
	u.mu.Lock()
	if u.closed || u.status == Invalid {
		u.mu.Unlock()
		return false
	}
	changed := u.atisText != letter
	u.atisText = letter
	u.mu.Unlock()

	if changed {
		u.notify()
	}
	return changed
}

// ToggleExpanded flips the expanded flag and returns the new value.
func (u *Unit) ToggleExpanded() bool {
	u.mu.Lock()
	if u.closed {
		expanded := u.expanded
		u.mu.Unlock()
		return expanded
	}
	u.expanded = !u.expanded
	expanded := u.expanded
	u.mu.Unlock()

	u.notify()
	return expanded
}

// Snapshot returns a copy of the visible state.
func (u *Unit) Snapshot() View {
	u.mu.Lock()
	defer u.mu.Unlock()

	v := View{
		ID:        u.id,
		Requested: u.requested,
		Display:   u.requested,
		Status:    u.status,
		Station:   u.station,
		ObsTime:   u.obsTime,
		HasObs:    u.hasObs,
		Altimeter: u.altimeter,
		Wind:      u.wind,
		Raw:       u.raw,
		Atis:      u.atisText,
		Expanded:  u.expanded,
	}
	if u.status == Resolved {
		if id := u.station.DisplayID(); id != "" {
			v.Display = id
		}
	}
	return v
}

func (u *Unit) notify() {
	if u.onChange != nil {
		u.onChange()
	}
}
