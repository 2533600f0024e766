package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/minimetars/internal/awc"
	"github.com/five82/minimetars/internal/metrics"
	"github.com/five82/minimetars/internal/profile"
	"github.com/five82/minimetars/internal/settings"
	"github.com/five82/minimetars/internal/vatsim"
)

// Ensure Local implements Client at compile time.
var _ Client = (*Local)(nil)

// Local answers commands in-process using the AWC and VATSIM clients and
// the on-disk profile and settings stores.
type Local struct {
	AWC          *awc.Client
	Vatsim       *vatsim.Client
	Profiles     *profile.Store
	ProfilePath  string // empty uses the store's last/default path
	SettingsPath string
	Metrics      *metrics.Registry
	Log          *zap.SugaredLogger
}

// Warm preloads the station index and the VATSIM datafeed concurrently.
// Failures are logged only; each command retries lazily on its own.
func (l *Local) Warm(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := l.AWC.WarmStations(gctx); err != nil {
			l.logger().Warnw("station index warmup failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := l.Vatsim.Datafeed(gctx); err != nil {
			l.logger().Warnw("datafeed warmup failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()
}

// LookupStation implements lookup_station.
func (l *Local) LookupStation(ctx context.Context, id string) (awc.Station, error) {
	station, err := l.AWC.LookupStation(ctx, id)
	l.Metrics.ObserveFetch(metrics.KindLookup, err)
	if err != nil {
		return awc.Station{}, fmt.Errorf("error looking up station %s: %w", id, err)
	}
	return station, nil
}

// FetchWeather implements fetch_metar.
func (l *Local) FetchWeather(ctx context.Context, icaoID string) (WeatherReport, error) {
	m, err := l.AWC.FetchMetar(ctx, icaoID)
	l.Metrics.ObserveFetch(metrics.KindWeather, err)
	if err != nil {
		return WeatherReport{}, fmt.Errorf("error fetching METARs: %w", err)
	}
	return WeatherReport{
		Metar:      m,
		WindString: m.WindString(),
		Altimeter:  m.AltimeterInHg(),
	}, nil
}

// FetchAtisLetter implements get_atis_letter.
func (l *Local) FetchAtisLetter(ctx context.Context, icaoID string) (string, error) {
	letter, err := l.Vatsim.AtisLetter(ctx, icaoID)
	l.Metrics.ObserveFetch(metrics.KindAtis, err)
	if err != nil {
		return "", err
	}
	return letter, nil
}

// LoadProfile implements load_profile.
func (l *Local) LoadProfile(_ context.Context) (profile.Profile, error) {
	return l.Profiles.Load(l.ProfilePath)
}

// SaveProfile implements save_profile.
func (l *Local) SaveProfile(_ context.Context, p profile.Profile) error {
	return l.Profiles.Save(l.ProfilePath, p)
}

// LoadSettings implements load_settings. It never fails: unreadable settings
// fall back to defaults.
func (l *Local) LoadSettings(_ context.Context) (settings.Settings, error) {
	return settings.Load(l.SettingsPath)
}

// SaveSettings implements save_settings.
func (l *Local) SaveSettings(_ context.Context, s settings.Settings) error {
	return settings.Save(l.SettingsPath, s)
}

func (l *Local) logger() *zap.SugaredLogger {
	if l.Log == nil {
		return zap.NewNop().Sugar()
	}
	return l.Log
}
