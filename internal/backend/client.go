// Package backend defines the command interface the display layer talks to
// and the local implementation that answers it.
package backend

import (
	"context"

	"github.com/five82/minimetars/internal/awc"
	"github.com/five82/minimetars/internal/profile"
	"github.com/five82/minimetars/internal/settings"
)

// WeatherReport is the fetch_metar response: the METAR plus the two
// pre-formatted summary fields.
type WeatherReport struct {
	Metar      awc.Metar `json:"metar"`
	WindString string    `json:"wind_string"`
	Altimeter  float64   `json:"altimeter"`
}

// Client is one method per backend command. Every call is a single round
// trip with no caching or retry at this layer.
type Client interface {
	LookupStation(ctx context.Context, id string) (awc.Station, error)
	FetchWeather(ctx context.Context, icaoID string) (WeatherReport, error)
	FetchAtisLetter(ctx context.Context, icaoID string) (string, error)
	LoadProfile(ctx context.Context) (profile.Profile, error)
	SaveProfile(ctx context.Context, p profile.Profile) error
	LoadSettings(ctx context.Context) (settings.Settings, error)
	SaveSettings(ctx context.Context, s settings.Settings) error
}
