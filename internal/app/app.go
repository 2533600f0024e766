package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/five82/minimetars/internal/awc"
	"github.com/five82/minimetars/internal/backend"
	"github.com/five82/minimetars/internal/config"
	"github.com/five82/minimetars/internal/logging"
	"github.com/five82/minimetars/internal/metrics"
	"github.com/five82/minimetars/internal/poll"
	"github.com/five82/minimetars/internal/profile"
	"github.com/five82/minimetars/internal/state"
	"github.com/five82/minimetars/internal/station"
	"github.com/five82/minimetars/internal/ui"
	"github.com/five82/minimetars/internal/vatsim"
	"github.com/five82/minimetars/internal/window"
)

// Options configure the minimetars application.
type Options struct {
	ConfigPath string
	Profile    string   // profile name or path loaded at startup; empty uses the last one
	Stations   []string // initial stations; overrides the profile when non-empty
}

const httpTimeout = 15 * time.Second

// Run boots the board until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.NewOrNop(cfg.LogPath(), cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	log.Infow("starting", "config", opts.ConfigPath, "profile", opts.Profile)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	profilePath := strings.TrimSpace(opts.Profile)
	if strings.HasPrefix(profilePath, "~") {
		if expanded, err := config.ExpandPath(profilePath); err == nil {
			profilePath = expanded
		}
	}

	reg := metrics.New()
	local, err := newBackend(cfg, profilePath, reg, log)
	if err != nil {
		return err
	}
	go local.Warm(ctx)

	userSettings, _ := local.LoadSettings(ctx)

	store := state.NewStore(ctx, unitFactory(cfg, local, reg, log), reg)
	defer store.Close()

	profileName := initialStations(ctx, store, local, opts, log)

	if cfg.MetricsBind != "" {
		handler := metrics.NewRouter(reg, func() any { return boardView(store.Snapshot()) })
		metrics.Serve(ctx, cfg.MetricsBind, handler, log)
	}

	out := window.NewSyncFile(os.Stdout)
	term := window.NewTerminal(out)
	sizer := window.NewSizer(term, window.Options{
		ChromeRows: cfg.WindowChromeRows,
		Scale:      cfg.WindowScale,
		Metrics:    reg,
		Log:        log,
	})

	err = ui.Run(ui.Options{
		Context:     ctx,
		Client:      local,
		Store:       store,
		Sizer:       sizer,
		Terminal:    term,
		Settings:    userSettings,
		ProfileName: profileName,
		Log:         log,
		Output:      out,
	})
	log.Infow("stopped", "error", err)
	return err
}

func newBackend(cfg config.Config, profilePath string, reg *metrics.Registry, log *zap.SugaredLogger) (*backend.Local, error) {
	httpClient := &http.Client{Timeout: httpTimeout}

	awcClient, err := awc.NewClient(awc.Options{
		BaseURL:           cfg.AWCBaseURL,
		RequestsPerMinute: cfg.AWCRequestsPerMinute,
		HTTPClient:        httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("init awc client: %w", err)
	}

	return &backend.Local{
		AWC:          awcClient,
		Vatsim:       vatsim.NewClient(cfg.VatsimDataURL, httpClient),
		Profiles:     profile.NewStore(cfg.ProfileDir),
		ProfilePath:  profilePath,
		SettingsPath: cfg.SettingsPath,
		Metrics:      reg,
		Log:          log,
	}, nil
}

func unitFactory(cfg config.Config, client backend.Client, reg *metrics.Registry, log *zap.SugaredLogger) state.NewUnitFunc {
	weather := poll.Schedule{Interval: cfg.WeatherInterval, Jitter: cfg.WeatherJitter}
	atis := poll.Schedule{Interval: cfg.AtisInterval, Jitter: cfg.AtisJitter}
	return func(id string, onChange func()) *station.Unit {
		return station.New(id, station.Options{
			Client:   client,
			Weather:  weather,
			Atis:     atis,
			Metrics:  reg,
			Log:      log,
			OnChange: onChange,
		})
	}
}

// initialStations mounts the -stations list or, failing that, the saved
// profile. It returns the profile name used for later saves.
func initialStations(ctx context.Context, store *state.Store, client backend.Client, opts Options, log *zap.SugaredLogger) string {
	name := profileName(opts.Profile)
	if len(opts.Stations) > 0 {
		n := store.Replace(opts.Stations)
		log.Infow("stations from flags", "count", n)
		return name
	}

	p, err := client.LoadProfile(ctx)
	if err != nil {
		if !errors.Is(err, profile.ErrNoProfile) {
			log.Warnw("profile load failed", "error", err)
		}
		return name
	}
	n := store.Replace(p.Stations)
	log.Infow("profile loaded", "name", p.Name, "count", n)
	if p.Name != "" {
		return p.Name
	}
	return name
}

// profileName derives a display name from a profile flag value such as
// "bay" or "~/profiles/bay.json".
func profileName(flagValue string) string {
	name := strings.TrimSpace(flagValue)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".json")
	if name == "" {
		return "default"
	}
	return name
}

// stationDebug is the /debug/stations JSON shape.
type stationDebug struct {
	ID        string    `json:"id"`
	Requested string    `json:"requested"`
	Display   string    `json:"display"`
	Status    string    `json:"status"`
	ObsTime   time.Time `json:"obs_time"`
	Altimeter string    `json:"altimeter,omitempty"`
	Wind      string    `json:"wind,omitempty"`
	Atis      string    `json:"atis,omitempty"`
	Expanded  bool      `json:"expanded"`
}

func boardView(snap state.Snapshot) []stationDebug {
	out := make([]stationDebug, 0, len(snap.Stations))
	for _, v := range snap.Stations {
		out = append(out, stationDebug{
			ID:        v.ID,
			Requested: v.Requested,
			Display:   v.Display,
			Status:    v.Status.String(),
			ObsTime:   v.ObsTime,
			Altimeter: v.Altimeter,
			Wind:      v.Wind,
			Atis:      v.Atis,
			Expanded:  v.Expanded,
		})
	}
	return out
}
