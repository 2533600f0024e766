package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch kinds recorded on FetchTotal.
const (
	KindLookup  = "lookup"
	KindWeather = "weather"
	KindAtis    = "atis"
)

// Registry holds the Prometheus collectors for minimetars. It uses a private
// registry so tests can build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	FetchTotal      *prometheus.CounterVec
	StaleTotal      prometheus.Counter
	Stations        prometheus.Gauge
	ResizeRequested prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minimetars_fetch_total",
				Help: "Backend command calls by kind and result",
			},
			[]string{"kind", "result"},
		),
		StaleTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minimetars_stale_observations_total",
			Help: "Weather responses discarded because they were not newer than the displayed observation",
		}),
		Stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minimetars_stations",
			Help: "Stations currently on the board",
		}),
		ResizeRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minimetars_window_resize_total",
			Help: "Resize requests sent to the host window",
		}),
	}
	r.reg.MustRegister(r.FetchTotal, r.StaleTotal, r.Stations, r.ResizeRequested)
	return r
}

// Gatherer exposes the underlying registry for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveFetch records a single command call outcome.
func (r *Registry) ObserveFetch(kind string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.FetchTotal.WithLabelValues(kind, result).Inc()
}

// ObserveStale counts a discarded stale observation.
func (r *Registry) ObserveStale() {
	if r == nil {
		return
	}
	r.StaleTotal.Inc()
}

// SetStations records the board size.
func (r *Registry) SetStations(n int) {
	if r == nil {
		return
	}
	r.Stations.Set(float64(n))
}

// ObserveResize counts a resize request.
func (r *Registry) ObserveResize() {
	if r == nil {
		return
	}
	r.ResizeRequested.Inc()
}
