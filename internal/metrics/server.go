package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SnapshotFunc returns a JSON-serialisable view of the station board.
type SnapshotFunc func() any

// NewRouter builds the debug router: /metrics and /debug/stations.
func NewRouter(reg *Registry, snapshot SnapshotFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	r.Get("/debug/stations", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var payload any
		if snapshot != nil {
			payload = snapshot()
		}
		_ = json.NewEncoder(w).Encode(payload)
	})
	return r
}

// Serve runs the debug server on bind until ctx is cancelled. Listen errors
// are logged and swallowed; the widget runs fine without it.
func Serve(ctx context.Context, bind string, handler http.Handler, log *zap.SugaredLogger) {
	if bind == "" {
		return
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		log.Warnw("metrics listener failed", "bind", bind, "error", err)
		return
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Infow("metrics listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnw("metrics server stopped", "error", err)
		}
	}()
}
