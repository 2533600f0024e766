// Package window keeps the host window sized to the rendered content.
package window

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/minimetars/internal/metrics"
)

// ErrNotMounted is returned by hosts that do not know their size yet.
var ErrNotMounted = errors.New("window not mounted")

// Host is the window the widget lives in.
type Host interface {
	// Size returns the current size in cells. ok is false until the host
	// has reported a size.
	Size() (cols, rows int, ok bool)
	SetSize(cols, rows int) error
	Minimize() error
}

// Options tunes a Sizer.
type Options struct {
	// ChromeRows is added to the content height for borders and title.
	ChromeRows int
	// Scale multiplies the total height; values <= 0 mean 1.
	Scale   float64
	Metrics *metrics.Registry
	Log     *zap.SugaredLogger
}

// Sizer asks the host for a height that fits the content while keeping the
// current width.
type Sizer struct {
	host    Host
	chrome  int
	scale   float64
	metrics *metrics.Registry
	log     *zap.SugaredLogger

	mu       sync.Mutex
	lastCols int
	lastRows int
	sized    bool
}

// NewSizer wraps host. A nil host behaves like Nop.
func NewSizer(host Host, opts Options) *Sizer {
	if host == nil {
		host = Nop{}
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.ChromeRows < 0 {
		opts.ChromeRows = 0
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sizer{
		host:    host,
		chrome:  opts.ChromeRows,
		scale:   opts.Scale,
		metrics: opts.Metrics,
		log:     log,
	}
}

// Rows returns the requested window height for a content height.
func (s *Sizer) Rows(contentHeight int) int {
	if contentHeight < 0 {
		contentHeight = 0
	}
	return int(math.Ceil(float64(contentHeight+s.chrome) * s.scale))
}

// Fit requests (current width, Rows(contentHeight)). Nothing is sent when
// the size matches the previous request, and nothing happens at all while
// the host is not mounted.
func (s *Sizer) Fit(contentHeight int) error {
	cols, _, ok := s.host.Size()
	if !ok {
		return nil
	}
	rows := s.Rows(contentHeight)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sized && s.lastCols == cols && s.lastRows == rows {
		return nil
	}
	if err := s.host.SetSize(cols, rows); err != nil {
		if errors.Is(err, ErrNotMounted) {
			return nil
		}
		return fmt.Errorf("resize window to %dx%d: %w", cols, rows, err)
	}
	s.lastCols, s.lastRows, s.sized = cols, rows, true
	s.metrics.ObserveResize()
	s.log.Debugw("window resized", "cols", cols, "rows", rows)
	return nil
}

// Minimize forwards to the host.
func (s *Sizer) Minimize() error {
	if err := s.host.Minimize(); err != nil && !errors.Is(err, ErrNotMounted) {
		return fmt.Errorf("minimize window: %w", err)
	}
	return nil
}

// Terminal drives an xterm-compatible terminal window with window
// manipulation sequences. The size is learned from Observe.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	cols    int
	rows    int
	mounted bool
}

// NewTerminal writes control sequences to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Observe records the size reported by the terminal.
func (t *Terminal) Observe(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cols <= 0 || rows <= 0 {
		return
	}
	t.cols, t.rows, t.mounted = cols, rows, true
}

// Size implements Host.
func (t *Terminal) Size() (int, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows, t.mounted
}

// SetSize implements Host with CSI 8 ; rows ; cols t.
func (t *Terminal) SetSize(cols, rows int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mounted {
		return ErrNotMounted
	}
	if _, err := fmt.Fprintf(t.w, "\x1b[8;%d;%dt", rows, cols); err != nil {
		return err
	}
	t.cols, t.rows = cols, rows
	return nil
}

// Minimize implements Host with CSI 2 t (iconify).
func (t *Terminal) Minimize() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mounted {
		return ErrNotMounted
	}
	_, err := io.WriteString(t.w, "\x1b[2t")
	return err
}

// Nop is a host that is never mounted.
type Nop struct{}

func (Nop) Size() (int, int, bool) { return 0, 0, false }
func (Nop) SetSize(int, int) error { return ErrNotMounted }
func (Nop) Minimize() error        { return ErrNotMounted }
