package awc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

const stationsJSON = `[
  {"icaoId":"KSFO","iataId":"SFO","faaId":"SFO","wmoId":"72494","lat":37.619,"lon":-122.375,"elev":3,"site":"San Francisco Intl","state":"CA","country":"US","priority":1},
  {"icaoId":"EGLL","iataId":"LHR","faaId":"","wmoId":"03772","lat":51.478,"lon":-0.461,"elev":25,"site":"London Heathrow","state":"","country":"GB","priority":1}
]`

const metarJSON = `[{
  "metar_id": 12345,
  "icaoId": "KSFO",
  "receiptTime": "2024-01-01 00:03:12",
  "obsTime": 1704067200,
  "reportTime": "2024-01-01T00:00:00.000Z",
  "temp": 12.2,
  "dewp": 8.9,
  "wdir": 280,
  "wspd": 7,
  "wgst": 18,
  "visib": "10+",
  "altim": 1020,
  "metarType": "METAR",
  "rawOb": "KSFO 010000Z 28007G18KT 10SM FEW008 12/09 A3012",
  "clouds": [{"cover": "FEW", "base": 800}]
}]`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func newTestServer(t *testing.T, stationHits *int32, gotIDs *[]string) *httptest.Server {
	t.Helper()
	payload := gzipped(t, stationsJSON)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case stationsCachePath:
			if stationHits != nil {
				atomic.AddInt32(stationHits, 1)
			}
			_, _ = w.Write(payload)
		case metarPath:
			if gotIDs != nil {
				*gotIDs = append(*gotIDs, r.URL.Query().Get("ids"))
			}
			if r.URL.Query().Get("format") != "json" {
				http.Error(w, "format", http.StatusBadRequest)
				return
			}
			if r.URL.Query().Get("ids") == "ZZZZ" {
				_, _ = w.Write([]byte("[]"))
				return
			}
			_, _ = w.Write([]byte(metarJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchMetarDecodesFields(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil, nil)
	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	m, err := c.FetchMetar(ctx, "ksfo")
	if err != nil {
		t.Fatalf("FetchMetar returned error: %v", err)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !m.ObsTime.Equal(want) {
		t.Fatalf("ObsTime = %v, want %v", m.ObsTime, want)
	}
	if m.Visib != "10+" {
		t.Fatalf("Visib = %q, want 10+", m.Visib)
	}
	if got := m.AltimeterInHg(); got != 30.12 {
		t.Fatalf("AltimeterInHg = %v, want 30.12", got)
	}
	if got := m.WindString(); got != "28007G18KT" {
		t.Fatalf("WindString = %q, want 28007G18KT", got)
	}
	if len(m.Clouds) != 1 || m.Clouds[0].Base == nil || *m.Clouds[0].Base != 800 {
		t.Fatalf("Clouds = %#v, want FEW800", m.Clouds)
	}
}

func TestClient_FetchMetarRejectsInvalidIDs(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	for _, id := range []string{"", "@CA", "KSFOX", "KSFO,KOAK"} {
		if _, err := c.FetchMetar(context.Background(), id); !errors.Is(err, ErrInvalidStationID) {
			t.Fatalf("FetchMetar(%q) error = %v, want ErrInvalidStationID", id, err)
		}
	}
}

func TestClient_FetchMetarEmptyList(t *testing.T) {
	server := newTestServer(t, nil, nil)
	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchMetar(context.Background(), "ZZZZ"); !errors.Is(err, ErrNoMetar) {
		t.Fatalf("FetchMetar error = %v, want ErrNoMetar", err)
	}
}

func TestClient_LookupStationLoadsIndexOnce(t *testing.T) {
	var hits int32
	var ids []string
	server := newTestServer(t, &hits, &ids)
	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	s, err := c.LookupStation(ctx, "ksfo")
	if err != nil {
		t.Fatalf("LookupStation(ksfo) returned error: %v", err)
	}
	if s.ICAOID != "KSFO" || s.DisplayID() != "SFO" {
		t.Fatalf("station = %#v, want KSFO/SFO", s)
	}

	s, err = c.LookupStation(ctx, "SFO")
	if err != nil {
		t.Fatalf("LookupStation(SFO) returned error: %v", err)
	}
	if s.ICAOID != "KSFO" {
		t.Fatalf("FAA lookup = %q, want KSFO", s.ICAOID)
	}

	s, err = c.LookupStation(ctx, "EGLL")
	if err != nil {
		t.Fatalf("LookupStation(EGLL) returned error: %v", err)
	}
	if s.DisplayID() != "EGLL" {
		t.Fatalf("DisplayID = %q, want EGLL when FAA id is empty", s.DisplayID())
	}

	if _, err := c.LookupStation(ctx, "XXXX"); !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("LookupStation(XXXX) error = %v, want ErrStationNotFound", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("station cache fetched %d times, want 1", got)
	}

	// With the index loaded, FAA ids are mapped to ICAO before querying METARs.
	if _, err := c.FetchMetar(ctx, "sfo"); err != nil {
		t.Fatalf("FetchMetar returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "KSFO" {
		t.Fatalf("metar ids = %v, want [KSFO]", ids)
	}
}

// slowStationServer holds every station cache request until release is
// called. The first request signals on started.
func slowStationServer(t *testing.T, hits *int32) (server *httptest.Server, started <-chan struct{}, release func()) {
	t.Helper()
	payload := gzipped(t, stationsJSON)
	startedCh := make(chan struct{}, 1)
	gate := make(chan struct{})
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != stationsCachePath {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(hits, 1)
		select {
		case startedCh <- struct{}{}:
		default:
		}
		<-gate
		_, _ = w.Write(payload)
	}))
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(server.Close)
	t.Cleanup(release)
	return server, startedCh, release
}

func TestClient_SharedIndexOutlivesFirstCaller(t *testing.T) {
	var hits int32
	server, started, release := slowStationServer(t, &hits)
	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.LookupStation(firstCtx, "KSFO")
		firstErr <- err
	}()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("station download never started")
	}

	type result struct {
		station Station
		err     error
	}
	second := make(chan result, 1)
	go func() {
		s, err := c.LookupStation(context.Background(), "EGLL")
		second <- result{s, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("first caller error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first caller kept waiting after its context was cancelled")
	}

	release()
	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("second caller error = %v, want shared download to finish", res.err)
		}
		if res.station.ICAOID != "EGLL" {
			t.Fatalf("station = %#v, want EGLL", res.station)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("station cache fetched %d times, want 1", got)
	}
}

func TestClient_WaiterReturnsOnOwnCancel(t *testing.T) {
	var hits int32
	server, started, release := slowStationServer(t, &hits)
	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	go func() { _, _ = c.LookupStation(context.Background(), "KSFO") }()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("station download never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	begin := time.Now()
	_, err = c.LookupStation(ctx, "EGLL")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("LookupStation error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Fatalf("waiter returned after %v, want prompt return", elapsed)
	}
	release()
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case metarPath:
			_, _ = w.Write([]byte("{not-json"))
		case stationsCachePath:
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchMetar(context.Background(), "KSFO")
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchMetar error = %v, want decode response error", err)
	}

	_, err = c.LookupStation(context.Background(), "KSFO")
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("LookupStation error = %v, want status 500 error", err)
	}
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	server := newTestServer(t, nil, nil)
	c, err := NewClient(Options{BaseURL: server.URL, RequestsPerMinute: 1})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchMetar(context.Background(), "KSFO"); err != nil {
		t.Fatalf("first FetchMetar returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.FetchMetar(ctx, "KSFO")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("second FetchMetar error = %v, want rate limit error", err)
	}
}
