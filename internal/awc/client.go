package awc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Sentinel errors returned by the client.
var (
	ErrInvalidStationID = errors.New("invalid station id, must be a single ICAO or FAA id")
	ErrStationNotFound  = errors.New("station not found in ICAO or FAA lookups")
	ErrNoMetar          = errors.New("no METARs found in result list")
)

const (
	defaultBaseURL    = "https://aviationweather.gov"
	defaultUserAgent  = "minimetars/0.1"
	requestTimeout    = 15 * time.Second
	stationIndexTTL   = 24 * time.Hour
	stationIndexKey   = "stations"
	stationsCachePath = "/data/cache/stations.cache.json.gz"
	metarPath         = "/api/data/metar"
)

// Client talks to the aviationweather.gov data API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter

	index *cache.Cache
	group singleflight.Group
}

// Options tune a Client. Zero values use defaults.
type Options struct {
	BaseURL           string
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// NewClient builds a Client for the given options.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
		burst = min(opts.RequestsPerMinute, 5)
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(limit, burst),
		index:     cache.New(stationIndexTTL, time.Hour),
	}, nil
}

// FetchMetar returns the latest METAR for a single ICAO or FAA id.
func (c *Client) FetchMetar(ctx context.Context, stationID string) (Metar, error) {
	if c == nil {
		return Metar{}, fmt.Errorf("client is nil")
	}
	id := strings.TrimSpace(stationID)
	if id == "" || strings.HasPrefix(id, "@") || len(id) > 4 || strings.Contains(id, ",") {
		return Metar{}, fmt.Errorf("%w: %q", ErrInvalidStationID, stationID)
	}

	values := url.Values{}
	values.Set("ids", c.sanitizeID(id))
	values.Set("format", "json")
	rel := &url.URL{Path: metarPath, RawQuery: values.Encode()}

	var metars []Metar
	if err := c.getJSON(ctx, rel, &metars); err != nil {
		return Metar{}, fmt.Errorf("fetch metar %s: %w", id, err)
	}
	if len(metars) == 0 {
		return Metar{}, fmt.Errorf("fetch metar %s: %w", id, ErrNoMetar)
	}
	return metars[0], nil
}

// FetchStations downloads and decodes the gzipped station cache. The server
// does not set a Content-Encoding header, so decompression is manual.
func (c *Client) FetchStations(ctx context.Context) ([]Station, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := c.get(ctx, &url.URL{Path: stationsCachePath}, "application/gzip")
	if err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}
	defer func() { _ = body.Close() }()

	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, fmt.Errorf("open stations gzip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var stations []Station
	if err := json.NewDecoder(zr).Decode(&stations); err != nil {
		return nil, fmt.Errorf("decode stations: %w", err)
	}
	return stations, nil
}

// LookupStation resolves an ICAO or FAA id to its station record, loading
// the station index on first use.
func (c *Client) LookupStation(ctx context.Context, lookupID string) (Station, error) {
	if c == nil {
		return Station{}, fmt.Errorf("client is nil")
	}
	idx, err := c.stationIndex(ctx)
	if err != nil {
		return Station{}, err
	}
	return idx.lookup(lookupID)
}

// WarmStations loads the station index if it is not cached yet.
func (c *Client) WarmStations(ctx context.Context) error {
	_, err := c.stationIndex(ctx)
	return err
}

// stationIndex returns the cached index or joins a shared download. The
// download outlives any single caller; a caller whose ctx ends stops
// waiting without cancelling it for the others.
func (c *Client) stationIndex(ctx context.Context) (*stationIndex, error) {
	if cached, ok := c.index.Get(stationIndexKey); ok {
		return cached.(*stationIndex), nil
	}
	ch := c.group.DoChan(stationIndexKey, func() (any, error) {
		if cached, ok := c.index.Get(stationIndexKey); ok {
			return cached, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		stations, err := c.FetchStations(fetchCtx)
		if err != nil {
			return nil, err
		}
		idx := newStationIndex(stations)
		c.index.SetDefault(stationIndexKey, idx)
		return idx, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("station data not initialized: %w", res.Err)
		}
		return res.Val.(*stationIndex), nil
	}
}

// sanitizeID maps an FAA id to ICAO when the index is already loaded.
func (c *Client) sanitizeID(id string) string {
	upper := strings.ToUpper(id)
	cached, ok := c.index.Get(stationIndexKey)
	if !ok {
		return upper
	}
	idx := cached.(*stationIndex)
	if _, ok := idx.byICAO[upper]; ok {
		return upper
	}
	if icao, ok := idx.faaToICAO[upper]; ok {
		return icao
	}
	return upper
}

func (c *Client) getJSON(ctx context.Context, rel *url.URL, dest any) error {
	body, err := c.get(ctx, rel, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rel *url.URL, accept string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	return resp.Body, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse awc base url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
