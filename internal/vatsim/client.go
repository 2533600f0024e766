package vatsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	defaultDataURL   = "https://data.vatsim.net/v3/vatsim-data.json"
	defaultUserAgent = "minimetars/0.1"
	requestTimeout   = 15 * time.Second

	// The datafeed itself refreshes about every 15 s; a minute is plenty for
	// ATIS letters and keeps many stations on one download.
	datafeedTTL = 60 * time.Second
	datafeedKey = "datafeed"
)

// Client fetches the VATSIM v3 datafeed and caches it briefly.
type Client struct {
	dataURL   string
	http      *http.Client
	userAgent string

	cache *cache.Cache
	group singleflight.Group
}

// NewClient builds a Client for dataURL (empty uses the public feed).
func NewClient(dataURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(dataURL) == "" {
		dataURL = defaultDataURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		dataURL:   strings.TrimSpace(dataURL),
		http:      httpClient,
		userAgent: defaultUserAgent,
		cache:     cache.New(datafeedTTL, 5*time.Minute),
	}
}

// Datafeed returns the cached datafeed, downloading it when stale.
// Concurrent callers share a single download, which is not cancelled when
// one of them gives up.
func (c *Client) Datafeed(ctx context.Context) (*Datafeed, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if cached, ok := c.cache.Get(datafeedKey); ok {
		return cached.(*Datafeed), nil
	}
	ch := c.group.DoChan(datafeedKey, func() (any, error) {
		if cached, ok := c.cache.Get(datafeedKey); ok {
			return cached, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		feed, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(datafeedKey, feed)
		return feed, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("could not retrieve datafeed: %w", res.Err)
		}
		return res.Val.(*Datafeed), nil
	}
}

// AtisLetter returns the current ATIS letter for icaoID.
func (c *Client) AtisLetter(ctx context.Context, icaoID string) (string, error) {
	feed, err := c.Datafeed(ctx)
	if err != nil {
		return "", err
	}
	return feed.AtisLetter(icaoID), nil
}

func (c *Client) fetch(ctx context.Context) (*Datafeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.dataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("datafeed returned status %d", resp.StatusCode)
	}
	var feed Datafeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &feed, nil
}
