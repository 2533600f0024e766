package vatsim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestAtisLetter(t *testing.T) {
	feed := &Datafeed{Atis: []Atis{
		{Callsign: "KSFO_ATIS", AtisCode: strPtr("C")},
		{Callsign: "KOAK_ATIS", TextAtis: []string{"OAKLAND TOWER", "INFO K 0053Z"}},
		{Callsign: "KSJC_ATIS", TextAtis: []string{"SAN JOSE TOWER", "WIND CALM"}},
		{Callsign: "KSMF_ATIS", TextAtis: []string{"SACRAMENTO INFORMATION Q"}},
		{Callsign: "KDEN_A_ATIS", AtisCode: strPtr("M")},
		{Callsign: "KDEN_D_ATIS", TextAtis: []string{"DENVER DEPARTURE INFO P"}},
		{Callsign: "KATL_A_ATIS", AtisCode: strPtr("F")},
		{Callsign: "KATL_ATIS", AtisCode: strPtr("G")},
		{Callsign: "KLAX_A_ATIS"},
		{Callsign: "KLAX_D_ATIS"},
		{Callsign: "KLAX_ATIS"},
	}}

	tests := []struct {
		icao string
		want string
	}{
		{"KSFO", "C"},
		{"KOAK", "K"},
		{"KSJC", NoLetter},
		{"KSMF", "Q"},
		{"KDEN", "M/P"},
		{"KATL", "F/-"},
		{"KLAX", NoLetter},
		{"KJFK", NoLetter},
		{"", NoLetter},
		{"ksfo", "C"},
	}
	for _, tt := range tests {
		t.Run(tt.icao, func(t *testing.T) {
			if got := feed.AtisLetter(tt.icao); got != tt.want {
				t.Fatalf("AtisLetter(%q) = %q, want %q", tt.icao, got, tt.want)
			}
		})
	}

	var nilFeed *Datafeed
	if got := nilFeed.AtisLetter("KSFO"); got != NoLetter {
		t.Fatalf("nil feed AtisLetter = %q, want %q", got, NoLetter)
	}
}

func TestClient_CachesDatafeed(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "minimetars/") {
			http.Error(w, "ua", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(Datafeed{Atis: []Atis{{Callsign: "KSFO_ATIS", AtisCode: strPtr("D")}}})
	}))
	t.Cleanup(server.Close)

	c := NewClient(server.URL, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			letter, err := c.AtisLetter(context.Background(), "KSFO")
			if err != nil {
				t.Errorf("AtisLetter returned error: %v", err)
				return
			}
			if letter != "D" {
				t.Errorf("AtisLetter = %q, want D", letter)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("datafeed fetched %d times, want 1", got)
	}
}

func TestClient_ErrorsAreWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	c := NewClient(server.URL, nil)
	_, err := c.AtisLetter(context.Background(), "KSFO")
	if err == nil || !strings.Contains(err.Error(), "could not retrieve datafeed") || !strings.Contains(err.Error(), "503") {
		t.Fatalf("AtisLetter error = %v, want wrapped 503", err)
	}
}

func TestClient_SharedDownloadOutlivesFirstCaller(t *testing.T) {
	var hits int32
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
		_ = json.NewEncoder(w).Encode(Datafeed{Atis: []Atis{{Callsign: "KSFO_ATIS", AtisCode: strPtr("E")}}})
	}))
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(server.Close)
	t.Cleanup(release)

	c := NewClient(server.URL, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.AtisLetter(firstCtx, "KSFO")
		firstErr <- err
	}()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("datafeed download never started")
	}

	second := make(chan string, 1)
	go func() {
		letter, err := c.AtisLetter(context.Background(), "KSFO")
		if err != nil {
			t.Errorf("second caller error = %v", err)
		}
		second <- letter
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
	case letter := <-second:
		if letter != "E" {
			t.Fatalf("second caller letter = %q, want E", letter)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("datafeed fetched %d times, want 1", got)
	}
}
