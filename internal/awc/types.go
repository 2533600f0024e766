package awc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const mbarToInHg = 0.02953

// Station mirrors an entry of stations.cache.json.
type Station struct {
	ICAOID   string  `json:"icaoId"`
	IATAID   string  `json:"iataId"`
	FAAID    string  `json:"faaId"`
	WMOID    string  `json:"wmoId"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Elev     int     `json:"elev"`
	Site     string  `json:"site"`
	State    string  `json:"state"`
	Country  string  `json:"country"`
	Priority int     `json:"priority"`
}

// DisplayID returns the short code shown on the board: the FAA id when the
// station has one, the ICAO id otherwise.
func (s Station) DisplayID() string {
	if id := strings.TrimSpace(s.FAAID); id != "" {
		return id
	}
	return s.ICAOID
}

// CloudLayer is one reported sky condition.
type CloudLayer struct {
	Cover string `json:"cover"`
	Base  *int   `json:"base"`
}

// Metar mirrors the JSON objects returned by /api/data/metar.
type Metar struct {
	MetarID     int64        `json:"metar_id"`
	ICAOID      string       `json:"icaoId"`
	ReceiptTime string       `json:"receiptTime"`
	ObsTime     UnixTime     `json:"obsTime"`
	ReportTime  string       `json:"reportTime"`
	Temp        *float64     `json:"temp"`
	Dewp        *float64     `json:"dewp"`
	Wdir        *Direction   `json:"wdir"`
	Wspd        *int         `json:"wspd"`
	Wgst        *int         `json:"wgst"`
	Visib       FlexString   `json:"visib"`
	Altim       float64      `json:"altim"`
	Slp         *float64     `json:"slp"`
	WxString    string       `json:"wxString"`
	MetarType   string       `json:"metarType"`
	RawOb       string       `json:"rawOb"`
	Lat         float64      `json:"lat"`
	Lon         float64      `json:"lon"`
	Elev        int          `json:"elev"`
	Name        string       `json:"name"`
	Clouds      []CloudLayer `json:"clouds"`
}

// AltimeterInHg converts the hPa altimeter to inches of mercury, rounded to
// two decimals.
func (m Metar) AltimeterInHg() float64 {
	return math.Round(m.Altim*mbarToInHg*100) / 100
}

// WindString formats wind as DDDSS[Ggg]KT. It is empty when direction or
// speed is missing.
func (m Metar) WindString() string {
	if m.Wdir == nil || m.Wspd == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.Wdir.String())
	fmt.Fprintf(&b, "%02d", *m.Wspd)
	if m.Wgst != nil {
		fmt.Fprintf(&b, "G%d", *m.Wgst)
	}
	b.WriteString("KT")
	return b.String()
}

// UnixTime decodes a unix-seconds JSON number. ISO-8601 strings are accepted
// too since the reportTime style fields use them.
type UnixTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("parse time %q", s)
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse unix time %q: %w", raw, err)
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

// MarshalJSON writes the time back as unix seconds.
func (t UnixTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// Direction is a wind direction in degrees or a string such as "VRB".
type Direction struct {
	Degrees  int
	Variable string
}

// String renders degrees zero-padded to three digits, or the string verbatim.
func (d Direction) String() string {
	if d.Variable != "" {
		return d.Variable
	}
	return fmt.Sprintf("%03d", d.Degrees)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Variable = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse wind direction %s: %w", data, err)
	}
	d.Degrees = int(n)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Direction) MarshalJSON() ([]byte, error) {
	if d.Variable != "" {
		return json.Marshal(d.Variable)
	}
	return json.Marshal(d.Degrees)
}

// FlexString holds a value the API sends as either a number or a string,
// such as visibility ("10+" or 4.97).
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	*f = FlexString(raw)
	return nil
}
