package vatsim

import (
	"regexp"
	"strings"
)

// Datafeed is the subset of the v3 datafeed minimetars reads.
type Datafeed struct {
	General General `json:"general"`
	Atis    []Atis  `json:"atis"`
}

// General carries feed metadata.
type General struct {
	Version          int    `json:"version"`
	UpdateTimestamp  string `json:"update_timestamp"`
	ConnectedClients int    `json:"connected_clients"`
}

// Atis is one connected ATIS station.
type Atis struct {
	CID         int      `json:"cid"`
	Name        string   `json:"name"`
	Callsign    string   `json:"callsign"`
	Frequency   string   `json:"frequency"`
	Facility    int      `json:"facility"`
	Rating      int      `json:"rating"`
	Server      string   `json:"server"`
	VisualRange int      `json:"visual_range"`
	AtisCode    *string  `json:"atis_code"`
	TextAtis    []string `json:"text_atis"`
	LastUpdated string   `json:"last_updated"`
	LogonTime   string   `json:"logon_time"`
}

// NoLetter is shown when no ATIS is online or no letter can be derived.
const NoLetter = "-"

var (
	infoRegex        = regexp.MustCompile(`INFO ([A-Z])`)
	informationRegex = regexp.MustCompile(`INFORMATION ([A-Z])`)
)

// Letter returns the ATIS code, falling back to the text lines.
func (a Atis) Letter() string {
	if a.AtisCode != nil && strings.TrimSpace(*a.AtisCode) != "" {
		return strings.TrimSpace(*a.AtisCode)
	}
	return parseAtisText(a.TextAtis)
}

// AtisLetter derives the display letter for icaoID. A single ATIS gives its
// letter; an arrival/departure pair gives "A/D"; anything else gives "-".
func (f *Datafeed) AtisLetter(icaoID string) string {
	if f == nil {
		return NoLetter
	}
	prefix := strings.ToUpper(strings.TrimSpace(icaoID))
	if prefix == "" {
		return NoLetter
	}

	var found []Atis
	for _, a := range f.Atis {
		if strings.HasPrefix(a.Callsign, prefix) {
			found = append(found, a)
		}
	}

	switch len(found) {
	case 1:
		return found[0].Letter()
	case 2:
		return byCallsignPattern(found, "_A_") + "/" + byCallsignPattern(found, "_D_")
	default:
		return NoLetter
	}
}

func byCallsignPattern(atis []Atis, pattern string) string {
	for _, a := range atis {
		if strings.Contains(a.Callsign, pattern) {
			return a.Letter()
		}
	}
	return NoLetter
}

// parseAtisText checks "INFO X" before "INFORMATION X".
func parseAtisText(lines []string) string {
	if len(lines) == 0 {
		return NoLetter
	}
	joined := strings.Join(lines, " ")
	if m := infoRegex.FindStringSubmatch(joined); m != nil {
		return m[1]
	}
	if m := informationRegex.FindStringSubmatch(joined); m != nil {
		return m[1]
	}
	return NoLetter
}
