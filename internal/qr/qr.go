// Package qr classifies the text payload of a scanned code into a
// typed intent.  Parsing is pure: no I/O, no persistence lookups, so
// the classification rules are testable in isolation.  Dispatching the
// intent (checking into a desk, acknowledging a venue entry) is the
// scan handler's job.
//
// Supported formats, first match wins, case-insensitive:
//
//	masa-12 / M-7 / table 3   desk code, bare table number
//	masa-2-15                 desk code with location (location 2, table 15)
//	kutuphane-giris / -cikis  library entry / exit (Turkish diacritics accepted)
//	yemekhane-giris / -cikis  cafeteria entry / exit
//	{"type":"desk",...}       structured payload
//	anything with ":"         legacy format, acknowledged without effect
package qr

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Payload is the tagged result of classifying one scanned code.
type Payload interface{ payload() }

// DeskCode is a desk check-in intent.  LocationID is zero when the
// code predates location-carrying payloads; the dispatcher substitutes
// its configured default location for those.
type DeskCode struct {
	LocationID uint64
	Table      uint32
}

// LocationEvent is an entry or exit scan at a venue door.
type LocationEvent struct {
	Venue     string // "library" or "cafeteria"
	Direction string // "entry" or "exit"
}

// LegacyCode is an old-format payload that is recognised but carries
// no action.
type LegacyCode struct{ Raw string }

// Unknown is an unclassifiable payload.  The dispatcher rejects these.
type Unknown struct{ Raw string }

func (DeskCode) payload()      {}
func (LocationEvent) payload() {}
func (LegacyCode) payload()    {}
func (Unknown) payload()       {}

// Venues and directions produced in LocationEvent.
const (
	VenueLibrary   = "library"
	VenueCafeteria = "cafeteria"
	DirectionEntry = "entry"
	DirectionExit  = "exit"
)

var (
	tablePrefixRe = regexp.MustCompile(`^table[^0-9]*`)
	nonDigitRe    = regexp.MustCompile(`[^0-9]`)
)

// Parse classifies a raw scanned string.
func Parse(raw string) Payload {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	if strings.Contains(lower, "masa") || strings.HasPrefix(lower, "m-") || strings.HasPrefix(lower, "table") {
		return parseDesk(trimmed, lower)
	}

	if venue, dir, ok := parseVenue(lower); ok {
		return LocationEvent{Venue: venue, Direction: dir}
	}

	if strings.HasPrefix(trimmed, "{") {
		if p, ok := parseStructured(trimmed); ok {
			return p
		}
		// malformed or unrecognised structured payload: fall through
	}

	if strings.Contains(trimmed, ":") {
		return LegacyCode{Raw: trimmed}
	}

	return Unknown{Raw: trimmed}
}

// parseDesk extracts the table number (and optionally a location) from
// a desk code.  "masa-<loc>-<table>" carries both; every other form
// yields only the table.
func parseDesk(raw, lower string) Payload {
	var numPart string
	switch {
	case strings.HasPrefix(lower, "masa-"):
		rest := strings.TrimPrefix(lower, "masa-")
		if loc, table, ok := splitLocTable(rest); ok {
			return DeskCode{LocationID: loc, Table: table}
		}
		numPart = rest
	case strings.HasPrefix(lower, "m-"):
		numPart = strings.TrimPrefix(lower, "m-")
	case strings.HasPrefix(lower, "table"):
		numPart = tablePrefixRe.ReplaceAllString(lower, "")
	default:
		numPart = nonDigitRe.ReplaceAllString(lower, "")
	}
	numPart = nonDigitRe.ReplaceAllString(numPart, "")
	table, err := strconv.ParseUint(numPart, 10, 32)
	if err != nil || table == 0 {
		return Unknown{Raw: raw}
	}
	return DeskCode{Table: uint32(table)}
}

// splitLocTable recognises the "<loc>-<table>" form.
func splitLocTable(s string) (uint64, uint32, bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	loc, err1 := strconv.ParseUint(parts[0], 10, 64)
	table, err2 := strconv.ParseUint(parts[1], 10, 32)
	if err1 != nil || err2 != nil || loc == 0 || table == 0 {
		return 0, 0, false
	}
	return loc, uint32(table), true
}

// parseVenue detects venue entry/exit codes.  Both a venue keyword and
// a direction keyword must be present.
func parseVenue(lower string) (venue, dir string, ok bool) {
	switch {
	case strings.Contains(lower, "kutuphane") || strings.Contains(lower, "kütüphane"):
		venue = VenueLibrary
	case strings.Contains(lower, "yemekhane"):
		venue = VenueCafeteria
	default:
		return "", "", false
	}
	switch {
	case strings.Contains(lower, "giris") || strings.Contains(lower, "giriş"):
		dir = DirectionEntry
	case strings.Contains(lower, "cikis") || strings.Contains(lower, "çıkış"):
		dir = DirectionExit
	default:
		return "", "", false
	}
	return venue, dir, true
}

// structuredPayload is the JSON shape accepted for printed codes that
// embed their target explicitly.
type structuredPayload struct {
	Type       string `json:"type"`
	LocationID uint64 `json:"location_id"`
	Table      uint32 `json:"table"`
	Venue      string `json:"venue"`
	Direction  string `json:"direction"`
}

func parseStructured(raw string) (Payload, bool) {
	var sp structuredPayload
	if err := json.Unmarshal([]byte(raw), &sp); err != nil {
		return nil, false
	}
	switch strings.ToLower(sp.Type) {
	case "desk":
		if sp.Table == 0 {
			return nil, false
		}
		return DeskCode{LocationID: sp.LocationID, Table: sp.Table}, true
	case "venue", "location":
		venue := strings.ToLower(sp.Venue)
		dir := strings.ToLower(sp.Direction)
		if (venue != VenueLibrary && venue != VenueCafeteria) ||
			(dir != DirectionEntry && dir != DirectionExit) {
			return nil, false
		}
		return LocationEvent{Venue: venue, Direction: dir}, true
	}
	return nil, false
}
