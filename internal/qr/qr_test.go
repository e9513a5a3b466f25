package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_DeskCodes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Payload
	}{
		{"masa dash number", "masa-12", DeskCode{Table: 12}},
		{"masa with location", "masa-2-15", DeskCode{LocationID: 2, Table: 15}},
		{"short m prefix", "M-7", DeskCode{Table: 7}},
		{"table word", "table 3", DeskCode{Table: 3}},
		{"table no separator", "Table12", DeskCode{Table: 12}},
		{"masa embedded", "qr masa 9", DeskCode{Table: 9}},
		{"uppercase masa", "MASA-4", DeskCode{Table: 4}},
		{"masa without number", "masalar", Unknown{Raw: "masalar"}},
		{"masa zero table", "masa-0", Unknown{Raw: "masa-0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParse_VenueEvents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Payload
	}{
		{"library entry", "kutuphane-giris", LocationEvent{Venue: VenueLibrary, Direction: DirectionEntry}},
		{"library entry diacritics", "Kütüphane Giriş", LocationEvent{Venue: VenueLibrary, Direction: DirectionEntry}},
		{"library exit", "kutuphane-cikis", LocationEvent{Venue: VenueLibrary, Direction: DirectionExit}},
		{"library exit diacritics", "kütüphane çıkış", LocationEvent{Venue: VenueLibrary, Direction: DirectionExit}},
		{"cafeteria entry", "yemekhane-giris", LocationEvent{Venue: VenueCafeteria, Direction: DirectionEntry}},
		{"cafeteria exit", "yemekhane-cikis", LocationEvent{Venue: VenueCafeteria, Direction: DirectionExit}},
		{"venue without direction", "kutuphane", Unknown{Raw: "kutuphane"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParse_StructuredPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Payload
	}{
		{
			"desk with location",
			`{"type":"desk","location_id":3,"table":21}`,
			DeskCode{LocationID: 3, Table: 21},
		},
		{
			"venue event",
			`{"type":"venue","venue":"library","direction":"entry"}`,
			LocationEvent{Venue: VenueLibrary, Direction: DirectionEntry},
		},
		{
			"location alias type",
			`{"type":"location","venue":"cafeteria","direction":"exit"}`,
			LocationEvent{Venue: VenueCafeteria, Direction: DirectionExit},
		},
		{
			// malformed JSON falls through; the colon makes it legacy
			"malformed json",
			`{"type":"desk"`,
			LegacyCode{Raw: `{"type":"desk"`},
		},
		{
			"unknown structured type",
			`{"type":"poster","id":1}`,
			LegacyCode{Raw: `{"type":"poster","id":1}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParse_LegacyAndUnknown(t *testing.T) {
	assert.Equal(t, LegacyCode{Raw: "loc:old:42"}, Parse("loc:old:42"))
	assert.Equal(t, Unknown{Raw: "some random text"}, Parse("some random text"))
	assert.Equal(t, Unknown{Raw: ""}, Parse("   "))
}

func TestParse_PriorityDeskBeatsVenue(t *testing.T) {
	// A code that mentions both a desk and a venue resolves as a desk:
	// rule order is fixed and first match wins.
	got := Parse("kutuphane masa-5")
	assert.Equal(t, DeskCode{Table: 5}, got)
}
