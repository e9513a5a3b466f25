package model

import "time"

// Location represents a campus space that students can occupy, such as
// a library reading room or a cafeteria.  Seat availability is tracked
// as a counter alongside the total capacity, and the current crowding
// level is a coarse indicator updated from user reports.  This struct
// corresponds to a row in the `locations` table.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the location.
//  Type           – kind of space ("library" or "cafeteria").
//  CurrentDensity – crowding level ("low", "medium" or "high").
//  TotalSeats     – total number of seats in the location.
//  AvailableSeats – seats currently free; always within [0, TotalSeats].
//  EntranceQRCode – payload printed on the entrance QR code (nullable).
//  ExitQRCode     – payload printed on the exit QR code (nullable).
//  LastUpdated    – timestamp of the last mutation.
type Location struct {
	ID             uint64    // locations.id
	Name           string    // locations.name
	Type           string    // locations.type
	CurrentDensity string    // locations.current_density
	TotalSeats     uint32    // locations.total_seats
	AvailableSeats uint32    // locations.available_seats
	EntranceQRCode *string   // locations.entrance_qr_code (nullable)
	ExitQRCode     *string   // locations.exit_qr_code (nullable)
	LastUpdated    time.Time // locations.last_updated
}

// Location types.
const (
	LocationTypeLibrary   = "library"
	LocationTypeCafeteria = "cafeteria"
)

// Density levels reported for a location.
const (
	DensityLow    = "low"
	DensityMedium = "medium"
	DensityHigh   = "high"
)

// ValidDensity reports whether level is one of the accepted density values.
func ValidDensity(level string) bool {
	switch level {
	case DensityLow, DensityMedium, DensityHigh:
		return true
	}
	return false
}
