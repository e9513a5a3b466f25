package model

import "time"

// Desk is a single bookable desk inside a location.  Desks carry a
// table number matching the QR code sticker placed on them.  A desk
// belongs to exactly one location and its status only ever moves
// between "available" and "occupied" during normal operation
// ("reserved" exists in the schema for manually blocked desks).
//
// Fields:
//  ID          – primary key identifier.
//  LocationID  – location that owns this desk.
//  TableNumber – number printed on the desk's QR sticker.
//  Status      – "available", "occupied" or "reserved".
//  QRCode      – raw QR payload for this desk (nullable).
//  LastUpdated – timestamp of the last status change.
type Desk struct {
	ID          uint64    // desks.id
	LocationID  uint64    // desks.location_id
	TableNumber uint32    // desks.table_number
	Status      string    // desks.status
	QRCode      *string   // desks.qr_code (nullable)
	LastUpdated time.Time // desks.last_updated
}

// Desk statuses.
const (
	DeskAvailable = "available"
	DeskOccupied  = "occupied"
	DeskReserved  = "reserved"
)
