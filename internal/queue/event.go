// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and the consumer.
const (
	CheckInCompletedQueue = "occupancy.checkin.completed"
	DensityReportedQueue  = "occupancy.density.reported"
)

// CheckInCompletedEvent is published when a session is checked out.  It
// carries enough context for downstream consumers to log or feed
// analytics without querying the primary database.
type CheckInCompletedEvent struct {
	CheckInID    uint64  `json:"check_in_id"`
	UserID       uint64  `json:"user_id"`
	LocationID   uint64  `json:"location_id"`
	LocationName string  `json:"location_name"`
	DeskID       *uint64 `json:"desk_id,omitempty"`
	TableNumber  *uint32 `json:"table_number,omitempty"`
	CheckedInAt  string  `json:"checked_in_at"`
	CheckedOutAt string  `json:"checked_out_at"`
}

// DensityReportedEvent is published when a crowding report is accepted.
type DensityReportedEvent struct {
	LocationID   uint64 `json:"location_id"`
	LocationName string `json:"location_name"`
	DensityLevel string `json:"density_level"`
	Source       string `json:"source"`
	ReportedAt   string `json:"reported_at"`
}
