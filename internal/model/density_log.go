package model

import "time"

// DensityLog is one crowding report for a location.  Rows are append
// only and immutable once written; the location's current_density field
// is last-write-wins while this table keeps the full history.
//
// Fields:
//  ID           – primary key identifier.
//  LocationID   – location the report refers to.
//  DensityLevel – reported level ("low", "medium" or "high").
//  Source       – origin of the report ("user", "ai" or "system").
//  Timestamp    – when the report was recorded.
type DensityLog struct {
	ID           uint64    // density_logs.id
	LocationID   uint64    // density_logs.location_id
	DensityLevel string    // density_logs.density_level
	Source       string    // density_logs.source
	Timestamp    time.Time // density_logs.created_at
}

// Report sources.
const (
	SourceUser   = "user"
	SourceAI     = "ai"
	SourceSystem = "system"
)
