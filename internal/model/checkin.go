package model

import "time"

// CheckIn records one occupancy session: a user sits down at a desk (or
// enters a location without a desk), optionally pauses for a break, and
// eventually checks out.  A user may have at most one check-in whose
// status is "active" or "break" at any time.  Completed check-ins are
// kept forever as history and never deleted.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who owns this session.
//  DeskID         – desk being occupied (nil for desk-less entries).
//  LocationID     – location of the session.
//  CheckInTime    – when the session started.
//  CheckOutTime   – when the session ended (nil while open).
//  BreakStartTime – start of the most recent break (nil if none taken).
//  BreakEndTime   – end of the most recent break (nil while on break).
//  BreakType      – "lunch" or "regular" (nil if no break taken).
//  Status         – "active", "break" or "completed".
type CheckIn struct {
	ID             uint64     // check_ins.id
	UserID         uint64     // check_ins.user_id
	DeskID         *uint64    // check_ins.desk_id (nullable)
	LocationID     uint64     // check_ins.location_id
	CheckInTime    time.Time  // check_ins.check_in_time
	CheckOutTime   *time.Time // check_ins.check_out_time (nullable)
	BreakStartTime *time.Time // check_ins.break_start_time (nullable)
	BreakEndTime   *time.Time // check_ins.break_end_time (nullable)
	BreakType      *string    // check_ins.break_type (nullable)
	Status         string     // check_ins.status
}

// Check-in lifecycle states.  "completed" is terminal.
const (
	CheckInActive    = "active"
	CheckInBreak     = "break"
	CheckInCompleted = "completed"
)

// Break types.  Durations attached to these are advisory only; the
// server never force-ends a break.
const (
	BreakLunch   = "lunch"
	BreakRegular = "regular"
)

// OnBreak reports whether the session currently has an open break,
// i.e. a break was started and not yet ended.
func (c *CheckIn) OnBreak() bool {
	return c.BreakStartTime != nil && c.BreakEndTime == nil
}
