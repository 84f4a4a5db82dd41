package model

import "time"

// BookingAttempt outcomes.
const (
	AttemptSubmitted = "submitted"
	AttemptAccepted  = "accepted"
	AttemptRejected  = "rejected"
)

// BookingAttempt is the audit trail of a confirmed wizard submission. The
// external booking workflow owns the actual reservation; this row records
// what was handed to it and how that ended.
type BookingAttempt struct {
	ID          string    `gorm:"primaryKey;size:36"`
	SessionID   string    `gorm:"index;size:36;not null"`
	Kind        string    `gorm:"size:16;not null"`
	ResourceIDs string    `gorm:"size:512;not null"` // comma-joined selection
	Quantity    int       `gorm:"not null;default:0"`
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	Outcome     string    `gorm:"size:16;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}
