package model

import "time"

// ReservationRecord is one normalized upstream reservation as of the last
// successful fetch for its resource. Records are replaced wholesale per
// resource on every snapshot refresh; they are a cache of upstream truth,
// never authored locally.
type ReservationRecord struct {
	ID         int64     `gorm:"autoIncrement;primaryKey"`
	UpstreamID string    `gorm:"size:64;index"`
	ResourceID string    `gorm:"index;size:64;not null"`
	Kind       string    `gorm:"size:16;not null"`
	Quantity   int       `gorm:"not null;default:0"`
	StartTime  time.Time `gorm:"not null;index"`
	EndTime    time.Time `gorm:"not null"`
	StatusCode int       `gorm:"not null"`
	Status     string    `gorm:"size:16;not null"`
	FetchedAt  time.Time `gorm:"not null"`
}
