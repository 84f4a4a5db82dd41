package model

import "time"

// Resource is a bookable thing in the catalog: a venue, a vehicle, or an
// equipment item. TotalStock is only meaningful for equipment; venues and
// vehicles are binary-occupancy resources.
type Resource struct {
	ID         string `gorm:"primaryKey;size:64"`
	Kind       string `gorm:"index;size:16;not null"`
	Name       string `gorm:"size:256;not null"`
	TotalStock int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
