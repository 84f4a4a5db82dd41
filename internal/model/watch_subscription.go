package model

import "time"

// WatchSubscription holds a browser push subscription watching one or more
// resources for availability to open up.
type WatchSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Resources []*Resource `gorm:"many2many:watch_resource_mapping;"`
}
