package model

import "time"

// PushSubscription holds the information for a browser push subscription
// that mirrors every message addressed to Identity.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	Identity  string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}
