package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// An empty Zone subscribes to offline alerts from every zone.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	Zone      string    `gorm:"size:8;index"`
	CreatedAt time.Time `gorm:"not null"`
}
