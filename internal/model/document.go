package model

import "time"

// TreeDocument is a persisted copy of a tree subtree, keyed by its path.
type TreeDocument struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Body      []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
