package models

import "time"

// Room is a pre-provisioned chat channel in the room directory.
type Room struct {
	ID        int       `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
