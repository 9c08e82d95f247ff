package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRoom is used when a connection does not select a room.
const DefaultRoom = "default"

// Message represents a chat message as stored in the message log.
type Message struct {
	ID        int       `db:"id" json:"id"`
	DisplayID string    `db:"id_in_html" json:"htmlid"`
	Sender    string    `db:"sender" json:"sender"`
	Text      string    `db:"text" json:"text"`
	Room      string    `db:"room" json:"room"`
	Visible   bool      `db:"visibility" json:"visibility"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// NewMessage builds an unsaved message with a fresh display id and a UTC
// creation timestamp. The display id lets clients correlate optimistic UI
// entries with the broadcast even before the storage id is assigned.
func NewMessage(room, sender, text string) Message {
	if room == "" {
		room = DefaultRoom
	}
	return Message{
		DisplayID: uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Room:      room,
		Visible:   true,
		Timestamp: time.Now().UTC(),
	}
}

// Event is the JSON payload delivered over websocket connections.
type Event struct {
	HTMLID     string `json:"htmlid"`
	Sender     string `json:"sender"`
	Text       string `json:"text"`
	Room       string `json:"room"`
	Visibility bool   `json:"visibility"`
	Time       string `json:"time"`
}

// ToEvent converts a message into its wire representation.
func (m Message) ToEvent() Event {
	return Event{
		HTMLID:     m.DisplayID,
		Sender:     m.Sender,
		Text:       m.Text,
		Room:       m.Room,
		Visibility: m.Visible,
		Time:       m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
