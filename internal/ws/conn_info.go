package ws

import "time"

// ConnInfo is handshake metadata kept per live connection.
type ConnInfo struct {
	ConnID      string
	Label       string
	IsAdmin     bool
	Room        string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
