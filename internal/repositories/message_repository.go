package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

// MessageRepository is the append-mostly message log.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	ListRecentVisible(ctx context.Context, room string, limit int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts the message exactly once and returns it with the assigned
// storage id.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id_in_html, sender, text, room, visibility, timestamp)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, id_in_html, sender, text, room, visibility, timestamp`,
		msg.DisplayID, msg.Sender, msg.Text, msg.Room, msg.Visible, msg.Timestamp).
		StructScan(&msg)
	return msg, err
}

// ListRecentVisible returns up to limit visible messages for the room,
// ordered oldest to newest for replay.
func (r *MessageRepo) ListRecentVisible(ctx context.Context, room string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, id_in_html, sender, text, room, visibility, timestamp
         FROM messages
         WHERE room=$1 AND visibility = TRUE
         ORDER BY id DESC
         LIMIT $2`, room, limit)
	if err != nil {
		return nil, err
	}

	// The query picks the newest messages, replay wants them oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
