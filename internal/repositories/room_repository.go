package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-relay/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

const roomCodeAttempts = 5

// RoomRepository is the room directory.
type RoomRepository interface {
	Create(ctx context.Context, title string) (models.Room, error)
	GetByCode(ctx context.Context, code string) (models.Room, error)
	Exists(ctx context.Context, code string) (bool, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create provisions a room under a generated unique 8-digit code, retrying
// on code collisions.
func (r *RoomRepo) Create(ctx context.Context, title string) (models.Room, error) {
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		code := generateRoomCode()
		var room models.Room
		err := r.db.QueryRowxContext(ctx,
			`INSERT INTO rooms (code, title) VALUES ($1, $2)
             RETURNING id, code, title, created_at`, code, title).
			StructScan(&room)
		if err == nil {
			return room, nil
		}
		if isUniqueViolation(err) {
			continue
		}
		return models.Room{}, err
	}
	return models.Room{}, fmt.Errorf("generate room code: exhausted %d attempts", roomCodeAttempts)
}

// GetByCode fetches a room by its code.
func (r *RoomRepo) GetByCode(ctx context.Context, code string) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, code, title, created_at FROM rooms WHERE code=$1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// Exists reports whether a room with the given code is provisioned.
func (r *RoomRepo) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE code=$1)`, code)
	return exists, err
}

func generateRoomCode() string {
	digits := make([]byte, 8)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
