package rooms

import (
	"context"
	"errors"
	"log/slog"

	"chat-relay/internal/cache"
	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
)

// Directory answers room lookups, consulting the cache before the
// repository. A nil cache disables caching entirely.
type Directory struct {
	repo  repositories.RoomRepository
	cache cache.RoomCache
	log   *slog.Logger
}

// NewDirectory wires the directory to its repository and optional cache.
func NewDirectory(repo repositories.RoomRepository, roomCache cache.RoomCache, log *slog.Logger) *Directory {
	return &Directory{repo: repo, cache: roomCache, log: log}
}

// Exists reports whether the room is provisioned. Cache failures fall
// through to the repository and never surface to the caller.
func (d *Directory) Exists(ctx context.Context, code string) (bool, error) {
	if d.cache != nil {
		exists, err := d.cache.GetExists(ctx, code)
		if err == nil {
			return exists, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			d.log.Debug("room cache lookup failed", "code", code, "error", err)
		}
	}

	exists, err := d.repo.Exists(ctx, code)
	if err != nil {
		return false, err
	}

	if d.cache != nil {
		if err := d.cache.SetExists(ctx, code, exists); err != nil {
			d.log.Debug("room cache store failed", "code", code, "error", err)
		}
	}
	return exists, nil
}

// Create provisions a new room.
func (d *Directory) Create(ctx context.Context, title string) (models.Room, error) {
	return d.repo.Create(ctx, title)
}

// GetByCode fetches a room by code, bypassing the cache.
func (d *Directory) GetByCode(ctx context.Context, code string) (models.Room, error) {
	return d.repo.GetByCode(ctx, code)
}
