package ws

import (
	"context"
	"log/slog"
	"sync"

	"chat-relay/internal/models"
	"chat-relay/internal/moderation"
	"chat-relay/internal/observability"
	"chat-relay/internal/repositories"
	"chat-relay/internal/telemetry"
)

// ReplayLimit caps how many messages a joining session receives from the log.
const ReplayLimit = 50

// Hub routes inbound messages through moderation and fans them out to the
// room's live membership.
type Hub struct {
	registry *Registry
	pipeline *moderation.Pipeline
	store    repositories.MessageRepository
	audit    *telemetry.AuditEmitter
	log      *slog.Logger

	// hideRejected switches rejected messages from "re-broadcast censored
	// form" to "store invisible, no second pass".
	hideRejected bool

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewHub creates a hub around its collaborators.
func NewHub(registry *Registry, pipeline *moderation.Pipeline, store repositories.MessageRepository,
	audit *telemetry.AuditEmitter, log *slog.Logger, hideRejected bool) *Hub {
	return &Hub{
		registry:     registry,
		pipeline:     pipeline,
		store:        store,
		audit:        audit,
		log:          log,
		hideRejected: hideRejected,
		roomLocks:    make(map[string]*sync.Mutex),
	}
}

// Register replays the room's recent visible history to the session and then
// joins it to live fan-out. The replay is delivered before joining so the
// session never receives a replayed message twice.
func (h *Hub) Register(ctx context.Context, room string, m Member) error {
	msgs, err := h.store.ListRecentVisible(ctx, room, ReplayLimit)
	if err != nil {
		// The session can still chat, it just starts with an empty view.
		h.log.Warn("history replay failed", "room", room, "error", err)
		msgs = nil
	}

	for _, msg := range msgs {
		if err := m.Deliver(msg.ToEvent()); err != nil {
			m.Close()
			return err
		}
	}

	h.registry.Join(room, m)
	return nil
}

// Unregister removes the session from its room. Safe to call more than once.
func (h *Hub) Unregister(room string, m Member) {
	h.registry.Leave(room, m)
}

// Ingest runs one message through its full lifecycle: optimistic raw
// broadcast, concurrent moderation, the corrected pass for rejections, then
// a single persistence write carrying the final text.
func (h *Hub) Ingest(ctx context.Context, room, rawText, sender string) {
	msg := models.NewMessage(room, sender, rawText)

	verdictCh := make(chan moderation.Verdict, 1)
	go func() {
		verdictCh <- h.pipeline.Evaluate(rawText)
	}()

	// Raw pass goes out immediately so delivery feels instant; everyone in
	// the room sees the uncensored text until the verdict lands.
	h.broadcast(msg.Room, msg.ToEvent())

	verdict := <-verdictCh
	if verdict.Accepted {
		observability.IncVerdict("accepted")
	} else {
		observability.IncVerdict("rejected")
		h.log.Warn("message rejected",
			"sender", sender, "room", msg.Room, "htmlid", msg.DisplayID, "reason", verdict.Reason)

		msg.Text = verdict.Rewritten
		if h.hideRejected {
			msg.Visible = false
		} else {
			h.broadcast(msg.Room, msg.ToEvent())
		}
	}

	// The sender's connection may be gone by now; the record is still
	// written and audited.
	ctx = context.WithoutCancel(ctx)
	if !verdict.Accepted {
		h.audit.Emit(ctx, "warning", msg.Room, sender, verdict.Reason)
	}
	if _, err := h.store.Create(ctx, msg); err != nil {
		h.log.Warn("message not persisted", "htmlid", msg.DisplayID, "room", msg.Room, "error", err)
	}
}

// broadcast delivers one event to every current room member. Fan-outs for
// the same room are serialized so hub observation order is delivery order.
// A member whose write fails is pruned and the fan-out continues.
func (h *Hub) broadcast(room string, event models.Event) {
	lock := h.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	for _, m := range h.registry.Members(room) {
		if err := m.Deliver(event); err != nil {
			h.log.Warn("delivery failed, pruning member", "room", room, "error", err)
			observability.IncDelivery("failed")
			m.Close()
			h.registry.Leave(room, m)
			continue
		}
		observability.IncDelivery("ok")
	}
}

func (h *Hub) roomLock(room string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.roomLocks[room]
	if !ok {
		lock = &sync.Mutex{}
		h.roomLocks[room] = lock
	}
	return lock
}
