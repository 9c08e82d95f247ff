package telemetry

import (
	"context"
	"time"
)

// Publisher is the transport audit events are emitted through.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter publishes moderation audit events.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the stable audit event schema.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload carries the moderation outcome for one message.
type AuditPayload struct {
	Level  string `json:"level"`
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Reason string `json:"reason"`
}

// NewAuditEmitter constructs an emitter bound to a routing key.
func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit event. A nil emitter is a no-op so callers do not
// need to guard the optional audit path.
func (e *AuditEmitter) Emit(ctx context.Context, level, room, sender, reason string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "moderation_verdict",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		Payload: AuditPayload{
			Level:  level,
			Room:   room,
			Sender: sender,
			Reason: reason,
		},
	}

	// Best effort: the publisher already logs and counts failures.
	_ = e.publisher.Publish(ctx, e.routingKey, envelope)
}
