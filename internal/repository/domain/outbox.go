package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// OutboxResource es el recurso donde se guardan los eventos pendientes.
// Cada backend debe tenerlo disponible (tabla, colección o endpoint).
const OutboxResource = "outbox"

// outboxTimeLayout tiene ancho fijo para que el orden lexicográfico de
// created_at coincida con el cronológico en todos los backends.
const outboxTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrOutboxEventNotFound = errors.New("outbox event not found")

// OutboxEvent es un evento de cambio pendiente de publicar en el broker.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	Resource  string          `json:"resource"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Processed bool            `json:"processed"`
}

// OutboxRepository es lo que necesita el worker que vacía el outbox.
type OutboxRepository interface {
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error
}

// NewOutboxEvent envuelve un ChangeEvent.
func NewOutboxEvent(change ChangeEvent) (OutboxEvent, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	return OutboxEvent{
		ID:        change.ID,
		Resource:  change.Resource,
		EventType: change.Action,
		Payload:   payload,
		CreatedAt: change.OccurredAt,
	}, nil
}

// ToRecord usa solo tipos que cualquier backend guarda sin conversión:
// cadenas y un booleano.
func (e OutboxEvent) ToRecord() query.Record {
	return query.Record{
		"id":         e.ID.String(),
		"resource":   e.Resource,
		"event_type": e.EventType,
		"payload":    string(e.Payload),
		"created_at": e.CreatedAt.UTC().Format(outboxTimeLayout),
		"processed":  e.Processed,
	}
}

// OutboxEventFromRecord es la inversa de ToRecord. processed se acepta
// también como número, que es como lo devuelve SQLite.
func OutboxEventFromRecord(r query.Record) (OutboxEvent, error) {
	var evt OutboxEvent

	id, err := uuid.Parse(fmt.Sprint(r.Get("id")))
	if err != nil {
		return evt, fmt.Errorf("invalid UUID in outbox row: %w", err)
	}
	evt.ID = id

	evt.Resource, _ = r.Get("resource").(string)
	evt.EventType, _ = r.Get("event_type").(string)

	payload, _ := r.Get("payload").(string)
	if !json.Valid([]byte(payload)) {
		return evt, fmt.Errorf("invalid JSON payload in outbox row %s", id)
	}
	evt.Payload = json.RawMessage(payload)

	if raw, ok := r.Get("created_at").(string); ok {
		if evt.CreatedAt, err = time.Parse(outboxTimeLayout, raw); err != nil {
			return evt, fmt.Errorf("invalid created_at in outbox row %s: %w", id, err)
		}
	}

	switch v := r.Get("processed").(type) {
	case bool:
		evt.Processed = v
	case int64:
		evt.Processed = v != 0
	case float64:
		evt.Processed = v != 0
	}
	return evt, nil
}
