package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// ---------------- Eventos de cambio ----------------

const ChangeTopic = "record-changes"

const (
	RecordsCreated   = "records.created"
	RecordsUpdated   = "records.updated"
	RecordsDestroyed = "records.destroyed"
)

// ChangeEvent describe una escritura confirmada por un repositorio.
type ChangeEvent struct {
	ID         uuid.UUID      `json:"id"`
	Resource   string         `json:"resource"`
	Action     string         `json:"action"`
	Records    []query.Record `json:"records"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewChangeEvent crea un evento con id y marca de tiempo nuevos.
func NewChangeEvent(resource, action string, records []query.Record) ChangeEvent {
	return ChangeEvent{
		ID:         uuid.New(),
		Resource:   resource,
		Action:     action,
		Records:    records,
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey agrupa los eventos de un mismo recurso en la misma partición.
func (e ChangeEvent) PartitionKey() string { return e.Resource }
