package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrStoreUnavailable envuelve cualquier fallo del almacén relacional (conexión, query, commit).
var ErrStoreUnavailable = errors.New("store unavailable")

// OutboxEvent es la fila que se persiste junto a la entidad en la misma transacción.
// El dispatcher la borra sólo cuando el broker ha confirmado la publicación.
type OutboxEvent struct {
	ID            uuid.UUID       `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
}

// NewOutboxEvent serializa el payload y construye un evento listo para insertar.
func NewOutboxEvent(aggregateType, aggregateID, eventType string, payload interface{}) (OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// OutboxRepository es el puerto que usa el relayer para drenar la tabla outbox.
type OutboxRepository interface {
	// FetchPendingOutbox devuelve los eventos pendientes, los más antiguos primero.
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	// DeleteOutboxEvent elimina un evento ya confirmado por el broker.
	DeleteOutboxEvent(ctx context.Context, id uuid.UUID) error
	// MarkOutboxFailed incrementa attempts y guarda el último error; el evento sigue pendiente.
	MarkOutboxFailed(ctx context.Context, id uuid.UUID, reason string) error
}
