package bus

import "context"

// Keyer lo implementan los eventos que necesitan una clave de partición estable.
type Keyer interface {
	PartitionKey() string
}

// Idempotent lo implementan los eventos con clave de deduplicación propia.
// Los adapters que soportan dedup en el broker (JetStream) la usan como id de mensaje.
type Idempotent interface {
	IdempotencyKey() string
}

// EventBus publica un evento en un topic. Devuelve nil sólo cuando el broker
// ha confirmado la recepción; el formato del payload lo deciden los adapters.
type EventBus interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}
