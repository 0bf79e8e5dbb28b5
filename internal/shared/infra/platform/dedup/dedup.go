package dedup

import "context"

// Deduplicator recuerda claves de idempotencia durante una ventana de tiempo.
type Deduplicator interface {
	// Claim reserva la clave. Devuelve true si no se había visto dentro de la ventana.
	Claim(ctx context.Context, key string) (bool, error)
	// Release libera la clave para que una redelivery pueda procesarse.
	Release(ctx context.Context, key string) error
}
