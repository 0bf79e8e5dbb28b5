package cache

import (
	"context"
)

// Cache es una caché clave-valor genérica. Los errores de caché nunca deben
// romper una lectura: quien la usa cae al almacén.
type Cache interface {
	// Get rellena dest (puntero) y devuelve (true, nil) en un hit, (false, nil) en un miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor. ttlSecs <= 0 usa el TTL por defecto de la implementación.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}
