package utils

import (
	"context"
	"time"
)

// Retry ejecuta fn hasta attempts veces con una espera fija entre intentos.
// Se usa para esperar a dependencias externas en el arranque (Postgres, RabbitMQ, Mongo).
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
