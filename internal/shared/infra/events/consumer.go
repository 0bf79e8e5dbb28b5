package events

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrPoisonMessage marca un mensaje que nunca podrá procesarse (JSON inválido, campos ausentes).
// Los adapters no lo reintentan.
var ErrPoisonMessage = errors.New("poison message")

// MessageHandler es el cerebro de un consumidor: los adapters sólo transportan.
// Devolver nil confirma el mensaje; cualquier otro error pide una nueva entrega.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte) error
}

// HandleWithRetry reintenta el handler con backoff exponencial hasta que funciona,
// el mensaje resulta ser veneno o el contexto se cancela.
func HandleWithRetry(ctx context.Context, handler MessageHandler, key string, payload []byte) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second

	for {
		err := handler.HandleMessage(ctx, key, payload)
		if err == nil || errors.Is(err, ErrPoisonMessage) {
			return err
		}

		select {
		case <-time.After(b.NextBackOff()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fetchBackOff espacia las lecturas fallidas de un broker caído.
func fetchBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

// sleepCtx espera d o hasta que ctx se cancela; devuelve false si se canceló.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
