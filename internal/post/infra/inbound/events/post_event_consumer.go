package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
	sharedInfraEvents "github.com/davicafu/hexablog/internal/shared/infra/events"
	"github.com/davicafu/hexablog/internal/shared/infra/platform/dedup"
)

// PostEventConsumer procesa los PostEvent entregados al menos una vez.
// La idempotencia se basa en postId + ":" + action dentro de la ventana del Deduplicator.
type PostEventConsumer struct {
	dedup dedup.Deduplicator
	sink  postDomain.PostEventSink
	now   func() time.Time
	log   *zap.Logger
}

var _ sharedInfraEvents.MessageHandler = (*PostEventConsumer)(nil)

func NewPostEventConsumer(d dedup.Deduplicator, sink postDomain.PostEventSink, log *zap.Logger) *PostEventConsumer {
	return &PostEventConsumer{dedup: d, sink: sink, now: time.Now, log: log}
}

// HandleMessage es el punto de entrada para un nuevo mensaje.
func (c *PostEventConsumer) HandleMessage(ctx context.Context, key string, payload []byte) error {
	var evt sharedEvents.PostEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		c.log.Warn("Failed to unmarshal post event", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", sharedInfraEvents.ErrPoisonMessage, err)
	}
	if !evt.Valid() {
		c.log.Warn("Invalid post event", zap.String("key", key), zap.Any("event", evt))
		return fmt.Errorf("%w: missing id or unknown action %q", sharedInfraEvents.ErrPoisonMessage, evt.Action)
	}

	idemKey := evt.IdempotencyKey()
	fresh, err := c.dedup.Claim(ctx, idemKey)
	if err != nil {
		return fmt.Errorf("dedup claim %s: %w", idemKey, err)
	}
	if !fresh {
		c.log.Info("Evento duplicado ignorado", zap.String("idempotency_key", idemKey))
		return nil
	}

	if err := c.sink.Record(ctx, evt, c.now().UTC()); err != nil {
		// Liberamos la clave para que la redelivery sí se procese.
		if relErr := c.dedup.Release(ctx, idemKey); relErr != nil {
			c.log.Warn("Failed to release dedup key", zap.String("idempotency_key", idemKey), zap.Error(relErr))
		}
		c.log.Warn("Failed to record post event", zap.String("post_id", evt.ID), zap.Error(err))
		return err
	}

	c.log.Info("Post event processed",
		zap.String("post_id", evt.ID),
		zap.String("action", string(evt.Action)),
	)
	return nil
}

// BackgroundConsumerChan consume de un canal del bus en memoria hasta que se cancela ctx.
// Los fallos transitorios del sink se reintentan igual que en los adapters de broker.
func BackgroundConsumerChan(ctx context.Context, ch <-chan []byte, consumer *PostEventConsumer) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				consumer.log.Info("PostEventConsumer stopped")
				return
			case payload := <-ch:
				if err := sharedInfraEvents.HandleWithRetry(ctx, consumer, "", payload); err != nil && ctx.Err() == nil {
					consumer.log.Error("Mensaje descartado", zap.Error(err))
				}
			}
		}
	}()
}

// LogSinkSummary registra cuántos eventos hay ya en el sink por acción.
// Se llama al arrancar para ver desde dónde retoma el consumidor.
func LogSinkSummary(ctx context.Context, counter postDomain.PostEventCounter, log *zap.Logger) error {
	fields := make([]zap.Field, 0, 3)
	for _, action := range []sharedEvents.PostAction{
		sharedEvents.PostActionCreated,
		sharedEvents.PostActionUpdated,
		sharedEvents.PostActionDeleted,
	} {
		n, err := counter.CountByAction(ctx, action)
		if err != nil {
			return fmt.Errorf("count %s events: %w", action, err)
		}
		fields = append(fields, zap.Uint64(string(action), n))
	}
	log.Info("📊 Eventos ya registrados en el sink", fields...)
	return nil
}
