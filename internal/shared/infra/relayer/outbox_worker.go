package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
	sharedBus "github.com/davicafu/hexablog/internal/shared/infra/platform/bus"
)

// RetryPolicy acota los reintentos de cada publicación dentro de un mismo lote.
type RetryPolicy struct {
	MaxTries        uint
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	// AttemptTimeout acota cada publicación individual; sin él un broker que nunca
	// confirma dejaría el lote bloqueado.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy son los valores usados cuando la configuración no indica otros.
var DefaultRetryPolicy = RetryPolicy{
	MaxTries:        5,
	MaxElapsed:      30 * time.Second,
	InitialInterval: 200 * time.Millisecond,
	AttemptTimeout:  5 * time.Second,
}

// Worker drena la tabla outbox: publica cada evento y lo borra sólo tras la confirmación del broker.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry map[string]sharedEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	retry         RetryPolicy
	wake          chan struct{}
	log           *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry map[string]sharedEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	retry RetryPolicy,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		retry:         retry,
		wake:          make(chan struct{}, 1),
		log:           log,
	}
}

// Trigger despierta al worker sin esperar al siguiente tick. No bloquea y
// varias llamadas seguidas se agrupan en una sola pasada.
func (w *Worker) Trigger() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start bloquea ejecutando el bucle de polling hasta que se cancela ctx.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval), zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido.")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		case <-w.wake:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote de eventos pendientes, los más antiguos primero.
func (w *Worker) ProcessBatch(ctx context.Context) {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return
	}
	if len(events) > 0 {
		w.log.Debug(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	for _, evt := range events {
		if ctx.Err() != nil {
			return
		}
		w.publishAndDelete(ctx, evt)
	}
}

func (w *Worker) publishAndDelete(ctx context.Context, evt sharedDomain.OutboxEvent) {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		w.fail(ctx, evt, fmt.Errorf("unknown event type %q", evt.EventType))
		return
	}

	// Nueva instancia del tipo registrado (ej: &events.PostEvent{})
	payload := reflect.New(metadata.Type).Interface()
	if err := json.Unmarshal(evt.Payload, payload); err != nil {
		w.fail(ctx, evt, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.publishWithRetry(ctx, metadata.Topic, payload); err != nil {
		w.fail(ctx, evt, err)
		return
	}

	// Un fallo aquí sólo provoca una publicación duplicada en la siguiente pasada.
	if err := w.repo.DeleteOutboxEvent(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ Evento publicado pero no eliminado del outbox",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}

	w.log.Info("✅ Evento publicado",
		zap.String("event_id", evt.ID.String()),
		zap.String("event_type", evt.EventType),
		zap.String("aggregate_id", evt.AggregateID),
		zap.String("topic", metadata.Topic),
	)
}

func (w *Worker) publishWithRetry(ctx context.Context, topic string, payload interface{}) error {
	b := backoff.NewExponentialBackOff()
	if w.retry.InitialInterval > 0 {
		b.InitialInterval = w.retry.InitialInterval
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(b)}
	if w.retry.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(w.retry.MaxTries))
	}
	if w.retry.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(w.retry.MaxElapsed))
	}

	attemptTimeout := w.retry.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultRetryPolicy.AttemptTimeout
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()
		return struct{}{}, w.publisher.Publish(attemptCtx, topic, payload)
	}, opts...)
	return err
}

// fail deja el evento pendiente y registra el intento fallido.
func (w *Worker) fail(ctx context.Context, evt sharedDomain.OutboxEvent, cause error) {
	w.log.Error("❌ No se pudo publicar evento, queda pendiente en outbox",
		zap.String("event_id", evt.ID.String()),
		zap.String("event_type", evt.EventType),
		zap.String("aggregate_id", evt.AggregateID),
		zap.Int("attempts", evt.Attempts+1),
		zap.Error(cause),
	)

	if err := w.repo.MarkOutboxFailed(ctx, evt.ID, cause.Error()); err != nil {
		w.log.Warn("⚠️ No se pudo registrar el fallo en outbox",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
	}
}
