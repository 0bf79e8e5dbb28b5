package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexablog/internal/shared/infra/platform/bus"
)

// NatsPublisher publica en JetStream; PublishMsg sólo vuelve cuando el stream ha persistido el mensaje.
type NatsPublisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// EnsureStream crea el stream si todavía no existe.
func EnsureStream(js nats.JetStreamContext, stream string, subjects []string) error {
	_, err := js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: subjects,
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", stream, err)
	}
	return nil
}

func NewNatsPublisher(nc *nats.Conn, stream string, subjects []string, log *zap.Logger) (*NatsPublisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	if err := EnsureStream(js, stream, subjects); err != nil {
		return nil, err
	}
	return &NatsPublisher{js: js, log: log}, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := nats.NewMsg(topic)
	msg.Data = data
	// El id de mensaje activa la deduplicación del propio stream.
	if idem, ok := event.(sharedBus.Idempotent); ok {
		msg.Header.Set(nats.MsgIdHdr, idem.IdempotencyKey())
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	ack, err := p.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		p.log.Error("Error publishing to JetStream", zap.String("subject", topic), zap.Error(err))
		return err
	}

	p.log.Debug("📢 Event published",
		zap.String("subject", topic),
		zap.String("stream", ack.Stream),
		zap.Uint64("seq", ack.Sequence),
		zap.Bool("duplicate", ack.Duplicate),
	)
	return nil
}

var _ sharedBus.EventBus = (*NatsPublisher)(nil)
