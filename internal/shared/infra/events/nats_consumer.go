package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// NatsConsumerAdapter usa un consumidor durable de JetStream con ack manual.
type NatsConsumerAdapter struct {
	js      nats.JetStreamContext
	subject string
	durable string
	handler MessageHandler
	log     *zap.Logger
}

func NewNatsConsumerAdapter(js nats.JetStreamContext, subject, durable string, handler MessageHandler, log *zap.Logger) *NatsConsumerAdapter {
	return &NatsConsumerAdapter{js: js, subject: subject, durable: durable, handler: handler, log: log}
}

// Start suscribe el consumidor; la suscripción se drena al cancelar ctx.
func (c *NatsConsumerAdapter) Start(ctx context.Context) error {
	sub, err := c.js.Subscribe(c.subject, func(msg *nats.Msg) {
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))

		err := c.handler.HandleMessage(msgCtx, msg.Header.Get(nats.MsgIdHdr), msg.Data)
		switch {
		case err == nil:
			_ = msg.Ack()
		case errors.Is(err, ErrPoisonMessage):
			c.log.Error("Mensaje descartado", zap.String("subject", msg.Subject), zap.Error(err))
			_ = msg.Term()
		default:
			c.log.Warn("Error procesando mensaje, se reintentará", zap.String("subject", msg.Subject), zap.Error(err))
			_ = msg.NakWithDelay(2 * time.Second)
		}
	},
		nats.Durable(c.durable),
		nats.ManualAck(),
		nats.DeliverAll(),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("jetstream subscribe %s: %w", c.subject, err)
	}

	c.log.Info("🎧 Consumidor JetStream iniciado", zap.String("subject", c.subject), zap.String("durable", c.durable))

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			c.log.Warn("Error drenando la suscripción", zap.Error(err))
		}
		c.log.Info("Consumidor JetStream detenido.", zap.String("subject", c.subject))
	}()
	return nil
}
