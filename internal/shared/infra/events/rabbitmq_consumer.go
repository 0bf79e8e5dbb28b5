package events

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitConsumerConfig describe la cola principal, su DLQ y los bindings.
type RabbitConsumerConfig struct {
	Exchange     string
	QueueName    string
	DLQName      string
	RoutingKeys  []string
	ConsumerName string
}

// RabbitConsumerAdapter consume con ack manual. Los mensajes veneno van a la DLQ;
// los fallos transitorios se reencolan.
type RabbitConsumerAdapter struct {
	conn    *amqp.Connection
	cfg     RabbitConsumerConfig
	handler MessageHandler
	log     *zap.Logger
}

func NewRabbitConsumerAdapter(conn *amqp.Connection, cfg RabbitConsumerConfig, handler MessageHandler, log *zap.Logger) *RabbitConsumerAdapter {
	return &RabbitConsumerAdapter{conn: conn, cfg: cfg, handler: handler, log: log}
}

// Start declara colas y bindings y arranca el bucle de consumo.
func (c *RabbitConsumerAdapter) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}

	if err := declareExchange(ch, c.cfg.Exchange); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(c.cfg.DLQName, true, false, false, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.cfg.DLQName,
	}
	if _, err := ch.QueueDeclare(c.cfg.QueueName, true, false, false, false, args); err != nil {
		return err
	}

	for _, key := range c.cfg.RoutingKeys {
		if err := ch.QueueBind(c.cfg.QueueName, key, c.cfg.Exchange, false, nil); err != nil {
			return err
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(c.cfg.QueueName, c.cfg.ConsumerName, false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				c.log.Info("Consumidor RabbitMQ detenido.", zap.String("queue", c.cfg.QueueName))
				return
			case msg, ok := <-msgs:
				if !ok {
					c.log.Warn("Canal de RabbitMQ cerrado", zap.String("queue", c.cfg.QueueName))
					return
				}
				c.dispatch(ctx, msg)
			}
		}
	}()

	c.log.Info("🎧 Consumidor RabbitMQ iniciado", zap.String("queue", c.cfg.QueueName))
	return nil
}

func (c *RabbitConsumerAdapter) dispatch(ctx context.Context, msg amqp.Delivery) {
	err := c.handler.HandleMessage(ctx, msg.MessageId, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrPoisonMessage):
		c.log.Error("Mensaje enviado a la DLQ", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, false)
	default:
		c.log.Warn("Error procesando mensaje, se reencola", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		_ = msg.Nack(false, true)
	}
}
