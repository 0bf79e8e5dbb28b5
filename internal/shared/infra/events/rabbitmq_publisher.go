package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/hexablog/internal/shared/infra/platform/bus"
	sharedUtils "github.com/davicafu/hexablog/internal/shared/infra/utils"
)

const DefaultExchange = "events"

// ErrUnroutable indica que el exchange no tenía ninguna cola para la routing key.
var ErrUnroutable = errors.New("message returned unroutable")

// DialRabbitMQ conecta con reintentos; el broker suele arrancar más tarde que los servicios.
func DialRabbitMQ(ctx context.Context, url string, log *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	err := sharedUtils.Retry(ctx, 30, 2*time.Second, func() error {
		var dialErr error
		conn, dialErr = amqp.Dial(url)
		if dialErr != nil {
			log.Warn("Failed to connect to RabbitMQ, retrying", zap.Error(dialErr))
		}
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}
	log.Info("Connected to RabbitMQ")
	return conn, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// RabbitPublisher publica en un exchange topic con el canal en modo confirm.
// Los confirms se esperan de uno en uno, por eso el mutex. Se publica con mandatory:
// un mensaje sin cola enlazada vuelve como basic.return y cuenta como fallo.
type RabbitPublisher struct {
	channel  *amqp.Channel
	exchange string
	returns  chan amqp.Return
	mu       sync.Mutex
	log      *zap.Logger
}

func NewRabbitPublisher(conn *amqp.Connection, exchange string, log *zap.Logger) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declareExchange(ch, exchange); err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	returns := ch.NotifyReturn(make(chan amqp.Return, 16))
	return &RabbitPublisher{channel: ch, exchange: exchange, returns: returns, log: log}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, topic string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	if idem, ok := event.(sharedBus.Idempotent); ok {
		msg.MessageId = idem.IdempotencyKey()
	} else {
		msg.MessageId = uuid.NewString()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, topic, true, false, msg)
	if err != nil {
		p.log.Error("Error publishing to RabbitMQ", zap.String("routing_key", topic), zap.Error(err))
		return err
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for broker confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("broker nacked message on %s", topic)
	}
	// El broker entrega el basic.return antes que el ack del mismo mensaje.
	if err := checkReturned(p.returns, msg.MessageId); err != nil {
		p.log.Error("Message not routed to any queue", zap.String("routing_key", topic), zap.Error(err))
		return err
	}

	p.log.Debug("Event published", zap.String("routing_key", topic))
	return nil
}

// checkReturned vacía los returns pendientes y falla si alguno corresponde a messageID.
func checkReturned(returns <-chan amqp.Return, messageID string) error {
	var err error
	for {
		select {
		case ret, ok := <-returns:
			if !ok {
				return err
			}
			if ret.MessageId == messageID {
				err = fmt.Errorf("%w: %s (%d %s)", ErrUnroutable, ret.RoutingKey, ret.ReplyCode, ret.ReplyText)
			}
		default:
			return err
		}
	}
}

func (p *RabbitPublisher) Close() error {
	return p.channel.Close()
}

var _ sharedBus.EventBus = (*RabbitPublisher)(nil)
