package events

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConsumerAdapter lee de un consumer group y hace commit sólo tras procesar el mensaje.
type KafkaConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger
}

func NewKafkaConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *KafkaConsumerAdapter {
	return &KafkaConsumerAdapter{
		reader:  reader,
		handler: handler,
		log:     log,
	}
}

// Start inicia el bucle de consumo en una goroutine.
func (c *KafkaConsumerAdapter) Start(ctx context.Context) {
	topic := c.reader.Config().Topic
	c.log.Info("🎧 Iniciando consumidor de Kafka...",
		zap.String("topic", topic),
		zap.Strings("brokers", c.reader.Config().Brokers),
	)

	go func() {
		fetchRetry := fetchBackOff()
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", topic))
					return
				}
				wait := fetchRetry.NextBackOff()
				c.log.Error("Error al leer mensaje de Kafka", zap.Duration("retry_in", wait), zap.Error(err))
				if !sleepCtx(ctx, wait) {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", topic))
					return
				}
				continue
			}
			fetchRetry.Reset()

			if err := HandleWithRetry(ctx, c.handler, string(msg.Key), msg.Value); err != nil {
				if ctx.Err() != nil {
					// Sin commit: el grupo volverá a entregar el mensaje.
					return
				}
				if errors.Is(err, ErrPoisonMessage) {
					c.log.Error("Mensaje descartado", zap.Int64("offset", msg.Offset), zap.Error(err))
				}
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.log.Warn("Error al hacer commit del offset", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}()
}
