package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	config "github.com/davicafu/hexablog/internal/config"
	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	postEvents "github.com/davicafu/hexablog/internal/post/infra/inbound/events"
	postClickHouse "github.com/davicafu/hexablog/internal/post/infra/outbound/analytics/clickhouse"
	postFilesystem "github.com/davicafu/hexablog/internal/post/infra/outbound/filesystem"
	sharedInfraEvents "github.com/davicafu/hexablog/internal/shared/infra/events"
	"github.com/davicafu/hexablog/internal/shared/infra/platform/dedup"
	"github.com/davicafu/hexablog/pkg/logger"
	"github.com/davicafu/hexablog/pkg/telemetry"
)

const (
	consumerGroup = "hexablog-post-events"
	natsStream    = "POSTS"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	log := logger.Named("post-events-consumer")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, "post-events-consumer", cfg.OtelEndpoint, cfg.AppEnv)
	if err != nil {
		log.Warn("⚠️ Tracing deshabilitado", zap.Error(err))
	} else {
		defer shutdownTracer(context.Background())
	}

	// ---------------- Dedup ----------------
	var deduplicator dedup.Deduplicator
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, deduplicación en memoria:", zap.Error(err))
		deduplicator = dedup.NewInMemoryDeduplicator(cfg.DedupWindow)
	} else {
		deduplicator = dedup.NewRedisDeduplicator(rdb, cfg.DedupWindow, "dedup:post-events:")
		log.Info("✅ Redis conectado, deduplicación compartida")
	}
	defer rdb.Close()

	// ---------------- Sink ----------------
	var sink interface {
		postDomain.PostEventSink
		postDomain.PostEventCounter
	}
	switch cfg.EventSink {
	case "clickhouse":
		chDB, err := postClickHouse.Open(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Fatal("failed to connect to ClickHouse", zap.Error(err))
		}
		defer chDB.Close()

		eventLog := postClickHouse.NewPostEventLog(chDB)
		if err := eventLog.InitSchema(ctx); err != nil {
			log.Fatal("failed to initialize ClickHouse schema", zap.Error(err))
		}
		sink = eventLog
		log.Info("✅ ClickHouse conectado", zap.String("addr", cfg.ClickHouseAddr))
	default:
		sink = postFilesystem.NewJSONPostEventLog(cfg.EventLogPath)
		log.Info("📁 Registrando eventos en fichero", zap.String("path", cfg.EventLogPath))
	}

	if err := postEvents.LogSinkSummary(ctx, sink, log); err != nil {
		log.Warn("⚠️ No se pudo resumir el sink", zap.Error(err))
	}

	consumer := postEvents.NewPostEventConsumer(deduplicator, sink, log)

	// ---------------- Broker ----------------
	switch cfg.EventBackend {
	case "nats":
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatal("unable to connect to NATS", zap.Error(err))
		}
		defer nc.Close()

		js, err := nc.JetStream()
		if err != nil {
			log.Fatal("unable to init JetStream", zap.Error(err))
		}
		if err := sharedInfraEvents.EnsureStream(js, natsStream, []string{cfg.PostEventsTopic}); err != nil {
			log.Fatal("unable to ensure stream", zap.Error(err))
		}
		adapter := sharedInfraEvents.NewNatsConsumerAdapter(js, cfg.PostEventsTopic, consumerGroup, consumer, log)
		if err := adapter.Start(ctx); err != nil {
			log.Fatal("unable to start JetStream consumer", zap.Error(err))
		}

	case "rabbitmq":
		conn, err := sharedInfraEvents.DialRabbitMQ(ctx, cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("unable to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()

		adapter := sharedInfraEvents.NewRabbitConsumerAdapter(conn, sharedInfraEvents.RabbitConsumerConfig{
			Exchange:     sharedInfraEvents.DefaultExchange,
			QueueName:    consumerGroup,
			DLQName:      consumerGroup + ".dlq",
			RoutingKeys:  []string{cfg.PostEventsTopic},
			ConsumerName: "post-events-consumer",
		}, consumer, log)
		if err := adapter.Start(ctx); err != nil {
			log.Fatal("unable to start RabbitMQ consumer", zap.Error(err))
		}

	default:
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.PostEventsTopic,
			GroupID:  consumerGroup,
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer reader.Close()

		sharedInfraEvents.NewKafkaConsumerAdapter(reader, consumer, log).Start(ctx)
	}

	log.Info("🚀 Post events consumer running", zap.String("backend", cfg.EventBackend), zap.String("sink", cfg.EventSink))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Stopping consumer...")
	cancel()
}
