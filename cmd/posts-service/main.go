package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	config "github.com/davicafu/hexablog/internal/config"
	postEvents "github.com/davicafu/hexablog/internal/post/infra/inbound/events"
	postApp "github.com/davicafu/hexablog/internal/post/application"
	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	postHttp "github.com/davicafu/hexablog/internal/post/infra/inbound/http"
	postPostgres "github.com/davicafu/hexablog/internal/post/infra/outbound/db/postgres"
	postSQLite "github.com/davicafu/hexablog/internal/post/infra/outbound/db/sqlite"
	postFilesystem "github.com/davicafu/hexablog/internal/post/infra/outbound/filesystem"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedInfraEvents "github.com/davicafu/hexablog/internal/shared/infra/events"
	sharedBus "github.com/davicafu/hexablog/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hexablog/internal/shared/infra/platform/cache"
	sharedPostgres "github.com/davicafu/hexablog/internal/shared/infra/platform/db/postgres"
	sharedSQLite "github.com/davicafu/hexablog/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/hexablog/internal/shared/infra/platform/dedup"
	infraRelayer "github.com/davicafu/hexablog/internal/shared/infra/relayer"
	"github.com/davicafu/hexablog/pkg/logger"
	"github.com/davicafu/hexablog/pkg/middleware"
	"github.com/davicafu/hexablog/pkg/telemetry"
)

const natsStream = "POSTS"

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	log := logger.Named("posts-service")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, "posts-service", cfg.OtelEndpoint, cfg.AppEnv)
	if err != nil {
		log.Warn("⚠️ Tracing deshabilitado", zap.Error(err))
	} else {
		defer shutdownTracer(context.Background())
	}

	// ---------------- DB ----------------
	var (
		db         *sql.DB
		postRepo   postDomain.PostRepository
		outboxRepo sharedDomain.OutboxRepository
	)
	if err := cfg.RequireDBDriver("sqlite", "postgres"); err != nil {
		log.Fatal("invalid database configuration", zap.Error(err))
	}
	switch cfg.DBDriver {
	case "postgres":
		conn, err := sharedPostgres.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("failed to connect to Postgres", zap.Error(err))
		}
		defer conn.Close()
		db = conn.DB

		if err := postPostgres.InitPostgres(ctx, db); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		postRepo = postPostgres.NewPostRepoPostgres(db)
		outboxRepo = sharedPostgres.NewOutboxRepoPostgres(db)
	case "sqlite":
		db, err = sharedSQLite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		defer db.Close()

		if err := postSQLite.InitSQLite(ctx, db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
		postRepo = postSQLite.NewPostRepoSQLite(db)
		outboxRepo = sharedSQLite.NewOutboxRepoSQLite(db)
	}
	log.Info("✅ Base de datos lista", zap.String("driver", cfg.DBDriver))

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		memCache := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}
	defer rdb.Close()

	// ---------------- Events ---------------
	publisher := buildPublisher(ctx, cfg, log)

	// ------------ Outbox Worker ------------
	worker := infraRelayer.NewOutboxWorker(
		outboxRepo,
		publisher,
		postDomain.NewEventRegistry(cfg.PostEventsTopic),
		cfg.OutboxPeriod,
		cfg.OutboxLimit,
		infraRelayer.RetryPolicy{
			MaxTries:        cfg.OutboxMaxTries,
			MaxElapsed:      cfg.OutboxMaxElapsed,
			InitialInterval: infraRelayer.DefaultRetryPolicy.InitialInterval,
			AttemptTimeout:  cfg.OutboxPublishTimeout,
		},
		log.Named("outbox"),
	)
	go worker.Start(ctx)

	// --------------- Servicio --------------
	postService := postApp.NewPostService(postRepo, cacheInstance, worker, int(cfg.CacheTTL.Seconds()), log)

	// ---------------- HTTP ----------------
	router := gin.Default()
	router.Use(middleware.CorrelationID())
	postHttp.RegisterPostRoutes(router, postHttp.NewPostHandler(postService))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	cancel()
	log.Info("👋 Server exited")
}

// buildPublisher elige el broker según EVENT_BACKEND. Con "memory" los eventos
// se consumen en el propio proceso y se guardan en EVENT_LOG_PATH.
func buildPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) sharedBus.EventBus {
	switch cfg.EventBackend {
	case "kafka":
		log.Info("🚀 Usando Kafka como bus de eventos", zap.Strings("brokers", cfg.KafkaBrokers))
		writer := sharedInfraEvents.NewKafkaWriter(cfg.KafkaBrokers)
		go func() {
			<-ctx.Done()
			writer.Close()
		}()
		return sharedInfraEvents.NewKafkaPublisher(writer, log)

	case "nats":
		log.Info("🚀 Usando NATS JetStream como bus de eventos", zap.String("url", cfg.NatsURL))
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatal("unable to connect to NATS", zap.Error(err))
		}
		go func() {
			<-ctx.Done()
			nc.Drain()
		}()
		pub, err := sharedInfraEvents.NewNatsPublisher(nc, natsStream, []string{cfg.PostEventsTopic}, log)
		if err != nil {
			log.Fatal("unable to init JetStream publisher", zap.Error(err))
		}
		return pub

	case "rabbitmq":
		log.Info("🚀 Usando RabbitMQ como bus de eventos")
		conn, err := sharedInfraEvents.DialRabbitMQ(ctx, cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("unable to connect to RabbitMQ", zap.Error(err))
		}
		pub, err := sharedInfraEvents.NewRabbitPublisher(conn, sharedInfraEvents.DefaultExchange, log)
		if err != nil {
			log.Fatal("unable to init RabbitMQ publisher", zap.Error(err))
		}
		go func() {
			<-ctx.Done()
			pub.Close()
			conn.Close()
		}()
		return pub

	default:
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")
		bus := sharedInfraEvents.NewInMemoryEventBus()
		consumer := postEvents.NewPostEventConsumer(
			dedup.NewInMemoryDeduplicator(cfg.DedupWindow),
			postFilesystem.NewJSONPostEventLog(cfg.EventLogPath),
			log.Named("post-events"),
		)
		log.Info("🎧 Iniciando listener en memoria para eventos de post", zap.String("path", cfg.EventLogPath))
		postEvents.BackgroundConsumerChan(ctx, bus.Subscribe(cfg.PostEventsTopic, 100), consumer)
		return bus
	}
}
