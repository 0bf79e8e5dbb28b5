package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	commentApp "github.com/davicafu/hexablog/internal/comment/application"
	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	commentHttp "github.com/davicafu/hexablog/internal/comment/infra/inbound/http"
	commentMongo "github.com/davicafu/hexablog/internal/comment/infra/outbound/db/mongodb"
	commentPostgres "github.com/davicafu/hexablog/internal/comment/infra/outbound/db/postgres"
	commentSQLite "github.com/davicafu/hexablog/internal/comment/infra/outbound/db/sqlite"
	"github.com/davicafu/hexablog/internal/comment/infra/outbound/posts"
	config "github.com/davicafu/hexablog/internal/config"
	sharedPostgres "github.com/davicafu/hexablog/internal/shared/infra/platform/db/postgres"
	sharedSQLite "github.com/davicafu/hexablog/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/hexablog/pkg/logger"
	"github.com/davicafu/hexablog/pkg/middleware"
	"github.com/davicafu/hexablog/pkg/telemetry"
)

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	log := logger.Named("comments-service")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, "comments-service", cfg.OtelEndpoint, cfg.AppEnv)
	if err != nil {
		log.Warn("⚠️ Tracing deshabilitado", zap.Error(err))
	} else {
		defer shutdownTracer(context.Background())
	}

	// ---------------- DB ----------------
	var commentRepo commentDomain.CommentRepository
	if err := cfg.RequireDBDriver("sqlite", "postgres", "mongodb"); err != nil {
		log.Fatal("invalid database configuration", zap.Error(err))
	}
	switch cfg.DBDriver {
	case "postgres":
		conn, err := sharedPostgres.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("failed to connect to Postgres", zap.Error(err))
		}
		defer conn.Close()

		if err := commentPostgres.InitPostgres(ctx, conn.DB); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		commentRepo = commentPostgres.NewCommentRepoPostgres(conn.DB)

	case "mongodb":
		client, err := commentMongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer client.Disconnect(context.Background())

		repo := commentMongo.NewCommentRepoMongoDB(client, cfg.MongoDB)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal("failed to create MongoDB indexes", zap.Error(err))
		}
		commentRepo = repo

	case "sqlite":
		db, err := sharedSQLite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		defer db.Close()

		if err := commentSQLite.InitSQLite(ctx, db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
		commentRepo = commentSQLite.NewCommentRepoSQLite(db)
	}
	log.Info("✅ Base de datos lista", zap.String("driver", cfg.DBDriver))

	// --------------- Servicio --------------
	postsClient := posts.NewPostsHTTPClient(cfg.PostsServiceURL, cfg.PostsClientTimeout)
	commentService := commentApp.NewCommentService(commentRepo, postsClient, log)

	// ---------------- HTTP ----------------
	router := gin.Default()
	router.Use(middleware.CorrelationID())
	commentHttp.RegisterCommentRoutes(router, commentHttp.NewCommentHandler(commentService))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("🚀 Server running",
			zap.String("url", "http://localhost:"+cfg.HTTPPort),
			zap.String("posts_service", cfg.PostsServiceURL),
		)
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
	log.Info("👋 Server exited")
}
