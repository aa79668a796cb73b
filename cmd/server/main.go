package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/discussion-forum/internal/auth"
	"github.com/ayush/discussion-forum/internal/config"
	"github.com/ayush/discussion-forum/internal/forum"
	"github.com/ayush/discussion-forum/internal/logger"
	"github.com/ayush/discussion-forum/internal/middleware"
	"github.com/ayush/discussion-forum/internal/profile"
	"github.com/ayush/discussion-forum/internal/server"
	"github.com/ayush/discussion-forum/internal/store"
	"github.com/ayush/discussion-forum/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("server", "info").Fatal().Err(err).Msg("config load failed")
	}
	log := logger.NewLogger("server", cfg.LogLevel)
	logger.SetDefault(log)
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDBName))

	idxCtx, cancelIdx := context.WithTimeout(ctx, 30*time.Second)
	if err := mongoStore.EnsureIndexes(idxCtx); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}
	cancelIdx()

	// ── Sessions (Redis, or in-process) ──────────────────────
	var sessionStore scs.Store
	if cfg.UseRedis() {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer rdb.Close()
		if cfg.SecretKey == "" {
			log.Warn().Msg("SECRET_KEY is empty, session keys in redis are hashed with an empty key")
		}
		sessionStore = auth.NewRedisStore(rdb, cfg.SecretKey)
	} else {
		log.Info().Msg("REDIS_ADDR not set, keeping sessions in memory")
		sessionStore = memstore.New()
	}
	sessions := auth.NewSessions(sessionStore, cfg.SessionLifetime, cfg.SecureCookies)

	// ── Avatars (MinIO, or upload folder) ────────────────────
	var avatars store.Avatars
	if cfg.UseMinio() {
		avatars, err = store.NewMinioAvatars(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("minio connect failed")
		}
	} else {
		avatars, err = store.NewDirAvatars(cfg.UploadFolder)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.UploadFolder).Msg("avatar folder setup failed")
		}
	}

	// ── Templates ────────────────────────────────────────────
	views, err := web.NewRenderer(sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("template parse failed")
	}

	// ── Metrics ──────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ── Handlers ─────────────────────────────────────────────
	handler := server.New(server.Handlers{
		Auth:    auth.NewHandler(mongoStore, avatars, sessions, views),
		Forum:   forum.NewHandler(mongoStore, mongoStore, sessions, views),
		Profile: profile.NewHandler(mongoStore, avatars, sessions, views),
	}, server.Options{
		Logger:      log,
		Sessions:    sessions,
		Registry:    registry,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Limiter:     middleware.NewRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst),
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("forum listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Err(err).Msg("shutdown failed")
	}
}
