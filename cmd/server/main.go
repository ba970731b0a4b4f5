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

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"trustface/internal/audit"
	"trustface/internal/extract"
	faceservice "trustface/internal/face/service"
	facestore "trustface/internal/face/store"
	jwttoken "trustface/internal/jwt_token"
	"trustface/internal/platform/config"
	"trustface/internal/platform/httpserver"
	"trustface/internal/platform/logger"
	"trustface/internal/platform/metrics"
	redisplatform "trustface/internal/platform/redis"
	"trustface/internal/session"
	httptransport "trustface/internal/transport/http"
	"trustface/internal/user"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		templates facestore.TemplateStore
		sessions  session.Store
		users     user.Store
		health    []httptransport.HealthChecker
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}

		templateStore := facestore.NewPostgresTemplateStore(db)
		sessionStore := session.NewPostgresStore(db)
		userStore := user.NewPostgresStore(db)
		for _, ensure := range []func(context.Context) error{
			templateStore.EnsureSchema, sessionStore.EnsureSchema, userStore.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				log.Error("schema migration failed", "error", err)
				os.Exit(1)
			}
		}
		templates, sessions, users = templateStore, sessionStore, userStore
		health = append(health, dbHealth{db})
		log.Info("using postgres storage")
	} else {
		templates = facestore.NewInMemoryTemplateStore()
		sessions = session.NewInMemoryStore()
		users = user.NewInMemoryStore()
		log.Info("using in-memory storage")
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var revocations jwttoken.RevocationList
	if redisClient != nil {
		defer redisClient.Close()
		revocations = jwttoken.NewRedisRevocationList(redisClient.Client)
		health = append(health, redisClient)
		log.Info("using redis token revocation list")
	} else {
		revocations = jwttoken.NewInMemoryRevocationList()
	}

	var sink audit.Appender
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("publishing audit trail to kafka", "topic", cfg.AuditTopic)
	} else {
		sink = audit.NewInMemoryStore()
	}
	inbox := make(chan audit.Event, 1024)
	go func() {
		_ = audit.NewWorker(sink, inbox, log).Run(ctx)
	}()
	trail := audit.NewPublisher(audit.NewChannelAppender(inbox))

	extractor := extract.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorTimeout)
	userService := user.NewService(users, log)
	faceService := faceservice.NewService(extractor, templates, userService, trail, m, log, cfg.MatchThreshold)
	sessionService := session.NewService(sessions, templates, trail, m, log, cfg.MatchThreshold)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "trustface")

	handler := httptransport.NewHandler(
		userService,
		faceService,
		sessionService,
		extractor,
		jwtService,
		jwttoken.NewJWTServiceAdapter(jwtService),
		revocations,
		cfg.TokenTTL,
		log,
		health...,
	)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	go func() {
		log.Info("starting trustface", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
