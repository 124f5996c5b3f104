package main

import (
	"context"
	"net/http"
	"time"

	"reelstudio/internal/config"
	renderv1 "reelstudio/internal/contracts/render/v1"
	"reelstudio/internal/httpapi"
	"reelstudio/internal/httpapi/handlers"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/pkg/middleware"
	"reelstudio/internal/pkg/shutdown"
	"reelstudio/internal/production"
	"reelstudio/internal/queue"
	"reelstudio/internal/repositories"
	"reelstudio/internal/review"
	"reelstudio/internal/storage"
	"reelstudio/internal/voice"
)

func main() {
	logCfg := logger.DefaultConfig()
	logCfg.ServiceName = "reelstudio-api"
	log := logger.New(logCfg)

	cfg, err := config.Load()
	if err != nil {
		log.LogFatal("failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		log.LogFatal("invalid configuration", err)
	}

	log.Info("starting reelstudio API",
		"database", cfg.Database.Driver,
		"queue", cfg.Queue.Driver,
		"storage", cfg.Storage.Provider,
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to database")
	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		log.LogFatal("failed to connect to database", err)
	}
	shutdownMgr.Register("database", func(ctx context.Context) error {
		return store.Close()
	})
	log.Info("database connected")

	log.Info("connecting to queue")
	broker, err := queue.Open(ctx, queue.Options{
		Driver:        cfg.Queue.Driver,
		AMQPURL:       cfg.Queue.AMQPURL,
		RedisAddr:     cfg.Queue.RedisAddr,
		RedisPassword: cfg.Queue.RedisPassword,
		Prefetch:      cfg.Queue.Prefetch,
		Queues:        []string{cfg.Queue.Name},
	})
	if err != nil {
		log.LogFatal("failed to connect to queue", err)
	}
	shutdownMgr.Register("queue", func(ctx context.Context) error {
		return broker.Close()
	})
	log.Info("queue connected", "queue", cfg.Queue.Name)

	log.Info("initializing storage provider")
	sp, err := storage.NewProvider(ctx, cfg.Storage, cfg.HTTP.PublicBaseURL)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	defaultVoice, err := voice.ParseKind(cfg.Voice.DefaultProvider)
	if err != nil {
		log.LogFatal("invalid default voice provider", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: handlers.Deps{
			Store:  store,
			Broker: broker,
			SP:     sp,
			Production: production.New(store, broker, production.Options{
				Queue:      queueName(cfg),
				DefaultBGM: cfg.Render.DefaultBGM,
				BGMVolume:  cfg.Render.BGMVolume,
				StaleAfter: cfg.Render.StaleAfter(),
			}, log),
			Review: review.New(store, log),
			Voices: func(kind voice.Kind, name string) (voice.Generator, error) {
				return voice.New(kind, voice.Options{Config: cfg.Voice, Storage: sp, Voice: name})
			},
			DefaultVoice: defaultVoice,
		},
		Auth:           middleware.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.JWTIssuer},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Log:            log,
	})

	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set, trusting " + middleware.UserIDHeader + " header")
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

func queueName(cfg *config.Config) string {
	if cfg.Queue.Name != "" {
		return cfg.Queue.Name
	}
	return renderv1.QueueName
}
