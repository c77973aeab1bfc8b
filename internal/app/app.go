package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/admission"
	"github.com/chatwave/chatwave-server/internal/auth"
	"github.com/chatwave/chatwave-server/internal/callengine"
	"github.com/chatwave/chatwave-server/internal/callengine/livekit"
	"github.com/chatwave/chatwave-server/internal/calls"
	"github.com/chatwave/chatwave-server/internal/chat"
	"github.com/chatwave/chatwave-server/internal/config"
	"github.com/chatwave/chatwave-server/internal/conversation"
	"github.com/chatwave/chatwave-server/internal/fanout"
	"github.com/chatwave/chatwave-server/internal/presence"
	"github.com/chatwave/chatwave-server/internal/store"
	"github.com/chatwave/chatwave-server/internal/store/sqlite"
	transporthttp "github.com/chatwave/chatwave-server/internal/transport/http"
)

// App wires together storage, domain services and the transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	sweepInterval   time.Duration
	admission       *admission.Controller
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	registry := presence.NewRegistry()
	dispatcher := fanout.New(registry, logger)
	index := conversation.NewIndex(st, st, cfg.ConversationWindow)
	chatService := chat.NewService(st, dispatcher, index, logger)
	ctrl := admission.New(admission.DefaultLimits(), logger)

	var engine callengine.Engine
	if cfg.CallsEnabled() {
		engine = livekit.New(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.LiveKitURL)
		logger.Info().Str("url", cfg.LiveKitURL).Msg("call engine enabled")
	} else {
		logger.Info().Msg("call engine disabled: livekit not configured")
	}
	callService := calls.NewService(engine, st, dispatcher, logger)

	server := transporthttp.NewServer(transporthttp.Deps{
		Store:      st,
		Auth:       authService,
		Chat:       chatService,
		Calls:      callService,
		Registry:   registry,
		Dispatcher: dispatcher,
		Admission:  ctrl,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		sweepInterval:   cfg.AdmissionSweepInterval,
		admission:       ctrl,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	a.admission.StartSweeper(ctx, a.sweepInterval)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
