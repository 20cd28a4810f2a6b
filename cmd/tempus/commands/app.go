package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/config"
	"github.com/tempus-app/tempus/internal/gateway"
	"github.com/tempus-app/tempus/internal/identity"
	"github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/store"
	"github.com/tempus-app/tempus/internal/telemetry"
	"github.com/tempus-app/tempus/internal/tokenstore"
)

// App is the wired client used by every command
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Session *identity.Session
	Client  *gateway.Client
	Store   *store.Store

	closers []func(context.Context) error
}

// AppFactory builds an App for one command invocation
type AppFactory func(ctx context.Context) (*App, error)

// NewApp loads configuration and wires logging, tracing, the token store,
// the session, the gateway and the store
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogFormat, cfg.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	app := &App{Config: cfg, Logger: log}
	app.closers = append(app.closers, func(context.Context) error {
		_ = logger.Sync(log)
		return nil
	})

	shutdown, err := telemetry.Setup(ctx, cfg.OTELEnabled, telemetry.DefaultServiceName, cfg.OTELEndpoint)
	if err != nil {
		log.Warn("telemetry_disabled", zap.Error(err))
	} else {
		app.closers = append(app.closers, shutdown)
	}

	tokens, err := tokenstore.Open(ctx, tokenstore.Options{
		Backend:    cfg.TokenStore,
		SQLitePath: cfg.SQLitePath,
		RedisURL:   cfg.RedisURL,
		KeyPrefix:  "tempus:",
	})
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return tokens.Close() })

	var oauthCfg *identity.OAuthConfig
	if cfg.OIDCEnabled() {
		oauthCfg = &identity.OAuthConfig{ClientID: cfg.OIDCClientID, TokenURL: cfg.OIDCTokenURL}
	}
	app.Session = identity.NewSession(tokens, oauthCfg, log.Named("identity"))
	app.Client = gateway.New(cfg.APIBaseURL, app.Session,
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithLogger(log.Named("gateway")),
	)
	app.Store = store.New(app.Client, store.WithLogger(log.Named("store")))

	log.Debug("app_initialized",
		zap.String("token_store", cfg.TokenStore),
		zap.Bool("oidc_refresh", oauthCfg != nil),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)
	return app, nil
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
