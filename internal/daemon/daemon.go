package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dayquest/dayquest/internal/api"
	"github.com/dayquest/dayquest/internal/app/account"
	"github.com/dayquest/dayquest/internal/app/competition"
	"github.com/dayquest/dayquest/internal/app/tasks"
	"github.com/dayquest/dayquest/internal/health"
	"github.com/dayquest/dayquest/internal/infra/sqlite"
	"github.com/dayquest/dayquest/internal/security"
)

// Daemon is the DayQuest runtime. It wires together all services.
type Daemon struct {
	Config  Config
	DB      *sqlite.DB
	Keypair *security.Keypair
	Log     *slog.Logger

	Accounts     *account.Service
	Tasks        *tasks.Service
	Competitions *competition.Service
	Health       *health.Checker
	Server       *api.Server

	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg, version, NewLogger(cfg.Logging, os.Stderr))
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Ed25519 identity signs the API tokens
	kp, err := security.LoadOrCreateKeypair(dataDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	tokens := security.NewTokenManager(kp, security.TokenConfig{
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  parseDuration(cfg.Auth.AccessTTL, 15*time.Minute),
		RefreshTTL: parseDuration(cfg.Auth.RefreshTTL, 7*24*time.Hour),
	})

	accounts, err := account.NewService(db, security.NewPasswordHasher(cfg.Auth.BcryptCost), tokens,
		account.Config{DefaultDayStart: cfg.Game.DefaultDayStart}, logger.With("component", "account"))
	if err != nil {
		db.Close()
		return nil, err
	}
	taskSvc := tasks.NewService(db, loc, logger.With("component", "tasks"))
	compSvc := competition.NewService(db, logger.With("component", "competition"))

	checker := health.NewChecker(db, dataDir, logger.With("component", "health"))

	srv := api.NewServer(accounts, taskSvc, compSvc, api.Config{
		Version:        version,
		CORSOrigins:    cfg.API.CORSOrigins,
		RequestTimeout: parseDuration(cfg.API.RequestTimeout, 30*time.Second),
	}, logger.With("component", "api"))
	srv.SetHealth(checker)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:       cfg,
		DB:           db,
		Keypair:      kp,
		Log:          logger,
		Accounts:     accounts,
		Tasks:        taskSvc,
		Competitions: compSvc,
		Health:       checker,
		Server:       srv,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           d.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.Log.Info("shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	d.Log.Info("serving",
		"addr", "http://"+addr,
		"db", d.DB.Path(),
		"timezone", d.Config.Game.Timezone,
		"metrics", d.Config.Telemetry.Prometheus,
	)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
