package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fieldquote/quotesync/internal/app/config"
	apphttp "fieldquote/quotesync/internal/app/http"
	"fieldquote/quotesync/internal/app/http/handlers"
	"fieldquote/quotesync/internal/app/logger"
	pdfgen "fieldquote/quotesync/internal/domain/quote/pdf/gofpdf"
	"fieldquote/quotesync/internal/infra/db/postgres"
	"fieldquote/quotesync/internal/infra/kv"
	"fieldquote/quotesync/internal/infra/supabase"
	"fieldquote/quotesync/internal/offline"
)

// App holds the wired quote service and what it needs to shut down.
type App struct {
	Cfg     config.Config
	Log     *zap.Logger
	Quotes  *offline.Service
	Metrics *offline.Metrics

	closers []func()
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	repo, err := a.openRemote(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Metrics = offline.NewMetrics(cfg.MetricsNamespace)
	queue := offline.NewDraftQueue(store, offline.SystemClock)
	recon := offline.NewReconciler(queue, offline.NewRemoteCache(store), repo, offline.NewSyncGuard(), log, a.Metrics, offline.Options{
		OldestFirst: cfg.DrainOldestFirst,
		SkipFailed:  cfg.DrainSkipFailed,
	})
	a.Quotes = offline.NewService(queue, repo, recon, offline.SystemClock, log, a.Metrics)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (kv.Store, error) {
	switch a.Cfg.StoreDriver {
	case config.StoreSQLite:
		s, err := kv.OpenSQLite(ctx, a.Cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	case config.StoreRedis:
		s, err := kv.OpenRedis(ctx, a.Cfg.RedisURL, a.Cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	default:
		a.Log.Warn("memory store selected, drafts will not survive a restart")
		return kv.NewMemory(), nil
	}
}

func (a *App) openRemote(ctx context.Context) (offline.Repository, error) {
	if a.Cfg.Remote == config.RemotePostgres {
		db, err := postgres.New(ctx, a.Cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return postgres.NewQuotes(db), nil
	}
	c, err := supabase.New(a.Cfg.SupabaseURL, a.Cfg.SupabaseKey, a.Cfg.HTTPTimeout.Std())
	if err != nil {
		return nil, err
	}
	return supabase.NewQuotes(c), nil
}

// Close releases stores in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Serve runs the HTTP API until ctx is done, then drains connections.
func (a *App) Serve(ctx context.Context) error {
	h := handlers.New(a.Quotes, pdfgen.New(a.Cfg.Company), a.Log)
	router := apphttp.NewRouter(a.Cfg, h, a.Metrics.Registry(), a.Log)

	srv := &http.Server{
		Addr:              a.Cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("listening", zap.String("addr", a.Cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout.Std())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Setup loads config and builds the logger and the app.
func Setup(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, closeLog, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, log)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	a.closers = append([]func(){func() { _ = closeLog() }}, a.closers...)
	return a, nil
}

// Run serves until SIGINT or SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := Setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}
