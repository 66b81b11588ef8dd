package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-n-ai/tkb/internal/api"
	"github.com/p-n-ai/tkb/internal/platform/cache"
	"github.com/p-n-ai/tkb/internal/platform/config"
	"github.com/p-n-ai/tkb/internal/platform/database"
	"github.com/p-n-ai/tkb/internal/state"
	"github.com/p-n-ai/tkb/internal/timetable"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Log.Logger(os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open state backend", "backend", cfg.State.Backend, "error", err)
		os.Exit(1)
	}
	defer b.Close()

	svc := state.NewService(b.Store)
	svc.SetBus(b.Bus)

	server, err := newServer(cfg, svc)
	if err != nil {
		slog.Error("failed to configure server", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.State.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// backend is the state store and event bus selected by configuration.
type backend struct {
	Store  state.Store
	Bus    state.Bus
	closer func()
}

func (b backend) Close() {
	if b.closer != nil {
		b.closer()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, error) {
	switch cfg.State.Backend {
	case "memory":
		return backend{Store: state.NewMemoryStore(), Bus: state.NewMemoryBus()}, nil

	case "file":
		store, err := state.NewFileStore(cfg.State.Dir)
		if err != nil {
			return backend{}, err
		}
		return backend{Store: store, Bus: state.NewMemoryBus()}, nil

	case "redis":
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			return backend{}, err
		}
		return backend{
			Store:  state.NewRedisStore(c, 0),
			Bus:    state.NewRedisBus(c),
			closer: func() { c.Close() },
		}, nil

	case "postgres":
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return backend{}, err
		}
		if cfg.Database.Migrate {
			if err := db.Migrate(ctx, state.Schema); err != nil {
				db.Close()
				return backend{}, err
			}
		}
		store, err := state.NewPostgresStore(db.Pool)
		if err != nil {
			db.Close()
			return backend{}, err
		}
		return backend{Store: store, Bus: state.NewMemoryBus(), closer: db.Close}, nil
	}
	return backend{}, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
}

// newServer builds the API server from the timetable settings.
func newServer(cfg *config.Config, svc *state.Service) (*api.Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("loading time zone: %w", err)
	}

	periods := timetable.DefaultPeriods()
	if cfg.Timetable.PeriodsPath != "" {
		if periods, err = timetable.LoadPeriods(cfg.Timetable.PeriodsPath); err != nil {
			return nil, err
		}
	}

	termStart, _, err := cfg.TermStart()
	if err != nil {
		return nil, fmt.Errorf("parsing term start: %w", err)
	}

	public, err := url.Parse(cfg.Server.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("parsing public URL: %w", err)
	}

	return api.NewServer(api.Options{
		Service:   svc,
		Periods:   periods,
		PublicURL: public,
		TermStart: termStart,
		Location:  loc,
	}), nil
}
