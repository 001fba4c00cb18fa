// Command recipesync runs the offline sync queue and feature store as a
// long-lived client agent: it watches connectivity, replays queued writes to
// the sync endpoint and exposes a debug API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/recipekit/pkg/config"
	"github.com/dmitrymomot/recipekit/pkg/debugapi"
	"github.com/dmitrymomot/recipekit/pkg/environment"
	"github.com/dmitrymomot/recipekit/pkg/feature"
	"github.com/dmitrymomot/recipekit/pkg/httpserver"
	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/offline"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
	"github.com/dmitrymomot/recipekit/pkg/syncdriver"
)

const shutdownSaveTimeout = 10 * time.Second

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"recipesync"`

	Snapshot snapshot.Config
	Network  netstatus.Config
	Queue    offline.Config
	Features feature.Config
	Sync     syncdriver.Config
	HTTP     httpserver.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	env, err := environment.Parse(cfg.Env)
	if err != nil {
		return err
	}
	log := logger.New(
		logger.WithEnvironment(env, cfg.Service),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := snapshot.Open(ctx, cfg.Snapshot, log)
	if err != nil {
		return fmt.Errorf("open snapshot storage: %w", err)
	}
	defer storage.Close()

	clientID, err := feature.LoadOrCreateClientID(ctx, storage)
	if err != nil {
		log.WarnContext(ctx, "client id is not persisted", logger.Error(err))
	}

	queue := offline.NewFromConfig(cfg.Queue,
		offline.WithPersistence(storage),
		offline.WithLogger(log),
	)
	defer queue.Close()
	if err := queue.Load(ctx); err != nil {
		return fmt.Errorf("load offline queue: %w", err)
	}
	queue.SetOfflineCapable(true)

	features := feature.NewFromConfig(cfg.Features,
		feature.WithClientID(clientID),
		feature.WithEnvironment(env),
		feature.WithPersistence(storage),
		feature.WithLogger(log),
	)
	if err := features.Load(ctx); err != nil {
		return fmt.Errorf("load feature store: %w", err)
	}
	flags := feature.FileSource{Path: cfg.Features.FlagsFile}
	if err := features.Refresh(ctx, flags); err != nil {
		log.WarnContext(ctx, "feature flags not loaded", logger.Error(err))
	}

	if cfg.Network.ProbeURL == "" {
		cfg.Network.ProbeURL = cfg.Sync.ProbeURL()
	}
	log.InfoContext(ctx, "network probe configured", slog.String("probe_url", cfg.Network.ProbeURL))
	detector := netstatus.NewDetectorFromConfig(cfg.Network, netstatus.WithLogger(log))
	defer detector.Close()
	if err := queue.InitializeNetworkDetection(ctx, detector); err != nil {
		return fmt.Errorf("start network detection: %w", err)
	}

	apiOpts := []debugapi.Option{
		debugapi.WithDetector(detector),
		debugapi.WithLogger(log),
		debugapi.WithHealthCheck("snapshot", func(ctx context.Context) error {
			_, err := storage.Load(ctx, feature.ClientIDKey)
			if errors.Is(err, snapshot.ErrNotFound) {
				return nil
			}
			return err
		}),
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Sync.Endpoint != "" {
		driver, err := syncdriver.New(queue,
			syncdriver.NewHTTPReplayer(cfg.Sync.Endpoint, cfg.Sync.Secret, nil),
			append(cfg.Sync.Options(), syncdriver.WithLogger(log))...,
		)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, debugapi.WithDriver(driver))
		g.Go(func() error { return driver.Run(gctx) })
	} else {
		log.WarnContext(ctx, "SYNC_ENDPOINT is empty; queued operations will not be replayed")
	}

	g.Go(func() error {
		return features.Poll(gctx, flags, cfg.Features.RefreshInterval)
	})

	api := debugapi.New(queue, features, apiOpts...)
	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	g.Go(func() error { return server.Run(gctx, api.Router()) })

	log.InfoContext(ctx, "recipesync started",
		slog.String("client_id", features.ClientID()),
		logger.NetworkStatus(queue.NetworkStatus()),
		slog.Int("pending", queue.PendingCount()),
	)

	runErr := g.Wait()

	saveCtx, cancel := context.WithTimeout(context.Background(), shutdownSaveTimeout)
	defer cancel()
	saveErr := errors.Join(queue.Save(saveCtx), features.Save(saveCtx))
	if saveErr != nil {
		log.Error("failed to save state on shutdown", logger.Error(saveErr))
	}

	log.Info("recipesync stopped")
	return errors.Join(runErr, saveErr)
}
