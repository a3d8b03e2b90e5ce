package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"runner/internal/adapter/repo"
	"runner/internal/engine"
	"runner/internal/http/handlers"
	httpapi "runner/internal/http/httpapi"
	"runner/internal/infra"
	"runner/internal/jobs"
	"runner/internal/providers/fal"
	"runner/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL, []byte(cfg.StorageSigningSecret))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	falClient, err := fal.NewClient(fal.Options{
		APIKey:       cfg.FalAPIKey,
		BaseURL:      cfg.FalBaseURL,
		QueueBaseURL: cfg.FalQueueBaseURL,
		HTTPClient:   &http.Client{Timeout: cfg.ProviderTimeout},
		Logger:       &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure fal client")
	}
	if cfg.FalAPIKey == "" {
		logger.Warn().Msg("FAL_API_KEY missing, provider calls will fail")
	}

	eng := engine.New(falClient, &logger)
	processor := jobs.NewProcessor(jobs.Options{
		Jobs:     repo.NewJobRepository(pool),
		Projects: repo.NewProjectRepository(pool),
		Store:    store,
		Engine:   eng,
		SeedsFunc: func(operation string) bool {
			desc, ok := engine.Lookup(operation)
			return ok && desc.SeedsOriginal
		},
		SignedTTL: cfg.SignedURLTTL,
		Logger:    logger,
	})

	// Jobs run detached from the triggering request but are drained on
	// shutdown so a deploy never strands a running job.
	tasks := infra.NewTaskGroup(0)

	app := &handlers.App{
		Jobs:      repo.NewJobRepository(pool),
		Processor: processor,
		Tasks:     tasks,
		Media:     store,
		Logger:    logger,
	}
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 12*time.Minute)
	defer cancelDrain()
	if err := tasks.Wait(drainCtx); err != nil {
		logger.Error().Err(err).Msg("jobs still running at shutdown deadline")
	}
	logger.Info().Msg("stopped")
}
