package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"converthub/internal/adapter/repo"
	"converthub/internal/convert"
	"converthub/internal/dispatch"
	"converthub/internal/http/handlers"
	"converthub/internal/http/httpapi"
	"converthub/internal/hub"
	"converthub/internal/infra"
	"converthub/internal/migrate"
	"converthub/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			logger.Fatal().Err(err).Msg("sentry init failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	if err := migrate.Up(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	conversions := repo.NewConversionRepository(pool)

	registry := convert.NewRegistry(
		convert.NewFFmpegConverter(),
		convert.NewFFmpegConverter(),
		convert.NewImageConverter(),
		convert.NewDocumentConverter(cfg.GotenbergURL),
	)

	progressHub := hub.New(cfg.ProgressBufferPerConn)
	defer progressHub.Close()

	dispatcher := dispatch.New(conversions, registry, progressHub, files, logger, cfg.ConvertWorkers, cfg.ConvertTimeout)

	sweeper := storage.NewSweeper(files, cfg.RetentionWindow, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	app := handlers.NewApp(dispatcher, conversions, progressHub, files, logger, cfg.MaxUploadMB, cfg.ProgressBufferPerConn)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
