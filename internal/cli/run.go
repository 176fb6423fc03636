package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/musiclet/internal/config"
	"github.com/shaiso/musiclet/internal/domain"
	"github.com/shaiso/musiclet/internal/mq"
	"github.com/shaiso/musiclet/internal/outbox"
	"github.com/shaiso/musiclet/internal/pipeline"
	"github.com/shaiso/musiclet/internal/repo"
	"github.com/shaiso/musiclet/internal/resolver"
	"github.com/shaiso/musiclet/internal/search"
	"github.com/shaiso/musiclet/internal/storage"
	"github.com/shaiso/musiclet/internal/taskclient"
	"github.com/shaiso/musiclet/internal/telemetry"
	"github.com/shaiso/musiclet/internal/worker"
)

// DefaultConfigPath — путь к конфигурации, если --config не задан.
const DefaultConfigPath = "musiclet.toml"

// NewRunCmd создаёт команду запуска воркера.
func NewRunCmd(pathFn func() string, loggerFn func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the worker loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunWorker(cmd.Context(), pathFn(), loggerFn())
		},
	}
}

// RunWorker загружает конфигурацию, собирает компоненты и выполняет цикл до отмены ctx.
func RunWorker(ctx context.Context, path string, logger *slog.Logger) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger.Info("starting musiclet",
		"server_url", cfg.ServerURL,
		"storage", cfg.Storage.Type,
		"version", taskclient.Version,
	)

	// Object store
	uploader, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.Pgsql, cfg.Worker.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	applied, err := repo.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	if applied > 0 {
		logger.Info("migrations applied", "count", applied)
	}

	musicRepo := repo.NewMusicRepo(pool)

	// Обработчики
	pipe := pipeline.New(pipeline.Config{
		Resolver: resolver.NewYTDLP(resolver.Config{
			Binary:      cfg.Resolver.Binary,
			DownloadDir: cfg.Resolver.DownloadDir,
			RateLimit:   cfg.Resolver.RateLimit,
			Burst:       cfg.Resolver.Burst,
			ExtraArgs:   cfg.Resolver.ExtraArgs,
			Logger:      logger,
		}),
		Uploader: uploader,
		Store:    musicRepo,
		Timeouts: pipeline.Timeouts{
			Resolve:  cfg.Timeouts.Resolve.Duration,
			Upload:   cfg.Timeouts.Upload.Duration,
			Database: cfg.Timeouts.Database.Duration,
		},
		Logger: logger,
	})
	finder := search.NewHandler(musicRepo, cfg.Timeouts.Database.Duration, logger)

	registry := worker.NewRegistry()
	registry.Register(domain.KindMusic, worker.MusicHandler(pipe))
	registry.Register(domain.KindSearch, worker.SearchHandler(finder))

	// Сервер задач
	client, err := taskclient.New(taskclient.Config{
		ServerURL:          cfg.ServerURL,
		Token:              cfg.Token,
		PollTimeout:        cfg.Worker.PollTimeout.Duration,
		PollMargin:         cfg.Worker.PollMargin.Duration,
		InsecureSkipVerify: cfg.Worker.InsecureSkipVerify,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("init task client: %w", err)
	}

	wcfg := worker.Config{
		Source:       client,
		Results:      client,
		Dispatcher:   worker.NewDispatcher(registry, logger),
		IdleBackoff:  cfg.Worker.IdleBackoff.Duration,
		ErrorBackoff: cfg.Worker.ErrorBackoff.Duration,
		Logger:       logger,
	}

	// RabbitMQ (опционально)
	if url := cfg.Events.RabbitMQURL; url != "" {
		conn, err := mq.Dial(url, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running without events", "error", err)
		} else {
			defer conn.Close()
			if err := conn.SetupTopology(); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			wcfg.Events = mq.NewPublisher(conn, logger)
		}
	}

	// Outbox (опционально)
	if cfg.Outbox.Enabled {
		store, err := outbox.Open(cfg.Outbox.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		flusher, err := outbox.NewFlusher(outbox.FlusherConfig{
			Store:       store,
			Schedule:    cfg.Outbox.Replay,
			MaxAttempts: cfg.Outbox.MaxAttempts,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		wcfg.Outbox = flusher
		logger.Info("outbox enabled", "path", cfg.Outbox.Path, "replay", cfg.Outbox.Replay)
	}

	w := worker.New(wcfg)

	// HTTP: /healthz + /metrics
	if addr := cfg.Worker.MetricsAddr; addr != "" {
		srv := newMetricsServer(addr, logger)
		go func() {
			logger.Info("listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return w.Run(telemetry.WithLogger(ctx, logger))
}
