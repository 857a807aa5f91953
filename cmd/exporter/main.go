package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"yt_exporter/internal/config"
	"yt_exporter/internal/domain"
	"yt_exporter/internal/exporter"
	"yt_exporter/internal/metrics"
	"yt_exporter/internal/publisher"
	"yt_exporter/internal/scheduler"
	"yt_exporter/internal/service"
	"yt_exporter/internal/source/youtube"
	"yt_exporter/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	channelName := flag.String("channel", "", "channel name to export (prompted when empty)")
	outputPath := flag.String("output", "", "workbook path, overrides export.output_path")
	flag.Parse()

	logger := setupLogger("info", "json")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel, cfg.LogFormat)

	if *channelName != "" {
		cfg.Run.ChannelName = *channelName
	}
	if *outputPath != "" {
		cfg.Export.OutputPath = *outputPath
	}

	if err := run(cfg, logger); err != nil {
		if errors.Is(err, domain.ErrChannelNotFound) {
			logger.Error("channel not found, exiting", "error", err)
		} else {
			logger.Error("export failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	channelName := cfg.Run.ChannelName
	if channelName == "" {
		name, err := readChannelName(os.Stdin, os.Stdout)
		if err != nil {
			return fmt.Errorf("read channel name: %w", err)
		}
		channelName = name
	}

	source, err := youtube.New(ctx, youtube.Config{
		APIKey:          cfg.YouTube.APIKey,
		BaseURL:         cfg.YouTube.BaseURL,
		Timeout:         cfg.YouTube.Timeout,
		PageSize:        cfg.YouTube.PageSize,
		CommentPageSize: cfg.YouTube.CommentPageSize,
	}, logger)
	if err != nil {
		return err
	}

	workbook := exporter.New(exporter.Config{ColumnWidth: cfg.Export.ColumnWidth}, logger)

	var archive *service.Archive
	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to database")

		archive = &service.Archive{
			Videos:    postgres.NewVideoStore(db),
			Comments:  postgres.NewCommentStore(db),
			Channels:  postgres.NewChannelStateStore(db),
			TxManager: postgres.NewTransactionManager(db),
		}
	}

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	exportService := service.NewExportService(
		source,
		workbook,
		archive,
		pub,
		logger,
		cfg.Run,
		cfg.Export.OutputPath,
	)

	if cfg.Metrics.TextfilePath != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
				logger.Error("failed to write metrics", "path", cfg.Metrics.TextfilePath, "error", err)
			}
		}()
	}

	if cfg.Run.Interval > 0 {
		sched := scheduler.NewScheduler(exportService, channelName, cfg.Run.Interval, cfg.Run.Timeout, logger)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	}

	runCtx, runCancel := context.WithTimeout(ctx, cfg.Run.Timeout)
	defer runCancel()

	stats, err := exportService.Run(runCtx, channelName)
	if err != nil {
		return err
	}

	logger.Info("data saved",
		"path", stats.OutputPath,
		"videos", stats.VideosExported,
		"comments", stats.CommentsExported,
	)
	return nil
}

// setupLogger logs to stderr so the prompt on stdout stays clean.
func setupLogger(level, format string) *slog.Logger {
	return newLogger(os.Stderr, level, format)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
