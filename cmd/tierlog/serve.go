package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/coffersTech/tierlog/internal/buffer"
	"github.com/coffersTech/tierlog/internal/codec"
	"github.com/coffersTech/tierlog/internal/config"
	"github.com/coffersTech/tierlog/internal/logging"
	"github.com/coffersTech/tierlog/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen, _ = cmd.Flags().GetString("listen")
			}
			if cmd.Flags().Changed("journal") {
				cfg.JournalPath, _ = cmd.Flags().GetString("journal")
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, flush, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			defer flush()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("config", os.Getenv("TIERLOG_CONFIG"), "Config file (.yaml, .yml or .json)")
	cmd.Flags().String("listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().String("journal", "", "Journal file path (overrides config)")
	cmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger logr.Logger) error {
	enc, err := codec.Lookup(cfg.Codec)
	if err != nil {
		return err
	}

	opts := []buffer.Option{
		buffer.WithCapacity(cfg.Capacity),
		buffer.WithLogger(logger.WithName("store")),
	}
	switch cfg.Mirror {
	case config.MirrorPrint:
		opts = append(opts, buffer.WithSink(buffer.PrintSink(os.Stdout)))
	case config.MirrorLog:
		opts = append(opts, buffer.WithSink(buffer.LoggerSink(logger.WithName("mirror"))))
	}

	var journal *buffer.Journal
	if cfg.JournalPath != "" {
		journal, err = buffer.OpenJournal(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer journal.Close()
		opts = append(opts, buffer.WithJournal(journal))
	}

	store, err := buffer.NewStore(opts...)
	if err != nil {
		return err
	}

	if journal != nil {
		n, err := store.ReplayJournal(journal)
		if err != nil {
			logger.Error(err, "journal replay incomplete", "path", journal.Path(), "records", n)
		} else {
			logger.Info("journal replayed", "path", journal.Path(), "records", n)
		}
		// Compacting right away also drops a torn trailing frame.
		if err := store.Checkpoint(journal); err != nil {
			return fmt.Errorf("journal checkpoint: %w", err)
		}
		if cfg.CheckpointInterval > 0 {
			go runCheckpoints(ctx, store, journal, time.Duration(cfg.CheckpointInterval), logger)
		}
	}

	// The process's own slog output lands in the tiers as well.
	slog.SetDefault(slog.New(buffer.NewHandler(store, slog.LevelDebug)))

	srv := server.New(store, server.Options{
		Codec:           enc,
		DefaultMaxBytes: cfg.DefaultMaxBytes,
		AuthTokenHash:   cfg.AuthTokenHash,
		Journal:         journal,
		Logger:          logger.WithName("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen, "codec", enc.Name(), "capacity", cfg.Capacity)
		errCh <- srv.Start(cfg.Listen)
	}()
	slog.Info("tierlog started", "addr", cfg.Listen)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "server shutdown error")
	}

	if journal != nil {
		if err := store.Checkpoint(journal); err != nil {
			logger.Error(err, "final checkpoint failed")
		}
	}
	logger.Info("tierlog exited gracefully")
	return nil
}

func runCheckpoints(ctx context.Context, store *buffer.Store, journal *buffer.Journal, every time.Duration, logger logr.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Checkpoint(journal); err != nil {
				logger.Error(err, "periodic checkpoint failed")
			}
		}
	}
}
