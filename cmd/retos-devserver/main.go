// Command retos-devserver serves an in-memory retos API for local use.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Makepad-fr/retos/internal/logger"
	"github.com/Makepad-fr/retos/internal/model"
	"github.com/Makepad-fr/retos/internal/retostest"
)

const shutdownTimeout = 5 * time.Second

func main() {
	addr := pflag.String("addr", "127.0.0.1:5000", "listen address")
	listPath := pflag.String("list-path", "/retos", "collection route")
	filterPath := pflag.String("filter-path", "/retos/filtrar", "filtered list route")
	partial := pflag.Bool("partial", false, "answer updates with only the changed fields")
	seed := pflag.Bool("seed", true, "start with a few sample challenges")
	logLevel := pflag.String("log-level", "info", "debug, info, warn or error")
	labelsName := pflag.String("labels", "es", "status and difficulty vocabulary: es or en")
	pflag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel, Output: "stderr"})
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	labels, ok := model.LabelsByName(*labelsName)
	if !ok {
		log.Error("unknown vocabulary", zap.String("labels", *labelsName))
		_ = log.Sync()
		os.Exit(2)
	}

	backend := retostest.New(retostest.Options{
		ListPath:       *listPath,
		FilterPath:     *filterPath,
		PartialUpdates: *partial,
		Logger:         log,
		Labels:         labels,
	})
	if *seed {
		backend.Seed(sampleChallenges()...)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", *addr), zap.String("list_path", *listPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	log.Info("stopped")
}

func sampleChallenges() []model.Challenge {
	return []model.Challenge{
		{Title: "Reverse a linked list", Description: "Iteratively, in place", Category: "algorithms", Difficulty: model.DifficultyEasy, Status: model.StatusCompleted},
		{Title: "Top-N per group", Description: "Window functions only", Category: "sql", Difficulty: model.DifficultyMedium, Status: model.StatusInProgress},
		{Title: "Rate limiter", Description: "Token bucket shared by goroutines", Category: "go", Difficulty: model.DifficultyHard, Status: model.StatusPending},
	}
}
