package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/inference"
	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/server"
	"comment-insights-go/internal/session"
	"comment-insights-go/internal/supplier"
)

func main() {
	_ = godotenv.Load() // loads .env

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	log.WithField("service", "comment-insights-go").Info("starting service")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	models := inference.New(cfg.Inference, log.Component("inference"))
	sup := supplier.New(cfg.Supplier, log.Component("supplier"))
	p := pipeline.New(models.Sentiment, models.Topic, log.Entry)
	opts := pipeline.Options{BatchSize: cfg.Pipeline.BatchSize, Categories: cfg.Pipeline.Categories}

	sess := session.New(sup, p, opts, log.Entry)
	defer sess.Close()

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.New(sess, log).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(map[string]any{
		"addr":        addr,
		"batch_size":  opts.BatchSize,
		"categories":  len(opts.Categories),
		"environment": cfg.Environment,
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
