package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/inference"
	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/session"
	"comment-insights-go/internal/supplier"
)

// Version is set at build time.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// logs go to stderr so stdout carries only the report
	log := logger.New(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel, Output: os.Stderr})

	models := inference.New(cfg.Inference, log.Component("inference"))
	p := pipeline.New(models.Sentiment, models.Topic, log.Entry)
	opts := pipeline.Options{BatchSize: cfg.Pipeline.BatchSize, Categories: cfg.Pipeline.Categories}
	sess := session.New(supplier.New(cfg.Supplier, log.Component("supplier")), p, opts, log.Entry)
	defer sess.Close()

	app := newCLIApp(sess)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		sess.Close()
		os.Exit(1)
	}
}
