package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CapoWatch/internal/checkpoint"
	"CapoWatch/internal/config"
	"CapoWatch/internal/marketplace"
	"CapoWatch/internal/pipeline"
	"CapoWatch/internal/publisher"
	"CapoWatch/internal/rank"
	"CapoWatch/internal/recorder"
	"CapoWatch/internal/render"
	"CapoWatch/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("collection", cfg.Marketplace.Collection).Msg("CapoWatch starting")

	// Init marketplace client
	market := marketplace.NewRESTClient(
		cfg.Marketplace.BaseURL, cfg.Marketplace.APIKey, cfg.Marketplace.Collection, cfg.Proxy)

	// Init publisher
	var pub publisher.Publisher
	if cfg.Publisher.DryRun {
		pub = publisher.NewDryRunPublisher()
	} else {
		pub = publisher.NewXPublisher(
			cfg.Publisher.APIURL, cfg.Publisher.UploadURL, cfg.Publisher.BearerToken, cfg.Proxy)
	}
	log.Info().Str("publisher", pub.Name()).Msg("publisher ready")

	// Init renderer
	var renderer render.Renderer
	if cfg.Render.BaseURL != "" {
		renderer = render.NewHTTPRenderer(cfg.Render.BaseURL)
	} else {
		renderer = render.NewNoopRenderer()
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the pipeline
	retryBase := time.Duration(cfg.Pipeline.RetryBaseMs) * time.Millisecond
	resolver := rank.NewResolver(market, cfg.Pipeline.RetryAttempts, retryBase)
	pipeCfg := pipeline.Config{
		FetchLimit:     cfg.Marketplace.PageSize,
		BatchCap:       cfg.Pipeline.BatchCap,
		Pace:           time.Duration(cfg.Pipeline.PaceSeconds) * time.Second,
		RetryAttempts:  cfg.Pipeline.RetryAttempts,
		RetryBaseDelay: retryBase,
		AlertThreshold: time.Duration(cfg.Alert.ThresholdHours) * time.Hour,
	}
	store := checkpoint.NewStore(cfg.Checkpoint.Path)
	pipe := pipeline.New(pipeCfg, market, resolver, pub, renderer, store, rec)

	sched := scheduler.NewScheduler(ctx, pipe, market, pub, renderer)

	// Diagnostic mode: exercise every dependency, no side-effecting publishes.
	if len(os.Args) > 1 && os.Args[1] == "selftest" {
		if err := sched.Selftest(ctx); err != nil {
			log.Fatal().Err(err).Msg("selftest failed")
		}
		log.Info().Msg("selftest passed")
		return
	}

	if err := sched.Register(cfg.Schedule.PollCron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing poll now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.PollCron).Msg("CapoWatch is running")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	log.Info().Msg("CapoWatch stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
