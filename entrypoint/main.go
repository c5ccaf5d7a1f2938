package main

import (
	"labflux.com/lfx/api"
	"labflux.com/lfx/diagnostics"
	"labflux.com/lfx/logger"
	"labflux.com/lfx/patterns"
	"labflux.com/lfx/pipeline"
	"labflux.com/lfx/s3client"
	"labflux.com/lfx/types"
	"labflux.com/lfx/worker"
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type Config struct {
	DialectsDir         string `envconfig:"LFX_DIALECTS_DIR" default:""`
	DiagnosticsS3Prefix string `envconfig:"LFX_DIAGNOSTICS_S3_PREFIX" default:""`
	RestAPIActive       bool   `envconfig:"LFX_REST_API_ACTIVE" default:"false"`
	RestAPIPort         string `envconfig:"LFX_REST_API_PORT" default:"10000"`
	WorkerActive        bool   `envconfig:"LFX_WORKER_ACTIVE" default:"true"`
}

const pipelineStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	lfxLogger := logger.NewLogger("Main")
	fatalErrLogger := lfxLogger.Fatal().Caller()
	supervise := flag.Bool("supervise", false, "run as a child process and report its panics")
	flag.Parse()

	if *supervise {
		logger.Supervise(os.Args[0], flag.Args()...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	var ppln pipeline.Pipeline
	for retry := 0; ; retry++ {
		var err error
		ppln, err = loadPipeline(config)
		if err == nil {
			break
		}
		if retry+1 == pipelineStartMaxRetries {
			fatalErrLogger.Err(err).Msgf("Could not start pipeline after %d retries, exiting", pipelineStartMaxRetries)
			os.Exit(1)
		}
		lfxLogger.Err(err).Msg("Failed to start extraction pipeline. Retrying in 5 sec")
		time.Sleep(5 * time.Second)
	}
	lfxLogger.Info().Msg("Pipeline loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.RestAPIActive {
		server := &http.Server{
			Addr:    fmt.Sprintf(":%s", config.RestAPIPort),
			Handler: api.NewHandler(ppln),
		}
		go func() {
			lfxLogger.Info().Msgf("REST API on %s", server.Addr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				fatalErrLogger.Err(err).Msg("REST API stopped with error")
				os.Exit(1)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if !config.WorkerActive {
		<-ctx.Done()
		lfxLogger.Info().Msg("Stopping")
		return
	}

	lfxLogger.Info().Msg("Start LFX Worker")
	for ctx.Err() == nil {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		if err = rmqWorker.StartWorker(ctx); err != nil {
			lfxLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
	lfxLogger.Info().Msg("Worker stopped")
}

func loadPipeline(config Config) (pipeline.Pipeline, error) {
	lfxLogger := logger.NewLogger("Main")
	lib := patterns.Default()
	if config.DialectsDir != "" {
		dialects, err := types.LoadDialects(config.DialectsDir)
		if err != nil {
			return nil, fmt.Errorf("load dialects: %w", err)
		}
		if lib, err = lib.Extend(dialects); err != nil {
			return nil, fmt.Errorf("extend rule library: %w", err)
		}
		lfxLogger.Info().Msgf("Loaded %d dialects", len(dialects))
	}

	var uploader diagnostics.Uploader
	if config.DiagnosticsS3Prefix != "" {
		client, err := s3client.New()
		if err != nil {
			return nil, fmt.Errorf("diagnostics s3 client: %w", err)
		}
		uploader = client
	}
	exporter, err := diagnostics.FromEnvironment(uploader)
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Params{Library: lib, Exporter: exporter}), nil
}
