package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/rehabtrack/internal/controllers/restserver"
	"github.com/chrissnell/rehabtrack/internal/log"
	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/chrissnell/rehabtrack/internal/storage"
	"github.com/chrissnell/rehabtrack/pkg/config"
	"go.uber.org/zap"
)

const healthCheckInterval = 30 * time.Second

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// SegmentationParams converts the segmentation config section into segmenter
// parameters. Unset fields keep the segmenter defaults.
func SegmentationParams(seg config.SegmentationData) motion.Params {
	params := motion.DefaultParams()
	if seg.FPS > 0 {
		params.FPS = seg.FPS
	}
	if seg.SmoothingRadius != nil {
		params.SmoothingRadius = *seg.SmoothingRadius
	}
	if seg.MinSamplesPerPhase > 0 {
		params.MinSamplesPerPhase = seg.MinSamplesPerPhase
	}
	if seg.Detector != "" {
		params.Detector = motion.DetectorType(seg.Detector)
	}
	return params
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	store, err := storage.Open(&cfg.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("error opening session store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("error closing session store: %v", err)
		}
	}()

	health := storage.NewHealthManager(store, healthCheckInterval, a.logger)
	health.Start(ctx, &wg)

	params := SegmentationParams(cfg.Segmentation)
	if _, err := motion.NewDetector(params.Detector, 1); err != nil {
		return fmt.Errorf("invalid segmentation config: %w", err)
	}
	segmenter := motion.NewSegmenter(params, a.logger)
	a.logger.Infof("segmenter: detector=%s fps=%.1f smoothing=%.1f min-samples-per-phase=%d",
		params.Detector, params.FPS, params.SmoothingRadius, params.MinSamplesPerPhase)

	rest, err := restserver.NewController(ctx, &wg, cfg, store, segmenter, health, a.logger)
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	log.Infof("Application started successfully (%s storage)", store.Backend())

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
