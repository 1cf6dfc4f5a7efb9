package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"alarmserver/internal/config"
	"alarmserver/internal/logger"
	"alarmserver/internal/repository/sqlite"
	"alarmserver/internal/route"
	"alarmserver/internal/service/ai"
	"alarmserver/internal/service/detection"
	"alarmserver/internal/service/storage"
	"alarmserver/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	detectors  *ai.DetectorPool
	retention  *storage.RetentionService
	hubService *websocket.HubService
	server     *http.Server
}

// NewApp loads the models, opens the capture index and wires the HTTP server.
func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	detectors, err := ai.NewDetectorPool(cfg, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load detectors: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		detectors.Close()
		log.Close()
		return nil, fmt.Errorf("failed to open capture index: %w", err)
	}
	captureRepo := sqlite.NewCaptureRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	retention := storage.NewRetentionService(cfg, log, captureRepo, detectionRepo)
	hub := websocket.NewHubService(log)
	pipeline := detection.NewPipeline(detectors, detectors, retention, hub, cfg.DetectionTimeout, log)

	router := route.SetupRoutes(route.Dependencies{
		Processor:     pipeline,
		Workers:       detectors,
		Captures:      retention,
		CaptureRepo:   captureRepo,
		DetectionRepo: detectionRepo,
		Events:        hub,
		Logger:        log,
	})

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		detectors:  detectors,
		retention:  retention,
		hubService: hub,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve serves HTTP until ctx is cancelled or the listener fails.
func (a *App) Serve(ctx context.Context) error {
	go a.hubService.Run()

	a.logger.Info("Presence detection server listening on http://%s", a.server.Addr)
	a.logger.Info("Captures: %s, index: %s", a.config.CaptureDirectory, a.config.DatabasePath)
	a.logger.Info("Models: %s, %s", a.config.CascadePath, a.config.ModelPath)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.Close()
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := a.server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		a.logger.Error("Graceful shutdown failed: %v", shutdownErr)
	}
	a.Close()
	return shutdownErr
}

// Close releases the hub, the detectors, the index and the log files.
func (a *App) Close() {
	a.hubService.Stop()
	a.detectors.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing capture index: %v", err)
	}
	a.logger.Close()
}
