package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"media-compressor/internal/compressor"
	"media-compressor/internal/discovery"
	"media-compressor/internal/filesystem"
	"media-compressor/internal/handlers"
	"media-compressor/internal/history"
	"media-compressor/internal/ledger"
	"media-compressor/internal/logging"
	"media-compressor/internal/memory"
	"media-compressor/internal/metrics"
	"media-compressor/internal/middleware"
	"media-compressor/internal/startup"
	"media-compressor/internal/transcoder"

	"github.com/gorilla/mux"
)

const (
	metricsInterval = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	startTime := time.Now()
	defer logging.Sync()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":  config.MediaDir,
		"ledger": filepath.Dir(config.LedgerPath),
	}))

	ledgerStart := time.Now()
	compressed, err := ledger.Open(config.LedgerPath)
	if err != nil {
		startup.LogFatal("Failed to open ledger: %v", err)
	}
	startup.LogLedgerInit(compressed.Path(), compressed.Len(), time.Since(ledgerStart))

	var store *history.Store
	if config.HistoryPath != "" {
		historyStart := time.Now()
		store, err = history.New(context.Background(), config.HistoryPath)
		if err != nil {
			// history is auxiliary; compression works without it
			logging.Warn("  Run history disabled: %v", err)
			store = nil
		} else {
			startup.LogHistoryInit(store.Path(), time.Since(historyStart))
		}
	} else {
		startup.LogHistoryInit("", 0)
	}

	tools := startup.LogTranscoderInit(config.FFmpegPath, config.FFprobePath, config.DiscoveryMode)
	// a missing ffprobe would fail every probe, so run without one
	var prober transcoder.Prober
	if tools.FFprobe {
		prober = transcoder.NewFFprobe(config.FFprobePath)
	}
	ffmpeg := transcoder.NewFFmpeg(config.FFmpegPath, prober)

	walker := discovery.NewWalker(nil)
	walker.RemoveArtifacts = true
	if config.DiscoveryMode == startup.DiscoveryProbe {
		walker.Prober = prober
	}

	orch := compressor.New(compressor.Config{
		MediaRoot:   config.MediaDir,
		StopTimeout: config.StopTimeout,
		Retry:       filesystem.DefaultRetryConfig(),
	}, compressor.Deps{
		Ledger:     compressed,
		Walker:     walker,
		Transcoder: ffmpeg,
		Prober:     prober,
		History:    store,
	})

	collector := metrics.NewCollector(orch, metricsInterval)
	collector.Start()

	h := handlers.New(orch, store, config.LedgerPath)
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.Logger(loggingConfig)(router),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go handleShutdown(done, srv, metricsSrv, orch, ffmpeg, collector, store)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/browse", h.Browse).Methods("POST")
	api.HandleFunc("/compress", h.Compress).Methods("POST")
	api.HandleFunc("/progress", h.GetProgress).Methods("GET")
	api.HandleFunc("/queue", h.GetQueue).Methods("GET")
	api.HandleFunc("/state", h.GetState).Methods("GET")
	api.HandleFunc("/history", h.ListHistory).Methods("GET")
	api.HandleFunc("/history/{id:[0-9]+}", h.GetHistoryRun).Methods("GET")

	// Routes used by older web UI builds
	api.HandleFunc("/ffmpeg/start", h.LegacyStart).Methods("POST")
	api.HandleFunc("/ffmpeg/stop", h.LegacyStop).Methods("POST")

	if config.StaticEnabled {
		r.PathPrefix("/").Handler(handlers.StaticHandler(config.StaticDir))
	}

	return r
}

func handleShutdown(done chan<- struct{}, srv, metricsSrv *http.Server, orch *compressor.Orchestrator,
	ffmpeg *transcoder.FFmpeg, collector *metrics.Collector, store *history.Store) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping compression run")
	if err := orch.Shutdown(ctx); err != nil {
		logging.Warn("Compression shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Compression run stopped")
	}

	startup.LogShutdownStep("Cleaning up transcoder")
	ffmpeg.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	collector.Stop()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if err := store.Close(); err != nil {
		logging.Warn("Failed to close run history: %v", err)
	} else {
		startup.LogShutdownStepComplete("Run history closed")
	}

	startup.LogShutdownComplete()
}
