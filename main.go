// Package main provides the entry point for the Voro Editor application.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"voro-editor/internal/app"
	"voro-editor/internal/library"
	"voro-editor/internal/metrics"
	"voro-editor/internal/version"
	"voro-editor/ui/canvas"
	"voro-editor/ui/mainwindow"
	"voro-editor/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const appID = "io.github.voro-editor"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.String())

	level := slog.LevelInfo
	if os.Getenv("VORO_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	appPrefs := prefs.Load()
	cfg := appPrefs.Editor()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := library.Open(ctx, cfg.Library)
	cancel()
	if err != nil {
		logger.Warn("snapshot library unavailable", "driver", string(cfg.Library.Driver), "err", err)
		store = nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	viewport := canvas.NewViewport(cfg.Bounds)
	opts := cfg.Options()
	opts.Binder = viewport
	opts.Metrics = m
	opts.Library = store
	opts.Logger = logger
	opts.Geometry = true
	appState := app.NewState(opts)
	defer appState.Close()

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.VoroTheme{})

	win := mainwindow.New(fyneApp, appState, viewport, appPrefs)

	// Handle command line arguments
	if len(os.Args) > 1 {
		projectPath := os.Args[1]
		if err := appState.LoadProject(projectPath); err != nil {
			log.Printf("Failed to load project %s: %v", projectPath, err)
		}
	} else {
		win.RestoreLastProject()
	}

	ticker := app.NewFrameTicker(cfg.FrameInterval)
	ticker.OnTick(func() { appState.Tick() })
	ticker.OnTick(func() {
		if err := appPrefs.SaveIfDirty(); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
	})
	ticker.Start()
	defer ticker.Stop()

	win.ShowAndRun()

	if err := appPrefs.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "err", err)
	}
}
