package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hydromonitoring/wain-terminal/internal/config"
	"github.com/hydromonitoring/wain-terminal/internal/diagnostics"
	"github.com/hydromonitoring/wain-terminal/internal/logging"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/hydromonitoring/wain-terminal/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: ./config.yaml when present)")
	dataset := flag.String("dataset", "", "Station CSV to provision from, URL or local path (overrides data.dataset_url)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *dataset != "" {
		cfg.Data.DatasetURL = *dataset
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := logging.Setup(logFile, cfg.Log.Level, cfg.Log.Format)

	sink := diagnostics.NewSink(logger)
	sink.Logger().Info("starting wain-terminal", "db", cfg.Data.DBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := diagnostics.Serve(ctx, cfg.Metrics.Addr, sink.Logger()); err != nil {
				sink.Logger().Error("metrics server stopped", "error", err)
			}
		}()
	}

	fetcher := overlay.NewRouter(overlay.Endpoints{
		Country: cfg.Overlay.CountryURL,
		Basin:   cfg.Overlay.BasinURL,
		Station: cfg.Overlay.StationURL,
	}, cfg.Overlay.UserAgent, cfg.Overlay.BasinShapefile, cfg.Overlay.BasinNameField)

	model := ui.NewModel(ui.Options{
		DBPath:        cfg.Data.DBPath,
		DatasetURL:    cfg.Data.DatasetURL,
		ExportDir:     cfg.Export.Dir,
		ReportBaseURL: cfg.Export.ReportBaseURL,
		FetchTimeout:  cfg.Overlay.FetchTimeout,
		Fetcher:       fetcher,
		Sink:          sink,
		Exports:       sink,
		Logger:        sink.Logger(),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
