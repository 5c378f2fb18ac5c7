package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hydromonitoring/wain-terminal/internal/catalog"
	"github.com/hydromonitoring/wain-terminal/internal/config"
	"github.com/hydromonitoring/wain-terminal/internal/diagnostics"
	"github.com/hydromonitoring/wain-terminal/internal/logging"
	"github.com/hydromonitoring/wain-terminal/internal/models"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/hydromonitoring/wain-terminal/internal/session"
	"github.com/hydromonitoring/wain-terminal/internal/stations"
)

// exportJob is one station category to export
type exportJob struct {
	stationID   string
	category    string
	noFootprint bool
}

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: ./config.yaml when present)")
	stationID := flag.String("station", "", "Station ID to export (required)")
	category := flag.String("category", catalog.LabelOverview, "Category label to export")
	outDir := flag.String("out", "", "Output directory (overrides export.dir)")
	noFootprint := flag.Bool("no-footprint", false, "Skip downloading the station footprint for the Overview export")
	flag.Parse()

	if *stationID == "" {
		fmt.Println("Error: --station is required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}

	logger := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	sink := diagnostics.NewSink(logger)

	job := exportJob{stationID: *stationID, category: *category, noFootprint: *noFootprint}
	if err := run(context.Background(), cfg, job, sink, os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run provisions the cache when needed and writes one export, reporting
// the written path and report link to out.
func run(ctx context.Context, cfg *config.Config, job exportJob, sink *diagnostics.Sink, out io.Writer) error {
	if err := stations.Provision(ctx, cfg.Data.DBPath, cfg.Data.DatasetURL, nil); err != nil {
		return fmt.Errorf("provisioning stations: %w", err)
	}

	st, err := stations.GetStationByID(cfg.Data.DBPath, job.stationID)
	if err != nil {
		return err
	}

	s := session.New([]models.Station{st}, sink, sink.Logger())
	req, ok := s.Select(st)

	tab := -1
	for i, c := range s.Tabs() {
		if strings.EqualFold(c.Label, job.category) {
			tab = i
			break
		}
	}
	if tab < 0 {
		return fmt.Errorf("station %s has no %q category", job.stationID, job.category)
	}
	s.SetTab(tab)

	if ok && s.ActiveCategory().IsOverview() && !job.noFootprint {
		fetcher := overlay.NewRouter(overlay.Endpoints{
			Country: cfg.Overlay.CountryURL,
			Basin:   cfg.Overlay.BasinURL,
			Station: cfg.Overlay.StationURL,
		}, cfg.Overlay.UserAgent, cfg.Overlay.BasinShapefile, cfg.Overlay.BasinNameField)

		res := overlay.Execute(ctx, fetcher, req, cfg.Overlay.FetchTimeout)
		s.Apply(res)
		if res.Err != nil {
			fmt.Fprintf(out, "Warning: footprint unavailable, exporting without it: %v\n", res.Err)
		}
	}

	path, err := s.Export(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	sink.Exported(s.ActiveCategory().Label, path)

	fmt.Fprintf(out, "%s: %s\n", s.ExportLabel(), path)
	if url, ok := s.ReportURL(cfg.Export.ReportBaseURL); ok {
		fmt.Fprintf(out, "Report: %s\n", url)
	}
	return nil
}
