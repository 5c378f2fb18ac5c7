package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hydromonitoring/wain-terminal/internal/catalog"
	"github.com/hydromonitoring/wain-terminal/internal/export"
	"github.com/hydromonitoring/wain-terminal/internal/models"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/hydromonitoring/wain-terminal/internal/stations"
)

// errMsg is a message type for errors
type errMsg struct {
	err error
}

// provisioningStartedMsg carries the channels of a running provisioning job
type provisioningStartedMsg struct {
	progressChan <-chan string
	resultChan   <-chan error
}

// provisionStatusMsg is one progress line from provisioning
type provisionStatusMsg string

// provisionResultMsg is sent when provisioning finishes
type provisionResultMsg struct {
	err error
}

// stationsLoadedMsg is sent when the cached dataset has been read
type stationsLoadedMsg struct {
	stations []models.Station
	err      error
}

// overlayFetchedMsg is sent when an overlay fetch completes, successfully or not
type overlayFetchedMsg struct {
	result overlay.Result
}

// exportedMsg is sent when a category export has been written
type exportedMsg struct {
	category string
	path     string
	err      error
}

// initiateProvisioning starts loading the dataset into the local database
func initiateProvisioning(dbPath, source string) tea.Cmd {
	return func() tea.Msg {
		progressChan := make(chan string, 8)
		resultChan := make(chan error, 1)

		go func() {
			err := stations.Provision(context.Background(), dbPath, source, progressChan)
			close(progressChan)
			resultChan <- err
		}()

		return provisioningStartedMsg{progressChan: progressChan, resultChan: resultChan}
	}
}

// waitForProvisionStatus relays the next progress line
func waitForProvisionStatus(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			return nil
		}
		return provisionStatusMsg(status)
	}
}

// waitForProvisionResult waits for provisioning to finish
func waitForProvisionResult(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return provisionResultMsg{err: <-ch}
	}
}

// loadStations reads every cached station
func loadStations(dbPath string) tea.Cmd {
	return func() tea.Msg {
		list, err := stations.LoadAll(dbPath)
		return stationsLoadedMsg{stations: list, err: err}
	}
}

// fetchOverlay runs one overlay fetch in the background. The result is
// applied by Update, which drops it if a newer request superseded it.
func fetchOverlay(f overlay.Fetcher, req overlay.Request, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		return overlayFetchedMsg{result: overlay.Execute(context.Background(), f, req, timeout)}
	}
}

// writeExport stores a category export. Stations and footprints are
// immutable, so the copies handed over here are safe to use off the loop.
func writeExport(dir string, st models.Station, cat catalog.Category, footprint models.GeoJSON) tea.Cmd {
	return func() tea.Msg {
		path, err := export.WriteFile(dir, st, cat, footprint)
		return exportedMsg{category: cat.Label, path: path, err: err}
	}
}
