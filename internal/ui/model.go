package ui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
	"github.com/hydromonitoring/wain-terminal/internal/session"
	"github.com/hydromonitoring/wain-terminal/internal/stations"
)

// AppState represents the current state of the application
type AppState int

const (
	StateLoading      AppState = iota // Reading the cached dataset
	StateProvisioning                 // Initial data provisioning (downloading/building DB)
	StateBrowse                       // Station list, filters and details panel
	StateError                        // Error state
)

// ExportRecorder is told about every export written from the UI
type ExportRecorder interface {
	Exported(category, path string)
}

// Options wires the model to its data and overlay sources
type Options struct {
	DBPath        string
	DatasetURL    string
	ExportDir     string
	ReportBaseURL string
	FetchTimeout  time.Duration
	Fetcher       overlay.Fetcher
	Sink          overlay.Sink
	Exports       ExportRecorder
	Logger        *slog.Logger
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error
	opts   Options

	session     *session.Session
	searchInput textinput.Model
	stationList list.Model
	view        mapView
	status      string

	// Provisioning
	spinner           spinner.Model
	provisionStatus   string
	provisionChannels *provisioningStartedMsg
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search station name..."
	ti.CharLimit = 100
	ti.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		state:       StateLoading,
		opts:        opts,
		searchInput: ti,
		view:        defaultMapView(),
		spinner:     s,
	}
}

// Init checks the dataset cache and either loads it or provisions it first
func (m Model) Init() tea.Cmd {
	needs, err := stations.NeedsProvisioning(m.opts.DBPath)
	if err != nil {
		return func() tea.Msg { return errMsg{err: fmt.Errorf("checking dataset cache: %w", err)} }
	}
	if needs {
		return tea.Batch(m.spinner.Tick, initiateProvisioning(m.opts.DBPath, m.opts.DatasetURL))
	}
	return tea.Batch(m.spinner.Tick, loadStations(m.opts.DBPath))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		if m.session != nil {
			m.stationList.SetSize(m.listWidth(), m.listHeight())
		}
		return m, nil
	}

	// Handle custom messages
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	// Provisioning messages
	case provisioningStartedMsg:
		m.state = StateProvisioning
		m.provisionStatus = "Starting data provisioning..."
		m.provisionChannels = &msg
		return m, tea.Batch(
			waitForProvisionStatus(msg.progressChan),
			waitForProvisionResult(msg.resultChan),
		)

	case provisionStatusMsg:
		m.provisionStatus = string(msg)
		if m.provisionChannels != nil {
			return m, waitForProvisionStatus(m.provisionChannels.progressChan)
		}
		return m, nil

	case provisionResultMsg:
		m.provisionChannels = nil
		if msg.err != nil {
			m.err = fmt.Errorf("provisioning failed: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.state = StateLoading
		return m, loadStations(m.opts.DBPath)

	case stationsLoadedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("loading stations: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.session = session.New(msg.stations, m.opts.Sink, m.opts.Logger)
		m.stationList = createStationList(m.session.Visible(), m.listWidth(), m.listHeight())
		m.state = StateBrowse
		if req, ok := m.session.Init(); ok {
			return m, m.fetch(req)
		}
		return m, nil

	case overlayFetchedMsg:
		if m.session == nil {
			return m, nil
		}
		if sig, ok := m.session.Apply(msg.result); ok {
			m.view = m.view.apply(sig)
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("✗ Export failed: " + msg.err.Error())
			return m, nil
		}
		m.status = successStyle.Render("✓ Saved " + msg.path)
		if m.opts.Exports != nil {
			m.opts.Exports.Exported(msg.category, msg.path)
		}
		return m, nil
	}

	// Handle keyboard input
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case StateBrowse:
			return m.handleBrowseKeys(keyMsg)

		case StateError:
			if keyMsg.String() == "q" {
				return m, tea.Quit
			}
			m.err = nil
			if m.session != nil {
				m.state = StateBrowse
				return m, nil
			}
			// Nothing loaded yet; try again
			m.state = StateLoading
			return m, m.Init()

		default:
			if keyMsg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	// Update appropriate component based on state
	switch m.state {
	case StateProvisioning, StateLoading:
		m.spinner, cmd = m.spinner.Update(msg)
	case StateBrowse:
		m.stationList, cmd = m.stationList.Update(msg)
	}

	return m, cmd
}

// handleBrowseKeys handles keyboard input while browsing stations
func (m Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Typing goes to the search box while it has focus
	if m.searchInput.Focused() {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.searchInput.Blur()
			return m, nil
		}
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.session.SetQuery(m.searchInput.Value())
		refresh := m.refreshList()
		return m, tea.Batch(cmd, refresh)
	}

	_, selected := m.session.Selected()

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "/":
		m.searchInput.Focus()
		return m, textinput.Blink

	case "b":
		return m.cycleBasin(1)

	case "B":
		return m.cycleBasin(-1)

	case "h":
		m.session.SetHydrologyOnly(!m.session.Criteria().HydrologyOnly)
		refresh := m.refreshList()
		return m, refresh

	case "enter":
		item, ok := m.stationList.SelectedItem().(stationItem)
		if !ok {
			return m, nil
		}
		m.status = ""
		if req, ok := m.session.Select(item.station); ok {
			return m, m.fetch(req)
		}
		return m, nil

	case "tab":
		if selected {
			m.session.NextTab()
		}
		return m, nil

	case "shift+tab":
		if selected {
			m.session.PrevTab()
		}
		return m, nil

	case "e":
		if !selected {
			return m, nil
		}
		st, _ := m.session.Selected()
		m.status = mutedStyle.Render(m.session.ExportLabel() + "...")
		return m, writeExport(m.opts.ExportDir, st, m.session.ActiveCategory(), m.session.Footprint())

	case "esc":
		if !selected {
			return m, nil
		}
		m.view = m.view.apply(m.session.Close())
		m.searchInput.SetValue("")
		m.status = ""
		refresh := m.refreshList()
		return m, refresh
	}

	m.stationList, cmd = m.stationList.Update(msg)
	return m, cmd
}

// cycleBasin moves the basin filter by step through the basin choices
func (m Model) cycleBasin(step int) (tea.Model, tea.Cmd) {
	basins := m.session.Basins()
	current := 0
	for i, b := range basins {
		if b == m.session.Criteria().Basin {
			current = i
			break
		}
	}
	next := basins[(current+step+len(basins))%len(basins)]

	req, ok := m.session.SetBasin(next)
	refresh := m.refreshList()
	if !ok {
		return m, refresh
	}
	return m, tea.Batch(refresh, m.fetch(req))
}

func (m *Model) refreshList() tea.Cmd {
	cmd := m.stationList.SetItems(stationItems(m.session.Visible()))
	m.stationList.ResetSelected()
	return cmd
}

func (m Model) fetch(req overlay.Request) tea.Cmd {
	if m.opts.Fetcher == nil {
		return nil
	}
	return fetchOverlay(m.opts.Fetcher, req, m.opts.FetchTimeout)
}

func (m Model) listWidth() int {
	return max(30, m.width/2-2)
}

func (m Model) listHeight() int {
	return max(5, m.height-12)
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateProvisioning:
		return m.viewProvisioning()
	case StateLoading:
		return m.viewLoading()
	case StateBrowse:
		return m.viewBrowse()
	case StateError:
		return m.viewError()
	}

	return ""
}

// viewProvisioning renders the initial setup screen
func (m Model) viewProvisioning() string {
	title := titleStyle.Render("≋ WAIN Terminal Setup")

	sp := m.spinner.View()
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(m.provisionStatus)

	info := helpStyle.Render("One-time setup: downloading the station dataset...")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		fmt.Sprintf("%s %s", sp, status),
		"",
		info,
	)
}

// viewLoading renders the loading view
func (m Model) viewLoading() string {
	return fmt.Sprintf("%s Loading stations...", m.spinner.View())
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	var errorMsg string
	if m.err != nil {
		errorMsg = m.err.Error()
	} else {
		errorMsg = "An unknown error occurred"
	}

	help := helpStyle.Render("Press any key to continue • Q: Quit")

	var sections []string
	sections = append(sections, title)
	sections = append(sections, "")
	sections = append(sections, errorMsg)
	sections = append(sections, "")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewBrowse renders the station list, filters, details panel and map status
func (m Model) viewBrowse() string {
	title := titleStyle.Render("≋ WAIN Station Browser")
	subtitle := mutedStyle.Render("Dam and watershed monitoring across India")

	c := m.session.Criteria()
	hydrology := "off"
	if c.HydrologyOnly {
		hydrology = "on"
	}
	visible := len(m.session.Visible())
	filters := fmt.Sprintf("%s  %s %s  %s %s  %s",
		m.searchInput.View(),
		labelStyle.Render("Basin:"), filterStyle.Render(c.Basin),
		labelStyle.Render("Hydrology only:"), filterStyle.Render(hydrology),
		mutedStyle.Render(fmt.Sprintf("%d of %d stations, %d on map",
			visible, len(m.session.Stations()), len(m.session.Markers()))),
	)

	detailsWidth := max(30, m.width-m.listWidth()-6)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.stationList.View(),
		"  ",
		m.renderDetails(detailsWidth),
	)

	mapLine := labelStyle.Render("Map: ") + m.view.String() + "  " + renderOverlays(m.session.Overlays())

	var sections []string
	sections = append(sections, title, subtitle, "", filters, "", body, mapLine)
	if m.status != "" {
		sections = append(sections, m.status)
	}
	sections = append(sections, helpStyle.Render(m.helpText()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) helpText() string {
	if m.searchInput.Focused() {
		return "Type to filter by name • Enter/Esc: Done • Ctrl+C: Quit"
	}
	if _, ok := m.session.Selected(); ok {
		return "↑/↓: Navigate • Enter: Select • Tab/Shift+Tab: Category • E: Export • Esc: Close • Q: Quit"
	}
	return "↑/↓: Navigate • Enter: Select • /: Search • B: Basin • H: Hydrology only • Q: Quit"
}
