package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenCalibrate Screen = "calibrate"
)

// Session is everything the calibration screen needs for one device.
type Session struct {
	BaseURL    string
	Calibrator Calibrator
	Config     ConfigLoader
	States     <-chan monitor.State

	// Close stops the heartbeat and releases the session. May be nil.
	Close func()
}

// Connector opens a session for a device base URL.
type Connector func(baseURL string) *Session

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	Discovery DiscoveryModel
	Calibrate CalibrateModel

	connect Connector
	session *Session

	Width  int
	Height int
}

// NewAppModel creates the application. With a non-empty baseURL it opens the
// calibration screen directly; otherwise it starts with discovery.
func NewAppModel(connect Connector, scan ScanFunc, baseURL string) AppModel {
	m := AppModel{
		CurrentScreen: ScreenDiscovery,
		Discovery:     NewDiscoveryModel(scan, baseURL),
		connect:       connect,
	}
	if baseURL != "" {
		m.open(baseURL)
	}
	return m
}

func (m *AppModel) open(baseURL string) {
	m.closeSession()
	m.session = m.connect(baseURL)
	m.Calibrate = NewCalibrateModel(m.session)
	m.Calibrate.Width = m.Width
	m.CurrentScreen = ScreenCalibrate
}

func (m *AppModel) closeSession() {
	if m.session != nil && m.session.Close != nil {
		m.session.Close()
	}
	m.session = nil
}

// Init initializes the current screen
func (m AppModel) Init() tea.Cmd {
	if m.CurrentScreen == ScreenCalibrate {
		return m.Calibrate.Init()
	}
	return m.Discovery.Init()
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.Discovery, _ = m.Discovery.Update(msg)
		m.Calibrate.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "q" && !(m.CurrentScreen == ScreenDiscovery && m.Discovery.manual) {
			return m, tea.Quit
		}
		if msg.String() == "esc" && m.CurrentScreen == ScreenCalibrate {
			m.closeSession()
			m.CurrentScreen = ScreenDiscovery
			m.Discovery.scanning = true
			return m, m.Discovery.Init()
		}

	case deviceSelectedMsg:
		m.open(msg.baseURL)
		return m, m.Calibrate.Init()
	}

	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenCalibrate:
		m.Calibrate, cmd = m.Calibrate.Update(msg)
	default:
		m.Discovery, cmd = m.Discovery.Update(msg)
	}
	return m, cmd
}

// View renders the current screen
func (m AppModel) View() string {
	if m.CurrentScreen == ScreenCalibrate {
		return m.Calibrate.View()
	}
	return m.Discovery.View()
}

// Run runs the application until the user quits or ctx is cancelled, then
// closes the open session.
func Run(ctx context.Context, m AppModel) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if app, ok := final.(AppModel); ok {
		app.closeSession()
	} else {
		m.closeSession()
	}
	return err
}
