package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chalkydri/chalkydri-cfg/internal/calibration"
	"github.com/chalkydri/chalkydri-cfg/internal/deviceconfig"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
	"github.com/chalkydri/chalkydri-cfg/internal/transport"
)

// requestTimeout bounds every device call made from the screen.
const requestTimeout = 5 * time.Second

// Calibrator is the subset of *calibration.Controller the screen drives.
type Calibrator interface {
	Camera() string
	Status(ctx context.Context) (calibration.Status, error)
	Step(ctx context.Context) (calibration.Status, error)
	ComputeIntrinsics(ctx context.Context) error
}

// ConfigLoader is the subset of *deviceconfig.Store the screen reads.
type ConfigLoader interface {
	Load(ctx context.Context) (*deviceconfig.Config, error)
}

// Messages for async operations
type statusMsg struct {
	status calibration.Status
	err    error
}

type stepMsg struct {
	status calibration.Status
	err    error
}

type intrinsicsMsg struct {
	err error
}

type configMsg struct {
	config *deviceconfig.Config
	err    error
}

type connectivityMsg struct {
	state monitor.State
	ok    bool
}

// calibrateKeyMap defines key bindings for the calibration screen
type calibrateKeyMap struct {
	Step       key.Binding
	Refresh    key.Binding
	Intrinsics key.Binding
	Back       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k calibrateKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Refresh, k.Intrinsics, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k calibrateKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Step, k.Refresh, k.Intrinsics}, {k.Back, k.Quit}}
}

func newCalibrateKeyMap() calibrateKeyMap {
	return calibrateKeyMap{
		Step: key.NewBinding(
			key.WithKeys("s", " "),
			key.WithHelp("s/space", "capture step"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh status"),
		),
		Intrinsics: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "compute intrinsics"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "devices"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// CalibrateModel is the calibration screen. It shows the device's
// configuration summary, live connectivity and calibration progress, and
// captures steps on demand.
type CalibrateModel struct {
	BaseURL string

	calibrator Calibrator
	loader     ConfigLoader
	states     <-chan monitor.State

	config    *deviceconfig.Config
	conn      monitor.State
	status    calibration.Status
	known     bool
	stepping  bool
	message   string
	lastError error

	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     calibrateKeyMap

	Width int
}

// NewCalibrateModel creates the calibration screen for one device session.
func NewCalibrateModel(session *Session) CalibrateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return CalibrateModel{
		BaseURL:    session.BaseURL,
		calibrator: session.Calibrator,
		loader:     session.Config,
		states:     session.States,
		spinner:    s,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:       help.New(),
		keys:       newCalibrateKeyMap(),
	}
}

// Init loads the configuration and status and starts listening for heartbeats.
func (m CalibrateModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, statusCmd(m.calibrator)}
	if m.loader != nil {
		cmds = append(cmds, loadConfigCmd(m.loader))
	}
	if m.states != nil {
		cmds = append(cmds, waitForState(m.states))
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the calibration screen
func (m CalibrateModel) Update(msg tea.Msg) (CalibrateModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Step):
			// The controller rejects overlapping steps; ErrBusy is shown to the user.
			m.stepping = true
			m.message = "Capturing step..."
			return m, stepCmd(m.calibrator)
		case key.Matches(msg, m.keys.Refresh):
			return m, statusCmd(m.calibrator)
		case key.Matches(msg, m.keys.Intrinsics):
			m.message = "Computing intrinsics..."
			return m, intrinsicsCmd(m.calibrator)
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.applyStatus(msg.status)
		m.lastError = nil
		m.message = ""
		return m, nil

	case stepMsg:
		if errors.Is(msg.err, calibration.ErrBusy) {
			m.message = "A step is already being captured"
			return m, nil
		}
		m.stepping = false
		if msg.err != nil {
			m.lastError = msg.err
			m.message = ""
			if errors.Is(msg.err, calibration.ErrProgressUnknown) {
				m.known = false
			}
			return m, nil
		}
		m.applyStatus(msg.status)
		m.lastError = nil
		m.message = fmt.Sprintf("Captured step %d of %d", msg.status.CurrentStep, msg.status.TotalSteps)
		if msg.status.State == calibration.Completed {
			m.message = "Calibration complete. Press i to compute intrinsics."
		}
		return m, nil

	case intrinsicsMsg:
		if msg.err != nil {
			m.lastError = msg.err
			m.message = ""
			return m, nil
		}
		m.lastError = nil
		m.message = "Intrinsics computed"
		return m, nil

	case configMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.config = msg.config
		return m, nil

	case connectivityMsg:
		if !msg.ok {
			return m, nil
		}
		m.conn = msg.state
		return m, waitForState(m.states)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *CalibrateModel) applyStatus(status calibration.Status) {
	m.status = status
	m.known = true
}

// Status returns the last calibration status shown and whether it is known.
func (m CalibrateModel) Status() (calibration.Status, bool) {
	return m.status, m.known
}

// Connectivity returns the last heartbeat snapshot shown.
func (m CalibrateModel) Connectivity() monitor.State {
	return m.conn
}

// View renders the calibration screen
func (m CalibrateModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Camera Calibration"))
	b.WriteString("\n")
	b.WriteString(m.renderDevice())
	b.WriteString("\n\n")
	b.WriteString(m.renderCalibration())
	b.WriteString("\n\n")

	switch {
	case m.lastError != nil:
		b.WriteString(ErrorStyle.Render("✗ " + transport.ShortMessage(m.lastError)))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(m.lastError.Error()))
	case m.stepping:
		b.WriteString(m.spinner.View() + " " + m.message)
	case m.message != "":
		b.WriteString(SuccessStyle.Render(m.message))
	}

	return RenderApplicationContainer(b.String(), m.help.View(m.keys), m.Width)
}

func (m CalibrateModel) renderDevice() string {
	lines := []string{RenderField("Device", m.BaseURL)}

	if m.conn.Connected {
		lines = append(lines, RenderField("Link", SuccessStyle.Render("● CONNECTED")))
		if info := m.conn.Info; info != nil {
			lines = append(lines, RenderField("Telemetry",
				fmt.Sprintf("v%s  cpu %d%%  mem %d%%", info.Version, info.CPUUsage, info.MemUsage)))
		}
	} else {
		lines = append(lines, RenderField("Link", ErrorStyle.Render("● DISCONNECTED")))
	}

	if m.config != nil {
		lines = append(lines, RenderField("Config", m.config.Summary()))
	} else {
		lines = append(lines, RenderField("Config", SubtitleStyle.Render("loading...")))
	}

	if camera := m.calibrator.Camera(); camera != "" {
		lines = append(lines, RenderField("Camera", camera))
	}

	return BoxStyle.Render(strings.Join(lines, "\n"))
}

func (m CalibrateModel) renderCalibration() string {
	if !m.known {
		return WarningStyle.Render("Calibration progress unknown. Press r to query the device.")
	}

	st := m.status
	lines := []string{
		RenderField("State", st.State.String()),
		RenderField("Steps", fmt.Sprintf("%d / %d", st.CurrentStep, st.TotalSteps)),
	}
	if st.Width > 0 && st.Height > 0 {
		lines = append(lines, RenderField("Resolution", fmt.Sprintf("%dx%d", st.Width, st.Height)))
	}
	lines = append(lines, "", m.progress.ViewAs(st.Progress()))

	return strings.Join(lines, "\n")
}

func statusCmd(c Calibrator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := c.Status(ctx)
		return statusMsg{status: status, err: err}
	}
}

func stepCmd(c Calibrator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := c.Step(ctx)
		return stepMsg{status: status, err: err}
	}
}

func intrinsicsCmd(c Calibrator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return intrinsicsMsg{err: c.ComputeIntrinsics(ctx)}
	}
}

func loadConfigCmd(l ConfigLoader) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cfg, err := l.Load(ctx)
		return configMsg{config: cfg, err: err}
	}
}

// waitForState blocks until the monitor publishes a new snapshot.
func waitForState(states <-chan monitor.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-states
		return connectivityMsg{state: state, ok: ok}
	}
}
