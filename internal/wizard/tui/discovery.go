package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chalkydri/chalkydri-cfg/internal/discovery"
)

// ScanFunc finds devices on the network.
type ScanFunc func(ctx context.Context) ([]*discovery.Device, error)

// Messages for async operations
type scanCompleteMsg struct {
	devices []*discovery.Device
	err     error
}

// deviceSelectedMsg is emitted when the user picks a device or enters an address.
type deviceSelectedMsg struct {
	baseURL string
}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Enter, k.Rescan}, {k.Manual, k.Quit}}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device *discovery.Device
}

func (d deviceItem) FilterValue() string {
	return d.device.Name + " " + d.device.IP
}

func (d deviceItem) Title() string {
	return d.device.Name
}

func (d deviceItem) Description() string {
	desc := d.device.BaseURL()
	if v := d.device.GetMetadata("version"); v != "" {
		desc += " • v" + v
	}
	return desc
}

// DiscoveryModel lists devices found with mDNS and accepts a manual address.
type DiscoveryModel struct {
	scan     ScanFunc
	scanning bool
	manual   bool
	devices  []*discovery.Device
	err      error

	list    list.Model
	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    discoveryKeyMap

	// DefaultURL prefills manual entry (usually the active profile).
	DefaultURL string

	Width  int
	Height int
}

// NewDiscoveryModel creates the discovery screen.
func NewDiscoveryModel(scan ScanFunc, defaultURL string) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ti := textinput.New()
	ti.Placeholder = "http://10.45.33.10:6942"
	ti.CharLimit = 128
	ti.Width = 40

	l := list.New(nil, list.NewDefaultDelegate(), MinTerminalWidth-8, 12)
	l.Title = "Chalkydri devices"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return DiscoveryModel{
		scan:       scan,
		scanning:   true,
		list:       l,
		input:      ti,
		spinner:    s,
		help:       help.New(),
		DefaultURL: defaultURL,
		keys: discoveryKeyMap{
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "select"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Manual: key.NewBinding(
				key.WithKeys("m"),
				key.WithHelp("m", "enter address"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "cancel"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init starts a scan
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scanCmd(m.scan))
}

// Update handles messages for the discovery screen
func (m DiscoveryModel) Update(msg tea.Msg) (DiscoveryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-8, 12)
		return m, nil

	case scanCompleteMsg:
		m.scanning = false
		m.err = msg.err
		m.devices = msg.devices
		items := make([]list.Item, 0, len(msg.devices))
		for _, d := range msg.devices {
			items = append(items, deviceItem{device: d})
		}
		return m, m.list.SetItems(items)

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.manual {
			return m.updateManual(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Manual):
			m.manual = true
			m.err = nil
			m.input.SetValue(m.DefaultURL)
			m.input.CursorEnd()
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.Rescan):
			if m.scanning {
				return m, nil
			}
			m.scanning = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, scanCmd(m.scan))
		case key.Matches(msg, m.keys.Enter):
			if item, ok := m.list.SelectedItem().(deviceItem); ok {
				return m, selectCmd(item.device.BaseURL())
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManual(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.manual = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		baseURL, err := NormalizeBaseURL(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.manual = false
		m.input.Blur()
		return m, selectCmd(baseURL)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// NormalizeBaseURL accepts "host", "host:port" or a full URL and returns a
// base URL with scheme and port.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("address must not be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("invalid device address %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid device address %q: scheme must be http or https", raw)
	}
	if u.Port() == "" {
		u.Host = fmt.Sprintf("%s:%d", u.Host, discovery.DefaultPort)
	}
	return u.Scheme + "://" + u.Host, nil
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Find a device"))
	b.WriteString("\n")

	switch {
	case m.manual:
		b.WriteString("Device address:\n\n")
		b.WriteString(m.input.View())
	case m.scanning:
		b.WriteString(m.spinner.View() + " Scanning for Chalkydri devices (mDNS)...")
	case len(m.devices) == 0:
		b.WriteString(WarningStyle.Render("No devices found."))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("Press m to enter an address or r to scan again."))
	default:
		b.WriteString(m.list.View())
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(ErrorStyle.Render("✗ " + m.err.Error()))
	}

	return RenderApplicationContainer(b.String(), m.help.View(m.keys), m.Width)
}

func scanCmd(scan ScanFunc) tea.Cmd {
	return func() tea.Msg {
		devices, err := scan(context.Background())
		return scanCompleteMsg{devices: devices, err: err}
	}
}

func selectCmd(baseURL string) tea.Cmd {
	return func() tea.Msg {
		return deviceSelectedMsg{baseURL: baseURL}
	}
}
