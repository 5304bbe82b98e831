package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chalkydri/chalkydri-cfg/internal/calibration"
	"github.com/chalkydri/chalkydri-cfg/internal/deviceconfig"
	"github.com/chalkydri/chalkydri-cfg/internal/discovery"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
)

// fakeCalibrator advances one step per call up to total.
type fakeCalibrator struct {
	mu      sync.Mutex
	current uint
	total   uint
	stepErr error
	steps   int
}

func (f *fakeCalibrator) Camera() string { return "front" }

func (f *fakeCalibrator) status() calibration.Status {
	return calibration.Status{
		State:       calibration.DeriveState(f.current, f.total),
		CurrentStep: f.current,
		TotalSteps:  f.total,
		Width:       640,
		Height:      480,
	}
}

func (f *fakeCalibrator) Status(ctx context.Context) (calibration.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status(), nil
}

func (f *fakeCalibrator) Step(ctx context.Context) (calibration.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps++
	if f.stepErr != nil {
		return calibration.Status{}, f.stepErr
	}
	f.current++
	return f.status(), nil
}

func (f *fakeCalibrator) ComputeIntrinsics(ctx context.Context) error { return nil }

type fakeLoader struct{}

func (fakeLoader) Load(ctx context.Context) (*deviceconfig.Config, error) {
	team := uint(4201)
	name := "chalkydri"
	return &deviceconfig.Config{
		TeamNumber: &team,
		DeviceName: &name,
		Cameras:    []deviceconfig.CameraConfig{{Name: "front"}},
	}, nil
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newSession(cal *fakeCalibrator) (*Session, chan monitor.State) {
	states := make(chan monitor.State, 1)
	return &Session{
		BaseURL:    "http://10.45.33.10:6942",
		Calibrator: cal,
		Config:     fakeLoader{},
		States:     states,
	}, states
}

func TestCalibrateModel_Step(t *testing.T) {
	cal := &fakeCalibrator{total: 2}
	session, _ := newSession(cal)
	m := NewCalibrateModel(session)

	m, _ = m.Update(statusMsg{status: cal.status()})
	if st, known := m.Status(); !known || st.State != calibration.Idle {
		t.Fatalf("Status() = %v, %v; want idle and known", st, known)
	}

	for i := uint(1); i <= 2; i++ {
		var cmd tea.Cmd
		m, cmd = m.Update(keyMsg("s"))
		if cmd == nil {
			t.Fatal("step key should return a command")
		}
		if !m.stepping {
			t.Error("model should be stepping while the command runs")
		}
		m, _ = m.Update(cmd())

		st, _ := m.Status()
		if st.CurrentStep != i {
			t.Errorf("CurrentStep = %d, want %d", st.CurrentStep, i)
		}
	}

	st, _ := m.Status()
	if st.State != calibration.Completed {
		t.Errorf("State = %v, want completed", st.State)
	}
	if !strings.Contains(m.View(), "Calibration complete") {
		t.Error("View() should announce completion")
	}
}

func TestCalibrateModel_StepErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKnown bool
		stepping  bool
		wantError bool
	}{
		{"busy", calibration.ErrBusy, true, true, false},
		{"progress unknown", fmt.Errorf("%w: %w", calibration.ErrInvalidState, calibration.ErrProgressUnknown), false, false, true},
		{"transport", errors.New("connection refused"), true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := &fakeCalibrator{total: 5}
			session, _ := newSession(cal)
			m := NewCalibrateModel(session)
			m, _ = m.Update(statusMsg{status: cal.status()})

			m, _ = m.Update(keyMsg("s"))
			m, _ = m.Update(stepMsg{err: tt.err})

			if _, known := m.Status(); known != tt.wantKnown {
				t.Errorf("known = %v, want %v", known, tt.wantKnown)
			}
			if m.stepping != tt.stepping {
				t.Errorf("stepping = %v, want %v", m.stepping, tt.stepping)
			}
			if (m.lastError != nil) != tt.wantError {
				t.Errorf("lastError = %v, wantError %v", m.lastError, tt.wantError)
			}
		})
	}
}

func TestCalibrateModel_Connectivity(t *testing.T) {
	cal := &fakeCalibrator{total: 5}
	session, states := newSession(cal)
	m := NewCalibrateModel(session)

	if !strings.Contains(m.View(), "DISCONNECTED") {
		t.Error("initial view should show disconnected")
	}

	states <- monitor.State{Connected: true, Info: &monitor.Info{Version: "0.3.0", CPUUsage: 12, MemUsage: 40}}
	msg := waitForState(states)()

	var cmd tea.Cmd
	m, cmd = m.Update(msg)
	if cmd == nil {
		t.Error("connectivity update should wait for the next snapshot")
	}
	if !m.Connectivity().Connected {
		t.Error("Connectivity() should be connected")
	}
	view := m.View()
	if !strings.Contains(view, "CONNECTED") || !strings.Contains(view, "v0.3.0") {
		t.Error("view should show telemetry while connected")
	}

	close(states)
	m, cmd = m.Update(waitForState(states)())
	if cmd != nil {
		t.Error("closed subscription should stop waiting")
	}
}

func TestCalibrateModel_Config(t *testing.T) {
	cal := &fakeCalibrator{total: 5}
	session, _ := newSession(cal)
	m := NewCalibrateModel(session)

	m, _ = m.Update(loadConfigCmd(fakeLoader{})())
	if !strings.Contains(m.View(), "team 4201") {
		t.Error("view should include the configuration summary")
	}
}

func TestDiscoveryModel_SelectDevice(t *testing.T) {
	devices := []*discovery.Device{
		{Name: "chalkydri", IP: "10.45.33.10", Port: 6942},
	}
	scan := func(ctx context.Context) ([]*discovery.Device, error) { return devices, nil }

	m := NewDiscoveryModel(scan, "")
	m, _ = m.Update(scanCmd(scan)())
	if m.scanning {
		t.Error("scan should be complete")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should select the device")
	}
	msg, ok := cmd().(deviceSelectedMsg)
	if !ok || msg.baseURL != "http://10.45.33.10:6942" {
		t.Errorf("selected = %+v", msg)
	}
}

func TestDiscoveryModel_ManualEntry(t *testing.T) {
	m := NewDiscoveryModel(func(ctx context.Context) ([]*discovery.Device, error) { return nil, nil }, "10.45.33.10")
	m, _ = m.Update(scanCompleteMsg{})

	m, _ = m.Update(keyMsg("m"))
	if !m.manual {
		t.Fatal("m should open manual entry")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should submit the address")
	}
	msg, ok := cmd().(deviceSelectedMsg)
	if !ok || msg.baseURL != "http://10.45.33.10:6942" {
		t.Errorf("selected = %+v", msg)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10.45.33.10", "http://10.45.33.10:6942", false},
		{"chalkydri.local:8080", "http://chalkydri.local:8080", false},
		{"https://chalkydri.local", "https://chalkydri.local:6942", false},
		{" http://10.45.33.10:6942 ", "http://10.45.33.10:6942", false},
		{"", "", true},
		{"ftp://chalkydri.local", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeBaseURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAppModel_Flow(t *testing.T) {
	var opened, closed []string
	connect := func(baseURL string) *Session {
		opened = append(opened, baseURL)
		session, _ := newSession(&fakeCalibrator{total: 5})
		session.BaseURL = baseURL
		session.Close = func() { closed = append(closed, baseURL) }
		return session
	}
	scan := func(ctx context.Context) ([]*discovery.Device, error) { return nil, nil }

	app := NewAppModel(connect, scan, "")
	if app.CurrentScreen != ScreenDiscovery {
		t.Fatalf("start screen = %v, want discovery", app.CurrentScreen)
	}

	model, _ := app.Update(deviceSelectedMsg{baseURL: "http://10.45.33.10:6942"})
	app = model.(AppModel)
	if app.CurrentScreen != ScreenCalibrate || len(opened) != 1 {
		t.Fatalf("screen = %v, opened = %v", app.CurrentScreen, opened)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(AppModel)
	if app.CurrentScreen != ScreenDiscovery {
		t.Errorf("esc should return to discovery, got %v", app.CurrentScreen)
	}
	if len(closed) != 1 {
		t.Errorf("session should be closed on esc, closed = %v", closed)
	}

	_, cmd := app.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestAppModel_DirectOpen(t *testing.T) {
	connect := func(baseURL string) *Session {
		session, _ := newSession(&fakeCalibrator{total: 5})
		session.BaseURL = baseURL
		return session
	}
	app := NewAppModel(connect, nil, "http://10.45.33.10:6942")
	if app.CurrentScreen != ScreenCalibrate {
		t.Errorf("start screen = %v, want calibrate", app.CurrentScreen)
	}
	if app.Init() == nil {
		t.Error("Init() should load status")
	}
}
