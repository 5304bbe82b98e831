package devicectl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chalkydri/chalkydri-cfg/internal/transport"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"restart", Restart, false},
		{"REBOOT", Reboot, false},
		{"shutdown", Shutdown, false},
		{"halt", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAction(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAction(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAction_Disruptive(t *testing.T) {
	if Restart.Disruptive() {
		t.Error("restart only restarts the process")
	}
	if !Reboot.Disruptive() || !Shutdown.Disruptive() {
		t.Error("reboot and shutdown take the host offline")
	}
}

func TestController_Do(t *testing.T) {
	for _, action := range []Action{Restart, Reboot, Shutdown} {
		t.Run(action.String(), func(t *testing.T) {
			var gotMethod, gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod, gotPath = r.Method, r.URL.Path
				_, _ = w.Write([]byte("null"))
			}))
			defer server.Close()

			ctl := New(transport.NewClientWithURL(server.URL))
			if err := ctl.Do(context.Background(), action); err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if gotMethod != http.MethodPost || gotPath != action.Path() {
				t.Errorf("request = %s %s, want POST %s", gotMethod, gotPath, action.Path())
			}
		})
	}
}

func TestController_DoUnknownAction(t *testing.T) {
	ctl := New(transport.NewClientWithURL("http://127.0.0.1:1"))
	if err := ctl.Do(context.Background(), Action(42)); err == nil {
		t.Error("Do() with an unknown action should fail without a request")
	}
}

func TestController_SystemInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathSysInfo {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"uptime":3725,"mem_usage":63}`))
	}))
	defer server.Close()

	info, err := New(transport.NewClientWithURL(server.URL)).SystemInfo(context.Background())
	if err != nil {
		t.Fatalf("SystemInfo() error = %v", err)
	}
	if info.MemUsage != 63 {
		t.Errorf("MemUsage = %d, want 63", info.MemUsage)
	}
	if info.UptimeDuration() != time.Hour+2*time.Minute+5*time.Second {
		t.Errorf("UptimeDuration() = %v", info.UptimeDuration())
	}
}

func TestController_SystemInfoError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(transport.NewClientWithURL(server.URL)).SystemInfo(context.Background())
	if !transport.IsHTTPError(err) {
		t.Errorf("SystemInfo() error = %v, want HTTP error", err)
	}
}
