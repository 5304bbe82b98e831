package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "chalkydri") {
		t.Errorf("GetConfigDir() = %v, should contain 'chalkydri'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix-like systems")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg", "chalkydri") {
		t.Errorf("GetConfigDir() = %v", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewSettings(t *testing.T) {
	s := NewSettings()

	if s.Version != CurrentVersion {
		t.Errorf("Version = %v, want %v", s.Version, CurrentVersion)
	}
	if s.ActiveProfile != ProfileDev {
		t.Errorf("ActiveProfile = %v, want %v", s.ActiveProfile, ProfileDev)
	}
	if s.Heartbeat.Interval != 500*time.Millisecond {
		t.Errorf("Heartbeat.Interval = %v, want 500ms", s.Heartbeat.Interval)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings should validate: %v", err)
	}

	tests := []struct {
		profile string
		want    string
	}{
		{ProfileDev, "http://10.45.33.10:6942"},
		{ProfileDeployed, "http://chalkydri.local:6942"},
		{"", "http://10.45.33.10:6942"},
	}
	for _, tt := range tests {
		got, err := s.BaseURL(tt.profile)
		if err != nil {
			t.Errorf("BaseURL(%q) error = %v", tt.profile, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BaseURL(%q) = %v, want %v", tt.profile, got, tt.want)
		}
	}
}

func TestSettings_Profiles(t *testing.T) {
	s := NewSettings()

	if err := s.SetProfile("practice", "http://10.45.33.20:6942", "Practice field"); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}
	if err := s.UseProfile("practice"); err != nil {
		t.Fatalf("UseProfile() error = %v", err)
	}
	if got, _ := s.BaseURL(""); got != "http://10.45.33.20:6942" {
		t.Errorf("BaseURL() = %v after UseProfile", got)
	}

	names := s.ProfileNames()
	want := []string{"deployed", "dev", "practice"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("ProfileNames() = %v, want %v", names, want)
	}

	if err := s.UseProfile("missing"); err == nil {
		t.Error("UseProfile() should reject unknown profile")
	}
	if _, err := s.BaseURL("missing"); err == nil {
		t.Error("BaseURL() should reject unknown profile")
	}
}

func TestSettings_SetProfileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		baseURL string
	}{
		{"empty name", "", "http://10.45.33.10:6942"},
		{"missing scheme", "bench", "10.45.33.10:6942"},
		{"unsupported scheme", "bench", "ftp://10.45.33.10"},
		{"missing host", "bench", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			if err := s.SetProfile(tt.profile, tt.baseURL, ""); err == nil {
				t.Error("SetProfile() should fail")
			}
		})
	}
}

func TestSettings_RecordDevice(t *testing.T) {
	s := NewSettings()

	before := time.Now()
	s.RecordDevice("chalkydri", "http://10.45.33.10:6942", "0.3.0")
	after := time.Now()

	record := s.Devices["chalkydri"]
	if record == nil {
		t.Fatal("device should exist after RecordDevice()")
	}
	if record.BaseURL != "http://10.45.33.10:6942" {
		t.Errorf("BaseURL = %v", record.BaseURL)
	}
	if record.LastSeen.Before(before) || record.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", record.LastSeen, before, after)
	}

	s.RecordDevice("chalkydri", "http://10.45.33.11:6942", "")
	if record.Version != "0.3.0" {
		t.Errorf("empty version should keep the previous one, got %q", record.Version)
	}
	if record.BaseURL != "http://10.45.33.11:6942" {
		t.Errorf("BaseURL = %v after second record", record.BaseURL)
	}
}

func TestSettingsSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := NewSettings()
	if err := s.SetProfile("practice", "http://10.45.33.20:6942", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.UseProfile(ProfileDeployed); err != nil {
		t.Fatal(err)
	}
	s.Heartbeat.Interval = time.Second
	s.RecordDevice("chalkydri", "http://10.45.33.10:6942", "0.3.0")

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after Save()")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ActiveProfile != ProfileDeployed {
		t.Errorf("ActiveProfile = %v, want %v", loaded.ActiveProfile, ProfileDeployed)
	}
	if loaded.Profile("practice") == nil {
		t.Error("practice profile should survive a round trip")
	}
	if loaded.Heartbeat.Interval != time.Second {
		t.Errorf("Heartbeat.Interval = %v, want 1s", loaded.Heartbeat.Interval)
	}
	if loaded.Devices["chalkydri"] == nil || loaded.Devices["chalkydri"].Version != "0.3.0" {
		t.Errorf("device record lost: %+v", loaded.Devices["chalkydri"])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ActiveProfile != ProfileDev {
		t.Errorf("missing file should yield defaults, got active profile %q", s.ActiveProfile)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "version: [1"},
		{"wrong version", "version: 2\n"},
		{"unknown active profile", "version: 1\nactive_profile: robot\n"},
		{"bad base url", "version: 1\nactive_profile: bench\nprofiles:\n  bench:\n    base_url: 10.45.33.10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nheartbeat:\n  interval: 250ms\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Heartbeat.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %v, want 250ms", s.Heartbeat.Interval)
	}
	if s.Heartbeat.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want default", s.Heartbeat.RequestTimeout)
	}
	if s.Profile(ProfileDeployed) == nil {
		t.Error("default profiles should be filled in")
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
