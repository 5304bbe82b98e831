package deviceconfig

import (
	"strings"
	"testing"
)

func TestConfigBuilder_Build(t *testing.T) {
	base := unprovisionedConfig()

	cfg, err := NewConfigBuilder(base).
		SetTeamNumber(4201).
		SetDeviceName("chalkydri-front").
		SetCameraMode("cam0", mode1280).
		SetDisplayName("cam0", "Shooter").
		EnableAprilTags(true).
		SetGamma(1.2).
		EnableML(true).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if *cfg.TeamNumber != 4201 || *cfg.DeviceName != "chalkydri-front" {
		t.Errorf("provisioning = %v/%v", *cfg.TeamNumber, *cfg.DeviceName)
	}
	cam := cfg.Camera("cam0")
	if cam.Settings == nil || *cam.Settings != mode1280 || cam.DisplayName != "Shooter" {
		t.Errorf("cam0 = %+v", cam)
	}
	if !cfg.Subsystems.CAprilTags.Enabled || *cfg.Subsystems.CAprilTags.Gamma != 1.2 || !cfg.Subsystems.ML.Enabled {
		t.Errorf("subsystems = %+v", cfg.Subsystems)
	}

	if base.TeamNumber != nil || base.Cameras[0].Settings != nil {
		t.Error("builder must not modify the baseline")
	}
}

func TestConfigBuilder_UnsupportedMode(t *testing.T) {
	odd := CameraSettings{Width: 320, Height: 240, FrameRate: FrameRate{Num: 90, Den: 1}}

	b := NewConfigBuilder(unprovisionedConfig()).SetCameraMode("cam0", odd)
	_, err := b.Build()
	if !IsValidationError(err) {
		t.Fatalf("Build() error = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "640x480@30") {
		t.Errorf("error should list available modes, got %q", err)
	}
	if b.HasChanges() {
		t.Error("a rejected edit should not count as a change")
	}
}

func TestConfigBuilder_UnknownCamera(t *testing.T) {
	_, err := NewConfigBuilder(unprovisionedConfig()).SetCameraDefault("cam9").Build()
	if err == nil || !strings.Contains(err.Error(), "cam9") {
		t.Errorf("Build() error = %v, want unknown camera error", err)
	}
}

func TestConfigBuilder_ClearAndReset(t *testing.T) {
	base := unprovisionedConfig()
	base.TeamNumber = uintPtr(4201)
	base.Subsystems.CAprilTags.Gamma = floatPtr(2)
	base.Cameras[0].Settings = modePtr(mode640)

	b := NewConfigBuilder(base).ClearTeamNumber().ClearGamma().SetCameraDefault("cam0")
	if got := len(b.Changes()); got != 3 {
		t.Errorf("Changes() = %d entries, want 3", got)
	}

	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if cfg.Provisioned() || cfg.Subsystems.CAprilTags.Gamma != nil || cfg.Cameras[0].Settings != nil {
		t.Errorf("cleared config = %+v", cfg)
	}

	b.Reset()
	if b.HasChanges() {
		t.Error("Reset() should discard changes")
	}
	cfg, _ = b.Build()
	if !Equal(cfg, base) {
		t.Errorf("after Reset() Build() differs from baseline: %v", Diff(base, cfg))
	}
}

func TestConfigBuilder_NilBaseline(t *testing.T) {
	_, err := NewConfigBuilder(nil).SetTeamNumber(1).Build()
	if err == nil || !strings.Contains(err.Error(), "at least one camera") {
		t.Errorf("Build() from nil baseline error = %v, want missing cameras", err)
	}
}
