package monitor

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Connected(t *testing.T) {
	_, client := newFakeDevice(t, true, false, true)
	mon := New(client, Options{Device: "test"})
	for i := 0; i < 3; i++ {
		mon.Tick(context.Background())
	}

	collector := NewCollector(mon)

	expected := `
# HELP chalkydri_device_cpu_usage_percent Device CPU usage reported by the last heartbeat.
# TYPE chalkydri_device_cpu_usage_percent gauge
chalkydri_device_cpu_usage_percent{device="test"} 42
# HELP chalkydri_device_info Device software version.
# TYPE chalkydri_device_info gauge
chalkydri_device_info{device="test",version="0.3.0"} 1
# HELP chalkydri_device_up Whether the last heartbeat reached the device.
# TYPE chalkydri_device_up gauge
chalkydri_device_up{device="test"} 1
# HELP chalkydri_heartbeat_failures_total Heartbeat ticks that failed to reach the device.
# TYPE chalkydri_heartbeat_failures_total counter
chalkydri_heartbeat_failures_total{device="test"} 1
# HELP chalkydri_heartbeat_ticks_total Completed heartbeat ticks.
# TYPE chalkydri_heartbeat_ticks_total counter
chalkydri_heartbeat_ticks_total{device="test"} 3
`
	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"chalkydri_device_up",
		"chalkydri_device_cpu_usage_percent",
		"chalkydri_device_info",
		"chalkydri_heartbeat_ticks_total",
		"chalkydri_heartbeat_failures_total",
	)
	if err != nil {
		t.Error(err)
	}
}

func TestCollector_Disconnected(t *testing.T) {
	_, client := newFakeDevice(t, false)
	mon := New(client, Options{Device: "test"})
	mon.Tick(context.Background())

	collector := NewCollector(mon)

	// up, last check, ticks, failures; no telemetry
	if n := testutil.CollectAndCount(collector); n != 4 {
		t.Errorf("CollectAndCount() = %d, want 4", n)
	}
	if n := testutil.CollectAndCount(collector, "chalkydri_device_cpu_usage_percent"); n != 0 {
		t.Errorf("cpu usage should be absent while disconnected, got %d series", n)
	}
}

func TestCollector_Register(t *testing.T) {
	_, client := newFakeDevice(t)
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(New(client, Options{Device: "test"}))); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}
