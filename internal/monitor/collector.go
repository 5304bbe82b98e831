package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	upDesc = prometheus.NewDesc(
		"chalkydri_device_up", "Whether the last heartbeat reached the device.", []string{"device"}, nil,
	)
	cpuUsageDesc = prometheus.NewDesc(
		"chalkydri_device_cpu_usage_percent", "Device CPU usage reported by the last heartbeat.", []string{"device"}, nil,
	)
	memUsageDesc = prometheus.NewDesc(
		"chalkydri_device_mem_usage_percent", "Device memory usage reported by the last heartbeat.", []string{"device"}, nil,
	)
	infoDesc = prometheus.NewDesc(
		"chalkydri_device_info", "Device software version.", []string{"device", "version"}, nil,
	)
	lastCheckDesc = prometheus.NewDesc(
		"chalkydri_heartbeat_last_check_timestamp_seconds", "Unix time of the last completed heartbeat.", []string{"device"}, nil,
	)
	ticksDesc = prometheus.NewDesc(
		"chalkydri_heartbeat_ticks_total", "Completed heartbeat ticks.", []string{"device"}, nil,
	)
	failuresDesc = prometheus.NewDesc(
		"chalkydri_heartbeat_failures_total", "Heartbeat ticks that failed to reach the device.", []string{"device"}, nil,
	)
)

// Collector exports a Monitor's latest snapshot as Prometheus metrics.
// Collecting never contacts the device.
type Collector struct {
	monitor *Monitor
	device  string
}

// NewCollector creates a collector for m. Metrics are labelled with m's
// Options.Device.
func NewCollector(m *Monitor) *Collector {
	return &Collector{monitor: m, device: m.opts.Device}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- cpuUsageDesc
	ch <- memUsageDesc
	ch <- infoDesc
	ch <- lastCheckDesc
	ch <- ticksDesc
	ch <- failuresDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	state := c.monitor.State()
	ticks, failures := c.monitor.Stats()

	up := 0.0
	if state.Connected {
		up = 1.0
	}
	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, up, c.device)

	if state.Info != nil {
		ch <- prometheus.MustNewConstMetric(cpuUsageDesc, prometheus.GaugeValue, float64(state.Info.CPUUsage), c.device)
		ch <- prometheus.MustNewConstMetric(memUsageDesc, prometheus.GaugeValue, float64(state.Info.MemUsage), c.device)
		ch <- prometheus.MustNewConstMetric(infoDesc, prometheus.GaugeValue, 1, c.device, state.Info.Version)
	}

	if !state.CheckedAt.IsZero() {
		ch <- prometheus.MustNewConstMetric(lastCheckDesc, prometheus.GaugeValue,
			float64(state.CheckedAt.UnixNano())/1e9, c.device)
	}

	ch <- prometheus.MustNewConstMetric(ticksDesc, prometheus.CounterValue, float64(ticks), c.device)
	ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.CounterValue, float64(failures), c.device)
}
