package deviceconfig

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chalkydri/chalkydri-cfg/internal/transport"
)

// fakeDevice is an in-memory Chalkydri configuration endpoint.
type fakeDevice struct {
	mu     sync.Mutex
	config *Config

	gets, posts, puts int

	// normalize, if set, adjusts a submitted config before it is stored
	normalize func(*Config)

	// raw, if non-empty, is returned verbatim for GET instead of config
	raw string

	// status, if non-zero, is returned for every request
	status int

	// block, if non-nil, holds every request until closed; entered is signalled first
	block   chan struct{}
	entered chan struct{}
}

func newFakeDevice(t *testing.T, initial *Config) (*fakeDevice, *Store) {
	t.Helper()

	dev := &fakeDevice{config: initial.Clone()}
	server := httptest.NewServer(dev)
	t.Cleanup(server.Close)

	return dev, NewStore(transport.NewClientWithURL(server.URL))
}

func (d *fakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.block != nil {
		<-d.block
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if r.URL.Path != PathConfiguration {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		d.gets++
	case http.MethodPost:
		d.posts++
	case http.MethodPut:
		d.puts++
	}

	if d.status != 0 {
		http.Error(w, "device error", d.status)
		return
	}

	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		var cfg Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if d.normalize != nil {
			d.normalize(&cfg)
		}
		d.config = &cfg
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet && d.raw != "" {
		_, _ = w.Write([]byte(d.raw))
		return
	}
	_ = json.NewEncoder(w).Encode(d.config)
}

func (d *fakeDevice) requests() int {
	gets, posts, puts := d.counts()
	return gets + posts + puts
}

func (d *fakeDevice) counts() (gets, posts, puts int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gets, d.posts, d.puts
}

func (d *fakeDevice) setRaw(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.raw = raw
}

func (d *fakeDevice) setStatus(status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

var mode640 = CameraSettings{Width: 640, Height: 480, FrameRate: FrameRate{Num: 30, Den: 1}}
var mode1280 = CameraSettings{Width: 1280, Height: 720, FrameRate: FrameRate{Num: 60, Den: 1}}

// staleConfigJSON is unprovisionedConfig as the device encodes it.
const staleConfigJSON = `{"team_number":null,"device_name":null,"cameras":[{"name":"cam0","display_name":"Front","settings":null,"possible_settings":[{"width":640,"height":480,"frame_rate":{"num":30,"den":1}},{"width":1280,"height":720,"frame_rate":{"num":60,"den":1}}]}],"subsystems":{"capriltags":{"enabled":false,"gamma":null},"ml":{"enabled":false}}}`

// unprovisionedConfig is what a freshly flashed device reports.
func unprovisionedConfig() *Config {
	return &Config{
		Cameras: []CameraConfig{
			{Name: "cam0", DisplayName: "Front", PossibleSettings: []CameraSettings{mode640, mode1280}},
		},
	}
}

func uintPtr(v uint) *uint                     { return &v }
func strPtr(v string) *string                  { return &v }
func floatPtr(v float64) *float64              { return &v }
func modePtr(v CameraSettings) *CameraSettings { return &v }
