package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
)

const (
	// PathInfo is the heartbeat endpoint. It also reports device telemetry.
	PathInfo = "/api/info"

	// DefaultInterval is the time between the end of one tick and the start of the next.
	DefaultInterval = 500 * time.Millisecond

	// DefaultTickTimeout bounds a single heartbeat request.
	DefaultTickTimeout = 1 * time.Second
)

// Info is the telemetry the device reports with each heartbeat.
type Info struct {
	Version  string `json:"version"`
	CPUUsage uint8  `json:"cpu_usage"` // percent
	MemUsage uint8  `json:"mem_usage"` // percent
}

// State is one connectivity snapshot. Info is non-nil exactly when Connected.
type State struct {
	Connected bool      `json:"connected"`
	Info      *Info     `json:"info"`
	CheckedAt time.Time `json:"checked_at"`

	// Error describes why the last tick failed; empty when connected.
	Error string `json:"error,omitempty"`
}

func (s State) clone() State {
	if s.Info != nil {
		info := *s.Info
		s.Info = &info
	}
	return s
}

// Getter is the subset of *transport.Client the monitor needs.
type Getter interface {
	Get(ctx context.Context, path string, out interface{}) error
}

// Options configures a Monitor. Zero values select the defaults.
type Options struct {
	Interval    time.Duration
	TickTimeout time.Duration

	// Device labels log lines and metrics (usually the base URL).
	Device string
}

// Monitor tracks whether the device answers heartbeats.
//
// Every tick issues exactly one request. Success marks the device connected
// and replaces the telemetry; any failure marks it disconnected and clears
// the telemetry. There is no debouncing: each tick stands on its own.
type Monitor struct {
	client Getter
	opts   Options

	mu    sync.RWMutex
	state State

	ticks    atomic.Uint64
	failures atomic.Uint64

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// New creates a monitor. It does not start ticking; see Start and Tick.
func New(client Getter, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = DefaultTickTimeout
	}
	return &Monitor{
		client: client,
		opts:   opts,
		subs:   make(map[int]chan State),
	}
}

// Options returns the effective options.
func (m *Monitor) Options() Options {
	return m.opts
}

// Tick performs one heartbeat and returns the resulting snapshot.
//
// If ctx is cancelled while the request is in flight the tick is abandoned and
// the previous snapshot is returned unchanged.
func (m *Monitor) Tick(ctx context.Context) State {
	tickCtx, cancel := context.WithTimeout(ctx, m.opts.TickTimeout)
	defer cancel()

	var info Info
	err := m.client.Get(tickCtx, PathInfo, &info)
	if err != nil && ctx.Err() != nil {
		return m.State()
	}

	next := State{CheckedAt: time.Now()}
	if err == nil {
		next.Connected = true
		next.Info = &info
	} else {
		next.Error = err.Error()
		m.failures.Add(1)
	}
	m.ticks.Add(1)

	m.mu.Lock()
	changed := m.state.Connected != next.Connected || m.state.CheckedAt.IsZero()
	m.state = next
	m.mu.Unlock()

	logging.LogHeartbeat(m.opts.Device, next.Connected, changed, err)
	m.publish(next)

	return next.clone()
}

// State returns the latest snapshot. Before the first tick it reports
// disconnected with a zero CheckedAt.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Stats returns the number of completed ticks and how many of them failed.
func (m *Monitor) Stats() (ticks, failures uint64) {
	return m.ticks.Load(), m.failures.Load()
}

// Subscribe returns a channel that receives every new snapshot. A slow
// subscriber only ever sees the most recent one. Call the returned function
// to unsubscribe; the channel is closed.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

func (m *Monitor) publish(state State) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subs {
		// drop the stale value, if any, so the send cannot block
		select {
		case <-ch:
		default:
		}
		ch <- state.clone()
	}
}

// Start runs ticks in the background until the returned handle is stopped or
// ctx is cancelled. Ticks never overlap: the next one is scheduled Interval
// after the previous one completes.
func (m *Monitor) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			if ctx.Err() != nil {
				return
			}

			m.Tick(ctx)
			timer.Reset(m.opts.Interval)
		}
	}()

	return h
}

// Handle controls a running heartbeat loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the pending or in-flight tick and waits for the loop to exit.
// No request is issued after Stop returns. Stop is idempotent.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed when the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
