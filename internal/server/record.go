package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
)

// Recorder appends heartbeat snapshots to a JSON Lines file
// (one snapshot per line) for later analysis of connection drops.
type Recorder struct {
	path string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	n    int
}

// NewRecorder creates dir if needed and opens a new capture file in it.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("heartbeat-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}

	logging.Info("Recording heartbeat snapshots", zap.String("path", path))
	return &Recorder{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Path returns the capture file path.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends one snapshot.
func (r *Recorder) Record(state monitor.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return os.ErrClosed
	}
	if err := r.enc.Encode(state); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	r.n++
	return nil
}

// Count returns the number of snapshots recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Run records every snapshot from states until ctx is cancelled or states is closed.
func (r *Recorder) Run(ctx context.Context, states <-chan monitor.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if err := r.Record(state); err != nil {
				logging.Error("Failed to record heartbeat", zap.Error(err))
				return
			}
		}
	}
}

// Close closes the capture file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
