package deviceconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/transport"
)

// ConfigurationSnapshot is an authoritative configuration kept for rollback
type ConfigurationSnapshot struct {
	// Config is the configuration as the device reported it
	Config *Config

	// Timestamp when this snapshot was created
	Timestamp time.Time

	// Description of what operation this snapshot was taken before
	Description string
}

// RollbackManager keeps a bounded history of device configurations
type RollbackManager struct {
	store *Store

	snapshots    []*ConfigurationSnapshot
	maxSnapshots int

	mutex sync.RWMutex
}

// DefaultMaxSnapshots bounds the snapshot history
const DefaultMaxSnapshots = 10

// NewRollbackManager creates a new rollback manager for a store
func NewRollbackManager(store *Store) *RollbackManager {
	return &RollbackManager{
		store:        store,
		snapshots:    make([]*ConfigurationSnapshot, 0, DefaultMaxSnapshots),
		maxSnapshots: DefaultMaxSnapshots,
	}
}

// SaveSnapshot loads the current configuration from the device and records it.
func (rm *RollbackManager) SaveSnapshot(ctx context.Context, description string) error {
	config, err := rm.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch configuration for snapshot: %w", err)
	}

	rm.push(config, description)
	return nil
}

func (rm *RollbackManager) push(config *Config, description string) {
	snapshot := &ConfigurationSnapshot{
		Config:      config.Clone(),
		Timestamp:   time.Now(),
		Description: description,
	}

	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	rm.snapshots = append(rm.snapshots, snapshot)
	if len(rm.snapshots) > rm.maxSnapshots {
		rm.snapshots = rm.snapshots[1:]
	}
}

// GetLatestSnapshot returns the most recent snapshot, or nil if no snapshots exist
func (rm *RollbackManager) GetLatestSnapshot() *ConfigurationSnapshot {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	if len(rm.snapshots) == 0 {
		return nil
	}

	return rm.snapshots[len(rm.snapshots)-1]
}

// GetSnapshots returns all snapshots in chronological order (oldest first)
func (rm *RollbackManager) GetSnapshots() []*ConfigurationSnapshot {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	result := make([]*ConfigurationSnapshot, len(rm.snapshots))
	copy(result, rm.snapshots)
	return result
}

// ClearSnapshots removes all saved snapshots
func (rm *RollbackManager) ClearSnapshots() {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	rm.snapshots = make([]*ConfigurationSnapshot, 0, DefaultMaxSnapshots)
}

// RollbackToSnapshot saves a snapshot's configuration back to the device
func (rm *RollbackManager) RollbackToSnapshot(ctx context.Context, snapshot *ConfigurationSnapshot) *VerificationResult {
	if snapshot == nil {
		return &VerificationResult{Error: errors.New("snapshot is nil")}
	}

	logging.Info("Rolling back configuration",
		zap.String("snapshot", snapshot.Description),
		zap.Time("taken", snapshot.Timestamp))

	return rm.store.SaveAndVerify(ctx, snapshot.Config.Clone())
}

// RollbackToLatest restores the most recent snapshot
func (rm *RollbackManager) RollbackToLatest(ctx context.Context) *VerificationResult {
	snapshot := rm.GetLatestSnapshot()
	if snapshot == nil {
		return &VerificationResult{Error: errors.New("no snapshots available for rollback")}
	}

	return rm.RollbackToSnapshot(ctx, snapshot)
}

// SafeSave snapshots the device configuration, saves cfg and reloads it.
// If the device accepted the save but the reload fails or disagrees, the
// snapshot is written back. A save the device rejected, or one whose reload
// was refused as busy, is not rolled back.
func (rm *RollbackManager) SafeSave(ctx context.Context, cfg *Config, description string) *SafeSaveResult {
	result := &SafeSaveResult{
		Description: description,
	}

	if err := rm.SaveSnapshot(ctx, description); err != nil {
		result.Error = fmt.Errorf("failed to save pre-update snapshot: %w", err)
		return result
	}

	saveResult := rm.store.SaveAndVerify(ctx, cfg)
	result.SaveResult = saveResult

	if saveResult.Success {
		result.Success = true
		return result
	}

	if saveResult.Saved == nil {
		result.Error = saveResult.Error
		return result
	}

	// The device accepted the save; a reload refused by a busy guard says
	// nothing about what it holds.
	if errors.Is(saveResult.Error, transport.ErrBusy) {
		result.Error = saveResult.Error
		return result
	}

	result.RollbackAttempted = true
	rollbackResult := rm.RollbackToLatest(ctx)
	result.RollbackResult = rollbackResult

	if rollbackResult.Success {
		result.RollbackSucceeded = true
		result.Error = fmt.Errorf("save failed (%w), rolled back to previous configuration", saveResult.Error)
	} else {
		result.Error = fmt.Errorf("save failed (%w) and rollback failed: %w", saveResult.Error, rollbackResult.Error)
	}

	return result
}

// SafeSaveResult contains the results of a safe save operation
type SafeSaveResult struct {
	Success     bool
	Description string

	SaveResult *VerificationResult

	RollbackAttempted bool
	// RollbackSucceeded is only meaningful if RollbackAttempted is true
	RollbackSucceeded bool
	RollbackResult    *VerificationResult

	Error error
}

// String returns a human-readable summary of the safe save result
func (r *SafeSaveResult) String() string {
	if r.Success {
		return fmt.Sprintf("Saved: %s", r.Description)
	}

	if r.RollbackAttempted {
		if r.RollbackSucceeded {
			return fmt.Sprintf("Save failed but rolled back: %s\nSave error: %v",
				r.Description, r.SaveResult.Error)
		}
		return fmt.Sprintf("Save failed and rollback failed: %s\nSave error: %v\nRollback error: %v",
			r.Description, r.SaveResult.Error, r.RollbackResult.Error)
	}

	return fmt.Sprintf("Save failed: %s\nError: %v", r.Description, r.Error)
}

// DestructiveWarnings lists edits that may take the device off the network
// or stop processing. Empty if the change looks safe.
func DestructiveWarnings(current, next *Config) []string {
	var warnings []string
	if current == nil || next == nil {
		return warnings
	}

	if optString(current.DeviceName) != optString(next.DeviceName) {
		warnings = append(warnings, "Changing the device name changes its hostname; mDNS lookups may fail until clients rescan")
	}
	if current.Provisioned() && !next.Provisioned() {
		warnings = append(warnings, "Clearing the team number unprovisions the device")
	}
	if current.Provisioned() && next.Provisioned() && *current.TeamNumber != *next.TeamNumber {
		warnings = append(warnings, fmt.Sprintf("Team number changes from %d to %d; NetworkTables will connect to a different robot",
			*current.TeamNumber, *next.TeamNumber))
	}
	if current.Subsystems.CAprilTags.Enabled && !next.Subsystems.CAprilTags.Enabled &&
		current.Subsystems.ML.Enabled && !next.Subsystems.ML.Enabled {
		warnings = append(warnings, "All processing subsystems will be disabled")
	}

	return warnings
}
