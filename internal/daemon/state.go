package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// State is the daemon's record of its last successful run
type State struct {
	LastRunDate string `json:"last_run_date"` // 2006-01-02 in the daemon timezone
	LastRunTime string `json:"last_run_time"` // RFC 3339
}

// StateManager keeps State in a JSON file so a restart does not post the
// same day twice
type StateManager struct {
	stateFile string
	state     *State
	logger    *zap.Logger
}

// NewStateManager creates a state manager backed by stateFile
func NewStateManager(stateFile string, logger *zap.Logger) *StateManager {
	return &StateManager{
		stateFile: stateFile,
		state:     &State{},
		logger:    logger,
	}
}

// StateFileFor returns the state file kept next to a queue file
func StateFileFor(queueFile string) string {
	return queueFile + ".state.json"
}

// Load loads the state from file
func (sm *StateManager) Load() error {
	data, err := os.ReadFile(sm.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing posted yet, created on first save
			sm.state = &State{}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	sm.state = &state
	sm.logger.Info("Daemon state loaded",
		zap.String("file", sm.stateFile),
		zap.String("last_run_date", state.LastRunDate))

	return nil
}

// Save saves the state to file
func (sm *StateManager) Save() error {
	data, err := json.MarshalIndent(sm.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(sm.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	sm.logger.Debug("Daemon state saved",
		zap.String("file", sm.stateFile),
		zap.String("last_run_date", sm.state.LastRunDate))

	return nil
}

// LastRunDate returns the recorded date of the last successful run
func (sm *StateManager) LastRunDate() string {
	return sm.state.LastRunDate
}

// Record stores a successful run and saves the state
func (sm *StateManager) Record(date string, at time.Time) error {
	sm.state = &State{
		LastRunDate: date,
		LastRunTime: at.Format(time.RFC3339),
	}
	return sm.Save()
}
