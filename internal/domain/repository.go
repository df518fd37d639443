package domain

// RunRepository defines the interface for run persistence
type RunRepository interface {
	// Create creates a new run
	Create(run *Run) error

	// Update updates an existing run
	Update(run *Run) error

	// Delete deletes a run and its items
	Delete(id string) error

	// FindByID finds a run by ID; returns ErrRunNotFound when absent
	FindByID(id string) (*Run, error)

	// FindPending finds queued runs, oldest first
	FindPending() ([]*Run, error)

	// FindAll finds runs with optional column filters, newest first
	FindAll(filters map[string]interface{}) ([]*Run, error)

	// SaveItems replaces the recorded items of a run
	SaveItems(runID string, items []*RunItem) error

	// FindItems returns the recorded items of a run
	FindItems(runID string) ([]*RunItem, error)

	// ResetOrphanedProcessing re-queues runs left processing by a previous process
	ResetOrphanedProcessing() (int64, error)

	// GetStats returns run statistics
	GetStats() (*RunStats, error)
}

// RunStats represents run statistics
type RunStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
}
