package monitor

import "context"

// Repository defines the interface for monitor persistence.
type Repository interface {
	// Get retrieves a monitor by ID.
	Get(ctx context.Context, id string) (*Monitor, error)

	// GetByUserAndID retrieves a monitor by user ID and monitor ID.
	// Returns ErrMonitorNotFound if the monitor doesn't exist or doesn't
	// belong to the user.
	GetByUserAndID(ctx context.Context, userID, monitorID string) (*Monitor, error)

	// List retrieves all monitors for a user, newest first.
	List(ctx context.Context, userID string) ([]*Monitor, error)

	// ListActive retrieves every active monitor across all users. The
	// worker uses this to find due monitors.
	ListActive(ctx context.Context) ([]*Monitor, error)

	// Create creates a new monitor.
	Create(ctx context.Context, monitor *Monitor) error

	// Update updates an existing monitor.
	Update(ctx context.Context, monitor *Monitor) error

	// Delete deletes a monitor by ID.
	Delete(ctx context.Context, id string) error

	// RecordRun stores the outcome of a run and optionally deactivates the
	// monitor.
	RecordRun(ctx context.Context, id string, result RunResult) error
}
