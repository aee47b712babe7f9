package monitor

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	monitors map[string]*Monitor
}

// NewInMemoryRepository creates a new in-memory monitor repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{monitors: make(map[string]*Monitor)}
}

// Get retrieves a monitor by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[id]
	if !ok {
		return nil, ErrMonitorNotFound
	}
	clone := *m
	return &clone, nil
}

// GetByUserAndID retrieves a monitor by user ID and monitor ID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, monitorID string) (*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[monitorID]
	if !ok || m.UserID != userID {
		return nil, ErrMonitorNotFound
	}
	clone := *m
	return &clone, nil
}

// List retrieves all monitors for a user, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string) ([]*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var monitors []*Monitor
	for _, m := range r.monitors {
		if m.UserID != userID {
			continue
		}
		clone := *m
		monitors = append(monitors, &clone)
	}

	sort.Slice(monitors, func(i, j int) bool {
		return monitors[i].CreatedAt.After(monitors[j].CreatedAt)
	})
	return monitors, nil
}

// ListActive retrieves every active monitor across all users.
func (r *InMemoryRepository) ListActive(_ context.Context) ([]*Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var monitors []*Monitor
	for _, m := range r.monitors {
		if !m.Active {
			continue
		}
		clone := *m
		monitors = append(monitors, &clone)
	}

	sort.Slice(monitors, func(i, j int) bool {
		return monitors[i].CreatedAt.Before(monitors[j].CreatedAt)
	})
	return monitors, nil
}

// Create creates a new monitor.
func (r *InMemoryRepository) Create(_ context.Context, m *Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *m
	r.monitors[m.ID] = &clone
	return nil
}

// Update updates an existing monitor.
func (r *InMemoryRepository) Update(_ context.Context, m *Monitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.monitors[m.ID]
	if !ok {
		return ErrMonitorNotFound
	}

	clone := *m
	clone.LastRunAt = existing.LastRunAt
	clone.LastRunStatus = existing.LastRunStatus
	clone.LastRunDelayCount = existing.LastRunDelayCount
	r.monitors[m.ID] = &clone
	return nil
}

// Delete deletes a monitor by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.monitors, id)
	return nil
}

// RecordRun stores the outcome of a run and optionally deactivates the
// monitor.
func (r *InMemoryRepository) RecordRun(_ context.Context, id string, result RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.monitors[id]
	if !ok {
		return ErrMonitorNotFound
	}

	ranAt := result.RanAt
	delayCount := result.DelayCount
	m.LastRunAt = &ranAt
	m.LastRunStatus = result.Status
	m.LastRunDelayCount = &delayCount
	if result.Deactivate {
		m.Active = false
	}
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
