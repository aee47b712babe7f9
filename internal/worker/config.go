// Package worker provides background monitor execution for RailPulse.
package worker

import "time"

// Config holds configuration for the worker.
type Config struct {
	// PollInterval is how often the scheduler scans for due monitors.
	// Default: 1 minute.
	PollInterval time.Duration

	// RunTimeout bounds a single monitor run, upstream fetch included.
	// Default: 60 seconds.
	RunTimeout time.Duration

	// Concurrency is the number of monitors executed in parallel per scan.
	// Default: 3.
	Concurrency int
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Minute,
		RunTimeout:   60 * time.Second,
		Concurrency:  3,
	}
}

// withDefaults fills in zero fields.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = d.RunTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	return c
}
