package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the background job worker.
type Config struct {
	// Concurrency is the number of polling goroutines.
	Concurrency int

	// PollInterval is how often an idle goroutine checks for jobs.
	PollInterval time.Duration

	// JobTimeout bounds a single job; its context is cancelled after it.
	JobTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for running jobs.
	ShutdownTimeout time.Duration

	// StaleJobThreshold is the age after which a 'running' job left behind by
	// a crashed process is put back to pending on startup.
	StaleJobThreshold time.Duration

	// ReconcileInterval is how often the maintenance sweeps are queued.
	// Zero queues them only at startup.
	ReconcileInterval time.Duration

	// JobRetention is how long finished jobs stay in the table.
	JobRetention time.Duration
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        5 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
		ReconcileInterval: time.Hour,
		JobRetention:      7 * 24 * time.Hour,
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	case c.Concurrency > 100:
		return fmt.Errorf("concurrency too high (max 100), got %d", c.Concurrency)
	case c.PollInterval < time.Second:
		return fmt.Errorf("poll interval must be at least 1 second, got %v", c.PollInterval)
	case c.JobTimeout < time.Second:
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	case c.ShutdownTimeout < time.Second:
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	case c.StaleJobThreshold < time.Minute:
		return fmt.Errorf("stale job threshold must be at least 1 minute, got %v", c.StaleJobThreshold)
	case c.ReconcileInterval < 0:
		return fmt.Errorf("reconcile interval must not be negative, got %v", c.ReconcileInterval)
	case c.ReconcileInterval > 0 && c.ReconcileInterval < time.Minute:
		return fmt.Errorf("reconcile interval must be at least 1 minute, got %v", c.ReconcileInterval)
	}
	return nil
}
