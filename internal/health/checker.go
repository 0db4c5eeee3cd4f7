// Package health runs periodic health checks with optional
// auto-recovery, the way a long-running evaluator needs to notice a
// starved store or a stalled detector before an operator does.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ztsentinel/sentinel/internal/infra/metrics"
)

// Check defines a single health check with an optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// DefaultInterval is how often Run re-checks when no interval is given.
const DefaultInterval = 60 * time.Second

// NewChecker builds a health checker over the given checks, running
// them every interval (DefaultInterval if interval <= 0).
func NewChecker(interval time.Duration, checks ...Check) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Checker{interval: interval, checks: checks}
}

// Run starts the health check loop. Call in a goroutine; it returns
// when ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{Name: check.Name, CheckedAt: time.Now()}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
			if check.RecoverFn != nil {
				_ = check.RecoverFn(ctx)
			}
		} else {
			s.Healthy = true
		}
		statuses[i] = s

		gaugeValue := 0.0
		if s.Healthy {
			gaugeValue = 1.0
		}
		metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(gaugeValue)
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy reports whether every check last passed. An empty result
// set (before the first run) is considered unhealthy.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.statuses) == 0 {
		return false
	}
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// StoreSizeCheck builds a Check that fails once a store's item count
// exceeds maxSize, signaling unbounded growth in an in-memory store
// that has no eviction of its own.
func StoreSizeCheck(name string, size func() int, maxSize int) Check {
	return Check{
		Name: name,
		CheckFn: func(ctx context.Context) error {
			n := size()
			if n > maxSize {
				return fmt.Errorf("%s has %d entries, exceeding %d", name, n, maxSize)
			}
			return nil
		},
	}
}

// StalenessCheck builds a Check that fails when lastActivity is older
// than maxAge, signaling a detector or store that has stopped
// receiving input.
func StalenessCheck(name string, lastActivity func() time.Time, maxAge time.Duration) Check {
	return Check{
		Name: name,
		CheckFn: func(ctx context.Context) error {
			last := lastActivity()
			if last.IsZero() {
				return nil
			}
			if age := time.Since(last); age > maxAge {
				return fmt.Errorf("%s has been idle for %s, exceeding %s", name, age.Round(time.Second), maxAge)
			}
			return nil
		},
	}
}
