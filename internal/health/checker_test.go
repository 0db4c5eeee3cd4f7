package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCheckerAggregatesHealthyStatus(t *testing.T) {
	c := NewChecker(time.Minute, Check{
		Name:    "ok",
		CheckFn: func(ctx context.Context) error { return nil },
	})
	c.Run(contextWithImmediateCancel())
	if !c.IsHealthy() {
		t.Fatalf("expected healthy, got %+v", c.Statuses())
	}
}

func TestCheckerReportsFailure(t *testing.T) {
	c := NewChecker(time.Minute, Check{
		Name:    "broken",
		CheckFn: func(ctx context.Context) error { return errors.New("boom") },
	})
	c.Run(contextWithImmediateCancel())
	if c.IsHealthy() {
		t.Fatal("expected unhealthy when a check fails")
	}
	statuses := c.Statuses()
	if len(statuses) != 1 || statuses[0].Error != "boom" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

func TestCheckerRunsRecoveryOnFailure(t *testing.T) {
	recovered := false
	c := NewChecker(time.Minute, Check{
		Name:      "recoverable",
		CheckFn:   func(ctx context.Context) error { return errors.New("down") },
		RecoverFn: func(ctx context.Context) error { recovered = true; return nil },
	})
	c.Run(contextWithImmediateCancel())
	if !recovered {
		t.Fatal("expected RecoverFn to run after a failed check")
	}
}

func TestIsHealthyBeforeFirstRun(t *testing.T) {
	c := NewChecker(time.Minute)
	if c.IsHealthy() {
		t.Fatal("expected unhealthy before any check has run")
	}
}

func TestStoreSizeCheck(t *testing.T) {
	check := StoreSizeCheck("profiles", func() int { return 10 }, 5)
	if err := check.CheckFn(context.Background()); err == nil {
		t.Fatal("expected size check to fail when over the limit")
	}

	check = StoreSizeCheck("profiles", func() int { return 3 }, 5)
	if err := check.CheckFn(context.Background()); err != nil {
		t.Fatalf("expected size check to pass, got %v", err)
	}
}

func TestStalenessCheck(t *testing.T) {
	check := StalenessCheck("detector", func() time.Time { return time.Now().Add(-time.Hour) }, time.Minute)
	if err := check.CheckFn(context.Background()); err == nil {
		t.Fatal("expected staleness check to fail for a stale timestamp")
	}

	check = StalenessCheck("detector", func() time.Time { return time.Now() }, time.Minute)
	if err := check.CheckFn(context.Background()); err != nil {
		t.Fatalf("expected staleness check to pass for a fresh timestamp, got %v", err)
	}
}

// contextWithImmediateCancel returns a context Run can exit on without
// waiting for the ticker, since Run always checks once before blocking.
func contextWithImmediateCancel() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
