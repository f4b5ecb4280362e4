package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/metrics"
	"golang.org/x/time/rate"
)

// Policy triggers on every Nth call. It is not safe for concurrent use: the
// calls of one destination must be serialized, since triggering depends on
// their order.
type Policy struct {
	timeoutMs   int
	everyN      int
	counter     int
	destination string
	logger      *slog.Logger
	logEvery    rate.Sometimes
}

// New creates a policy pausing timeoutMs every everyN calls. With everyN 0 it
// never triggers.
func New(timeoutMs, everyN int, destination string, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		timeoutMs:   timeoutMs,
		everyN:      everyN,
		destination: destination,
		logger:      logger.With("component", "ratelimit", "destination", destination),
		logEvery:    rate.Sometimes{Interval: time.Minute},
	}
}

// FromView creates the policy configured for the view's destination.
func FromView(v config.View, logger *slog.Logger) (*Policy, error) {
	timeout, err := v.Int(config.RateLimitingTimeout)
	if err != nil {
		return nil, err
	}
	everyN, err := v.Int(config.RateLimitingEveryN)
	if err != nil {
		return nil, err
	}
	return New(timeout, everyN, v.Destination(), logger), nil
}

// TimeoutMs returns the pause length in milliseconds.
func (p *Policy) TimeoutMs() int { return p.timeoutMs }

// EveryN returns the trigger period.
func (p *Policy) EveryN() int { return p.everyN }

// Counter returns the number of ShouldTrigger calls so far.
func (p *Policy) Counter() int { return p.counter }

// ShouldTrigger counts one call and reports whether it is a multiple of
// everyN.
func (p *Policy) ShouldTrigger() bool {
	p.counter++
	return p.everyN != 0 && p.counter >= p.everyN && p.counter%p.everyN == 0
}

// Pause counts one call and, when it triggers, blocks for the timeout or
// until ctx is cancelled. It reports whether the call triggered.
func (p *Policy) Pause(ctx context.Context) (bool, error) {
	if !p.ShouldTrigger() {
		return false, nil
	}
	metrics.RateLimitTriggers.WithLabelValues(p.destination).Inc()
	p.logEvery.Do(func() {
		p.logger.Info("rate limit triggered", "every_n", p.everyN, "timeout_ms", p.timeoutMs, "counter", p.counter)
	})
	if p.timeoutMs <= 0 {
		return true, nil
	}

	start := time.Now()
	timer := time.NewTimer(time.Duration(p.timeoutMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-timer.C:
	}
	metrics.RateLimitWaitDuration.WithLabelValues(p.destination).Observe(time.Since(start).Seconds())
	return true, nil
}
