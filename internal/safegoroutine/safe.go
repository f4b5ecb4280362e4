// Package safegoroutine runs server tasks with panic recovery so a panicking
// task, such as a custom component factory during a rebuild, surfaces as an
// error instead of crashing the process.
package safegoroutine

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/florinutz/docsink/metrics"
	"golang.org/x/sync/errgroup"
)

// Go runs fn in g. A panic in fn is logged with its stack, counted and
// returned from the group as an error.
func Go(g *errgroup.Group, logger *slog.Logger, task string, fn func() error) {
	g.Go(func() error {
		return Do(logger, task, fn)
	})
}

// Do runs fn on the calling goroutine with the same recovery as Go.
func Do(logger *slog.Logger, task string, fn func() error) (err error) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicsRecovered.WithLabelValues(task).Inc()
			logger.Error("panic recovered",
				"task", task,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic in %s: %v", task, r)
		}
	}()
	return fn()
}
