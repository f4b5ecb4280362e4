package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// Status represents the health state of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Component is the last reported state of one component.
type Component struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker tracks the health of registered components, such as the built sink
// and the configuration watcher.
type Checker struct {
	mu         sync.RWMutex
	components map[string]Component
}

// NewChecker creates a Checker with no registered components.
func NewChecker() *Checker {
	return &Checker{
		components: make(map[string]Component),
	}
}

// Register adds a component with an initial status of down.
func (c *Checker) Register(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[name] = Component{Status: StatusDown, Message: "not started"}
}

// SetStatus records the status of a named component. message explains a
// status other than up and may be empty.
func (c *Checker) SetStatus(name string, status Status, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[name] = Component{Status: status, Message: message}
}

// Overall folds every component into one status: down if any is down,
// degraded if any is degraded, up otherwise.
func (c *Checker) Overall() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overallLocked()
}

func (c *Checker) overallLocked() Status {
	overall := StatusUp
	for _, comp := range c.components {
		switch comp.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// Names returns the registered component names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.components))
	for n := range c.components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type response struct {
	Status     Status               `json:"status"`
	Components map[string]Component `json:"components"`
}

// ServeHTTP responds with the aggregated health status.
// Returns 200 unless a component is down, then 503.
func (c *Checker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.mu.RLock()
	overall := c.overallLocked()
	comps := make(map[string]Component, len(c.components))
	for name, comp := range c.components {
		comps[name] = comp
	}
	c.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if overall == StatusDown {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(response{
		Status:     overall,
		Components: comps,
	})
}

// ReadyHandler responds 200 only when every component is up, for readiness
// probes that must not route traffic to a degraded instance.
func (c *Checker) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ready := c.Overall() == StatusUp
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
	})
}
