// Package stage assembles the ordered document transformation chain of a
// destination.
package stage

import (
	"fmt"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/metrics"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
)

// Result tells the driver whether later stages should see the record.
type Result int

const (
	Continue Result = iota
	Stop
)

func (r Result) String() string {
	if r == Stop {
		return "stop"
	}
	return "continue"
}

// Stage is one link of a pipeline. Apply may modify rec in place.
type Stage interface {
	Name() string
	Apply(rec *record.Record) (Result, error)
}

// Func adapts a function to a Stage.
type Func struct {
	StageName string
	Fn        func(rec *record.Record) (Result, error)
}

func (f Func) Name() string                             { return f.StageName }
func (f Func) Apply(rec *record.Record) (Result, error) { return f.Fn(rec) }

// Chain runs stages left to right. A built Chain is immutable and safe for
// concurrent use when its stages are.
type Chain struct {
	stages []Stage
}

// NewChain returns a chain of stages in the given order.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Stages returns a copy of the ordered stages.
func (c *Chain) Stages() []Stage {
	out := make([]Stage, len(c.stages))
	copy(out, c.stages)
	return out
}

// Names returns the ordered stage names.
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Process applies every stage in order. It short-circuits on error or when a
// stage returns Stop.
func (c *Chain) Process(rec *record.Record) (Result, error) {
	for _, s := range c.stages {
		res, err := s.Apply(rec)
		if err != nil {
			return Stop, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if res == Stop {
			metrics.StageStops.WithLabelValues(s.Name()).Inc()
			return Stop, nil
		}
	}
	return Continue, nil
}

const role = "stage"

var stages = registry.New[config.View](role)

// Register adds a stage factory. Stages are constructed per destination from
// its configuration view.
func Register(e registry.Entry[config.View]) { stages.Register(e) }

// Entries returns every registered stage, sorted by name.
func Entries() []registry.Entry[config.View] { return stages.Entries() }

// Names returns every registered stage name, sorted.
func Names() []string { return stages.Names() }
