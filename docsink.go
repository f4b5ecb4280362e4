// Package docsink resolves, validates and assembles the per-destination
// processing artifacts of a record-to-document sink: the stage chain, the id
// strategy, the write model strategies, the rate limit policy and the
// optional CDC handler. It is the primary entry point for using docsink as a
// library.
package docsink

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/florinutz/docsink/cdc"
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
	"github.com/florinutz/docsink/metrics"
	"github.com/florinutz/docsink/ratelimit"
	"github.com/florinutz/docsink/sinkerr"
	"github.com/florinutz/docsink/stage"
	"github.com/florinutz/docsink/writemodel"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

// Destination holds the artifacts built for one destination. Everything but
// RateLimit is immutable and safe to share between workers; RateLimit calls
// must be serialized by the batch loop of the destination.
type Destination struct {
	Name       string
	Collection string

	Pipeline    *stage.Chain
	IDStrategy  idstrategy.Strategy
	WriteModel  writemodel.Strategy
	DeleteModel writemodel.Strategy // nil unless delete on null values is enabled
	RateLimit   *ratelimit.Policy
	CDC         cdc.Handler // nil when no handler is configured

	MaxBatchSize      int
	MaxRetries        int
	RetryDeferTimeout time.Duration
}

// Sink is the set of built destinations of one configuration.
type Sink struct {
	cfg          *config.Config
	logger       *slog.Logger
	database     string
	destinations map[string]*Destination
	order        []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger used while building.
// If not set, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = l
	}
}

// New builds every destination of cfg, the default destination first and
// then the declared ones in order. The first error aborts the build.
func New(cfg *config.Config, opts ...Option) (*Sink, error) {
	s := &Sink{
		cfg:          cfg,
		destinations: make(map[string]*Destination),
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "docsink")

	cs, err := connectionString(cfg.View(config.DefaultDestination))
	if err != nil {
		return nil, err
	}
	s.database = cs.Database

	names, err := cfg.Destinations()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		d, err := Build(cfg.View(name), s.logger)
		if err != nil {
			return nil, fmt.Errorf("destination %s: %w", name, err)
		}
		s.destinations[name] = d
		s.order = append(s.order, name)
		metrics.PipelinesBuilt.WithLabelValues(name).Inc()
		s.logger.Debug("destination built",
			"destination", name,
			"collection", d.Collection,
			"stages", d.Pipeline.Names(),
			"delete_on_null", d.DeleteModel != nil,
			"cdc", d.CDC != nil,
		)
	}
	s.logger.Info("sink built", "destinations", len(s.order), "database", s.database)
	return s, nil
}

// Build resolves the artifacts of the view's destination.
func Build(v config.View, logger *slog.Logger) (*Destination, error) {
	d := &Destination{Name: v.Destination()}

	collection, err := v.String(config.Collection)
	if err != nil {
		return nil, err
	}
	if collection == "" && !v.IsDefault() {
		collection = v.Destination()
	}
	d.Collection = collection

	if d.IDStrategy, err = idstrategy.Resolve(v); err != nil {
		return nil, err
	}
	if d.Pipeline, err = stage.Resolve(v); err != nil {
		return nil, err
	}
	if d.WriteModel, err = writemodel.Resolve(v); err != nil {
		return nil, err
	}
	if d.DeleteModel, err = writemodel.ResolveDelete(v, d.IDStrategy); err != nil {
		return nil, err
	}
	if d.RateLimit, err = ratelimit.FromView(v, logger); err != nil {
		return nil, err
	}
	if d.CDC, err = cdc.Resolve(v); err != nil {
		return nil, err
	}

	if d.MaxBatchSize, err = v.Int(config.MaxBatchSize); err != nil {
		return nil, err
	}
	if d.MaxRetries, err = v.Int(config.MaxNumRetries); err != nil {
		return nil, err
	}
	deferMs, err := v.Int(config.RetriesDeferTimeout)
	if err != nil {
		return nil, err
	}
	d.RetryDeferTimeout = time.Duration(deferMs) * time.Millisecond
	return d, nil
}

// Destination returns the artifacts of name, or those of the default
// destination when name was not declared.
func (s *Sink) Destination(name string) *Destination {
	if d, ok := s.destinations[name]; ok {
		return d
	}
	return s.destinations[config.DefaultDestination]
}

// Destinations returns the built destination names in build order.
func (s *Sink) Destinations() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Database returns the database named by the connection URI, if any.
func (s *Sink) Database() string { return s.database }

// Config returns the configuration the sink was built from.
func (s *Sink) Config() *config.Config { return s.cfg }

func connectionString(v config.View) (*connstring.ConnString, error) {
	uri, err := v.String(config.ConnectionURI)
	if err != nil {
		return nil, err
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		// the URI may carry credentials
		return nil, &sinkerr.ConfigurationError{Option: config.ConnectionURI, Value: "***", Err: err}
	}
	return cs, nil
}
