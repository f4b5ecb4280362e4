// Package cdc decodes change data capture envelopes into MongoDB write
// models.
package cdc

import (
	"errors"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Handler decodes one change event. A nil model with a nil error means there
// is nothing to write, as for tombstones.
type Handler interface {
	Decode(rec *record.Record) (mongo.WriteModel, error)
}

// Predefined handler names.
const (
	MongoDB  = "mongodb"
	RDBMS    = "rdbms"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// Predefined is the built-in allow-list.
var Predefined = registry.NewNameSet(MongoDB, RDBMS, MySQL, Postgres)

var (
	// ErrUnknownOperation is returned for an unsupported op code.
	ErrUnknownOperation = errors.New("unknown cdc operation")
	// ErrMalformedEvent is returned when an envelope lacks a required part.
	ErrMalformedEvent = errors.New("malformed cdc event")
)

var handlers = registry.New[config.View]("cdc handler")

// Register adds a handler factory.
func Register(e registry.Entry[config.View]) { handlers.Register(e) }

// Names returns every registered handler name, sorted.
func Names() []string { return handlers.Names() }

// Entries returns every registered handler, sorted by name.
func Entries() []registry.Entry[config.View] { return handlers.Entries() }

// Resolve returns the handler configured for the view's destination, or nil
// when no handler name is configured.
func Resolve(v config.View) (Handler, error) {
	name, err := v.String(config.ChangeDataCapture)
	if err != nil || name == "" {
		return nil, err
	}
	custom, err := registry.Custom(v, config.ChangeDataCaptureNames)
	if err != nil {
		return nil, err
	}
	if err := registry.Allow(v, config.ChangeDataCapture, name, Predefined, custom); err != nil {
		return nil, err
	}
	return registry.Construct[Handler](handlers, name, v)
}

// Handlers maps every destination that enables a handler, the default
// destination included, to its handler. A destination listed twice keeps
// its last resolution.
func Handlers(cfg *config.Config) (map[string]Handler, error) {
	destinations, err := cfg.Destinations()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Handler, len(destinations))
	for _, d := range destinations {
		h, err := Resolve(cfg.View(d))
		if err != nil {
			return nil, err
		}
		if h != nil {
			out[d] = h
		}
	}
	return out, nil
}
