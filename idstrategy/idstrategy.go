// Package idstrategy generates the _id of sink documents.
package idstrategy

import (
	"errors"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/projection"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"github.com/florinutz/docsink/sinkerr"
)

// Strategy generates the document id of a record.
type Strategy interface {
	GenerateID(rec *record.Record) (any, error)
}

// KeyBearing is implemented by strategies whose id is derived from the record
// key. Delete write models require one.
type KeyBearing interface {
	KeyBearing() bool
}

// Predefined strategy names.
const (
	BSONObjectID    = "bson_oid"
	FullKey         = "full_key"
	KafkaMetaData   = "kafka_meta_data"
	PartialKey      = "partial_key"
	PartialValue    = "partial_value"
	ProvidedInKey   = "provided_in_key"
	ProvidedInValue = "provided_in_value"
	UUID            = "uuid"
)

// Predefined is the built-in allow-list.
var Predefined = registry.NewNameSet(
	BSONObjectID, FullKey, KafkaMetaData, PartialKey,
	PartialValue, ProvidedInKey, ProvidedInValue, UUID,
)

// ErrMissingID is returned when a provided id strategy finds no _id.
var ErrMissingID = errors.New("no _id field")

const role = "id strategy"

var (
	plain     = registry.New[struct{}](role)
	projected = registry.New[projection.FieldProjector](role)
)

// Register adds a strategy constructed without arguments.
func Register(e registry.Entry[struct{}]) { plain.Register(e) }

// RegisterProjected adds a strategy constructed from a key projector.
func RegisterProjected(e registry.Entry[projection.FieldProjector]) { projected.Register(e) }

// Names returns every registered strategy name, sorted.
func Names() []string {
	seen := registry.NewNameSet(plain.Names()...)
	for _, n := range projected.Names() {
		seen[n] = struct{}{}
	}
	return seen.Sorted()
}

// Descriptions maps registered names to their descriptions.
func Descriptions() map[string]string {
	out := make(map[string]string)
	for _, e := range plain.Entries() {
		out[e.Name] = e.Description
	}
	for _, e := range projected.Entries() {
		out[e.Name] = e.Description
	}
	return out
}

// Resolve returns the id strategy configured for the view's destination.
func Resolve(v config.View) (Strategy, error) {
	name, err := v.String(config.DocumentIDStrategy)
	if err != nil {
		return nil, err
	}
	custom, err := registry.Custom(v, config.DocumentIDStrategies)
	if err != nil {
		return nil, err
	}
	if err := registry.Allow(v, config.DocumentIDStrategy, name, Predefined, custom); err != nil {
		return nil, err
	}
	if isPartial(name) {
		p, err := KeyProjector(v)
		if err != nil {
			return nil, err
		}
		return registry.Construct[Strategy, projection.FieldProjector](projected, name, p)
	}
	return registry.Construct[Strategy, struct{}](plain, name, struct{}{})
}

func isPartial(name string) bool {
	return name == PartialKey || name == PartialValue
}

// KeyProjector selects the projector of a partial id strategy: the key
// projection mode picks blacklist or whitelist and the strategy picks the key
// or value document. The projection fields come from the key projection list.
func KeyProjector(v config.View) (*projection.Projector, error) {
	name, err := v.String(config.DocumentIDStrategy)
	if err != nil {
		return nil, err
	}
	mode, fields, err := projection.KeyFields(v)
	if err != nil {
		return nil, err
	}

	var target projection.Target
	switch name {
	case PartialKey:
		target = projection.Key
	case PartialValue:
		target = projection.Value
	default:
		return nil, invalidKeyProjection(v, mode)
	}
	if mode != projection.Blacklist && mode != projection.Whitelist {
		return nil, invalidKeyProjection(v, mode)
	}
	return projection.New(v, fields, projection.Uses(projection.Key, mode), target, mode)
}

func invalidKeyProjection(v config.View, mode projection.Mode) error {
	ce := &sinkerr.ConfigurationError{
		Option: config.KeyProjectionType,
		Value:  string(mode),
		Err:    sinkerr.ErrInvalidKeyProjection,
	}
	if !v.IsDefault() {
		ce.Destination = v.Destination()
	}
	return ce
}

// IsKeyBearing reports whether s derives ids from the record key.
func IsKeyBearing(s Strategy) bool {
	kb, ok := s.(KeyBearing)
	return ok && kb.KeyBearing()
}

// Named returns the registered name of a predefined strategy, or "" for a
// custom one.
func Named(s Strategy) string {
	if n, ok := s.(interface{ strategyName() string }); ok {
		return n.strategyName()
	}
	return ""
}
