// Package writemodel turns processed records into MongoDB write models.
package writemodel

import (
	"errors"
	"fmt"
	"time"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"github.com/florinutz/docsink/sinkerr"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Strategy builds the write model of a processed record.
type Strategy interface {
	CreateWriteModel(rec *record.Record) (mongo.WriteModel, error)
}

// Predefined strategy names.
const (
	ReplaceOneDefault     = "replace_one_default"
	ReplaceOneBusinessKey = "replace_one_business_key"
	UpdateOneTimestamps   = "update_one_timestamps"
	DeleteOneDefault      = "delete_one_default"
)

// Timestamp fields maintained by update_one_timestamps.
const (
	FieldModifiedTS = "_modifiedTS"
	FieldInsertedTS = "_insertedTS"
)

// Predefined is the built-in allow-list.
var Predefined = registry.NewNameSet(ReplaceOneDefault, ReplaceOneBusinessKey, UpdateOneTimestamps, DeleteOneDefault)

var (
	// ErrNoValue is returned for records without a value document.
	ErrNoValue = errors.New("record has no value document")
	// ErrNoID is returned when the value document carries no usable _id.
	ErrNoID = errors.New("value document has no usable _id")
)

const role = "write model strategy"

var (
	plain   = registry.New[struct{}](role)
	deletes = registry.New[idstrategy.Strategy](role)

	now = time.Now
)

// Register adds a strategy constructed without arguments.
func Register(e registry.Entry[struct{}]) { plain.Register(e) }

// RegisterDelete adds a delete strategy constructed from an id strategy.
func RegisterDelete(e registry.Entry[idstrategy.Strategy]) { deletes.Register(e) }

// Names returns every registered strategy name, sorted.
func Names() []string {
	set := registry.NewNameSet(plain.Names()...)
	for _, n := range deletes.Names() {
		set[n] = struct{}{}
	}
	return set.Sorted()
}

// Descriptions maps registered names to their descriptions.
func Descriptions() map[string]string {
	out := make(map[string]string)
	for _, e := range plain.Entries() {
		out[e.Name] = e.Description
	}
	for _, e := range deletes.Entries() {
		out[e.Name] = e.Description
	}
	return out
}

func known() registry.NameSet { return registry.NewNameSet(Names()...) }

// Resolve returns the write model strategy configured for the view's
// destination.
func Resolve(v config.View) (Strategy, error) {
	name, err := v.String(config.WriteModelStrategy)
	if err != nil {
		return nil, err
	}
	if err := registry.Allow(v, config.WriteModelStrategy, name, Predefined, known()); err != nil {
		return nil, err
	}
	return registry.Construct[Strategy](plain, name, struct{}{})
}

// ResolveDelete returns the delete strategy of a destination with delete on
// null values enabled, or nil when it is disabled. The id strategy must be
// key bearing.
func ResolveDelete(v config.View, ids idstrategy.Strategy) (Strategy, error) {
	enabled, err := v.Bool(config.DeleteOnNullValues)
	if err != nil || !enabled {
		return nil, err
	}
	if !idstrategy.IsKeyBearing(ids) {
		return nil, &sinkerr.CompatibilityError{
			Option:      config.DeleteOnNullValues,
			Conflicts:   config.DocumentIDStrategy,
			Destination: v.Destination(),
			Reason: fmt.Sprintf("%s can only be applied with %s, %s or %s",
				DeleteOneDefault, idstrategy.FullKey, idstrategy.PartialKey, idstrategy.ProvidedInKey),
		}
	}
	return registry.Construct[Strategy](deletes, DeleteOneDefault, ids)
}

func init() {
	Register(registry.Entry[struct{}]{
		Name:        ReplaceOneDefault,
		Description: "replace the document with the same _id, inserting when absent",
		Create:      func(struct{}) (any, error) { return replaceOneDefault{}, nil },
	})
	Register(registry.Entry[struct{}]{
		Name:        ReplaceOneBusinessKey,
		Description: "replace the document matching the fields of _id, inserting when absent",
		Create:      func(struct{}) (any, error) { return replaceOneBusinessKey{}, nil },
	})
	Register(registry.Entry[struct{}]{
		Name:        UpdateOneTimestamps,
		Description: "upsert the value fields and maintain inserted and modified timestamps",
		Create:      func(struct{}) (any, error) { return updateOneTimestamps{}, nil },
	})
	RegisterDelete(registry.Entry[idstrategy.Strategy]{
		Name:        DeleteOneDefault,
		Description: "delete the document whose _id the id strategy derives from the key",
		Create: func(ids idstrategy.Strategy) (any, error) {
			if ids == nil {
				return nil, errors.New("nil id strategy")
			}
			return deleteOneDefault{ids: ids}, nil
		},
	})
}

func valueID(rec *record.Record) (any, error) {
	if rec.Value == nil {
		return nil, ErrNoValue
	}
	id, ok := record.Lookup(rec.Value, "_id")
	if !ok || id == nil {
		return nil, ErrNoID
	}
	return id, nil
}

type replaceOneDefault struct{}

func (replaceOneDefault) CreateWriteModel(rec *record.Record) (mongo.WriteModel, error) {
	id, err := valueID(rec)
	if err != nil {
		return nil, err
	}
	return mongo.NewReplaceOneModel().
		SetFilter(bson.D{{Key: "_id", Value: id}}).
		SetReplacement(rec.Value).
		SetUpsert(true), nil
}

type replaceOneBusinessKey struct{}

func (replaceOneBusinessKey) CreateWriteModel(rec *record.Record) (mongo.WriteModel, error) {
	id, err := valueID(rec)
	if err != nil {
		return nil, err
	}
	key, ok := id.(bson.D)
	if !ok {
		return nil, fmt.Errorf("%w: business key _id must be a document, got %T", ErrNoID, id)
	}
	return mongo.NewReplaceOneModel().
		SetFilter(key).
		SetReplacement(record.Without(rec.Value, "_id")).
		SetUpsert(true), nil
}

type updateOneTimestamps struct{}

func (updateOneTimestamps) CreateWriteModel(rec *record.Record) (mongo.WriteModel, error) {
	id, err := valueID(rec)
	if err != nil {
		return nil, err
	}
	ts := bson.NewDateTimeFromTime(now())
	set := append(record.Without(rec.Value, "_id"), bson.E{Key: FieldModifiedTS, Value: ts})
	return mongo.NewUpdateOneModel().
		SetFilter(bson.D{{Key: "_id", Value: id}}).
		SetUpdate(bson.D{
			{Key: "$set", Value: set},
			{Key: "$setOnInsert", Value: bson.D{{Key: FieldInsertedTS, Value: ts}}},
		}).
		SetUpsert(true), nil
}

type deleteOneDefault struct {
	ids idstrategy.Strategy
}

func (d deleteOneDefault) CreateWriteModel(rec *record.Record) (mongo.WriteModel, error) {
	id, err := d.ids.GenerateID(rec)
	if err != nil {
		return nil, err
	}
	return mongo.NewDeleteOneModel().SetFilter(bson.D{{Key: "_id", Value: id}}), nil
}
