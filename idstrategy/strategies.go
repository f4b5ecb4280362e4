package idstrategy

import (
	"fmt"

	"github.com/florinutz/docsink/projection"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func init() {
	for _, e := range []registry.Entry[struct{}]{
		{Name: BSONObjectID, Description: "new BSON ObjectId per record", Create: noArg(bsonObjectID{})},
		{Name: UUID, Description: "random UUID string per record", Create: noArg(uuidString{})},
		{Name: KafkaMetaData, Description: "topic#partition#offset of the record", Create: noArg(kafkaMetaData{})},
		{Name: FullKey, Description: "the complete key document", Create: noArg(fullKey{})},
		{Name: ProvidedInKey, Description: "the _id field of the key document", Create: noArg(providedIn{fromKey: true})},
		{Name: ProvidedInValue, Description: "the _id field of the value document", Create: noArg(providedIn{})},
	} {
		Register(e)
	}
	RegisterProjected(registry.Entry[projection.FieldProjector]{
		Name:        PartialKey,
		Description: "projected copy of the key document",
		Create: func(p projection.FieldProjector) (any, error) {
			return partial{projector: p, fromKey: true}, nil
		},
	})
	RegisterProjected(registry.Entry[projection.FieldProjector]{
		Name:        PartialValue,
		Description: "projected copy of the value document",
		Create: func(p projection.FieldProjector) (any, error) {
			return partial{projector: p}, nil
		},
	})
}

func noArg(s Strategy) func(struct{}) (any, error) {
	return func(struct{}) (any, error) { return s, nil }
}

type bsonObjectID struct{}

func (bsonObjectID) GenerateID(*record.Record) (any, error) { return bson.NewObjectID(), nil }
func (bsonObjectID) strategyName() string                   { return BSONObjectID }

type uuidString struct{}

func (uuidString) GenerateID(*record.Record) (any, error) { return uuid.NewString(), nil }
func (uuidString) strategyName() string                   { return UUID }

type kafkaMetaData struct{}

func (kafkaMetaData) GenerateID(rec *record.Record) (any, error) { return rec.Coordinates(), nil }
func (kafkaMetaData) strategyName() string                       { return KafkaMetaData }

type fullKey struct{}

func (fullKey) GenerateID(rec *record.Record) (any, error) {
	if rec.Key == nil {
		return bson.D{}, nil
	}
	out := make(bson.D, len(rec.Key))
	copy(out, rec.Key)
	return out, nil
}
func (fullKey) KeyBearing() bool     { return true }
func (fullKey) strategyName() string { return FullKey }

type providedIn struct {
	fromKey bool
}

func (p providedIn) GenerateID(rec *record.Record) (any, error) {
	doc, which := rec.Value, "value"
	if p.fromKey {
		doc, which = rec.Key, "key"
	}
	id, ok := record.Lookup(doc, "_id")
	if !ok || id == nil {
		return nil, fmt.Errorf("%s of %s: %w", which, rec.Coordinates(), ErrMissingID)
	}
	return id, nil
}
func (p providedIn) KeyBearing() bool { return p.fromKey }
func (p providedIn) strategyName() string {
	if p.fromKey {
		return ProvidedInKey
	}
	return ProvidedInValue
}

type partial struct {
	projector projection.FieldProjector
	fromKey   bool
}

func (p partial) GenerateID(rec *record.Record) (any, error) {
	doc := rec.Value
	if p.fromKey {
		doc = rec.Key
	}
	if doc == nil {
		return bson.D{}, nil
	}
	return p.projector.Project(doc), nil
}
func (p partial) KeyBearing() bool { return p.fromKey }
func (p partial) strategyName() string {
	if p.fromKey {
		return PartialKey
	}
	return PartialValue
}
