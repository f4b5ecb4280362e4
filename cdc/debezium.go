package cdc

import (
	"fmt"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Debezium op codes.
const (
	opCreate = "c"
	opRead   = "r"
	opUpdate = "u"
	opDelete = "d"
)

func init() {
	Register(registry.Entry[config.View]{
		Name:        MongoDB,
		Description: "Debezium MongoDB connector envelope",
		Create:      func(config.View) (any, error) { return mongoHandler{}, nil },
	})
	for name, desc := range map[string]string{
		RDBMS:    "generic Debezium relational envelope",
		MySQL:    "Debezium MySQL connector envelope",
		Postgres: "Debezium PostgreSQL connector envelope",
	} {
		Register(registry.Entry[config.View]{
			Name:        name,
			Description: desc,
			Create:      func(config.View) (any, error) { return rdbmsHandler{}, nil },
		})
	}
}

func operation(rec *record.Record) (string, error) {
	v, ok := record.Lookup(rec.Value, "op")
	op, isString := v.(string)
	if !ok || !isString {
		return "", fmt.Errorf("%w: missing op field", ErrMalformedEvent)
	}
	switch op {
	case opCreate, opRead, opUpdate, opDelete:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, op)
}

// mongoHandler decodes the Debezium MongoDB envelope: the key holds the
// document id as an Extended JSON string in "id", the value holds the full
// document in "after" for inserts and the change in "patch" for updates.
type mongoHandler struct{}

func (mongoHandler) Decode(rec *record.Record) (mongo.WriteModel, error) {
	if rec.Value == nil {
		return nil, nil
	}
	op, err := operation(rec)
	if err != nil {
		return nil, err
	}

	switch op {
	case opCreate, opRead:
		doc, err := extJSONField(rec.Value, "after")
		if err != nil {
			return nil, err
		}
		id, ok := record.Lookup(doc, "_id")
		if !ok {
			return nil, fmt.Errorf("%w: after has no _id", ErrMalformedEvent)
		}
		return mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: id}}).
			SetReplacement(doc).
			SetUpsert(true), nil

	case opUpdate:
		patch, err := extJSONField(rec.Value, "patch")
		if err != nil {
			return nil, err
		}
		if id, ok := record.Lookup(patch, "_id"); ok {
			// a patch carrying _id is a full replacement
			return mongo.NewReplaceOneModel().
				SetFilter(bson.D{{Key: "_id", Value: id}}).
				SetReplacement(patch).
				SetUpsert(true), nil
		}
		id, err := mongoKeyID(rec.Key)
		if err != nil {
			return nil, err
		}
		return mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: id}}).
			SetUpdate(patch), nil

	default:
		id, err := mongoKeyID(rec.Key)
		if err != nil {
			return nil, err
		}
		return mongo.NewDeleteOneModel().SetFilter(bson.D{{Key: "_id", Value: id}}), nil
	}
}

// extJSONField parses the Extended JSON document held as a string in field.
func extJSONField(doc bson.D, field string) (bson.D, error) {
	v, ok := record.Lookup(doc, field)
	s, isString := v.(string)
	if !ok || !isString {
		return nil, fmt.Errorf("%w: %s must be an Extended JSON string", ErrMalformedEvent, field)
	}
	var out bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, field, err)
	}
	return out, nil
}

// mongoKeyID parses the "id" key field. Strings that are not a single
// Extended JSON value are used as plain strings.
func mongoKeyID(key bson.D) (any, error) {
	v, ok := record.Lookup(key, "id")
	if !ok {
		return nil, fmt.Errorf("%w: key has no id field", ErrMalformedEvent)
	}
	s, isString := v.(string)
	if !isString {
		return v, nil
	}
	var holder bson.D
	if err := bson.UnmarshalExtJSON([]byte(`{"id":`+s+`}`), false, &holder); err != nil || len(holder) != 1 {
		return s, nil
	}
	return holder[0].Value, nil
}

// rdbmsHandler decodes the Debezium relational envelope: "before" and
// "after" hold row documents and the key document identifies the row.
type rdbmsHandler struct{}

func (rdbmsHandler) Decode(rec *record.Record) (mongo.WriteModel, error) {
	if rec.Value == nil {
		return nil, nil
	}
	op, err := operation(rec)
	if err != nil {
		return nil, err
	}
	id, err := rowID(rec, op)
	if err != nil {
		return nil, err
	}
	filter := bson.D{{Key: "_id", Value: id}}

	if op == opDelete {
		return mongo.NewDeleteOneModel().SetFilter(filter), nil
	}
	after, ok := documentField(rec.Value, "after")
	if !ok {
		return nil, fmt.Errorf("%w: %s event without after", ErrMalformedEvent, op)
	}
	doc := make(bson.D, 0, len(after)+1)
	doc = append(doc, bson.E{Key: "_id", Value: id})
	doc = append(doc, record.Without(after, "_id")...)
	return mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(doc).SetUpsert(true), nil
}

// rowID is the key document, or the row image when the key is empty.
func rowID(rec *record.Record, op string) (bson.D, error) {
	if len(rec.Key) > 0 {
		return rec.Key, nil
	}
	field := "after"
	if op == opDelete {
		field = "before"
	}
	if row, ok := documentField(rec.Value, field); ok && len(row) > 0 {
		return row, nil
	}
	return nil, fmt.Errorf("%w: no key and no %s row to identify the document", ErrMalformedEvent, field)
}

func documentField(doc bson.D, field string) (bson.D, bool) {
	v, ok := record.Lookup(doc, field)
	if !ok {
		return nil, false
	}
	d, ok := v.(bson.D)
	return d, ok
}
