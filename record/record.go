// Package record defines the sink record handed through the stages of a
// destination pipeline.
package record

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Record is one consumed message. A nil Key or Value means the message had
// none (a tombstone has a Key and a nil Value).
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       bson.D
	Value     bson.D
}

// Coordinates returns "topic#partition#offset".
func (r *Record) Coordinates() string {
	return fmt.Sprintf("%s#%d#%d", r.Topic, r.Partition, r.Offset)
}

// Lookup returns the value of the top-level field key of doc.
func Lookup(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Set replaces the first field named key or, when absent, appends it.
func Set(doc bson.D, key string, value any) bson.D {
	for i, e := range doc {
		if e.Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

// Without returns a copy of doc minus every field named key.
func Without(doc bson.D, key string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key != key {
			out = append(out, e)
		}
	}
	return out
}
