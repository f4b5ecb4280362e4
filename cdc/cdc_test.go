package cdc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"github.com/florinutz/docsink/sinkerr"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func handler(t *testing.T, name string) Handler {
	t.Helper()
	h, err := Resolve(config.New(config.Properties{config.ChangeDataCapture: name}).View(""))
	if err != nil {
		t.Fatalf("Resolve(%s): %v", name, err)
	}
	return h
}

func TestResolve_Disabled(t *testing.T) {
	h, err := Resolve(config.New(nil).View("orders"))
	if err != nil || h != nil {
		t.Fatalf("Resolve = %v, %v; want nil handler", h, err)
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve(config.New(config.Properties{config.ChangeDataCapture: "oracle"}).View(""))
	var ce *sinkerr.ConfigurationError
	if !errors.As(err, &ce) || ce.Option != config.ChangeDataCapture {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

type passthrough struct{}

func (passthrough) Decode(*record.Record) (mongo.WriteModel, error) { return nil, nil }

func TestResolve_Custom(t *testing.T) {
	Register(registry.Entry[config.View]{Name: "test.Passthrough", Create: func(config.View) (any, error) { return passthrough{}, nil }})
	props := config.Properties{
		config.ChangeDataCapture:      "test.Passthrough",
		config.ChangeDataCaptureNames: "test.Passthrough",
	}
	h, err := Resolve(config.New(props).View(""))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := h.(passthrough); !ok {
		t.Errorf("got %T", h)
	}

	// registered but not declared
	_, err = Resolve(config.New(config.Properties{config.ChangeDataCapture: "test.Passthrough"}).View(""))
	var ce *sinkerr.ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("undeclared custom handler: err = %v", err)
	}
}

func TestHandlers(t *testing.T) {
	cfg := config.New(config.Properties{
		config.Collections:                     "orders,users,orders",
		config.ChangeDataCapture + ".orders":   MongoDB,
		config.ChangeDataCapture + ".invoices": RDBMS,
	})
	hs, err := Handlers(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(hs) != 1 {
		t.Fatalf("handlers = %v", hs)
	}
	if _, ok := hs["orders"].(mongoHandler); !ok {
		t.Errorf("orders handler = %T", hs["orders"])
	}

	cfg = config.New(config.Properties{config.ChangeDataCapture: Postgres, config.Collections: "a"})
	hs, err = Handlers(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(hs) != 2 || hs[config.DefaultDestination] == nil || hs["a"] == nil {
		t.Errorf("handlers = %v", hs)
	}
}

func TestMongoHandler(t *testing.T) {
	h := handler(t, MongoDB)
	oid, _ := bson.ObjectIDFromHex("5f1e7a3b9d3e2a1b2c3d4e5f")
	key := bson.D{{Key: "id", Value: `{"$oid":"5f1e7a3b9d3e2a1b2c3d4e5f"}`}}

	insert := &record.Record{Key: key, Value: bson.D{
		{Key: "op", Value: "c"},
		{Key: "after", Value: `{"_id":{"$oid":"5f1e7a3b9d3e2a1b2c3d4e5f"},"name":"ada"}`},
	}}
	wm, err := h.Decode(insert)
	if err != nil {
		t.Fatal(err)
	}
	r := wm.(*mongo.ReplaceOneModel)
	if !reflect.DeepEqual(r.Filter, bson.D{{Key: "_id", Value: oid}}) {
		t.Errorf("insert filter = %v", r.Filter)
	}
	if !reflect.DeepEqual(r.Replacement, bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "ada"}}) {
		t.Errorf("insert replacement = %v", r.Replacement)
	}

	update := &record.Record{Key: key, Value: bson.D{
		{Key: "op", Value: "u"},
		{Key: "patch", Value: `{"$set":{"name":"grace"}}`},
	}}
	wm, err = h.Decode(update)
	if err != nil {
		t.Fatal(err)
	}
	u := wm.(*mongo.UpdateOneModel)
	if !reflect.DeepEqual(u.Filter, bson.D{{Key: "_id", Value: oid}}) {
		t.Errorf("update filter = %v", u.Filter)
	}
	if !reflect.DeepEqual(u.Update, bson.D{{Key: "$set", Value: bson.D{{Key: "name", Value: "grace"}}}}) {
		t.Errorf("update = %v", u.Update)
	}

	replace := &record.Record{Key: key, Value: bson.D{
		{Key: "op", Value: "u"},
		{Key: "patch", Value: `{"_id":{"$oid":"5f1e7a3b9d3e2a1b2c3d4e5f"},"name":"grace"}`},
	}}
	wm, err = h.Decode(replace)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := wm.(*mongo.ReplaceOneModel); !ok {
		t.Errorf("full patch should replace, got %T", wm)
	}

	del := &record.Record{Key: bson.D{{Key: "id", Value: "42"}}, Value: bson.D{{Key: "op", Value: "d"}}}
	wm, err = h.Decode(del)
	if err != nil {
		t.Fatal(err)
	}
	if d := wm.(*mongo.DeleteOneModel); !reflect.DeepEqual(d.Filter, bson.D{{Key: "_id", Value: int32(42)}}) {
		t.Errorf("delete filter = %v", d.Filter)
	}

	wm, err = h.Decode(&record.Record{Key: key})
	if err != nil || wm != nil {
		t.Errorf("tombstone = %v, %v", wm, err)
	}
}

func TestMongoHandler_DeleteKeyID(t *testing.T) {
	h := handler(t, MongoDB)
	oid, _ := bson.ObjectIDFromHex("5f1e7a3b9d3e2a1b2c3d4e5f")
	tests := []struct {
		name string
		id   any
		want any
	}{
		{"extended json", `{"$oid":"5f1e7a3b9d3e2a1b2c3d4e5f"}`, oid},
		{"number", "42", int32(42)},
		{"plain string", "abc", "abc"},
		{"extra fields", `1, "x": 2`, `1, "x": 2`},
		{"not a string", int64(7), int64(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &record.Record{Key: bson.D{{Key: "id", Value: tt.id}}, Value: bson.D{{Key: "op", Value: "d"}}}
			wm, err := h.Decode(rec)
			if err != nil {
				t.Fatal(err)
			}
			d, ok := wm.(*mongo.DeleteOneModel)
			if !ok {
				t.Fatalf("got %T, want *mongo.DeleteOneModel", wm)
			}
			if want := (bson.D{{Key: "_id", Value: tt.want}}); !reflect.DeepEqual(d.Filter, want) {
				t.Errorf("filter = %v, want %v", d.Filter, want)
			}
		})
	}
}

func TestMongoHandler_Errors(t *testing.T) {
	h := handler(t, MongoDB)
	tests := []struct {
		name string
		rec  *record.Record
		want error
	}{
		{"missing op", &record.Record{Value: bson.D{}}, ErrMalformedEvent},
		{"unknown op", &record.Record{Value: bson.D{{Key: "op", Value: "x"}}}, ErrUnknownOperation},
		{"bad after", &record.Record{Value: bson.D{{Key: "op", Value: "c"}, {Key: "after", Value: "{"}}}, ErrMalformedEvent},
		{"after not string", &record.Record{Value: bson.D{{Key: "op", Value: "r"}, {Key: "after", Value: bson.D{}}}}, ErrMalformedEvent},
		{"delete without key", &record.Record{Value: bson.D{{Key: "op", Value: "d"}}}, ErrMalformedEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Decode(tt.rec); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRdbmsHandlers(t *testing.T) {
	key := bson.D{{Key: "id", Value: int32(1)}}
	for _, name := range []string{RDBMS, MySQL, Postgres} {
		t.Run(name, func(t *testing.T) {
			h := handler(t, name)

			wm, err := h.Decode(&record.Record{Key: key, Value: bson.D{
				{Key: "op", Value: "c"},
				{Key: "before", Value: nil},
				{Key: "after", Value: bson.D{{Key: "id", Value: int32(1)}, {Key: "name", Value: "ada"}}},
			}})
			if err != nil {
				t.Fatal(err)
			}
			r := wm.(*mongo.ReplaceOneModel)
			if !reflect.DeepEqual(r.Filter, bson.D{{Key: "_id", Value: key}}) {
				t.Errorf("filter = %v", r.Filter)
			}
			want := bson.D{{Key: "_id", Value: key}, {Key: "id", Value: int32(1)}, {Key: "name", Value: "ada"}}
			if !reflect.DeepEqual(r.Replacement, want) {
				t.Errorf("replacement = %v", r.Replacement)
			}

			wm, err = h.Decode(&record.Record{Value: bson.D{
				{Key: "op", Value: "d"},
				{Key: "before", Value: bson.D{{Key: "id", Value: int32(2)}}},
			}})
			if err != nil {
				t.Fatal(err)
			}
			d := wm.(*mongo.DeleteOneModel)
			if !reflect.DeepEqual(d.Filter, bson.D{{Key: "_id", Value: bson.D{{Key: "id", Value: int32(2)}}}}) {
				t.Errorf("delete filter = %v", d.Filter)
			}

			if _, err := h.Decode(&record.Record{Key: key, Value: bson.D{{Key: "op", Value: "u"}}}); !errors.Is(err, ErrMalformedEvent) {
				t.Errorf("update without after: err = %v", err)
			}
		})
	}
}
