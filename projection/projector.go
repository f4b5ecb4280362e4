package projection

import (
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/sinkerr"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FieldProjector projects a document onto a field set.
type FieldProjector interface {
	Project(doc bson.D) bson.D
}

// Predicate decides, from the destination's configuration, whether a
// projector is active.
type Predicate func(config.View) bool

// Projector is a blacklist or whitelist projection of the key or value
// document.
type Projector struct {
	fields  FieldSet
	target  Target
	mode    Mode
	enabled bool
}

// New returns the projector of mode over fields for target. The predicate is
// evaluated once against v; an inactive projector returns documents
// unchanged. A nil predicate is always active.
func New(v config.View, fields FieldSet, predicate Predicate, target Target, mode Mode) (*Projector, error) {
	if mode != Blacklist && mode != Whitelist {
		return nil, &sinkerr.ConfigurationError{Value: string(mode), Err: sinkerr.ErrInvalidProjectionMode}
	}
	if fields == nil {
		fields = FieldSet{}
	}
	return &Projector{
		fields:  fields,
		target:  target,
		mode:    mode,
		enabled: predicate == nil || predicate(v),
	}, nil
}

// Target returns the document the projector applies to.
func (p *Projector) Target() Target { return p.target }

// Mode returns Blacklist or Whitelist.
func (p *Projector) Mode() Mode { return p.mode }

// Enabled reports whether the predicate held at construction.
func (p *Projector) Enabled() bool { return p.enabled }

// Project returns a projected copy of doc.
func (p *Projector) Project(doc bson.D) bson.D {
	if !p.enabled || doc == nil {
		return doc
	}
	if p.mode == Blacklist {
		return p.blacklist(doc, "")
	}
	return p.whitelist(doc, "")
}

// blacklist drops path p when p or "<parent>.*" is listed.
func (p *Projector) blacklist(doc bson.D, prefix string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		path := join(prefix, e.Key)
		if p.fields.Has(path) || p.fields.Has(join(prefix, "*")) {
			continue
		}
		e.Value = descend(e.Value, path, p.blacklist)
		out = append(out, e)
	}
	return out
}

// whitelist keeps path p when p or "<parent>.*" is listed, and keeps the
// whole subtree below p when "p.**" is listed. The top-level _id always
// survives.
func (p *Projector) whitelist(doc bson.D, prefix string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		path := join(prefix, e.Key)
		switch {
		case prefix == "" && e.Key == "_id", p.fields.Has(join(path, "**")):
			out = append(out, e)
		case p.fields.Has(path) || p.fields.Has(join(prefix, "*")):
			e.Value = descend(e.Value, path, p.whitelist)
			out = append(out, e)
		}
	}
	return out
}

// descend applies f to nested documents, including documents held in
// arrays. Array elements share the path of the array field.
func descend(v any, path string, f func(bson.D, string) bson.D) any {
	switch t := v.(type) {
	case bson.D:
		return f(t, path)
	case bson.A:
		out := make(bson.A, len(t))
		for i, el := range t {
			out[i] = descend(el, path, f)
		}
		return out
	}
	return v
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
