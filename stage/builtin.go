package stage

import (
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
	"github.com/florinutz/docsink/projection"
	"github.com/florinutz/docsink/record"
	"github.com/florinutz/docsink/registry"
	"github.com/florinutz/docsink/rename"
	"github.com/florinutz/docsink/sinkerr"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Predefined stage names.
const (
	IdentityStage           = "document_id_adder"
	BlacklistValueProjector = "blacklist_value_projector"
	WhitelistValueProjector = "whitelist_value_projector"
	BlacklistKeyProjector   = "blacklist_key_projector"
	WhitelistKeyProjector   = "whitelist_key_projector"
	RenameByMapping         = "rename_by_mapping"
	RenameByRegExp          = "rename_by_regexp"
)

// Predefined is the built-in allow-list.
var Predefined = registry.NewNameSet(
	IdentityStage, BlacklistValueProjector, WhitelistValueProjector,
	BlacklistKeyProjector, WhitelistKeyProjector, RenameByMapping, RenameByRegExp,
)

func init() {
	Register(registry.Entry[config.View]{
		Name:        IdentityStage,
		Description: "sets _id on the value document using the destination id strategy",
		Create:      newDocumentIDAdder,
	})
	Register(registry.Entry[config.View]{
		Name:        BlacklistValueProjector,
		Description: "removes the value projection fields from the value document",
		Create:      projector(projection.Value, projection.Blacklist, BlacklistValueProjector),
	})
	Register(registry.Entry[config.View]{
		Name:        WhitelistValueProjector,
		Description: "keeps only the value projection fields of the value document",
		Create:      projector(projection.Value, projection.Whitelist, WhitelistValueProjector),
	})
	Register(registry.Entry[config.View]{
		Name:        BlacklistKeyProjector,
		Description: "removes the key projection fields from the key document",
		Create:      projector(projection.Key, projection.Blacklist, BlacklistKeyProjector),
	})
	Register(registry.Entry[config.View]{
		Name:        WhitelistKeyProjector,
		Description: "keeps only the key projection fields of the key document",
		Create:      projector(projection.Key, projection.Whitelist, WhitelistKeyProjector),
	})
	Register(registry.Entry[config.View]{
		Name:        RenameByMapping,
		Description: "renames key and value fields by exact path",
		Create:      newRenameByMapping,
	})
	Register(registry.Entry[config.View]{
		Name:        RenameByRegExp,
		Description: "renames key and value fields matching regular expressions",
		Create:      newRenameByRegExp,
	})
}

type documentIDAdder struct {
	ids idstrategy.Strategy
}

func newDocumentIDAdder(v config.View) (any, error) {
	s, err := idstrategy.Resolve(v)
	if err != nil {
		return nil, err
	}
	return &documentIDAdder{ids: s}, nil
}

func (*documentIDAdder) Name() string { return IdentityStage }

// Apply places the generated id first in the value document. Records without
// a value are passed through.
func (a *documentIDAdder) Apply(rec *record.Record) (Result, error) {
	if rec.Value == nil {
		return Continue, nil
	}
	id, err := a.ids.GenerateID(rec)
	if err != nil {
		return Stop, err
	}
	doc := make(bson.D, 0, len(rec.Value)+1)
	doc = append(doc, bson.E{Key: "_id", Value: id})
	rec.Value = append(doc, record.Without(rec.Value, "_id")...)
	return Continue, nil
}

// IDStrategy returns the strategy the stage assigns ids with.
func (a *documentIDAdder) IDStrategy() idstrategy.Strategy { return a.ids }

type projectorStage struct {
	name string
	p    *projection.Projector
}

func projector(target projection.Target, mode projection.Mode, name string) func(config.View) (any, error) {
	return func(v config.View) (any, error) {
		configured, fields, err := projection.Fields(v, target)
		if err != nil {
			return nil, err
		}
		if configured != mode {
			fields = nil
		}
		p, err := projection.New(v, fields, projection.Uses(target, mode), target, mode)
		if err != nil {
			return nil, err
		}
		return &projectorStage{name: name, p: p}, nil
	}
}

func (s *projectorStage) Name() string { return s.name }

func (s *projectorStage) Apply(rec *record.Record) (Result, error) {
	if s.p.Target() == projection.Key {
		rec.Key = s.p.Project(rec.Key)
	} else {
		rec.Value = s.p.Project(rec.Value)
	}
	return Continue, nil
}

type renamer interface {
	Rename(bson.D) bson.D
}

type renameStage struct {
	name string
	r    renamer
}

func newRenameByMapping(v config.View) (any, error) {
	raw, err := v.String(config.FieldRenamerMapping)
	if err != nil {
		return nil, err
	}
	m, err := rename.ParseMapping(raw)
	if err != nil {
		return nil, parseError(v, config.FieldRenamerMapping, raw, err)
	}
	return &renameStage{name: RenameByMapping, r: m}, nil
}

func newRenameByRegExp(v config.View) (any, error) {
	raw, err := v.String(config.FieldRenamerRegExp)
	if err != nil {
		return nil, err
	}
	rules, err := rename.ParseRegExp(raw)
	if err != nil {
		return nil, parseError(v, config.FieldRenamerRegExp, raw, err)
	}
	return &renameStage{name: RenameByRegExp, r: rules}, nil
}

func parseError(v config.View, option, raw string, err error) error {
	ce := &sinkerr.ConfigurationError{Option: option, Value: raw, Err: err}
	if !v.IsDefault() {
		ce.Destination = v.Destination()
	}
	return ce
}

func (s *renameStage) Name() string { return s.name }

func (s *renameStage) Apply(rec *record.Record) (Result, error) {
	rec.Key = s.r.Rename(rec.Key)
	rec.Value = s.r.Rename(rec.Value)
	return Continue, nil
}
