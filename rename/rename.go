// Package rename parses the field renamer options and renames document
// fields by exact path or by regular expression.
package rename

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Mapping renames the field at a dotted path to a new field name.
type Mapping map[string]string

type mappingEntry struct {
	OldName string `bson:"oldName"`
	NewName string `bson:"newName"`
}

// RegExpRule renames every field whose dotted path fully matches Regexp by
// replacing occurrences of Pattern in the field name with Replace.
type RegExpRule struct {
	Regexp  string `bson:"regexp" json:"regexp" yaml:"regexp"`
	Pattern string `bson:"pattern" json:"pattern" yaml:"pattern"`
	Replace string `bson:"replace" json:"replace" yaml:"replace"`

	path    *regexp.Regexp
	pattern *regexp.Regexp
}

// RegExpRules apply in order; a later rule sees the name produced by an
// earlier one.
type RegExpRules []RegExpRule

// decodeArray decodes an inline Extended JSON array.
func decodeArray[T any](raw string) ([]T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var holder struct {
		Items bson.RawValue `bson:"items"`
	}
	if err := bson.UnmarshalExtJSON([]byte(`{"items":`+raw+`}`), false, &holder); err != nil {
		return nil, fmt.Errorf("malformed array: %w", err)
	}
	if holder.Items.Type != bson.TypeArray {
		return nil, fmt.Errorf("expected an array, got %s", holder.Items.Type)
	}
	var out []T
	if err := holder.Items.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("malformed array entry: %w", err)
	}
	return out, nil
}

// ParseMapping parses `[{"oldName":"a.b","newName":"c"}, ...]`.
func ParseMapping(raw string) (Mapping, error) {
	entries, err := decodeArray[mappingEntry](raw)
	if err != nil {
		return nil, err
	}
	m := make(Mapping, len(entries))
	for i, e := range entries {
		if e.OldName == "" || e.NewName == "" {
			return nil, fmt.Errorf("entry %d: oldName and newName are required", i)
		}
		m[e.OldName] = e.NewName
	}
	return m, nil
}

// ParseRegExp parses `[{"regexp":"^a\\..*","pattern":"_","replace":"-"}, ...]`.
func ParseRegExp(raw string) (RegExpRules, error) {
	rules, err := decodeArray[RegExpRule](raw)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		r := &rules[i]
		if r.Regexp == "" || r.Pattern == "" {
			return nil, fmt.Errorf("entry %d: regexp and pattern are required", i)
		}
		if r.path, err = regexp.Compile(`^(?:` + r.Regexp + `)$`); err != nil {
			return nil, fmt.Errorf("entry %d: regexp: %w", i, err)
		}
		if r.pattern, err = regexp.Compile(r.Pattern); err != nil {
			return nil, fmt.Errorf("entry %d: pattern: %w", i, err)
		}
	}
	return RegExpRules(rules), nil
}

// Rename returns a copy of doc with mapped fields renamed.
func (m Mapping) Rename(doc bson.D) bson.D {
	if len(m) == 0 || doc == nil {
		return doc
	}
	return walk(doc, "", func(path, name string) string {
		if n, ok := m[path]; ok {
			return n
		}
		return name
	})
}

// Rename returns a copy of doc with every matching field renamed.
func (rs RegExpRules) Rename(doc bson.D) bson.D {
	if len(rs) == 0 || doc == nil {
		return doc
	}
	return walk(doc, "", func(path, name string) string {
		for _, r := range rs {
			if r.path.MatchString(path) {
				name = r.pattern.ReplaceAllString(name, r.Replace)
			}
		}
		return name
	})
}

// walk renames fields depth first. Children are addressed by the original
// path of their parent.
func walk(doc bson.D, prefix string, rename func(path, name string) string) bson.D {
	out := make(bson.D, len(doc))
	for i, e := range doc {
		path := e.Key
		if prefix != "" {
			path = prefix + "." + e.Key
		}
		out[i] = bson.E{Key: rename(path, e.Key), Value: descend(e.Value, path, rename)}
	}
	return out
}

func descend(v any, path string, rename func(path, name string) string) any {
	switch t := v.(type) {
	case bson.D:
		return walk(t, path, rename)
	case bson.A:
		out := make(bson.A, len(t))
		for i, el := range t {
			out[i] = descend(el, path, rename)
		}
		return out
	}
	return v
}
