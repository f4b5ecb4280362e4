// Package projection builds the field sets of key and value projections and
// the projectors that apply them to documents.
package projection

import (
	"sort"
	"strings"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/internal/fieldlist"
	"github.com/florinutz/docsink/sinkerr"
)

// Mode selects how a field set is applied.
type Mode string

const (
	None      Mode = "none"
	Blacklist Mode = "blacklist"
	Whitelist Mode = "whitelist"
)

// ParseMode maps a configured projection type onto a Mode, ignoring case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case None, Blacklist, Whitelist:
		return m, nil
	}
	return "", &sinkerr.ConfigurationError{Value: s, Err: sinkerr.ErrInvalidProjectionMode}
}

// FieldSet is a set of dotted field paths.
type FieldSet map[string]struct{}

// Has reports whether path is in the set.
func (s FieldSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the paths in lexical order.
func (s FieldSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// BuildList resolves raw into the field set of mode. A whitelist is closed
// under prefix truncation: "a.b.c" also adds "a.b" and "a".
func BuildList(mode Mode, raw string) (FieldSet, error) {
	set := FieldSet{}
	switch mode {
	case None:
		return set, nil
	case Blacklist:
		for _, f := range fieldlist.Split(raw) {
			set[f] = struct{}{}
		}
		return set, nil
	case Whitelist:
		for _, f := range fieldlist.Split(raw) {
			set[f] = struct{}{}
			for p := f; strings.Contains(p, "."); {
				p = p[:strings.LastIndex(p, ".")]
				if p != "" {
					set[p] = struct{}{}
				}
			}
		}
		return set, nil
	}
	return nil, &sinkerr.ConfigurationError{Value: string(mode), Err: sinkerr.ErrInvalidProjectionMode}
}

// Target is the record document a projection applies to.
type Target int

const (
	Key Target = iota
	Value
)

func (t Target) String() string {
	if t == Key {
		return "key"
	}
	return "value"
}

func (t Target) options() (typ, list string) {
	if t == Key {
		return config.KeyProjectionType, config.KeyProjectionList
	}
	return config.ValueProjectionType, config.ValueProjectionList
}

// Fields resolves the projection mode and field set configured for target.
func Fields(v config.View, target Target) (Mode, FieldSet, error) {
	typOpt, listOpt := target.options()
	typ, err := v.String(typOpt)
	if err != nil {
		return "", nil, err
	}
	mode, err := ParseMode(typ)
	if err != nil {
		return "", nil, withOption(err, typOpt, v)
	}
	raw, err := v.String(listOpt)
	if err != nil {
		return "", nil, err
	}
	set, err := BuildList(mode, raw)
	if err != nil {
		return "", nil, withOption(err, typOpt, v)
	}
	return mode, set, nil
}

// KeyFields resolves the key projection of the view's destination.
func KeyFields(v config.View) (Mode, FieldSet, error) { return Fields(v, Key) }

// ValueFields resolves the value projection of the view's destination.
func ValueFields(v config.View) (Mode, FieldSet, error) { return Fields(v, Value) }

// Uses returns a predicate reporting whether the view configures mode for
// target.
func Uses(target Target, mode Mode) Predicate {
	typOpt, _ := target.options()
	return func(v config.View) bool {
		typ, err := v.String(typOpt)
		if err != nil {
			return false
		}
		m, err := ParseMode(typ)
		return err == nil && m == mode
	}
}

func withOption(err error, option string, v config.View) error {
	ce, ok := err.(*sinkerr.ConfigurationError)
	if !ok {
		return err
	}
	ce.Option = option
	if !v.IsDefault() {
		ce.Destination = v.Destination()
	}
	return ce
}
