// Package registry provides the name-to-factory catalogs behind every
// pluggable role of a destination pipeline: stages, id strategies, write
// model strategies and CDC handlers. Implementations register via init() in
// their packages. The registry enables:
//   - Constructing implementations by configured name through factories
//   - Validating configured names against a predefined allow-list extended
//     by declared custom names
//   - The `docsink list` CLI command
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/sinkerr"
)

// Entry describes a registered implementation. Create receives the argument
// of the role's construction contract.
type Entry[A any] struct {
	Name        string
	Description string
	Create      func(arg A) (any, error)
}

// Registry is a catalog of factories sharing one construction contract.
type Registry[A any] struct {
	role    string
	mu      sync.RWMutex
	entries map[string]Entry[A]
}

// New returns an empty registry for role (e.g. "stage").
func New[A any](role string) *Registry[A] {
	return &Registry[A]{role: role, entries: make(map[string]Entry[A])}
}

// Role returns the role name used in errors.
func (r *Registry[A]) Role() string { return r.role }

// Register adds a factory. A later registration under the same name replaces
// the earlier one.
func (r *Registry[A]) Register(e Entry[A]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Name] = e
}

// Get returns the entry by name and whether it was found.
func (r *Registry[A]) Get(name string) (Entry[A], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Entries returns all registered entries, sorted by name.
func (r *Registry[A]) Entries() []Entry[A] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Entry[A], 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Names returns sorted names of all registered entries.
func (r *Registry[A]) Names() []string {
	entries := r.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Construct builds name through the registry's contract and checks that the
// result implements T. A name with no factory under this contract, or a
// factory returning something other than a T, is a ContractViolationError.
func Construct[T any, A any](r *Registry[A], name string, arg A) (T, error) {
	var zero T
	e, ok := r.Get(name)
	if !ok {
		return zero, &sinkerr.ContractViolationError{
			Role:   r.role,
			Name:   name,
			Reason: "no constructor registered for this construction contract",
		}
	}
	v, err := e.Create(arg)
	if err != nil {
		return zero, fmt.Errorf("construct %s %q: %w", r.role, name, err)
	}
	t, ok := v.(T)
	if !ok {
		return zero, &sinkerr.ContractViolationError{
			Role:   r.role,
			Name:   name,
			Reason: fmt.Sprintf("constructed %T does not implement %s", v, typeName[T]()),
		}
	}
	return t, nil
}

func typeName[T any]() string {
	return fmt.Sprintf("%T", (*T)(nil))[1:]
}

// NameSet is an allow-list of implementation names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Allow checks that name, configured through option for the view's
// destination, is in predefined or custom.
func Allow(v config.View, option, name string, predefined, custom NameSet) error {
	if predefined.Has(name) || custom.Has(name) {
		return nil
	}
	allowed := append(predefined.Sorted(), custom.Sorted()...)
	ce := &sinkerr.ConfigurationError{
		Option: option,
		Value:  name,
		Reason: fmt.Sprintf("unknown name, expected one of [%s]", strings.Join(allowed, ", ")),
	}
	if !v.IsDefault() {
		ce.Destination = v.Destination()
	}
	return ce
}

// Custom returns the declared custom names of the list option. Custom names
// are global: destination overrides of option are ignored.
func Custom(v config.View, option string) (NameSet, error) {
	names, err := v.Config().View(config.DefaultDestination).List(option)
	if err != nil {
		return nil, err
	}
	return NewNameSet(names...), nil
}
