// Package config resolves connector options for a destination. A value is
// looked up as a destination override first and falls back to the shared
// default, then to the declared default of the option.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/florinutz/docsink/internal/fieldlist"
	"github.com/florinutz/docsink/sinkerr"
)

// Source supplies raw property values by key.
type Source interface {
	Lookup(key string) (string, bool)
}

// Properties is an in-memory Source.
type Properties map[string]string

// Lookup implements Source.
func (p Properties) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Config resolves options against a Source. It holds no resolved state: every
// call reads the source again.
type Config struct {
	src Source
}

// New returns a Config reading from src.
func New(src Source) *Config {
	if src == nil {
		src = Properties{}
	}
	return &Config{src: src}
}

// overrideKey returns the property key of option for destination.
func overrideKey(option, destination string) string {
	return option + "." + destination
}

func isDefault(destination string) bool {
	return destination == "" || destination == DefaultDestination
}

// Raw returns the unvalidated value of option for destination and whether it
// came from an explicit property (override or global) rather than the
// declared default.
func (c *Config) Raw(option, destination string) (string, bool, error) {
	spec, ok := Lookup(option)
	if !ok {
		return "", false, &sinkerr.ConfigurationError{Option: option, Reason: "unknown option"}
	}
	if !isDefault(destination) {
		if v, ok := c.src.Lookup(overrideKey(option, destination)); ok {
			return v, true, nil
		}
	}
	if v, ok := c.src.Lookup(option); ok {
		return v, true, nil
	}
	return spec.Default, false, nil
}

func (c *Config) resolve(option, destination string) (string, ParamSpec, error) {
	raw, _, err := c.Raw(option, destination)
	if err != nil {
		return "", ParamSpec{}, err
	}
	spec, _ := Lookup(option)
	if err := checkValue(spec, raw); err != nil {
		return "", spec, configError(option, destination, raw, err)
	}
	return raw, spec, nil
}

// String resolves a string option.
func (c *Config) String(option, destination string) (string, error) {
	v, _, err := c.resolve(option, destination)
	return v, err
}

// Int resolves an integer option.
func (c *Config) Int(option, destination string) (int, error) {
	v, _, err := c.resolve(option, destination)
	if err != nil {
		return 0, err
	}
	n, err := parseInt(v)
	if err != nil {
		return 0, configError(option, destination, v, err)
	}
	return n, nil
}

// Bool resolves a boolean option.
func (c *Config) Bool(option, destination string) (bool, error) {
	v, _, err := c.resolve(option, destination)
	if err != nil {
		return false, err
	}
	b, err := parseBool(v)
	if err != nil {
		return false, configError(option, destination, v, err)
	}
	return b, nil
}

// List resolves a comma separated option into its non-empty tokens.
func (c *Config) List(option, destination string) ([]string, error) {
	v, err := c.String(option, destination)
	if err != nil {
		return nil, err
	}
	return fieldlist.Split(v), nil
}

// Destinations returns the default destination followed by every declared
// destination, de-duplicated in declaration order.
func (c *Config) Destinations() ([]string, error) {
	v, err := c.String(Collections, DefaultDestination)
	if err != nil {
		return nil, err
	}
	out := []string{DefaultDestination}
	for _, d := range fieldlist.Unique(v) {
		if d == DefaultDestination {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// View binds the Config to one destination.
func (c *Config) View(destination string) View {
	if destination == "" {
		destination = DefaultDestination
	}
	return View{cfg: c, destination: destination}
}

func configError(option, destination, value string, err error) error {
	ce := &sinkerr.ConfigurationError{Option: option, Value: value, Err: err}
	if !isDefault(destination) {
		ce.Destination = destination
	}
	return ce
}

func parseInt(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("expected an integer")
	}
	return n, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false")
}

// View is the configuration seen by one destination.
type View struct {
	cfg         *Config
	destination string
}

// Destination returns the destination the view resolves for.
func (v View) Destination() string { return v.destination }

// Config returns the underlying Config.
func (v View) Config() *Config { return v.cfg }

// IsDefault reports whether the view is the shared default.
func (v View) IsDefault() bool { return v.destination == DefaultDestination }

// String resolves a string option for the view's destination.
func (v View) String(option string) (string, error) { return v.cfg.String(option, v.destination) }

// Int resolves an integer option for the view's destination.
func (v View) Int(option string) (int, error) { return v.cfg.Int(option, v.destination) }

// Bool resolves a boolean option for the view's destination.
func (v View) Bool(option string) (bool, error) { return v.cfg.Bool(option, v.destination) }

// List resolves a list option for the view's destination.
func (v View) List(option string) ([]string, error) { return v.cfg.List(option, v.destination) }
