package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/florinutz/docsink/internal/fieldlist"
)

// qualifiedName matches ident(.ident)*.
var qualifiedName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// FieldError is a validation failure attached to one option.
type FieldError struct {
	Option      string `json:"option"`
	Destination string `json:"destination,omitempty"`
	Message     string `json:"message"`
	Err         error  `json:"-"`
}

func (e FieldError) Error() string {
	if e.Destination != "" {
		return fmt.Sprintf("%s (destination %s): %s", e.Option, e.Destination, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Option, e.Message)
}

func (e FieldError) Unwrap() error { return e.Err }

// ValidateOptions checks the type and rules of every declared option, both
// the global value and each override present for a declared destination.
func (c *Config) ValidateOptions() []FieldError {
	var errs []FieldError

	var destinations []string
	if raw, _, err := c.Raw(Collections, DefaultDestination); err == nil {
		destinations = fieldlist.Unique(raw)
	}

	for _, spec := range schema {
		raw, _, _ := c.Raw(spec.Name, DefaultDestination)
		if err := checkValue(spec, raw); err != nil {
			errs = append(errs, FieldError{Option: spec.Name, Message: err.Error(), Err: configError(spec.Name, "", raw, err)})
		}
		for _, d := range destinations {
			if isDefault(d) {
				continue
			}
			v, ok := c.src.Lookup(overrideKey(spec.Name, d))
			if !ok {
				continue
			}
			if err := checkValue(spec, v); err != nil {
				errs = append(errs, FieldError{Option: spec.Name, Destination: d, Message: err.Error(), Err: configError(spec.Name, d, v, err)})
			}
		}
	}
	return errs
}

// checkValue applies the declared type and validation rules to a raw value.
func checkValue(spec ParamSpec, raw string) error {
	switch spec.Type {
	case "int":
		if _, err := parseInt(raw); err != nil {
			return err
		}
	case "bool":
		if _, err := parseBool(raw); err != nil {
			return err
		}
	}
	for _, rule := range spec.Validations {
		if err := applyRule(rule, raw); err != nil {
			return err
		}
	}
	return nil
}

// applyRule applies a single validation rule string to a raw value.
func applyRule(rule, raw string) error {
	name, arg, _ := strings.Cut(rule, ":")

	switch name {
	case "min":
		limit, err := strconv.Atoi(arg)
		if err != nil {
			return nil
		}
		n, err := parseInt(raw)
		if err != nil {
			return err
		}
		if n < limit {
			return fmt.Errorf("value must be at least %d, got %d", limit, n)
		}

	case "enum":
		for _, a := range strings.Split(arg, ",") {
			if raw == strings.ToLower(a) || raw == strings.ToUpper(a) {
				return nil
			}
		}
		return fmt.Errorf("invalid enumerator, expected one of [%s]", arg)

	case "name":
		if raw == "" {
			return nil
		}
		if !qualifiedName.MatchString(raw) {
			return fmt.Errorf("does not match %s", qualifiedName)
		}

	case "names":
		for _, n := range fieldlist.Split(raw) {
			if !qualifiedName.MatchString(n) {
				return fmt.Errorf("entry %q does not match %s", n, qualifiedName)
			}
		}
	}
	return nil
}
