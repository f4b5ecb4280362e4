package docsink

import (
	"github.com/florinutz/docsink/cdc"
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
	"github.com/florinutz/docsink/metrics"
	"github.com/florinutz/docsink/projection"
	"github.com/florinutz/docsink/rename"
	"github.com/florinutz/docsink/sinkerr"
	"github.com/florinutz/docsink/stage"
	"github.com/florinutz/docsink/writemodel"
)

// optionValidator checks one option against the default destination.
type optionValidator struct {
	option string
	check  func(v config.View) error
}

var validators = []optionValidator{
	{config.ConnectionURI, func(v config.View) error {
		_, err := connectionString(v)
		return err
	}},
	{config.KeyProjectionType, func(v config.View) error {
		_, _, err := projection.KeyFields(v)
		return err
	}},
	{config.ValueProjectionType, func(v config.View) error {
		_, _, err := projection.ValueFields(v)
		return err
	}},
	{config.FieldRenamerMapping, func(v config.View) error {
		return parseOption(v, config.FieldRenamerMapping, func(raw string) error {
			_, err := rename.ParseMapping(raw)
			return err
		})
	}},
	{config.FieldRenamerRegExp, func(v config.View) error {
		return parseOption(v, config.FieldRenamerRegExp, func(raw string) error {
			_, err := rename.ParseRegExp(raw)
			return err
		})
	}},
	{config.PostProcessorChain, func(v config.View) error {
		_, err := stage.Resolve(v)
		return err
	}},
	{config.ChangeDataCapture, func(v config.View) error {
		_, err := cdc.Resolve(v)
		return err
	}},
	{config.DocumentIDStrategy, func(v config.View) error {
		_, err := idstrategy.Resolve(v)
		return err
	}},
	{config.WriteModelStrategy, func(v config.View) error {
		_, err := writemodel.Resolve(v)
		return err
	}},
	{config.DeleteOnNullValues, func(v config.View) error {
		ids, err := idstrategy.Resolve(v)
		if err != nil {
			// reported by the id strategy validator
			return nil
		}
		_, err = writemodel.ResolveDelete(v, ids)
		return err
	}},
}

func parseOption(v config.View, option string, parse func(string) error) error {
	raw, err := v.String(option)
	if err != nil {
		return err
	}
	if err := parse(raw); err != nil {
		return &sinkerr.ConfigurationError{Option: option, Value: raw, Err: err}
	}
	return nil
}

// ValidateAll checks every recognised option of src without retaining any
// built component. It reports at most one error per option and never stops
// at the first failure.
func ValidateAll(src config.Source) []config.FieldError {
	cfg := config.New(src)
	errs := cfg.ValidateOptions()

	failed := make(map[string]bool, len(errs))
	for _, e := range errs {
		if e.Destination == "" {
			failed[e.Option] = true
		}
	}

	v := cfg.View(config.DefaultDestination)
	for _, val := range validators {
		if failed[val.option] {
			continue
		}
		if err := val.check(v); err != nil {
			errs = append(errs, config.FieldError{Option: val.option, Message: err.Error(), Err: err})
			failed[val.option] = true
		}
	}

	for _, e := range errs {
		metrics.ValidationErrors.WithLabelValues(e.Option).Inc()
	}
	return errs
}
