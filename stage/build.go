package stage

import (
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/registry"
)

// Build assembles the chain of declared stage names for the view's
// destination. Duplicates collapse onto their first occurrence. When the
// identity stage is not declared it is constructed first and heads the
// chain; when it is declared it runs where it was declared.
func Build(v config.View, declared []string) (*Chain, error) {
	names := dedupe(declared)

	known := registry.NewNameSet(stages.Names()...)
	for _, n := range names {
		if err := registry.Allow(v, config.PostProcessorChain, n, Predefined, known); err != nil {
			return nil, err
		}
	}

	if !contains(names, IdentityStage) {
		names = append([]string{IdentityStage}, names...)
	}

	chain := &Chain{stages: make([]Stage, 0, len(names))}
	for _, n := range names {
		s, err := registry.Construct[Stage](stages, n, v)
		if err != nil {
			return nil, err
		}
		chain.stages = append(chain.stages, s)
	}
	return chain, nil
}

// Resolve builds the chain configured for the view's destination.
func Resolve(v config.View) (*Chain, error) {
	declared, err := v.List(config.PostProcessorChain)
	if err != nil {
		return nil, err
	}
	return Build(v, declared)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
