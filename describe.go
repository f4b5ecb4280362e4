package docsink

import (
	"fmt"

	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/idstrategy"
)

// DestinationInfo is a printable summary of a built destination.
type DestinationInfo struct {
	Name               string   `json:"name" yaml:"name"`
	Collection         string   `json:"collection,omitempty" yaml:"collection,omitempty"`
	Stages             []string `json:"stages" yaml:"stages"`
	IDStrategy         string   `json:"id_strategy" yaml:"id_strategy"`
	WriteModel         string   `json:"write_model" yaml:"write_model"`
	DeleteOnNull       bool     `json:"delete_on_null" yaml:"delete_on_null"`
	CDCHandler         string   `json:"cdc_handler,omitempty" yaml:"cdc_handler,omitempty"`
	MaxBatchSize       int      `json:"max_batch_size" yaml:"max_batch_size"`
	MaxRetries         int      `json:"max_retries" yaml:"max_retries"`
	RetryDeferMs       int64    `json:"retry_defer_ms" yaml:"retry_defer_ms"`
	RateLimitEveryN    int      `json:"rate_limit_every_n" yaml:"rate_limit_every_n"`
	RateLimitTimeoutMs int      `json:"rate_limit_timeout_ms" yaml:"rate_limit_timeout_ms"`
}

// Describe summarizes every destination of s in build order.
func (s *Sink) Describe() ([]DestinationInfo, error) {
	out := make([]DestinationInfo, 0, len(s.order))
	for _, name := range s.order {
		info, err := s.describe(name)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *Sink) describe(name string) (DestinationInfo, error) {
	d := s.destinations[name]
	v := s.cfg.View(name)

	ids, err := v.String(config.DocumentIDStrategy)
	if err != nil {
		return DestinationInfo{}, err
	}
	if n := idstrategy.Named(d.IDStrategy); n != "" {
		ids = n
	}
	wm, err := v.String(config.WriteModelStrategy)
	if err != nil {
		return DestinationInfo{}, err
	}
	handler, err := v.String(config.ChangeDataCapture)
	if err != nil {
		return DestinationInfo{}, err
	}
	if d.CDC == nil {
		handler = ""
	}

	return DestinationInfo{
		Name:               d.Name,
		Collection:         d.Collection,
		Stages:             d.Pipeline.Names(),
		IDStrategy:         ids,
		WriteModel:         wm,
		DeleteOnNull:       d.DeleteModel != nil,
		CDCHandler:         handler,
		MaxBatchSize:       d.MaxBatchSize,
		MaxRetries:         d.MaxRetries,
		RetryDeferMs:       d.RetryDeferTimeout.Milliseconds(),
		RateLimitEveryN:    d.RateLimit.EveryN(),
		RateLimitTimeoutMs: d.RateLimit.TimeoutMs(),
	}, nil
}

func (d DestinationInfo) String() string {
	return fmt.Sprintf("%s: stages=%v id=%s write=%s", d.Name, d.Stages, d.IDStrategy, d.WriteModel)
}
