package config

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Provider wire protocols. OpenAI-compatible gateways such as OpenRouter
// use ProviderTypeOpenAI.
const (
	ProviderTypeOpenAI    = "openai"
	ProviderTypeAnthropic = "anthropic"
)

// ProvidersConfig is providers.yaml: completion endpoints keyed by name.
// completion.provider in thoth.yaml picks the active one.
type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url"`
	// APIKey may be empty at load time; requests then fail as misconfigured.
	APIKey        string            `yaml:"api_key"`
	APIVersion    string            `yaml:"api_version,omitempty"`
	Model         string            `yaml:"model"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Timeout       time.Duration     `yaml:"timeout"`
	Headers       map[string]string `yaml:"headers,omitempty"`
}

// Validate reports every malformed provider entry at once.
func (p *ProvidersConfig) Validate() error {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Providers))
	for name := range p.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		pc := p.Providers[name]
		switch pc.Type {
		case ProviderTypeOpenAI, ProviderTypeAnthropic:
		default:
			errs = append(errs, fmt.Errorf("provider %s: unknown type %q", name, pc.Type))
		}
		if pc.BaseURL == "" {
			errs = append(errs, fmt.Errorf("provider %s: base_url is required", name))
		}
		if pc.Model == "" {
			errs = append(errs, fmt.Errorf("provider %s: model is required", name))
		}
	}
	return errors.Join(errs...)
}
