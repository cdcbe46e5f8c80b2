// Package config loads resolver settings shared by the binaries.
package config

import (
	"fmt"
	"os"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/repository"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Config tunes resolution. Absent fields keep their defaults.
type Config struct {
	// Effective lists effective directive values admitted besides "resolve".
	Effective []string `json:"effective,omitempty"`
	// Retries bounds retries of transient repository failures. Negative
	// disables retries.
	Retries int `json:"retries,omitempty"`
	// RetryInterval is the initial retry backoff, e.g. "250ms".
	RetryInterval metav1.Duration `json:"retryInterval,omitempty"`
	// Blacklist excludes resources whose identity matches any entry.
	Blacklist []resolvev1.RequirementSpec `json:"blacklist,omitempty"`
	// PreferWired favours providers already in the wiring. Defaults to true.
	PreferWired *bool `json:"preferWired,omitempty"`
	// Timeout bounds one resolution session. Zero means no bound.
	Timeout metav1.Duration `json:"timeout,omitempty"`
}

const DefaultTimeout = 2 * time.Minute

func Default() Config {
	preferWired := true
	return Config{
		Retries:       repository.DefaultRetries,
		RetryInterval: metav1.Duration{Duration: repository.DefaultRetryInterval},
		PreferWired:   &preferWired,
		Timeout:       metav1.Duration{Duration: DefaultTimeout},
	}
}

// Load reads a YAML or JSON config file over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.RetryInterval.Duration < 0 {
		return Config{}, fmt.Errorf("config: retryInterval must not be negative, got %s", cfg.RetryInterval.Duration)
	}
	if cfg.Timeout.Duration < 0 {
		return Config{}, fmt.Errorf("config: timeout must not be negative, got %s", cfg.Timeout.Duration)
	}
	if _, err := cfg.BlacklistRequirements(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) preferWired() bool {
	return c.PreferWired == nil || *c.PreferWired
}

// BlacklistRequirements converts the blacklist. Entries without a namespace
// default to osgi.identity.
func (c Config) BlacklistRequirements() ([]*resource.Requirement, error) {
	specs := make([]resolvev1.RequirementSpec, len(c.Blacklist))
	for i, s := range c.Blacklist {
		if s.Namespace == "" {
			s.Namespace = resource.NamespaceIdentity
		}
		specs[i] = s
	}
	reqs, err := manifest.Requirements(specs)
	if err != nil {
		return nil, fmt.Errorf("config: blacklist: %w", err)
	}
	return reqs, nil
}

// Aggregate returns aggregate options for the given repositories.
func (c Config) Aggregate(repos ...repository.Repository) (repository.AggregateOptions, error) {
	blacklist, err := c.BlacklistRequirements()
	if err != nil {
		return repository.AggregateOptions{}, err
	}
	retryInterval := c.RetryInterval.Duration
	if retryInterval == 0 {
		retryInterval = repository.DefaultRetryInterval
	}
	return repository.AggregateOptions{
		Repositories:  repos,
		Blacklist:     blacklist,
		Effective:     append([]string(nil), c.Effective...),
		Retries:       c.Retries,
		RetryInterval: retryInterval,
	}, nil
}

// Resolver returns resolver options ordering candidates with agg.
func (c Config) Resolver(agg *repository.Aggregate) resolver.Options {
	opts := resolver.Options{
		Effective:   append([]string(nil), c.Effective...),
		PreferWired: c.preferWired(),
	}
	if agg != nil {
		opts.Preference = agg.Compare
	}
	return opts
}
