package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayleafwalker/bindery-resolver/internal/repository"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, repository.DefaultRetries, cfg.Retries)
	assert.Equal(t, repository.DefaultRetryInterval, cfg.RetryInterval.Duration)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Duration)

	opts := cfg.Resolver(nil)
	assert.True(t, opts.PreferWired)
	assert.Nil(t, opts.Preference)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
effective: [active]
retries: -1
retryInterval: 250ms
preferWired: false
blacklist:
- filter: (osgi.identity=legacy)
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"active"}, cfg.Effective)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInterval.Duration)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Duration)

	agg := repository.NewAggregate(repository.AggregateOptions{})
	opts := cfg.Resolver(agg)
	assert.False(t, opts.PreferWired)
	assert.NotNil(t, opts.Preference)
	assert.Equal(t, []string{"active"}, opts.Effective)

	aggOpts, err := cfg.Aggregate(repository.NewMemory())
	require.NoError(t, err)
	assert.Equal(t, -1, aggOpts.Retries)
	require.Len(t, aggOpts.Blacklist, 1)
	assert.Equal(t, resource.NamespaceIdentity, aggOpts.Blacklist[0].Namespace())

	b := resource.NewBuilder()
	b.Identity("legacy", semver.MustParseVersion("1.0.0"), "")
	legacy, err := b.Build(nil)
	require.NoError(t, err)
	assert.True(t, aggOpts.Blacklist[0].Matches(legacy.Identity()))
}

func TestParseRejectsInvalidInput(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field":    "retriez: 3",
		"negative backoff": "retryInterval: -1s",
		"bad blacklist":    "blacklist:\n- filter: (osgi.identity=",
		"negative timeout": "timeout: -5s",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 10s\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Timeout.Duration)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
