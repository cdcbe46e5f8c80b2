package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

const shop = `
requirements:
- namespace: osgi.identity
  filter: (osgi.identity=shop)
resources:
- identity: {name: shop, version: 1.0.0}
  requirements:
  - namespace: osgi.wiring.package
    filter: (&(osgi.wiring.package=org.cart)(version>=1.0.0))
  - namespace: osgi.wiring.package
    filter: (osgi.wiring.package=org.audit)
    resolution: optional
- identity: {name: cart, version: 1.1.0}
  capabilities:
  - namespace: osgi.wiring.package
    attributes:
    - {name: osgi.wiring.package, value: org.cart}
    - {name: version, type: Version, value: 1.1.0}
- identity: {name: cart, version: 0.9.0}
  capabilities:
  - namespace: osgi.wiring.package
    attributes:
    - {name: osgi.wiring.package, value: org.cart}
    - {name: version, type: Version, value: 0.9.0}
`

func TestResolveWorkspace(t *testing.T) {
	doc, err := Parse([]byte(shop))
	require.NoError(t, err)
	ws, err := doc.Build(resource.DefaultValidators())
	require.NoError(t, err)
	require.Len(t, ws.Resources, 3)

	res, err := ws.Resolve(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	require.Equal(t, resolver.Resolved, res.Outcome)

	var order []string
	for _, r := range resolver.SortByDependencies(res.Wiring) {
		order = append(order, r.String())
	}
	assert.Equal(t, []string{"cart@1.1.0", "shop@1.0.0"}, order)
	require.Len(t, res.Diagnostics.UnresolvedOptional, 1)
	assert.Contains(t, res.Diagnostics.UnresolvedOptional[0].String(), "org.audit")
}

func TestResolveWorkspaceFailure(t *testing.T) {
	doc, err := Parse([]byte(shop))
	require.NoError(t, err)
	doc.Resources = doc.Resources[:1]
	ws, err := doc.Build(nil)
	require.NoError(t, err)

	res, err := ws.Resolve(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, resolver.Failed, res.Outcome)
	require.NotNil(t, res.Err)
	require.Len(t, res.Err.Chain, 2)
	assert.Contains(t, res.Err.Chain[0].Requirement.String(), "org.cart")
	assert.Equal(t, "shop@1.0.0", res.Err.Chain[0].Resource.String())
}

func TestParseAndBuildErrors(t *testing.T) {
	_, err := Parse([]byte("resourcez: []"))
	assert.Error(t, err)

	doc, err := Parse([]byte(`
requirements:
- namespace: osgi.identity
  filter: (osgi.identity=shop
resources:
- identity: {name: "", version: 1.0.0}
`))
	require.NoError(t, err)
	_, err = doc.Build(nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "requirement 0")
	assert.ErrorContains(t, err, "resource 0")
}

func TestDocumentRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(shop))
	require.NoError(t, err)
	ws, err := doc.Build(nil)
	require.NoError(t, err)

	data, err := yaml.Marshal(ws.Document())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ws.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	again, err := Load(path)
	require.NoError(t, err)
	ws2, err := again.Build(nil)
	require.NoError(t, err)
	require.Len(t, ws2.Resources, len(ws.Resources))
	for i := range ws.Resources {
		assert.Equal(t, ws.Resources[i].Key(), ws2.Resources[i].Key())
	}
	assert.Equal(t, ws.Requirements[0].String(), ws2.Requirements[0].String())
}
