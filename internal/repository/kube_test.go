package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

func testScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, resolvev1.AddToScheme(scheme))
	return scheme
}

func moduleManifest(name, module, version string, lbls map[string]string, pkgs ...string) *resolvev1.ModuleManifest {
	mm := &resolvev1.ModuleManifest{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "default", Labels: lbls},
		Spec: resolvev1.ModuleManifestSpec{
			Identity: resolvev1.ModuleIdentity{Name: module, Version: version},
		},
	}
	for _, p := range pkgs {
		mm.Spec.Capabilities = append(mm.Spec.Capabilities, resolvev1.CapabilitySpec{
			Namespace:  resource.NamespacePackage,
			Attributes: []resolvev1.Attribute{{Name: resource.NamespacePackage, Value: p}},
		})
	}
	return mm
}

func TestKubeListsManifests(t *testing.T) {
	cl := fake.NewClientBuilder().WithScheme(testScheme(t)).WithObjects(
		moduleManifest("log-2", "log", "2.0.0", map[string]string{"tier": "core"}, "org.log"),
		moduleManifest("log-10", "log", "10.0.0", map[string]string{"tier": "core"}, "org.log"),
		moduleManifest("ui", "ui", "1.0.0", map[string]string{"tier": "edge"}, "org.ui"),
		moduleManifest("broken", "", "1.0.0", nil),
	).Build()

	k := &Kube{Client: cl, Namespace: "default"}
	rs, err := k.Resources(context.Background())
	require.NoError(t, err)
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.String()
	}
	assert.Equal(t, []string{"log@2.0.0", "log@10.0.0", "ui@1.0.0"}, names)
	assert.Contains(t, k.Invalid(), "broken")

	caps, err := k.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=org.log)"))
	require.NoError(t, err)
	assert.Equal(t, []string{"log@2.0.0", "log@10.0.0"}, owners(caps))

	sel := &Kube{Client: cl, Namespace: "default", Selector: labels.SelectorFromSet(labels.Set{"tier": "edge"})}
	rs, err = sel.Resources(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "ui", rs[0].Name())
}

func TestKubeClassifiesErrors(t *testing.T) {
	gr := schema.GroupResource{Group: resolvev1.GroupVersion.Group, Resource: "modulemanifests"}
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"timeout", apierrors.NewServerTimeout(gr, "list", 1), false},
		{"throttled", apierrors.NewTooManyRequests("slow down", 1), false},
		{"unavailable", apierrors.NewServiceUnavailable("down"), false},
		{"forbidden", apierrors.NewForbidden(gr, "", nil), true},
		{"unauthorized", apierrors.NewUnauthorized("who"), true},
		{"bad request", apierrors.NewBadRequest("nope"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			cl := fake.NewClientBuilder().WithScheme(testScheme(t)).WithInterceptorFuncs(interceptor.Funcs{
				List: func(ctx context.Context, c client.WithWatch, list client.ObjectList, opts ...client.ListOption) error {
					calls++
					if calls == 1 {
						return tc.err
					}
					return c.List(ctx, list, opts...)
				},
			}).Build()

			k := &Kube{Client: cl, Namespace: "default"}
			_, err := k.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
			require.Error(t, err)
			assert.Equal(t, tc.fatal, resolver.IsFatal(err))

			// Failed listings are not remembered.
			_, err = k.FindProviders(context.Background(), pkgReq(t, "(osgi.wiring.package=p)"))
			require.NoError(t, err)
		})
	}
}
