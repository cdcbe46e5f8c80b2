package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/labels"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
	"github.com/bayleafwalker/bindery-resolver/internal/semver"
)

// Kube is a repository over the ModuleManifests of one namespace. Manifests
// are listed once, on the first query; a failed listing is retried on the
// next query. Manifests that do not convert are skipped and reported by
// Invalid.
type Kube struct {
	Client     client.Reader
	Namespace  string
	Selector   labels.Selector
	Validators *resource.Validators

	mu        sync.Mutex
	loaded    bool
	resources []*resource.Resource
	invalid   map[string]error
}

func (k *Kube) FindProviders(ctx context.Context, req *resource.Requirement) ([]*resource.Capability, error) {
	resources, err := k.Resources(ctx)
	if err != nil {
		return nil, err
	}
	return matching(resources, req), nil
}

// Resources returns the converted manifests ordered by identity.
func (k *Kube) Resources(ctx context.Context) ([]*resource.Resource, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.loaded {
		return k.resources, nil
	}

	var list resolvev1.ModuleManifestList
	opts := []client.ListOption{client.InNamespace(k.Namespace)}
	if k.Selector != nil {
		opts = append(opts, client.MatchingLabelsSelector{Selector: k.Selector})
	}
	if err := k.Client.List(ctx, &list, opts...); err != nil {
		return nil, classify(fmt.Errorf("repository: list ModuleManifests in %q: %w", k.Namespace, err))
	}

	logger := log.FromContext(ctx)
	k.invalid = map[string]error{}
	k.resources = k.resources[:0]
	for i := range list.Items {
		mm := &list.Items[i]
		r, err := manifest.Resource(mm.Spec, k.Validators)
		if err != nil {
			logger.Error(err, "skipping invalid ModuleManifest", "moduleManifest", mm.Name)
			k.invalid[mm.Name] = err
			continue
		}
		k.resources = append(k.resources, r)
	}
	sort.SliceStable(k.resources, func(i, j int) bool {
		a, b := k.resources[i], k.resources[j]
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return semver.Compare(a.Version(), b.Version()) < 0
	})
	k.loaded = true
	return k.resources, nil
}

// Invalid maps the names of manifests that failed to convert to their error.
func (k *Kube) Invalid() map[string]error {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]error, len(k.invalid))
	for name, err := range k.invalid {
		out[name] = err
	}
	return out
}

// classify marks API errors that retrying cannot fix as fatal.
func classify(err error) error {
	switch {
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err),
		apierrors.IsTooManyRequests(err), apierrors.IsServiceUnavailable(err),
		apierrors.IsInternalError(err):
		return resolver.Transient(err)
	case apierrors.IsForbidden(err), apierrors.IsUnauthorized(err),
		apierrors.IsInvalid(err), apierrors.IsBadRequest(err),
		meta.IsNoMatchError(err):
		return resolver.Fatal(err)
	}
	return resolver.Transient(err)
}
