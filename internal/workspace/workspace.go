// Package workspace loads offline resolution documents: a set of module
// manifests plus the root requirements to resolve against them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/repository"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Document is the serialized form of a workspace.
//
//	requirements:
//	- namespace: osgi.identity
//	  filter: (osgi.identity=app)
//	resources:
//	- identity: {name: app, version: 1.0.0}
//	  requirements: [...]
type Document struct {
	// Requirements are the root requirements.
	Requirements []resolvev1.RequirementSpec `json:"requirements"`
	// Mandatory resources are offered before every repository resource and
	// are never reordered.
	Mandatory []resolvev1.ModuleManifestSpec `json:"mandatory,omitempty"`
	// Resources form the workspace repository, in priority order.
	Resources []resolvev1.ModuleManifestSpec `json:"resources"`
}

// Workspace is a Document converted to the resource model.
type Workspace struct {
	Requirements []*resource.Requirement
	Mandatory    []*resource.Resource
	Resources    []*resource.Resource
}

func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("workspace: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document. Unknown fields are rejected.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return Document{}, fmt.Errorf("workspace: %w", err)
	}
	return doc, nil
}

// Build converts the document, collecting every conversion error.
func (d Document) Build(v *resource.Validators) (*Workspace, error) {
	w := &Workspace{}
	var errs []error
	reqs, err := manifest.Requirements(d.Requirements)
	if err != nil {
		errs = append(errs, err)
	}
	w.Requirements = reqs
	convert := func(kind string, specs []resolvev1.ModuleManifestSpec) []*resource.Resource {
		var out []*resource.Resource
		for i, s := range specs {
			r, err := manifest.Resource(s, v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %d: %w", kind, i, err))
				continue
			}
			out = append(out, r)
		}
		return out
	}
	w.Mandatory = convert("mandatory", d.Mandatory)
	w.Resources = convert("resource", d.Resources)
	if len(errs) > 0 {
		return nil, fmt.Errorf("workspace: %w", errors.Join(errs...))
	}
	return w, nil
}

// Index returns an aggregate index over the workspace configured by cfg.
func (w *Workspace) Index(cfg config.Config) (*repository.Aggregate, error) {
	opts, err := cfg.Aggregate(repository.NewMemory(w.Resources...))
	if err != nil {
		return nil, err
	}
	opts.Mandatory = w.Mandatory
	return repository.NewAggregate(opts), nil
}

// Resolve resolves the workspace root requirements. The session is bounded by
// cfg.Timeout.
func (w *Workspace) Resolve(ctx context.Context, cfg config.Config, cb resolver.CandidateSelectionCallback) (resolver.Result, error) {
	agg, err := w.Index(cfg)
	if err != nil {
		return resolver.Result{}, err
	}
	if cfg.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout.Duration)
		defer cancel()
	}
	return resolver.NewDefault(cfg.Resolver(agg)).Resolve(ctx, resolver.Input{
		Requirements: w.Requirements,
		Index:        agg,
		Callback:     cb,
	})
}

// Document renders the workspace back into its serialized form.
func (w *Workspace) Document() Document {
	var d Document
	for _, r := range w.Requirements {
		d.Requirements = append(d.Requirements, manifest.RequirementSpec(r))
	}
	for _, r := range w.Mandatory {
		d.Mandatory = append(d.Mandatory, manifest.Spec(r))
	}
	for _, r := range w.Resources {
		d.Resources = append(d.Resources, manifest.Spec(r))
	}
	return d
}
