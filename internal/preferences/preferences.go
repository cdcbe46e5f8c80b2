// Package preferences remembers how ambiguous requirements were settled so
// later sessions can reuse the choice without asking again.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"sigs.k8s.io/yaml"

	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Choice is a remembered provider.
type Choice struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type entry struct {
	Requirement string `json:"requirement"`
	Choice      Choice `json:"choice"`
}

type document struct {
	Choices []entry `json:"choices"`
}

// Store keeps choices keyed by requirement namespace and filter. A Store with
// an empty path lives in memory only.
type Store struct {
	path string

	mu      sync.Mutex
	choices map[string]Choice
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, choices: map[string]Choice{}}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("preferences: %s: %w", path, err)
	}
	for _, e := range doc.Choices {
		s.choices[e.Requirement] = e.Choice
	}
	return s, nil
}

// Key identifies a requirement across sessions.
func Key(req *resource.Requirement) string {
	return req.Namespace() + ":" + req.Filter().String()
}

func (s *Store) Lookup(req *resource.Requirement) (Choice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.choices[Key(req)]
	return c, ok
}

// Remember records c for req and persists the store.
func (s *Store) Remember(req *resource.Requirement, c Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choices[Key(req)] = c
	return s.saveLocked()
}

func (s *Store) Forget(req *resource.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.choices, Key(req))
	return s.saveLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.choices)
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	doc := document{Choices: make([]entry, 0, len(s.choices))}
	for k, c := range s.choices {
		doc.Choices = append(doc.Choices, entry{Requirement: k, Choice: c})
	}
	sort.Slice(doc.Choices, func(i, j int) bool { return doc.Choices[i].Requirement < doc.Choices[j].Requirement })
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".preferences-*")
	if err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	return nil
}

// Callback applies remembered choices and otherwise asks Next, remembering
// the provider Next puts first.
type Callback struct {
	Store *Store
	Next  resolver.CandidateSelectionCallback
}

func (c *Callback) Select(ctx context.Context, req *resource.Requirement, alreadyWired, candidates []*resource.Capability) ([]*resource.Capability, error) {
	log := logr.FromContextOrDiscard(ctx)
	if choice, ok := c.Store.Lookup(req); ok {
		for i, cand := range candidates {
			r := cand.Resource()
			if r != nil && r.Name() == choice.Name && r.Version().String() == choice.Version {
				log.V(1).Info("applying remembered choice", "requirement", req.String(), "provider", r.String())
				out := append([]*resource.Capability{cand}, candidates[:i]...)
				return append(out, candidates[i+1:]...), nil
			}
		}
		log.V(1).Info("remembered choice is no longer offered", "requirement", req.String(), "provider", choice.Name+"@"+choice.Version)
	}

	next := c.Next
	if next == nil {
		next = resolver.DefaultCallback{}
	}
	chosen, err := next.Select(ctx, req, alreadyWired, candidates)
	if err != nil {
		return nil, err
	}
	if len(chosen) > 0 && chosen[0].Resource() != nil {
		r := chosen[0].Resource()
		if err := c.Store.Remember(req, Choice{Name: r.Name(), Version: r.Version().String()}); err != nil {
			log.Error(err, "failed to remember choice", "requirement", req.String())
		}
	}
	return chosen, nil
}
