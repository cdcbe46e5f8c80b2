package resolver

import (
	"fmt"

	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Input is one resolution request.
type Input struct {
	// Requirements are the root requirements. Requirements that do not belong
	// to a resource are attributed to the synthetic initial resource.
	Requirements []*resource.Requirement
	Index        CapabilityIndex
	// Callback is consulted on ambiguity. Nil means DefaultCallback.
	Callback CandidateSelectionCallback
}

// State is the state of a resolution session.
type State int

const (
	Pending State = iota
	Backtracking
	Resolved
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Backtracking:
		return "Backtracking"
	case Resolved:
		return "Resolved"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Wire is one satisfied requirement.
type Wire struct {
	Requirer    *resource.Resource
	Provider    *resource.Resource
	Requirement *resource.Requirement
	Capability  *resource.Capability
}

func (w Wire) String() string {
	return fmt.Sprintf("%s -> %s (%s)", w.Requirer, w.Provider, w.Requirement)
}

// Wiring maps requirers to their wires. Resources keep the order in which the
// resolution first included them; wires keep commit order.
type Wiring struct {
	resources []*resource.Resource
	wires     map[*resource.Resource][]Wire
}

func newWiring(resources []*resource.Resource, wires []Wire) Wiring {
	w := Wiring{
		resources: append([]*resource.Resource(nil), resources...),
		wires:     map[*resource.Resource][]Wire{},
	}
	for _, wire := range wires {
		w.wires[wire.Requirer] = append(w.wires[wire.Requirer], wire)
	}
	return w
}

// Resources returns every resource in the wiring, requirer or provider, in
// inclusion order.
func (w Wiring) Resources() []*resource.Resource {
	return append([]*resource.Resource(nil), w.resources...)
}

// Requirers returns the resources that have at least one wire.
func (w Wiring) Requirers() []*resource.Resource {
	var out []*resource.Resource
	for _, r := range w.resources {
		if len(w.wires[r]) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Wires returns the wires whose requirer is r.
func (w Wiring) Wires(r *resource.Resource) []Wire {
	return append([]Wire(nil), w.wires[r]...)
}

// All returns every wire, grouped by requirer in inclusion order.
func (w Wiring) All() []Wire {
	var out []Wire
	for _, r := range w.resources {
		out = append(out, w.wires[r]...)
	}
	return out
}

// Len returns the number of wires.
func (w Wiring) Len() int {
	n := 0
	for _, ws := range w.wires {
		n += len(ws)
	}
	return n
}

// Diagnostics captures information about resolution that is not part of the
// outcome itself.
type Diagnostics struct {
	// UnresolvedOptional lists optional requirements left unwired.
	UnresolvedOptional []*resource.Requirement
	// NoProviders lists every requirement that found no viable candidate at
	// some point of the search, in first-failure order.
	NoProviders []*resource.Requirement
	// ProviderErrors are transient index failures that were treated as empty
	// candidate lists.
	ProviderErrors []*ProviderError
}

// Stats counts the work a session did.
type Stats struct {
	Steps               int
	Backtracks          int
	ChoicePoints        int
	CallbackInvocations int
	ProviderQueries     int
}

// Result is the terminal outcome of a session.
type Result struct {
	SessionID string
	// Outcome is Resolved, Failed or Cancelled.
	Outcome State
	// Root is the synthetic resource that holds detached root requirements.
	Root *resource.Resource
	// Wiring is the complete wiring when Resolved and the partial wiring at the
	// step boundary where cancellation was observed when Cancelled.
	Wiring      Wiring
	Err         *ResolutionError
	Diagnostics Diagnostics
	Stats       Stats
}

// Error returns Err as an error, or nil when the session did not fail.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}
