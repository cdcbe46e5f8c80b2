package manifest

import (
	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Status renders a resolution result in its declarative form. Conditions,
// timestamps and the observed generation are left to the caller.
func Status(res resolver.Result) resolvev1.ResolutionStatus {
	st := resolvev1.ResolutionStatus{
		Stats: &resolvev1.ResolutionStats{
			Steps:               int32(res.Stats.Steps),
			Backtracks:          int32(res.Stats.Backtracks),
			ChoicePoints:        int32(res.Stats.ChoicePoints),
			CallbackInvocations: int32(res.Stats.CallbackInvocations),
			ProviderQueries:     int32(res.Stats.ProviderQueries),
		},
	}
	switch res.Outcome {
	case resolver.Resolved:
		st.Phase = resolvev1.ResolutionPhaseResolved
		st.Message = "resolved"
	case resolver.Cancelled:
		st.Phase = resolvev1.ResolutionPhaseCancelled
		st.Message = "resolution cancelled"
	default:
		st.Phase = resolvev1.ResolutionPhaseFailed
		if err := res.Error(); err != nil {
			st.Message = err.Error()
		}
	}

	for _, w := range res.Wiring.All() {
		st.Wires = append(st.Wires, resolvev1.WireStatus{
			Requirer:    w.Requirer.String(),
			Provider:    w.Provider.String(),
			Namespace:   w.Requirement.Namespace(),
			Requirement: w.Requirement.Filter().String(),
			Capability:  w.Capability.Attributes().String(),
		})
	}
	if res.Outcome == resolver.Resolved {
		for _, r := range resolver.SortByDependencies(res.Wiring) {
			st.RunOrder = append(st.RunOrder, r.String())
		}
	}
	if res.Err != nil {
		for _, req := range res.Err.Unresolved {
			st.Unresolved = append(st.Unresolved, describe(req))
		}
		for _, l := range res.Err.Chain {
			link := resolvev1.ChainLinkStatus{Requirement: l.Requirement.String()}
			if l.Resource != nil && !l.Resource.IsInitial() {
				link.Resource = l.Resource.String()
			}
			st.CausalChain = append(st.CausalChain, link)
		}
	}
	for _, req := range res.Diagnostics.UnresolvedOptional {
		st.UnresolvedOptional = append(st.UnresolvedOptional, describe(req))
	}
	return st
}

func describe(req *resource.Requirement) string {
	if r := req.Resource(); r != nil && !r.IsInitial() {
		return r.String() + ": " + req.String()
	}
	return req.String()
}
