package controllers

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
)

const (
	ResolutionConditionResolved = "Resolved"

	ReasonResolved      = "Resolved"
	ReasonUnresolved    = "UnresolvedRequirements"
	ReasonInvalidSpec   = "InvalidSpec"
	ReasonProviderError = "ProviderError"
	ReasonCancelled     = "Cancelled"
)

func setResolutionCondition(res *resolvev1.Resolution, condition metav1.Condition) {
	if res == nil {
		return
	}
	condition.ObservedGeneration = res.Generation
	meta.SetStatusCondition(&res.Status.Conditions, condition)
}

func summarizeUnresolved(reqs []string) string {
	// Keep this human-readable and bounded.
	if len(reqs) == 0 {
		return ""
	}
	max := 4
	parts := make([]string, 0, min(len(reqs), max))
	for i := 0; i < len(reqs) && i < max; i++ {
		parts = append(parts, reqs[i])
	}
	if len(reqs) > max {
		parts = append(parts, fmt.Sprintf("...and %d more", len(reqs)-max))
	}
	return strings.Join(parts, "; ")
}
