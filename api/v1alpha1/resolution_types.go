package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type ResolutionPhase string

const (
	ResolutionPhasePending   ResolutionPhase = "Pending"
	ResolutionPhaseResolved  ResolutionPhase = "Resolved"
	ResolutionPhaseFailed    ResolutionPhase = "Failed"
	ResolutionPhaseCancelled ResolutionPhase = "Cancelled"
	// ResolutionPhaseError means the Resolution itself is invalid, e.g. a
	// malformed filter.
	ResolutionPhaseError ResolutionPhase = "Error"
)

// Resolution asks for a wiring of its requirements against the ModuleManifests
// in its namespace.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=res
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Message",type=string,JSONPath=`.status.message`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type Resolution struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ResolutionSpec   `json:"spec"`
	Status ResolutionStatus `json:"status,omitempty"`
}

type ResolutionSpec struct {
	Requirements []RequirementSpec `json:"requirements"`
	// ModuleSelector restricts the ModuleManifests used as repository. Nil
	// selects all manifests in the namespace.
	ModuleSelector *metav1.LabelSelector `json:"moduleSelector,omitempty"`
	// Blacklist excludes every module whose identity matches one of these
	// requirements.
	Blacklist []RequirementSpec `json:"blacklist,omitempty"`
	// Effective lists effective directive values admitted besides "resolve".
	Effective []string `json:"effective,omitempty"`
}

type WireStatus struct {
	Requirer    string `json:"requirer"`
	Provider    string `json:"provider"`
	Namespace   string `json:"namespace"`
	Requirement string `json:"requirement,omitempty"`
	Capability  string `json:"capability,omitempty"`
}

type ChainLinkStatus struct {
	Requirement string `json:"requirement"`
	Resource    string `json:"resource,omitempty"`
}

type ResolutionStats struct {
	Steps               int32 `json:"steps,omitempty"`
	Backtracks          int32 `json:"backtracks,omitempty"`
	ChoicePoints        int32 `json:"choicePoints,omitempty"`
	CallbackInvocations int32 `json:"callbackInvocations,omitempty"`
	ProviderQueries     int32 `json:"providerQueries,omitempty"`
}

type ResolutionStatus struct {
	ObservedGeneration int64              `json:"observedGeneration,omitempty"`
	Phase              ResolutionPhase    `json:"phase,omitempty"`
	Message            string             `json:"message,omitempty"`
	Wires              []WireStatus       `json:"wires,omitempty"`
	RunOrder           []string           `json:"runOrder,omitempty"`
	Unresolved         []string           `json:"unresolved,omitempty"`
	CausalChain        []ChainLinkStatus  `json:"causalChain,omitempty"`
	UnresolvedOptional []string           `json:"unresolvedOptional,omitempty"`
	Stats              *ResolutionStats   `json:"stats,omitempty"`
	LastResolvedTime   *metav1.Time       `json:"lastResolvedTime,omitempty"`
	Conditions         []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
type ResolutionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Resolution `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Resolution{}, &ResolutionList{})
}
