package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ModuleManifest declares a module's identity and its capabilities and
// requirements. Resolutions use ModuleManifests as their repository.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=mm
// +kubebuilder:printcolumn:name="Module",type=string,JSONPath=`.spec.identity.name`
// +kubebuilder:printcolumn:name="Version",type=string,JSONPath=`.spec.identity.version`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type ModuleManifest struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ModuleManifestSpec   `json:"spec"`
	Status ModuleManifestStatus `json:"status,omitempty"`
}

type ModuleManifestSpec struct {
	Identity     ModuleIdentity    `json:"identity"`
	Capabilities []CapabilitySpec  `json:"capabilities,omitempty"`
	Requirements []RequirementSpec `json:"requirements,omitempty"`
}

type ModuleIdentity struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Type defaults to osgi.bundle.
	Type string `json:"type,omitempty"`
	// Singleton forbids wiring two versions of the module together.
	Singleton bool `json:"singleton,omitempty"`
}

type ModuleManifestStatus struct {
	Phase   string `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`
}

// +kubebuilder:object:root=true
type ModuleManifestList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ModuleManifest `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ModuleManifest{}, &ModuleManifestList{})
}
