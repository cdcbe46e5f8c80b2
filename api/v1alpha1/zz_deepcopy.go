package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

func copyDirectives(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *CapabilitySpec) DeepCopyInto(out *CapabilitySpec) {
	*out = *in
	if in.Attributes != nil {
		out.Attributes = make([]Attribute, len(in.Attributes))
		copy(out.Attributes, in.Attributes)
	}
	out.Directives = copyDirectives(in.Directives)
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *RequirementSpec) DeepCopyInto(out *RequirementSpec) {
	*out = *in
	out.Directives = copyDirectives(in.Directives)
}

func copyRequirements(in []RequirementSpec) []RequirementSpec {
	if in == nil {
		return nil
	}
	out := make([]RequirementSpec, len(in))
	for i := range in {
		in[i].DeepCopyInto(&out[i])
	}
	return out
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ModuleManifestSpec) DeepCopyInto(out *ModuleManifestSpec) {
	*out = *in
	if in.Capabilities != nil {
		out.Capabilities = make([]CapabilitySpec, len(in.Capabilities))
		for i := range in.Capabilities {
			in.Capabilities[i].DeepCopyInto(&out.Capabilities[i])
		}
	}
	out.Requirements = copyRequirements(in.Requirements)
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ModuleManifest) DeepCopyInto(out *ModuleManifest) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	out.Status = in.Status
}

// DeepCopy copies the receiver, creating a new ModuleManifest.
func (in *ModuleManifest) DeepCopy() *ModuleManifest {
	if in == nil {
		return nil
	}
	out := new(ModuleManifest)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *ModuleManifest) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ModuleManifestList) DeepCopyInto(out *ModuleManifestList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]ModuleManifest, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new ModuleManifestList.
func (in *ModuleManifestList) DeepCopy() *ModuleManifestList {
	if in == nil {
		return nil
	}
	out := new(ModuleManifestList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *ModuleManifestList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ResolutionSpec) DeepCopyInto(out *ResolutionSpec) {
	*out = *in
	out.Requirements = copyRequirements(in.Requirements)
	if in.ModuleSelector != nil {
		out.ModuleSelector = in.ModuleSelector.DeepCopy()
	}
	out.Blacklist = copyRequirements(in.Blacklist)
	if in.Effective != nil {
		out.Effective = make([]string, len(in.Effective))
		copy(out.Effective, in.Effective)
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ResolutionStatus) DeepCopyInto(out *ResolutionStatus) {
	*out = *in
	if in.Wires != nil {
		out.Wires = make([]WireStatus, len(in.Wires))
		copy(out.Wires, in.Wires)
	}
	if in.RunOrder != nil {
		out.RunOrder = make([]string, len(in.RunOrder))
		copy(out.RunOrder, in.RunOrder)
	}
	if in.Unresolved != nil {
		out.Unresolved = make([]string, len(in.Unresolved))
		copy(out.Unresolved, in.Unresolved)
	}
	if in.CausalChain != nil {
		out.CausalChain = make([]ChainLinkStatus, len(in.CausalChain))
		copy(out.CausalChain, in.CausalChain)
	}
	if in.UnresolvedOptional != nil {
		out.UnresolvedOptional = make([]string, len(in.UnresolvedOptional))
		copy(out.UnresolvedOptional, in.UnresolvedOptional)
	}
	if in.Stats != nil {
		stats := *in.Stats
		out.Stats = &stats
	}
	if in.LastResolvedTime != nil {
		out.LastResolvedTime = in.LastResolvedTime.DeepCopy()
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *Resolution) DeepCopyInto(out *Resolution) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy copies the receiver, creating a new Resolution.
func (in *Resolution) DeepCopy() *Resolution {
	if in == nil {
		return nil
	}
	out := new(Resolution)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *Resolution) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver, writing into out. in must be non-nil.
func (in *ResolutionList) DeepCopyInto(out *ResolutionList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]Resolution, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy copies the receiver, creating a new ResolutionList.
func (in *ResolutionList) DeepCopy() *ResolutionList {
	if in == nil {
		return nil
	}
	out := new(ResolutionList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject copies the receiver, creating a new runtime.Object.
func (in *ResolutionList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
