package v1alpha1

// Attribute types accepted in capability attributes. An empty type is String.
const (
	AttributeTypeString      = "String"
	AttributeTypeVersion     = "Version"
	AttributeTypeLong        = "Long"
	AttributeTypeDouble      = "Double"
	AttributeTypeBoolean     = "Boolean"
	AttributeTypeStringList  = "List<String>"
	AttributeTypeVersionList = "List<Version>"
	AttributeTypeLongList    = "List<Long>"
	AttributeTypeDoubleList  = "List<Double>"
)

type DependencyMode string

const (
	DependencyModeMandatory DependencyMode = "mandatory"
	DependencyModeOptional  DependencyMode = "optional"
)

type Cardinality string

const (
	CardinalitySingle   Cardinality = "single"
	CardinalityMultiple Cardinality = "multiple"
)

type Attribute struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// CapabilitySpec declares one capability of a module.
type CapabilitySpec struct {
	Namespace  string            `json:"namespace"`
	Attributes []Attribute       `json:"attributes,omitempty"`
	Directives map[string]string `json:"directives,omitempty"`
}

// RequirementSpec declares one requirement. Filter, Resolution, Cardinality and
// Effective are shorthands for the directives of the same name and win over
// entries in Directives.
type RequirementSpec struct {
	Namespace   string            `json:"namespace"`
	Filter      string            `json:"filter,omitempty"`
	Resolution  DependencyMode    `json:"resolution,omitempty"`
	Cardinality Cardinality       `json:"cardinality,omitempty"`
	Effective   string            `json:"effective,omitempty"`
	Directives  map[string]string `json:"directives,omitempty"`
}

type ObjectRef struct {
	Name string `json:"name"`
}
