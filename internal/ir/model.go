package ir

// ModelSpec is a compiled model definition: the input of a build.
type ModelSpec struct {
	Entities    []EntitySpec     `json:"entities"`
	Ignored     []string         `json:"ignored,omitempty"` // Entity names excluded from the model
	Annotations map[string]Value `json:"annotations,omitempty"`
}

// EntitySpec describes one entity type.
type EntitySpec struct {
	Name          string               `json:"name"`
	Base          string               `json:"base,omitempty"`
	Key           []string             `json:"key,omitempty"` // Explicit primary key; discovered when empty
	Keyless       bool                 `json:"keyless,omitempty"`
	Properties    []PropertySpec       `json:"properties"`
	Indexes       []IndexSpec          `json:"indexes,omitempty"`
	Relationships []RelationshipSpec   `json:"relationships,omitempty"`
	ManyToMany    []SkipNavigationSpec `json:"many_to_many,omitempty"`
	Ignore        []string             `json:"ignore,omitempty"` // Member names excluded from the type
	Annotations   map[string]Value     `json:"annotations,omitempty"`
}

// PropertySpec describes a scalar property.
type PropertySpec struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"` // Go type name: "int", "string", "*time.Time"
	Required    bool             `json:"required,omitempty"`
	Field       string           `json:"field,omitempty"` // Backing field name
	Annotations map[string]Value `json:"annotations,omitempty"`
}

// IndexSpec describes an explicit index.
type IndexSpec struct {
	Properties []string `json:"properties"`
	Unique     bool     `json:"unique,omitempty"`
}

// RelationshipSpec declares a reference navigation from the declaring
// (dependent) entity to Target (principal).
type RelationshipSpec struct {
	Navigation string   `json:"navigation"`
	Target     string   `json:"target"`
	Inverse    string   `json:"inverse,omitempty"`     // Navigation on Target; a collection unless Unique
	ForeignKey []string `json:"foreign_key,omitempty"` // Discovered or shadow when empty
	Required   bool     `json:"required,omitempty"`
	Unique     bool     `json:"unique,omitempty"`
	Owned      bool     `json:"owned,omitempty"`
}

// SkipNavigationSpec declares a many-to-many navigation to Target.
type SkipNavigationSpec struct {
	Navigation string `json:"navigation"`
	Target     string `json:"target"`
	Inverse    string `json:"inverse,omitempty"`
}

// ModelSnapshot is the deterministic, sorted view of a built model. It is
// what golden files store and what ModelHash covers.
type ModelSnapshot struct {
	Entities    []EntitySnapshot `json:"entities"`
	Ignored     []string         `json:"ignored,omitempty"`
	Annotations map[string]Value `json:"annotations,omitempty"`
}

// EntitySnapshot is one entity type in a ModelSnapshot.
type EntitySnapshot struct {
	Name            string                   `json:"name"`
	Base            string                   `json:"base,omitempty"`
	PrimaryKey      []string                 `json:"primary_key,omitempty"`
	Properties      []PropertySnapshot       `json:"properties"`
	Keys            [][]string               `json:"keys,omitempty"`
	Indexes         []IndexSnapshot          `json:"indexes,omitempty"`
	ForeignKeys     []ForeignKeySnapshot     `json:"foreign_keys,omitempty"`
	Navigations     []NavigationSnapshot     `json:"navigations,omitempty"`
	SkipNavigations []SkipNavigationSnapshot `json:"skip_navigations,omitempty"`
	Annotations     map[string]Value         `json:"annotations,omitempty"`
}

// PropertySnapshot is one property in an EntitySnapshot.
type PropertySnapshot struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Nullable    bool             `json:"nullable"`
	Shadow      bool             `json:"shadow,omitempty"`
	Field       string           `json:"field,omitempty"`
	Annotations map[string]Value `json:"annotations,omitempty"`
}

// IndexSnapshot is one index in an EntitySnapshot.
type IndexSnapshot struct {
	Properties []string `json:"properties"`
	Unique     bool     `json:"unique"`
}

// ForeignKeySnapshot is one foreign key declared on an entity.
type ForeignKeySnapshot struct {
	Properties        []string `json:"properties"`
	Principal         string   `json:"principal"`
	PrincipalKey      []string `json:"principal_key"`
	Unique            bool     `json:"unique"`
	Required          bool     `json:"required"`
	RequiredDependent bool     `json:"required_dependent"`
	Ownership         bool     `json:"ownership"`
}

// NavigationSnapshot is one reference or collection navigation.
type NavigationSnapshot struct {
	Name       string   `json:"name"`
	Target     string   `json:"target"`
	Collection bool     `json:"collection"`
	ForeignKey []string `json:"foreign_key"`
}

// SkipNavigationSnapshot is one many-to-many navigation.
type SkipNavigationSnapshot struct {
	Name     string `json:"name"`
	Target   string `json:"target"`
	Inverse  string `json:"inverse,omitempty"`
	JoinType string `json:"join_type,omitempty"`
}
