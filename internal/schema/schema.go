package schema

import "github.com/roach88/recmap/internal/record"

// DefaultSoftDelete is the soft-delete property every syncable type exposes
// unless its descriptor names another one.
const DefaultSoftDelete = "isDeleted"

// ZoneSuffix is appended to the type name to derive private zone names.
const ZoneSuffix = "sZone"

// Scope is the remote database a type syncs to.
type Scope string

const (
	ScopePrivate Scope = "private"
	ScopePublic  Scope = "public"

	// ScopeShared is declared by the remote service but not supported here.
	ScopeShared Scope = "shared"
)

// Property describes one local property.
type Property struct {
	Name       string `json:"name" yaml:"name"`
	Kind       Kind   `json:"kind" yaml:"kind"`
	List       bool   `json:"list,omitempty" yaml:"list,omitempty"`
	Optional   bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	PrimaryKey bool   `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`

	// Target names the referenced type for object and linkingObjects kinds.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// IsToMany reports whether the property is a to-many relationship.
func (p Property) IsToMany() bool {
	return p.Kind == KindLinkingObjects || (p.Kind == KindObject && p.List)
}

// IsReference reports whether the property is a single object reference.
func (p Property) IsReference() bool {
	return p.Kind == KindObject && !p.List
}

// SyncOptions is the per-type sync configuration surface.
type SyncOptions struct {
	// RecordType defaults to the local type name.
	RecordType string `json:"recordType,omitempty" yaml:"recordType,omitempty"`

	// Scope defaults to private.
	Scope Scope `json:"scope,omitempty" yaml:"scope,omitempty"`

	// ZoneName overrides the derived zone name.
	ZoneName string `json:"zone,omitempty" yaml:"zone,omitempty"`
}

// ObjectSchema is the descriptor of one local type.
type ObjectSchema struct {
	Name       string      `json:"name" yaml:"name"`
	Properties []Property  `json:"properties" yaml:"properties"`
	Options    SyncOptions `json:"options" yaml:"options"`

	// Asset marks a binary asset wrapper type. References to it are
	// unwrapped into asset values instead of record references.
	Asset bool `json:"asset,omitempty" yaml:"asset,omitempty"`

	// SoftDelete names the bool property carrying the deletion flag.
	SoftDelete string `json:"softDelete,omitempty" yaml:"softDelete,omitempty"`
}

// Property returns the property with the given name.
func (s *ObjectSchema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// TypeInfo holds constants derived from a schema at registration.
type TypeInfo struct {
	Schema     ObjectSchema
	RecordType string
	Scope      Scope
	Zone       record.ZoneID
	PrimaryKey Property
}

// Name returns the local type name.
func (ti *TypeInfo) Name() string { return ti.Schema.Name }

// IsAsset reports whether the type is a binary asset wrapper.
func (ti *TypeInfo) IsAsset() bool { return ti.Schema.Asset }

// SoftDeleteProperty returns the name of the soft-delete flag property.
func (ti *TypeInfo) SoftDeleteProperty() string { return ti.Schema.SoftDelete }
