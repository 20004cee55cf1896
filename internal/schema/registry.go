package schema

import (
	"regexp"
	"slices"
	"sort"
	"sync"

	"github.com/roach88/recmap/internal/record"
)

// recordTypePattern matches names accepted by the remote service for record
// types: a leading letter, then letters, digits or underscores.
var recordTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,254}$`)

// Registry maps local type names to their derived TypeInfo.
//
// Register is called during setup; Freeze ends setup and validates cross-type
// references. After Freeze the registry is read-only and safe for concurrent
// use.
type Registry struct {
	mu           sync.RWMutex
	owner        string
	frozen       bool
	byName       map[string]*TypeInfo
	byRecordType map[string]*TypeInfo
}

// Option configures a Registry.
type Option func(*Registry)

// WithOwner sets the principal that owns private zones.
// Defaults to record.DefaultOwnerName.
func WithOwner(owner string) Option {
	return func(r *Registry) {
		if owner != "" {
			r.owner = owner
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		owner:        record.DefaultOwnerName,
		byName:       make(map[string]*TypeInfo),
		byRecordType: make(map[string]*TypeInfo),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build registers every schema and freezes the registry.
func Build(schemas []ObjectSchema, opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	for _, s := range schemas {
		if _, err := r.Register(s); err != nil {
			return nil, err
		}
	}
	if err := r.Freeze(); err != nil {
		return nil, err
	}
	return r, nil
}

// Owner returns the principal that owns private zones.
func (r *Registry) Owner() string { return r.owner }

// Register validates a schema and records its derived constants.
// Returns a *ConfigError describing the first problem found.
func (r *Registry) Register(s ObjectSchema) (*TypeInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, configErr(ErrCodeRegistryFrozen, s.Name, "", "registry is frozen")
	}
	if _, exists := r.byName[s.Name]; exists {
		return nil, configErr(ErrCodeDuplicateType, s.Name, "", "type already registered")
	}

	info, err := derive(s, r.owner)
	if err != nil {
		return nil, err
	}
	if other, exists := r.byRecordType[info.RecordType]; exists {
		return nil, configErr(ErrCodeDuplicateType, s.Name, "",
			"record type %q already used by %s", info.RecordType, other.Name())
	}

	r.byName[info.Name()] = info
	r.byRecordType[info.RecordType] = info
	return info, nil
}

// Freeze ends registration and checks that every reference target is
// registered. Freezing twice is a no-op.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil
	}
	for _, name := range r.sortedNames() {
		info := r.byName[name]
		for _, p := range info.Schema.Properties {
			if p.Target == "" {
				continue
			}
			if _, ok := r.byName[p.Target]; !ok {
				return configErr(ErrCodeUnknownTarget, name, p.Name, "target type %q is not registered", p.Target)
			}
		}
	}
	r.frozen = true
	return nil
}

// Frozen reports whether Freeze has completed.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the TypeInfo for a local type name.
func (r *Registry) Lookup(typeName string) (*TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.frozen {
		return nil, configErr(ErrCodeRegistryNotFrozen, typeName, "", "lookup before registry was frozen")
	}
	info, ok := r.byName[typeName]
	if !ok {
		return nil, configErr(ErrCodeMissingSchema, typeName, "", "no schema registered")
	}
	return info, nil
}

// ByRecordType returns the TypeInfo for a remote record type.
func (r *Registry) ByRecordType(recordType string) (*TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.frozen {
		return nil, configErr(ErrCodeRegistryNotFrozen, recordType, "", "lookup before registry was frozen")
	}
	info, ok := r.byRecordType[recordType]
	if !ok {
		return nil, configErr(ErrCodeMissingSchema, recordType, "", "no schema registered for record type")
	}
	return info, nil
}

// Types returns all registered TypeInfos sorted by type name.
func (r *Registry) Types() []*TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*TypeInfo, 0, len(r.byName))
	for _, name := range r.sortedNames() {
		out = append(out, r.byName[name])
	}
	return out
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// derive validates a single schema in isolation and computes its TypeInfo.
func derive(s ObjectSchema, owner string) (*TypeInfo, error) {
	if s.Name == "" {
		return nil, configErr(ErrCodeInvalidRecordType, "", "", "type name is empty")
	}

	s.Properties = slices.Clone(s.Properties)
	if s.SoftDelete == "" {
		s.SoftDelete = DefaultSoftDelete
	}

	recordType := s.Options.RecordType
	if recordType == "" {
		recordType = s.Name
	}
	if !recordTypePattern.MatchString(recordType) {
		return nil, configErr(ErrCodeInvalidRecordType, s.Name, "",
			"record type %q must start with a letter and contain only letters, digits and underscores", recordType)
	}

	pk, err := validateProperties(s)
	if err != nil {
		return nil, err
	}

	scope := s.Options.Scope
	if scope == "" {
		scope = ScopePrivate
	}
	zone, err := deriveZone(s, scope, owner)
	if err != nil {
		return nil, err
	}

	return &TypeInfo{
		Schema:     s,
		RecordType: recordType,
		Scope:      scope,
		Zone:       zone,
		PrimaryKey: pk,
	}, nil
}

func validateProperties(s ObjectSchema) (Property, error) {
	var (
		pk    Property
		found bool
		seen  = make(map[string]bool, len(s.Properties))
	)

	for _, p := range s.Properties {
		if p.Name == "" {
			return pk, configErr(ErrCodeInvalidProperty, s.Name, "", "property name is empty")
		}
		if seen[p.Name] {
			return pk, configErr(ErrCodeDuplicateProperty, s.Name, p.Name, "property declared twice")
		}
		seen[p.Name] = true

		if !p.Kind.IsValid() {
			return pk, configErr(ErrCodeInvalidProperty, s.Name, p.Name, "unknown kind %q", p.Kind)
		}
		switch p.Kind {
		case KindObject, KindLinkingObjects:
			if p.Target == "" {
				return pk, configErr(ErrCodeInvalidProperty, s.Name, p.Name, "%s property needs a target type", p.Kind)
			}
		default:
			if p.Target != "" {
				return pk, configErr(ErrCodeInvalidProperty, s.Name, p.Name, "%s property cannot have a target", p.Kind)
			}
		}

		if !p.PrimaryKey {
			continue
		}
		if found {
			return pk, configErr(ErrCodeMultiplePrimaryKeys, s.Name, p.Name, "primary key already declared on %q", pk.Name)
		}
		if (p.Kind != KindInt && p.Kind != KindString) || p.List || p.Optional {
			return pk, configErr(ErrCodeInvalidPrimaryKeyType, s.Name, p.Name,
				"primary key must be a required int or string, got %s", describe(p))
		}
		pk, found = p, true
	}

	if !found {
		return pk, configErr(ErrCodeMissingPrimaryKey, s.Name, "", "no primary key declared")
	}

	flag, ok := s.Property(s.SoftDelete)
	if !ok {
		return pk, configErr(ErrCodeInvalidSoftDelete, s.Name, s.SoftDelete, "soft-delete property is not declared")
	}
	if flag.Kind != KindBool || flag.List || flag.PrimaryKey {
		return pk, configErr(ErrCodeInvalidSoftDelete, s.Name, s.SoftDelete,
			"soft-delete property must be a bool, got %s", describe(flag))
	}

	return pk, nil
}

func deriveZone(s ObjectSchema, scope Scope, owner string) (record.ZoneID, error) {
	switch scope {
	case ScopePrivate:
		name := s.Options.ZoneName
		if name == "" {
			name = s.Name + ZoneSuffix
		}
		return record.ZoneID{ZoneName: name, OwnerName: owner}, nil

	case ScopePublic:
		if s.Options.ZoneName != "" && s.Options.ZoneName != record.DefaultZoneName {
			return record.ZoneID{}, configErr(ErrCodeUnsupportedScope, s.Name, "",
				"public scope only has the default zone, got %q", s.Options.ZoneName)
		}
		return record.DefaultZone(), nil

	case ScopeShared:
		return record.ZoneID{}, configErr(ErrCodeUnsupportedScope, s.Name, "", "shared database scope is not supported")

	default:
		return record.ZoneID{}, configErr(ErrCodeUnsupportedScope, s.Name, "", "unknown database scope %q", scope)
	}
}

func describe(p Property) string {
	s := string(p.Kind)
	if p.List {
		s = "[]" + s
	}
	if p.Optional {
		s += "?"
	}
	return s
}
