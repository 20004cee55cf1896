package schema

import (
	"fmt"
	"strings"
)

// DescriptorError reports a malformed descriptor file.
type DescriptorError struct {
	File    string
	Line    int
	Column  int
	Field   string
	Message string
}

func (e *DescriptorError) Error() string {
	var loc string
	switch {
	case e.File != "" && e.Line > 0:
		loc = fmt.Sprintf("%s:%d:%d: ", e.File, e.Line, e.Column)
	case e.File != "":
		loc = e.File + ": "
	}
	if e.Field != "" {
		return fmt.Sprintf("%s%s: %s", loc, e.Field, e.Message)
	}
	return loc + e.Message
}

// typeDecl is the format-neutral form of one type in a descriptor file.
// CUE and YAML loaders both fill it in and call build.
type typeDecl struct {
	RecordType string
	Scope      string
	Zone       string
	Asset      bool
	SoftDelete string
	PrimaryKey string
	Properties []Property
}

func (d typeDecl) build(name string) (ObjectSchema, error) {
	s := ObjectSchema{
		Name:       name,
		Properties: d.Properties,
		Asset:      d.Asset,
		SoftDelete: d.SoftDelete,
		Options: SyncOptions{
			RecordType: d.RecordType,
			Scope:      Scope(strings.ToLower(d.Scope)),
			ZoneName:   d.Zone,
		},
	}

	if d.PrimaryKey == "" {
		return s, nil
	}
	for i := range s.Properties {
		if s.Properties[i].Name == d.PrimaryKey {
			s.Properties[i].PrimaryKey = true
			return s, nil
		}
	}
	return s, fmt.Errorf("primaryKey %q does not name a declared property", d.PrimaryKey)
}

// propertyFields is the long form of a property declaration. Type, when set,
// is a shorthand expression that the other fields refine.
type propertyFields struct {
	Type       string `yaml:"type"`
	Kind       string `yaml:"kind"`
	List       bool   `yaml:"list"`
	Optional   bool   `yaml:"optional"`
	PrimaryKey bool   `yaml:"primaryKey"`
	Target     string `yaml:"target"`
}

func (f propertyFields) property(name string) (Property, error) {
	var p Property
	switch {
	case f.Type != "":
		parsed, err := parseTypeExpr(f.Type)
		if err != nil {
			return p, err
		}
		p = parsed
	case f.Kind != "":
		k, err := ParseKind(f.Kind)
		if err != nil {
			return p, err
		}
		p.Kind = k
	default:
		return p, fmt.Errorf("property needs a type or kind")
	}

	p.Name = name
	p.List = p.List || f.List
	p.Optional = p.Optional || f.Optional
	p.PrimaryKey = f.PrimaryKey
	if f.Target != "" {
		p.Target = f.Target
	}
	return p, nil
}
