package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML descriptor file. The layout mirrors the CUE form:
//
//	types:
//	  Note:
//	    primaryKey: id
//	    properties:
//	      id: string
//	      title: string?
//	      tags: "[]string"
//	      author: Author?
//	      isDeleted: bool
//
// Type and property mappings keep their document order.
func LoadYAML(filename string, data []byte) ([]ObjectSchema, error) {
	var doc struct {
		Types yaml.Node `yaml:"types"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DescriptorError{File: filename, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if doc.Types.Kind == 0 {
		return nil, nil
	}
	if doc.Types.Kind != yaml.MappingNode {
		return nil, yamlDescriptorError(filename, &doc.Types, "types", "must be a mapping of type name to declaration")
	}

	var out []ObjectSchema
	for i := 0; i+1 < len(doc.Types.Content); i += 2 {
		keyNode, valNode := doc.Types.Content[i], doc.Types.Content[i+1]
		name := keyNode.Value

		var decl yamlType
		if err := valNode.Decode(&decl); err != nil {
			return nil, yamlDescriptorError(filename, valNode, name, err.Error())
		}
		props, err := decl.properties(filename, name, valNode)
		if err != nil {
			return nil, err
		}

		d := typeDecl{
			RecordType: decl.RecordType,
			Scope:      decl.Scope,
			Zone:       decl.Zone,
			Asset:      decl.Asset,
			SoftDelete: decl.SoftDelete,
			PrimaryKey: decl.PrimaryKey,
			Properties: props,
		}
		s, err := d.build(name)
		if err != nil {
			return nil, yamlDescriptorError(filename, valNode, name, err.Error())
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadYAMLFile reads and parses a YAML descriptor file.
func LoadYAMLFile(path string) ([]ObjectSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file %s: %w", path, err)
	}
	return LoadYAML(path, data)
}

type yamlType struct {
	RecordType string    `yaml:"recordType"`
	Scope      string    `yaml:"scope"`
	Zone       string    `yaml:"zone"`
	Asset      bool      `yaml:"asset"`
	SoftDelete string    `yaml:"softDelete"`
	PrimaryKey string    `yaml:"primaryKey"`
	Properties yaml.Node `yaml:"properties"`
}

func (t yamlType) properties(filename, typeName string, parent *yaml.Node) ([]Property, error) {
	node := &t.Properties
	if node.Kind == 0 {
		return nil, yamlDescriptorError(filename, parent, typeName+".properties", "properties are required")
	}
	if node.Kind != yaml.MappingNode {
		return nil, yamlDescriptorError(filename, node, typeName+".properties", "properties must be a mapping")
	}

	props := make([]Property, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		valNode := node.Content[i+1]
		field := typeName + "." + name

		var (
			p   Property
			err error
		)
		switch valNode.Kind {
		case yaml.ScalarNode:
			p, err = parseTypeExpr(valNode.Value)
			p.Name = name
		case yaml.MappingNode:
			var f propertyFields
			if err = valNode.Decode(&f); err == nil {
				p, err = f.property(name)
			}
		default:
			err = fmt.Errorf("property must be a type expression or a mapping")
		}
		if err != nil {
			return nil, yamlDescriptorError(filename, valNode, field, err.Error())
		}
		props = append(props, p)
	}
	return props, nil
}

func yamlDescriptorError(filename string, node *yaml.Node, field, msg string) *DescriptorError {
	return &DescriptorError{
		File:    filename,
		Line:    node.Line,
		Column:  node.Column,
		Field:   field,
		Message: msg,
	}
}
