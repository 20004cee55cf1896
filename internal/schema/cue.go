package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadCUE compiles CUE descriptor source. Types are declared under the
// top-level "types" struct:
//
//	types: Note: {
//	    primaryKey: "id"
//	    scope:      "private"
//	    properties: {
//	        id:        "string"
//	        title:     "string?"
//	        tags:      "[]string"
//	        author:    "Author?"
//	        isDeleted: "bool"
//	    }
//	}
//
// Properties keep their declaration order.
func LoadCUE(filename string, src []byte) ([]ObjectSchema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileTypes(v)
}

// LoadCUEDir loads every .cue file in dir as a single CUE instance.
func LoadCUEDir(dir string) ([]ObjectSchema, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &DescriptorError{File: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &DescriptorError{File: dir, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileTypes(v)
}

// CompileTypes extracts every type declared under "types" in a CUE value.
func CompileTypes(v cue.Value) ([]ObjectSchema, error) {
	typesVal := v.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return nil, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ObjectSchema
	for iter.Next() {
		s, err := CompileType(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileType parses one type declaration. The type name is the last label
// of the value's path.
func CompileType(v cue.Value) (ObjectSchema, error) {
	if err := v.Err(); err != nil {
		return ObjectSchema{}, formatCUEError(err)
	}

	var name string
	if labels := v.Path().Selectors(); len(labels) > 0 {
		name = labels[len(labels)-1].String()
	}

	var (
		d   typeDecl
		err error
	)
	if d.RecordType, err = optionalString(v, "recordType"); err != nil {
		return ObjectSchema{}, err
	}
	if d.Scope, err = optionalString(v, "scope"); err != nil {
		return ObjectSchema{}, err
	}
	if d.Zone, err = optionalString(v, "zone"); err != nil {
		return ObjectSchema{}, err
	}
	if d.SoftDelete, err = optionalString(v, "softDelete"); err != nil {
		return ObjectSchema{}, err
	}
	if d.PrimaryKey, err = optionalString(v, "primaryKey"); err != nil {
		return ObjectSchema{}, err
	}
	if d.Asset, err = optionalBool(v, "asset"); err != nil {
		return ObjectSchema{}, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return ObjectSchema{}, cueDescriptorError(v.Pos(), name+".properties", "properties are required")
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return ObjectSchema{}, formatCUEError(err)
	}
	for iter.Next() {
		p, err := compileProperty(iter.Label(), iter.Value())
		if err != nil {
			return ObjectSchema{}, cueDescriptorError(iter.Value().Pos(), name+"."+iter.Label(), err.Error())
		}
		d.Properties = append(d.Properties, p)
	}

	s, err := d.build(name)
	if err != nil {
		return ObjectSchema{}, cueDescriptorError(v.Pos(), name, err.Error())
	}
	return s, nil
}

// compileProperty accepts either a shorthand string or a struct with the
// long-form fields.
func compileProperty(name string, v cue.Value) (Property, error) {
	if expr, err := v.String(); err == nil {
		p, err := parseTypeExpr(expr)
		p.Name = name
		return p, err
	}

	var f propertyFields
	var err error
	if f.Type, err = optionalString(v, "type"); err != nil {
		return Property{}, err
	}
	if f.Kind, err = optionalString(v, "kind"); err != nil {
		return Property{}, err
	}
	if f.Target, err = optionalString(v, "target"); err != nil {
		return Property{}, err
	}
	if f.List, err = optionalBool(v, "list"); err != nil {
		return Property{}, err
	}
	if f.Optional, err = optionalBool(v, "optional"); err != nil {
		return Property{}, err
	}
	if f.PrimaryKey, err = optionalBool(v, "primaryKey"); err != nil {
		return Property{}, err
	}
	return f.property(name)
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func cueDescriptorError(pos token.Pos, field, msg string) *DescriptorError {
	e := &DescriptorError{Field: field, Message: msg}
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// formatCUEError extracts position info from the first CUE error.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return cueDescriptorError(positions[0], "cue", first.Error())
	}
	return err
}

// findFiles returns the files in dir (not recursive) with one of the given
// extensions, sorted by name.
func findFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return files, nil
}
