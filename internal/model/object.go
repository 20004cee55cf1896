package model

import (
	"maps"

	"github.com/roach88/recmap/internal/schema"
)

// Object is a local object of a registered type. It is not safe for
// concurrent mutation.
type Object struct {
	typ   string
	props map[string]any
}

// New creates an object of the given type with a copy of props.
func New(typeName string, props map[string]any) *Object {
	o := &Object{typ: typeName, props: make(map[string]any, len(props))}
	maps.Copy(o.props, props)
	return o
}

// ObjectType returns the local type name.
func (o *Object) ObjectType() string { return o.typ }

// Property returns a property value.
func (o *Object) Property(name string) (any, bool) {
	v, ok := o.props[name]
	return v, ok
}

// SetProperty sets a property value.
func (o *Object) SetProperty(name string, value any) {
	o.props[name] = value
}

// ClearProperty removes a property value.
func (o *Object) ClearProperty(name string) {
	delete(o.props, name)
}

// Props returns a shallow copy of the property map.
func (o *Object) Props() map[string]any {
	return maps.Clone(o.props)
}

// Clone returns a shallow copy of the object.
func (o *Object) Clone() *Object {
	return New(o.typ, o.props)
}

// Key returns the primary key value described by info.
func (o *Object) Key(info *schema.TypeInfo) (any, bool) {
	v, ok := o.props[info.PrimaryKey.Name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Deleted reports whether the soft-delete flag described by info is set.
func (o *Object) Deleted(info *schema.TypeInfo) bool {
	v, _ := o.props[info.SoftDeleteProperty()].(bool)
	return v
}
