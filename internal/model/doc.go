// Package model provides a dynamic local object and an in-memory object
// resolver.
//
// Object stores properties in a map keyed by property name and satisfies
// codec.MutableObject, so any registered type can be represented without
// generated Go structs. MemoryResolver is an identity map of Objects keyed
// by (type, primary key) that implements codec.Resolver.
package model
