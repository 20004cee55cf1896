package model

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/schema"
)

type objectKey struct {
	typ string
	key string
}

func makeKey(typeName string, key any) objectKey {
	return objectKey{typ: typeName, key: fmt.Sprint(key)}
}

// MemoryResolver is an in-memory identity map of objects. It returns the same
// *Object for the same (type, key) pair and is safe for concurrent use.
type MemoryResolver struct {
	reg *schema.Registry

	mu      sync.Mutex
	objects map[objectKey]*Object
}

var _ codec.Resolver = (*MemoryResolver)(nil)

// NewMemoryResolver creates an empty resolver for the registry's types.
func NewMemoryResolver(reg *schema.Registry) *MemoryResolver {
	return &MemoryResolver{reg: reg, objects: make(map[objectKey]*Object)}
}

// Put adds or replaces an object.
func (r *MemoryResolver) Put(obj *Object) error {
	info, err := r.reg.Lookup(obj.ObjectType())
	if err != nil {
		return err
	}
	key, ok := obj.Key(info)
	if !ok {
		return fmt.Errorf("%s object has no primary key", obj.ObjectType())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[makeKey(info.Name(), key)] = obj
	return nil
}

// Get returns the object with the given type and key.
func (r *MemoryResolver) Get(typeName string, key any) (*Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[makeKey(typeName, key)]
	return obj, ok
}

// FindOrCreate returns the object with the given key, creating a stub with
// only the primary key and a cleared soft-delete flag when it is missing.
func (r *MemoryResolver) FindOrCreate(_ context.Context, typeName string, key any) (codec.MutableObject, error) {
	info, err := r.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := makeKey(typeName, key)
	if obj, ok := r.objects[k]; ok {
		return obj, nil
	}
	obj := New(typeName, map[string]any{
		info.PrimaryKey.Name:      key,
		info.SoftDeleteProperty(): false,
	})
	r.objects[k] = obj
	return obj, nil
}

// Objects returns every object of a type ordered by key.
func (r *MemoryResolver) Objects(typeName string) []*Object {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []string
	byKey := make(map[string]*Object)
	for k, obj := range r.objects {
		if k.typ == typeName {
			keys = append(keys, k.key)
			byKey[k.key] = obj
		}
	}
	sort.Strings(keys)

	out := make([]*Object, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out
}

// Len returns the number of objects held.
func (r *MemoryResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}
