package store

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/model"
)

// Session is a codec.Resolver over a Store that hands out one object per
// (type, key) and saves everything it handed out in a single Flush. Nothing
// is written before Flush, so a failed decode leaves the store untouched.
//
// Thread-safety: all methods are safe for concurrent use.
type Session struct {
	store *Store

	mu      sync.Mutex
	objects map[string]*model.Object
	order   []string
}

var _ codec.Resolver = (*Session)(nil)

// Session starts an empty session.
func (s *Store) Session() *Session {
	return &Session{store: s, objects: make(map[string]*model.Object)}
}

// FindOrCreate returns the session's object for key, loading it from the
// store or creating an unsaved stub on first use.
func (ss *Session) FindOrCreate(ctx context.Context, typeName string, key any) (codec.MutableObject, error) {
	info, err := ss.store.reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	pk, err := pkText(ss.store.reg, info, key)
	if err != nil {
		return nil, err
	}
	id := info.Name() + "\x00" + pk

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if obj, ok := ss.objects[id]; ok {
		return obj, nil
	}

	obj, err := ss.store.Load(ctx, typeName, key)
	switch {
	case errors.Is(err, ErrNotFound):
		obj = model.New(typeName, map[string]any{
			info.PrimaryKey.Name:      key,
			info.SoftDeleteProperty(): false,
		})
	case err != nil:
		return nil, err
	}
	ss.objects[id] = obj
	ss.order = append(ss.order, id)
	return obj, nil
}

// Objects returns the session's objects in the order they were first
// requested.
func (ss *Session) Objects() []*model.Object {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*model.Object, len(ss.order))
	for i, id := range ss.order {
		out[i] = ss.objects[id]
	}
	return out
}

// Flush saves every object of the session in one transaction.
func (ss *Session) Flush(ctx context.Context) error {
	return ss.store.SaveAll(ctx, ss.Objects()...)
}
