package model_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/testutil"
)

func TestObjectCopiesProps(t *testing.T) {
	props := map[string]any{"id": "a", "title": "x"}
	obj := model.New("Note", props)
	props["title"] = "changed"

	v, ok := obj.Property("title")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	out := obj.Props()
	out["title"] = "mutated"
	v, _ = obj.Property("title")
	assert.Equal(t, "x", v, "Props returns a copy")
}

func TestObjectSetClear(t *testing.T) {
	obj := model.New("Note", nil)
	obj.SetProperty("title", "hello")
	v, ok := obj.Property("title")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	obj.ClearProperty("title")
	_, ok = obj.Property("title")
	assert.False(t, ok)
}

func TestObjectClone(t *testing.T) {
	obj := testutil.NewNote("a", map[string]any{"title": "x"})
	clone := obj.Clone()
	clone.SetProperty("title", "y")

	v, _ := obj.Property("title")
	assert.Equal(t, "x", v)
	assert.Equal(t, "Note", clone.ObjectType())
}

func TestObjectKeyAndDeleted(t *testing.T) {
	reg := testutil.Registry(t)
	info, err := reg.Lookup("Note")
	require.NoError(t, err)

	obj := testutil.NewNote("a", nil)
	key, ok := obj.Key(info)
	assert.True(t, ok)
	assert.Equal(t, "a", key)
	assert.False(t, obj.Deleted(info))

	obj.SetProperty("isDeleted", true)
	assert.True(t, obj.Deleted(info))

	obj.SetProperty("id", nil)
	_, ok = obj.Key(info)
	assert.False(t, ok)
}

func TestUUIDv7KeysAreValidRecordNames(t *testing.T) {
	for i := 0; i < 20; i++ {
		k := model.NewKey()
		parsed, err := uuid.Parse(k)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
		assert.NoError(t, identity.ValidateRecordName(k))
	}
}

func TestFixedGenerator(t *testing.T) {
	g := model.NewFixedGenerator("k1", "k2")
	assert.Equal(t, "k1", g.Generate())
	assert.Equal(t, "k2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestMemoryResolverPutGet(t *testing.T) {
	r := model.NewMemoryResolver(testutil.Registry(t))
	note := testutil.NewNote("a", nil)
	require.NoError(t, r.Put(note))

	got, ok := r.Get("Note", "a")
	require.True(t, ok)
	assert.Same(t, note, got)

	_, ok = r.Get("Note", "b")
	assert.False(t, ok)
}

func TestMemoryResolverPutErrors(t *testing.T) {
	r := model.NewMemoryResolver(testutil.Registry(t))

	assert.Error(t, r.Put(model.New("Unknown", map[string]any{"id": "a"})))
	assert.Error(t, r.Put(model.New("Note", map[string]any{"title": "no key"})))
}

func TestMemoryResolverFindOrCreate(t *testing.T) {
	ctx := context.Background()
	r := model.NewMemoryResolver(testutil.Registry(t))

	first, err := r.FindOrCreate(ctx, "Author", int64(7))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(7), "isDeleted": false}, first.(*model.Object).Props())

	again, err := r.FindOrCreate(ctx, "Author", int64(7))
	require.NoError(t, err)
	assert.Same(t, first, again, "identity map returns the same object")
	assert.Equal(t, 1, r.Len())

	_, err = r.FindOrCreate(ctx, "Unknown", "x")
	assert.Error(t, err)
}

func TestMemoryResolverFindsExisting(t *testing.T) {
	r := model.NewMemoryResolver(testutil.Registry(t))
	author := testutil.NewAuthor(3, "Ada")
	require.NoError(t, r.Put(author))

	got, err := r.FindOrCreate(context.Background(), "Author", int64(3))
	require.NoError(t, err)
	assert.Same(t, author, got)
}

func TestMemoryResolverObjectsSorted(t *testing.T) {
	r := model.NewMemoryResolver(testutil.Registry(t))
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Put(testutil.NewNote(id, nil)))
	}
	require.NoError(t, r.Put(testutil.NewAuthor(1, "Ada")))

	var ids []any
	for _, obj := range r.Objects("Note") {
		id, _ := obj.Property("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []any{"a", "b", "c"}, ids)
	assert.Len(t, r.Objects("Author"), 1)
	assert.Empty(t, r.Objects("Comment"))
}

func TestMemoryResolverConcurrentFindOrCreate(t *testing.T) {
	r := model.NewMemoryResolver(testutil.Registry(t))

	var wg sync.WaitGroup
	results := make([]any, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			obj, err := r.FindOrCreate(context.Background(), "Note", "shared")
			if err == nil {
				results[i] = obj
			}
		}(i)
	}
	wg.Wait()

	for _, obj := range results {
		assert.Same(t, results[0], obj)
	}
	assert.Equal(t, 1, r.Len())
}
