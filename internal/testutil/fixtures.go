// Package testutil holds fixtures shared by package tests: a registry with
// Note, Author, Comment and Attachment types, object constructors, and a
// deterministic clock.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/recmap/internal/asset"
	"github.com/roach88/recmap/internal/identity"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/schema"
)

// Owner is the principal used by fixture registries.
const Owner = "_owner"

// NoteSchema covers every property shape the codec distinguishes.
func NoteSchema() schema.ObjectSchema {
	return schema.ObjectSchema{
		Name: "Note",
		Properties: []schema.Property{
			{Name: "id", Kind: schema.KindString, PrimaryKey: true},
			{Name: "title", Kind: schema.KindString, Optional: true},
			{Name: "views", Kind: schema.KindInt, Optional: true},
			{Name: "pinned", Kind: schema.KindBool, Optional: true},
			{Name: "rating", Kind: schema.KindFloat, Optional: true},
			{Name: "score", Kind: schema.KindDouble, Optional: true},
			{Name: "thumbnail", Kind: schema.KindBytes, Optional: true},
			{Name: "createdAt", Kind: schema.KindTimestamp, Optional: true},
			{Name: "tags", Kind: schema.KindString, List: true},
			{Name: "scores", Kind: schema.KindDouble, List: true},
			{Name: "author", Kind: schema.KindObject, Target: "Author", Optional: true},
			{Name: "attachment", Kind: schema.KindObject, Target: "Attachment", Optional: true},
			{Name: "comments", Kind: schema.KindObject, Target: "Comment", List: true},
			{Name: "extras", Kind: schema.KindMixed, List: true},
			{Name: "isDeleted", Kind: schema.KindBool},
		},
	}
}

// AuthorSchema has an integer primary key and an inverse relationship.
func AuthorSchema() schema.ObjectSchema {
	return schema.ObjectSchema{
		Name: "Author",
		Properties: []schema.Property{
			{Name: "id", Kind: schema.KindInt, PrimaryKey: true},
			{Name: "name", Kind: schema.KindString},
			{Name: "notes", Kind: schema.KindLinkingObjects, Target: "Note"},
			{Name: "isDeleted", Kind: schema.KindBool},
		},
	}
}

// CommentSchema is the target of Note's to-many relationship.
func CommentSchema() schema.ObjectSchema {
	return schema.ObjectSchema{
		Name:    "Comment",
		Options: schema.SyncOptions{Scope: schema.ScopePublic},
		Properties: []schema.Property{
			{Name: "id", Kind: schema.KindString, PrimaryKey: true},
			{Name: "text", Kind: schema.KindString},
			{Name: "isDeleted", Kind: schema.KindBool},
		},
	}
}

// Schemas returns every fixture schema.
func Schemas() []schema.ObjectSchema {
	return []schema.ObjectSchema{
		NoteSchema(),
		AuthorSchema(),
		CommentSchema(),
		asset.Schema("Attachment"),
	}
}

// Registry returns a frozen registry of the fixture schemas owned by Owner.
func Registry(t testing.TB, opts ...schema.Option) *schema.Registry {
	t.Helper()
	opts = append([]schema.Option{schema.WithOwner(Owner)}, opts...)
	reg, err := schema.Build(Schemas(), opts...)
	require.NoError(t, err)
	return reg
}

// Resolver returns a strict identity resolver over a fixture registry.
func Resolver(t testing.TB, opts ...identity.Option) *identity.Resolver {
	t.Helper()
	return identity.New(Registry(t), opts...)
}

// NewNote returns a Note with id, a cleared soft-delete flag and props.
func NewNote(id string, props map[string]any) *model.Object {
	obj := model.New("Note", props)
	obj.SetProperty("id", id)
	if _, ok := obj.Property("isDeleted"); !ok {
		obj.SetProperty("isDeleted", false)
	}
	return obj
}

// NewAuthor returns an Author.
func NewAuthor(id int64, name string) *model.Object {
	return model.New("Author", map[string]any{"id": id, "name": name, "isDeleted": false})
}

// NewComment returns a Comment.
func NewComment(id, text string) *model.Object {
	return model.New("Comment", map[string]any{"id": id, "text": text, "isDeleted": false})
}

// NewAttachment returns an Attachment wrapper describing a stored blob.
func NewAttachment(key string, size int64, checksum string) *model.Object {
	return model.New("Attachment", map[string]any{
		asset.PropKey:         key,
		asset.PropBlobKey:     asset.BlobKey("Attachment", key),
		asset.PropSize:        size,
		asset.PropContentType: "image/png",
		asset.PropChecksum:    checksum,
		asset.PropDeleted:     false,
	})
}

// Timestamp returns Epoch plus d, for readable time fixtures.
func Timestamp(d time.Duration) time.Time {
	return Epoch.Add(d)
}
