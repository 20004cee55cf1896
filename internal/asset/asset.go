package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/roach88/recmap/internal/blob"
	"github.com/roach88/recmap/internal/codec"
	"github.com/roach88/recmap/internal/model"
	"github.com/roach88/recmap/internal/record"
	"github.com/roach88/recmap/internal/schema"
)

// Wrapper property names.
const (
	PropKey         = "key"
	PropBlobKey     = "blobKey"
	PropSize        = "size"
	PropContentType = "contentType"
	PropChecksum    = "checksum"
	PropDeleted     = schema.DefaultSoftDelete
)

// KeyPrefix is the blob key prefix under which imported payloads are stored.
const KeyPrefix = "assets"

// Schema returns the descriptor of an asset wrapper type called name.
func Schema(name string) schema.ObjectSchema {
	return schema.ObjectSchema{
		Name:  name,
		Asset: true,
		Properties: []schema.Property{
			{Name: PropKey, Kind: schema.KindString, PrimaryKey: true},
			{Name: PropBlobKey, Kind: schema.KindString},
			{Name: PropSize, Kind: schema.KindInt},
			{Name: PropContentType, Kind: schema.KindString, Optional: true},
			{Name: PropChecksum, Kind: schema.KindString, Optional: true},
			{Name: PropDeleted, Kind: schema.KindBool},
		},
	}
}

// BlobKey returns the blob key used for an imported wrapper.
func BlobKey(typeName, name string) string {
	return path.Join(KeyPrefix, typeName, name)
}

// Provider converts between wrapper objects and Asset values.
type Provider struct {
	store blob.Store
}

var _ codec.AssetProvider = (*Provider)(nil)

// NewProvider creates a provider. store may be nil, in which case LocalAsset
// does not check that the payload is present.
func NewProvider(store blob.Store) *Provider {
	return &Provider{store: store}
}

// RemoteAsset reads the wrapper's properties into an Asset value.
func (p *Provider) RemoteAsset(wrapper codec.Object) (record.Asset, error) {
	name, err := stringProp(wrapper, PropKey, true)
	if err != nil {
		return record.Asset{}, err
	}
	blobKey, err := stringProp(wrapper, PropBlobKey, true)
	if err != nil {
		return record.Asset{}, err
	}
	contentType, err := stringProp(wrapper, PropContentType, false)
	if err != nil {
		return record.Asset{}, err
	}
	checksum, err := stringProp(wrapper, PropChecksum, false)
	if err != nil {
		return record.Asset{}, err
	}

	var size int64
	if v, ok := wrapper.Property(PropSize); ok && v != nil {
		switch n := v.(type) {
		case int64:
			size = n
		case int:
			size = int64(n)
		default:
			return record.Asset{}, fmt.Errorf("%s: want int, got %T", PropSize, v)
		}
	}

	return record.Asset{
		Name:        name,
		BlobKey:     blobKey,
		Size:        size,
		ContentType: contentType,
		Checksum:    checksum,
	}, nil
}

// LocalAsset copies an Asset value into a wrapper object. A payload missing
// from the store is logged, not an error: fetching it is the transport's job.
func (p *Provider) LocalAsset(ctx context.Context, a record.Asset, wrapper codec.MutableObject) error {
	wrapper.SetProperty(PropBlobKey, a.BlobKey)
	wrapper.SetProperty(PropSize, a.Size)
	setOptional(wrapper, PropContentType, a.ContentType)
	setOptional(wrapper, PropChecksum, a.Checksum)

	if p.store == nil {
		return nil
	}
	info, err := p.store.Head(ctx, a.BlobKey)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		slog.Warn("asset payload not present locally", "asset", a.Name, "blob", a.BlobKey)
		return nil
	case err != nil:
		return fmt.Errorf("checking payload of %s: %w", a.Name, err)
	}
	if a.Checksum != "" && info.ETag != "" && info.ETag != a.Checksum {
		slog.Warn("asset payload checksum differs", "asset", a.Name, "local", info.ETag, "remote", a.Checksum)
	}
	return nil
}

// Import streams r into store and returns a new wrapper of type typeName
// keyed by name.
func Import(ctx context.Context, store blob.Store, typeName, name string, r io.Reader, contentType string) (*model.Object, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	key := BlobKey(typeName, name)
	info, err := store.Put(ctx, key, r, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"type": typeName, "name": name},
	})
	if err != nil {
		return nil, fmt.Errorf("storing payload for %s %s: %w", typeName, name, err)
	}
	slog.Debug("asset imported", "type", typeName, "name", name, "blob", info.Key, "size", info.Size)

	props := map[string]any{
		PropKey:     name,
		PropBlobKey: info.Key,
		PropSize:    info.Size,
		PropDeleted: false,
	}
	if contentType != "" {
		props[PropContentType] = contentType
	}
	if info.ETag != "" {
		props[PropChecksum] = info.ETag
	}
	return model.New(typeName, props), nil
}

// Open returns a reader over a wrapper's payload.
func Open(ctx context.Context, store blob.Store, wrapper codec.Object) (io.ReadCloser, error) {
	blobKey, err := stringProp(wrapper, PropBlobKey, true)
	if err != nil {
		return nil, err
	}
	_, rc, err := store.Get(ctx, blobKey)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("asset name is empty")
	}
	if _, err := blob.CleanKey(name); err != nil {
		return fmt.Errorf("asset name %q: %w", name, err)
	}
	return nil
}

func stringProp(obj codec.Object, name string, required bool) (string, error) {
	v, ok := obj.Property(name)
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%s %s has no value", obj.ObjectType(), name)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %T", name, v)
	}
	return s, nil
}

func setOptional(obj codec.MutableObject, name, value string) {
	if value == "" {
		obj.ClearProperty(name)
		return
	}
	obj.SetProperty(name, value)
}
