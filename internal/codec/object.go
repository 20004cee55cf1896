package codec

import (
	"context"

	"github.com/roach88/recmap/internal/record"
)

// Object is the read side of a local object.
type Object interface {
	ObjectType() string

	// Property returns the current value of a property. Absent and nil values
	// are treated the same.
	Property(name string) (any, bool)
}

// MutableObject is a local object the decoder can write to.
type MutableObject interface {
	Object
	SetProperty(name string, value any)
	ClearProperty(name string)
}

// Resolver finds local objects by primary key, creating them when missing.
type Resolver interface {
	FindOrCreate(ctx context.Context, typeName string, key any) (MutableObject, error)
}

// AssetProvider converts between asset wrapper objects and Asset values.
type AssetProvider interface {
	// RemoteAsset builds the Asset value for a wrapper. It must not do I/O.
	RemoteAsset(wrapper Object) (record.Asset, error)

	// LocalAsset materializes an Asset value into a wrapper object.
	LocalAsset(ctx context.Context, asset record.Asset, wrapper MutableObject) error
}
