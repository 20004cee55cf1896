// Package asset implements the binary asset wrapper type.
//
// An asset wrapper is a local object whose properties describe a blob held
// in a blob.Store: the blob key, size, content type and SHA-256 checksum.
// When another type references a wrapper, the codec stores the wrapper's
// Asset value in the record instead of a record reference; Provider does
// that conversion in both directions.
package asset
