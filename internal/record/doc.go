// Package record defines the remote record model produced and consumed by the
// mapping engine.
//
// A Record is a flat bag of named Values keyed by a RecordID (record name plus
// zone). Value is a sealed interface: only the variants declared in value.go
// implement it, so encoders and decoders can switch over the full set.
//
// Key constraints:
//   - Lists are homogeneous and hold scalar values only
//   - Null is an explicit value, distinct from an absent field
//   - Canonical JSON (canonical.go) is the only form used for fingerprints
//
// This package imports nothing internal.
package record
