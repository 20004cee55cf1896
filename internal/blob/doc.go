// Package blob stores the binary payloads behind asset wrapper objects.
//
// Store is a minimal S3-like interface with three drivers: memory (tests),
// fs (local directory with a JSON .meta sidecar per blob) and s3 (AWS S3 or
// any S3-compatible endpoint). Open selects a driver from a Config.
//
// Keys are slash-separated relative paths. Put is create-only: storing to an
// existing key fails, which keeps asset payloads immutable once referenced.
package blob
