// Package identity derives remote record identifiers from local primary keys.
//
// A record identifier is the pair (zone, record name). The zone comes from the
// type's registered TypeInfo; the record name is the primary key value:
//
//   - string keys are used as-is after validation (printable ASCII, at most
//     255 characters, no leading underscore)
//   - integer keys are rendered in base 10 and never validated
//
// The same primary key always yields the same identifier, which lets the
// transport treat uploads as upserts. Resolution is pure and safe for
// concurrent use once the registry is frozen.
//
// Validation can be switched off with WithValidation(Skip). In that mode
// malformed string keys pass through unchanged and callers must guarantee
// valid identifiers upstream.
package identity
