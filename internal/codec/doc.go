// Package codec translates between local objects and remote records.
//
// The translation is table driven. When an Encoder or Decoder is built it
// classifies every property of every registered type into a Shape:
//
//	ShapeScalar           copied verbatim, omitted when absent
//	ShapeScalarList       one homogeneous List value, omitted when empty
//	ShapeAsset            reference to an asset wrapper, unwrapped into an Asset
//	ShapeReference        Reference to the target's record ID, Null when absent
//	ShapeToMany           not mapped
//	ShapeUnsupportedList  list of non-primitive values, not mapped
//	ShapeUnsupported      non-primitive value, not mapped
//
// Encode and Decode then switch over the shape of each field. Fields that
// cannot be mapped are never fatal: they are skipped, logged with slog.Warn
// and listed in the returned Report. Errors are reserved for configuration
// problems (unregistered types, invalid primary keys) and for failures of
// the Resolver or AssetProvider collaborators during decode.
//
// Decoding never clears a local value because a field is missing from the
// record. Only an explicit Null clears a field.
//
// Encoders and Decoders hold no mutable state and are safe for concurrent use
// on distinct objects. Callers that read objects from a transactional store
// should encode inside a read transaction so the snapshot is consistent.
package codec
