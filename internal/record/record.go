package record

import (
	"slices"
	"unicode/utf16"
)

// Zone and owner names understood by the remote service.
const (
	// DefaultZoneName is the shared zone every database scope provides.
	DefaultZoneName = "_defaultZone"

	// DefaultOwnerName stands for the currently authenticated principal.
	DefaultOwnerName = "__defaultOwner__"
)

// ZoneID identifies a record zone within the owner's database.
type ZoneID struct {
	ZoneName  string `json:"zoneName"`
	OwnerName string `json:"ownerName"`
}

// DefaultZone returns the default zone of the current principal.
func DefaultZone() ZoneID {
	return ZoneID{ZoneName: DefaultZoneName, OwnerName: DefaultOwnerName}
}

// RecordID locates a record: a record name unique within its zone.
type RecordID struct {
	RecordName string `json:"recordName"`
	Zone       ZoneID `json:"zoneID"`
}

// String renders the ID as owner/zone/name for logs and error messages.
func (id RecordID) String() string {
	return id.Zone.OwnerName + "/" + id.Zone.ZoneName + "/" + id.RecordName
}

// Record is the remote representation of one local object.
// A Record is built fresh per encode call and is never retained by the engine.
type Record struct {
	Type   string
	ID     RecordID
	Fields map[string]Value
}

// New creates an empty record of the given type and identity.
func New(recordType string, id RecordID) *Record {
	return &Record{
		Type:   recordType,
		ID:     id,
		Fields: make(map[string]Value),
	}
}

// Set stores v under name. A nil v is stored as Null.
func (r *Record) Set(name string, v Value) {
	if v == nil {
		v = Null{}
	}
	r.Fields[name] = v
}

// SetNull explicitly clears name on the remote side.
func (r *Record) SetNull(name string) {
	r.Fields[name] = Null{}
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Has reports whether name is present, including explicit Null entries.
func (r *Record) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// IsNull reports whether name is present and explicitly Null.
func (r *Record) IsNull(name string) bool {
	v, ok := r.Fields[name]
	if !ok {
		return false
	}
	_, isNull := v.(Null)
	return isNull
}

// Len returns the number of fields set, explicit nulls included.
func (r *Record) Len() int { return len(r.Fields) }

// Keys returns field names in canonical (UTF-16 code unit) order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison is by UTF-8 bytes, which differs for
// characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
