package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRecord separates record fingerprints from any other hash computed over
// canonical JSON. The version suffix allows a future algorithm change.
const DomainRecord = "recmap/record/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of the record's canonical form.
// Two snapshots with the same type, identity and field values always produce
// the same fingerprint, so callers can skip uploading unchanged records.
// Strings are NFC normalized before hashing; the record itself is not
// modified.
func Fingerprint(r *Record) (string, error) {
	canonical, err := marshalRecord(r, true)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the record holds no doubles.
func MustFingerprint(r *Record) string {
	fp, err := Fingerprint(r)
	if err != nil {
		panic(err)
	}
	return fp
}
