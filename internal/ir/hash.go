package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainHistoryEntry = "patchstore/history-entry/v1"
	DomainSnapshot     = "patchstore/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryID computes the content-addressed id of a history entry.
// operations is the canonical value form of the entry's forward batch.
//
// The inverse batch is excluded: it is derived from the state the batch
// was applied to, so two stores that replayed the same history agree on
// every id regardless of how the inverse was obtained.
func EntryID(seq int64, operations Array) (string, error) {
	obj := Object{
		"seq":        Int(seq),
		"operations": operations,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainHistoryEntry, canonical), nil
}

// SnapshotHash computes a content hash of a state tree.
// Two snapshots hash equal iff they are deep-equal.
func SnapshotHash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustEntryID is like EntryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryID(seq int64, operations Array) string {
	id, err := EntryID(seq, operations)
	if err != nil {
		panic(err)
	}
	return id
}
