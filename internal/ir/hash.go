package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashing.
// Version suffix enables future algorithm migration.
const (
	DomainModel = "acter/model/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash hashes already-canonical model content.
// Callers must pass the output of Canonicalize or CanonicalizeJSON; hashing
// non-canonical bytes defeats equal-write detection.
func ContentHash(canonical []byte) string {
	return hashWithDomain(DomainModel, canonical)
}

// CanonicalHash returns v's canonical bytes with strings preserved, and the
// content hash of its NFC-normalized form. Payloads that differ only in
// Unicode normalization therefore share a hash.
func CanonicalHash(v any) ([]byte, string, error) {
	data, err := CanonicalizePreserving(v)
	if err != nil {
		return nil, "", fmt.Errorf("canonical hash: %w", err)
	}
	normalized, err := CanonicalizeJSON(data)
	if err != nil {
		return nil, "", fmt.Errorf("canonical hash: %w", err)
	}
	return data, ContentHash(normalized), nil
}
