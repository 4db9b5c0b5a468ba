// Package ir provides the canonical serialization layer for acterstore.
//
// Every persisted model record is stored as canonical JSON so that two
// decodes of the same protocol event produce byte-identical records. This
// makes re-execution an equal-write and lets stores detect divergent content
// for the same event id.
//
// This package imports nothing internal. Key constraints:
//   - NO float values anywhere; protocol content uses integers only
//   - Object keys sorted by UTF-16 code units (RFC 8785)
//   - Strings NFC normalized for hashing and snapshots; stored payloads keep
//     their strings as decoded
//   - Content hashes use SHA-256 with a versioned domain prefix
package ir
