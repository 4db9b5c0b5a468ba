// Package ref defines the reference types that name every retrievable bucket
// and every addressable slot in acterstore.
//
// Two families live here:
//   - IndexKey: a queryable bucket of models (room history, per-object
//     sub-lists, global special lists, the redacted index, all history)
//   - ExecuteReference: a slot that persisting a model may have made stale
//
// All reference values are comparable, so they can be used directly as map
// keys, and totally ordered by Compare (variant ordinal first, then fields
// in declaration order).
//
// # Stable Encoding
//
// The JSON form is externally tagged and versioned by EncodingVersion:
//
//	"AllHistory"
//	{"RoomHistory":"!room:example.org"}
//	{"RoomSection":["!room:example.org","tasks"]}
//	{"Model":"$event"}
//
// These strings are persisted inside storage keys and cached index contents.
// Persistent stores record EncodingVersion when created and refuse to open
// when it differs (CheckEncoding). Renaming a variant or an enum value is a
// breaking storage-format change and requires bumping EncodingVersion.
//
// # Storage Keys
//
// StorageKey projects a reference to its plain-string persistence key. Kinds
// without a defined key return an error wrapping ErrKeyNotImplemented; they
// never fall back to a default key.
package ref
