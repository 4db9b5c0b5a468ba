// Package store provides SQLite-backed durable storage for model records.
//
// The store implements model.Backend:
//   - models: one row per event id (upsert, canonical JSON content)
//   - index_members: which index buckets each model belongs to
//
// # Critical Patterns
//
// Upsert by event id:
//   - Saving the same event twice writes identical rows (equal-write)
//   - Index memberships are replaced wholesale on every save
//   - A redaction marker survives a later re-save of the same event
//
// Deterministic listing:
//   - All index queries use ORDER BY origin_server_ts ASC, event_id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - Single open connection: SQLite has one writer
package store
