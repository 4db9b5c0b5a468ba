// Package model turns protocol state events into typed domain models and
// defines the contract every model follows to be indexed and persisted.
//
// # Decoding
//
// Decode is total over the supported event types: each one maps to exactly
// one RoomStatus variant through a dispatch table of pure functions. Anything
// else (unknown types, non-state events, redacted events, unclassifiable
// membership transitions) is rejected with a *DecodeError carrying the
// original event. There is no default case.
//
// # Execution
//
// Model.Execute persists the model through a Store and returns every
// ref.ExecuteReference that is stale as a result. Persist builds the record
// as canonical JSON (see internal/ir) so that executing two models decoded
// from the same raw event writes byte-identical records and returns the
// same reference set.
package model
