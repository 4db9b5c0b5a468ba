package ir

// Version constants for the persisted record format.
const (
	// RecordVersion is the schema version written with every model record.
	RecordVersion = "1"
)
