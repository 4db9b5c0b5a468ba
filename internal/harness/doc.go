// Package harness runs YAML event scenarios against a fresh in-memory store
// and checks the outcome of every event.
//
// # Scenario Format
//
//	name: room_topic
//	description: "Topic change with previous content"
//	user_id: "@observer:example.org"
//	events:
//	  - event_id: "$topic"
//	    room_id: "!room:example.org"
//	    sender: "@alice:example.org"
//	    origin_server_ts: 1700000001000
//	    type: m.room.topic
//	    state_key: ""
//	    content: { topic: new }
//	    unsigned: { prev_content: { topic: old } }
//	expect:
//	  - event_id: "$topic"
//	    kind: roomTopic
//	assertions:
//	  - type: reference
//	    ref: "Model($topic)"
//	  - type: model
//	    key: "acter::$topic"
//	    kind: roomTopic
//
// Events are client-format JSON objects written as YAML. Expect entries
// name either the decoded kind or rejected: true for one event.
//
// # Assertion Types
//
//   - reference: a stale reference (by its String form) was reported
//   - reference_count: exactly count references were reported
//   - model: a record exists under key, optionally with kind and redaction state
//   - index_count: the index rendered as index has exactly count records
//   - rejected_count: exactly count events were rejected
//
// # Golden Traces
//
// RunWithGolden compares the per-event trace and final store contents with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
