package ref

import (
	"bytes"
	"encoding/json"
)

// marshalTagged renders an externally tagged variant:
// unit variants as a bare string, single-field variants as {"Tag":v}
// and multi-field variants as {"Tag":[v1,v2]}.
func marshalTagged(tag string, fields ...any) ([]byte, error) {
	switch len(fields) {
	case 0:
		return json.Marshal(tag)
	case 1:
		return json.Marshal(map[string]any{tag: fields[0]})
	default:
		return json.Marshal(map[string]any{tag: fields})
	}
}

// unmarshalTagged splits an externally tagged variant into its tag and raw
// payload. Payload is nil for unit variants.
func unmarshalTagged(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return "", nil, invalidf("tag: %v", err)
		}
		return tag, nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, invalidf("expected tagged variant: %v", err)
	}
	if len(obj) != 1 {
		return "", nil, invalidf("tagged variant must have exactly one key, got %d", len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	panic("unreachable")
}

// decodeFields decodes a variant payload into dst. One destination expects a
// bare value; several expect a JSON array of exactly that length.
func decodeFields(tag string, payload json.RawMessage, dst ...any) error {
	if len(dst) == 0 {
		if payload != nil {
			return invalidf("%s takes no payload", tag)
		}
		return nil
	}
	if payload == nil {
		return invalidf("%s requires a payload", tag)
	}
	if len(dst) == 1 {
		if err := json.Unmarshal(payload, dst[0]); err != nil {
			return invalidf("%s: %v", tag, err)
		}
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(payload, &parts); err != nil {
		return invalidf("%s: %v", tag, err)
	}
	if len(parts) != len(dst) {
		return invalidf("%s expects %d fields, got %d", tag, len(dst), len(parts))
	}
	for i, part := range parts {
		if err := json.Unmarshal(part, dst[i]); err != nil {
			return invalidf("%s field %d: %v", tag, i, err)
		}
	}
	return nil
}
