package handler

import (
	"bytes"
	"encoding/json"
	"strings"
)

// jsonString accepts any JSON value without failing the bind, so a wrong type
// surfaces as a field-level validation message instead of a 400.
// Surrounding whitespace is trimmed and null counts as absent.
type jsonString struct {
	Value   string
	Invalid bool
}

func (s *jsonString) UnmarshalJSON(b []byte) error {
	*s = decodeString(b, true)
	return nil
}

// jsonSecret is a jsonString that keeps surrounding whitespace.
type jsonSecret jsonString

func (s *jsonSecret) UnmarshalJSON(b []byte) error {
	*s = jsonSecret(decodeString(b, false))
	return nil
}

func decodeString(b []byte, trim bool) jsonString {
	if bytes.Equal(b, []byte("null")) {
		return jsonString{}
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return jsonString{Invalid: true}
	}
	if trim {
		v = strings.TrimSpace(v)
	}
	return jsonString{Value: v}
}

// jsonBool accepts true, false, 1, 0, "1" and "0".
type jsonBool struct {
	Value   bool
	Present bool
	Invalid bool
}

func (b *jsonBool) UnmarshalJSON(raw []byte) error {
	*b = jsonBool{Present: true}
	switch string(bytes.TrimSpace(raw)) {
	case "null":
		b.Present = false
	case "true", "1", `"1"`:
		b.Value = true
	case "false", "0", `"0"`:
	default:
		b.Invalid = true
	}
	return nil
}
