package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeID reads a JSON identifier as an opaque string. Row ids may arrive as
// strings or numbers; a number keeps its literal text, so 42 becomes "42".
// null and an absent value decode to "".
func DecodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("id must be a string or number, got %s", raw)
	}
}

// UnmarshalJSON accepts string and numeric ids.
func (d *Disaster) UnmarshalJSON(b []byte) error {
	type plain Disaster
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	id, err := DecodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("disaster: %w", err)
	}
	d.ID = id
	return nil
}

// UnmarshalJSON accepts string and numeric ids.
func (r *Resource) UnmarshalJSON(b []byte) error {
	type plain Resource
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	id, err := DecodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("resource: %w", err)
	}
	r.ID = id
	return nil
}
