package tagtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// jsonElement mirrors one attribute of the DICOM JSON model.
type jsonElement struct {
	VR    string            `json:"vr"`
	Value []json.RawMessage `json:"Value"`
}

// DecodeJSON reads a dataset in the DICOM JSON model: an object keyed by
// eight-digit hex tags whose members carry "vr" and an optional "Value".
// Person names and binary payloads are kept as their raw JSON text.
func DecodeJSON(r io.Reader) (*Dataset, error) {
	var raw map[string]jsonElement
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset json: %w", err)
	}
	return fromJSON(raw)
}

func fromJSON(raw map[string]jsonElement) (*Dataset, error) {
	ds := NewDataset()
	for key, el := range raw {
		t, err := parseTagKey(key)
		if err != nil {
			return nil, err
		}
		if el.VR == "SQ" {
			items := make([]*Dataset, 0, len(el.Value))
			for i, msg := range el.Value {
				var child map[string]jsonElement
				if err := json.Unmarshal(msg, &child); err != nil {
					return nil, fmt.Errorf("sequence %s item %d: %w", t, i, err)
				}
				item, err := fromJSON(child)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			ds.SetSequence(t, items...)
			continue
		}
		values := make([]Value, 0, len(el.Value))
		for _, msg := range el.Value {
			values = append(values, jsonValue(msg))
		}
		ds.Set(t, el.VR, values...)
	}
	return ds, nil
}

func jsonValue(msg json.RawMessage) Value {
	msg = bytes.TrimSpace(msg)
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return Text(s)
	}
	if f, err := strconv.ParseFloat(string(msg), 64); err == nil {
		return Number(f)
	}
	return Text(string(msg))
}

func parseTagKey(key string) (Tag, error) {
	if len(key) != 8 {
		return Tag{}, fmt.Errorf("invalid tag key %q", key)
	}
	n, err := strconv.ParseUint(key, 16, 32)
	if err != nil {
		return Tag{}, fmt.Errorf("invalid tag key %q: %w", key, err)
	}
	return Tag{Group: uint16(n >> 16), Element: uint16(n)}, nil
}
