package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode converts a record into a typed view such as core.Sale.
func Decode[T any](r Record) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

// DecodeAll decodes every record, skipping the ones that do not fit T.
func DecodeAll[T any](records []Record) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if v, err := Decode[T](r); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// Encode converts a typed value into a record with the same shape a load
// would produce.
func Encode(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}
