package objstore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
)

// Object is an in-memory document: field name to JSON-compatible value.
// It implements sql.Scanner and driver.Valuer so it can be stored in the data column.
type Object map[string]any

// ID returns the document id, or "" when it is missing or not a string.
func (o Object) ID() string {
	id, _ := o[IDField].(string)
	return id
}

// Clone returns a shallow copy of the object.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

// Merge returns a copy of o with every field of patch applied on top.
// A nil value in patch removes the field.
func (o Object) Merge(patch Object) Object {
	out := o.Clone()
	if out == nil {
		out = Object{}
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Project keeps only the listed fields (and the id). "*" or an empty list keeps everything.
func (o Object) Project(fields []string) Object {
	if len(fields) == 0 || o == nil {
		return o
	}
	for _, f := range fields {
		if f == "*" {
			return o
		}
	}
	out := make(Object, len(fields)+1)
	if id, ok := o[IDField]; ok {
		out[IDField] = id
	}
	for _, f := range fields {
		if v, ok := o[f]; ok {
			out[f] = v
		}
	}
	return out
}

// withoutID returns the document body as stored in the data column.
func (o Object) withoutID() Object {
	if _, ok := o[IDField]; !ok {
		return o
	}
	out := o.Clone()
	delete(out, IDField)
	return out
}

// Scan implements the sql.Scanner interface.
func (o *Object) Scan(value any) error {
	if value == nil {
		*o = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("objstore: failed to scan document: expected []byte or string, got %T", value)
	}

	if len(bytes) == 0 {
		*o = nil
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(bytes, &m); err != nil {
		return fmt.Errorf("objstore: failed to scan document: %w", err)
	}
	*o = m
	return nil
}

// Value implements the driver.Valuer interface. The value is JSON text.
func (o Object) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(o))
	if err != nil {
		return nil, fmt.Errorf("objstore: failed to encode document: %w", err)
	}
	return string(b), nil
}
