package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSONBList stores an ordered slice of any JSON-marshalable element type in a
// JSONB column. Ordered lists (assumptions, predictions, milestones, evidence)
// round-trip through this without per-field columns.
type JSONBList[T any] []T

// Value implements driver.Valuer interface
func (l JSONBList[T]) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]T{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface
func (l *JSONBList[T]) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = nil
		return nil
	}

	if len(bytes) == 0 {
		*l = nil
		return nil
	}

	var result []T
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*l = result
	return nil
}
