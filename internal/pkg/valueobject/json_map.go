package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// ErrScanValueNotBytes indicates the database value is not JSON bytes.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap stores arbitrary JSON object data, such as tenant supplied credential metadata.
type JSONMap map[string]any

// Value implements driver.Valuer. A nil map is stored as an empty object.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = v
	case map[string]any:
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	var result JSONMap
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	if result == nil {
		result = JSONMap{}
	}

	*j = result
	return nil
}

// Clone returns a shallow copy; nil stays nil.
func (j JSONMap) Clone() JSONMap {
	if j == nil {
		return nil
	}
	return maps.Clone(j)
}

// GetString returns a string value, or "" when missing or of another type.
func (j JSONMap) GetString(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}

// Size returns the encoded JSON size in bytes.
func (j JSONMap) Size() int {
	b, err := json.Marshal(j)
	if err != nil {
		return 0
	}
	return len(b)
}
