package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string persisted as a JSON text column.
type StringList []string

// IntList is an ordered []int persisted as a JSON text column.
type IntList []int

func (l StringList) Value() (driver.Value, error) {
	return encodeList(l, len(l))
}

func (l *StringList) Scan(src any) error {
	return decodeList(src, l)
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l IntList) Value() (driver.Value, error) {
	return encodeList(l, len(l))
}

func (l *IntList) Scan(src any) error {
	return decodeList(src, l)
}

func (l IntList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(l))
}

// encodeList returns a string, not []byte: lib/pq would send []byte as bytea.
func encodeList(v any, n int) (driver.Value, error) {
	if n == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeList(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("model: cannot scan %T into list", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
