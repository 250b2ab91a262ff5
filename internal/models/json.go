package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// JSON type for flexible storage
type JSON map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// StringList is a list of strings stored as a JSON array column.
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		return err
	}
	return json.Unmarshal(bytes, (*[]string)(l))
}

// Contains reports whether v is in the list, ignoring case.
func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}

func marshalColumn(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func unmarshalColumn(value interface{}, dest interface{}) error {
	if dest == nil {
		return errors.New("nil destination")
	}
	bytes, err := scanBytes(value)
	if err != nil || bytes == nil {
		return err
	}
	return json.Unmarshal(bytes, dest)
}
