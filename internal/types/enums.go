package types

import (
	"fmt"
)

// enumString extracts the textual form of a DB enum column.
func enumString(value interface{}, name string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("failed to scan %s: expected string or []byte, got %T", name, value)
	}
}
