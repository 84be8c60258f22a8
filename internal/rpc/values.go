package rpc

import (
	"strconv"
	"strings"
)

// AsInt coerces decoded numbers (and numeric strings) to int64.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// AsString returns strings as-is and formats integers.
func AsString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int64:
		return strconv.FormatInt(s, 10), true
	default:
		return "", false
	}
}

// AsBool accepts booleans and the 0/1 integers some servers send instead.
func AsBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	default:
		return false, false
	}
}

// Member returns the first present key of a decoded struct.
func Member(v any, keys ...string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, k := range keys {
		if val, ok := m[k]; ok {
			return val, true
		}
	}
	return nil, false
}
