package core

// GetString safely extracts a string value from an event map.
// Returns (value, ok) where ok is false if the key doesn't exist, is nil,
// or is not a string.
func GetString(e Event, key string) (string, bool) {
	if v, ok := e[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// GetPath walks nested maps by key and returns the value at the end of
// the path, or nil if any link is missing or not a map.
func GetPath(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// GetArray returns the value at the given path as a []any, or nil.
func GetArray(v any, path ...string) []any {
	a, _ := GetPath(v, path...).([]any)
	return a
}

// AsFloat coerces a decoded JSON number to float64, returning 0 for
// anything else.
func AsFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
