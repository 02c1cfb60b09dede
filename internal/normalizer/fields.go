package normalizer

import (
	"encoding/json"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

// lookup walks a chain of nested object keys. Any step that is missing or
// is not an object yields (nil, false).
func lookup(v interface{}, path ...string) (interface{}, bool) {
	cur := v
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// get is lookup without the presence flag; absent fields read as nil.
func get(v interface{}, path ...string) interface{} {
	val, _ := lookup(v, path...)
	return val
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case models.RawPayload:
		return map[string]interface{}(m), true
	default:
		return nil, false
	}
}

func asList(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

// first returns the first element of a non-empty list.
func first(v interface{}) (interface{}, bool) {
	l, ok := asList(v)
	if !ok || len(l) == 0 {
		return nil, false
	}
	return l[0], true
}

// toFloat accepts the numeric shapes produced by encoding/json with or
// without UseNumber, plus native Go numbers from in-process callers.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
