package lichess

// The ongoing-games feed is loosely structured: the same fact shows up under
// different keys and value types depending on the endpoint and game variant.
// Extraction is an ordered walk over the raw key-value tree, first match wins.

func dig(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		mm, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		v, ok := mm[k]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func digString(m map[string]any, keys ...string) (string, bool) {
	v, ok := dig(m, keys...)
	if !ok {
		return "", false
	}
	return asString(v)
}

func digBool(m map[string]any, keys ...string) (bool, bool) {
	v, ok := dig(m, keys...)
	if !ok {
		return false, false
	}
	return asBool(v)
}

func digFloat(m map[string]any, keys ...string) (float64, bool) {
	v, ok := dig(m, keys...)
	if !ok {
		return 0, false
	}
	return asFloat(v)
}
