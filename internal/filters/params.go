package filters

// Params holds decode parameters from a DecodeParms dictionary. Values
// are int, float64 or bool.
type Params map[string]any

// Int returns the integer parameter key, or def if it is missing or not
// numeric.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Bool returns the boolean parameter key, or def if it is missing or not
// a bool.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}
