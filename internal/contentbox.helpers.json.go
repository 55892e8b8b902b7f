package internal

import (
	"encoding/json"
)

// registerJSONHelpers registers the Json.* helpers
func registerJSONHelpers(r *HelperRegistry) {
	r.MustRegister(&Helper{
		Name:    HelperJSONStringify,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			data, err := json.Marshal(args[ArgIndexFirst])
			if err != nil {
				return nil, err
			}
			return string(data), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperJSONParse,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s, ok := toString(args[ArgIndexFirst])
			if !ok {
				return nil, NewHelperTypeError(ErrMsgHelperExpectedString, HelperJSONParse, ArgIndexFirst)
			}
			var result any
			if err := json.Unmarshal([]byte(s), &result); err != nil {
				return nil, NewHelperTypeError(ErrMsgHelperInvalidJSON, HelperJSONParse, ArgIndexFirst)
			}
			return normalizeJSON(result), nil
		},
	})
}

// normalizeJSON converts decoded float64 whole numbers into ints
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case float64:
		return normalizeNumber(val)
	case []any:
		for i, item := range val {
			val[i] = normalizeJSON(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeJSON(item)
		}
		return val
	default:
		return v
	}
}
