package internal

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Type names reported by Type.getType
const (
	TypeNameString  = "string"
	TypeNameNumber  = "number"
	TypeNameBoolean = "boolean"
	TypeNameArray   = "array"
	TypeNameObject  = "object"
	TypeNameNull    = "null"
)

// registerTypeHelpers registers type inspection and conversion helpers
func registerTypeHelpers(r *HelperRegistry) {
	r.MustRegister(&Helper{
		Name:    HelperTypeGetType,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return typeName(args[ArgIndexFirst]), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeIsString,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			_, ok := args[ArgIndexFirst].(string)
			return ok, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeIsNumeric,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			if _, ok := toNumber(args[ArgIndexFirst]); ok {
				return true, nil
			}
			if s, ok := args[ArgIndexFirst].(string); ok {
				_, err := strconv.ParseFloat(strings.TrimSpace(s), FloatBitSize64)
				return err == nil, nil
			}
			return false, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeIsArray,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			name := typeName(args[ArgIndexFirst])
			return name == TypeNameArray || name == TypeNameObject, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeIsBoolean,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			_, ok := args[ArgIndexFirst].(bool)
			return ok, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeIsNull,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return args[ArgIndexFirst] == nil, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeToString,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToString(args[ArgIndexFirst]), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeToInteger,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToInt(args[ArgIndexFirst], HelperTypeToInteger, ArgIndexFirst)
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeToFloat,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToFloat(args[ArgIndexFirst], HelperTypeToFloat, ArgIndexFirst)
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperTypeToBoolean,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return isTruthy(args[ArgIndexFirst]), nil
		},
	})
}

// typeName classifies a value into the Eel type names
func typeName(v any) string {
	if v == nil {
		return TypeNameNull
	}
	switch v.(type) {
	case string:
		return TypeNameString
	case bool:
		return TypeNameBoolean
	case *OrderedMap, map[string]any, map[string]string, map[any]any:
		return TypeNameObject
	}
	if _, ok := toNumber(v); ok {
		return TypeNameNumber
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return TypeNameArray
	default:
		return TypeNameObject
	}
}

// toString attempts to convert any value to a string without formatting numbers
func toString(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}

// anyToString converts any value to its string representation
func anyToString(v any) string {
	if v == nil {
		return StringValueEmpty
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return StringValueTrue
		}
		return StringValueFalse
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, IntBase10)
	case float64:
		return strconv.FormatFloat(val, FloatFormatFlag, FloatPrecisionAll, FloatBitSize64)
	case fmt.Stringer:
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = anyToString(item)
		}
		return strings.Join(parts, StringValueEmpty)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// anyToInt converts any value to an integer
func anyToInt(v any, name string, argIndex int) (int, error) {
	if v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(val), FloatBitSize64)
			if ferr != nil {
				return 0, NewHelperTypeError(ErrMsgHelperConversion, name, argIndex)
			}
			return int(f), nil
		}
		return n, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	default:
		if f, ok := toNumber(v); ok {
			return int(f), nil
		}
		return 0, NewHelperTypeError(ErrMsgHelperConversion, name, argIndex)
	}
}

// anyToFloat converts any value to a float64
func anyToFloat(v any, name string, argIndex int) (float64, error) {
	if v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), FloatBitSize64)
		if err != nil {
			return 0, NewHelperTypeError(ErrMsgHelperConversion, name, argIndex)
		}
		return f, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	default:
		if f, ok := toNumber(v); ok {
			return f, nil
		}
		return 0, NewHelperTypeError(ErrMsgHelperConversion, name, argIndex)
	}
}

// toNumber attempts to convert a numeric value to float64
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	default:
		return 0, false
	}
}

// normalizeNumber returns an int for whole floats so arithmetic results render without decimals
func normalizeNumber(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return int(f)
	}
	return f
}

// isTruthy determines the truthiness of a value
// Truthiness rules:
// - nil -> false
// - bool -> value
// - string -> len(s) > 0
// - int/float -> n != 0
// - slice/map -> len(x) > 0
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return len(val) > 0
	case *OrderedMap:
		return val != nil && val.Len() > 0
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// isEmpty checks if a value is empty
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return len(val) == 0
	case *OrderedMap:
		return val == nil || val.Len() == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() == 0
	default:
		return false
	}
}

// getLength returns the length of strings, collections and maps
func getLength(v any, name string, argIndex int) (int, error) {
	if v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case string:
		return len([]rune(val)), nil
	case *OrderedMap:
		return val.Len(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	default:
		return 0, NewHelperTypeError(ErrMsgHelperExpectedSlice, name, argIndex)
	}
}

// toSlice converts collection values to []any.
// Ordered maps contribute their values in key order.
func toSlice(v any, name string, argIndex int) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case []any:
		return val, nil
	case []string:
		result := make([]any, len(val))
		for i, s := range val {
			result[i] = s
		}
		return result, nil
	case *OrderedMap:
		return val.Values(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, NewHelperTypeError(ErrMsgHelperExpectedSlice, name, argIndex)
	}
	result := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		result[i] = rv.Index(i).Interface()
	}
	return result, nil
}

// IterationItem is one key/value pair of an iterable collection
type IterationItem struct {
	Key   any
	Value any
}

// toIterable turns slices, ordered maps and plain maps into key/value pairs.
// Plain maps are iterated in sorted key order.
func toIterable(v any) ([]IterationItem, bool) {
	if v == nil {
		return nil, true
	}
	switch val := v.(type) {
	case *OrderedMap:
		items := make([]IterationItem, 0, val.Len())
		for _, k := range val.Keys() {
			value, _ := val.Get(k)
			items = append(items, IterationItem{Key: k, Value: value})
		}
		return items, true
	case map[string]any:
		return toIterable(OrderedMapFromMap(val))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]IterationItem, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = IterationItem{Key: i, Value: rv.Index(i).Interface()}
		}
		return items, true
	case reflect.Map:
		keys := rv.MapKeys()
		m := make(map[string]any, len(keys))
		for _, k := range keys {
			m[anyToString(k.Interface())] = rv.MapIndex(k).Interface()
		}
		return toIterable(OrderedMapFromMap(m))
	default:
		return nil, false
	}
}
