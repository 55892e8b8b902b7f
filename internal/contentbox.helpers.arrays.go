package internal

import (
	"strings"
)

// registerArrayHelpers registers the Array.* helpers
func registerArrayHelpers(r *HelperRegistry) {
	r.MustRegister(&Helper{
		Name:    HelperArrayLength,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return getLength(args[ArgIndexFirst], HelperArrayLength, ArgIndexFirst)
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayJoin,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArrayJoin, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			sep := ","
			if len(args) > 1 {
				sep = anyToString(args[ArgIndexSecond])
			}
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = anyToString(item)
			}
			return strings.Join(parts, sep), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayFirst,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArrayFirst, ArgIndexFirst)
			if err != nil || len(items) == 0 {
				return nil, err
			}
			return items[0], nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayLast,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArrayLast, ArgIndexFirst)
			if err != nil || len(items) == 0 {
				return nil, err
			}
			return items[len(items)-1], nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayKeys,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			items, ok := toIterable(args[ArgIndexFirst])
			if !ok {
				return nil, NewHelperTypeError(ErrMsgHelperExpectedSlice, HelperArrayKeys, ArgIndexFirst)
			}
			keys := make([]any, len(items))
			for i, item := range items {
				keys[i] = item.Key
			}
			return keys, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayPush,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArrayPush, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			result := make([]any, 0, len(items)+len(args)-1)
			result = append(result, items...)
			return append(result, args[1:]...), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayConcat,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(args []any) (any, error) {
			var result []any
			for i, arg := range args {
				items, err := toSlice(arg, HelperArrayConcat, i)
				if err != nil {
					result = append(result, arg)
					continue
				}
				result = append(result, items...)
			}
			if result == nil {
				result = []any{}
			}
			return result, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArraySlice,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArraySlice, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			begin, err := anyToInt(args[ArgIndexSecond], HelperArraySlice, ArgIndexSecond)
			if err != nil {
				return nil, err
			}
			if begin < 0 {
				begin = len(items) + begin
			}
			end := len(items)
			if len(args) > 2 && args[ArgIndexThird] != nil {
				if end, err = anyToInt(args[ArgIndexThird], HelperArraySlice, ArgIndexThird); err != nil {
					return nil, err
				}
				if end < 0 {
					end = len(items) + end
				}
			}
			begin = clampIndex(begin, len(items))
			end = clampIndex(end, len(items))
			if end < begin {
				return []any{}, nil
			}
			return append([]any{}, items[begin:end]...), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayReverse,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArrayReverse, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			result := make([]any, len(items))
			for i, item := range items {
				result[len(items)-1-i] = item
			}
			return result, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayIndexOf,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], HelperArrayIndexOf, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			for i, item := range items {
				if compareEqual(item, args[ArgIndexSecond]) {
					return i, nil
				}
			}
			return -1, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArrayIsEmpty,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return isEmpty(args[ArgIndexFirst]), nil
		},
	})

	// range(start, end, step = 1), end inclusive
	r.MustRegister(&Helper{
		Name:    HelperArrayRange,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			start, err := anyToInt(args[ArgIndexFirst], HelperArrayRange, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			end, err := anyToInt(args[ArgIndexSecond], HelperArrayRange, ArgIndexSecond)
			if err != nil {
				return nil, err
			}
			step := 1
			if len(args) > 2 {
				if step, err = anyToInt(args[ArgIndexThird], HelperArrayRange, ArgIndexThird); err != nil {
					return nil, err
				}
			}
			if step == 0 {
				return nil, NewHelperTypeError(ErrMsgHelperConversion, HelperArrayRange, ArgIndexThird)
			}
			if step < 0 {
				step = -step
			}
			var result []any
			if start <= end {
				for i := start; i <= end; i += step {
					result = append(result, i)
				}
			} else {
				for i := start; i >= end; i -= step {
					result = append(result, i)
				}
			}
			return result, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperArraySet,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			key := anyToString(args[ArgIndexSecond])
			result := NewOrderedMap()
			if items, ok := toIterable(args[ArgIndexFirst]); ok {
				for _, item := range items {
					result.Set(anyToString(item.Key), item.Value)
				}
			}
			result.Set(key, args[ArgIndexThird])
			return result, nil
		},
	})
}
