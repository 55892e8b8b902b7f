package internal

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// registerStringHelpers registers the String.* helpers
func registerStringHelpers(r *HelperRegistry) {
	r.MustRegister(&Helper{
		Name:    HelperStringToUpperCase,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return strings.ToUpper(anyToString(args[ArgIndexFirst])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringToLowerCase,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return strings.ToLower(anyToString(args[ArgIndexFirst])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringTrim,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			s := anyToString(args[ArgIndexFirst])
			if len(args) > 1 {
				return strings.Trim(s, anyToString(args[ArgIndexSecond])), nil
			}
			return strings.TrimSpace(s), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringLength,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return utf8.RuneCountInString(anyToString(args[ArgIndexFirst])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringReplace,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			return strings.ReplaceAll(
				anyToString(args[ArgIndexFirst]),
				anyToString(args[ArgIndexSecond]),
				anyToString(args[ArgIndexThird]),
			), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringPregReplace,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			re, err := regexp.Compile(anyToString(args[ArgIndexSecond]))
			if err != nil {
				return nil, NewHelperTypeError(err.Error(), HelperStringPregReplace, ArgIndexSecond)
			}
			return re.ReplaceAllString(anyToString(args[ArgIndexFirst]), anyToString(args[ArgIndexThird])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringSplit,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			parts := strings.Split(anyToString(args[ArgIndexFirst]), anyToString(args[ArgIndexSecond]))
			result := make([]any, len(parts))
			for i, p := range parts {
				result[i] = p
			}
			return result, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringSubstr,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			runes := []rune(anyToString(args[ArgIndexFirst]))
			start, err := anyToInt(args[ArgIndexSecond], HelperStringSubstr, ArgIndexSecond)
			if err != nil {
				return nil, err
			}
			if start < 0 {
				start = len(runes) + start
			}
			start = clampIndex(start, len(runes))
			end := len(runes)
			if len(args) > 2 && args[ArgIndexThird] != nil {
				length, err := anyToInt(args[ArgIndexThird], HelperStringSubstr, ArgIndexThird)
				if err != nil {
					return nil, err
				}
				end = clampIndex(start+length, len(runes))
			}
			if end < start {
				return StringValueEmpty, nil
			}
			return string(runes[start:end]), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringStartsWith,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			return strings.HasPrefix(anyToString(args[ArgIndexFirst]), anyToString(args[ArgIndexSecond])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringEndsWith,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			return strings.HasSuffix(anyToString(args[ArgIndexFirst]), anyToString(args[ArgIndexSecond])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringContains,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			return strings.Contains(anyToString(args[ArgIndexFirst]), anyToString(args[ArgIndexSecond])), nil
		},
	})

	// crop(string, maximumCharacters, suffix = '')
	r.MustRegister(&Helper{
		Name:    HelperStringCrop,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			runes := []rune(anyToString(args[ArgIndexFirst]))
			limit, err := anyToInt(args[ArgIndexSecond], HelperStringCrop, ArgIndexSecond)
			if err != nil {
				return nil, err
			}
			if limit < 0 || len(runes) <= limit {
				return string(runes), nil
			}
			suffix := StringValueEmpty
			if len(args) > 2 {
				suffix = anyToString(args[ArgIndexThird])
			}
			return string(runes[:limit]) + suffix, nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringFirstLetter,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s := anyToString(args[ArgIndexFirst])
			first, size := utf8.DecodeRuneInString(s)
			if size == 0 {
				return s, nil
			}
			return string(unicode.ToUpper(first)) + s[size:], nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringStripTags,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return tagPattern.ReplaceAllString(anyToString(args[ArgIndexFirst]), StringValueEmpty), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringHTMLSpecial,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return html.EscapeString(anyToString(args[ArgIndexFirst])), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperStringToString,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToString(args[ArgIndexFirst]), nil
		},
	})
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}
