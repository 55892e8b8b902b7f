package internal

import (
	"time"
)

// Common date layouts tried in order when parsing strings
var commonTimeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
	"02.01.2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// registerDateHelpers registers the Date.* helpers.
// Layouts use Go reference time notation (2006-01-02).
func registerDateHelpers(r *HelperRegistry) {
	r.MustRegister(&Helper{
		Name:    HelperDateNow,
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func(args []any) (any, error) {
			return time.Now(), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperDateFormat,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			t, err := toTime(args[ArgIndexFirst])
			if err != nil {
				return nil, NewHelperTypeError(ErrMsgHelperInvalidDate, HelperDateFormat, ArgIndexFirst)
			}
			layout, ok := toString(args[ArgIndexSecond])
			if !ok {
				return nil, NewHelperTypeError(ErrMsgHelperExpectedString, HelperDateFormat, ArgIndexSecond)
			}
			return t.Format(layout), nil
		},
	})

	r.MustRegister(&Helper{
		Name:    HelperDateParse,
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			s, ok := toString(args[ArgIndexFirst])
			if !ok {
				return nil, NewHelperTypeError(ErrMsgHelperExpectedString, HelperDateParse, ArgIndexFirst)
			}
			if len(args) > 1 {
				layout, ok := toString(args[ArgIndexSecond])
				if !ok {
					return nil, NewHelperTypeError(ErrMsgHelperExpectedString, HelperDateParse, ArgIndexSecond)
				}
				t, err := time.Parse(layout, s)
				if err != nil {
					return nil, NewHelperTypeError(ErrMsgHelperInvalidDate, HelperDateParse, ArgIndexFirst)
				}
				return t, nil
			}
			return toTime(s)
		},
	})
}

// toTime converts time values, strings and unix timestamps to time.Time
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		for _, format := range commonTimeFormats {
			if parsed, err := time.Parse(format, t); err == nil {
				return parsed, nil
			}
		}
	case int:
		return time.Unix(int64(t), 0), nil
	case int64:
		return time.Unix(t, 0), nil
	case float64:
		sec := int64(t)
		return time.Unix(sec, int64((t-float64(sec))*1e9)), nil
	}
	return time.Time{}, NewHelperTypeError(ErrMsgHelperInvalidDate, StringValueEmpty, ArgIndexFirst)
}
