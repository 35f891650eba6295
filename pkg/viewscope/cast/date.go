package cast

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"

	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
)

// ParseTime converts a raw value into a time. Strings are parsed leniently;
// numbers are Unix seconds. The zero time means "no date".
func ParseTime(v any, dayFirst bool) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val != nil {
			return *val
		}
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}
		}
		t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(!dayFirst))
		if err != nil {
			return time.Time{}
		}
		return t
	case []byte:
		return ParseTime(string(val), dayFirst)
	case int, int64, float64:
		secs, _ := item.ToFloat(val)
		return time.Unix(int64(secs), 0).UTC()
	}
	return time.Time{}
}

func newDate(r *Registry, name string) *Field {
	return newDateField(r, false)
}

func newDatetime(r *Registry, name string) *Field {
	return newDateField(r, true)
}

func newDateField(r *Registry, withTime bool) *Field {
	loc := mondayLocale(r.locale)
	dayFirst := loc != monday.LocaleEnUS

	f := &Field{}
	t := func() time.Time { return ParseTime(f.value, dayFirst) }
	format := func(layout string) string {
		tm := t()
		if tm.IsZero() {
			return ""
		}
		return monday.Format(tm, layout, loc)
	}
	styled := func(style string) string {
		layout := dateLayout(style, loc)
		if withTime {
			layout += " 15:04"
		}
		return format(layout)
	}

	f.render = func(f *Field) string { return styled("short") }
	f.exists = func(f *Field) bool { return !t().IsZero() }

	str := func(fn func() string) provider.MethodFunc {
		return func(args []any) (any, error) { return fn(), nil }
	}
	f.methods = provider.MethodTable{
		"Nice":       {Fn: str(func() string { return styled("short") }), Arity: "0"},
		"Long":       {Fn: str(func() string { return styled("long") }), Arity: "0"},
		"Full":       {Fn: str(func() string { return styled("full") }), Arity: "0"},
		"Year":       {Fn: str(func() string { return format("2006") }), Arity: "0"},
		"Month":      {Fn: str(func() string { return format("January") }), Arity: "0"},
		"ShortMonth": {Fn: str(func() string { return format("Jan") }), Arity: "0"},
		"DayOfMonth": {Fn: str(func() string { return format("2") }), Arity: "0"},
		"Day":        {Fn: str(func() string { return format("Monday") }), Arity: "0"},
		"Time":       {Fn: str(func() string { return format("15:04") }), Arity: "0"},
		"Rfc3339": {
			Fn: func(args []any) (any, error) {
				tm := t()
				if tm.IsZero() {
					return "", nil
				}
				return tm.Format(time.RFC3339), nil
			},
			Arity: "0",
		},
		"Format": {
			Fn: func(args []any) (any, error) {
				return format(item.ToString(args[0])), nil
			},
			Arity:       "1",
			Description: "format with a Go time layout, localized month and day names",
		},
		"InPast": {
			Fn:    func(args []any) (any, error) { return t().Before(time.Now()), nil },
			Arity: "0",
		},
		"InFuture": {
			Fn:    func(args []any) (any, error) { return t().After(time.Now()), nil },
			Arity: "0",
		},
	}
	return f
}
