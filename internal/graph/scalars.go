package graph

import (
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"
)

// decimalScalar carries money values. It serializes as a two-place string
// and accepts strings, floats and ints on input.
var decimalScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Decimal",
	Description: "Fixed-point decimal number, serialized as a string.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case decimal.Decimal:
			return v.StringFixed(2)
		case *decimal.Decimal:
			if v == nil {
				return nil
			}
			return v.StringFixed(2)
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil
			}
			return d
		case float64:
			return decimal.NewFromFloat(v)
		case float32:
			return decimal.NewFromFloat32(v)
		case int:
			return decimal.NewFromInt(int64(v))
		case int64:
			return decimal.NewFromInt(v)
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		var raw string
		switch v := valueAST.(type) {
		case *ast.StringValue:
			raw = v.Value
		case *ast.FloatValue:
			raw = v.Value
		case *ast.IntValue:
			raw = v.Value
		default:
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil
		}
		return d
	},
})

// dateTimeLayouts are tried in order when parsing DateTime input.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	dateOnlyLayout,
}

const dateOnlyLayout = "2006-01-02"

// dateTimeInput is a parsed DateTime argument. wholeDay is set for bare
// dates, which as upper bounds cover the entire day.
type dateTimeInput struct {
	t        time.Time
	wholeDay bool
}

func parseDateTime(s string) (dateTimeInput, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateTimeInput{t: t.UTC(), wholeDay: layout == dateOnlyLayout}, true
		}
	}
	return dateTimeInput{}, false
}

// endOfDay is the last instant of the input's day for bare dates, and the
// input itself otherwise.
func (d dateTimeInput) endOfDay() time.Time {
	if !d.wholeDay {
		return d.t
	}
	return d.t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// dateTimeScalar serializes RFC 3339 timestamps. Input also accepts ISO
// timestamps without a zone (read as UTC) and bare dates.
var dateTimeScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "DateTime",
	Description: "ISO-8601 timestamp.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Format(time.RFC3339)
		case *time.Time:
			if v == nil {
				return nil
			}
			return v.UTC().Format(time.RFC3339)
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		t, ok := parseDateTime(s)
		if !ok {
			return nil
		}
		return t
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		v, ok := valueAST.(*ast.StringValue)
		if !ok {
			return nil
		}
		t, ok := parseDateTime(v.Value)
		if !ok {
			return nil
		}
		return t
	},
})
