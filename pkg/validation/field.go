package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/getmockd/billingmock/pkg/schema"
	"github.com/getmockd/billingmock/pkg/stateful"
)

// checkField applies the declared type and enum constraints to a non-nil value.
func checkField(f *schema.Field, path string, v interface{}) error {
	switch f.Kind {
	case schema.FieldInteger:
		if !isInteger(v) {
			return stateful.InvalidValue(path, "Invalid integer: "+render(v))
		}
	case schema.FieldNumber:
		if _, ok := toDecimal(v); !ok {
			return stateful.InvalidValue(path, "Invalid number: "+render(v))
		}
	case schema.FieldString:
		if _, ok := v.(string); !ok {
			return stateful.InvalidValue(path, "Invalid string: "+render(v))
		}
	case schema.FieldBoolean:
		switch tv := v.(type) {
		case bool:
		case string:
			if tv != "true" && tv != "false" {
				return stateful.InvalidValue(path, "Invalid boolean: "+tv)
			}
		default:
			return stateful.InvalidValue(path, "Invalid boolean: "+render(v))
		}
	case schema.FieldObject:
		if _, ok := schema.AsMap(v); !ok {
			return stateful.InvalidValue(path, "Invalid object")
		}
	}

	if len(f.Enum) > 0 {
		s := fmt.Sprint(v)
		for _, allowed := range f.Enum {
			if s == allowed {
				return nil
			}
		}
		return stateful.InvalidValue(path, fmt.Sprintf("Invalid %s: must be one of %s", f.Name, joinChoices(f.Enum)))
	}
	return nil
}

// isInteger accepts Go integer types, whole floats and whole numeric strings.
func isInteger(v interface{}) bool {
	d, ok := toDecimal(v)
	return ok && d.IsInteger()
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch tv := v.(type) {
	case int:
		return decimal.NewFromInt(int64(tv)), true
	case int8:
		return decimal.NewFromInt(int64(tv)), true
	case int16:
		return decimal.NewFromInt(int64(tv)), true
	case int32:
		return decimal.NewFromInt32(tv), true
	case int64:
		return decimal.NewFromInt(tv), true
	case uint:
		d, err := decimal.NewFromString(strconv.FormatUint(uint64(tv), 10))
		return d, err == nil
	case uint8:
		return decimal.NewFromInt(int64(tv)), true
	case uint16:
		return decimal.NewFromInt(int64(tv)), true
	case uint32:
		return decimal.NewFromInt(int64(tv)), true
	case uint64:
		d, err := decimal.NewFromString(strconv.FormatUint(tv, 10))
		return d, err == nil
	case float32:
		if f := float64(tv); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(tv), true
	case float64:
		if math.IsNaN(tv) || math.IsInf(tv, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(tv), true
	case decimal.Decimal:
		return tv, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(tv))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// render formats a rejected value the way the API echoes it back.
func render(v interface{}) string {
	if d, ok := toDecimal(v); ok {
		if _, isString := v.(string); !isString {
			return d.String()
		}
	}
	return fmt.Sprint(v)
}

// joinChoices renders ["a","b"] as "a or b" and ["a","b","c"] as "a, b, or c".
func joinChoices(choices []string) string {
	switch len(choices) {
	case 0:
		return ""
	case 1:
		return choices[0]
	case 2:
		return choices[0] + " or " + choices[1]
	default:
		return strings.Join(choices[:len(choices)-1], ", ") + ", or " + choices[len(choices)-1]
	}
}
