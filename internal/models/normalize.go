package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// NormalizeCounter coerces a stored counter into a non-negative integer.
// Missing, malformed and negative values all become 0.
func NormalizeCounter(v interface{}) int64 {
	n, ok := ToInt64(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// NormalizeID coerces a stored id. Anything that is not a positive integer becomes 0.
func NormalizeID(v interface{}) int64 {
	return NormalizeCounter(v)
}

// NormalizeFlag reads a stored boolean ("1", "true", 1, true).
func NormalizeFlag(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return false
		}
		if n, ok := ToInt64(t); ok {
			return n != 0
		}
		b, err := cast.ToBoolE(t)
		return err == nil && b
	default:
		b, err := cast.ToBoolE(t)
		return err == nil && b
	}
}

// ToInt64 converts integers, integral floats and decimal strings.
// NaN, infinities, fractional floats and unparsable strings are rejected.
func ToInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return floatToInt64(t)
	case float32:
		return floatToInt64(float64(t))
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
		// integral float strings such as "4.0"
		if f, err := cast.ToFloat64E(t); err == nil {
			return floatToInt64(f)
		}
		return 0, false
	case bool:
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
