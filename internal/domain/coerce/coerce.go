// Package coerce converts loosely typed upstream JSON values into numbers,
// booleans and timestamps without failing the request.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// isoLocal is the layout for naive local timestamps (no zone).
const isoLocal = "2006-01-02T15:04:05.000000"

// isoUTC keeps an explicit +00:00 offset instead of Z.
const isoUTC = "2006-01-02T15:04:05-07:00"

// Float returns v as a float64, or 0 when v is not numeric.
func Float(v any) float64 {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return f
}

// IntOrNil returns v as an integer, truncating numeric floats and numeric
// strings with a fractional part. Returns nil when v is not numeric.
func IntOrNil(v any) *int64 {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return &n
		}
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return &n
		}
	}

	f, ok := toFloat(v)
	if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

// Round rounds x to the given number of decimal places. The exact binary
// value is rounded, so ties break to even and 1.15 (stored as 1.1499...) rounds down.
func Round(x float64, places int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	return f
}

// Truthy reports whether v is a non-empty, non-zero JSON value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// EpochToISO formats a unix timestamp in seconds as UTC ISO 8601.
func EpochToISO(epoch *int64) *string {
	if epoch == nil {
		return nil
	}
	s := time.Unix(*epoch, 0).UTC().Format(isoUTC)
	return &s
}

// FormatLocal formats t in local time without a zone suffix.
func FormatLocal(t time.Time) string {
	return t.Local().Format(isoLocal)
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
