package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceScalar converts a raw text entry from the review UI into the scalar the
// payload should store: empty stays empty, "null" becomes nil, booleans become
// bool, numbers become float64, anything else stays a string.
func CoerceScalar(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case "":
		return ""
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return parsed
	}
	return raw
}

// Num reads any scalar as a float64, best effort. Strings are parsed after
// trimming; anything unparseable counts as zero so one bad entry never breaks
// a shift total.
func Num(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// NumPart extracts the numeric part of a free-text measurement, tolerating unit
// suffixes and stray characters: "2.4m" -> 2.4, "45 mm" -> 45.
func NumPart(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || (r == '-' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	parsed, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return parsed
}

// Str renders a scalar as a string for display and free-text fields.
func Str(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// NumericLike reports whether the scalar parses cleanly as a number, which
// decides both what the generic summation picks up and whether the diff
// comparison is tolerant or exact.
func NumericLike(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil && strings.TrimSpace(v) != ""
	default:
		return false
	}
}
