// Package value holds the loose coercion rules used when comparing values
// that come from Home Assistant state JSON and card YAML. Both sides are
// dynamically typed, so comparisons follow the dashboard's own semantics:
// numbers and numeric strings compare as numbers, everything else by its
// string form.
package value

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// String returns the display form of v. Slices are joined with commas and
// whole floats are printed without a fraction.
func String(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return FormatNumber(float64(t))
	case float64:
		return FormatNumber(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case []string:
		return strings.Join(t, ",")
	case []interface{}:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = String(p)
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		return "[object Object]"
	}
	return ""
}

// FormatNumber prints f in its shortest exact decimal form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Number coerces v to a float. The second result is false when v has no
// numeric reading. Booleans count as 1 and 0, and a blank string as 0.
func Number(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, !math.IsNaN(t)
	case string:
		return ParseNumber(t)
	}
	return 0, false
}

// ParseNumber reads s as a decimal number, ignoring surrounding space.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	// ParseFloat accepts forms like "inf", "nan" and "0x1p-2" that a level
	// must never be read as.
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E') {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether s reads as a number.
func IsNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// LooseEqual compares a and b the way the dashboard does: nil only equals
// nil, two strings compare as text, and when either side is a number or a
// boolean both sides compare as numbers.
func LooseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return as == bs
	}
	if isScalarNumber(a) || isScalarNumber(b) {
		an, aok := Number(a)
		bn, bok := Number(b)
		return aok && bok && an == bn
	}
	return String(a) == String(b)
}

func isScalarNumber(v interface{}) bool {
	switch v.(type) {
	case bool, int, int64, uint64, float32, float64:
		return true
	}
	return false
}

// Truthy reports whether v counts as set: nil, false, zero, NaN and the
// empty string do not.
func Truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	}
	if f, ok := Number(v); ok {
		return f != 0
	}
	if f, isFloat := v.(float64); isFloat && math.IsNaN(f) {
		return false
	}
	return true
}
