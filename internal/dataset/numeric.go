package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Locale controls numeric parsing of cells. Zero values auto-detect.
type Locale struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// ParseNumber parses a cell as a float using auto-detected separators.
// Boolean literals map to 1/0 so that exported one-hot columns stay numeric.
func ParseNumber(s string) (float64, bool) {
	return Locale{}.Parse(s)
}

// Parse parses a numeric cell. Percent signs are stripped, non-breaking
// spaces normalised, and thousands separators removed.
func (l Locale) Parse(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	switch strings.ToLower(raw) {
	case "true":
		return 1, true
	case "false":
		return 0, true
	case "nan", "na", "n/a", "null", "none":
		return 0, false
	}
	if l.DecimalSeparator == 0 && l.ThousandsSeparator == 0 {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, !math.IsNaN(f)
		}
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := l.DecimalSeparator
	thou := l.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatFloat renders a float the way result CSVs store it: shortest
// round-trip representation, empty for NaN.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatValue renders a cell value for Append.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case *float64:
		if x == nil {
			return ""
		}
		return FormatFloat(*x)
	default:
		return strings.TrimSpace(strings.ReplaceAll(fmt.Sprint(x), "\n", " "))
	}
}
