package porecap

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a signed value in whole currency units.
type Amount int64

// Percent is a signed percentage value.
type Percent float64

// Normalize coerces arbitrary input into a finite number. Strings keep only
// digits, '.' and '-' before parsing. JSON numbers are parsed as written.
// Anything that does not yield a finite value becomes 0.
func Normalize(value any) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		f = parseNumeric(v)
	case *string:
		if v == nil {
			return 0
		}
		f = parseNumeric(*v)
	case []byte:
		f = parseNumeric(string(v))
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case float64:
		f = v
	case *float64:
		if v == nil {
			return 0
		}
		f = *v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case *int:
		if v == nil {
			return 0
		}
		f = float64(*v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case *int64:
		if v == nil {
			return 0
		}
		f = float64(*v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case Amount:
		f = float64(v)
	case Percent:
		f = float64(v)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizeAmount normalizes value and rounds it to whole currency units.
func NormalizeAmount(value any) Amount {
	f := math.Round(Normalize(value))
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return Amount(f)
}

// NormalizePercent normalizes value into a percentage.
func NormalizePercent(value any) Percent {
	return Percent(Normalize(value))
}

func parseNumeric(raw string) float64 {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := ungroup(b.String())
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// ungroup drops Indonesian thousands separators: several dots, or a single
// dot followed by exactly three digits ("1.500").
func ungroup(s string) string {
	dots := strings.Count(s, ".")
	switch {
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	case dots == 1:
		idx := strings.IndexByte(s, '.')
		head, tail := s[:idx], s[idx+1:]
		if len(tail) == 3 && strings.Trim(head, "-") != "" && allDigits(tail) {
			return head + tail
		}
	}
	return s
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// UnmarshalJSON accepts numbers, formatted strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = NormalizeAmount(decodeLoose(data))
	return nil
}

// UnmarshalJSON accepts numbers, formatted strings and null.
func (p *Percent) UnmarshalJSON(data []byte) error {
	*p = NormalizePercent(decodeLoose(data))
	return nil
}

func decodeLoose(data []byte) any {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// Float64 returns the amount as float64.
func (a Amount) Float64() float64 {
	return float64(a)
}
