package porecap

import "math"

// Severity buckets a status percentage. Values are ordered from the worst
// band to the best.
type Severity int

const (
	SeverityDeepestNegative Severity = iota
	SeverityStrongNegative
	SeverityModerateNegative
	SeverityMildNegative
	SeverityLowPositive
	SeverityModeratePositive
	SeverityGoodPositive
	SeverityExcellent
)

type severityStyle struct {
	name  string
	label string
	color string
}

var severityTable = [...]severityStyle{
	SeverityDeepestNegative:  {name: "deepest-negative", label: "Rugi sangat besar", color: "#7f1d1d"},
	SeverityStrongNegative:   {name: "strong-negative", label: "Rugi besar", color: "#b91c1c"},
	SeverityModerateNegative: {name: "moderate-negative", label: "Rugi sedang", color: "#ef4444"},
	SeverityMildNegative:     {name: "mild-negative", label: "Rugi kecil", color: "#fca5a5"},
	SeverityLowPositive:      {name: "low-positive", label: "Untung kecil", color: "#fde68a"},
	SeverityModeratePositive: {name: "moderate-positive", label: "Untung sedang", color: "#bef264"},
	SeverityGoodPositive:     {name: "good-positive", label: "Untung baik", color: "#4ade80"},
	SeverityExcellent:        {name: "excellent", label: "Untung sangat baik", color: "#15803d"},
}

// Classify maps a status percentage onto its severity band.
func Classify(statusPercent float64) Severity {
	if math.IsNaN(statusPercent) {
		statusPercent = 0
	}
	switch {
	case statusPercent <= -75:
		return SeverityDeepestNegative
	case statusPercent <= -50:
		return SeverityStrongNegative
	case statusPercent <= -25:
		return SeverityModerateNegative
	case statusPercent < 0:
		return SeverityMildNegative
	case statusPercent < 25:
		return SeverityLowPositive
	case statusPercent < 50:
		return SeverityModeratePositive
	case statusPercent < 75:
		return SeverityGoodPositive
	default:
		return SeverityExcellent
	}
}

func (s Severity) style() severityStyle {
	if s < SeverityDeepestNegative || s > SeverityExcellent {
		return severityTable[SeverityLowPositive]
	}
	return severityTable[s]
}

// String returns the stable band name.
func (s Severity) String() string { return s.style().name }

// Label returns the human readable band description.
func (s Severity) Label() string { return s.style().label }

// Color returns the fill colour used for row shading and badges.
func (s Severity) Color() string { return s.style().color }

// Negative reports whether the band describes a loss.
func (s Severity) Negative() bool { return s <= SeverityMildNegative }

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name; unknown names map to low-positive.
func (s *Severity) UnmarshalText(text []byte) error {
	name := string(text)
	for i, st := range severityTable {
		if st.name == name {
			*s = Severity(i)
			return nil
		}
	}
	*s = SeverityLowPositive
	return nil
}
