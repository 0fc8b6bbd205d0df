package porecap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		in   float64
		want Severity
	}{
		{-80, SeverityDeepestNegative},
		{-75, SeverityDeepestNegative},
		{-74.99, SeverityStrongNegative},
		{-50, SeverityStrongNegative},
		{-49.9, SeverityModerateNegative},
		{-25, SeverityModerateNegative},
		{-24.9, SeverityMildNegative},
		{-0.01, SeverityMildNegative},
		{0, SeverityLowPositive},
		{24.99, SeverityLowPositive},
		{25, SeverityModeratePositive},
		{49.99, SeverityModeratePositive},
		{50, SeverityGoodPositive},
		{74.99, SeverityGoodPositive},
		{75, SeverityExcellent},
		{1000, SeverityExcellent},
		{math.Inf(-1), SeverityDeepestNegative},
		{math.Inf(1), SeverityExcellent},
		{math.NaN(), SeverityLowPositive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.in), "status %v", tc.in)
	}
}

func TestClassifyCoversEveryValueOnce(t *testing.T) {
	seen := map[Severity]bool{}
	for v := -120.0; v <= 120.0; v += 0.5 {
		sev := Classify(v)
		require.GreaterOrEqual(t, int(sev), int(SeverityDeepestNegative))
		require.LessOrEqual(t, int(sev), int(SeverityExcellent))
		seen[sev] = true
	}
	assert.Len(t, seen, 8)
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(-200)
	for v := -200.0; v <= 200.0; v += 0.25 {
		cur := Classify(v)
		require.GreaterOrEqual(t, int(cur), int(prev), "band decreased at %v", v)
		prev = cur
	}
}

func TestSeverityStyleAndText(t *testing.T) {
	colors := map[string]bool{}
	for s := SeverityDeepestNegative; s <= SeverityExcellent; s++ {
		require.NotEmpty(t, s.Color())
		require.NotEmpty(t, s.Label())
		colors[s.Color()] = true

		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Severity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	assert.Len(t, colors, 8)
	assert.Equal(t, "deepest-negative", SeverityDeepestNegative.String())
	assert.True(t, SeverityMildNegative.Negative())
	assert.False(t, SeverityLowPositive.Negative())
	assert.Equal(t, SeverityLowPositive.Color(), Severity(42).Color())
}
