package porecap

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFormattedCurrency(t *testing.T) {
	assert.Equal(t, 1500000.0, Normalize("Rp 1.500.000"))
	assert.Equal(t, -2500000.0, Normalize("Rp -2.500.000"))
	assert.Equal(t, 1500.0, Normalize("1.500"))
	assert.Equal(t, 1.5, Normalize("1.5"))
	assert.Equal(t, 12.25, Normalize("12.25 %"))
	assert.Equal(t, 800000.0, Normalize("800000"))
}

func TestNormalizeNumbersAndNil(t *testing.T) {
	s := "Rp 42"
	var nilStr *string
	n := int64(7)
	assert.Equal(t, 0.0, Normalize(nil))
	assert.Equal(t, 0.0, Normalize(nilStr))
	assert.Equal(t, 42.0, Normalize(&s))
	assert.Equal(t, 7.0, Normalize(&n))
	assert.Equal(t, 3.0, Normalize(3))
	assert.Equal(t, 2.5, Normalize(float32(2.5)))
	assert.Equal(t, 99.0, Normalize(json.Number("99")))
	assert.Equal(t, 10.0, Normalize(Amount(10)))
	assert.Equal(t, 0.0, Normalize(struct{}{}))
}

func TestNormalizeIsTotal(t *testing.T) {
	inputs := []any{
		"", "abc", "---", "-", ".", "..", "1-2", "1.2.3.4.5x", "Rp", "%$#@!",
		"99999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999999",
		math.NaN(), math.Inf(1), math.Inf(-1),
	}
	for _, in := range inputs {
		got := Normalize(in)
		assert.False(t, math.IsNaN(got), "NaN for %#v", in)
		assert.False(t, math.IsInf(got, 0), "Inf for %#v", in)
	}
	assert.Equal(t, 0.0, Normalize("abc"))
	assert.Equal(t, 0.0, Normalize("1-2"))
	assert.Equal(t, 0.0, Normalize(math.NaN()))
}

func TestNormalizeAmountRounds(t *testing.T) {
	assert.Equal(t, Amount(3), NormalizeAmount(2.6))
	assert.Equal(t, Amount(-3), NormalizeAmount(-2.6))
	assert.Equal(t, Amount(0), NormalizeAmount(1e300))
}

func TestAmountUnmarshalJSONAcceptsLooseInput(t *testing.T) {
	var payload struct {
		A Amount  `json:"a"`
		B Amount  `json:"b"`
		C Amount  `json:"c"`
		D Amount  `json:"d"`
		P Percent `json:"p"`
	}
	err := json.Unmarshal([]byte(`{"a":"Rp 1.500.000","b":2000000,"c":null,"d":"n/a","p":"12.5"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, Amount(1500000), payload.A)
	assert.Equal(t, Amount(2000000), payload.B)
	assert.Equal(t, Amount(0), payload.C)
	assert.Equal(t, Amount(0), payload.D)
	assert.Equal(t, Percent(12.5), payload.P)
}

func TestJSONNumbersKeepTheirValue(t *testing.T) {
	var in Input
	err := json.Unmarshal([]byte(`{"po_value":1.5e6,"execution_cost":1234.567,"offer_value":-2000}`), &in)
	require.NoError(t, err)
	assert.Equal(t, Amount(1_500_000), in.POValue)
	assert.Equal(t, Amount(1235), in.ExecutionCost)
	assert.Equal(t, Amount(-2000), in.OfferValue)
	assert.Equal(t, 1234.567, Normalize(json.Number("1234.567")))
	assert.Equal(t, 0.0, Normalize(json.Number("1e999")))
}

func TestPercentSurvivesJSON(t *testing.T) {
	data, err := json.Marshal(Record{StatusPercent: 0.125, Profit: 1500})
	require.NoError(t, err)
	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Percent(0.125), back.StatusPercent)
	assert.Equal(t, Amount(1500), back.Profit)
}
