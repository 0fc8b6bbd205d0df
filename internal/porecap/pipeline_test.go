package porecap

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(id int64, company string, date time.Time, po, cost Amount) Record {
	return Derive(Record{ID: id, CompanyName: company, PONumber: fmt.Sprintf("PO-%03d", id), Title: "Pekerjaan", Date: date, POValue: po, ExecutionCost: cost})
}

func sampleRecords() []Record {
	return []Record{
		rec(1, "PT Beta", day(2024, 3, 2), 5_000_000, 6_000_000),
		rec(2, "PT A", day(2024, 2, 1), 1_000_000, 800_000),
		rec(3, "PT Beta", day(2024, 1, 5), 2_000_000, 500_000),
		rec(4, "PT A", day(2024, 1, 15), 2_000_000, 1_500_000),
		rec(5, "CV Gamma", day(2024, 4, 9), 0, 250_000),
		rec(6, "PT A", day(2024, 1, 15), 700_000, 100_000),
	}
}

func TestGroupByCompanyPartitions(t *testing.T) {
	records := sampleRecords()
	groups := GroupByCompany(records)

	require.Len(t, groups, 3)
	seen := map[int64]int{}
	total := 0
	for company, members := range groups {
		require.NotEmpty(t, members)
		for _, m := range members {
			assert.Equal(t, company, m.CompanyName)
			seen[m.ID]++
			total++
		}
	}
	assert.Equal(t, len(records), total)
	for _, r := range records {
		assert.Equal(t, 1, seen[r.ID], "record %d", r.ID)
	}
	assert.Equal(t, []int64{2, 4, 6}, ids(groups["PT A"]))
}

func TestGroupByCompanyEmpty(t *testing.T) {
	assert.Empty(t, GroupByCompany(nil))
	assert.Empty(t, OrderGroups(GroupByCompany(nil)))
}

func TestOrderGroupsSortsCompaniesAndDates(t *testing.T) {
	groups := OrderGroups(GroupByCompany(sampleRecords()))
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"CV Gamma", "PT A", "PT Beta"}, names(groups))
	// equal dates keep their input order
	assert.Equal(t, []int64{4, 6, 2}, ids(groups[1].Records))
	assert.Equal(t, []int64{3, 1}, ids(groups[2].Records))
}

func TestOrderGroupsAlphabetical(t *testing.T) {
	groups := OrderGroups(GroupByCompany([]Record{
		{ID: 1, CompanyName: "Beta"},
		{ID: 2, CompanyName: "Alpha"},
	}))
	assert.Equal(t, []string{"Alpha", "Beta"}, names(groups))
}

func TestOrderGroupsLocaleAware(t *testing.T) {
	groups := OrderGroups(GroupByCompany([]Record{
		{ID: 1, CompanyName: "beta"},
		{ID: 2, CompanyName: "Alpha"},
		{ID: 3, CompanyName: "Zeta"},
		{ID: 4, CompanyName: "ándalas"},
	}))
	assert.Equal(t, []string{"Alpha", "ándalas", "beta", "Zeta"}, names(groups))
}

func TestOrderGroupsDoesNotMutateInput(t *testing.T) {
	in := GroupByCompany(sampleRecords())
	before := ids(in["PT A"])
	_ = OrderGroups(in)
	assert.Equal(t, before, ids(in["PT A"]))
}

func TestAggregateSingleCompanyScenario(t *testing.T) {
	records := []Record{
		rec(1, "PT A", day(2024, 1, 1), 1_000_000, 800_000),
		rec(2, "PT A", day(2024, 1, 2), 2_000_000, 1_500_000),
	}
	groups := OrderGroups(GroupByCompany(records))
	agg := Aggregate(groups)

	require.Len(t, agg.PerGroup, 1)
	g := agg.PerGroup[0]
	assert.Equal(t, "PT A", g.CompanyName)
	assert.Equal(t, Amount(3_000_000), g.SumPOValue)
	assert.Equal(t, Amount(2_300_000), g.SumExecutionCost)
	assert.Equal(t, Amount(700_000), g.SumProfit)
	assert.InDelta(t, (20.0+25.0)/2, g.AvgStatus, 1e-9)
}

func TestAggregateSumConsistencyAndGrandTotals(t *testing.T) {
	groups := OrderGroups(GroupByCompany(sampleRecords()))
	agg := Aggregate(groups)
	require.Len(t, agg.PerGroup, len(groups))

	var po, cost, profit Amount
	var statusSum float64
	count := 0
	for i, g := range groups {
		var want Amount
		for _, r := range g.Records {
			want += NormalizeAmount(r.Profit)
			statusSum += float64(r.StatusPercent)
			count++
		}
		assert.Equal(t, want, agg.PerGroup[i].SumProfit)
		po += agg.PerGroup[i].SumPOValue
		cost += agg.PerGroup[i].SumExecutionCost
		profit += agg.PerGroup[i].SumProfit
	}
	assert.Equal(t, po, agg.Grand.SumPOValue)
	assert.Equal(t, cost, agg.Grand.SumExecutionCost)
	assert.Equal(t, profit, agg.Grand.SumProfit)
	assert.Equal(t, count, agg.Grand.Count)
	assert.Equal(t, 3, agg.Grand.Groups)
	assert.InDelta(t, statusSum/float64(count), agg.Grand.AvgStatus, 1e-9)
}

func TestAggregateGrandAverageIsRecordWeighted(t *testing.T) {
	groups := []Group{
		{CompanyName: "A", Records: []Record{{StatusPercent: 10}, {StatusPercent: 10}, {StatusPercent: 10}}},
		{CompanyName: "B", Records: []Record{{StatusPercent: 50}}},
	}
	agg := Aggregate(groups)
	assert.InDelta(t, 20.0, agg.Grand.AvgStatus, 1e-9)
	assert.InDelta(t, 10.0, agg.PerGroup[0].AvgStatus, 1e-9)
	assert.InDelta(t, 50.0, agg.PerGroup[1].AvgStatus, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)
	assert.Empty(t, agg.PerGroup)
	assert.Equal(t, 0.0, agg.Grand.AvgStatus)
	assert.Equal(t, 0, agg.Grand.Count)

	agg = Aggregate([]Group{{CompanyName: "Empty"}})
	assert.Equal(t, 0.0, agg.PerGroup[0].AvgStatus)
}

func TestDeriveUsesCostBreakdown(t *testing.T) {
	r := Derive(Record{POValue: 1_000_000, ExecutionCost: 1, MaterialCost: 300_000, ServiceCost: 200_000, OverheadCost: 100_000})
	assert.Equal(t, Amount(600_000), r.ExecutionCost)
	assert.Equal(t, Amount(400_000), r.Profit)
	assert.Equal(t, Percent(40), r.StatusPercent)

	r = Derive(Record{POValue: 3_000_000, ExecutionCost: 2_000_000})
	assert.Equal(t, Amount(1_000_000), r.Profit)
	assert.Equal(t, Percent(33.33), r.StatusPercent)

	r = Derive(Record{POValue: 0, ExecutionCost: 250_000})
	assert.Equal(t, Amount(-250_000), r.Profit)
	assert.Equal(t, Percent(0), r.StatusPercent)
}

func TestAssembleDocument(t *testing.T) {
	generated := day(2024, 5, 1)
	doc := Build(sampleRecords(), AssembleOptions{Title: "Rekap PO 2024", Subtitle: "Tahun: 2024", GeneratedAt: generated})

	assert.Equal(t, "Rekap PO 2024", doc.Title)
	assert.Equal(t, generated, doc.GeneratedAt)
	assert.False(t, doc.NoData)
	require.Len(t, doc.Sections, 3)

	beta := doc.Sections[2]
	assert.Equal(t, "PT Beta", beta.CompanyName)
	require.Len(t, beta.Rows, 2)
	assert.Equal(t, 1, beta.Rows[0].No)
	assert.Equal(t, "PO-003", beta.Rows[0].PONumber)
	assert.Equal(t, "05 Januari 2024", beta.Rows[0].Date)
	assert.Equal(t, "Rp 2.000.000", beta.Rows[0].POValue)
	assert.Equal(t, "Rp 1.500.000", beta.Rows[0].Profit)
	assert.Equal(t, "75,0%", beta.Rows[0].Status)
	assert.Equal(t, SeverityExcellent, beta.Rows[0].Severity)
	assert.Equal(t, "Rp -1.000.000", beta.Rows[1].Profit)
	assert.Equal(t, "-20,0%", beta.Rows[1].Status)
	assert.Equal(t, SeverityMildNegative.Color(), beta.Rows[1].Color)
	assert.NotEmpty(t, beta.Rows[1].ProfitColor)
	assert.Equal(t, "Subtotal PT Beta", beta.Subtotal.Label)
	assert.Equal(t, "Rp 7.000.000", beta.Subtotal.POValue)
	assert.Equal(t, "Rp 500.000", beta.Subtotal.Profit)
	assert.Equal(t, "27,5%", beta.Subtotal.AvgStatus)

	assert.Equal(t, "Grand Total", doc.GrandTotal.Label)
	assert.Equal(t, 6, doc.GrandTotal.Count)
	assert.Equal(t, "Rp 10.700.000", doc.GrandTotal.POValue)
}

func TestAssembleEmptyInput(t *testing.T) {
	doc := Build(nil, AssembleOptions{})
	assert.True(t, doc.NoData)
	assert.NotEmpty(t, doc.NoDataMessage)
	assert.Empty(t, doc.Sections)
	assert.NotNil(t, doc.Sections)
	assert.Equal(t, defaultTitle, doc.Title)
	assert.Equal(t, "Rp 0", doc.GrandTotal.POValue)
	assert.Equal(t, "0,0%", doc.GrandTotal.AvgStatus)
	assert.False(t, doc.GeneratedAt.IsZero())
}

func TestDocumentRoundTripsThroughJSON(t *testing.T) {
	doc := Build(sampleRecords(), AssembleOptions{GeneratedAt: day(2024, 5, 1)})
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var back Document
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, doc.Sections[0].Rows[0].Severity, back.Sections[0].Rows[0].Severity)
	assert.Equal(t, doc.Totals, back.Totals)
}

func TestFilterDescribe(t *testing.T) {
	assert.Equal(t, "", Filter{}.Describe())
	assert.Equal(t, "Perusahaan: PT A, PT B | Periode: Maret 2024 | Pencarian: \"pipa\"",
		Filter{Companies: []string{"PT A", "PT B"}, Year: 2024, Month: 3, Search: " pipa "}.Describe())
	assert.Equal(t, "Tahun: 2023", Filter{Year: 2023}.Describe())
}

func ids(records []Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func names(groups []Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.CompanyName)
	}
	return out
}
