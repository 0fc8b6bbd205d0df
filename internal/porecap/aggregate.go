package porecap

// GroupTotals carries the subtotal of one company section.
type GroupTotals struct {
	CompanyName      string  `json:"company_name"`
	Count            int     `json:"count"`
	SumPOValue       Amount  `json:"sum_po_value"`
	SumExecutionCost Amount  `json:"sum_execution_cost"`
	SumProfit        Amount  `json:"sum_profit"`
	StatusTotal      float64 `json:"status_total"`
	AvgStatus        float64 `json:"avg_status"`
}

// GrandTotals carries the totals across every section.
type GrandTotals struct {
	Groups           int     `json:"groups"`
	Count            int     `json:"count"`
	SumPOValue       Amount  `json:"sum_po_value"`
	SumExecutionCost Amount  `json:"sum_execution_cost"`
	SumProfit        Amount  `json:"sum_profit"`
	StatusTotal      float64 `json:"status_total"`
	AvgStatus        float64 `json:"avg_status"`
}

// Aggregation is the result of folding ordered groups.
type Aggregation struct {
	PerGroup []GroupTotals `json:"per_group"`
	Grand    GrandTotals   `json:"grand"`
}

type accumulator struct {
	sumPOValue       Amount
	sumExecutionCost Amount
	sumProfit        Amount
	statusTotal      float64
	count            int
}

func (a accumulator) add(rec Record) accumulator {
	a.sumPOValue += NormalizeAmount(rec.POValue)
	a.sumExecutionCost += NormalizeAmount(rec.ExecutionCost)
	a.sumProfit += NormalizeAmount(rec.Profit)
	a.statusTotal += Normalize(rec.StatusPercent)
	a.count++
	return a
}

func (a accumulator) merge(b accumulator) accumulator {
	a.sumPOValue += b.sumPOValue
	a.sumExecutionCost += b.sumExecutionCost
	a.sumProfit += b.sumProfit
	a.statusTotal += b.statusTotal
	a.count += b.count
	return a
}

func (a accumulator) average() float64 {
	if a.count == 0 {
		return 0
	}
	return a.statusTotal / float64(a.count)
}

func fold(records []Record) accumulator {
	var acc accumulator
	for _, rec := range records {
		acc = acc.add(rec)
	}
	return acc
}

// Aggregate computes per-group subtotals and grand totals. The grand
// average is taken over every record, not over the group averages.
func Aggregate(groups []Group) Aggregation {
	out := Aggregation{PerGroup: make([]GroupTotals, 0, len(groups))}
	var grand accumulator
	for _, g := range groups {
		acc := fold(g.Records)
		out.PerGroup = append(out.PerGroup, GroupTotals{
			CompanyName:      g.CompanyName,
			Count:            acc.count,
			SumPOValue:       acc.sumPOValue,
			SumExecutionCost: acc.sumExecutionCost,
			SumProfit:        acc.sumProfit,
			StatusTotal:      acc.statusTotal,
			AvgStatus:        acc.average(),
		})
		grand = grand.merge(acc)
	}
	out.Grand = GrandTotals{
		Groups:           len(groups),
		Count:            grand.count,
		SumPOValue:       grand.sumPOValue,
		SumExecutionCost: grand.sumExecutionCost,
		SumProfit:        grand.sumProfit,
		StatusTotal:      grand.statusTotal,
		AvgStatus:        grand.average(),
	}
	return out
}
