package porecap

import "math"

// Derive recomputes execution cost, profit and status percent from the cost
// inputs. It is applied on every create and edit so both paths share one
// formula: status is profit relative to the PO value.
func Derive(rec Record) Record {
	if rec.MaterialCost != 0 || rec.ServiceCost != 0 || rec.OverheadCost != 0 {
		rec.ExecutionCost = rec.MaterialCost + rec.ServiceCost + rec.OverheadCost
	}
	rec.Profit = rec.POValue - rec.ExecutionCost
	rec.StatusPercent = StatusPercent(rec.Profit, rec.POValue)
	return rec
}

// StatusPercent returns profit as a percentage of poValue rounded to two
// decimals, or 0 when poValue is not positive.
func StatusPercent(profit, poValue Amount) Percent {
	if poValue <= 0 {
		return 0
	}
	pct := float64(profit) / float64(poValue) * 100
	return Percent(math.Round(pct*100) / 100)
}
