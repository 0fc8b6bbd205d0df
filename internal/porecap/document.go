package porecap

import (
	"strconv"
	"strings"
	"time"
)

const (
	defaultTitle  = "Rekap Purchase Order"
	noDataMessage = "Tidak ada data purchase order untuk filter yang dipilih."
)

// Document is the fully computed report consumed by renderers.
type Document struct {
	Title         string      `json:"title"`
	Subtitle      string      `json:"subtitle,omitempty"`
	GeneratedAt   time.Time   `json:"generated_at"`
	NoData        bool        `json:"no_data"`
	NoDataMessage string      `json:"no_data_message,omitempty"`
	Sections      []Section   `json:"sections"`
	GrandTotal    TotalsRow   `json:"grand_total"`
	Totals        GrandTotals `json:"totals"`
}

// Section is the table of one company.
type Section struct {
	CompanyName string      `json:"company_name"`
	Rows        []Row       `json:"rows"`
	Subtotal    TotalsRow   `json:"subtotal"`
	Totals      GroupTotals `json:"totals"`
}

// Row is one formatted record line.
type Row struct {
	No            int      `json:"no"`
	ID            int64    `json:"id"`
	PONumber      string   `json:"po_number"`
	Title         string   `json:"title"`
	Date          string   `json:"date"`
	Notes         string   `json:"notes,omitempty"`
	OfferValue    string   `json:"offer_value"`
	POValue       string   `json:"po_value"`
	ExecutionCost string   `json:"execution_cost"`
	Profit        string   `json:"profit"`
	Status        string   `json:"status"`
	Severity      Severity `json:"severity"`
	Color         string   `json:"color"`
	ProfitColor   string   `json:"profit_color,omitempty"`
}

// TotalsRow is a formatted subtotal or grand-total line.
type TotalsRow struct {
	Label         string   `json:"label"`
	Count         int      `json:"count"`
	POValue       string   `json:"po_value"`
	ExecutionCost string   `json:"execution_cost"`
	Profit        string   `json:"profit"`
	AvgStatus     string   `json:"avg_status"`
	Severity      Severity `json:"severity"`
	Color         string   `json:"color"`
}

// AssembleOptions customises document metadata.
type AssembleOptions struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
}

const negativeColor = "#b91c1c"

// Assemble turns ordered groups and their aggregation into a Document.
// Empty input yields a renderable no-data document.
func Assemble(groups []Group, agg Aggregation, opts AssembleOptions) Document {
	doc := Document{
		Title:       strings.TrimSpace(opts.Title),
		Subtitle:    strings.TrimSpace(opts.Subtitle),
		GeneratedAt: opts.GeneratedAt,
		Sections:    []Section{},
		Totals:      agg.Grand,
	}
	if doc.Title == "" {
		doc.Title = defaultTitle
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}

	f := NewFormatter()
	for i, g := range groups {
		if len(g.Records) == 0 {
			continue
		}
		totals := GroupTotals{CompanyName: g.CompanyName}
		if i < len(agg.PerGroup) {
			totals = agg.PerGroup[i]
		}
		section := Section{
			CompanyName: g.CompanyName,
			Rows:        make([]Row, 0, len(g.Records)),
			Totals:      totals,
		}
		for n, rec := range g.Records {
			section.Rows = append(section.Rows, buildRow(f, n+1, rec))
		}
		section.Subtotal = totalsRow(f, "Subtotal "+g.CompanyName, totals.Count,
			totals.SumPOValue, totals.SumExecutionCost, totals.SumProfit, totals.AvgStatus)
		doc.Sections = append(doc.Sections, section)
	}

	grand := agg.Grand
	doc.GrandTotal = totalsRow(f, "Grand Total", grand.Count,
		grand.SumPOValue, grand.SumExecutionCost, grand.SumProfit, grand.AvgStatus)
	if len(doc.Sections) == 0 {
		doc.NoData = true
		doc.NoDataMessage = noDataMessage
	}
	return doc
}

// Build runs the whole recap pipeline over raw records.
func Build(records []Record, opts AssembleOptions) Document {
	groups := OrderGroups(GroupByCompany(records))
	return Assemble(groups, Aggregate(groups), opts)
}

func buildRow(f *Formatter, no int, rec Record) Row {
	status := Normalize(rec.StatusPercent)
	sev := Classify(status)
	row := Row{
		No:            no,
		ID:            rec.ID,
		PONumber:      rec.PONumber,
		Title:         rec.Title,
		Date:          f.Date(rec.Date),
		Notes:         rec.Notes,
		OfferValue:    f.Currency(rec.OfferValue),
		POValue:       f.Currency(rec.POValue),
		ExecutionCost: f.Currency(rec.ExecutionCost),
		Profit:        f.Currency(rec.Profit),
		Status:        f.Percent(status),
		Severity:      sev,
		Color:         sev.Color(),
	}
	if rec.Profit < 0 {
		row.ProfitColor = negativeColor
	}
	return row
}

func totalsRow(f *Formatter, label string, count int, po, cost, profit Amount, avg float64) TotalsRow {
	sev := Classify(avg)
	return TotalsRow{
		Label:         label,
		Count:         count,
		POValue:       f.Currency(po),
		ExecutionCost: f.Currency(cost),
		Profit:        f.Currency(profit),
		AvgStatus:     f.Percent(avg),
		Severity:      sev,
		Color:         sev.Color(),
	}
}

// Describe renders a human readable summary of the filter for subtitles.
func (flt Filter) Describe() string {
	var parts []string
	if len(flt.Companies) > 0 {
		parts = append(parts, "Perusahaan: "+strings.Join(flt.Companies, ", "))
	}
	switch {
	case flt.Year > 0 && flt.Month > 0:
		parts = append(parts, "Periode: "+MonthName(flt.Month)+" "+strconv.Itoa(flt.Year))
	case flt.Year > 0:
		parts = append(parts, "Tahun: "+strconv.Itoa(flt.Year))
	}
	if s := strings.TrimSpace(flt.Search); s != "" {
		parts = append(parts, "Pencarian: \""+s+"\"")
	}
	return strings.Join(parts, " | ")
}
