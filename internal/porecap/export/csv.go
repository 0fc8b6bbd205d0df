package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/porekap/internal/porecap"
)

var csvHeader = []string{
	"Perusahaan", "No", "No. PO", "Pekerjaan", "Tanggal",
	"Nilai Penawaran", "Nilai PO", "Biaya Pelaksanaan", "Laba", "Status", "Keterangan",
}

// WriteRecapCSV serialises a recap document: one line per record followed by
// the company subtotal, then the grand total.
func WriteRecapCSV(w io.Writer, doc porecap.Document) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{doc.Title}); err != nil {
		return err
	}
	if doc.Subtitle != "" {
		if err := writer.Write([]string{doc.Subtitle}); err != nil {
			return err
		}
	}
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	if doc.NoData {
		if err := writer.Write([]string{doc.NoDataMessage}); err != nil {
			return err
		}
		writer.Flush()
		return writer.Error()
	}
	for _, section := range doc.Sections {
		for _, row := range section.Rows {
			if err := writer.Write([]string{
				section.CompanyName,
				strconv.Itoa(row.No),
				row.PONumber,
				row.Title,
				row.Date,
				row.OfferValue,
				row.POValue,
				row.ExecutionCost,
				row.Profit,
				row.Status,
				row.Notes,
			}); err != nil {
				return err
			}
		}
		if err := writeTotals(writer, section.CompanyName, section.Subtotal); err != nil {
			return err
		}
	}
	if err := writeTotals(writer, "", doc.GrandTotal); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func writeTotals(writer *csv.Writer, company string, row porecap.TotalsRow) error {
	return writer.Write([]string{
		company,
		"",
		row.Label,
		strconv.Itoa(row.Count) + " PO",
		"",
		"",
		row.POValue,
		row.ExecutionCost,
		row.Profit,
		row.AvgStatus,
		"",
	})
}
