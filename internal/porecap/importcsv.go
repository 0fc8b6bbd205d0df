package porecap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadInputsCSV parses records from CSV. The header row names columns by
// their JSON field names; unknown columns are ignored. Monetary cells may be
// formatted ("Rp 1.500.000"). Each Input carries the file line it came from.
func ReadInputsCSV(r io.Reader) ([]Input, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("porecap: read csv header: %w", err)
	}
	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"company_name", "po_number", "title", "date"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: csv column %q missing", ErrValidation, required)
		}
	}

	var inputs []Input
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("porecap: read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if strings.Join(row, "") == "" {
			continue
		}
		inputs = append(inputs, Input{
			Line:          line,
			CompanyName:   cell("company_name"),
			PONumber:      cell("po_number"),
			Title:         cell("title"),
			Date:          cell("date"),
			Notes:         cell("notes"),
			OfferValue:    NormalizeAmount(cell("offer_value")),
			POValue:       NormalizeAmount(cell("po_value")),
			ExecutionCost: NormalizeAmount(cell("execution_cost")),
			MaterialCost:  NormalizeAmount(cell("material_cost")),
			ServiceCost:   NormalizeAmount(cell("service_cost")),
			OverheadCost:  NormalizeAmount(cell("overhead_cost")),
		})
	}
	return inputs, nil
}
