package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/porekap/internal/porecap"
	"github.com/odyssey-erp/porekap/internal/porecap/export"
	"github.com/odyssey-erp/porekap/jobs"
)

type filterFlags struct {
	companies []string
	search    string
	year      int
	month     int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.companies, "company", nil, "company name to include (repeatable or comma separated)")
	cmd.Flags().StringVar(&f.search, "search", "", "match PO number, title or company")
	cmd.Flags().IntVar(&f.year, "year", 0, "restrict to a year")
	cmd.Flags().IntVar(&f.month, "month", 0, "restrict to a month (1-12, requires --year)")
}

func (f *filterFlags) filter() (porecap.Filter, error) {
	if f.month != 0 && (f.month < 1 || f.month > 12) {
		return porecap.Filter{}, fmt.Errorf("--month must be between 1 and 12")
	}
	if f.month != 0 && f.year == 0 {
		return porecap.Filter{}, fmt.Errorf("--month requires --year")
	}
	var companies []string
	for _, c := range f.companies {
		if c = strings.TrimSpace(c); c != "" {
			companies = append(companies, c)
		}
	}
	return porecap.Filter{Companies: companies, Search: strings.TrimSpace(f.search), Year: f.year, Month: f.month}, nil
}

func newRecapCommand(rt Runtime) *cobra.Command {
	var flags filterFlags
	var format string
	cmd := &cobra.Command{
		Use:   "recap",
		Short: "Print the purchase order recap",
		Example: `  # Whole year as CSV
  porekap-cli recap --year 2024 > rekap-2024.csv

  # Two companies as JSON
  porekap-cli recap --company "PT A" --company "PT B" --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			svc, err := rt.Recaps(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := svc.Recap(cmd.Context(), filter)
			if err != nil {
				return err
			}
			switch format {
			case "csv":
				return export.WriteRecapCSV(out(cmd), doc)
			case "json":
				enc := json.NewEncoder(out(cmd))
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}

func newExportCommand(rt Runtime) *cobra.Command {
	var flags filterFlags
	var title string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Enqueue an asynchronous recap PDF export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			queue, err := rt.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			payload, err := queue.EnqueueRecapExport(cmd.Context(), jobs.RecapExportPayload{Filter: filter, Title: strings.TrimSpace(title)})
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "export queued: %s (file %s)\n", payload.ID, export.FileName(payload.ID))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "override the report title")
	return cmd
}
