package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/porekap/internal/porecap"
)

func newImportCommand(rt Runtime) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import purchase order records from a CSV file",
		Long: `Import reads a CSV whose header names the record fields
(company_name, po_number, title, date, notes, offer_value, po_value,
execution_cost, material_cost, service_cost, overhead_cost). All rows are
validated first; nothing is written when any row is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			inputs, err := porecap.ReadInputsCSV(f)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Fprintln(out(cmd), "no rows to import")
				return nil
			}
			svc, err := rt.Recaps(cmd.Context())
			if err != nil {
				return err
			}
			n, err := svc.Import(cmd.Context(), inputs)
			var verr *porecap.ValidationError
			if errors.As(err, &verr) {
				keys := make([]string, 0, len(verr.Fields))
				for k := range verr.Fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", k, verr.Fields[k])
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "imported %d records\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
