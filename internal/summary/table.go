package summary

import (
	"encoding/csv"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table is the reconciled summary: one row per valid run, one column per
// varying hyperparameter, metric, or derived field. The first cell of each
// row is the positional run label.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Render writes the table in fixed-width form with a header row.
func (t *Table) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(append([]string{"run"}, t.Columns...))
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range t.Rows {
		tw.Append(row)
	}
	tw.Render()
}

// WriteCSV dumps the table, header first, as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"run"}, t.Columns...)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
