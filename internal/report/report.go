// Package report renders benchmark summaries as tables, CSV, and plots.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/imagesense/sense-bench/internal/evaluation"
)

// formatValue renders one metric cell.
func formatValue(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// Table writes one metric table, methods as rows and metrics as columns.
// values is either the mean or the standard-deviation map of a Summary.
func Table(w io.Writer, methods []string, values map[string]map[string]float64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Method"}, evaluation.BundleMetrics...))

	for _, method := range methods {
		row := make([]string, 0, len(evaluation.BundleMetrics)+1)
		row = append(row, method)
		for _, metric := range evaluation.BundleMetrics {
			row = append(row, formatValue(values[method][metric]))
		}
		table.Append(row)
	}

	table.Render()
}

// CSV writes one metric table as CSV with the same layout as Table.
func CSV(w io.Writer, methods []string, values map[string]map[string]float64) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{"Method"}, evaluation.BundleMetrics...)); err != nil {
		return err
	}

	for _, method := range methods {
		row := make([]string, 0, len(evaluation.BundleMetrics)+1)
		row = append(row, method)
		for _, metric := range evaluation.BundleMetrics {
			row = append(row, formatValue(values[method][metric]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
