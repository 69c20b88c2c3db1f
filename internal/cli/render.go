package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"hr-analytics/internal/models"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber prints integers without a fractional part and everything else
// with at most two decimals.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// writeValue renders a query or metric value as a table.
func writeValue(w io.Writer, value interface{}) error {
	switch v := value.(type) {
	case int:
		table := newTable(w, "Value")
		table.Append([]string{strconv.Itoa(v)})
		table.Render()
	case float64:
		table := newTable(w, "Value")
		table.Append([]string{formatNumber(v)})
		table.Render()
	case []string:
		table := newTable(w, "#", "Label")
		for i, label := range v {
			table.Append([]string{strconv.Itoa(i + 1), label})
		}
		table.Render()
	case []models.LabeledValue:
		table := newTable(w, "Label", "Value")
		for _, row := range v {
			table.Append([]string{row.Label, formatNumber(row.Value)})
		}
		table.Render()
	case *models.ChartData:
		if v == nil {
			return fmt.Errorf("no chart data")
		}
		return writeChart(w, *v)
	default:
		return writeJSON(w, v)
	}
	return nil
}

func writeChart(w io.Writer, data models.ChartData) error {
	if len(data.Labels) != len(data.Values) {
		return fmt.Errorf("chart has %d labels and %d values", len(data.Labels), len(data.Values))
	}
	table := newTable(w, "Label", "Value")
	for i, label := range data.Labels {
		table.Append([]string{label, formatNumber(data.Values[i])})
	}
	table.Render()
	return nil
}
