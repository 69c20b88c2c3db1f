package report

import (
	"fmt"
	"strings"

	"hr-analytics/internal/query"
)

const reportFormat = `{
  "report_title": "<short title>",
  "main_metric": {
    "label": "<what the number means>",
    "value": {"operation": "count|sum|avg|min|max", "entity": "<entity>", "field": "<field, required except for count>",
              "filter": {"field": "<field>", "op": "eq", "value": "<value>"} | [ ... ],
              "group_by": {"field": "<field>"}}
  },
  "secondary_metrics": [
    {"label": "<label>", "value": { /* same shape as main_metric.value */ }}
  ],
  "chart": {
    "graph_description": "<one sentence>",
    "chart_type": "bar|line|scatter|table",
    "x_axis_name": "<axis title>",
    "y_axis_name": "<axis title>",
    "x_axis": {"operation": "field|date_trunc", "field": "<field of the y_axis entity>"},
    "y_axis": {"operation": "count|sum|avg|min|max", "entity": "<entity>", "field": "<field>", "filter": { ... }, "group_by": {"field": "<field>"}}
  }
}`

const impossibleFormat = `{"impossible_query": true, "reason": "<why the data cannot answer the question>"}`

// SystemPrompt describes the catalog and the report contract to the oracle.
func SystemPrompt(catalog *query.Catalog) string {
	var b strings.Builder

	b.WriteString("You are an HR analytics assistant for a recruiting pipeline. ")
	b.WriteString("Answer the user's question with a JSON report whose numbers are computed by query expressions. ")
	b.WriteString("Reply with a single JSON object and nothing else.\n\n")

	b.WriteString("## Entities\n")
	for _, def := range catalog.Entities() {
		kind := "entity"
		if def.View {
			kind = "view"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", def.Name, kind, def.Description)
		if def.View {
			continue
		}
		for _, f := range def.Fields {
			line := fmt.Sprintf("    - %s: %s", f.Name, f.Kind)
			if f.Ref != "" {
				line += fmt.Sprintf(" -> %s (match by id or name)", f.Ref)
			}
			if f.Description != "" {
				line += ", " + f.Description
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("Views share the fields of their base entity. Use only the entities and fields above.\n\n")

	b.WriteString("## Operations\n")
	fmt.Fprintf(&b, "- metric operations: %s\n", strings.Join(query.Operations, ", "))
	b.WriteString("- sum, avg, min and max need a numeric \"field\"\n")
	fmt.Fprintf(&b, "- filter operators: %s\n", strings.Join(query.FilterOperators, ", "))
	b.WriteString("- in and not_in take a list value; a filter may be one object or a list of objects that must all hold\n")
	b.WriteString("- x_axis uses operation field, or date_trunc to bucket a time field by month\n\n")

	b.WriteString("## Report format\n")
	b.WriteString(reportFormat)
	b.WriteString("\n\n## When the data cannot answer\n")
	b.WriteString(impossibleFormat)
	b.WriteString("\n\n## Rules\n")
	b.WriteString("- never include demo_value or demo_data; values are computed from the expressions\n")
	b.WriteString("- every field listed in the report format is required\n")
	b.WriteString("- secondary_metrics may be an empty list\n")
	return b.String()
}

// feedback is the correction request appended after an invalid candidate.
func feedback(reason string) string {
	return fmt.Sprintf("Your previous response was rejected: %s. Return the corrected report as a single JSON object, following the report format exactly.", reason)
}
