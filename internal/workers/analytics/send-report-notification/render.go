package sendreportnotification

import (
	"fmt"
	"html"
	"strings"

	"hr-analytics/internal/models"
)

// render builds the subject and bodies for a finished report.
func render(input *Input) models.NotificationTemplate {
	title, _ := input.Report["report_title"].(string)
	if title == "" {
		title = "Analytics report"
	}

	var lines []string
	switch {
	case input.ImpossibleQuery:
		lines = append(lines, "The question cannot be answered from recruiting data: "+input.Reason)
	case !input.ValidationSuccess:
		lines = append(lines, "A valid report could not be produced.")
		if errs, ok := input.Report["validation_errors"].([]interface{}); ok && len(errs) > 0 {
			lines = append(lines, fmt.Sprintf("Last error: %v", errs[len(errs)-1]))
		}
	default:
		if line, ok := metricLine(input.Report["main_metric"]); ok {
			lines = append(lines, line)
		}
		if secondary, ok := input.Report["secondary_metrics"].([]interface{}); ok {
			for _, m := range secondary {
				if line, ok := metricLine(m); ok {
					lines = append(lines, "- "+line)
				}
			}
		}
		if chart, ok := input.Report["chart"].(map[string]interface{}); ok {
			if desc, _ := chart["graph_description"].(string); desc != "" {
				lines = append(lines, "Chart: "+desc)
			}
		}
	}
	lines = append(lines, "", "Request: "+input.RequestID)

	text := strings.Join(lines, "\n")
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = html.EscapeString(l)
	}

	return models.NotificationTemplate{
		Subject:  "HR report: " + title,
		Body:     text,
		HTMLBody: "<h2>" + html.EscapeString(title) + "</h2><p>" + strings.Join(escaped, "<br>") + "</p>",
	}
}

func metricLine(v interface{}) (string, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	label, _ := m["label"].(string)
	value, present := m["real_value"]
	if label == "" || !present {
		return "", false
	}
	return fmt.Sprintf("%s: %s", label, formatValue(value)), true
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if row, ok := item.(map[string]interface{}); ok {
				parts = append(parts, fmt.Sprintf("%v=%s", row["label"], formatValue(row["value"])))
				continue
			}
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
