package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"codegraph/internal/query"
)

func printResult(out, errOut io.Writer, result query.Result) error {
	switch result.Kind {
	case query.ResultRows:
		return printRows(out, result.Rows)
	case query.ResultExplanation:
		fmt.Fprintln(out, strings.TrimSpace(result.Text))
		return nil
	default:
		fmt.Fprintln(errOut, result.Text)
		return nil
	}
}

// printRows renders rows as an aligned table. Columns are the union of row
// keys in sorted order.
func printRows(w io.Writer, rows []map[string]any) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}

	columns := rowColumns(rows)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, column := range columns {
			cells[i] = formatCell(row[column])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func rowColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	sort.Strings(columns)
	return columns
}

var cellReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ")

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return cellReplacer.Replace(v)
	case []any, map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}

func printAttempts(w io.Writer, attempts []query.QueryAttempt) {
	for _, attempt := range attempts {
		fmt.Fprintf(w, "[%d] %s: %s\n", attempt.Number, attempt.Status, cellReplacer.Replace(attempt.Query))
		if attempt.ErrorMessage != "" {
			fmt.Fprintf(w, "    error: %s\n", attempt.ErrorMessage)
		}
	}
}

func joinValues(values []string) string {
	return strings.Join(values, ", ")
}
