package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// WriteText writes an aligned table of every group and check followed by a
// plain-language summary, once per report.
func WriteText(w io.Writer, reports []*models.Report, opts Options) error {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w) //nolint:errcheck
		}
		rows, err := opts.rows(r, false)
		if err != nil {
			return err
		}
		writeTable(w, rows)
		fmt.Fprintf(w, "\n%s", FormatSummaryReport(r)) //nolint:errcheck
	}
	return nil
}

func writeTable(w io.Writer, rows []models.Row) {
	const colVerdict = 9
	nameWidth := len("CHECK")
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = strings.Repeat("  ", row.Depth) + row.Path
		nameWidth = max(nameWidth, runewidth.StringWidth(names[i]))
	}

	fmt.Fprintf(w, "%s  %s  %s\n", padRight("VERDICT", colVerdict), padRight("CHECK", nameWidth), "MESSAGE") //nolint:errcheck
	for i, row := range rows {
		line := fmt.Sprintf("%s  %s  %s", padRight(string(row.Verdict), colVerdict), padRight(names[i], nameWidth), row.Message)
		fmt.Fprintln(w, strings.TrimRight(line, " ")) //nolint:errcheck
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
