package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// WriteMarkdown writes one section per report with a table of every check,
// suitable for CI job summaries and pull request comments.
func WriteMarkdown(w io.Writer, reports []*models.Report, opts Options) error {
	var b strings.Builder
	b.WriteString("# Validation report\n\n")
	for _, r := range reports {
		rows, err := opts.rows(r, true)
		if err != nil {
			return err
		}

		fmt.Fprintf(&b, "## %s %s\n\n", verdictIcon(r.Verdict()), escapeCell(r.Dataset))
		fmt.Fprintf(&b, "- Specification: `%s`\n", r.Spec)
		fmt.Fprintf(&b, "- Result: **%s**, %s\n\n", r.Verdict(), InterpretCounts(r.Counts()))

		b.WriteString("| Check | Verdict | Message |\n")
		b.WriteString("|---|---|---|\n")
		for _, row := range rows {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", row.Path, row.Verdict, escapeCell(row.Message))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
