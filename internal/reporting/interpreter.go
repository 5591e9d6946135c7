package reporting

import (
	"fmt"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// InterpretVerdict returns a plain-language label for a report verdict.
func InterpretVerdict(v models.Verdict) string {
	switch v {
	case models.VerdictPass:
		return "Compliant (every check passed)"
	case models.VerdictSkipped:
		return "Incomplete (some checks were skipped)"
	case models.VerdictFail:
		return "Not compliant (at least one check failed or errored)"
	default:
		return fmt.Sprintf("Unknown verdict %q", v)
	}
}

// InterpretCounts summarizes leaf verdict counts in one line.
func InterpretCounts(counts map[models.Verdict]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return "No checks were run"
	}
	if counts[models.VerdictPass] == total {
		return fmt.Sprintf("All %d checks passed", total)
	}
	return fmt.Sprintf("%d passed, %d failed, %d errors, %d skipped out of %d checks",
		counts[models.VerdictPass], counts[models.VerdictFail],
		counts[models.VerdictError], counts[models.VerdictSkipped], total)
}

// FormatSummaryReport produces a plain-language summary of a report: the
// overall verdict and every check that did not pass.
func FormatSummaryReport(r *models.Report) string {
	var b strings.Builder

	b.WriteString("=== Summary ===\n\n")
	fmt.Fprintf(&b, "Dataset:       %s\n", r.Dataset)
	fmt.Fprintf(&b, "Specification: %s\n", r.Spec)
	fmt.Fprintf(&b, "Result:        %s\n", InterpretVerdict(r.Verdict()))
	fmt.Fprintf(&b, "Checks:        %s\n", InterpretCounts(r.Counts()))

	var problems []models.Row
	for _, row := range r.LeafRows() {
		if row.Verdict != models.VerdictPass {
			problems = append(problems, row)
		}
	}
	if len(problems) > 0 {
		b.WriteString("\nChecks needing attention:\n")
		for _, row := range problems {
			fmt.Fprintf(&b, "  %s %s: %s\n", verdictIcon(row.Verdict), row.Path, row.Verdict)
			if row.Message != "" {
				fmt.Fprintf(&b, "    %s\n", row.Message)
			}
		}
	}

	return b.String()
}

func verdictIcon(v models.Verdict) string {
	switch v {
	case models.VerdictPass:
		return "✓"
	case models.VerdictSkipped:
		return "-"
	default:
		return "✗"
	}
}

func parentPath(p string) string {
	i := strings.LastIndex(p, spec.PathSeparator)
	if i < 0 {
		return ""
	}
	return p[:i]
}
