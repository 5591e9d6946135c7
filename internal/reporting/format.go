// Package reporting encodes validation reports for terminals, files and CI
// systems.
package reporting

import (
	"fmt"
	"io"
	"slices"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/orchestration"
)

// Format names a report encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatJUnit    Format = "junit"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatCSV, FormatJUnit, FormatMarkdown}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !slices.Contains(Formats(), f) {
		return "", fmt.Errorf("unknown report format %q (expected one of %v)", s, Formats())
	}
	return f, nil
}

// Options controls what the tabular encodings display.
type Options struct {
	// Only restricts displayed rows to checks or groups matching these glob
	// patterns. It never changes a verdict.
	Only []string
}

func (o Options) rows(r *models.Report, leavesOnly bool) ([]models.Row, error) {
	rows := r.Rows()
	if leavesOnly {
		rows = r.LeafRows()
	}
	return orchestration.FilterRows(rows, o.Only)
}

// Write encodes reports to w in the given format.
func Write(w io.Writer, format Format, reports []*models.Report, opts Options) error {
	switch format {
	case FormatText, "":
		return WriteText(w, reports, opts)
	case FormatJSON:
		return WriteJSON(w, reports)
	case FormatCSV:
		return WriteCSV(w, reports, opts)
	case FormatJUnit:
		return WriteJUnitXML(w, reports)
	case FormatMarkdown:
		return WriteMarkdown(w, reports, opts)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
