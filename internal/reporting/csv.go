package reporting

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

var csvHeader = []string{"dataset", "path", "verdict", "message"}

// WriteCSV writes one row per check: dataset, path, verdict, message.
func WriteCSV(w io.Writer, reports []*models.Report, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range reports {
		rows, err := opts.rows(r, true)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write([]string{r.Dataset, row.Path, string(row.Verdict), row.Message}); err != nil {
				return fmt.Errorf("csv: write %s: %w", row.Path, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
