package reporting

import (
	"encoding/json"
	"io"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// JSONDocument is the top-level JSON encoding of one validation invocation.
type JSONDocument struct {
	Passed  bool             `json:"passed"`
	Reports []*models.Report `json:"reports"`
}

// WriteJSON writes every report, in full, as one indented JSON document.
func WriteJSON(w io.Writer, reports []*models.Report) error {
	doc := JSONDocument{Passed: AllPassed(reports), Reports: reports}
	if doc.Reports == nil {
		doc.Reports = []*models.Report{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// AllPassed reports whether every report passed. No reports means nothing
// was validated, which does not count as passing.
func AllPassed(reports []*models.Report) bool {
	if len(reports) == 0 {
		return false
	}
	for _, r := range reports {
		if !r.OverallPassed() {
			return false
		}
	}
	return true
}
