package checks

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
)

const (
	DefaultTimeCoordinate       = "time"
	DefaultMissingTimesVariable = "missing_times"
	DefaultRelTolerance         = 1e-6
)

// findDataVar returns the first data variable, in name order, whose
// standard_name is one of names.
func findDataVar(ds *dataset.Handle, names []string) (*dataset.Variable, bool) {
	for _, v := range ds.DataVars() {
		if sn, ok := v.Attrs().String("standard_name"); ok && slices.Contains(names, sn) {
			return v, true
		}
	}
	return nil, false
}

// requireDataVar is findDataVar for checks that cannot run without the
// variable; its absence is a tooling fault.
func requireDataVar(ds *dataset.Handle, names []string) (*dataset.Variable, error) {
	v, ok := findDataVar(ds, names)
	if !ok {
		return nil, fmt.Errorf("no data variable with standard_name in %s", quoteList(names))
	}
	return v, nil
}

func requireCoord(ds *dataset.Handle, name string) (*dataset.Variable, error) {
	v, ok := ds.Coord(name)
	if !ok {
		return nil, fmt.Errorf("coordinate %q not found", name)
	}
	return v, nil
}

func requireTimes(ds *dataset.Handle, name string) ([]time.Time, error) {
	v, err := requireCoord(ds, name)
	if err != nil {
		return nil, err
	}
	return v.Times()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimes(ts []time.Time, limit int) string {
	parts := make([]string, 0, min(len(ts), limit))
	for i, t := range ts {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(ts)-limit))
			break
		}
		parts = append(parts, formatTime(t))
	}
	return strings.Join(parts, ", ")
}
