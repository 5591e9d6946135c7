package orchestration

import (
	"fmt"
	"path"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// FilterRows returns the subset of rows whose path, or the path of one of
// their groups, matches at least one of the given glob patterns. An empty
// patterns slice returns all rows unchanged. Filtering only affects what is
// displayed; the report verdict is unchanged.
func FilterRows(rows []models.Row, patterns []string) ([]models.Row, error) {
	if len(patterns) == 0 {
		return rows, nil
	}

	var matched []models.Row
	for _, row := range rows {
		ok, err := matchesAny(row.Path, patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// matchesAny reports whether p or any of its ancestors matches a pattern.
func matchesAny(p string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		for candidate := p; candidate != ""; candidate = parentPath(candidate) {
			ok, err := path.Match(pattern, candidate)
			if err != nil {
				return false, fmt.Errorf("invalid check filter pattern %q: %w", pattern, err)
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func parentPath(p string) string {
	i := strings.LastIndex(p, spec.PathSeparator)
	if i < 0 {
		return ""
	}
	return p[:i]
}
