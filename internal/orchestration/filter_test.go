package orchestration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

func sampleRows() []models.Row {
	return []models.Row{
		{Path: "coordinates", Verdict: models.VerdictPass},
		{Path: "coordinates.time", Leaf: true, Verdict: models.VerdictPass},
		{Path: "temporal", Verdict: models.VerdictFail},
		{Path: "temporal.ordering", Leaf: true, Verdict: models.VerdictPass},
		{Path: "temporal.missing_times", Leaf: true, Verdict: models.VerdictFail},
		{Path: "global_attributes.license", Leaf: true, Verdict: models.VerdictPass},
	}
}

func TestFilterRows_NoPatterns(t *testing.T) {
	result, err := FilterRows(sampleRows(), nil)
	require.NoError(t, err)
	assert.Len(t, result, 6, "empty patterns should return all rows")
}

func TestFilterRows_ExactPath(t *testing.T) {
	result, err := FilterRows(sampleRows(), []string{"temporal.ordering"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "temporal.ordering", result[0].Path)
}

func TestFilterRows_GroupIncludesChildren(t *testing.T) {
	result, err := FilterRows(sampleRows(), []string{"temporal"})
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "temporal", result[0].Path)
	assert.Equal(t, "temporal.missing_times", result[2].Path)
}

func TestFilterRows_GlobPattern(t *testing.T) {
	result, err := FilterRows(sampleRows(), []string{"*.missing_*", "global_*"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "temporal.missing_times", result[0].Path)
	assert.Equal(t, "global_attributes.license", result[1].Path)
}

func TestFilterRows_NoMatch(t *testing.T) {
	result, err := FilterRows(sampleRows(), []string{"nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestFilterRows_InvalidPattern(t *testing.T) {
	_, err := FilterRows(sampleRows(), []string{"[invalid"})
	require.ErrorContains(t, err, "invalid check filter pattern")
}
