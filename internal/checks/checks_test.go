package checks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

func TestCreate(t *testing.T) {
	ds := radarDataset(t)

	tests := []struct {
		kind   Kind
		params map[string]any
		want   models.Verdict
	}{
		{KindCoordinatePresent, map[string]any{"name": "time"}, models.VerdictPass},
		{KindGridSpacing, map[string]any{"max_spacing": 1000}, models.VerdictPass},
		{KindGridSpacing, map[string]any{"max_spacing": 500.0}, models.VerdictFail},
		{KindProjectionCoordinates, nil, models.VerdictPass},
		{KindTimeOrdering, nil, models.VerdictPass},
		{KindTimeCoverage, map[string]any{"min_years": 3}, models.VerdictFail},
		{KindTimestepRegularity, map[string]any{"allow_variable_timestep": false}, models.VerdictPass},
		{KindMissingTimes, nil, models.VerdictPass},
		{KindDataVariablePresent, map[string]any{"standard_names": []string{"rainfall_flux"}}, models.VerdictPass},
		{KindVariableDimensions, map[string]any{"standard_names": []any{"rainfall_flux"}, "dimensions": []any{"time", "y", "x"}}, models.VerdictPass},
		{KindVariableDType, map[string]any{"standard_names": []string{"rainfall_flux"}, "dtypes": []string{"float32"}}, models.VerdictPass},
		{KindVariableAttributes, map[string]any{"standard_names": []string{"rainfall_flux"}, "attributes": []string{"units"}}, models.VerdictPass},
		{KindVariableChunking, map[string]any{"standard_names": []string{"rainfall_flux"}}, models.VerdictPass},
		{KindVariableCompression, map[string]any{"standard_names": []string{"rainfall_flux"}}, models.VerdictPass},
		{KindGridMapping, map[string]any{"standard_names": []string{"rainfall_flux"}}, models.VerdictPass},
		{KindCRSDefinition, map[string]any{"standard_names": []string{"rainfall_flux"}}, models.VerdictPass},
		{KindLicense, map[string]any{"allowed": []string{"CC-BY-4.0"}}, models.VerdictFail},
		{KindAttributeISO8601, map[string]any{"attribute": "mlcast_created_on"}, models.VerdictFail},
		{KindCreatedBy, map[string]any{"attribute": "mlcast_created_by"}, models.VerdictFail},
		{KindCreatedWith, nil, models.VerdictFail},
		{KindVersionString, map[string]any{"attribute": "mlcast_dataset_version"}, models.VerdictFail},
		{KindIdentifierFormat, nil, models.VerdictPass},
		{KindDatasetIdentifier, nil, models.VerdictFail},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := Create(tt.kind, tt.params)
			require.NoError(t, err)
			r := run(t, p, ds)
			require.Equal(t, tt.want, r.Verdict, r.Message)
		})
	}
}

func TestCreate_CoversEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		_, err := Create(kind, nil)
		if err != nil {
			require.NotContains(t, err.Error(), "is not a valid check kind", kind)
		}
	}
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		params map[string]any
		err    string
	}{
		{"unknown kind", "nope", nil, "'nope' is not a valid check kind"},
		{"missing coordinate name", KindCoordinatePresent, nil, "requires a coordinate name"},
		{"missing standard names", KindVariableDType, map[string]any{"dtypes": []string{"float32"}}, "requires standard_names"},
		{"missing dimensions", KindVariableDimensions, map[string]any{"standard_names": []string{"a"}}, "requires dimensions"},
		{"missing dtypes", KindVariableDType, map[string]any{"standard_names": []string{"a"}}, "requires dtypes"},
		{"missing allowed licenses", KindLicense, nil, "allowed licenses"},
		{"missing attribute", KindCreatedBy, nil, "requires an attribute name"},
		{"wrong type", KindTimeCoverage, map[string]any{"min_years": "three"}, "decoding parameters"},
		{"bad repository pattern", KindCreatedWith, map[string]any{"repository_pattern": "{x!r}"}, "repository pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.kind, tt.params)
			require.ErrorContains(t, err, tt.err)
		})
	}
}

func TestCreate_IgnoresUnusedParameters(t *testing.T) {
	p, err := Create(KindTimeOrdering, map[string]any{
		"standard_names": []string{"rainfall_flux"},
		"time":           "time",
	})
	require.NoError(t, err)
	require.Equal(t, models.VerdictPass, run(t, p, radarDataset(t)).Verdict)
}

func TestNewPredicate_OwnParameters(t *testing.T) {
	shared := map[string]any{"standard_names": []string{"rainfall_flux"}, "max_spacing": 500.0}

	t.Run("own overrides shared", func(t *testing.T) {
		p, err := NewPredicate(KindGridSpacing, Params{Shared: shared, Own: map[string]any{"max_spacing": 1000}})
		require.NoError(t, err)
		require.Equal(t, models.VerdictPass, run(t, p, radarDataset(t)).Verdict)
	})

	t.Run("unknown own key", func(t *testing.T) {
		_, err := NewPredicate(KindGridSpacing, Params{Shared: shared, Own: map[string]any{"max_spacng": 1000}})
		require.ErrorContains(t, err, "max_spacng")
	})

	t.Run("unknown shared key", func(t *testing.T) {
		_, err := NewPredicate(KindGridSpacing, Params{Shared: map[string]any{"max_spacng": 1000}})
		require.NoError(t, err)
	})
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 22)
	require.IsNonDecreasing(t, kinds)
}
