package specs

import (
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

const minimalDefinition = `data_stage: %s
product: %s
version: %s
children:
  - check: time
    kind: coordinate_present
    description: A time coordinate exists.
    params:
      name: time
`

func definition(stage, product, version string) []byte {
	return []byte(fmt.Sprintf(minimalDefinition, stage, product, version))
}

func mustRegistry(t *testing.T, defs ...[]byte) *Registry {
	t.Helper()
	var all []*spec.Specification
	for _, d := range defs {
		s, err := Parse(d)
		require.NoError(t, err)
		all = append(all, s)
	}
	r, err := NewRegistry(all...)
	require.NoError(t, err)
	return r
}

func TestBundledCatalog(t *testing.T) {
	require.Equal(t, []models.SpecIdentity{
		{DataStage: "source_data", Product: "radar_precipitation", Version: "0.1.0"},
		{DataStage: "source_data", Product: "radar_precipitation", Version: "0.2.0"},
	}, Catalog())
}

func TestLookup_Bundled(t *testing.T) {
	s, err := Lookup("source_data", "radar_precipitation", "")
	require.NoError(t, err)
	require.Equal(t, "0.2.0", s.Identity().Version)
	require.Contains(t, s.CheckPaths(), "temporal.missing_times")
	require.Contains(t, s.CheckPaths(), "georeferencing.crs")

	s, err = Lookup("source_data", "radar_precipitation", "0.1.0")
	require.NoError(t, err)
	require.Equal(t, "0.1.0", s.Identity().Version)
}

func TestLookup_Versions(t *testing.T) {
	r := mustRegistry(t,
		definition("source_data", "radar", "0.1.0"),
		definition("source_data", "radar", "0.1.3"),
		definition("source_data", "radar", "0.2.0"),
		definition("source_data", "radar", "1.0.0"),
	)

	tests := []struct {
		selector string
		want     string
	}{
		{"", "1.0.0"},
		{"0.1.0", "0.1.0"},
		{"~0.1", "0.1.3"},
		{"<1.0.0", "0.2.0"},
		{"^0.2", "0.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			s, err := r.Lookup("source_data", "radar", tt.selector)
			require.NoError(t, err)
			require.Equal(t, tt.want, s.Identity().Version)
		})
	}

	require.Equal(t, []string{"1.0.0", "0.2.0", "0.1.3", "0.1.0"}, r.Versions("source_data", "radar"))
}

func TestLookup_NotFound(t *testing.T) {
	r := mustRegistry(t, definition("source_data", "radar", "0.1.0"))

	_, err := r.Lookup("source_data", "satellite", "")
	require.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "source_data", nf.DataStage)
	require.Equal(t, "satellite", nf.Product)
	require.Contains(t, err.Error(), `product "satellite"`)

	_, err = r.Lookup("source_data", "radar", "2.0.0")
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "available: 0.1.0")

	_, err = r.Lookup("source_data", "radar", "not a version")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRegistry_Duplicate(t *testing.T) {
	a, err := Parse(definition("source_data", "radar", "0.1.0"))
	require.NoError(t, err)
	b, err := Parse(definition("source_data", "radar", "0.1.0"))
	require.NoError(t, err)

	_, err = NewRegistry(a, b)
	require.ErrorContains(t, err, "registered twice")
}

func TestLatest(t *testing.T) {
	r := mustRegistry(t,
		definition("source_data", "radar", "0.1.0"),
		definition("source_data", "radar", "0.2.0"),
		definition("intermediate", "radar", "0.1.0"),
	)
	latest := r.Latest()
	require.Len(t, latest, 2)
	require.Equal(t, "intermediate/radar@0.1.0", latest[0].Identity().String())
	require.Equal(t, "source_data/radar@0.2.0", latest[1].Identity().String())
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"defs/a/radar/0.1.0.yaml": {Data: definition("a", "radar", "0.1.0")},
		"defs/a/radar/README.md":  {Data: []byte("ignored")},
	}
	loaded, err := LoadFS(fsys, "defs")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	fsys["defs/b/bad.yaml"] = &fstest.MapFile{Data: []byte("data_stage: b\n")}
	_, err = LoadFS(fsys, "defs")
	require.ErrorContains(t, err, "defs/b/bad.yaml")
}
