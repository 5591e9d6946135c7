package specdoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specs"
)

func fixture(calls *int) *spec.Specification {
	pred := func(*dataset.Handle) (spec.Result, error) {
		*calls++
		return spec.Pass(), nil
	}
	root := spec.NewGroup("", spec.WithDescription("Root prose."), spec.Children(
		spec.NewGroup("coordinates",
			spec.WithTitle("Coordinates"),
			spec.WithDescription("Coordinate requirements."),
			spec.Children(
				spec.NewCheck("time", "A time coordinate exists.", pred, spec.WithKind("coordinate_present")),
				spec.NewCheck("ordering", "Time increases strictly.", pred,
					spec.WithCheckTitle("Time ordering"),
					spec.Requires("coordinates.time")),
			),
		),
		spec.NewCheck("license", "The license is open.", pred),
	))
	return spec.MustNew(
		spec.Identity{DataStage: "source_data", Product: "radar", Version: "1.0.0"},
		root,
		spec.Metadata{
			Title:        "Radar & Co",
			LicenseNotes: "CC-BY only.",
			References:   []string{"https://example.org/cf"},
		},
	)
}

func TestRender(t *testing.T) {
	calls := 0
	d := Render(fixture(&calls))

	require.Zero(t, calls, "rendering must not evaluate checks")
	require.Equal(t, "Radar & Co", d.Title)
	require.Equal(t, "Root prose.", d.Description)
	require.Equal(t, []string{"coordinates.time", "coordinates.ordering", "license"}, d.CheckPaths())

	require.Len(t, d.Sections, 2)
	coords := d.Sections[0]
	require.False(t, coords.Leaf)
	require.Equal(t, "Coordinates", coords.Title)
	require.Equal(t, "coordinates", coords.Path)

	ordering := coords.Sections[1]
	require.True(t, ordering.Leaf)
	require.Equal(t, "Time ordering", ordering.Title)
	require.Equal(t, []string{"coordinates.time"}, ordering.Requires)
	require.Equal(t, "coordinate_present", coords.Sections[0].Kind)
}

func TestRender_BundledParity(t *testing.T) {
	for _, id := range specs.Catalog() {
		t.Run(id.String(), func(t *testing.T) {
			s, err := specs.Lookup(id.DataStage, id.Product, id.Version)
			require.NoError(t, err)
			require.Equal(t, s.CheckPaths(), Render(s).CheckPaths())
		})
	}
}

func TestMarkdown_FrontMatter(t *testing.T) {
	calls := 0
	d := Render(fixture(&calls))
	data, err := Markdown(d)
	require.NoError(t, err)

	id, raw, body, err := ParseFrontMatter(string(data))
	require.NoError(t, err)
	require.Equal(t, models.SpecIdentity{DataStage: "source_data", Product: "radar", Version: "1.0.0"}, id)
	require.Len(t, raw, 3)
	require.Contains(t, raw, "data_stage")
	require.Contains(t, raw, "product")
	require.Contains(t, raw, "version")

	for _, c := range d.Checks() {
		require.Contains(t, body, c.Description)
	}
	require.Contains(t, body, "Requires: `coordinates.time`")
	require.Contains(t, body, "Check `coordinates.time` (`coordinate_present`)")
	require.True(t, strings.HasPrefix(body, "# Radar & Co"))
}

func TestMarkdown_Headings(t *testing.T) {
	calls := 0
	source := []byte(Body(Render(fixture(&calls))))

	type heading struct {
		level int
		text  string
	}
	var got []heading
	doc := markdown.Parser().Parse(text.NewReader(source))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			got = append(got, heading{h.Level, string(h.Lines().Value(source))})
		}
		return ast.WalkContinue, nil
	})

	require.Equal(t, []heading{
		{1, "Radar & Co"},
		{2, "License notes"},
		{2, "Coordinates"},
		{3, "time"},
		{3, "Time ordering"},
		{2, "license"},
		{2, "References"},
	}, got)
}

func TestParseFrontMatter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no front matter", "# Title\n", "does not start with front matter"},
		{"unclosed", "---\nversion: 1.0.0\n# Title\n", "closing front matter delimiter"},
		{"bad yaml", "---\nversion: [1\n---\n", "unmarshalling front matter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ParseFrontMatter(tt.content)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestHTML(t *testing.T) {
	calls := 0
	data, err := HTML(Render(fixture(&calls)))
	require.NoError(t, err)

	page := string(data)
	require.Contains(t, page, "<title>Radar &amp; Co</title>")
	require.Contains(t, page, `<meta name="product" content="radar">`)
	require.Contains(t, page, `<h2 id="coordinates">Coordinates</h2>`)
	require.Contains(t, page, "<code>coordinates.ordering</code>")
	require.Contains(t, page, `<a href="https://example.org/cf">`)
	require.Zero(t, calls)
}

func TestBuildSite(t *testing.T) {
	calls := 0
	out := t.TempDir()

	written, err := BuildSite(out, []*spec.Specification{fixture(&calls)})
	require.NoError(t, err)
	require.Equal(t, []string{
		"specs/source_data/radar.md",
		"specs/source_data/radar.html",
		"index.md",
		"index.html",
	}, written)

	index, err := os.ReadFile(filepath.Join(out, "index.md"))
	require.NoError(t, err)
	require.Contains(t, string(index), "[Radar & Co](specs/source_data/radar.md)")
	require.Contains(t, string(index), "| 3 |")

	md, err := os.ReadFile(filepath.Join(out, "specs", "source_data", "radar.md"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(md), "---\ndata_stage: source_data\n"))
	require.Zero(t, calls)
}

func TestIndex_Empty(t *testing.T) {
	require.Contains(t, Index(nil), "No specifications are registered.")
}
