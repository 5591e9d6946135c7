package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/orchestration"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specdoc"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specs"
)

// fakeOpener serves in-memory datasets by source name.
type fakeOpener struct {
	mu       sync.Mutex
	datasets map[string]*dataset.Handle
	opened   []string
}

func (f *fakeOpener) Open(_ context.Context, source string) (*dataset.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, source)
	ds, ok := f.datasets[source]
	if !ok {
		return nil, fmt.Errorf("%s: no such dataset", source)
	}
	return ds, nil
}

// useFakeOpener installs an opener serving the named bare datasets and
// records the options validate passes to it.
func useFakeOpener(t *testing.T, names ...string) (*fakeOpener, *dataset.OpenOptions) {
	t.Helper()
	f := &fakeOpener{datasets: map[string]*dataset.Handle{}}
	for _, n := range names {
		f.datasets[n] = dataset.NewBuilder().Source(n).Attr("license", "CC-BY-4.0").MustBuild()
	}
	var got dataset.OpenOptions
	prev := newOpener
	newOpener = func(opts dataset.OpenOptions) orchestration.Opener {
		got = opts
		return f
	}
	t.Cleanup(func() { newOpener = prev })
	return f, &got
}

// isolateConfig points .mlcast.yaml discovery at an empty directory.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := configDir
	configDir = dir
	t.Cleanup(func() { configDir = prev })
	return dir
}

// slowOpener delays every open so a progress spinner gets to draw.
type slowOpener struct {
	orchestration.Opener
	delay time.Duration
}

func (s slowOpener) Open(ctx context.Context, source string) (*dataset.Handle, error) {
	time.Sleep(s.delay)
	return s.Opener.Open(ctx, source)
}

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

var radarFlags = []string{"--data-stage", "source_data", "--product", "radar_precipitation"}

func validateArgs(extra ...string) []string {
	return append(append([]string{"validate"}, radarFlags...), extra...)
}

func TestValidate_NonCompliantDataset(t *testing.T) {
	isolateConfig(t)
	useFakeOpener(t, "bare.zarr")

	stdout, _, err := runCLI(t, validateArgs("bare.zarr")...)
	require.Error(t, err)
	assert.Equal(t, ExitValidationFailed, exitCode(err))
	assert.Contains(t, err.Error(), "1 of 1 datasets did not pass source_data/radar_precipitation")

	assert.True(t, strings.HasPrefix(stdout, "VERDICT"))
	assert.Contains(t, stdout, "Dataset:       bare.zarr")
	assert.Contains(t, stdout, "Not compliant")
}

func TestValidate_JSONToFile(t *testing.T) {
	isolateConfig(t)
	useFakeOpener(t, "a.zarr", "b.zarr")
	out := filepath.Join(t.TempDir(), "report.json")

	stdout, _, err := runCLI(t, validateArgs("--format", "json", "-o", out, "--parallel", "2", "b.zarr", "a.zarr")...)
	require.Error(t, err)
	assert.Equal(t, ExitValidationFailed, exitCode(err))
	assert.Contains(t, stdout, "Report written to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc struct {
		Passed  bool `json:"passed"`
		Reports []struct {
			Dataset string `json:"dataset"`
			Spec    struct {
				Version string `json:"version"`
			} `json:"spec"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.False(t, doc.Passed)
	require.Len(t, doc.Reports, 2)
	assert.Equal(t, "b.zarr", doc.Reports[0].Dataset, "reports follow argument order")
	assert.Equal(t, "a.zarr", doc.Reports[1].Dataset)
	assert.Equal(t, "0.2.0", doc.Reports[0].Spec.Version, "latest version by default")
}

func TestValidate_VersionSelector(t *testing.T) {
	isolateConfig(t)
	useFakeOpener(t, "bare.zarr")

	stdout, _, err := runCLI(t, validateArgs("--version", "~0.1", "--format", "csv", "bare.zarr")...)
	assert.Equal(t, ExitValidationFailed, exitCode(err))
	assert.True(t, strings.HasPrefix(stdout, "dataset,path,verdict,message\n"))
	assert.Contains(t, err.Error(), "source_data/radar_precipitation@~0.1")
}

func TestValidate_ConfigAndFlags(t *testing.T) {
	dir := isolateConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mlcast.yaml"), []byte(`
storage:
  endpoint_url: http://localhost:9000
  anonymous: true
  region: eu-north-1
cache:
  enabled: true
  dir: /tmp/mlcast-cache
output:
  format: markdown
validate:
  data_stage: source_data
  product: radar_precipitation
`), 0o644))

	t.Run("config values", func(t *testing.T) {
		_, opts := useFakeOpener(t, "bare.zarr")
		stdout, _, err := runCLI(t, "validate", "bare.zarr")
		assert.Equal(t, ExitValidationFailed, exitCode(err))
		assert.True(t, strings.HasPrefix(stdout, "# Validation report"))
		assert.Equal(t, dataset.OpenOptions{
			EndpointURL: "http://localhost:9000",
			Anonymous:   true,
			Region:      "eu-north-1",
			CacheDir:    "/tmp/mlcast-cache",
		}, *opts)
	})

	t.Run("flags override", func(t *testing.T) {
		_, opts := useFakeOpener(t, "bare.zarr")
		stdout, _, err := runCLI(t, "validate", "--format", "junit", "--anonymous=false",
			"--region", "us-east-1", "--no-cache", "bare.zarr")
		assert.Equal(t, ExitValidationFailed, exitCode(err))
		assert.True(t, strings.HasPrefix(stdout, "<?xml"))
		assert.Equal(t, dataset.OpenOptions{
			EndpointURL: "http://localhost:9000",
			Region:      "us-east-1",
		}, *opts)
	})
}

func TestValidate_InvalidConfig(t *testing.T) {
	dir := isolateConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mlcast.yaml"), []byte("output:\n  format: yaml\n"), 0o644))
	useFakeOpener(t, "bare.zarr")

	_, _, err := runCLI(t, validateArgs("bare.zarr")...)
	require.Error(t, err)
	assert.Equal(t, ExitError, exitCode(err))
	assert.Contains(t, err.Error(), "configuration schema")
}

func TestValidate_UnknownProductNeverOpens(t *testing.T) {
	isolateConfig(t)
	opener, _ := useFakeOpener(t, "bare.zarr")

	_, _, err := runCLI(t, "validate", "--data-stage", "source_data", "--product", "satellite", "bare.zarr")
	require.Error(t, err)
	assert.ErrorIs(t, err, specs.ErrNotFound)
	assert.Equal(t, ExitError, exitCode(err))
	assert.Empty(t, opener.opened)
}

func TestValidate_OpenFailure(t *testing.T) {
	isolateConfig(t)
	useFakeOpener(t, "bare.zarr")

	stdout, _, err := runCLI(t, validateArgs("bare.zarr", "missing.zarr")...)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrOpen)
	assert.Equal(t, ExitError, exitCode(err))
	assert.Contains(t, err.Error(), "missing.zarr")

	assert.Contains(t, stdout, "Dataset:       bare.zarr")
	assert.NotContains(t, stdout, "Dataset:       missing.zarr")
}

func TestValidate_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no datasets", validateArgs(), "requires at least 1 arg"},
		{"no selector", []string{"validate", "bare.zarr"}, "--data-stage and --product are required"},
		{"bad format", validateArgs("--format", "yaml", "bare.zarr"), `unknown report format "yaml"`},
		{"bad parallel", validateArgs("--parallel", "0", "bare.zarr"), "--parallel must be at least 1"},
		{"bad filter", validateArgs("--only", "[", "bare.zarr"), "invalid check filter pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			useFakeOpener(t, "bare.zarr")

			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitError, exitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSpec_Markdown(t *testing.T) {
	stdout, _, err := runCLI(t, "spec", "source_data", "radar_precipitation", "0.1.0")
	require.NoError(t, err)

	id, raw, body, err := specdoc.ParseFrontMatter(stdout)
	require.NoError(t, err)
	assert.Len(t, raw, 3)
	assert.Equal(t, "0.1.0", id.Version)
	assert.Equal(t, "radar_precipitation", id.Product)
	assert.True(t, strings.HasPrefix(body, "# "))
}

func TestSpec_HTMLToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "radar.html")
	stdout, _, err := runCLI(t, "spec", "source_data", "radar_precipitation", "--format", "html", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Specification written to")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<meta name="version" content="0.2.0">`)
}

func TestSpec_Errors(t *testing.T) {
	_, _, err := runCLI(t, "spec", "source_data", "satellite")
	assert.ErrorIs(t, err, specs.ErrNotFound)

	_, _, err = runCLI(t, "spec", "source_data", "radar_precipitation", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown spec format "pdf"`)
}

func TestList(t *testing.T) {
	stdout, _, err := runCLI(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "DATA STAGE"))
	assert.Contains(t, lines[1], "radar_precipitation")
	assert.Contains(t, lines[1], "0.2.0, 0.1.0")

	stdout, _, err = runCLI(t, "list", "--format", "json")
	require.NoError(t, err)
	var entries []catalogEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"0.2.0", "0.1.0"}, entries[0].Versions)
}

func TestDocsBuild(t *testing.T) {
	isolateConfig(t)
	out := t.TempDir()

	stdout, _, err := runCLI(t, "docs", "build", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(out, "index.md"))

	for _, p := range []string{"index.md", "index.html", "specs/source_data/radar_precipitation.md", "specs/source_data/radar_precipitation.html"} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(p)))
	}
}

func TestCacheClear(t *testing.T) {
	isolateConfig(t)
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.bin"), []byte("x"), 0o644))

	stdout, _, err := runCLI(t, "cache", "clear", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cache cleared")
	assert.NoDirExists(t, dir)
}

func TestRoot_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestValidate_SpinnerClearedBeforeReport(t *testing.T) {
	isolateConfig(t)
	f, _ := useFakeOpener(t, "radar.zarr")
	newOpener = func(dataset.OpenOptions) orchestration.Opener {
		return slowOpener{Opener: f, delay: 300 * time.Millisecond}
	}
	prevTerminal := isTerminal
	isTerminal = func(io.Writer) bool { return true }
	t.Cleanup(func() { isTerminal = prevTerminal })

	var out syncBuffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(validateArgs("radar.zarr"))
	require.Error(t, cmd.Execute())

	got := out.String()
	table := strings.Index(got, "VERDICT")
	require.Positive(t, table, "spinner output expected before the report:\n%s", got)
	assert.Less(t, strings.LastIndex(got, "\r"), table, "spinner drew after the report started")
}
