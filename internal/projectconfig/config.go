// Package projectconfig provides the ProjectConfig struct and loader for
// .mlcast.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/utils"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/validation"
)

// FileName is the configuration file looked up by Load.
const FileName = ".mlcast.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultCacheDir     = ".mlcast-cache"
	DefaultOutputFormat = "text"
	DefaultParallel     = 4
	DefaultDocsOut      = "site"
)

// maxDepth bounds how many parent directories Load searches.
const maxDepth = 10

// StorageConfig holds object storage settings for remote datasets.
type StorageConfig struct {
	EndpointURL  string `yaml:"endpoint_url,omitempty"`
	Anonymous    *bool  `yaml:"anonymous,omitempty"`
	Region       string `yaml:"region,omitempty"`
	AzureAccount string `yaml:"azure_account,omitempty"`
}

// CacheConfig holds settings for the remote object cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

// ValidateConfig holds defaults for mlcast validate.
type ValidateConfig struct {
	DataStage string `yaml:"data_stage,omitempty"`
	Product   string `yaml:"product,omitempty"`
	Version   string `yaml:"version,omitempty"`
	Parallel  int    `yaml:"parallel,omitempty"`
}

// DocsConfig holds settings for mlcast docs build.
type DocsConfig struct {
	Out string `yaml:"out,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .mlcast.yaml.
type ProjectConfig struct {
	Storage  StorageConfig  `yaml:"storage,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Validate ValidateConfig `yaml:"validate,omitempty"`
	Docs     DocsConfig     `yaml:"docs,omitempty"`

	// Path is the file the configuration was read from, empty when only
	// defaults apply.
	Path string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Storage: StorageConfig{
			Anonymous: utils.Ptr(false),
		},
		Cache: CacheConfig{
			Enabled: utils.Ptr(false),
			Dir:     DefaultCacheDir,
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Validate: ValidateConfig{
			Parallel: DefaultParallel,
		},
		Docs: DocsConfig{
			Out: DefaultDocsOut,
		},
	}
}

// CacheDir returns the cache directory when caching is enabled, and ""
// otherwise.
func (c *ProjectConfig) CacheDir() string {
	if c.Cache.Enabled == nil || !*c.Cache.Enabled {
		return ""
	}
	return c.Cache.Dir
}

// SchemaError lists the problems found validating a configuration file.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match the configuration schema:\n  %s", e.Path, strings.Join(e.Problems, "\n  "))
}

// Load finds .mlcast.yaml by walking up from startDir (max 10 levels),
// validates it against the configuration schema, unmarshals it, and fills in
// missing fields with defaults. If no config file is found, Load returns
// defaults with a nil error. Real I/O errors are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	if problems := validation.ValidateConfigBytes(data); len(problems) > 0 {
		return nil, &SchemaError{Path: path, Problems: problems}
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Paths in the file are relative to the file.
	base := filepath.Dir(path)
	fileCfg.Cache.Dir = utils.ResolvePath(fileCfg.Cache.Dir, base)
	fileCfg.Output.Path = utils.ResolvePath(fileCfg.Output.Path, base)
	fileCfg.Docs.Out = utils.ResolvePath(fileCfg.Docs.Out, base)

	mergeConfig(cfg, &fileCfg)
	cfg.Path = path
	return cfg, nil
}

// findConfigFile walks up from dir looking for .mlcast.yaml. It returns
// os.ErrNotExist if no config file is found.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxDepth {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Storage
	if src.Storage.EndpointURL != "" {
		dst.Storage.EndpointURL = src.Storage.EndpointURL
	}
	if src.Storage.Anonymous != nil {
		dst.Storage.Anonymous = src.Storage.Anonymous
	}
	if src.Storage.Region != "" {
		dst.Storage.Region = src.Storage.Region
	}
	if src.Storage.AzureAccount != "" {
		dst.Storage.AzureAccount = src.Storage.AzureAccount
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Output
	if src.Output.Format != "" {
		dst.Output.Format = src.Output.Format
	}
	if src.Output.Path != "" {
		dst.Output.Path = src.Output.Path
	}

	// Validate
	if src.Validate.DataStage != "" {
		dst.Validate.DataStage = src.Validate.DataStage
	}
	if src.Validate.Product != "" {
		dst.Validate.Product = src.Validate.Product
	}
	if src.Validate.Version != "" {
		dst.Validate.Version = src.Validate.Version
	}
	if src.Validate.Parallel != 0 {
		dst.Validate.Parallel = src.Validate.Parallel
	}

	// Docs
	if src.Docs.Out != "" {
		dst.Docs.Out = src.Docs.Out
	}
}
