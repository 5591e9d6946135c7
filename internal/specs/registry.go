// Package specs holds the bundled dataset specifications and the
// process-wide registry they are looked up in.
package specs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

//go:embed definitions
var definitionsFS embed.FS

// ErrNotFound is matched by *NotFoundError.
var ErrNotFound = errors.New("specification not found")

// NotFoundError reports a selector that matches no registered
// specification.
type NotFoundError struct {
	DataStage string
	Product   string
	Version   string
	// Available lists the versions registered for the (stage, product)
	// pair, if any.
	Available []string
}

func (e *NotFoundError) Error() string {
	if e.Version == "" || len(e.Available) == 0 {
		return fmt.Sprintf("no specification for data stage %q and product %q", e.DataStage, e.Product)
	}
	return fmt.Sprintf("no version of %s/%s matches %q (available: %s)",
		e.DataStage, e.Product, e.Version, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type key struct {
	stage, product string
}

type entry struct {
	version *semver.Version
	spec    *spec.Specification
}

// Registry maps (data stage, product) to the registered versions of a
// specification. A Registry is not modified after construction.
type Registry struct {
	entries map[key][]entry
}

// NewRegistry builds a registry. Versions must be valid semver and unique
// per (stage, product).
func NewRegistry(specs ...*spec.Specification) (*Registry, error) {
	r := &Registry{entries: make(map[key][]entry)}
	for _, s := range specs {
		id := s.Identity()
		v, err := semver.NewVersion(id.Version)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid version: %w", id, err)
		}
		k := key{id.DataStage, id.Product}
		for _, e := range r.entries[k] {
			if e.version.Equal(v) {
				return nil, fmt.Errorf("%s registered twice", id)
			}
		}
		r.entries[k] = append(r.entries[k], entry{version: v, spec: s})
	}
	for _, es := range r.entries {
		slices.SortFunc(es, func(a, b entry) int { return b.version.Compare(a.version) })
	}
	return r, nil
}

// Lookup returns the specification for (stage, product). An empty version
// selects the highest registered version; otherwise version is an exact
// version or a semver constraint such as "~0.1", and the highest matching
// version is returned.
func (r *Registry) Lookup(stage, product, version string) (*spec.Specification, error) {
	es, ok := r.entries[key{stage, product}]
	if !ok || len(es) == 0 {
		return nil, &NotFoundError{DataStage: stage, Product: product, Version: version}
	}
	if version == "" {
		return es[0].spec, nil
	}
	c, err := semver.NewConstraint(version)
	if err != nil {
		return nil, fmt.Errorf("invalid version selector %q: %w", version, err)
	}
	available := make([]string, len(es))
	for i, e := range es {
		if c.Check(e.version) {
			return e.spec, nil
		}
		available[i] = e.version.String()
	}
	return nil, &NotFoundError{DataStage: stage, Product: product, Version: version, Available: available}
}

// Versions returns the registered versions of (stage, product), newest
// first.
func (r *Registry) Versions(stage, product string) []string {
	es := r.entries[key{stage, product}]
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.version.String()
	}
	return out
}

// Catalog returns the identity of every registered specification sorted by
// stage, product and ascending version.
func (r *Registry) Catalog() []models.SpecIdentity {
	var ids []models.SpecIdentity
	for _, es := range r.entries {
		for _, e := range es {
			ids = append(ids, e.spec.Identity())
		}
	}
	slices.SortFunc(ids, compareIdentity)
	return ids
}

// Latest returns the newest version of every (stage, product), sorted by
// stage and product.
func (r *Registry) Latest() []*spec.Specification {
	out := make([]*spec.Specification, 0, len(r.entries))
	for _, es := range r.entries {
		out = append(out, es[0].spec)
	}
	slices.SortFunc(out, func(a, b *spec.Specification) int {
		return compareIdentity(a.Identity(), b.Identity())
	})
	return out
}

func compareIdentity(a, b models.SpecIdentity) int {
	if c := strings.Compare(a.DataStage, b.DataStage); c != 0 {
		return c
	}
	if c := strings.Compare(a.Product, b.Product); c != 0 {
		return c
	}
	return semver.MustParse(a.Version).Compare(semver.MustParse(b.Version))
}

// LoadFS parses every *.yaml definition under root in fsys.
func LoadFS(fsys fs.FS, root string) ([]*spec.Specification, error) {
	var out []*spec.Specification
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		s, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var defaultRegistry = mustLoadBundled()

func mustLoadBundled() *Registry {
	specs, err := LoadFS(definitionsFS, "definitions")
	if err != nil {
		panic(fmt.Sprintf("loading bundled specifications: %v", err))
	}
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(fmt.Sprintf("registering bundled specifications: %v", err))
	}
	return r
}

// Default returns the registry of bundled specifications.
func Default() *Registry { return defaultRegistry }

// Lookup resolves a selector in the bundled registry.
func Lookup(stage, product, version string) (*spec.Specification, error) {
	return defaultRegistry.Lookup(stage, product, version)
}

// Catalog lists the bundled specifications.
func Catalog() []models.SpecIdentity {
	return defaultRegistry.Catalog()
}
