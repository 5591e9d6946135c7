package specs

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/checks"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/validation"
)

// Definition is the YAML form of a specification.
type Definition struct {
	DataStage   string         `yaml:"data_stage"`
	Product     string         `yaml:"product"`
	Version     string         `yaml:"version"`
	Title       string         `yaml:"title,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Metadata    MetadataDef    `yaml:"metadata,omitempty"`
	Parameters  map[string]any `yaml:"parameters,omitempty"`
	Children    []NodeDef      `yaml:"children"`
}

type MetadataDef struct {
	LicenseNotes string   `yaml:"license_notes,omitempty"`
	References   []string `yaml:"references,omitempty"`
}

// NodeDef is a group when Group is set and a check when Check is set.
type NodeDef struct {
	Group       string         `yaml:"group,omitempty"`
	Check       string         `yaml:"check,omitempty"`
	Kind        string         `yaml:"kind,omitempty"`
	Title       string         `yaml:"title,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Requires    []string       `yaml:"requires,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
	Children    []NodeDef      `yaml:"children,omitempty"`
}

// Parse validates a YAML definition against the definition schema and builds the
// Specification it describes. Every problem found is reported in a single
// *spec.MalformedError.
func Parse(data []byte) (*spec.Specification, error) {
	if errs := validation.ValidateSpecBytes(data); len(errs) > 0 {
		return nil, &spec.MalformedError{Spec: "definition", Problems: errs}
	}

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding definition: %w", err)
	}
	return def.Build()
}

// Build turns the definition into a Specification. Check parameters are the
// definition-wide parameters overlaid with the check's own.
func (d *Definition) Build() (*spec.Specification, error) {
	id := spec.Identity{DataStage: d.DataStage, Product: d.Product, Version: d.Version}
	var problems []string
	children := d.buildChildren("", d.Children, &problems)
	if len(problems) > 0 {
		return nil, &spec.MalformedError{Spec: id.String(), Problems: problems}
	}

	root := spec.NewGroup("",
		spec.WithTitle(d.Title),
		spec.WithDescription(d.Description),
		spec.Children(children...),
	)
	return spec.New(id, root, spec.Metadata{
		Title:        d.Title,
		Description:  d.Description,
		LicenseNotes: d.Metadata.LicenseNotes,
		References:   d.Metadata.References,
	})
}

func (d *Definition) buildChildren(parent string, defs []NodeDef, problems *[]string) []spec.Node {
	nodes := make([]spec.Node, 0, len(defs))
	for _, n := range defs {
		switch {
		case n.Group != "" && n.Check != "":
			*problems = append(*problems, fmt.Sprintf("%s: node is both group %q and check %q",
				displayPath(parent), n.Group, n.Check))
		case n.Group != "":
			path := spec.JoinPath(parent, n.Group)
			nodes = append(nodes, spec.NewGroup(n.Group,
				spec.WithTitle(n.Title),
				spec.WithDescription(n.Description),
				spec.Children(d.buildChildren(path, n.Children, problems)...),
			))
		case n.Check != "":
			path := spec.JoinPath(parent, n.Check)
			predicate, err := checks.NewPredicate(checks.Kind(n.Kind), checks.Params{
				Shared: d.Parameters,
				Own:    n.Params,
			})
			if err != nil {
				*problems = append(*problems, fmt.Sprintf("%s: %v", path, err))
				continue
			}
			nodes = append(nodes, spec.NewCheck(n.Check, n.Description, predicate,
				spec.WithCheckTitle(n.Title),
				spec.WithKind(n.Kind),
				spec.Requires(n.Requires...),
			))
		default:
			*problems = append(*problems, fmt.Sprintf("%s: node has neither group nor check name", displayPath(parent)))
		}
	}
	return nodes
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// MustParse is Parse that panics on error.
func MustParse(data []byte) *spec.Specification {
	s, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return s
}
