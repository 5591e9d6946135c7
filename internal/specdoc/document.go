// Package specdoc renders specifications as documentation. Rendering walks
// the same tree the validation runner walks and never touches a dataset.
package specdoc

import (
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// Document is the encoding-agnostic documentation of one specification.
type Document struct {
	Identity     models.SpecIdentity
	Title        string
	Description  string
	LicenseNotes string
	References   []string
	Sections     []*Section
}

// Section documents a group or a check. Checks have Leaf set and no
// sections of their own.
type Section struct {
	Name        string
	Path        string
	Title       string
	Description string
	Leaf        bool
	Kind        string
	Requires    []string
	Sections    []*Section
}

// Render builds the document for s. Predicates are never invoked.
func Render(s *spec.Specification) *Document {
	meta := s.Metadata()
	root := spec.Fold(s.Root(), spec.Visitor[*Section]{
		Leaf: func(path string, c *spec.Check) *Section {
			return &Section{
				Name:        c.Name(),
				Path:        path,
				Title:       c.Title(),
				Description: c.Description(),
				Leaf:        true,
				Kind:        c.Kind(),
				Requires:    c.Requires(),
			}
		},
		Leave: func(path string, g *spec.Group, children []*Section) *Section {
			return &Section{
				Name:        g.Name(),
				Path:        path,
				Title:       g.Title(),
				Description: g.Description(),
				Sections:    children,
			}
		},
	})

	description := meta.Description
	if description == "" {
		description = root.Description
	}
	return &Document{
		Identity:     s.Identity(),
		Title:        s.Title(),
		Description:  description,
		LicenseNotes: meta.LicenseNotes,
		References:   meta.References,
		Sections:     root.Sections,
	}
}

// Checks returns every check section in declaration order.
func (d *Document) Checks() []*Section {
	var out []*Section
	var walk func([]*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			if s.Leaf {
				out = append(out, s)
				continue
			}
			walk(s.Sections)
		}
	}
	walk(d.Sections)
	return out
}

// CheckPaths returns the fully-qualified path of every documented check.
func (d *Document) CheckPaths() []string {
	checks := d.Checks()
	paths := make([]string, len(checks))
	for i, c := range checks {
		paths[i] = c.Path
	}
	return paths
}
