package spec

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// Identity is (data stage, product, version).
type Identity = models.SpecIdentity

// Metadata is free-form descriptive information about a specification.
type Metadata struct {
	Title        string
	Description  string
	LicenseNotes string
	References   []string
}

// Specification is an immutable, validated check tree with its identity.
type Specification struct {
	id    Identity
	root  *Group
	meta  Metadata
	index map[string]Node
	// order holds every check path in traversal order.
	order []string
}

// New validates root and returns a Specification. Duplicate paths, invalid
// names, missing predicates and prerequisites that do not resolve to an
// earlier check are reported together in a *MalformedError.
func New(id Identity, root *Group, meta Metadata) (*Specification, error) {
	meta.References = append([]string(nil), meta.References...)
	s := &Specification{
		id:    id,
		root:  root,
		meta:  meta,
		index: make(map[string]Node),
	}

	var problems []string
	if id.DataStage == "" || id.Product == "" || id.Version == "" {
		problems = append(problems, "identity requires data_stage, product and version")
	}
	if root == nil {
		problems = append(problems, "root group is nil")
		return nil, &MalformedError{Spec: id.String(), Problems: problems}
	}

	position := make(map[string]int)
	Walk(root, func(path string, n Node) {
		if path == "" {
			return
		}
		if err := validateName(n.Name()); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", path, err))
		}
		if _, dup := s.index[path]; dup {
			problems = append(problems, fmt.Sprintf("duplicate path %q", path))
			return
		}
		s.index[path] = n
		if c, ok := n.(*Check); ok {
			if c.predicate == nil {
				problems = append(problems, fmt.Sprintf("%s: check has no predicate", path))
			}
			position[path] = len(s.order)
			s.order = append(s.order, path)
		}
	})

	for _, path := range s.order {
		c := s.index[path].(*Check)
		for _, req := range c.requires {
			problems = append(problems, s.checkPrerequisite(path, req, position)...)
		}
	}

	if len(problems) > 0 {
		return nil, &MalformedError{Spec: id.String(), Problems: problems}
	}
	return s, nil
}

func (s *Specification) checkPrerequisite(path, req string, position map[string]int) []string {
	if req == path {
		return []string{fmt.Sprintf("%s: requires itself", path)}
	}
	target, ok := s.index[req]
	if !ok {
		return []string{fmt.Sprintf("%s: prerequisite %q does not exist", path, req)}
	}
	if _, isCheck := target.(*Check); !isCheck {
		return []string{fmt.Sprintf("%s: prerequisite %q is a group, not a check", path, req)}
	}
	if position[req] > position[path] {
		return []string{fmt.Sprintf("%s: prerequisite %q is declared after its dependent", path, req)}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.Contains(name, PathSeparator) {
		return fmt.Errorf("name %q contains %q", name, PathSeparator)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("name %q contains whitespace", name)
	}
	return nil
}

// MustNew is New that panics on error. It is meant for static definitions.
func MustNew(id Identity, root *Group, meta Metadata) *Specification {
	s, err := New(id, root, meta)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Specification) Identity() Identity { return s.id }
func (s *Specification) Root() *Group       { return s.root }

// Metadata returns a copy of the descriptive metadata.
func (s *Specification) Metadata() Metadata {
	m := s.meta
	m.References = append([]string(nil), s.meta.References...)
	return m
}

// Title returns the metadata title, or a title derived from the identity.
func (s *Specification) Title() string {
	if s.meta.Title != "" {
		return s.meta.Title
	}
	return fmt.Sprintf("%s/%s specification", s.id.DataStage, s.id.Product)
}

// Find resolves a fully-qualified path.
func (s *Specification) Find(path string) (Node, error) {
	n, ok := s.index[path]
	if !ok {
		return nil, &LookupError{Path: path}
	}
	return n, nil
}

// CheckPaths returns every check path in traversal order.
func (s *Specification) CheckPaths() []string {
	return append([]string(nil), s.order...)
}
