// Package spec models a dataset specification as a tree of named checks and
// groups. The tree holds no evaluation state: the validation runner and the
// documentation renderer both walk it with Fold and keep their results
// elsewhere, so one Specification can be shared by concurrent runs.
package spec

import (
	"fmt"
	"iter"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// PathSeparator joins names into fully-qualified paths.
const PathSeparator = "."

// Node is either a *Check or a *Group. The set is closed: callers switch on
// the concrete type.
type Node interface {
	Name() string
	Title() string
	Description() string
	node()
}

// Result is what a predicate returns when it runs to completion.
type Result struct {
	Verdict models.Verdict
	Message string
}

// Pass returns a passing result. Passing results carry no message.
func Pass() Result {
	return Result{Verdict: models.VerdictPass}
}

// Fail returns a failing result with a human-readable message.
func Fail(message string) Result {
	return Result{Verdict: models.VerdictFail, Message: message}
}

// Failf is Fail with formatting.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Sprintf(format, args...))
}

// Predicate evaluates one rule against an opened dataset. It must not modify
// the handle. A returned error is a tooling fault, not a non-compliance.
type Predicate func(ds *dataset.Handle) (Result, error)

// Check is a leaf of the specification tree.
type Check struct {
	name        string
	title       string
	description string
	kind        string
	requires    []string
	predicate   Predicate
}

// CheckOption configures a Check.
type CheckOption func(*Check)

// Requires declares prerequisite checks by fully-qualified path.
func Requires(paths ...string) CheckOption {
	return func(c *Check) {
		c.requires = append(c.requires, paths...)
	}
}

// WithCheckTitle sets a short display title.
func WithCheckTitle(title string) CheckOption {
	return func(c *Check) {
		c.title = title
	}
}

// WithKind records the catalogue kind the predicate was built from.
func WithKind(kind string) CheckOption {
	return func(c *Check) {
		c.kind = kind
	}
}

// NewCheck creates a check.
func NewCheck(name, description string, predicate Predicate, opts ...CheckOption) *Check {
	c := &Check{
		name:        name,
		description: description,
		predicate:   predicate,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Check) Name() string        { return c.name }
func (c *Check) Description() string { return c.description }
func (c *Check) Kind() string        { return c.kind }
func (c *Check) node()               {}

// Title returns the display title, falling back to the name.
func (c *Check) Title() string {
	if c.title != "" {
		return c.title
	}
	return c.name
}

// Requires returns a copy of the prerequisite paths.
func (c *Check) Requires() []string {
	return append([]string(nil), c.requires...)
}

// Evaluate runs the predicate.
func (c *Check) Evaluate(ds *dataset.Handle) (Result, error) {
	return c.predicate(ds)
}

// Group is an ordered collection of checks and groups. Child order is
// documentation reading order and evaluation order.
type Group struct {
	name        string
	title       string
	description string
	children    []Node
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithTitle sets the group's title.
func WithTitle(title string) GroupOption {
	return func(g *Group) {
		g.title = title
	}
}

// WithDescription sets the group's prose.
func WithDescription(description string) GroupOption {
	return func(g *Group) {
		g.description = description
	}
}

// Children appends child nodes in order.
func Children(children ...Node) GroupOption {
	return func(g *Group) {
		g.children = append(g.children, children...)
	}
}

// NewGroup creates a group.
func NewGroup(name string, opts ...GroupOption) *Group {
	g := &Group{name: name}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Group) Name() string        { return g.name }
func (g *Group) Description() string { return g.description }
func (g *Group) node()               {}

// Title returns the display title, falling back to the name.
func (g *Group) Title() string {
	if g.title != "" {
		return g.title
	}
	return g.name
}

// Len returns the number of direct children.
func (g *Group) Len() int { return len(g.children) }

// Children yields the direct children in declaration order. The sequence can
// be ranged over any number of times.
func (g *Group) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, c := range g.children {
			if !yield(c) {
				return
			}
		}
	}
}

// Child returns the direct child with the given name.
func (g *Group) Child(name string) (Node, bool) {
	for _, c := range g.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Find resolves a dotted path relative to g.
func (g *Group) Find(path string) (Node, error) {
	if path == "" {
		return nil, &LookupError{Path: path}
	}
	var cur Node = g
	for _, name := range strings.Split(path, PathSeparator) {
		grp, ok := cur.(*Group)
		if !ok {
			return nil, &LookupError{Path: path}
		}
		next, ok := grp.Child(name)
		if !ok {
			return nil, &LookupError{Path: path}
		}
		cur = next
	}
	return cur, nil
}

// JoinPath appends name to a parent path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}
