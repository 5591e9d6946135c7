package models

import (
	"time"
)

// SpecIdentity identifies the specification a report was produced against.
type SpecIdentity struct {
	DataStage string `json:"data_stage" yaml:"data_stage"`
	Product   string `json:"product" yaml:"product"`
	Version   string `json:"version" yaml:"version"`
}

func (id SpecIdentity) String() string {
	return id.DataStage + "/" + id.Product + "@" + id.Version
}

// ReportNode is one node of a report tree. Group nodes carry the aggregate
// of their children; leaf nodes carry their own verdict and message.
type ReportNode struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Title    string        `json:"title,omitempty"`
	Leaf     bool          `json:"leaf"`
	Verdict  Verdict       `json:"verdict"`
	Message  string        `json:"message,omitempty"`
	Children []*ReportNode `json:"children,omitempty"`
}

// NewLeafNode builds a report node for a single check.
func NewLeafNode(name, path, title string, verdict Verdict, message string) *ReportNode {
	return &ReportNode{
		Name:    name,
		Path:    path,
		Title:   title,
		Leaf:    true,
		Verdict: verdict,
		Message: message,
	}
}

// NewGroupNode builds a report node for a group and computes its aggregate
// verdict from the children.
func NewGroupNode(name, path, title string, children []*ReportNode) *ReportNode {
	verdicts := make([]Verdict, len(children))
	for i, c := range children {
		verdicts[i] = c.Verdict
	}
	return &ReportNode{
		Name:     name,
		Path:     path,
		Title:    title,
		Verdict:  Aggregate(verdicts...),
		Children: children,
	}
}

// Report is the result of validating one dataset against one specification.
// A report is built once by the runner and must not be modified afterwards.
type Report struct {
	Spec      SpecIdentity `json:"spec"`
	Dataset   string       `json:"dataset"`
	Timestamp time.Time    `json:"timestamp"`
	Root      *ReportNode  `json:"root"`
}

// Row is one flattened report entry for tabular display.
type Row struct {
	Path    string  `json:"path"`
	Leaf    bool    `json:"leaf"`
	Depth   int     `json:"depth"`
	Title   string  `json:"title,omitempty"`
	Verdict Verdict `json:"verdict"`
	Message string  `json:"message,omitempty"`
}

// Rows flattens the report in declaration order, groups before their
// children. The root node is not included.
func (r *Report) Rows() []Row {
	if r == nil || r.Root == nil {
		return nil
	}
	var rows []Row
	var walk func(n *ReportNode, depth int)
	walk = func(n *ReportNode, depth int) {
		for _, c := range n.Children {
			rows = append(rows, Row{
				Path:    c.Path,
				Leaf:    c.Leaf,
				Depth:   depth,
				Title:   c.Title,
				Verdict: c.Verdict,
				Message: c.Message,
			})
			if !c.Leaf {
				walk(c, depth+1)
			}
		}
	}
	walk(r.Root, 0)
	return rows
}

// LeafRows returns only the rows of individual checks.
func (r *Report) LeafRows() []Row {
	var leaves []Row
	for _, row := range r.Rows() {
		if row.Leaf {
			leaves = append(leaves, row)
		}
	}
	return leaves
}

// Verdict returns the root aggregate.
func (r *Report) Verdict() Verdict {
	if r == nil || r.Root == nil {
		return VerdictError
	}
	return r.Root.Verdict
}

// OverallPassed reports whether every check in the report passed.
func (r *Report) OverallPassed() bool {
	return r.Verdict() == VerdictPass
}

// Counts tallies leaf verdicts.
func (r *Report) Counts() map[Verdict]int {
	counts := make(map[Verdict]int, len(Verdicts))
	for _, row := range r.LeafRows() {
		counts[row.Verdict]++
	}
	return counts
}

// Node returns the node at the given fully-qualified path, or nil.
func (r *Report) Node(path string) *ReportNode {
	if r == nil || r.Root == nil {
		return nil
	}
	if path == "" {
		return r.Root
	}
	var find func(n *ReportNode) *ReportNode
	find = func(n *ReportNode) *ReportNode {
		for _, c := range n.Children {
			if c.Path == path {
				return c
			}
			if !c.Leaf {
				if found := find(c); found != nil {
					return found
				}
			}
		}
		return nil
	}
	return find(r.Root)
}
