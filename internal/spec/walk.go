package spec

// Visitor receives the nodes of a tree during Fold.
type Visitor[T any] struct {
	// Enter is called for a group before any of its children. Optional.
	Enter func(path string, g *Group)
	// Leaf is called for every check.
	Leaf func(path string, c *Check) T
	// Leave is called for a group after all of its children, with their
	// results in declaration order.
	Leave func(path string, g *Group, children []T) T
}

// Fold walks the tree under g depth-first in declaration order and returns
// the result of Leave for g. The root group has the path "".
//
// Fold is the only traversal of a specification tree. The validation runner
// and the documentation renderer are both folds, which keeps the report and
// the rendered document structurally identical.
func Fold[T any](g *Group, v Visitor[T]) T {
	return foldGroup("", g, v)
}

func foldGroup[T any](path string, g *Group, v Visitor[T]) T {
	if v.Enter != nil {
		v.Enter(path, g)
	}
	results := make([]T, 0, len(g.children))
	for _, child := range g.children {
		childPath := JoinPath(path, child.Name())
		switch n := child.(type) {
		case *Check:
			results = append(results, v.Leaf(childPath, n))
		case *Group:
			results = append(results, foldGroup(childPath, n, v))
		}
	}
	return v.Leave(path, g, results)
}

// Walk visits every node under g, parents before children. The root group
// itself is visited with the path "".
func Walk(g *Group, visit func(path string, n Node)) {
	Fold(g, Visitor[struct{}]{
		Enter: func(path string, grp *Group) { visit(path, grp) },
		Leaf: func(path string, c *Check) struct{} {
			visit(path, c)
			return struct{}{}
		},
		Leave: func(string, *Group, []struct{}) struct{} { return struct{}{} },
	})
}
