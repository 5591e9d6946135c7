package orchestration

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specdoc"
)

// generated is a specification built from a list of opcodes together with
// a record of which predicates ran.
type generated struct {
	spec  *spec.Specification
	calls map[string]int
}

// buildFromCodes turns opcodes into a nested specification: 0 opens a
// group, 1 closes one, 2-5 add a check returning PASS, FAIL, an error or
// a panic, and 6-9 add the same kinds of check requiring the previous check.
func buildFromCodes(codes []int) (*generated, error) {
	g := &generated{calls: map[string]int{}}

	type frame struct {
		name     string
		path     string
		children []spec.Node
	}
	stack := []*frame{{}}
	var checks []string
	n := 0

	closeGroup := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, spec.NewGroup(top.name, spec.Children(top.children...)))
	}

	for _, code := range codes {
		top := stack[len(stack)-1]
		switch {
		case code == 0 && len(stack) < 4:
			n++
			name := fmt.Sprintf("g%d", n)
			stack = append(stack, &frame{name: name, path: spec.JoinPath(top.path, name)})
		case code == 1 && len(stack) > 1:
			closeGroup()
		case code >= 2:
			n++
			name := fmt.Sprintf("c%d", n)
			path := spec.JoinPath(top.path, name)
			var opts []spec.CheckOption
			if code >= 6 && len(checks) > 0 {
				opts = append(opts, spec.Requires(checks[len(checks)-1]))
			}
			behaviour := (code - 2) % 4
			calls := g.calls
			pred := func(*dataset.Handle) (spec.Result, error) {
				calls[path]++
				switch behaviour {
				case 0:
					return spec.Pass(), nil
				case 1:
					return spec.Fail("failed"), nil
				case 2:
					return spec.Result{}, errors.New("fault")
				default:
					panic("crash")
				}
			}
			top.children = append(top.children, spec.NewCheck(name, "generated check", pred, opts...))
			checks = append(checks, path)
		}
	}
	for len(stack) > 1 {
		closeGroup()
	}

	s, err := spec.New(
		spec.Identity{DataStage: "generated", Product: "tree", Version: "0.0.1"},
		spec.NewGroup("", spec.Children(stack[0].children...)),
		spec.Metadata{},
	)
	if err != nil {
		return nil, err
	}
	g.spec = s
	return g, nil
}

func quietRunner() *Runner {
	return NewRunner(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// expectedAggregate applies the group rule to every leaf below a node.
func expectedAggregate(n *models.ReportNode) models.Verdict {
	var leaves []models.Verdict
	var collect func(*models.ReportNode)
	collect = func(n *models.ReportNode) {
		if n.Leaf {
			leaves = append(leaves, n.Verdict)
			return
		}
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(n)

	if slices.ContainsFunc(leaves, models.Verdict.Blocking) {
		return models.VerdictFail
	}
	if slices.Contains(leaves, models.VerdictSkipped) {
		return models.VerdictSkipped
	}
	return models.VerdictPass
}

func allNodes(n *models.ReportNode) []*models.ReportNode {
	out := []*models.ReportNode{n}
	for _, c := range n.Children {
		out = append(out, allNodes(c)...)
	}
	return out
}

func codesGen() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 9))
}

func TestProperty_Aggregate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	verdictGen := gen.OneConstOf(models.VerdictPass, models.VerdictFail, models.VerdictSkipped, models.VerdictError)

	properties.Property("aggregate follows FAIL/ERROR > SKIPPED > PASS", prop.ForAll(
		func(vs []models.Verdict) bool {
			got := models.Aggregate(vs...)
			switch {
			case slices.ContainsFunc(vs, models.Verdict.Blocking):
				return got == models.VerdictFail
			case slices.Contains(vs, models.VerdictSkipped):
				return got == models.VerdictSkipped
			default:
				return got == models.VerdictPass
			}
		},
		gen.SliceOf(verdictGen, reflect.TypeOf(models.VerdictPass)),
	))

	properties.TestingRun(t)
}

func TestProperty_GroupVerdicts(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every group aggregates its descendant leaves", prop.ForAll(
		func(codes []int) bool {
			g, err := buildFromCodes(codes)
			if err != nil {
				return false
			}
			report := quietRunner().Run(g.spec, emptyDataset())
			for _, n := range allNodes(report.Root) {
				if !n.Leaf && n.Verdict != expectedAggregate(n) {
					return false
				}
			}
			return report.OverallPassed() == (report.Verdict() == models.VerdictPass)
		},
		codesGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_StructuralParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("report and documentation list the same checks", prop.ForAll(
		func(codes []int) bool {
			g, err := buildFromCodes(codes)
			if err != nil {
				return false
			}
			report := quietRunner().Run(g.spec, emptyDataset())
			var reported []string
			for _, row := range report.LeafRows() {
				reported = append(reported, row.Path)
			}
			documented := specdoc.Render(g.spec).CheckPaths()
			return slices.Equal(reported, documented) && slices.Equal(documented, g.spec.CheckPaths())
		},
		codesGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_SkippedNeverInvoked(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("checks with unmet prerequisites are skipped and never run", prop.ForAll(
		func(codes []int) bool {
			g, err := buildFromCodes(codes)
			if err != nil {
				return false
			}
			report := quietRunner().Run(g.spec, emptyDataset())
			for _, path := range g.spec.CheckPaths() {
				node, _ := g.spec.Find(path)
				leaf := report.Node(path)
				unmet := false
				for _, req := range node.(*spec.Check).Requires() {
					if report.Node(req).Verdict != models.VerdictPass {
						unmet = true
					}
				}
				if unmet != (leaf.Verdict == models.VerdictSkipped) {
					return false
				}
				if unmet && g.calls[path] != 0 {
					return false
				}
				if !unmet && g.calls[path] != 1 {
					return false
				}
				if unmet && !strings.HasPrefix(leaf.Message, "prerequisite ") {
					return false
				}
			}
			return true
		},
		codesGen(),
	))

	properties.TestingRun(t)
}
