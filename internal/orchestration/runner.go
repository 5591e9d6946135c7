package orchestration

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// Runner evaluates a specification against a dataset. A Runner keeps no
// state between runs and may be shared by concurrent validations.
type Runner struct {
	logger *slog.Logger
	now    func() time.Time

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRunStart      EventType = "run_start"
	EventCheckComplete EventType = "check_complete"
	EventRunComplete   EventType = "run_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType   EventType
	Spec        models.SpecIdentity
	Dataset     string
	Path        string
	CheckNum    int
	TotalChecks int
	Verdict     models.Verdict
	Message     string
	DurationMs  int64
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for per-check and per-run records.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithClock replaces the clock used for report timestamps and check
// durations.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a runner
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		now:       time.Now,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run walks the specification depth-first in declaration order and
// evaluates every check against ds. A check whose prerequisites did not all
// pass is skipped without invoking its predicate. Predicate errors and
// panics become ERROR verdicts; they never abort the run.
func (r *Runner) Run(s *spec.Specification, ds *dataset.Handle) *models.Report {
	id := s.Identity()
	source := ""
	if ds != nil {
		source = ds.Source()
	}
	total := len(s.CheckPaths())
	r.notifyProgress(ProgressEvent{
		EventType:   EventRunStart,
		Spec:        id,
		Dataset:     source,
		TotalChecks: total,
	})

	start := r.now()
	verdicts := make(map[string]models.Verdict, total)
	checkNum := 0

	root := spec.Fold(s.Root(), spec.Visitor[*models.ReportNode]{
		Leaf: func(path string, c *spec.Check) *models.ReportNode {
			checkNum++
			began := r.now()
			res := evaluate(path, c, ds, verdicts)
			verdicts[path] = res.Verdict

			r.logger.Debug("check evaluated", "path", path, "verdict", res.Verdict, "message", res.Message)
			r.notifyProgress(ProgressEvent{
				EventType:   EventCheckComplete,
				Spec:        id,
				Dataset:     source,
				Path:        path,
				CheckNum:    checkNum,
				TotalChecks: total,
				Verdict:     res.Verdict,
				Message:     res.Message,
				DurationMs:  r.now().Sub(began).Milliseconds(),
			})
			return models.NewLeafNode(c.Name(), path, c.Title(), res.Verdict, res.Message)
		},
		Leave: func(path string, g *spec.Group, children []*models.ReportNode) *models.ReportNode {
			return models.NewGroupNode(g.Name(), path, g.Title(), children)
		},
	})

	report := &models.Report{
		Spec:      id,
		Dataset:   source,
		Timestamp: start.UTC(),
		Root:      root,
	}

	counts := report.Counts()
	r.logger.Info("validation complete",
		"spec", id.String(),
		"dataset", source,
		"verdict", report.Verdict(),
		"passed", counts[models.VerdictPass],
		"failed", counts[models.VerdictFail],
		"skipped", counts[models.VerdictSkipped],
		"errors", counts[models.VerdictError])
	r.notifyProgress(ProgressEvent{
		EventType:   EventRunComplete,
		Spec:        id,
		Dataset:     source,
		CheckNum:    checkNum,
		TotalChecks: total,
		Verdict:     report.Verdict(),
	})
	return report
}

// evaluate decides the verdict of one check. verdicts holds every check
// already resolved in this run.
func evaluate(path string, c *spec.Check, ds *dataset.Handle, verdicts map[string]models.Verdict) spec.Result {
	for _, req := range c.Requires() {
		if verdicts[req] != models.VerdictPass {
			return spec.Result{
				Verdict: models.VerdictSkipped,
				Message: fmt.Sprintf("prerequisite %s did not pass", req),
			}
		}
	}

	res, err := invoke(c, ds)
	if err != nil {
		return spec.Result{Verdict: models.VerdictError, Message: err.Error()}
	}

	switch res.Verdict {
	case models.VerdictPass:
		return spec.Pass()
	case models.VerdictFail:
		if res.Message == "" {
			res.Message = fmt.Sprintf("check %s failed", path)
		}
		return res
	case models.VerdictError:
		if res.Message == "" {
			res.Message = fmt.Sprintf("check %s reported an error", path)
		}
		return res
	default:
		return spec.Result{
			Verdict: models.VerdictError,
			Message: fmt.Sprintf("check returned verdict %q; only PASS, FAIL and ERROR may be returned", res.Verdict),
		}
	}
}

func invoke(c *spec.Check, ds *dataset.Handle) (res spec.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return c.Evaluate(ds)
}
