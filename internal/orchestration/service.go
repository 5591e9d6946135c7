package orchestration

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specdoc"
)

//go:generate go tool mockgen -destination=mock_opener_test.go -package=orchestration . Opener

// Opener opens a dataset from a path or URI.
type Opener interface {
	Open(ctx context.Context, source string) (*dataset.Handle, error)
}

// Catalog resolves selectors to specifications.
type Catalog interface {
	Lookup(stage, product, version string) (*spec.Specification, error)
}

// Selector identifies a specification. An empty Version selects the newest.
type Selector struct {
	DataStage string
	Product   string
	Version   string
}

func (s Selector) String() string {
	if s.Version == "" {
		return s.DataStage + "/" + s.Product
	}
	return s.DataStage + "/" + s.Product + "@" + s.Version
}

// Result is the outcome of validating one dataset. Exactly one of Report
// and Err is set.
type Result struct {
	Source string
	Report *models.Report
	Err    error
}

// Service runs the two modes of operation over one catalog: validating
// datasets and rendering specifications.
type Service struct {
	catalog  Catalog
	opener   Opener
	runner   *Runner
	parallel int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRunner sets the runner used for validation.
func WithRunner(r *Runner) ServiceOption {
	return func(s *Service) {
		s.runner = r
	}
}

// WithParallel bounds the number of datasets validated at once by
// ValidateMany.
func WithParallel(n int) ServiceOption {
	return func(s *Service) {
		s.parallel = n
	}
}

// NewService creates a service. opener may be nil when only rendering is
// needed.
func NewService(catalog Catalog, opener Opener, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:  catalog,
		opener:   opener,
		parallel: 1,
	}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = NewRunner()
	}
	if s.parallel < 1 {
		s.parallel = 1
	}
	return s
}

// Runner returns the runner used for validation, for registering progress
// listeners.
func (s *Service) Runner() *Runner { return s.runner }

// Spec resolves sel.
func (s *Service) Spec(sel Selector) (*spec.Specification, error) {
	return s.catalog.Lookup(sel.DataStage, sel.Product, sel.Version)
}

// Validate resolves sel, opens source and evaluates the specification
// against it. The specification is resolved before the dataset is opened,
// so an unknown selector never touches the dataset. A dataset that cannot
// be opened produces an error and no report.
func (s *Service) Validate(ctx context.Context, sel Selector, source string) (*models.Report, error) {
	sp, err := s.Spec(sel)
	if err != nil {
		return nil, err
	}
	ds, err := s.open(ctx, source)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(sp, ds), nil
}

// ValidateHandle evaluates the specification against an already opened
// dataset.
func (s *Service) ValidateHandle(sel Selector, ds *dataset.Handle) (*models.Report, error) {
	sp, err := s.Spec(sel)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errors.New("dataset handle is nil")
	}
	return s.runner.Run(sp, ds), nil
}

// ValidateMany validates every source against the same specification,
// running up to the configured parallelism at once. Results are returned
// in the order of sources. Only a selector that does not resolve fails the
// whole call; per-dataset failures are reported in their Result.
func (s *Service) ValidateMany(ctx context.Context, sel Selector, sources []string) ([]Result, error) {
	sp, err := s.Spec(sel)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(sources))
	var g errgroup.Group
	g.SetLimit(s.parallel)
	for i, source := range sources {
		g.Go(func() error {
			results[i].Source = source
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			ds, err := s.open(ctx, source)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Report = s.runner.Run(sp, ds)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Render resolves sel and renders its documentation. No dataset is opened
// and no check is evaluated.
func (s *Service) Render(sel Selector) (*specdoc.Document, error) {
	sp, err := s.Spec(sel)
	if err != nil {
		return nil, err
	}
	return specdoc.Render(sp), nil
}

func (s *Service) open(ctx context.Context, source string) (*dataset.Handle, error) {
	if s.opener == nil {
		return nil, &dataset.OpenError{Source: source, Err: errors.New("no dataset opener configured")}
	}
	ds, err := s.opener.Open(ctx, source)
	if err != nil {
		if errors.Is(err, dataset.ErrOpen) {
			return nil, err
		}
		return nil, &dataset.OpenError{Source: source, Err: err}
	}
	if ds == nil {
		return nil, &dataset.OpenError{Source: source, Err: fmt.Errorf("opener returned no dataset")}
	}
	return ds, nil
}
