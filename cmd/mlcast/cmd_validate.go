package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/orchestration"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/projectconfig"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/reporting"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specs"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spinner"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/wizard"
)

// newOpener builds the dataset opener used by validate.
var newOpener = func(opts dataset.OpenOptions) orchestration.Opener {
	return dataset.Loader{Options: opts}
}

type validateOptions struct {
	dataStage string
	product   string
	version   string

	format string
	output string
	only   []string

	parallel int

	endpointURL  string
	anonymous    bool
	region       string
	azureAccount string

	cacheDir string
	noCache  bool
}

func newValidateCommand() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <dataset>...",
		Short: "Validate datasets against a specification",
		Long: `Validate one or more Zarr datasets against an MLCast specification.

Datasets may be local paths or file://, s3://, az:// or gs:// URIs. Every
dataset is checked against the same specification; datasets are validated
concurrently and reports are written in argument order.

Exit status is 0 when every dataset passes, 1 when any check failed or
errored, and 2 when the specification could not be found or a dataset
could not be opened.

When --data-stage or --product is omitted and stdin is a terminal, you are
asked to choose from the registered specifications.`,
		Example: `  mlcast validate --data-stage source_data --product radar_precipitation ./radar.zarr
  mlcast validate --data-stage source_data --product radar_precipitation --version 0.1.0 \
    --anonymous --endpoint-url https://object-store.example.org s3://mlcast/radar.zarr
  mlcast validate --format junit --output report.xml a.zarr b.zarr`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataStage, "data-stage", "", "Data stage of the specification (e.g. source_data)")
	f.StringVar(&opts.product, "product", "", "Product of the specification (e.g. radar_precipitation)")
	f.StringVar(&opts.version, "version", "", "Specification version or constraint (default: latest)")
	f.StringVar(&opts.format, "format", projectconfig.DefaultOutputFormat, fmt.Sprintf("Report format: %v", reporting.Formats()))
	f.StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	f.StringArrayVar(&opts.only, "only", nil, "Only display checks matching this glob pattern (can be repeated)")
	f.IntVar(&opts.parallel, "parallel", projectconfig.DefaultParallel, "Number of datasets validated concurrently")
	f.StringVar(&opts.endpointURL, "endpoint-url", "", "Object storage endpoint URL")
	f.BoolVar(&opts.anonymous, "anonymous", false, "Access object storage without credentials")
	f.StringVar(&opts.region, "region", "", "Object storage region")
	f.StringVar(&opts.azureAccount, "azure-account", "", "Azure storage account for az:// datasets")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "Cache remote objects in this directory")
	f.BoolVar(&opts.noCache, "no-cache", false, "Disable the remote object cache")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *validateOptions, sources []string) error {
	cfg, err := projectconfig.Load(configDir)
	if err != nil {
		return err
	}

	format, err := reporting.ParseFormat(stringSetting(cmd, "format", opts.format, cfg.Output.Format))
	if err != nil {
		return err
	}

	parallel := cfg.Validate.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = opts.parallel
	}
	if parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", parallel)
	}

	sel, err := selectSpec(cmd, orchestration.Selector{
		DataStage: stringSetting(cmd, "data-stage", opts.dataStage, cfg.Validate.DataStage),
		Product:   stringSetting(cmd, "product", opts.product, cfg.Validate.Product),
		Version:   stringSetting(cmd, "version", opts.version, cfg.Validate.Version),
	})
	if err != nil {
		return err
	}

	openOpts := dataset.OpenOptions{
		EndpointURL:  stringSetting(cmd, "endpoint-url", opts.endpointURL, cfg.Storage.EndpointURL),
		Region:       stringSetting(cmd, "region", opts.region, cfg.Storage.Region),
		AzureAccount: stringSetting(cmd, "azure-account", opts.azureAccount, cfg.Storage.AzureAccount),
		Anonymous:    cfg.Storage.Anonymous != nil && *cfg.Storage.Anonymous,
		CacheDir:     stringSetting(cmd, "cache-dir", opts.cacheDir, cfg.CacheDir()),
	}
	if cmd.Flags().Changed("anonymous") {
		openOpts.Anonymous = opts.anonymous
	}
	if opts.noCache {
		openOpts.CacheDir = ""
	}

	runner := orchestration.NewRunner()
	stopProgress := func() {}
	if errOut := cmd.ErrOrStderr(); isTerminal(errOut) {
		s := spinner.Start(errOut, fmt.Sprintf("Validating against %s", sel))
		defer s.Stop()
		stopProgress = s.Stop
		runner.OnProgress(func(e orchestration.ProgressEvent) {
			if e.EventType == orchestration.EventCheckComplete {
				s.Update(fmt.Sprintf("%s: %d/%d checks", e.Dataset, e.CheckNum, e.TotalChecks))
			}
		})
	}

	svc := orchestration.NewService(specs.Default(), newOpener(openOpts),
		orchestration.WithRunner(runner),
		orchestration.WithParallel(parallel),
	)
	results, err := svc.ValidateMany(cmd.Context(), sel, sources)
	stopProgress()
	if err != nil {
		return err
	}

	var reports []*models.Report
	var openErrs []error
	for _, r := range results {
		if r.Err != nil {
			openErrs = append(openErrs, r.Err)
			continue
		}
		reports = append(reports, r.Report)
	}

	if len(reports) > 0 {
		outputPath := stringSetting(cmd, "output", opts.output, cfg.Output.Path)
		if err := writeReports(cmd.OutOrStdout(), outputPath, format, reports, reporting.Options{Only: opts.only}); err != nil {
			return err
		}
	}

	if len(openErrs) > 0 {
		return errors.Join(openErrs...)
	}
	if !reporting.AllPassed(reports) {
		failed := 0
		for _, r := range reports {
			if !r.OverallPassed() {
				failed++
			}
		}
		return &ValidationFailedError{
			Message: fmt.Sprintf("%d of %d datasets did not pass %s", failed, len(reports), sel),
		}
	}
	return nil
}

// selectSpec fills in a missing data stage or product, asking the user when
// stdin is a terminal.
func selectSpec(cmd *cobra.Command, sel orchestration.Selector) (orchestration.Selector, error) {
	if sel.DataStage != "" && sel.Product != "" {
		return sel, nil
	}
	in := cmd.InOrStdin()
	if !wizard.IsInteractive(in) {
		return sel, errors.New("--data-stage and --product are required when stdin is not a terminal")
	}
	chosen, err := wizard.RunSpecWizard(in, cmd.ErrOrStderr(), specs.Catalog(), wizard.Selection{
		DataStage: sel.DataStage,
		Product:   sel.Product,
		Version:   sel.Version,
	})
	if err != nil {
		return sel, err
	}
	return orchestration.Selector{DataStage: chosen.DataStage, Product: chosen.Product, Version: chosen.Version}, nil
}

func writeReports(stdout io.Writer, path string, format reporting.Format, reports []*models.Report, opts reporting.Options) error {
	if path == "" {
		return reporting.Write(stdout, format, reports, opts)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := reporting.Write(f, format, reports, opts); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Fprintf(stdout, "Report written to %s\n", path) //nolint:errcheck
	return nil
}
