package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/orchestration"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specdoc"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/specs"
)

func newSpecCommand() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "spec <data-stage> <product> [version]",
		Short: "Render a specification as documentation",
		Long: `Render a specification as Markdown or HTML without opening any dataset.

The Markdown page starts with YAML front matter holding the data stage,
product and version, and lists every check with its description.`,
		Example: `  mlcast spec source_data radar_precipitation
  mlcast spec source_data radar_precipitation 0.1.0 --format html -o radar.html`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := orchestration.Selector{DataStage: args[0], Product: args[1]}
			if len(args) == 3 {
				sel.Version = args[2]
			}

			svc := orchestration.NewService(specs.Default(), nil)
			doc, err := svc.Render(sel)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "markdown", "md":
				data, err = specdoc.Markdown(doc)
			case "html":
				data, err = specdoc.HTML(doc)
			default:
				return fmt.Errorf("unknown spec format %q (expected markdown or html)", format)
			}
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Specification written to %s\n", output) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown | html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
