// Package wizard asks the user which specification to validate against when
// the command line leaves it open.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// ErrEmptyCatalog is returned when there is nothing to choose from.
var ErrEmptyCatalog = errors.New("no specifications are registered")

// Selection identifies the specification picked by the user. An empty
// Version means the latest registered version.
type Selection struct {
	DataStage string
	Product   string
	Version   string
}

// chooseFunc asks the user to pick one of options.
type chooseFunc func(title, description string, options []string) (string, error)

// IsInteractive reports whether in is a terminal the wizard can prompt on.
func IsInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RunSpecWizard fills in the data stage and product of initial, prompting
// only for fields that are empty and have more than one candidate in
// catalog.
func RunSpecWizard(in io.Reader, out io.Writer, catalog []models.SpecIdentity, initial Selection) (*Selection, error) {
	return resolve(catalog, initial, huhChooser(in, out))
}

func resolve(catalog []models.SpecIdentity, sel Selection, choose chooseFunc) (*Selection, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	if sel.DataStage == "" {
		stage, err := pick(choose, "Data stage", "Processing stage of the dataset", Stages(catalog))
		if err != nil {
			return nil, err
		}
		sel.DataStage = stage
	}

	if sel.Product == "" {
		products := Products(catalog, sel.DataStage)
		if len(products) == 0 {
			return nil, fmt.Errorf("no specifications registered for data stage %q", sel.DataStage)
		}
		product, err := pick(choose, "Product", fmt.Sprintf("Products defined for %s", sel.DataStage), products)
		if err != nil {
			return nil, err
		}
		sel.Product = product
	}

	return &sel, nil
}

// pick returns the only option without prompting.
func pick(choose chooseFunc, title, description string, options []string) (string, error) {
	if len(options) == 1 {
		return options[0], nil
	}
	choice, err := choose(title, description, options)
	if err != nil {
		return "", fmt.Errorf("wizard failed: %w", err)
	}
	if !slices.Contains(options, choice) {
		return "", fmt.Errorf("invalid %s %q", title, choice)
	}
	return choice, nil
}

// Stages returns the distinct data stages in catalog, sorted.
func Stages(catalog []models.SpecIdentity) []string {
	var out []string
	for _, id := range catalog {
		if !slices.Contains(out, id.DataStage) {
			out = append(out, id.DataStage)
		}
	}
	slices.Sort(out)
	return out
}

// Products returns the distinct products registered for stage, sorted.
func Products(catalog []models.SpecIdentity, stage string) []string {
	var out []string
	for _, id := range catalog {
		if id.DataStage == stage && !slices.Contains(out, id.Product) {
			out = append(out, id.Product)
		}
	}
	slices.Sort(out)
	return out
}

func huhChooser(in io.Reader, out io.Writer) chooseFunc {
	return func(title, description string, options []string) (string, error) {
		var choice string
		opts := make([]huh.Option[string], len(options))
		for i, o := range options {
			opts[i] = huh.NewOption(o, o)
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(title).
					Description(description).
					Options(opts...).
					Value(&choice),
			),
		).
			WithInput(in).
			WithOutput(out)

		// Use accessible mode for non-TTY input (e.g., piped input).
		if !IsInteractive(in) {
			form = form.WithAccessible(true)
		}

		if err := form.Run(); err != nil {
			return "", err
		}
		return choice, nil
	}
}
