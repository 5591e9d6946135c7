package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/specs"
)

type catalogEntry struct {
	DataStage string   `json:"data_stage"`
	Product   string   `json:"product"`
	Title     string   `json:"title"`
	Versions  []string `json:"versions"`
}

func newListCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered specifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := catalogEntries(specs.Default())
			switch format {
			case "text":
				writeCatalogTable(cmd.OutOrStdout(), entries)
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			default:
				return fmt.Errorf("unknown list format %q (expected text or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text | json")
	return cmd
}

func catalogEntries(r *specs.Registry) []catalogEntry {
	latest := r.Latest()
	entries := make([]catalogEntry, len(latest))
	for i, s := range latest {
		id := s.Identity()
		entries[i] = catalogEntry{
			DataStage: id.DataStage,
			Product:   id.Product,
			Title:     s.Title(),
			Versions:  r.Versions(id.DataStage, id.Product),
		}
	}
	return entries
}

func writeCatalogTable(w io.Writer, entries []catalogEntry) {
	header := []string{"DATA STAGE", "PRODUCT", "VERSIONS", "TITLE"}
	rows := [][]string{header}
	for _, e := range entries {
		rows = append(rows, []string{e.DataStage, e.Product, strings.Join(e.Versions, ", "), e.Title})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " ")) //nolint:errcheck
	}
}
