package specdoc

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

const siteTitle = "MLCast dataset specifications"

// PagePath is the site-relative path, without extension, of the page
// documenting the given specification.
func PagePath(id models.SpecIdentity) string {
	return path.Join("specs", id.DataStage, id.Product)
}

// BuildSite writes a static documentation site for specs into outDir: an
// index page plus a Markdown and an HTML page per specification. It
// returns the written files relative to outDir.
func BuildSite(outDir string, specs []*spec.Specification) ([]string, error) {
	var written []string
	write := func(rel string, data []byte) error {
		full := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		written = append(written, rel)
		return nil
	}

	docs := make([]*Document, len(specs))
	for i, s := range specs {
		d := Render(s)
		docs[i] = d

		md, err := Markdown(d)
		if err != nil {
			return written, fmt.Errorf("%s: %w", d.Identity, err)
		}
		if err := write(PagePath(d.Identity)+".md", md); err != nil {
			return written, err
		}
		html, err := HTML(d)
		if err != nil {
			return written, fmt.Errorf("%s: %w", d.Identity, err)
		}
		if err := write(PagePath(d.Identity)+".html", html); err != nil {
			return written, err
		}
	}

	index := Index(docs)
	if err := write("index.md", []byte(index)); err != nil {
		return written, err
	}
	content, err := markdownToHTML(index)
	if err != nil {
		return written, err
	}
	var b strings.Builder
	if err := pageTemplate.Execute(&b, page{Document: &Document{Title: siteTitle}, Content: content}); err != nil {
		return written, fmt.Errorf("rendering index: %w", err)
	}
	if err := write("index.html", []byte(b.String())); err != nil {
		return written, err
	}
	return written, nil
}

// Index renders the catalogue page linking every documented specification.
func Index(docs []*Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", siteTitle)
	if len(docs) == 0 {
		b.WriteString("No specifications are registered.\n")
		return b.String()
	}
	b.WriteString("| Data stage | Product | Version | Title | Checks |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, d := range docs {
		page := PagePath(d.Identity)
		fmt.Fprintf(&b, "| `%s` | `%s` | %s | [%s](%s.md) ([html](%s.html)) | %d |\n",
			d.Identity.DataStage, d.Identity.Product, d.Identity.Version,
			d.Title, page, page, len(d.Checks()))
	}
	return b.String()
}
