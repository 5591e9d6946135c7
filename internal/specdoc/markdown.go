package specdoc

import (
	"fmt"
	"io"
	"strings"
)

// Markdown encodes d as a Markdown page with a YAML front matter block
// identifying the specification.
func Markdown(d *Document) ([]byte, error) {
	fm, err := marshalFrontMatter(d.Identity)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(fm)
	b.WriteString("\n")
	writeBody(&b, d)
	return []byte(b.String()), nil
}

// WriteMarkdown writes the Markdown encoding of d to w.
func WriteMarkdown(w io.Writer, d *Document) error {
	data, err := Markdown(d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Body returns the Markdown page body without front matter.
func Body(d *Document) string {
	var b strings.Builder
	writeBody(&b, d)
	return b.String()
}

func writeBody(b *strings.Builder, d *Document) {
	fmt.Fprintf(b, "# %s\n\n", d.Title)
	if d.Description != "" {
		b.WriteString(strings.TrimSpace(d.Description) + "\n\n")
	}
	fmt.Fprintf(b, "- Data stage: `%s`\n", d.Identity.DataStage)
	fmt.Fprintf(b, "- Product: `%s`\n", d.Identity.Product)
	fmt.Fprintf(b, "- Version: `%s`\n\n", d.Identity.Version)

	if d.LicenseNotes != "" {
		b.WriteString("## License notes\n\n")
		b.WriteString(strings.TrimSpace(d.LicenseNotes) + "\n\n")
	}

	for _, s := range d.Sections {
		writeSection(b, s, 2)
	}

	if len(d.References) > 0 {
		b.WriteString("## References\n\n")
		for _, r := range d.References {
			fmt.Fprintf(b, "- <%s>\n", r)
		}
		b.WriteString("\n")
	}
}

func writeSection(b *strings.Builder, s *Section, level int) {
	fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", min(level, 6)), s.Title)

	if s.Leaf {
		fmt.Fprintf(b, "Check `%s`", s.Path)
		if s.Kind != "" {
			fmt.Fprintf(b, " (`%s`)", s.Kind)
		}
		b.WriteString("\n\n")
	}
	if s.Description != "" {
		b.WriteString(strings.TrimSpace(s.Description) + "\n\n")
	}
	if len(s.Requires) > 0 {
		quoted := make([]string, len(s.Requires))
		for i, r := range s.Requires {
			quoted[i] = "`" + r + "`"
		}
		fmt.Fprintf(b, "Requires: %s\n\n", strings.Join(quoted, ", "))
	}

	for _, child := range s.Sections {
		writeSection(b, child, level+1)
	}
}
