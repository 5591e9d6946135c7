package specdoc

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="data-stage" content="{{.Identity.DataStage}}">
<meta name="product" content="{{.Identity.Product}}">
<meta name="version" content="{{.Identity.Version}}">
<title>{{.Title}}</title>
</head>
<body>
<main>
{{.Content}}</main>
</body>
</html>
`))

type page struct {
	*Document
	Content template.HTML
}

// HTML encodes d as a standalone HTML page for the static site.
func HTML(d *Document) ([]byte, error) {
	content, err := markdownToHTML(Body(d))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page{Document: d, Content: content}); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML writes the HTML encoding of d to w.
func WriteHTML(w io.Writer, d *Document) error {
	data, err := HTML(d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func markdownToHTML(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec
}
