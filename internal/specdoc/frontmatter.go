package specdoc

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

const frontMatterDelimiter = "---"

// marshalFrontMatter writes the leading metadata block of a Markdown page.
// It holds the specification identity and nothing else.
func marshalFrontMatter(id models.SpecIdentity) (string, error) {
	data, err := yaml.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("marshaling front matter: %w", err)
	}
	var b strings.Builder
	b.WriteString(frontMatterDelimiter + "\n")
	b.Write(data)
	b.WriteString(frontMatterDelimiter + "\n")
	return b.String(), nil
}

// ParseFrontMatter splits a rendered Markdown page into its front matter
// and body. raw holds every key found, so callers can check the block has
// no extra fields.
func ParseFrontMatter(content string) (id models.SpecIdentity, raw map[string]any, body string, err error) {
	if !strings.HasPrefix(content, frontMatterDelimiter) {
		return id, nil, content, errors.New("page does not start with front matter")
	}

	rest := content[len(frontMatterDelimiter):]
	if strings.HasPrefix(rest, "\r\n") {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}

	idx := strings.Index(rest, "\n"+frontMatterDelimiter)
	if idx < 0 {
		return id, nil, content, errors.New("closing front matter delimiter not found")
	}
	block := rest[:idx+1]
	body = strings.TrimLeft(rest[idx+1+len(frontMatterDelimiter):], "\r\n")

	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return id, nil, content, fmt.Errorf("unmarshalling front matter: %w", err)
	}
	if err := yaml.Unmarshal([]byte(block), &id); err != nil {
		return id, nil, content, fmt.Errorf("unmarshalling front matter: %w", err)
	}
	return id, raw, body, nil
}
