package checks

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Masterminds/semver/v3"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

const (
	DefaultGitHubOrg         = "mlcast-community"
	DefaultRepositoryPattern = "mlcast-dataset-{organisation_id}-{dataset_name}"
)

var (
	createdByPattern   = mustCompilePattern("{name} <{email}>")
	createdWithPattern = mustCompilePattern("https://github.com/{org}/{repo}@{version}")

	// calverPattern accepts calendar versions such as 2024.1, 2024.01.15 or
	// 24.04.1.
	calverPattern = regexp.MustCompile(`^\d{2,4}\.\d{1,2}(\.\d{1,2})?([.-]?[0-9A-Za-z.]+)?$`)
)

func mustCompilePattern(format string) *namePattern {
	p, err := compilePattern(format)
	if err != nil {
		panic(err)
	}
	return p
}

// globalText returns the trimmed text of a global attribute, or a failure
// result when it is absent.
func globalText(ds *dataset.Handle, attribute, what string) (string, *spec.Result) {
	raw, ok := ds.Attr(attribute)
	if !ok {
		r := spec.Failf("missing required global attribute %q (%s)", attribute, what)
		return "", &r
	}
	s, ok := raw.(string)
	if !ok {
		r := spec.Failf("global attribute %q must be a string, got %T", attribute, raw)
		return "", &r
	}
	return strings.TrimSpace(s), nil
}

// License passes when the attribute names one of the allowed licenses.
// Comparison ignores case and surrounding whitespace.
func License(attribute string, allowed []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		value, fail := globalText(ds, attribute, "license identifier")
		if fail != nil {
			return *fail, nil
		}
		for _, a := range allowed {
			if strings.EqualFold(value, strings.TrimSpace(a)) {
				return spec.Pass(), nil
			}
		}
		return spec.Failf("license %q is not one of %s", value, strings.Join(allowed, ", ")), nil
	}
}

// AttributeISO8601 passes when the attribute is an ISO 8601 date and time.
func AttributeISO8601(attribute string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		value, fail := globalText(ds, attribute, "ISO 8601 datetime")
		if fail != nil {
			return *fail, nil
		}
		if _, err := parseISODatetime(value); err != nil {
			return spec.Failf("value %q of %q is not a valid ISO 8601 datetime string: %v", value, attribute, err), nil
		}
		return spec.Pass(), nil
	}
}

// CreatedBy passes when the attribute reads "Name <email>".
func CreatedBy(attribute string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		value, fail := globalText(ds, attribute, "creator contact in 'Name <email>' format")
		if fail != nil {
			return *fail, nil
		}
		if err := parseCreatedBy(value); err != nil {
			return spec.Failf("creator contact %q is not in 'Name <email>' format: %v", value, err), nil
		}
		return spec.Pass(), nil
	}
}

func parseCreatedBy(value string) error {
	parts, ok := createdByPattern.match(value)
	if !ok {
		return fmt.Errorf("does not match 'Name <email>'")
	}
	name, email := strings.TrimSpace(parts["name"]), strings.TrimSpace(parts["email"])
	switch {
	case name == "":
		return fmt.Errorf("missing name")
	case email == "" || !strings.Contains(email, "@"):
		return fmt.Errorf("missing or invalid email")
	case strings.IndexFunc(email, unicode.IsSpace) >= 0:
		return fmt.Errorf("email contains whitespace")
	}
	return nil
}

// CreatedWith passes when the attribute is a GitHub URL with a version
// suffix, https://github.com/{org}/{repo}@{version}, whose organisation is
// org and whose repository name follows repoPattern. Whether the repository
// and revision exist is not checked.
func CreatedWith(attribute, org, repoPattern string) (spec.Predicate, error) {
	repo, err := compilePattern(repoPattern)
	if err != nil {
		return nil, fmt.Errorf("repository pattern: %w", err)
	}
	return func(ds *dataset.Handle) (spec.Result, error) {
		value, fail := globalText(ds, attribute, "creator software GitHub URL with version, e.g. https://github.com/org/repo@v0.1.0")
		if fail != nil {
			return *fail, nil
		}
		if err := parseCreatedWith(value, org, repo); err != nil {
			return spec.Failf("value %q is not a GitHub URL with an @version suffix: %v", value, err), nil
		}
		return spec.Pass(), nil
	}, nil
}

func parseCreatedWith(value, org string, repoPattern *namePattern) error {
	parts, ok := createdWithPattern.match(value)
	if !ok {
		return fmt.Errorf("does not match https://github.com/{org}/{repo}@{version}")
	}
	gotOrg := strings.TrimSpace(parts["org"])
	gotRepo := strings.TrimSpace(parts["repo"])
	version := strings.TrimSpace(parts["version"])
	if gotOrg == "" || gotRepo == "" || version == "" {
		return fmt.Errorf("missing org, repo, or version")
	}
	for _, p := range []string{gotOrg, gotRepo, version} {
		if strings.IndexFunc(p, unicode.IsSpace) >= 0 {
			return fmt.Errorf("contains whitespace in org/repo/version")
		}
	}
	if org != "" && gotOrg != org {
		return fmt.Errorf("GitHub organisation must be %q", org)
	}
	if _, ok := repoPattern.match(gotRepo); !ok {
		return fmt.Errorf("repository must follow %q", repoPattern.source)
	}
	return nil
}

// VersionString passes when the attribute is a semantic or calendar version.
func VersionString(attribute string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		value, fail := globalText(ds, attribute, "dataset specification version, semver or calver")
		if fail != nil {
			return *fail, nil
		}
		if !isVersion(value) {
			return spec.Failf("version %q is not valid semver or calver", value), nil
		}
		return spec.Pass(), nil
	}
}

func isVersion(s string) bool {
	if _, err := semver.NewVersion(s); err == nil {
		return true
	}
	return calverPattern.MatchString(s)
}

var isoDatetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15",
	"20060102T150405.999999999Z0700",
	"20060102T150405Z0700",
	"20060102T150405",
	"20060102T1504Z0700",
	"20060102T1504",
}

// parseISODatetime parses an ISO 8601 combined date and time in extended or
// basic format. A missing zone means UTC.
func parseISODatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "T") {
		return time.Time{}, fmt.Errorf("ISO 8601 time designator 'T' missing")
	}
	for _, layout := range isoDatetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised ISO 8601 datetime %q", s)
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp is parseISODatetime that also accepts a space between date
// and time, or a date alone.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := parseISODatetime(s); err == nil {
		return t, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
