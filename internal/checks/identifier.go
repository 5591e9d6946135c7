package checks

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

const (
	DatasetIdentifierAttribute       = "mlcast_dataset_identifier"
	DatasetIdentifierFormatAttribute = "mlcast_dataset_identifier_format"
	DefaultIdentifierFormat          = "{country_code}-{entity}-{physical_variable}"
)

// identifierParts validates each part an identifier format may use.
var identifierParts = map[string]func(string) error{
	"country_code":      validateCountryCode,
	"entity":            validateToken,
	"physical_variable": validateToken,
	"time_resolution":   validateISODuration,
	"common_name":       validateToken,
}

var requiredIdentifierParts = []string{"country_code", "entity", "physical_variable"}

// IdentifierFormat passes when the optional custom identifier format in
// attribute is absent or is a valid extension of defaultFormat.
func IdentifierFormat(attribute, defaultFormat string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		raw, ok := ds.Attr(attribute)
		if !ok {
			return spec.Pass(), nil
		}
		format, ok := raw.(string)
		if !ok {
			return spec.Failf("%q must be a string, got %T", attribute, raw), nil
		}
		if _, err := validateIdentifierFormat(format, defaultFormat); err != nil {
			return spec.Failf("dataset identifier format is invalid: %v", err), nil
		}
		return spec.Pass(), nil
	}
}

// DatasetIdentifier passes when attribute parses with the effective
// identifier format (formatAttribute when set, defaultFormat otherwise) and
// every part is valid.
func DatasetIdentifier(attribute, formatAttribute, defaultFormat string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		value, fail := globalText(ds, attribute, "dataset identifier")
		if fail != nil {
			return *fail, nil
		}
		format := defaultFormat
		if raw, ok := ds.Attr(formatAttribute); ok {
			custom, _ := raw.(string)
			if _, err := validateIdentifierFormat(custom, defaultFormat); err != nil {
				return spec.Fail("cannot validate dataset identifier because the format is invalid"), nil
			}
			format = strings.TrimSpace(custom)
		}
		if err := parseDatasetIdentifier(value, format); err != nil {
			return spec.Failf("dataset identifier %q is invalid: %v", value, err), nil
		}
		return spec.Pass(), nil
	}
}

// validateIdentifierFormat checks a custom identifier format and returns its
// parts in order.
func validateIdentifierFormat(format, defaultFormat string) ([]string, error) {
	trimmed := strings.TrimSpace(format)
	if trimmed == "" {
		return nil, fmt.Errorf("format string cannot be empty")
	}
	if !strings.HasPrefix(trimmed, defaultFormat) {
		return nil, fmt.Errorf("format must start with %q", defaultFormat)
	}
	fields, err := patternFields(trimmed)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, p := range requiredIdentifierParts {
		if !slices.Contains(fields, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("format missing required parts: %s", strings.Join(missing, ", "))
	}
	var unknown, duplicates []string
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[f]++
		if _, ok := identifierParts[f]; !ok && !slices.Contains(unknown, f) {
			unknown = append(unknown, f)
		}
		if counts[f] == 2 {
			duplicates = append(duplicates, f)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, fmt.Errorf("format contains unsupported parts: %s", strings.Join(unknown, ", "))
	}
	if len(duplicates) > 0 {
		slices.Sort(duplicates)
		return nil, fmt.Errorf("format contains duplicate parts: %s", strings.Join(duplicates, ", "))
	}
	return fields, nil
}

func parseDatasetIdentifier(value, format string) error {
	p, err := compilePattern(format)
	if err != nil {
		return fmt.Errorf("could not compile format: %w", err)
	}
	parts, ok := p.match(strings.TrimSpace(value))
	if !ok {
		return fmt.Errorf("does not match dataset identifier format %q", format)
	}
	for _, name := range p.fields {
		validate, ok := identifierParts[name]
		if !ok {
			continue
		}
		if err := validate(strings.TrimSpace(parts[name])); err != nil {
			return fmt.Errorf("%s %v", name, err)
		}
	}
	return nil
}

func validateCountryCode(s string) error {
	if len(s) != 2 {
		return fmt.Errorf("country code must be 2 uppercase letters")
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || !unicode.IsUpper(r) {
			return fmt.Errorf("country code must use uppercase alphabetic characters")
		}
	}
	return nil
}

// validateToken accepts a non-empty run of letters, digits and underscores
// that does not start or end with an underscore. Hyphens separate parts.
func validateToken(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("identifier token is empty")
	case strings.IndexFunc(s, unicode.IsSpace) >= 0:
		return fmt.Errorf("identifier token contains whitespace: %q", s)
	case s[0] == '_' || s[len(s)-1] == '_':
		return fmt.Errorf("identifier token cannot start/end with '_': %q", s)
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("identifier token contains invalid characters: %q", s)
		}
	}
	return nil
}

var isoDurationPattern = regexp.MustCompile(
	`^[+-]?P(?:(\d+(?:[.,]\d+)?)Y)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)W)?(?:(\d+(?:[.,]\d+)?)D)?` +
		`(T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

// validateISODuration accepts ISO 8601 durations such as PT5M, P1D or
// P1DT12H.
func validateISODuration(s string) error {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("unable to parse duration string %q", s)
	}
	if m[5] == "T" || strings.Trim(s, "+-") == "P" {
		return fmt.Errorf("unable to parse duration string %q", s)
	}
	return nil
}
