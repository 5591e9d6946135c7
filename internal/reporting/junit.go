package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one validated dataset.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a check that found a non-compliance.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a check that could not run to completion.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a check as skipped.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts reports to JUnit XML, one suite per dataset and
// one test case per check.
func ConvertToJUnit(reports []*models.Report) *JUnitTestSuites {
	suites := &JUnitTestSuites{}
	for _, r := range reports {
		suite := convertReport(r)
		suites.Tests += suite.Tests
		suites.Failures += suite.Failures
		suites.Errors += suite.Errors
		suites.Skipped += suite.Skipped
		suites.TestSuites = append(suites.TestSuites, suite)
	}
	return suites
}

func convertReport(r *models.Report) JUnitTestSuite {
	counts := r.Counts()
	suite := JUnitTestSuite{
		Name:      r.Dataset,
		Failures:  counts[models.VerdictFail],
		Errors:    counts[models.VerdictError],
		Skipped:   counts[models.VerdictSkipped],
		Timestamp: r.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "data_stage", Value: r.Spec.DataStage},
			{Name: "product", Value: r.Spec.Product},
			{Name: "version", Value: r.Spec.Version},
			{Name: "verdict", Value: string(r.Verdict())},
		},
	}

	for _, row := range r.LeafRows() {
		suite.TestCases = append(suite.TestCases, convertRow(r.Spec, row))
	}
	suite.Tests = len(suite.TestCases)
	return suite
}

func convertRow(id models.SpecIdentity, row models.Row) JUnitTestCase {
	classname := id.DataStage + "." + id.Product
	if group := parentPath(row.Path); group != "" {
		classname += "." + group
	}

	tc := JUnitTestCase{
		Name:      row.Path,
		Classname: classname,
	}

	switch row.Verdict {
	case models.VerdictFail:
		tc.Failure = &JUnitFailure{
			Message: row.Message,
			Type:    "CheckFailure",
			Body:    fmt.Sprintf("%s: %s", row.Title, row.Message),
		}
	case models.VerdictError:
		tc.Error = &JUnitError{
			Message: row.Message,
			Type:    "CheckError",
			Body:    fmt.Sprintf("%s: %s", row.Title, row.Message),
		}
	case models.VerdictSkipped:
		tc.Skipped = &JUnitSkipped{Message: row.Message}
	}

	return tc
}

// WriteJUnitXML writes the JUnit XML encoding of reports to w.
func WriteJUnitXML(w io.Writer, reports []*models.Report) error {
	suites := ConvertToJUnit(reports)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	output = append(output, '\n')
	_, err = w.Write(output)
	return err
}
