package reporting

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

func TestConvertToJUnit(t *testing.T) {
	suites := ConvertToJUnit([]*models.Report{newTestReport(), newPassingReport()})

	assert.Equal(t, 7, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)
	require.Len(t, suites.TestSuites, 2)

	suite := suites.TestSuites[0]
	assert.Equal(t, "s3://bucket/radar.zarr", suite.Name)
	assert.Equal(t, 6, suite.Tests)
	assert.Equal(t, "2025-06-15T12:00:00Z", suite.Timestamp)
	assert.Contains(t, suite.Properties, JUnitProperty{Name: "product", Value: "radar_precipitation"})
	assert.Contains(t, suite.Properties, JUnitProperty{Name: "verdict", Value: "FAIL"})

	require.Len(t, suite.TestCases, 6)
	assert.Equal(t, "coordinates.time", suite.TestCases[0].Name)
	assert.Equal(t, "source_data.radar_precipitation.coordinates", suite.TestCases[0].Classname)
	assert.Nil(t, suite.TestCases[0].Failure)

	missing := suite.TestCases[3]
	require.NotNil(t, missing.Failure)
	assert.Equal(t, "CheckFailure", missing.Failure.Type)
	assert.Contains(t, missing.Failure.Message, "2021-05-15T00:00:00Z")

	require.NotNil(t, suite.TestCases[4].Skipped)
	assert.Equal(t, "prerequisite temporal.ordering did not pass", suite.TestCases[4].Skipped.Message)

	crs := suite.TestCases[5]
	assert.Equal(t, "source_data.radar_precipitation", crs.Classname)
	require.NotNil(t, crs.Error)
	assert.Equal(t, "CheckError", crs.Error.Type)
}

func TestWriteJUnitXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnitXML(&buf, []*models.Report{newTestReport()}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `<testsuites tests="6" failures="1" errors="1" skipped="1">`)

	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed.TestSuites, 1)
	assert.Len(t, parsed.TestSuites[0].TestCases, 6)
}

func TestConvertToJUnit_Empty(t *testing.T) {
	suites := ConvertToJUnit(nil)
	assert.Zero(t, suites.Tests)
	assert.Empty(t, suites.TestSuites)
}
