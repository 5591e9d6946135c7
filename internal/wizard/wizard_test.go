package wizard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

var testCatalog = []models.SpecIdentity{
	{DataStage: "source_data", Product: "radar_precipitation", Version: "0.1.0"},
	{DataStage: "source_data", Product: "radar_precipitation", Version: "0.2.0"},
	{DataStage: "source_data", Product: "satellite_cloud_mask", Version: "0.1.0"},
	{DataStage: "training_data", Product: "radar_precipitation", Version: "0.1.0"},
}

type recordedPrompt struct {
	title   string
	options []string
}

func scripted(t *testing.T, answers ...string) (chooseFunc, *[]recordedPrompt) {
	t.Helper()
	var prompts []recordedPrompt
	return func(title, _ string, options []string) (string, error) {
		prompts = append(prompts, recordedPrompt{title: title, options: options})
		if len(answers) == 0 {
			return "", errors.New("unexpected end of input")
		}
		answer := answers[0]
		answers = answers[1:]
		return answer, nil
	}, &prompts
}

func TestStagesAndProducts(t *testing.T) {
	assert.Equal(t, []string{"source_data", "training_data"}, Stages(testCatalog))
	assert.Equal(t, []string{"radar_precipitation", "satellite_cloud_mask"}, Products(testCatalog, "source_data"))
	assert.Equal(t, []string{"radar_precipitation"}, Products(testCatalog, "training_data"))
	assert.Empty(t, Products(testCatalog, "forecasts"))
}

func TestResolve_PromptsForMissingFields(t *testing.T) {
	choose, prompts := scripted(t, "source_data", "satellite_cloud_mask")

	sel, err := resolve(testCatalog, Selection{}, choose)
	require.NoError(t, err)

	assert.Equal(t, &Selection{DataStage: "source_data", Product: "satellite_cloud_mask"}, sel)
	require.Len(t, *prompts, 2)
	assert.Equal(t, "Data stage", (*prompts)[0].title)
	assert.Equal(t, []string{"radar_precipitation", "satellite_cloud_mask"}, (*prompts)[1].options)
}

func TestResolve_SkipsSingleOption(t *testing.T) {
	choose, prompts := scripted(t, "training_data")

	sel, err := resolve(testCatalog, Selection{Version: "~0.1"}, choose)
	require.NoError(t, err)

	assert.Equal(t, &Selection{DataStage: "training_data", Product: "radar_precipitation", Version: "~0.1"}, sel)
	assert.Len(t, *prompts, 1)
}

func TestResolve_KeepsGivenFields(t *testing.T) {
	choose, prompts := scripted(t)

	initial := Selection{DataStage: "source_data", Product: "radar_precipitation", Version: "0.1.0"}
	sel, err := resolve(testCatalog, initial, choose)
	require.NoError(t, err)

	assert.Equal(t, &initial, sel)
	assert.Empty(t, *prompts)
}

func TestResolve_Errors(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		choose, _ := scripted(t)
		_, err := resolve(nil, Selection{}, choose)
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("unknown stage", func(t *testing.T) {
		choose, _ := scripted(t)
		_, err := resolve(testCatalog, Selection{DataStage: "forecasts"}, choose)
		assert.EqualError(t, err, `no specifications registered for data stage "forecasts"`)
	})

	t.Run("invalid choice", func(t *testing.T) {
		choose, _ := scripted(t, "level_3")
		_, err := resolve(testCatalog, Selection{}, choose)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid Data stage "level_3"`)
	})

	t.Run("prompt failure", func(t *testing.T) {
		choose, _ := scripted(t)
		_, err := resolve(testCatalog, Selection{}, choose)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wizard failed: unexpected end of input")
	})
}

func TestRunSpecWizard_NoPromptNeeded(t *testing.T) {
	catalog := testCatalog[:2]
	var out strings.Builder

	sel, err := RunSpecWizard(strings.NewReader(""), &out, catalog, Selection{})
	require.NoError(t, err)

	assert.Equal(t, "source_data", sel.DataStage)
	assert.Equal(t, "radar_precipitation", sel.Product)
	assert.Empty(t, out.String())
}

func TestIsInteractive(t *testing.T) {
	assert.False(t, IsInteractive(strings.NewReader("")))
}
