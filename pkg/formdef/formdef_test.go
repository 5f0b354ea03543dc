package formdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
destination_id: th
form_version: "2024.2"
start_url: https://arrival.example.gov/start
steps:
  - step_id: personal
    fields:
      - key: surname
        locator: {strategy: by_id, value: familyName}
        control_type: text
        profile_key: surname
        transform: upper
      - key: nationality
        locator: {strategy: by_label_text, value: "Nationality*"}
        control_type: searchable_select
        profile_key: nationality
    continuation_trigger: {strategy: by_id, value: btnNext}
    next_step_marker: {strategy: by_id, value: tripSection}
    validation_error_marker: {strategy: by_attribute, value: "alert", attribute: role}
  - step_id: trip
    fields:
      - key: province
        locator: {strategy: by_id, value: province}
        control_type: select
        profile_key: province
      - key: district
        locator: {strategy: by_id, value: district}
        control_type: cascading_child
        profile_key: district
        depends_on: province
    continuation_trigger: {strategy: by_id, value: btnNext}
    next_step_marker: {strategy: by_id, value: reviewSection}
  - step_id: review
    fields: []
    is_terminal: true
`

func TestParse_ValidDefinition(t *testing.T) {
	def, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "th", def.DestinationID)
	require.Len(t, def.Steps, 3)
	assert.True(t, def.Steps[2].IsTerminal)

	district := def.Steps[1].FieldByKey("district")
	require.NotNil(t, district)
	assert.Equal(t, "province", district.DependsOn)
	assert.Equal(t, ControlCascadingChild, district.ControlType)
}

func TestParse_RejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("steps: [nonsense"))
	require.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *FormDefinition {
		def, err := Parse([]byte(sampleYAML))
		require.NoError(t, err)
		return def
	}

	t.Run("missing destination", func(t *testing.T) {
		def := base()
		def.DestinationID = ""
		assert.ErrorContains(t, def.Validate(), "destination_id")
	})

	t.Run("duplicate step id", func(t *testing.T) {
		def := base()
		def.Steps[1].StepID = "personal"
		assert.ErrorContains(t, def.Validate(), "duplicate step_id")
	})

	t.Run("duplicate field key", func(t *testing.T) {
		def := base()
		def.Steps[0].Fields[1].Key = "surname"
		assert.ErrorContains(t, def.Validate(), "duplicate field key")
	})

	t.Run("unknown control type", func(t *testing.T) {
		def := base()
		def.Steps[0].Fields[0].ControlType = "checkbox"
		assert.ErrorContains(t, def.Validate(), "unknown control_type")
	})

	t.Run("dangling dependency", func(t *testing.T) {
		def := base()
		def.Steps[1].Fields[1].DependsOn = "country"
		assert.ErrorContains(t, def.Validate(), "unknown field")
	})

	t.Run("self dependency", func(t *testing.T) {
		def := base()
		def.Steps[1].Fields[1].DependsOn = "district"
		assert.ErrorContains(t, def.Validate(), "depends on itself")
	})

	t.Run("dependency cycle", func(t *testing.T) {
		def := base()
		def.Steps[1].Fields[0].DependsOn = "district"
		assert.ErrorContains(t, def.Validate(), "cycle")
	})

	t.Run("cascading without depends_on", func(t *testing.T) {
		def := base()
		def.Steps[1].Fields[1].DependsOn = ""
		assert.ErrorContains(t, def.Validate(), "requires depends_on")
	})

	t.Run("missing continuation trigger", func(t *testing.T) {
		def := base()
		def.Steps[0].ContinuationTrigger = Locator{}
		assert.ErrorContains(t, def.Validate(), "continuation_trigger")
	})

	t.Run("non-final terminal step", func(t *testing.T) {
		def := base()
		def.Steps[0].IsTerminal = true
		assert.ErrorContains(t, def.Validate(), "terminal")
	})

	t.Run("by_attribute without attribute", func(t *testing.T) {
		def := base()
		def.Steps[0].Fields[0].Locator = Locator{Strategy: MatchByAttribute, Value: "x"}
		assert.ErrorContains(t, def.Validate(), "attribute")
	})
}
