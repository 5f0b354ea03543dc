// Package formdef defines the declarative form tables that describe how to
// locate, resolve, and fill the controls of a destination's arrival form.
// Tables are data, versioned per target form; new form layouts only require
// new configuration, not new code paths.
package formdef

// MatchStrategy selects how a locator is evaluated against the live
// control snapshot.
type MatchStrategy string

const (
	// MatchByID matches the control's DOM id.
	MatchByID MatchStrategy = "by_id"

	// MatchByLabelText matches the control's associated label text.
	// Glob patterns are supported (e.g. "Family name*").
	MatchByLabelText MatchStrategy = "by_label_text"

	// MatchByPlaceholder matches the control's placeholder text.
	MatchByPlaceholder MatchStrategy = "by_placeholder"

	// MatchByAttribute matches an arbitrary attribute name/value pair.
	MatchByAttribute MatchStrategy = "by_attribute"
)

// ControlType tags the fill procedure a field requires.
type ControlType string

const (
	ControlText             ControlType = "text"
	ControlSelect           ControlType = "select"
	ControlSearchableSelect ControlType = "searchable_select"
	ControlRadio            ControlType = "radio"
	ControlCascadingChild   ControlType = "cascading_child"
)

// Locator describes how to find one control or page marker.
type Locator struct {
	// Strategy selects the match strategy.
	Strategy MatchStrategy `yaml:"strategy"`

	// Value is the id, label text pattern, placeholder text, or attribute
	// value to match, depending on Strategy.
	Value string `yaml:"value"`

	// Attribute is the attribute name for MatchByAttribute.
	Attribute string `yaml:"attribute,omitempty"`
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Strategy == "" && l.Value == ""
}

// FieldDescriptor declaratively describes one form field: how to locate it,
// which profile key resolves its value, and how it is filled.
type FieldDescriptor struct {
	// Key uniquely identifies the field within its step.
	Key string `yaml:"key"`

	// Locator finds the control in the live snapshot.
	Locator Locator `yaml:"locator"`

	// ControlType selects the fill procedure.
	ControlType ControlType `yaml:"control_type"`

	// ProfileKey names the traveler profile entry that supplies the value.
	ProfileKey string `yaml:"profile_key"`

	// Transform is an optional value normalization rule
	// ("upper", "lower", "trim", "date:<layout>").
	Transform string `yaml:"transform,omitempty"`

	// DependsOn names a field in the same step that must be filled first.
	// Required for cascading_child controls.
	DependsOn string `yaml:"depends_on,omitempty"`

	// Optional controls the policy for missing or empty profile values:
	// optional fields are skipped silently, required fields fail the step.
	Optional bool `yaml:"optional,omitempty"`

	// ChildControl selects how an unblocked cascading_child behaves
	// (select or searchable_select). Defaults to select.
	ChildControl ControlType `yaml:"child_control,omitempty"`
}

// StepDefinition is one page/stage of a multi-step form.
type StepDefinition struct {
	// StepID uniquely identifies the step within the form.
	StepID string `yaml:"step_id"`

	// Fields are the controls to fill on this step, in declaration order.
	// Independent fields carry no required relative order.
	Fields []FieldDescriptor `yaml:"fields"`

	// ContinuationTrigger locates the control that advances to the next
	// step. Unused on terminal steps.
	ContinuationTrigger Locator `yaml:"continuation_trigger,omitempty"`

	// NextStepMarker locates an element whose appearance confirms the next
	// step has rendered. Unused on terminal steps.
	NextStepMarker Locator `yaml:"next_step_marker,omitempty"`

	// ValidationErrorMarker locates the form's validation-error indicator.
	ValidationErrorMarker Locator `yaml:"validation_error_marker,omitempty"`

	// IsTerminal marks the final review/submit step. Automation pauses
	// here; the final submission stays a user action.
	IsTerminal bool `yaml:"is_terminal,omitempty"`
}

// FormDefinition is the complete table for one destination's form version.
type FormDefinition struct {
	// DestinationID identifies the destination country/authority.
	DestinationID string `yaml:"destination_id"`

	// FormVersion versions the table against the target form's layout.
	FormVersion string `yaml:"form_version"`

	// StartURL is the entry page of the target form.
	StartURL string `yaml:"start_url,omitempty"`

	// Steps are the ordered stages of the form.
	Steps []StepDefinition `yaml:"steps"`
}

// Step returns the step at the given index, or nil when out of range.
func (f *FormDefinition) Step(index int) *StepDefinition {
	if index < 0 || index >= len(f.Steps) {
		return nil
	}
	return &f.Steps[index]
}

// FieldByKey returns the field with the given key in a step, or nil.
func (s *StepDefinition) FieldByKey(key string) *FieldDescriptor {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i]
		}
	}
	return nil
}
