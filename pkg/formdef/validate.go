package formdef

import "fmt"

var validStrategies = map[MatchStrategy]bool{
	MatchByID:          true,
	MatchByLabelText:   true,
	MatchByPlaceholder: true,
	MatchByAttribute:   true,
}

var validControls = map[ControlType]bool{
	ControlText:             true,
	ControlSelect:           true,
	ControlSearchableSelect: true,
	ControlRadio:            true,
	ControlCascadingChild:   true,
}

// Validate checks the table for structural errors: unknown tags, duplicate
// keys, dangling or cyclic dependencies, and missing navigation locators.
func (f *FormDefinition) Validate() error {
	if f.DestinationID == "" {
		return fmt.Errorf("form definition: destination_id is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("form definition %q: at least one step is required", f.DestinationID)
	}

	stepIDs := make(map[string]bool, len(f.Steps))
	for i := range f.Steps {
		step := &f.Steps[i]
		if step.StepID == "" {
			return fmt.Errorf("form definition %q: step %d has no step_id", f.DestinationID, i)
		}
		if stepIDs[step.StepID] {
			return fmt.Errorf("form definition %q: duplicate step_id %q", f.DestinationID, step.StepID)
		}
		stepIDs[step.StepID] = true

		if err := validateStep(step); err != nil {
			return fmt.Errorf("form definition %q: %w", f.DestinationID, err)
		}
	}

	// Only the last step may be terminal, and the last step must be.
	for i := range f.Steps {
		isLast := i == len(f.Steps)-1
		if f.Steps[i].IsTerminal != isLast {
			if isLast {
				return fmt.Errorf("form definition %q: last step %q must be terminal", f.DestinationID, f.Steps[i].StepID)
			}
			return fmt.Errorf("form definition %q: non-final step %q marked terminal", f.DestinationID, f.Steps[i].StepID)
		}
	}

	return nil
}

func validateStep(step *StepDefinition) error {
	keys := make(map[string]bool, len(step.Fields))
	for i := range step.Fields {
		field := &step.Fields[i]
		if field.Key == "" {
			return fmt.Errorf("step %q: field %d has no key", step.StepID, i)
		}
		if keys[field.Key] {
			return fmt.Errorf("step %q: duplicate field key %q", step.StepID, field.Key)
		}
		keys[field.Key] = true

		if err := validateField(step.StepID, field); err != nil {
			return err
		}
	}

	// Dependencies must resolve within the same step, without cycles.
	for i := range step.Fields {
		field := &step.Fields[i]
		if field.DependsOn == "" {
			continue
		}
		if field.DependsOn == field.Key {
			return fmt.Errorf("step %q: field %q depends on itself", step.StepID, field.Key)
		}
		if !keys[field.DependsOn] {
			return fmt.Errorf("step %q: field %q depends on unknown field %q", step.StepID, field.Key, field.DependsOn)
		}
	}
	if cycle := findDependencyCycle(step.Fields); cycle != "" {
		return fmt.Errorf("step %q: dependency cycle involving field %q", step.StepID, cycle)
	}

	if !step.IsTerminal {
		if step.ContinuationTrigger.IsZero() {
			return fmt.Errorf("step %q: continuation_trigger is required on non-terminal steps", step.StepID)
		}
		if step.NextStepMarker.IsZero() {
			return fmt.Errorf("step %q: next_step_marker is required on non-terminal steps", step.StepID)
		}
	}

	return nil
}

func validateField(stepID string, field *FieldDescriptor) error {
	if !validControls[field.ControlType] {
		return fmt.Errorf("step %q: field %q has unknown control_type %q", stepID, field.Key, field.ControlType)
	}
	if !validStrategies[field.Locator.Strategy] {
		return fmt.Errorf("step %q: field %q has unknown locator strategy %q", stepID, field.Key, field.Locator.Strategy)
	}
	if field.Locator.Value == "" {
		return fmt.Errorf("step %q: field %q has empty locator value", stepID, field.Key)
	}
	if field.Locator.Strategy == MatchByAttribute && field.Locator.Attribute == "" {
		return fmt.Errorf("step %q: field %q uses by_attribute without an attribute name", stepID, field.Key)
	}
	if field.ProfileKey == "" {
		return fmt.Errorf("step %q: field %q has no profile_key", stepID, field.Key)
	}
	if field.ControlType == ControlCascadingChild {
		if field.DependsOn == "" {
			return fmt.Errorf("step %q: cascading field %q requires depends_on", stepID, field.Key)
		}
		switch field.ChildControl {
		case "", ControlSelect, ControlSearchableSelect:
		default:
			return fmt.Errorf("step %q: cascading field %q has invalid child_control %q", stepID, field.Key, field.ChildControl)
		}
	}
	return nil
}

// findDependencyCycle walks depends_on edges and returns a field key on a
// cycle, or "" when the graph is acyclic.
func findDependencyCycle(fields []FieldDescriptor) string {
	deps := make(map[string]string, len(fields))
	for i := range fields {
		if fields[i].DependsOn != "" {
			deps[fields[i].Key] = fields[i].DependsOn
		}
	}

	for start := range deps {
		slow, fast := start, start
		for {
			next, ok := deps[fast]
			if !ok {
				break
			}
			fast = next
			if next, ok = deps[fast]; !ok {
				break
			}
			fast = next
			slow = deps[slow]
			if slow == fast {
				return slow
			}
		}
	}
	return ""
}
