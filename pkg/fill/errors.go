package fill

import "errors"

var (
	// ErrFieldNotFound indicates no control matched the field's locator.
	// Retryable: the control may not have rendered yet.
	ErrFieldNotFound = errors.New("fill: field not found")

	// ErrOptionNotFound indicates the control rendered but no option
	// matched the resolved value under any match tier.
	ErrOptionNotFound = errors.New("fill: no matching option")

	// ErrControlDisabled indicates the control exists but does not accept
	// input yet. Retryable: cascading parents enable children on fill.
	ErrControlDisabled = errors.New("fill: control disabled")

	// ErrOptionsPending indicates a select-like control has not rendered
	// its option list yet. Retryable.
	ErrOptionsPending = errors.New("fill: options not rendered")

	// ErrValueMissing indicates the traveler profile has no value for a
	// required field. Not retryable: the profile is immutable per session.
	ErrValueMissing = errors.New("fill: required profile value missing")
)

// Retryable reports whether another attempt within the field budget could
// plausibly succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrFieldNotFound) ||
		errors.Is(err, ErrOptionNotFound) ||
		errors.Is(err, ErrControlDisabled) ||
		errors.Is(err, ErrOptionsPending)
}
