package fill

import "strings"

// MatchTier records which precedence tier produced an option match.
type MatchTier int

const (
	// TierNone means no option matched.
	TierNone MatchTier = iota

	// TierExact is an exact text match.
	TierExact

	// TierSubstring is a case-insensitive substring match of the wanted
	// value inside an option.
	TierSubstring

	// TierPrefix matches when an option is a case-insensitive prefix of
	// the wanted value (e.g. option "Thailand" for value "Thailand (TH)").
	TierPrefix
)

// Option is a rendered option of a select-like control.
type Option struct {
	Value string
	Label string
}

// MatchOption applies the select match precedence to the rendered options:
// exact text first, else case-insensitive substring, else prefix. Both the
// visible label and the underlying value are compared at each tier.
func MatchOption(options []Option, want string) (Option, MatchTier) {
	if want == "" {
		return Option{}, TierNone
	}

	for _, o := range options {
		if o.Label == want || o.Value == want {
			return o, TierExact
		}
	}

	lower := strings.ToLower(want)
	for _, o := range options {
		if o.Label == "" && o.Value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(o.Label), lower) ||
			strings.Contains(strings.ToLower(o.Value), lower) {
			return o, TierSubstring
		}
	}

	for _, o := range options {
		label := strings.ToLower(o.Label)
		value := strings.ToLower(o.Value)
		if (label != "" && strings.HasPrefix(lower, label)) ||
			(value != "" && strings.HasPrefix(lower, value)) {
			return o, TierPrefix
		}
	}

	return Option{}, TierNone
}
