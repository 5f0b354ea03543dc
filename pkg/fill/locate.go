package fill

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/formdef"
)

// Match is the result of evaluating a locator against a snapshot.
type Match struct {
	// Control is the best candidate, nil when nothing matched.
	Control *driver.ControlSnapshot

	// Candidates is the total number of elements the locator matched.
	// More than one is a soft ambiguity, resolved by preferring visible
	// and enabled controls.
	Candidates int
}

// FindControl evaluates a locator against a page snapshot. Label text
// locators support glob patterns; a pattern that fails to compile falls
// back to literal comparison.
func FindControl(snap *driver.PageSnapshot, loc formdef.Locator) Match {
	var matched []*driver.ControlSnapshot
	for i := range snap.Controls {
		c := &snap.Controls[i]
		if locatorMatches(c, loc) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return Match{}
	}

	// Ambiguity heuristic: prefer visible+enabled, then visible.
	best := matched[0]
	for _, c := range matched[1:] {
		if rankControl(c) > rankControl(best) {
			best = c
		}
	}
	return Match{Control: best, Candidates: len(matched)}
}

// FindControls returns every control the locator matches, in snapshot
// order. Radio groups share a locator and need the whole group.
func FindControls(snap *driver.PageSnapshot, loc formdef.Locator) []*driver.ControlSnapshot {
	var matched []*driver.ControlSnapshot
	for i := range snap.Controls {
		c := &snap.Controls[i]
		if locatorMatches(c, loc) {
			matched = append(matched, c)
		}
	}
	return matched
}

// Present reports whether any element matches the locator. Used for step
// markers and validation indicators, which need existence, not fills.
func Present(snap *driver.PageSnapshot, loc formdef.Locator) bool {
	if loc.IsZero() {
		return false
	}
	m := FindControl(snap, loc)
	return m.Control != nil && m.Control.Visible
}

func locatorMatches(c *driver.ControlSnapshot, loc formdef.Locator) bool {
	switch loc.Strategy {
	case formdef.MatchByID:
		return c.ID == loc.Value
	case formdef.MatchByLabelText:
		return textMatches(c.Label, loc.Value)
	case formdef.MatchByPlaceholder:
		return textMatches(c.Placeholder, loc.Value)
	case formdef.MatchByAttribute:
		v, ok := c.Attributes[loc.Attribute]
		return ok && textMatches(v, loc.Value)
	default:
		return false
	}
}

func textMatches(text, pattern string) bool {
	if text == "" {
		return false
	}
	text = strings.TrimSpace(text)
	if g, err := glob.Compile(pattern); err == nil {
		return g.Match(text)
	}
	return text == pattern
}

func rankControl(c *driver.ControlSnapshot) int {
	rank := 0
	if c.Visible {
		rank += 2
	}
	if c.Enabled {
		rank++
	}
	return rank
}
