package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/formdef"
)

func snapshotWith(controls ...driver.ControlSnapshot) *driver.PageSnapshot {
	return &driver.PageSnapshot{Controls: controls}
}

func TestFindControl_Strategies(t *testing.T) {
	snap := snapshotWith(
		driver.ControlSnapshot{Selector: "#a", ID: "a", Label: "Family name *", Enabled: true, Visible: true},
		driver.ControlSnapshot{Selector: "#b", ID: "b", Placeholder: "DD/MM/YYYY", Enabled: true, Visible: true},
		driver.ControlSnapshot{Selector: "#c", ID: "c", Attributes: map[string]string{"name": "purpose"}, Enabled: true, Visible: true},
	)

	t.Run("by id", func(t *testing.T) {
		m := FindControl(snap, formdef.Locator{Strategy: formdef.MatchByID, Value: "b"})
		require.NotNil(t, m.Control)
		assert.Equal(t, "#b", m.Control.Selector)
	})

	t.Run("by label glob", func(t *testing.T) {
		m := FindControl(snap, formdef.Locator{Strategy: formdef.MatchByLabelText, Value: "Family name*"})
		require.NotNil(t, m.Control)
		assert.Equal(t, "#a", m.Control.Selector)
	})

	t.Run("by placeholder", func(t *testing.T) {
		m := FindControl(snap, formdef.Locator{Strategy: formdef.MatchByPlaceholder, Value: "DD/MM/YYYY"})
		require.NotNil(t, m.Control)
		assert.Equal(t, "#b", m.Control.Selector)
	})

	t.Run("by attribute", func(t *testing.T) {
		m := FindControl(snap, formdef.Locator{Strategy: formdef.MatchByAttribute, Attribute: "name", Value: "purpose"})
		require.NotNil(t, m.Control)
		assert.Equal(t, "#c", m.Control.Selector)
	})

	t.Run("no match", func(t *testing.T) {
		m := FindControl(snap, formdef.Locator{Strategy: formdef.MatchByID, Value: "zzz"})
		assert.Nil(t, m.Control)
		assert.Zero(t, m.Candidates)
	})
}

func TestFindControl_AmbiguityPrefersVisibleEnabled(t *testing.T) {
	snap := snapshotWith(
		driver.ControlSnapshot{Selector: "#hidden", Label: "Email", Enabled: true, Visible: false},
		driver.ControlSnapshot{Selector: "#disabled", Label: "Email", Enabled: false, Visible: true},
		driver.ControlSnapshot{Selector: "#best", Label: "Email", Enabled: true, Visible: true},
	)

	m := FindControl(snap, formdef.Locator{Strategy: formdef.MatchByLabelText, Value: "Email"})
	require.NotNil(t, m.Control)
	assert.Equal(t, "#best", m.Control.Selector)
	assert.Equal(t, 3, m.Candidates)
}

func TestFindControls_ReturnsWholeGroup(t *testing.T) {
	snap := snapshotWith(
		driver.ControlSnapshot{Selector: "#r0", Attributes: map[string]string{"name": "purpose"}},
		driver.ControlSnapshot{Selector: "#r1", Attributes: map[string]string{"name": "purpose"}},
		driver.ControlSnapshot{Selector: "#other", Attributes: map[string]string{"name": "gender"}},
	)

	group := FindControls(snap, formdef.Locator{Strategy: formdef.MatchByAttribute, Attribute: "name", Value: "purpose"})
	assert.Len(t, group, 2)
}

func TestPresent(t *testing.T) {
	snap := snapshotWith(
		driver.ControlSnapshot{Selector: "#marker", ID: "marker", Visible: true},
		driver.ControlSnapshot{Selector: "#ghost", ID: "ghost", Visible: false},
	)

	assert.True(t, Present(snap, formdef.Locator{Strategy: formdef.MatchByID, Value: "marker"}))
	// Hidden elements do not count as present markers.
	assert.False(t, Present(snap, formdef.Locator{Strategy: formdef.MatchByID, Value: "ghost"}))
	assert.False(t, Present(snap, formdef.Locator{}))
}
