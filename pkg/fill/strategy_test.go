package fill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/driver/drivertest"
	"github.com/arrivalkit/formpilot/pkg/formdef"
)

func textField(key, id string) *formdef.FieldDescriptor {
	return &formdef.FieldDescriptor{
		Key:         key,
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: id},
		ControlType: formdef.ControlText,
		ProfileKey:  key,
	}
}

func request(t *testing.T, fake *drivertest.Fake, field *formdef.FieldDescriptor, value string) Request {
	t.Helper()
	snap, err := fake.Snapshot(context.Background())
	require.NoError(t, err)
	return Request{
		Field:              field,
		Value:              value,
		Snapshot:           snap,
		Driver:             fake,
		OptionPollInterval: time.Millisecond,
		OptionPollBudget:   20 * time.Millisecond,
	}
}

func TestStrategyFor(t *testing.T) {
	for _, ct := range []formdef.ControlType{
		formdef.ControlText,
		formdef.ControlSelect,
		formdef.ControlSearchableSelect,
		formdef.ControlRadio,
		formdef.ControlCascadingChild,
	} {
		proc, err := StrategyFor(ct)
		require.NoError(t, err, ct)
		assert.NotNil(t, proc, ct)
	}

	_, err := StrategyFor("checkbox")
	assert.Error(t, err)
}

func TestFillText(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#familyName", ID: "familyName", Tag: "input",
		Enabled: true, Visible: true,
	})

	proc, err := StrategyFor(formdef.ControlText)
	require.NoError(t, err)

	res, err := proc(context.Background(), request(t, fake, textField("surname", "familyName"), "NGUYEN"))
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	actions := fake.ActionsOf("set_value")
	require.Len(t, actions, 1)
	assert.Equal(t, "#familyName", actions[0].Selector)
	assert.Equal(t, "NGUYEN", actions[0].Value)
}

func TestFillText_NotFoundAndDisabled(t *testing.T) {
	fake := drivertest.New()
	proc, err := StrategyFor(formdef.ControlText)
	require.NoError(t, err)

	_, err = proc(context.Background(), request(t, fake, textField("surname", "familyName"), "X"))
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.True(t, Retryable(err))

	fake.AddControl(driver.ControlSnapshot{
		Selector: "#familyName", ID: "familyName", Tag: "input",
		Enabled: false, Visible: true,
	})
	_, err = proc(context.Background(), request(t, fake, textField("surname", "familyName"), "X"))
	assert.ErrorIs(t, err, ErrControlDisabled)
	assert.True(t, Retryable(err))
}

func TestFillText_AmbiguousLocatorWarns(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "div > input", Tag: "input", Label: "Family name",
		Enabled: true, Visible: false,
	})
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#familyName", Tag: "input", Label: "Family name",
		Enabled: true, Visible: true,
	})

	field := &formdef.FieldDescriptor{
		Key:         "surname",
		Locator:     formdef.Locator{Strategy: formdef.MatchByLabelText, Value: "Family name"},
		ControlType: formdef.ControlText,
		ProfileKey:  "surname",
	}
	proc, _ := StrategyFor(formdef.ControlText)

	res, err := proc(context.Background(), request(t, fake, field, "X"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)

	// The visible control wins the ambiguity heuristic.
	actions := fake.ActionsOf("set_value")
	require.Len(t, actions, 1)
	assert.Equal(t, "#familyName", actions[0].Selector)
}

func TestFillSelect(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#nationality", ID: "nationality", Tag: "select",
		Enabled: true, Visible: true,
		Options: []driver.OptionSnapshot{
			{Value: "TH", Label: "Thailand"},
			{Value: "VN", Label: "Vietnam"},
		},
	})

	field := &formdef.FieldDescriptor{
		Key:         "nationality",
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: "nationality"},
		ControlType: formdef.ControlSelect,
		ProfileKey:  "nationality",
	}
	proc, _ := StrategyFor(formdef.ControlSelect)

	res, err := proc(context.Background(), request(t, fake, field, "vietnam"))
	require.NoError(t, err)
	assert.Equal(t, TierSubstring, res.Tier)

	actions := fake.ActionsOf("select_option")
	require.Len(t, actions, 1)
	assert.Equal(t, "VN", actions[0].Value)
}

func TestFillSelect_NoOptionsAndNoMatch(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#nationality", ID: "nationality", Tag: "select",
		Enabled: true, Visible: true,
	})

	field := &formdef.FieldDescriptor{
		Key:         "nationality",
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: "nationality"},
		ControlType: formdef.ControlSelect,
		ProfileKey:  "nationality",
	}
	proc, _ := StrategyFor(formdef.ControlSelect)

	_, err := proc(context.Background(), request(t, fake, field, "Vietnam"))
	assert.ErrorIs(t, err, ErrOptionsPending)

	fake.SetSnapshot(&driver.PageSnapshot{Controls: []driver.ControlSnapshot{{
		Selector: "#nationality", ID: "nationality", Tag: "select",
		Enabled: true, Visible: true,
		Options: []driver.OptionSnapshot{{Value: "TH", Label: "Thailand"}},
	}}})
	_, err = proc(context.Background(), request(t, fake, field, "Vietnam"))
	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestFillSearchableSelect_WaitsForOptions(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#port", ID: "port", Tag: "input",
		Enabled: true, Visible: true,
	})

	// Options appear on the third snapshot, as an autocomplete would after
	// the typed text settles.
	fake.ScriptSnapshots(func(call int, current *driver.PageSnapshot) *driver.PageSnapshot {
		if call < 3 {
			return nil
		}
		return &driver.PageSnapshot{Controls: []driver.ControlSnapshot{{
			Selector: "#port", ID: "port", Tag: "input",
			Enabled: true, Visible: true,
			Options: []driver.OptionSnapshot{
				{Value: "BKK", Label: "Bangkok Suvarnabhumi"},
			},
		}}}
	})

	field := &formdef.FieldDescriptor{
		Key:         "arrival_port",
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: "port"},
		ControlType: formdef.ControlSearchableSelect,
		ProfileKey:  "arrival_port",
	}
	proc, _ := StrategyFor(formdef.ControlSearchableSelect)

	res, err := proc(context.Background(), request(t, fake, field, "Bangkok"))
	require.NoError(t, err)
	assert.Equal(t, TierSubstring, res.Tier)

	require.Len(t, fake.ActionsOf("type_text"), 1)
	selected := fake.ActionsOf("select_option")
	require.Len(t, selected, 1)
	assert.Equal(t, "BKK", selected[0].Value)
}

func TestFillSearchableSelect_BudgetExhausted(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#port", ID: "port", Tag: "input",
		Enabled: true, Visible: true,
	})

	field := &formdef.FieldDescriptor{
		Key:         "arrival_port",
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: "port"},
		ControlType: formdef.ControlSearchableSelect,
		ProfileKey:  "arrival_port",
	}
	proc, _ := StrategyFor(formdef.ControlSearchableSelect)

	start := time.Now()
	_, err := proc(context.Background(), request(t, fake, field, "Bangkok"))
	assert.ErrorIs(t, err, ErrOptionsPending)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFillRadio(t *testing.T) {
	fake := drivertest.New()
	for _, v := range []struct{ sel, value, label string }{
		{"#purpose-0", "holiday", "Holiday"},
		{"#purpose-1", "business", "Business"},
	} {
		fake.AddControl(driver.ControlSnapshot{
			Selector: v.sel, Tag: "input", Type: "radio",
			Value: v.value, Label: v.label,
			Attributes: map[string]string{"name": "purpose"},
			Enabled:    true, Visible: true,
		})
	}

	field := &formdef.FieldDescriptor{
		Key:         "purpose",
		Locator:     formdef.Locator{Strategy: formdef.MatchByAttribute, Attribute: "name", Value: "purpose"},
		ControlType: formdef.ControlRadio,
		ProfileKey:  "purpose",
	}
	proc, _ := StrategyFor(formdef.ControlRadio)

	_, err := proc(context.Background(), request(t, fake, field, "Business"))
	require.NoError(t, err)

	clicks := fake.ActionsOf("click")
	require.Len(t, clicks, 1)
	assert.Equal(t, "#purpose-1", clicks[0].Selector)

	_, err = proc(context.Background(), request(t, fake, field, "Transit"))
	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestFillCascadingChild_DelegatesToSelect(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#district", ID: "district", Tag: "select",
		Enabled: true, Visible: true,
		Options: []driver.OptionSnapshot{{Value: "1", Label: "Bang Rak"}},
	})

	field := &formdef.FieldDescriptor{
		Key:         "district",
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: "district"},
		ControlType: formdef.ControlCascadingChild,
		ProfileKey:  "district",
		DependsOn:   "province",
	}
	proc, _ := StrategyFor(formdef.ControlCascadingChild)

	_, err := proc(context.Background(), request(t, fake, field, "Bang Rak"))
	require.NoError(t, err)
	require.Len(t, fake.ActionsOf("select_option"), 1)
}

func TestFillCascadingChild_DisabledIsRetryable(t *testing.T) {
	fake := drivertest.New()
	fake.AddControl(driver.ControlSnapshot{
		Selector: "#district", ID: "district", Tag: "select",
		Enabled: false, Visible: true,
	})

	field := &formdef.FieldDescriptor{
		Key:         "district",
		Locator:     formdef.Locator{Strategy: formdef.MatchByID, Value: "district"},
		ControlType: formdef.ControlCascadingChild,
		ProfileKey:  "district",
		DependsOn:   "province",
	}
	proc, _ := StrategyFor(formdef.ControlCascadingChild)

	_, err := proc(context.Background(), request(t, fake, field, "Bang Rak"))
	assert.ErrorIs(t, err, ErrControlDisabled)
	assert.True(t, Retryable(err))
}
