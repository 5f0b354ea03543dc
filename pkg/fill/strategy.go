// Package fill implements the field strategy registry: pure procedures
// that drive one control of the target form to the resolved profile value
// through the driver boundary. The registry holds no state; all side
// effects are confined to driver calls.
package fill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/formdef"
)

// Defaults for the bounded option-rendering wait of searchable selects.
const (
	DefaultOptionPollInterval = 200 * time.Millisecond
	DefaultOptionPollBudget   = 2 * time.Second
)

// Request carries everything one fill attempt needs.
type Request struct {
	// Field is the descriptor of the field being filled.
	Field *formdef.FieldDescriptor

	// Value is the resolved, normalized profile value.
	Value string

	// Snapshot is the live control snapshot the attempt works against.
	Snapshot *driver.PageSnapshot

	// Driver issues actions and, for searchable selects, re-snapshots
	// the page during the bounded option wait.
	Driver driver.Driver

	// OptionPollInterval and OptionPollBudget bound the wait for a
	// searchable select's option list to populate. Zero means defaults.
	OptionPollInterval time.Duration
	OptionPollBudget   time.Duration
}

// Result reports a successful fill attempt.
type Result struct {
	// Tier is the option match tier for select-like controls.
	Tier MatchTier

	// Warning carries a soft diagnostic (e.g. ambiguous locator); the
	// fill still succeeded.
	Warning string
}

// Procedure fills one control. Errors are classified by Retryable.
type Procedure func(ctx context.Context, req Request) (*Result, error)

// StrategyFor returns the fill procedure for a control type.
func StrategyFor(ct formdef.ControlType) (Procedure, error) {
	switch ct {
	case formdef.ControlText:
		return fillText, nil
	case formdef.ControlSelect:
		return fillSelect, nil
	case formdef.ControlSearchableSelect:
		return fillSearchableSelect, nil
	case formdef.ControlRadio:
		return fillRadio, nil
	case formdef.ControlCascadingChild:
		return fillCascadingChild, nil
	default:
		return nil, fmt.Errorf("fill: no strategy for control type %q", ct)
	}
}

func locate(req Request) (*driver.ControlSnapshot, string, error) {
	m := FindControl(req.Snapshot, req.Field.Locator)
	if m.Control == nil {
		return nil, "", fmt.Errorf("field %q: %w", req.Field.Key, ErrFieldNotFound)
	}
	if !m.Control.Enabled {
		return nil, "", fmt.Errorf("field %q: %w", req.Field.Key, ErrControlDisabled)
	}
	warning := ""
	if m.Candidates > 1 {
		warning = fmt.Sprintf("locator matched %d controls, using %s", m.Candidates, m.Control.Selector)
	}
	return m.Control, warning, nil
}

func fillText(ctx context.Context, req Request) (*Result, error) {
	control, warning, err := locate(req)
	if err != nil {
		return nil, err
	}
	if err := req.Driver.SetValue(ctx, control.Selector, req.Value); err != nil {
		return nil, fmt.Errorf("field %q: %w", req.Field.Key, err)
	}
	return &Result{Warning: warning}, nil
}

func fillSelect(ctx context.Context, req Request) (*Result, error) {
	control, warning, err := locate(req)
	if err != nil {
		return nil, err
	}
	return selectFromOptions(ctx, req, control, warning)
}

func selectFromOptions(ctx context.Context, req Request, control *driver.ControlSnapshot, warning string) (*Result, error) {
	if len(control.Options) == 0 {
		return nil, fmt.Errorf("field %q: %w", req.Field.Key, ErrOptionsPending)
	}
	opt, tier := MatchOption(toOptions(control.Options), req.Value)
	if tier == TierNone {
		return nil, fmt.Errorf("field %q: value %q: %w", req.Field.Key, req.Value, ErrOptionNotFound)
	}
	if err := req.Driver.SelectOption(ctx, control.Selector, opt.Value); err != nil {
		return nil, fmt.Errorf("field %q: %w", req.Field.Key, err)
	}
	return &Result{Tier: tier, Warning: warning}, nil
}

func fillSearchableSelect(ctx context.Context, req Request) (*Result, error) {
	control, warning, err := locate(req)
	if err != nil {
		return nil, err
	}
	if err := req.Driver.TypeText(ctx, control.Selector, req.Value); err != nil {
		return nil, fmt.Errorf("field %q: %w", req.Field.Key, err)
	}

	interval := req.OptionPollInterval
	if interval <= 0 {
		interval = DefaultOptionPollInterval
	}
	budget := req.OptionPollBudget
	if budget <= 0 {
		budget = DefaultOptionPollBudget
	}

	// Bounded wait for the option list to populate from the keystrokes.
	deadline := time.Now().Add(budget)
	for {
		snap, err := req.Driver.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", req.Field.Key, err)
		}
		m := FindControl(snap, req.Field.Locator)
		if m.Control != nil && len(m.Control.Options) > 0 {
			return selectFromOptions(ctx, req, m.Control, warning)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("field %q: %w", req.Field.Key, ErrOptionsPending)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func fillRadio(ctx context.Context, req Request) (*Result, error) {
	group := FindControls(req.Snapshot, req.Field.Locator)
	if len(group) == 0 {
		return nil, fmt.Errorf("field %q: %w", req.Field.Key, ErrFieldNotFound)
	}

	want := strings.ToLower(req.Value)
	for _, c := range group {
		if !c.Enabled {
			continue
		}
		if strings.ToLower(c.Value) == want || strings.ToLower(strings.TrimSpace(c.Label)) == want {
			if err := req.Driver.Click(ctx, c.Selector); err != nil {
				return nil, fmt.Errorf("field %q: %w", req.Field.Key, err)
			}
			return &Result{Tier: TierExact}, nil
		}
	}
	return nil, fmt.Errorf("field %q: value %q: %w", req.Field.Key, req.Value, ErrOptionNotFound)
}

// fillCascadingChild fills a child control whose option list only exists
// after its parent is filled. The orchestrator gates on the dependency, so
// by the time this runs the control is expected to be populating; a still
// disabled or empty control is a retryable condition, not a failure.
func fillCascadingChild(ctx context.Context, req Request) (*Result, error) {
	switch req.Field.ChildControl {
	case formdef.ControlSearchableSelect:
		return fillSearchableSelect(ctx, req)
	default:
		return fillSelect(ctx, req)
	}
}

func toOptions(options []driver.OptionSnapshot) []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		out[i] = Option{Value: o.Value, Label: o.Label}
	}
	return out
}
