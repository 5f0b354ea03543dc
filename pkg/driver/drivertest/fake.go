// Package drivertest provides a scripted in-memory Driver for tests.
// Tests describe the page as a sequence of snapshots and assert on the
// actions the engine issued, without any real browser.
package drivertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/arrivalkit/formpilot/pkg/driver"
)

// Action records one operation issued against the fake driver.
type Action struct {
	// Op is the operation name: set_value, type_text, select_option,
	// click, evaluate.
	Op string

	// Selector is the target element selector.
	Selector string

	// Value is the value or text for value-carrying operations.
	Value string
}

// Fake is a scripted Driver implementation. The zero value is not usable;
// construct with New.
type Fake struct {
	mu       sync.Mutex
	current  *driver.PageSnapshot
	html     string
	actions  []Action
	notices  chan driver.PageNotice
	calls    int
	scripted func(call int, current *driver.PageSnapshot) *driver.PageSnapshot
	failOp   map[string]error
}

// New creates a fake driver with an empty page.
func New() *Fake {
	return &Fake{
		current: &driver.PageSnapshot{URL: "about:blank"},
		notices: make(chan driver.PageNotice, 16),
		failOp:  make(map[string]error),
	}
}

// SetSnapshot replaces the current page snapshot.
func (f *Fake) SetSnapshot(snap *driver.PageSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = snap
}

// SetHTML sets the page content returned by Content.
func (f *Fake) SetHTML(html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = html
}

// AddControl appends a control to the current snapshot.
func (f *Fake) AddControl(c driver.ControlSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current.Controls = append(f.current.Controls, c)
}

// RemoveControl removes the control with the given selector, if present.
func (f *Fake) RemoveControl(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	controls := f.current.Controls[:0]
	for _, c := range f.current.Controls {
		if c.Selector != selector {
			controls = append(controls, c)
		}
	}
	f.current.Controls = controls
}

// ScriptSnapshots installs a function that rewrites the snapshot before
// each Snapshot call. call counts from 1. Returning nil keeps the current
// snapshot unchanged.
func (f *Fake) ScriptSnapshots(fn func(call int, current *driver.PageSnapshot) *driver.PageSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripted = fn
}

// FailOn makes the named operation return the given error.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOp[op] = err
}

// Actions returns a copy of the recorded actions.
func (f *Fake) Actions() []Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Action, len(f.actions))
	copy(out, f.actions)
	return out
}

// ActionsOf returns recorded actions filtered by operation name.
func (f *Fake) ActionsOf(op string) []Action {
	var out []Action
	for _, a := range f.Actions() {
		if a.Op == op {
			out = append(out, a)
		}
	}
	return out
}

// SnapshotCalls returns how many times Snapshot was invoked.
func (f *Fake) SnapshotCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// EmitNotice pushes a page notice onto the notice stream.
func (f *Fake) EmitNotice(n driver.PageNotice) {
	f.notices <- n
}

func (f *Fake) record(ctx context.Context, a Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	if err, ok := f.failOp[a.Op]; ok {
		return err
	}
	return nil
}

// Snapshot implements driver.Driver.
func (f *Fake) Snapshot(ctx context.Context) (*driver.PageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failOp["snapshot"]; ok {
		return nil, err
	}
	if f.scripted != nil {
		if next := f.scripted(f.calls, f.current); next != nil {
			f.current = next
		}
	}
	// Copy so callers cannot mutate the fake's state through the result.
	snap := &driver.PageSnapshot{URL: f.current.URL, Title: f.current.Title}
	snap.Controls = make([]driver.ControlSnapshot, len(f.current.Controls))
	copy(snap.Controls, f.current.Controls)
	return snap, nil
}

// SetValue implements driver.Driver.
func (f *Fake) SetValue(ctx context.Context, selector, value string) error {
	if err := f.record(ctx, Action{Op: "set_value", Selector: selector, Value: value}); err != nil {
		return err
	}
	return f.updateValue(selector, value)
}

// TypeText implements driver.Driver.
func (f *Fake) TypeText(ctx context.Context, selector, text string) error {
	if err := f.record(ctx, Action{Op: "type_text", Selector: selector, Value: text}); err != nil {
		return err
	}
	return f.updateValue(selector, text)
}

// SelectOption implements driver.Driver.
func (f *Fake) SelectOption(ctx context.Context, selector, value string) error {
	if err := f.record(ctx, Action{Op: "select_option", Selector: selector, Value: value}); err != nil {
		return err
	}
	return f.updateValue(selector, value)
}

// Click implements driver.Driver.
func (f *Fake) Click(ctx context.Context, selector string) error {
	return f.record(ctx, Action{Op: "click", Selector: selector})
}

// Evaluate implements driver.Driver.
func (f *Fake) Evaluate(ctx context.Context, script string) (string, error) {
	if err := f.record(ctx, Action{Op: "evaluate", Value: script}); err != nil {
		return "", err
	}
	return "", nil
}

// Content implements driver.Driver.
func (f *Fake) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOp["content"]; ok {
		return "", err
	}
	return f.html, nil
}

// Notices implements driver.Driver.
func (f *Fake) Notices() <-chan driver.PageNotice {
	return f.notices
}

func (f *Fake) updateValue(selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.current.Controls {
		if f.current.Controls[i].Selector == selector {
			f.current.Controls[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("drivertest: no control with selector %q", selector)
}
