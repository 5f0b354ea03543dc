// Package driver defines the boundary to the embedded browser surface.
// The engine never holds references to remote DOM nodes; it works against
// point-in-time snapshots of the page's controls and issues actions through
// the Driver interface. The production implementation lives in the
// playwright subpackage; tests use the scripted fake in drivertest.
package driver

import (
	"context"
	"time"
)

// OptionSnapshot is one rendered option of a select-like control.
type OptionSnapshot struct {
	// Value is the option's underlying value.
	Value string `json:"value"`

	// Label is the option's visible text.
	Label string `json:"label"`
}

// ControlSnapshot is a point-in-time view of one page element. Snapshots
// cover form controls plus any element the form tables reference as a
// marker (step markers, validation indicators).
type ControlSnapshot struct {
	// Selector is a stable CSS selector usable to act on the element.
	Selector string `json:"selector"`

	// ID is the element's DOM id, if any.
	ID string `json:"id"`

	// Tag is the lowercase element tag name.
	Tag string `json:"tag"`

	// Type is the input type attribute, if any.
	Type string `json:"type"`

	// Label is the text of the element's associated label, if any.
	Label string `json:"label"`

	// Placeholder is the element's placeholder text, if any.
	Placeholder string `json:"placeholder"`

	// Value is the element's current value.
	Value string `json:"value"`

	// Attributes holds the element's attributes.
	Attributes map[string]string `json:"attributes"`

	// Options are the rendered options for select-like controls.
	Options []OptionSnapshot `json:"options"`

	// Enabled reports whether the element accepts input.
	Enabled bool `json:"enabled"`

	// Visible reports whether the element is rendered and visible.
	Visible bool `json:"visible"`
}

// PageSnapshot is a live view of the current page's controls.
type PageSnapshot struct {
	// URL is the page URL at snapshot time.
	URL string `json:"url"`

	// Title is the page title at snapshot time.
	Title string `json:"title"`

	// Controls are the snapshotted elements.
	Controls []ControlSnapshot `json:"controls"`
}

// NoticeType classifies a page-level notification.
type NoticeType string

const (
	// NoticeLoadComplete indicates a page or navigation finished loading.
	NoticeLoadComplete NoticeType = "load_complete"

	// NoticeDialog indicates the page raised a dialog (alert/confirm).
	NoticeDialog NoticeType = "dialog"

	// NoticeClosed indicates the browser surface went away.
	NoticeClosed NoticeType = "closed"
)

// PageNotice is a page-level notification from the browser surface.
type PageNotice struct {
	// Type classifies the notice.
	Type NoticeType

	// Message is the notice payload (dialog text, URL for loads).
	Message string

	// At is when the notice was observed.
	At time.Time
}

// Driver scripts and observes one embedded browser surface. The surface is
// not reentrant: callers must serialize all operations for a given surface.
type Driver interface {
	// Snapshot captures the current page's controls.
	Snapshot(ctx context.Context) (*PageSnapshot, error)

	// SetValue sets a text control's value and dispatches the page's
	// input-changed notification.
	SetValue(ctx context.Context, selector, value string) error

	// TypeText types into a control as a user would, for autocomplete
	// inputs that populate their option list from keystrokes.
	TypeText(ctx context.Context, selector, text string) error

	// SelectOption chooses the option with the given underlying value on a
	// select-like control.
	SelectOption(ctx context.Context, selector, value string) error

	// Click clicks the element.
	Click(ctx context.Context, selector string) error

	// Evaluate runs a script against the page and returns its result as a
	// string. Escape hatch for destination-specific quirks.
	Evaluate(ctx context.Context, script string) (string, error)

	// Content returns the page's current HTML, used by submission capture.
	Content(ctx context.Context) (string, error)

	// Notices returns the stream of page-level notifications.
	Notices() <-chan PageNotice
}
