// Package playwright implements the driver boundary on a real Chromium
// instance via playwright-go. One Surface wraps one browser/context/page
// triple; all operations on a Surface must be serialized by the caller.
package playwright

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/arrivalkit/formpilot/pkg/driver"
)

// Default values for surface creation.
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Launcher owns the Playwright runtime and creates browser surfaces.
type Launcher struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	initialized bool
}

// NewLauncher creates an uninitialized launcher.
func NewLauncher() *Launcher {
	return &Launcher{}
}

// Initialize installs and starts the Playwright runtime. Must be called
// before creating any surfaces.
func (l *Launcher) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	// Discard driver output so it does not interleave with host logging.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.pw = pw
	l.initialized = true
	return nil
}

// Shutdown stops the Playwright runtime.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized || l.pw == nil {
		return nil
	}
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.initialized = false
	return nil
}

// SurfaceOptions configures a new browser surface.
type SurfaceOptions struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// ViewportWidth and ViewportHeight set the initial viewport size.
	ViewportWidth  int
	ViewportHeight int

	// Timeout is the default per-operation timeout in milliseconds.
	Timeout float64
}

// Surface is one live browser page implementing driver.Driver.
type Surface struct {
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	notices chan driver.PageNotice

	closeOnce sync.Once
}

// NewSurface launches a browser and opens a page.
func (l *Launcher) NewSurface(opts SurfaceOptions) (*Surface, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, fmt.Errorf("launcher not initialized")
	}

	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	browser, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.Timeout)

	s := &Surface{
		browser: browser,
		bctx:    bctx,
		page:    page,
		notices: make(chan driver.PageNotice, 16),
	}
	s.wireNotices()
	return s, nil
}

func (s *Surface) wireNotices() {
	s.page.OnLoad(func(p playwright.Page) {
		s.pushNotice(driver.PageNotice{Type: driver.NoticeLoadComplete, Message: p.URL(), At: time.Now()})
	})
	s.page.OnDialog(func(d playwright.Dialog) {
		s.pushNotice(driver.PageNotice{Type: driver.NoticeDialog, Message: d.Message(), At: time.Now()})
		// Never accept dialogs on the user's behalf.
		_ = d.Dismiss()
	})
	s.page.OnClose(func(p playwright.Page) {
		s.pushNotice(driver.PageNotice{Type: driver.NoticeClosed, At: time.Now()})
	})
}

func (s *Surface) pushNotice(n driver.PageNotice) {
	select {
	case s.notices <- n:
	default:
		// Notice buffer full; drop rather than block the page callback.
	}
}

// Navigate opens the given URL and waits for the load event.
func (s *Surface) Navigate(url string) error {
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Close releases the browser resources. Safe to call multiple times.
func (s *Surface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.page.Close()
		_ = s.bctx.Close()
		err = s.browser.Close()
	})
	return err
}

// snapshotScript collects form controls and marker candidates (elements
// with an id or role) along with their labels, options, and state.
const snapshotScript = `(() => {
  const selectorFor = (el) => {
    if (el.id) return '#' + CSS.escape(el.id);
    const parts = [];
    let node = el;
    while (node && node.nodeType === 1 && parts.length < 6) {
      let part = node.tagName.toLowerCase();
      const parent = node.parentElement;
      if (parent) {
        const same = Array.from(parent.children).filter(c => c.tagName === node.tagName);
        if (same.length > 1) part += ':nth-of-type(' + (same.indexOf(node) + 1) + ')';
      }
      parts.unshift(part);
      if (node.id) { parts[0] = '#' + CSS.escape(node.id); break; }
      node = parent;
    }
    return parts.join(' > ');
  };
  const labelFor = (el) => {
    if (el.labels && el.labels.length) return el.labels[0].textContent.trim();
    const aria = el.getAttribute('aria-label');
    if (aria) return aria.trim();
    const labelled = el.getAttribute('aria-labelledby');
    if (labelled) {
      const ref = document.getElementById(labelled.split(/\s+/)[0]);
      if (ref) return ref.textContent.trim();
    }
    return '';
  };
  const seen = new Set();
  const controls = [];
  const push = (el) => {
    const sel = selectorFor(el);
    if (seen.has(sel)) return;
    seen.add(sel);
    const style = window.getComputedStyle(el);
    const attrs = {};
    for (const a of el.attributes) attrs[a.name] = a.value;
    const options = [];
    if (el.tagName === 'SELECT') {
      for (const o of el.options) options.push({value: o.value, label: o.textContent.trim()});
    } else {
      const listId = el.getAttribute('list') || el.getAttribute('aria-controls');
      const list = listId ? document.getElementById(listId) : null;
      if (list) {
        for (const o of list.querySelectorAll('option, [role="option"], li')) {
          options.push({value: o.getAttribute('value') || o.textContent.trim(), label: o.textContent.trim()});
        }
      }
    }
    controls.push({
      selector: sel,
      id: el.id || '',
      tag: el.tagName.toLowerCase(),
      type: el.getAttribute('type') || '',
      label: labelFor(el),
      placeholder: el.getAttribute('placeholder') || '',
      value: 'value' in el ? String(el.value) : '',
      attributes: attrs,
      options: options,
      enabled: !el.disabled,
      visible: style.display !== 'none' && style.visibility !== 'hidden' && el.getClientRects().length > 0,
    });
  };
  for (const el of document.querySelectorAll('input, select, textarea, button')) push(el);
  for (const el of document.querySelectorAll('[id], [role]')) push(el);
  return JSON.stringify({url: location.href, title: document.title, controls: controls});
})()`

// Snapshot implements driver.Driver.
func (s *Surface) Snapshot(ctx context.Context) (*driver.PageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.page.Evaluate(snapshotScript)
	if err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("snapshot returned unexpected type %T", raw)
	}
	var snap driver.PageSnapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return nil, fmt.Errorf("snapshot decode failed: %w", err)
	}
	return &snap, nil
}

// SetValue implements driver.Driver. Playwright's fill dispatches the
// input and change events the target form listens for.
func (s *Surface) SetValue(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// TypeText implements driver.Driver.
func (s *Surface) TypeText(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	locator := s.page.Locator(selector)
	if err := locator.Clear(); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	if err := locator.PressSequentially(text); err != nil {
		return fmt.Errorf("type failed: %w", err)
	}
	return nil
}

// SelectOption implements driver.Driver.
func (s *Surface) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	if err != nil {
		return fmt.Errorf("select failed: %w", err)
	}
	return nil
}

// Click implements driver.Driver.
func (s *Surface) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Evaluate implements driver.Driver.
func (s *Surface) Evaluate(ctx context.Context, script string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := s.page.Evaluate(script)
	if err != nil {
		return "", fmt.Errorf("evaluate failed: %w", err)
	}
	if raw == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", raw), nil
}

// Content implements driver.Driver.
func (s *Surface) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("content failed: %w", err)
	}
	return html, nil
}

// Notices implements driver.Driver.
func (s *Surface) Notices() <-chan driver.PageNotice {
	return s.notices
}
