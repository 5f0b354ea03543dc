// Package capture extracts the confirmation artifact from the result
// surface after the user has triggered final submission. It scans the
// rendered page for a confirmation number, a scannable code image, and a
// downloadable document reference; whichever subset is found is packaged
// into a SubmissionArtifact. Partial capture is usable; finding none of
// the three is a capture failure.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/types"
)

// ErrNoArtifact indicates the result page contained none of the artifact
// fields.
var ErrNoArtifact = errors.New("capture: no artifact found")

// defaultConfirmationPattern matches reference numbers like "TH-9001123"
// or "A12345678" as they appear on arrival confirmation pages.
const defaultConfirmationPattern = `\b[A-Z]{1,4}-?[0-9]{5,14}\b`

// defaultConfirmationLabels are the label texts scanned for a labeled
// confirmation number before falling back to the bare pattern.
var defaultConfirmationLabels = []string{
	"confirmation number",
	"confirmation no",
	"reference number",
	"reference no",
	"arrival card number",
	"arrival card no",
	"registration number",
}

// codeHints mark an image as a scannable code when found in its alt, id,
// or class attributes.
var codeHints = []string{"qr", "barcode", "scan"}

// Options tunes extraction for a destination's result page.
type Options struct {
	// ConfirmationLabels overrides the label texts that precede the
	// confirmation number. Empty means defaults.
	ConfirmationLabels []string

	// ConfirmationPattern overrides the confirmation number regexp.
	// Empty means the default pattern.
	ConfirmationPattern string
}

// Extract snapshots the page content through the driver and extracts the
// submission artifact. The returned artifact may be partial; it is nil
// only on driver or parse errors.
func Extract(ctx context.Context, drv driver.Driver, opts Options) (*types.SubmissionArtifact, error) {
	content, err := drv.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	artifact, err := FromHTML(content, opts)
	if err != nil {
		return nil, err
	}
	if artifact.DocumentRef != "" {
		// A relative href is useless once the session is gone, so anchor
		// it to the page URL while the page is still in front of us.
		if snap, err := drv.Snapshot(ctx); err == nil {
			artifact.DocumentRef = resolveRef(snap.URL, artifact.DocumentRef)
		}
	}
	if artifact.Empty() {
		return artifact, ErrNoArtifact
	}
	return artifact, nil
}

// resolveRef makes a document reference absolute against the page URL.
// Non-web page URLs (about:blank, file paths) leave the ref untouched.
func resolveRef(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// FromHTML extracts the artifact from raw result-page HTML.
func FromHTML(content string, opts Options) (*types.SubmissionArtifact, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("capture: failed to parse page: %w", err)
	}

	pattern := opts.ConfirmationPattern
	if pattern == "" {
		pattern = defaultConfirmationPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("capture: invalid confirmation pattern: %w", err)
	}
	labels := opts.ConfirmationLabels
	if len(labels) == 0 {
		labels = defaultConfirmationLabels
	}

	artifact := &types.SubmissionArtifact{CapturedAt: time.Now()}
	artifact.ConfirmationNumber = findConfirmation(doc, labels, re)
	artifact.CodePayload = findCodeImage(doc)
	artifact.DocumentRef = findDocumentRef(doc)
	return artifact, nil
}

// findConfirmation prefers a number adjacent to a known label and falls
// back to the first pattern match anywhere in the page text.
func findConfirmation(doc *html.Node, labels []string, re *regexp.Regexp) string {
	text := collectText(doc)
	lower := strings.ToLower(text)

	for _, label := range labels {
		idx := strings.Index(lower, label)
		if idx < 0 {
			continue
		}
		// Search the text following the label first; labels and their
		// values are adjacent on every observed result layout.
		tail := text[idx+len(label):]
		if len(tail) > 200 {
			tail = tail[:200]
		}
		if m := re.FindString(tail); m != "" {
			return m
		}
	}

	return re.FindString(text)
}

func findCodeImage(doc *html.Node) string {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "img" {
			return true
		}
		src := attr(n, "src")
		if src == "" {
			return true
		}
		if strings.HasPrefix(src, "data:image/") || hasCodeHint(n) {
			found = src
			return false
		}
		return true
	})
	return found
}

func hasCodeHint(n *html.Node) bool {
	for _, name := range []string{"alt", "id", "class"} {
		v := strings.ToLower(attr(n, name))
		for _, hint := range codeHints {
			if strings.Contains(v, hint) {
				return true
			}
		}
	}
	return false
}

func findDocumentRef(doc *html.Node) string {
	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "a" {
			return true
		}
		href := attr(n, "href")
		if href == "" {
			return true
		}
		lower := strings.ToLower(href)
		if strings.HasSuffix(lower, ".pdf") || attrPresent(n, "download") {
			found = href
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func attrPresent(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}
