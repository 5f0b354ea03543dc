// Package profile holds the flattened traveler data supplied by the host
// application and the value normalization rules applied when resolving
// field values against it.
package profile

import (
	"fmt"
	"strings"
	"time"
)

// ISODateLayout is the date layout the host application supplies dates in.
const ISODateLayout = "2006-01-02"

// TravelerProfile is an immutable flat key/value bag of traveler data
// (strings, ISO dates, enum codes). It is snapshotted at construction and
// never mutated for the lifetime of a session.
type TravelerProfile struct {
	values map[string]string
}

// New creates a profile from the given values. The map is copied so later
// mutation by the caller cannot affect a running session.
func New(values map[string]string) *TravelerProfile {
	snapshot := make(map[string]string, len(values))
	for k, v := range values {
		snapshot[k] = v
	}
	return &TravelerProfile{values: snapshot}
}

// Get returns the raw value for a key and whether the key is present.
func (p *TravelerProfile) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether the key is present with a non-empty value.
func (p *TravelerProfile) Has(key string) bool {
	v, ok := p.values[key]
	return ok && v != ""
}

// Len returns the number of keys in the profile.
func (p *TravelerProfile) Len() int {
	return len(p.values)
}

// Keys returns all keys in the profile. Order is not defined.
func (p *TravelerProfile) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	return keys
}

// Resolve returns the value for key with the given transform applied.
// A missing or empty value returns ok=false; the caller decides whether
// that is a skip or a failure based on the field's optional policy.
func (p *TravelerProfile) Resolve(key, transform string) (string, bool, error) {
	raw, ok := p.values[key]
	if !ok || raw == "" {
		return "", false, nil
	}
	value, err := Normalize(raw, transform)
	if err != nil {
		return "", false, fmt.Errorf("resolve %q: %w", key, err)
	}
	return value, true, nil
}

// Normalize applies a declarative transform to a profile value.
//
// Supported transforms:
//   - ""        no-op
//   - "upper"   uppercase
//   - "lower"   lowercase
//   - "trim"    trim surrounding whitespace
//   - "date:<layout>"  reformat an ISO date into the given Go layout
func Normalize(value, transform string) (string, error) {
	switch {
	case transform == "":
		return value, nil
	case transform == "upper":
		return strings.ToUpper(value), nil
	case transform == "lower":
		return strings.ToLower(value), nil
	case transform == "trim":
		return strings.TrimSpace(value), nil
	case strings.HasPrefix(transform, "date:"):
		layout := strings.TrimPrefix(transform, "date:")
		if layout == "" {
			return "", fmt.Errorf("date transform requires a layout")
		}
		t, err := time.Parse(ISODateLayout, value)
		if err != nil {
			return "", fmt.Errorf("value %q is not an ISO date: %w", value, err)
		}
		return t.Format(layout), nil
	default:
		return "", fmt.Errorf("unknown transform %q", transform)
	}
}
