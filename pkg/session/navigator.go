package session

import (
	"context"
	"time"

	"github.com/arrivalkit/formpilot/pkg/fill"
	"github.com/arrivalkit/formpilot/pkg/formdef"
)

type navOutcome int

const (
	// navAdvanced means the next-step marker appeared and the step index
	// was advanced.
	navAdvanced navOutcome = iota

	// navValidation means the form surfaced a validation error instead of
	// advancing.
	navValidation

	// navStalled means the trigger could not be invoked or neither marker
	// appeared within the wait budget.
	navStalled

	// navCancelled means the session was cancelled mid-navigation.
	navCancelled

	// navBusy means a navigation for this session is already in flight.
	// At most one continuation trigger is ever outstanding.
	navBusy
)

// advance invokes the step's continuation trigger and polls until the
// next-step marker or the validation-error marker appears. The step index
// only moves forward, and only here.
func (s *Session) advance(ctx context.Context, step *formdef.StepDefinition) navOutcome {
	s.mu.Lock()
	if s.navInFlight {
		s.mu.Unlock()
		return navBusy
	}
	s.navInFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.navInFlight = false
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return navCancelled
	}

	snap, err := s.cfg.Driver.Snapshot(ctx)
	if err != nil {
		s.warnf("step %s: pre-navigation snapshot failed: %v", step.StepID, err)
		return navStalled
	}

	// A validation error can surface during filling, before any trigger
	// is invoked. Clicking continue on top of one would race the form's
	// own error handling.
	if fill.Present(snap, step.ValidationErrorMarker) {
		s.infof("step %s: validation error present before continuation", step.StepID)
		return navValidation
	}

	trigger := fill.FindControl(snap, step.ContinuationTrigger)
	if trigger.Control == nil {
		s.warnf("step %s: continuation trigger not found", step.StepID)
		return navStalled
	}
	if err := s.cfg.Driver.Click(ctx, trigger.Control.Selector); err != nil {
		s.warnf("step %s: continuation click failed: %v", step.StepID, err)
		return navStalled
	}
	s.infof("step %s: continuation triggered", step.StepID)

	deadline := time.Now().Add(s.opts.MarkerWait)
	for {
		select {
		case <-ctx.Done():
			return navCancelled
		case <-time.After(s.opts.MarkerPollInterval):
		}

		snap, err := s.cfg.Driver.Snapshot(ctx)
		if err != nil {
			s.warnf("step %s: marker poll snapshot failed: %v", step.StepID, err)
		} else {
			if fill.Present(snap, step.ValidationErrorMarker) {
				s.infof("step %s: validation error marker appeared", step.StepID)
				return navValidation
			}
			if fill.Present(snap, step.NextStepMarker) {
				s.advanceStepIndex(ctx)
				return navAdvanced
			}
		}

		if time.Now().After(deadline) {
			s.warnf("step %s: no marker within %s", step.StepID, s.opts.MarkerWait)
			return navStalled
		}
	}
}

func (s *Session) advanceStepIndex(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.stepIndex++
	s.mu.Unlock()
}
