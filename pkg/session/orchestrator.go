package session

import (
	"context"
	"time"

	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/fill"
	"github.com/arrivalkit/formpilot/pkg/formdef"
	"github.com/arrivalkit/formpilot/pkg/types"
)

// resetAttempts builds a fresh retry arena for the step.
func (s *Session) resetAttempts(ctx context.Context, step *formdef.StepDefinition) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.attempts = make(map[string]*FieldAttempt, len(step.Fields))
	for i := range step.Fields {
		f := &step.Fields[i]
		s.attempts[f.Key] = &FieldAttempt{FieldKey: f.Key, Status: FieldPending}
	}
	s.mu.Unlock()
}

// fillStep runs the tick loop for one step. Each tick takes one page
// snapshot and attempts every unsettled field against it, so a control
// that appears between ticks is picked up on the next one. The loop ends
// when every field is settled or the tick budget is exhausted; remaining
// pending fields are settled as failed.
func (s *Session) fillStep(ctx context.Context, step *formdef.StepDefinition) *types.StepResult {
	values := s.resolveValues(ctx, step)

	for tick := 1; tick <= s.opts.MaxTicks; tick++ {
		if ctx.Err() != nil {
			return s.stepResult(step)
		}

		snap, err := s.cfg.Driver.Snapshot(ctx)
		if err != nil {
			s.warnf("step %s tick %d: snapshot failed: %v", step.StepID, tick, err)
		} else {
			s.attemptFields(ctx, step, snap, values)
		}

		if ctx.Err() != nil || s.pendingCount() == 0 {
			break
		}
		if tick < s.opts.MaxTicks {
			select {
			case <-ctx.Done():
				return s.stepResult(step)
			case <-time.After(s.opts.TickInterval):
			}
		}
	}

	s.failPending(ctx, step)
	return s.stepResult(step)
}

// resolveValues resolves and normalizes every field's profile value once
// per step. Missing values settle the field immediately: skipped when the
// field is optional, failed otherwise. The profile never changes during a
// session so re-resolving per tick would be wasted work.
func (s *Session) resolveValues(ctx context.Context, step *formdef.StepDefinition) map[string]string {
	values := make(map[string]string, len(step.Fields))
	for i := range step.Fields {
		f := &step.Fields[i]
		value, ok, err := s.cfg.Profile.Resolve(f.ProfileKey, f.Transform)
		if err != nil {
			s.settle(ctx, f.Key, FieldFailed, err)
			s.emit(types.NewFieldFailedEvent(s.id, step.StepID, f.Key, err))
			continue
		}
		if !ok {
			if f.Optional {
				s.settle(ctx, f.Key, FieldSkipped, nil)
				s.infof("step %s: optional field %s has no profile value, skipping", step.StepID, f.Key)
			} else {
				s.settle(ctx, f.Key, FieldFailed, fill.ErrValueMissing)
				s.emit(types.NewFieldFailedEvent(s.id, step.StepID, f.Key, fill.ErrValueMissing))
			}
			continue
		}
		values[f.Key] = value
	}
	return values
}

// attemptFields tries every unsettled field once against the snapshot.
// Fields with an unmet dependency stay pending for a later tick; they
// consume no attempt until their parent is filled. One snapshot serves
// the whole pass, so a child enabled by a parent filled in the same pass
// is seen on the next tick's snapshot.
func (s *Session) attemptFields(ctx context.Context, step *formdef.StepDefinition, snap *driver.PageSnapshot, values map[string]string) {
	for i := range step.Fields {
		if ctx.Err() != nil {
			return
		}
		f := &step.Fields[i]
		if s.attemptStatus(f.Key) != FieldPending {
			continue
		}
		if f.DependsOn != "" && s.attemptStatus(f.DependsOn) != FieldFilled {
			continue
		}

		proc, err := fill.StrategyFor(f.ControlType)
		if err != nil {
			// Unreachable for validated definitions.
			s.settle(ctx, f.Key, FieldFailed, err)
			s.emit(types.NewFieldFailedEvent(s.id, step.StepID, f.Key, err))
			continue
		}

		result, err := proc(ctx, fill.Request{
			Field:              f,
			Value:              values[f.Key],
			Snapshot:           snap,
			Driver:             s.cfg.Driver,
			OptionPollInterval: s.opts.OptionPollInterval,
			OptionPollBudget:   s.opts.OptionPollBudget,
		})
		s.recordAttempt(ctx, f.Key, err)

		switch {
		case err == nil:
			s.settle(ctx, f.Key, FieldFilled, nil)
			s.emit(types.NewFieldFilledEvent(s.id, step.StepID, f.Key))
			if result != nil && result.Warning != "" {
				s.warnf("step %s field %s: %s", step.StepID, f.Key, result.Warning)
			}
		case !fill.Retryable(err):
			s.settle(ctx, f.Key, FieldFailed, err)
			s.emit(types.NewFieldFailedEvent(s.id, step.StepID, f.Key, err))
		default:
			// Retryable; the field stays pending for the next tick.
		}
	}
}

// failPending settles every still-pending field as failed once the tick
// budget is spent and emits the failure.
func (s *Session) failPending(ctx context.Context, step *formdef.StepDefinition) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	var exhausted []*FieldAttempt
	for i := range step.Fields {
		a := s.attempts[step.Fields[i].Key]
		if a != nil && a.Status == FieldPending {
			a.Status = FieldFailed
			if a.LastError == nil {
				a.LastError = fill.ErrFieldNotFound
			}
			exhausted = append(exhausted, a)
		}
	}
	s.mu.Unlock()

	for _, a := range exhausted {
		s.emit(types.NewFieldFailedEvent(s.id, step.StepID, a.FieldKey, a.LastError))
	}
}

// stepResult summarizes the step's settled fields in declaration order.
// Skipped optional fields appear in neither list.
func (s *Session) stepResult(step *formdef.StepDefinition) *types.StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &types.StepResult{StepID: step.StepID}
	for i := range step.Fields {
		a := s.attempts[step.Fields[i].Key]
		if a == nil {
			continue
		}
		switch a.Status {
		case FieldFilled:
			result.Filled = append(result.Filled, a.FieldKey)
		case FieldFailed, FieldPending:
			result.Failed = append(result.Failed, a.FieldKey)
		}
	}
	return result
}

func (s *Session) attemptStatus(key string) FieldStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[key]; ok {
		return a.Status
	}
	return FieldPending
}

func (s *Session) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.attempts {
		if a.Status == FieldPending {
			n++
		}
	}
	return n
}

// settle applies a terminal field status unless the session was cancelled.
func (s *Session) settle(ctx context.Context, key string, status FieldStatus, err error) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[key]; ok {
		a.Status = status
		a.LastError = err
	}
}

// recordAttempt bumps the attempt counter and remembers the last error.
func (s *Session) recordAttempt(ctx context.Context, key string, err error) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[key]; ok {
		a.Attempts++
		if err != nil {
			a.LastError = err
		}
	}
}
