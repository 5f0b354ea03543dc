// Package session implements the form auto-fill engine: one FormSession
// drives one end-to-end automation run against one instance of the target
// form. The session owns the retry state, serializes all driver
// operations, pauses before the terminal step, and hands captured
// artifacts to the persistence boundary.
//
// The scheduling model is cooperative and timer-driven. All work for a
// session runs on a single goroutine; the host communicates through the
// session's channels and may cancel at any point. Every state mutation is
// guarded by a liveness check so nothing is applied after cancellation.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arrivalkit/formpilot/pkg/capture"
	"github.com/arrivalkit/formpilot/pkg/driver"
	"github.com/arrivalkit/formpilot/pkg/formdef"
	"github.com/arrivalkit/formpilot/pkg/logging"
	"github.com/arrivalkit/formpilot/pkg/profile"
	"github.com/arrivalkit/formpilot/pkg/store"
	"github.com/arrivalkit/formpilot/pkg/types"
)

// FieldStatus is the lifecycle state of one field attempt.
type FieldStatus string

const (
	// FieldPending means the field has not been filled yet.
	FieldPending FieldStatus = "pending"

	// FieldFilled means the field holds its resolved value.
	FieldFilled FieldStatus = "filled"

	// FieldFailed means the field exhausted its budget or hit a
	// non-retryable error.
	FieldFailed FieldStatus = "failed"

	// FieldSkipped means an optional field had no profile value and was
	// skipped by policy. Skipped fields appear in neither the filled nor
	// the failed list of the step result.
	FieldSkipped FieldStatus = "skipped"
)

// FieldAttempt tracks retry state for one field of the active step. It is
// owned exclusively by its session and destroyed with it.
type FieldAttempt struct {
	FieldKey  string
	Attempts  int
	Status    FieldStatus
	LastError error
}

// Options bound the engine's retry and wait budgets.
type Options struct {
	// TickInterval is the orchestrator's retry tick. Default 500ms.
	TickInterval time.Duration

	// MaxTicks caps orchestrator ticks per step. Default 15.
	MaxTicks int

	// MarkerWait bounds the wait for the next-step marker after a
	// continuation trigger. Default 10s.
	MarkerWait time.Duration

	// MarkerPollInterval is the poll interval during MarkerWait.
	// Default 250ms.
	MarkerPollInterval time.Duration

	// OptionPollInterval and OptionPollBudget bound searchable-select
	// option rendering waits; see the fill package defaults.
	OptionPollInterval time.Duration
	OptionPollBudget   time.Duration

	// EventBuffer sizes the event channel. Default 64.
	EventBuffer int
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = 500 * time.Millisecond
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = 15
	}
	if o.MarkerWait <= 0 {
		o.MarkerWait = 10 * time.Second
	}
	if o.MarkerPollInterval <= 0 {
		o.MarkerPollInterval = 250 * time.Millisecond
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	return o
}

// Config wires a session to its collaborators.
type Config struct {
	// DestinationID identifies the destination form.
	DestinationID string

	// PassportID identifies the traveler for persisted records.
	PassportID string

	// Form is the validated declarative table for the target form.
	Form *formdef.FormDefinition

	// Profile is the traveler data snapshot.
	Profile *profile.TravelerProfile

	// Driver is the browser surface boundary. Not shared across sessions.
	Driver driver.Driver

	// Store is the persistence boundary for captured artifacts.
	Store store.Store

	// Capture tunes artifact extraction for the destination.
	Capture capture.Options

	// Options bound retry and wait budgets.
	Options Options

	// Logger is optional; a discarding logger is not provided, logging is
	// simply skipped when nil.
	Logger *logging.Logger
}

// Session is one automation run. Create with New, drive with Start, and
// dispose with Cancel or by letting it complete.
type Session struct {
	id       string
	cfg      Config
	opts     Options
	channels *types.SessionChannels
	log      *logging.Logger

	mu          sync.Mutex
	status      types.SessionStatus
	stepIndex   int
	attempts    map[string]*FieldAttempt
	navInFlight bool
	running     bool

	runCtx context.Context
	cancel context.CancelFunc
}

// New creates a session. The form definition is validated before any
// driver interaction so misconfigured tables fail fast.
func New(cfg Config) (*Session, error) {
	if cfg.Form == nil {
		return nil, fmt.Errorf("session: form definition is required")
	}
	if err := cfg.Form.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if cfg.Profile == nil {
		return nil, fmt.Errorf("session: traveler profile is required")
	}
	if cfg.Driver == nil {
		return nil, fmt.Errorf("session: driver is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}

	opts := cfg.Options.withDefaults()
	return &Session{
		id:       uuid.New().String(),
		cfg:      cfg,
		opts:     opts,
		channels: types.NewSessionChannels(opts.EventBuffer),
		log:      cfg.Logger,
		status:   types.StatusRunning,
		attempts: make(map[string]*FieldAttempt),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Channels returns the host communication channels.
func (s *Session) Channels() *types.SessionChannels {
	return s.channels
}

// Status returns the current session status.
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// StepIndex returns the current step index. The index only ever advances;
// a field filled on a concluded step is never touched again.
func (s *Session) StepIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepIndex
}

// Attempts returns a copy of the current step's field attempts.
func (s *Session) Attempts() map[string]FieldAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]FieldAttempt, len(s.attempts))
	for k, a := range s.attempts {
		out[k] = *a
	}
	return out
}

// Start begins the automation loop in a goroutine. It returns an error if
// the session is already running or has been disposed.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("session: already running")
	}
	switch s.status {
	case types.StatusCancelled, types.StatusCompleted:
		s.mu.Unlock()
		return fmt.Errorf("session: disposed (status %s)", s.status)
	}
	s.running = true
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	go s.watchShutdown(runCtx)
	go s.run(runCtx, true)
	return nil
}

// Resume re-enters automation after pausedForValidation or stuck. The
// current step is re-attempted with a fresh retry arena; this is the
// caller-issued re-entry the pause states wait for.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("session: already running")
	}
	if s.status != types.StatusPausedForValidation && s.status != types.StatusStuck {
		s.mu.Unlock()
		return fmt.Errorf("session: cannot resume from status %s", s.status)
	}
	s.status = types.StatusRunning
	s.running = true
	if s.cancel != nil {
		// The paused cycle's run goroutine has already exited; cancelling
		// its context only releases that cycle's shutdown watcher.
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	go s.watchShutdown(runCtx)
	go s.run(runCtx, false)
	return nil
}

// Cancel stops the session immediately. The retry timer and any pending
// navigation wait are torn down and no state mutation is applied after
// the cancellation takes effect. Cancelling a paused session finalizes it
// directly since no goroutine is running on its behalf.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	running := s.running
	status := s.status
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if !running && status != types.StatusCompleted && status != types.StatusCancelled {
		s.finishCancelled()
	}
}

func (s *Session) watchShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-s.channels.Shutdown:
		s.Cancel()
	}
}

// run is the session's single automation goroutine.
func (s *Session) run(ctx context.Context, fresh bool) {
	defer func() {
		s.mu.Lock()
		s.running = false
		cancel := s.cancel
		status := s.status
		s.mu.Unlock()
		// Release the shutdown watcher once no further re-entry is
		// possible. Paused sessions keep it so a host Shutdown still
		// finalizes them.
		if status == types.StatusCompleted || status == types.StatusCancelled {
			cancel()
		}
	}()

	if fresh {
		s.emit(types.NewSessionStartedEvent(s.id))
		s.infof("session started destination=%s steps=%d", s.cfg.DestinationID, len(s.cfg.Form.Steps))
	} else {
		s.infof("session resumed at step index %d", s.StepIndex())
	}

	for {
		if s.finishIfCancelled(ctx) {
			return
		}

		step := s.cfg.Form.Step(s.StepIndex())
		if step == nil {
			s.emit(types.NewErrorEvent(s.id, fmt.Errorf("step index %d out of range", s.StepIndex())))
			return
		}

		s.resetAttempts(ctx, step)
		s.emit(types.NewStepStartedEvent(s.id, step.StepID))

		result := s.fillStep(ctx, step)
		if s.finishIfCancelled(ctx) {
			return
		}
		s.emit(types.NewStepResultEvent(s.id, result))
		s.infof("step %s concluded filled=%d failed=%d", step.StepID, len(result.Filled), len(result.Failed))

		if step.IsTerminal {
			// Automation never triggers the form's final submission.
			s.setStatus(ctx, types.StatusPausedAtTerminal)
			s.emit(types.NewStatusEvent(s.id, types.StatusPausedAtTerminal))
			s.awaitSubmission(ctx)
			return
		}

		switch s.advance(ctx, step) {
		case navAdvanced:
			next := s.cfg.Form.Step(s.StepIndex())
			s.emit(types.NewStepAdvancedEvent(s.id, next.StepID))
		case navValidation:
			s.setStatus(ctx, types.StatusPausedForValidation)
			s.emit(types.NewStatusEvent(s.id, types.StatusPausedForValidation))
			return
		case navStalled, navBusy:
			s.setStatus(ctx, types.StatusStuck)
			s.emit(types.NewStatusEvent(s.id, types.StatusStuck))
			return
		case navCancelled:
			s.finishCancelled()
			return
		}
	}
}

// awaitSubmission waits for the host's signal that the user triggered the
// final submission, then captures and persists the artifact. Capture and
// persistence failures are surfaced and can be retried by signalling
// again; they are never silently dropped.
func (s *Session) awaitSubmission(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.finishCancelled()
			return
		case <-s.channels.Submitted:
			artifact, err := capture.Extract(ctx, s.cfg.Driver, s.cfg.Capture)
			if err != nil {
				s.warnf("capture failed: %v", err)
				s.emit(types.NewCaptureFailedEvent(s.id, artifact, err))
				continue
			}
			s.emit(types.NewCaptureSucceededEvent(s.id, artifact))

			record := &store.ArrivalCardRecord{
				PassportID:    s.cfg.PassportID,
				DestinationID: s.cfg.DestinationID,
				DerivedKey:    store.DeriveKey(artifact, s.id),
				Artifact:      *artifact,
			}
			recordID, err := s.cfg.Store.Save(ctx, record)
			if err != nil {
				s.warnf("persistence failed: %v", err)
				s.emit(types.NewErrorEvent(s.id, fmt.Errorf("failed to persist record: %w", err)))
				continue
			}
			s.emit(types.NewRecordSavedEvent(s.id, recordID))

			s.setStatus(ctx, types.StatusCompleted)
			s.emit(types.NewStatusEvent(s.id, types.StatusCompleted))
			s.channels.Close()
			return
		}
	}
}

func (s *Session) finishIfCancelled(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	s.finishCancelled()
	return true
}

func (s *Session) finishCancelled() {
	s.mu.Lock()
	already := s.status == types.StatusCancelled
	s.status = types.StatusCancelled
	s.mu.Unlock()
	if !already {
		s.emit(types.NewStatusEvent(s.id, types.StatusCancelled))
		s.infof("session cancelled")
		s.channels.Close()
	}
}

// setStatus applies a status transition unless the session was cancelled.
func (s *Session) setStatus(ctx context.Context, status types.SessionStatus) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == types.StatusCancelled {
		return
	}
	s.status = status
}

// emit delivers an event to the host. Progress events are dropped when
// the buffer is full, but terminal and pause events wait for buffer room
// so a host that only watches Event cannot miss a final or actionable
// status. The wait is bounded so a host that stopped reading entirely
// cannot wedge teardown.
func (s *Session) emit(event *types.SessionEvent) {
	defer func() {
		// Emitting after Close during teardown races is a non-event.
		_ = recover()
	}()
	if event.IsTerminalEvent() || event.IsPauseEvent() {
		select {
		case s.channels.Event <- event:
		case <-time.After(5 * time.Second):
			s.warnf("event buffer full, %s undelivered", event.Type)
		}
		return
	}
	select {
	case s.channels.Event <- event:
	default:
		s.warnf("event buffer full, dropping %s", event.Type)
	}
}

func (s *Session) infof(format string, v ...interface{}) {
	if s.log != nil {
		s.log.Infof("[%s] "+format, append([]interface{}{s.id}, v...)...)
	}
}

func (s *Session) warnf(format string, v ...interface{}) {
	if s.log != nil {
		s.log.Warnf("[%s] "+format, append([]interface{}{s.id}, v...)...)
	}
}
