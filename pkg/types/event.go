package types

import "time"

// SessionEventType defines the type of event emitted by a form session.
type SessionEventType string

const (
	EventTypeSessionStarted      SessionEventType = "session_started"       // EventTypeSessionStarted indicates automation has started for a session.
	EventTypeStepStarted         SessionEventType = "step_started"          // EventTypeStepStarted indicates the orchestrator began filling a step.
	EventTypeFieldFilled         SessionEventType = "field_filled"          // EventTypeFieldFilled indicates a single field reached the filled state.
	EventTypeFieldFailed         SessionEventType = "field_failed"          // EventTypeFieldFailed indicates a field exhausted its retry budget.
	EventTypeStepResult          SessionEventType = "step_result"           // EventTypeStepResult carries the per-step fill summary.
	EventTypeStepAdvanced        SessionEventType = "step_advanced"         // EventTypeStepAdvanced indicates navigation to the next step succeeded.
	EventTypePausedAtTerminal    SessionEventType = "paused_at_terminal"    // EventTypePausedAtTerminal indicates automation stopped before the submit step.
	EventTypePausedForValidation SessionEventType = "paused_for_validation" // EventTypePausedForValidation indicates the target form rejected a value.
	EventTypeStuck               SessionEventType = "stuck"                 // EventTypeStuck indicates navigation stalled and needs caller intervention.
	EventTypeSessionCancelled    SessionEventType = "session_cancelled"     // EventTypeSessionCancelled indicates the caller cancelled the session.
	EventTypeSessionCompleted    SessionEventType = "session_completed"     // EventTypeSessionCompleted indicates the session finished end to end.
	EventTypeCaptureSucceeded    SessionEventType = "capture_succeeded"     // EventTypeCaptureSucceeded carries the captured submission artifact.
	EventTypeCaptureFailed       SessionEventType = "capture_failed"        // EventTypeCaptureFailed indicates no artifact could be extracted.
	EventTypeRecordSaved         SessionEventType = "record_saved"          // EventTypeRecordSaved indicates the artifact was durably persisted.
	EventTypeError               SessionEventType = "error"                 // EventTypeError indicates an unexpected error during automation.
)

// SessionStatus describes the lifecycle state of a form session.
type SessionStatus string

const (
	StatusRunning             SessionStatus = "running"
	StatusPausedForValidation SessionStatus = "pausedForValidation"
	StatusPausedAtTerminal    SessionStatus = "pausedAtTerminal"
	StatusStuck               SessionStatus = "stuck"
	StatusCancelled           SessionStatus = "cancelled"
	StatusCompleted           SessionStatus = "completed"
)

// StepResult summarizes the outcome of one orchestrator run over a step.
type StepResult struct {
	// StepID identifies the step the result belongs to.
	StepID string

	// Filled lists the field keys that reached the filled state.
	Filled []string

	// Failed lists the field keys that exhausted their retry budget.
	Failed []string
}

// SubmissionArtifact is the captured proof of a completed submission.
// At least one of ConfirmationNumber, CodePayload, or DocumentRef must be
// set for a capture to count as successful.
type SubmissionArtifact struct {
	// ConfirmationNumber is the reference number shown on the result page.
	ConfirmationNumber string

	// CodePayload is the raw payload of a scannable code image (data URI or URL).
	CodePayload string

	// DocumentRef is a reference to a downloadable confirmation document.
	DocumentRef string

	// CapturedAt is when the artifact was extracted.
	CapturedAt time.Time
}

// Empty reports whether no artifact field was found.
func (a *SubmissionArtifact) Empty() bool {
	return a == nil || (a.ConfirmationNumber == "" && a.CodePayload == "" && a.DocumentRef == "")
}

// SessionEvent represents an event emitted by a form session during automation.
type SessionEvent struct {
	// Type indicates the kind of event.
	Type SessionEventType

	// SessionID identifies the emitting session.
	SessionID string

	// StepID identifies the step the event relates to, if any.
	StepID string

	// FieldKey identifies the field the event relates to, if any.
	FieldKey string

	// Status is the session status after the event, for status-change events.
	Status SessionStatus

	// StepResult carries the fill summary for step result events.
	StepResult *StepResult

	// Artifact carries the captured artifact for capture events.
	Artifact *SubmissionArtifact

	// RecordID identifies the persisted record for record saved events.
	RecordID string

	// Error contains error information for error and failure events.
	Error error

	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}
}

// NewSessionStartedEvent creates a session started event.
func NewSessionStartedEvent(sessionID string) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeSessionStarted,
		SessionID: sessionID,
		Status:    StatusRunning,
		Metadata:  make(map[string]interface{}),
	}
}

// NewStepStartedEvent creates a step started event.
func NewStepStartedEvent(sessionID, stepID string) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeStepStarted,
		SessionID: sessionID,
		StepID:    stepID,
		Metadata:  make(map[string]interface{}),
	}
}

// NewFieldFilledEvent creates a field filled event.
func NewFieldFilledEvent(sessionID, stepID, fieldKey string) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeFieldFilled,
		SessionID: sessionID,
		StepID:    stepID,
		FieldKey:  fieldKey,
		Metadata:  make(map[string]interface{}),
	}
}

// NewFieldFailedEvent creates a field failed event.
func NewFieldFailedEvent(sessionID, stepID, fieldKey string, err error) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeFieldFailed,
		SessionID: sessionID,
		StepID:    stepID,
		FieldKey:  fieldKey,
		Error:     err,
		Metadata:  make(map[string]interface{}),
	}
}

// NewStepResultEvent creates a step result event.
func NewStepResultEvent(sessionID string, result *StepResult) *SessionEvent {
	return &SessionEvent{
		Type:       EventTypeStepResult,
		SessionID:  sessionID,
		StepID:     result.StepID,
		StepResult: result,
		Metadata:   make(map[string]interface{}),
	}
}

// NewStepAdvancedEvent creates a step advanced event.
func NewStepAdvancedEvent(sessionID, stepID string) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeStepAdvanced,
		SessionID: sessionID,
		StepID:    stepID,
		Metadata:  make(map[string]interface{}),
	}
}

// NewStatusEvent creates a status-change event for paused, stuck, cancelled,
// and completed transitions.
func NewStatusEvent(sessionID string, status SessionStatus) *SessionEvent {
	var eventType SessionEventType
	switch status {
	case StatusPausedAtTerminal:
		eventType = EventTypePausedAtTerminal
	case StatusPausedForValidation:
		eventType = EventTypePausedForValidation
	case StatusStuck:
		eventType = EventTypeStuck
	case StatusCancelled:
		eventType = EventTypeSessionCancelled
	case StatusCompleted:
		eventType = EventTypeSessionCompleted
	default:
		eventType = EventTypeError
	}
	return &SessionEvent{
		Type:      eventType,
		SessionID: sessionID,
		Status:    status,
		Metadata:  make(map[string]interface{}),
	}
}

// NewCaptureSucceededEvent creates a capture succeeded event.
func NewCaptureSucceededEvent(sessionID string, artifact *SubmissionArtifact) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeCaptureSucceeded,
		SessionID: sessionID,
		Artifact:  artifact,
		Metadata:  make(map[string]interface{}),
	}
}

// NewCaptureFailedEvent creates a capture failed event. The partial artifact,
// if any fields were found, is still attached for caller decision.
func NewCaptureFailedEvent(sessionID string, partial *SubmissionArtifact, err error) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeCaptureFailed,
		SessionID: sessionID,
		Artifact:  partial,
		Error:     err,
		Metadata:  make(map[string]interface{}),
	}
}

// NewRecordSavedEvent creates a record saved event.
func NewRecordSavedEvent(sessionID, recordID string) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeRecordSaved,
		SessionID: sessionID,
		RecordID:  recordID,
		Metadata:  make(map[string]interface{}),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(sessionID string, err error) *SessionEvent {
	return &SessionEvent{
		Type:      EventTypeError,
		SessionID: sessionID,
		Error:     err,
		Metadata:  make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *SessionEvent) WithMetadata(key string, value interface{}) *SessionEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsFieldEvent returns true if this is any per-field event.
func (e *SessionEvent) IsFieldEvent() bool {
	return e.Type == EventTypeFieldFilled || e.Type == EventTypeFieldFailed
}

// IsPauseEvent returns true if this event pauses automation for the caller.
func (e *SessionEvent) IsPauseEvent() bool {
	return e.Type == EventTypePausedAtTerminal ||
		e.Type == EventTypePausedForValidation ||
		e.Type == EventTypeStuck
}

// IsCaptureEvent returns true if this is any capture-related event.
func (e *SessionEvent) IsCaptureEvent() bool {
	return e.Type == EventTypeCaptureSucceeded ||
		e.Type == EventTypeCaptureFailed ||
		e.Type == EventTypeRecordSaved
}

// IsTerminalEvent returns true if no further events will follow.
func (e *SessionEvent) IsTerminalEvent() bool {
	return e.Type == EventTypeSessionCancelled || e.Type == EventTypeSessionCompleted
}
