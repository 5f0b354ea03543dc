package types

import "sync"

// SessionChannels groups the communication channels between a form session
// and its host application. The host reads progress from Event, signals the
// user-driven final submission on Submitted, and requests teardown by
// closing Shutdown. Done is closed by the session once it has fully stopped.
type SessionChannels struct {
	// Event delivers progress and result events to the host.
	Event chan *SessionEvent

	// Submitted is signalled by the host after the user triggered the
	// target form's final submission. The session never submits itself.
	Submitted chan struct{}

	// Shutdown is closed by the host to cancel the session.
	Shutdown chan struct{}

	// Done is closed by the session when it has fully stopped.
	Done chan struct{}

	closeOnce sync.Once
}

// NewSessionChannels creates channels with the given event buffer size.
func NewSessionChannels(bufferSize int) *SessionChannels {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &SessionChannels{
		Event:     make(chan *SessionEvent, bufferSize),
		Submitted: make(chan struct{}, 1),
		Shutdown:  make(chan struct{}),
		Done:      make(chan struct{}),
	}
}

// Close closes the session-owned channels. Safe to call multiple times.
func (c *SessionChannels) Close() {
	c.closeOnce.Do(func() {
		close(c.Event)
		close(c.Done)
	})
}
