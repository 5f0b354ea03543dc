// Package store is the durable persistence boundary for captured arrival
// card records. Records outlive the form sessions that created them and
// are never auto-deleted by the engine.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/arrivalkit/formpilot/pkg/types"
)

// ErrNotFound indicates no record exists for the requested id.
var ErrNotFound = errors.New("store: record not found")

// ArrivalCardRecord links a captured submission artifact to a traveler
// and destination.
type ArrivalCardRecord struct {
	// ID is the record's storage id.
	ID string

	// PassportID identifies the traveler the record belongs to.
	PassportID string

	// DestinationID identifies the destination form that was submitted.
	DestinationID string

	// DerivedKey is the idempotency key: the confirmation number when
	// present, else the originating session id.
	DerivedKey string

	// Artifact is the captured submission proof.
	Artifact types.SubmissionArtifact

	// CreatedAt is when the record was first persisted.
	CreatedAt time.Time
}

// DeriveKey computes the idempotent upsert key for an artifact captured by
// the given session.
func DeriveKey(artifact *types.SubmissionArtifact, sessionID string) string {
	if artifact != nil && artifact.ConfirmationNumber != "" {
		return artifact.ConfirmationNumber
	}
	return sessionID
}

// Store persists arrival card records with at-least-once write semantics.
// Save is an idempotent upsert keyed by DerivedKey: saving the same key
// twice yields exactly one record.
type Store interface {
	// Save upserts a record by its derived key and returns the record id.
	Save(ctx context.Context, record *ArrivalCardRecord) (string, error)

	// ListByPassport returns all records for a passport, newest first.
	ListByPassport(ctx context.Context, passportID string) ([]*ArrivalCardRecord, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*ArrivalCardRecord, error)

	// Delete removes the record with the given id, or ErrNotFound.
	Delete(ctx context.Context, id string) error
}
