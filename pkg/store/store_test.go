package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrivalkit/formpilot/pkg/types"
)

func TestDeriveKey(t *testing.T) {
	artifact := &types.SubmissionArtifact{ConfirmationNumber: "TH-12345"}
	assert.Equal(t, "TH-12345", DeriveKey(artifact, "session-1"))

	assert.Equal(t, "session-1", DeriveKey(&types.SubmissionArtifact{}, "session-1"))
	assert.Equal(t, "session-1", DeriveKey(nil, "session-1"))
}

// storeUnderTest runs the same contract suite against both implementations.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func sampleRecord(sessionID string) *ArrivalCardRecord {
	artifact := types.SubmissionArtifact{
		ConfirmationNumber: "TH-900114",
		CodePayload:        "data:image/png;base64,abc",
		CapturedAt:         time.Now().UTC().Truncate(time.Second),
	}
	return &ArrivalCardRecord{
		PassportID:    "N1234567",
		DestinationID: "th",
		DerivedKey:    DeriveKey(&artifact, sessionID),
		Artifact:      artifact,
	}
}

func TestStore_SaveIsIdempotentByDerivedKey(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := s.Save(ctx, sampleRecord("sess-1"))
			require.NoError(t, err)

			// Second capture with the same confirmation number must not
			// create a second record.
			again := sampleRecord("sess-2")
			again.Artifact.DocumentRef = "confirmation.pdf"
			second, err := s.Save(ctx, again)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			records, err := s.ListByPassport(ctx, "N1234567")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "confirmation.pdf", records[0].Artifact.DocumentRef)
		})
	}
}

func TestStore_GetAndDelete(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.Save(ctx, sampleRecord("sess-1"))
			require.NoError(t, err)

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "TH-900114", got.Artifact.ConfirmationNumber)
			assert.Equal(t, "th", got.DestinationID)

			require.NoError(t, s.Delete(ctx, id))
			_, err = s.Get(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
		})
	}
}

func TestStore_ListByPassportFiltersAndSorts(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			mine := sampleRecord("sess-1")
			_, err := s.Save(ctx, mine)
			require.NoError(t, err)

			other := sampleRecord("sess-2")
			other.PassportID = "X7654321"
			other.DerivedKey = "OTHER-1"
			_, err = s.Save(ctx, other)
			require.NoError(t, err)

			records, err := s.ListByPassport(ctx, "N1234567")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "N1234567", records[0].PassportID)

			none, err := s.ListByPassport(ctx, "UNKNOWN")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestSQLiteStore_RequiresDerivedKey(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	defer s.Close()

	record := sampleRecord("sess-1")
	record.DerivedKey = ""
	_, err = s.Save(context.Background(), record)
	assert.Error(t, err)
}
