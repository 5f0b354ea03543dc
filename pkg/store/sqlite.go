package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the file-backed Store implementation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save implements Store. The upsert is keyed by derived_key; a second save
// with the same key refreshes the artifact fields and keeps the original
// record id and creation time.
func (s *SQLiteStore) Save(ctx context.Context, record *ArrivalCardRecord) (string, error) {
	if record.DerivedKey == "" {
		return "", fmt.Errorf("store: derived key is required")
	}
	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}

	query := `
		INSERT INTO arrival_cards (id, passport_id, destination_id, derived_key,
			confirmation_number, code_payload, document_ref, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(derived_key) DO UPDATE SET
			confirmation_number = excluded.confirmation_number,
			code_payload = excluded.code_payload,
			document_ref = excluded.document_ref,
			captured_at = excluded.captured_at
	`
	_, err := s.db.ExecContext(ctx, query,
		id, record.PassportID, record.DestinationID, record.DerivedKey,
		record.Artifact.ConfirmationNumber, record.Artifact.CodePayload,
		record.Artifact.DocumentRef, record.Artifact.CapturedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to upsert record: %w", err)
	}

	// The conflict path keeps the existing id; read it back by key.
	var storedID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM arrival_cards WHERE derived_key = ?`, record.DerivedKey).Scan(&storedID)
	if err != nil {
		return "", fmt.Errorf("failed to read record id: %w", err)
	}
	record.ID = storedID
	return storedID, nil
}

// ListByPassport implements Store.
func (s *SQLiteStore) ListByPassport(ctx context.Context, passportID string) ([]*ArrivalCardRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, passport_id, destination_id, derived_key,
		       confirmation_number, code_payload, document_ref, captured_at, created_at
		FROM arrival_cards
		WHERE passport_id = ?
		ORDER BY created_at DESC
	`, passportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*ArrivalCardRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*ArrivalCardRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, passport_id, destination_id, derived_key,
		       confirmation_number, code_payload, document_ref, captured_at, created_at
		FROM arrival_cards
		WHERE id = ?
	`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM arrival_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*ArrivalCardRecord, error) {
	var record ArrivalCardRecord
	var capturedAt, createdAt string
	err := row.Scan(&record.ID, &record.PassportID, &record.DestinationID,
		&record.DerivedKey, &record.Artifact.ConfirmationNumber,
		&record.Artifact.CodePayload, &record.Artifact.DocumentRef,
		&capturedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, capturedAt); err == nil {
		record.Artifact.CapturedAt = t
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, createdAt); err == nil {
			record.CreatedAt = t
			break
		}
	}
	return &record, nil
}
