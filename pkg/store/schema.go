package store

// Schema defines the SQLite schema for arrival card records. The derived
// key is unique so capture upserts stay idempotent across retries.
const Schema = `
CREATE TABLE IF NOT EXISTS arrival_cards (
    id TEXT PRIMARY KEY,
    passport_id TEXT NOT NULL,
    destination_id TEXT NOT NULL,
    derived_key TEXT NOT NULL UNIQUE,
    confirmation_number TEXT,
    code_payload TEXT,
    document_ref TEXT,
    captured_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_arrival_cards_passport ON arrival_cards(passport_id);
CREATE INDEX IF NOT EXISTS idx_arrival_cards_destination ON arrival_cards(destination_id);
`
