package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const defaultProcessedTable = "uppf_processed_events"

var errProcessedStoreArgs = errors.New("processed store: event id and consumer name required")

// ProcessedStore keeps the per-consumer ledger of handled claim events in
// Postgres. Each row is (event_id, consumer_name), so the notifier and
// the audit consumer of the same ClaimPaid event dedupe independently.
type ProcessedStore struct {
	db    *sql.DB
	table string
}

// NewProcessedStore constructs a processed-event store.
func NewProcessedStore(db *sql.DB, opts ...ProcessedOption) *ProcessedStore {
	store := &ProcessedStore{db: db, table: defaultProcessedTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// ProcessedOption configures the processed store.
type ProcessedOption func(*ProcessedStore)

// WithProcessedTable overrides the ledger table name.
func WithProcessedTable(table string) ProcessedOption {
	return func(store *ProcessedStore) {
		if table != "" {
			store.table = table
		}
	}
}

// HasProcessed reports whether the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error) {
	if err := s.check(eventID, consumerName); err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
SELECT EXISTS (
	SELECT 1 FROM %s WHERE event_id = $1 AND consumer_name = $2
)`, s.table)
	var seen bool
	if err := s.db.QueryRowContext(ctx, query, eventID, consumerName).Scan(&seen); err != nil {
		return false, err
	}
	return seen, nil
}

// MarkProcessed records the event as handled by the consumer. Replays hit
// the unique pair and are absorbed by ON CONFLICT.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, eventID, consumerName string) error {
	if err := s.check(eventID, consumerName); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (event_id, consumer_name, processed_at)
VALUES ($1, $2, $3)
ON CONFLICT (event_id, consumer_name)
DO NOTHING`, s.table)
	_, err := s.db.ExecContext(ctx, query, eventID, consumerName, time.Now().UTC())
	return err
}

func (s *ProcessedStore) check(eventID, consumerName string) error {
	if s == nil || s.db == nil {
		return errors.New("processed store: nil db")
	}
	if eventID == "" || consumerName == "" {
		return errProcessedStoreArgs
	}
	return nil
}
