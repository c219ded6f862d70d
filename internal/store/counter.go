package store

import (
	"context"
	"fmt"
)

// NextID atomically advances the named sequence and returns the new value.
// Values for a given name are strictly increasing and never re-used.
func (s *Store) NextID(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO counters (name, seq) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET seq = seq + 1
		 RETURNING seq`, name).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("counter next %s: %w", name, err)
	}
	return seq, nil
}

// SyncCounter raises the named sequence to at least floor. Invoked after bulk
// imports so subsequent NextID calls cannot collide with imported ids.
func (s *Store) SyncCounter(ctx context.Context, name string, floor int64) error {
	_, err := s.exec(ctx, "counter sync "+name,
		`INSERT INTO counters (name, seq) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET seq = MAX(seq, excluded.seq)`, name, floor)
	return err
}

// CurrentSeq returns the current value of the named sequence (0 when the
// sequence has never been advanced).
func (s *Store) CurrentSeq(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM counters WHERE name = ?`, name).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("counter current %s: %w", name, err)
	}
	return seq, nil
}
