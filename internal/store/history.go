package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leadscout-engine/internal/domain"
)

// AppendHistory records one adapter invocation outcome. Entries are never
// updated or deleted except by whole-store deletion.
func (s *ClientStore) AppendHistory(ctx context.Context, status string, leadsFound int, errMsg string) error {
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scan_history (status, leads_found, error, scanned_at)
VALUES (?, ?, ?, ?);`,
		status, leadsFound, errVal, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append scan history: %w", err)
	}
	return nil
}

// History returns the most recent entries, newest first.
func (s *ClientStore) History(ctx context.Context, limit int) ([]domain.ScanHistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, status, leads_found, error, scanned_at
FROM scan_history
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	defer rows.Close()

	var out []domain.ScanHistoryEntry
	for rows.Next() {
		var e domain.ScanHistoryEntry
		var errVal sql.NullString
		var scannedAt string
		if err := rows.Scan(&e.ID, &e.Status, &e.LeadsFound, &errVal, &scannedAt); err != nil {
			return nil, err
		}
		e.Error = errVal.String
		e.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
