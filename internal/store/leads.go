package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"leadscout-engine/internal/domain"
)

// ClientStore is one client's lead/history database.
type ClientStore struct {
	Email string
	Path  string
	db    *sql.DB
}

var controlChars = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00A0}]`)

// cleanText strips zero-width junk that Maps detail panes embed in text nodes.
func cleanText(s string) string {
	s = controlChars.ReplaceAllString(s, " ")
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// InsertLead stores a lead under its composite key. A key collision is a
// normal outcome reported as inserted=false, not an error.
func (s *ClientStore) InsertLead(ctx context.Context, l domain.Lead) (inserted bool, err error) {
	foundAt := l.FoundAt
	if foundAt.IsZero() {
		foundAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO leads (
  composite_key, source, source_id, business_name, street, city, zip_code,
  phone, website, map_url, review_count, rating, category,
  search_keyword, target_city, found_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		l.CompositeKey(),
		string(l.Source),
		l.SourceID,
		cleanText(l.BusinessName),
		cleanText(l.Street),
		cleanText(l.City),
		cleanText(l.ZipCode),
		cleanText(l.Phone),
		l.Website,
		l.MapURL,
		l.ReviewCount,
		l.Rating,
		cleanText(l.Category),
		l.SearchKeyword,
		l.TargetCity,
		foundAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("insert lead: %w", err)
	}

	// INSERT OR IGNORE does not report rows affected reliably across drivers;
	// changes() does.
	var changes int
	if e := s.db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

// ExistsByKey reports whether the composite key is already stored.
func (s *ClientStore) ExistsByKey(ctx context.Context, sourceID, keyword, targetCity string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM leads WHERE composite_key = ? LIMIT 1;`,
		domain.CompositeKey(sourceID, keyword, targetCity),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by key: %w", err)
	}
	return true, nil
}

// ExistsByFuzzy matches when any of name/phone/street equals a stored lead
// for the same keyword and city. Deliberately loose: the Yelp source has no
// identity comparable to a Maps place id until after mapping, and near
// duplicates would otherwise slip through. Empty phone/street never match.
func (s *ClientStore) ExistsByFuzzy(ctx context.Context, name, phone, street, keyword, targetCity string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM leads
WHERE (business_name = ?
   OR (phone != '' AND phone = ?)
   OR (street != '' AND street = ?))
  AND search_keyword = ?
  AND target_city = ?
LIMIT 1;`,
		cleanText(name), cleanText(phone), cleanText(street), keyword, targetCity,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by fuzzy: %w", err)
	}
	return true, nil
}

func (s *ClientStore) DeleteLead(ctx context.Context, id int64) (deleted bool, err error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete lead: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountLeads counts stored leads, optionally only those found at or after
// since.
func (s *ClientStore) CountLeads(ctx context.Context, since time.Time) (int, error) {
	var n int
	var err error
	if since.IsZero() {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads;`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM leads WHERE found_at >= ?;`,
			since.UTC().Format(time.RFC3339),
		).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

// ListLeads returns all leads newest first, with the client email attached.
func (s *ClientStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, source_id, business_name, street, city, zip_code,
       phone, website, map_url, review_count, rating, category,
       search_keyword, target_city, found_at
FROM leads
ORDER BY found_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		var source, foundAt string
		if err := rows.Scan(
			&l.ID, &source, &l.SourceID, &l.BusinessName, &l.Street, &l.City,
			&l.ZipCode, &l.Phone, &l.Website, &l.MapURL, &l.ReviewCount,
			&l.Rating, &l.Category, &l.SearchKeyword, &l.TargetCity, &foundAt,
		); err != nil {
			return nil, err
		}
		l.Source = domain.SourceKind(source)
		l.FoundAt, _ = time.Parse(time.RFC3339, foundAt)
		l.ClientEmail = s.Email
		out = append(out, l)
	}
	return out, rows.Err()
}
