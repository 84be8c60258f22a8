package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"renderfarm/internal/services"
)

// Alert is a user-facing error or notice. Transient alerts carry an expiry;
// persistent ones stay until cleared.
type Alert struct {
	ID        int64
	Kind      services.Kind
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Transient reports whether the alert clears itself.
func (a Alert) Transient() bool {
	return !a.ExpiresAt.IsZero()
}

// ActiveAt reports whether the alert is visible at now.
func (a Alert) ActiveAt(now time.Time) bool {
	return a.ExpiresAt.IsZero() || now.Before(a.ExpiresAt)
}

// AddAlert records an alert. A zero ExpiresAt makes it persistent.
func (s *Store) AddAlert(ctx context.Context, a Alert) (Alert, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	var expires any
	if !a.ExpiresAt.IsZero() {
		expires = formatTime(a.ExpiresAt)
	}
	res, err := s.exec(ctx,
		"INSERT INTO alerts (kind, message, created_at, expires_at) VALUES (?, ?, ?, ?)",
		string(a.Kind), a.Message, formatTime(a.CreatedAt), expires)
	if err != nil {
		return a, fmt.Errorf("insert alert: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return a, fmt.Errorf("alert id: %w", err)
	}
	return a, nil
}

// ActiveAlerts returns alerts visible at now, oldest first.
func (s *Store) ActiveAlerts(ctx context.Context, now time.Time) ([]Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, message, created_at, expires_at FROM alerts
         WHERE expires_at IS NULL OR expires_at > ?
         ORDER BY id`, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var (
			a       Alert
			kind    string
			created string
			expires sql.NullString
		)
		if err := rows.Scan(&a.ID, &kind, &a.Message, &created, &expires); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Kind = services.Kind(kind)
		a.CreatedAt = parseTime(created)
		if expires.Valid {
			a.ExpiresAt = parseTime(expires.String)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PruneAlerts deletes alerts that expired at or before now.
func (s *Store) PruneAlerts(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, "DELETE FROM alerts WHERE expires_at IS NOT NULL AND expires_at <= ?", formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("prune alerts: %w", err)
	}
	return res.RowsAffected()
}

// ClearAlerts deletes alerts of the given kinds, or all alerts when none are
// given.
func (s *Store) ClearAlerts(ctx context.Context, kinds ...services.Kind) error {
	if len(kinds) == 0 {
		_, err := s.exec(ctx, "DELETE FROM alerts")
		return err
	}
	for _, kind := range kinds {
		if _, err := s.exec(ctx, "DELETE FROM alerts WHERE kind = ?", string(kind)); err != nil {
			return fmt.Errorf("clear %s alerts: %w", kind, err)
		}
	}
	return nil
}

// Timestamps are stored as fixed-width UTC strings so they compare correctly
// as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
