package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-planner/internal/planner"
)

const (
	weekLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Repository persists draft sessions, one per user and week.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Get returns the user's draft for the week, or nil if none exists.
func (r *Repository) Get(ctx context.Context, userID string, weekStart time.Time) (*Session, error) {
	var id, store, locked, updated string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, store, locked_days, updated_at FROM draft_sessions
		WHERE user_id = ? AND week_start = ?`,
		userID, weekStart.Format(weekLayout),
	).Scan(&id, &store, &locked, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get draft for user %s: %w", userID, err)
	}

	s := &Session{ID: id, UserID: userID, WeekStart: weekStart, Locked: planner.LockedDays{}}
	if err := json.Unmarshal([]byte(store), &s.Store); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft store: %w", err)
	}
	var days []planner.Day
	if err := json.Unmarshal([]byte(locked), &days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal locked days: %w", err)
	}
	for _, d := range days {
		s.Locked[d] = true
	}
	s.UpdatedAt, _ = time.Parse(timestampLayout, updated)
	return s, nil
}

// Save inserts or replaces the session.
func (r *Repository) Save(ctx context.Context, s *Session) error {
	store, err := json.Marshal(s.Store)
	if err != nil {
		return fmt.Errorf("failed to marshal draft store: %w", err)
	}
	days := s.Locked.Sorted()
	if days == nil {
		days = []planner.Day{}
	}
	locked, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("failed to marshal locked days: %w", err)
	}

	s.UpdatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO draft_sessions (user_id, week_start, id, store, locked_days, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			id = excluded.id,
			store = excluded.store,
			locked_days = excluded.locked_days,
			updated_at = excluded.updated_at`,
		s.UserID, s.WeekStart.Format(weekLayout), s.ID, string(store), string(locked), s.UpdatedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft for user %s: %w", s.UserID, err)
	}
	return nil
}

// Delete removes the user's draft for the week.
func (r *Repository) Delete(ctx context.Context, userID string, weekStart time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM draft_sessions WHERE user_id = ? AND week_start = ?`,
		userID, weekStart.Format(weekLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to delete draft for user %s: %w", userID, err)
	}
	return nil
}
