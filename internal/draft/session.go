package draft

import (
	"time"

	"meal-planner/internal/planner"

	"github.com/google/uuid"
)

// Session is a user's plan in progress for one week.
type Session struct {
	ID        string
	UserID    string
	WeekStart time.Time
	Store     planner.Store
	Locked    planner.LockedDays
	UpdatedAt time.Time
}

// NewSession starts an empty draft for the week.
func NewSession(userID string, weekStart time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		WeekStart: weekStart,
		Store:     planner.NewStore(),
		Locked:    planner.LockedDays{},
	}
}
