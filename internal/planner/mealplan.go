package planner

import "time"

// PlanStatus represents the lifecycle state of a meal plan.
type PlanStatus string

const (
	StatusDraft PlanStatus = "DRAFT"
	StatusFinal PlanStatus = "FINAL"
)

// MealPlan is a week of assignments handed to the plan store.
type MealPlan struct {
	ID        int64      `json:"id,omitempty"`
	UserID    string     `json:"user_id"`
	WeekStart time.Time  `json:"week_start"`
	Status    PlanStatus `json:"status"`
	Store     Store      `json:"store"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// GetNextMonday returns the Monday after now, at midnight UTC.
func GetNextMonday(now time.Time) time.Time {
	now = now.UTC()
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStartOf returns the Monday of the week containing t, at midnight UTC.
func WeekStartOf(t time.Time) time.Time {
	t = t.UTC()
	back := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -back)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
