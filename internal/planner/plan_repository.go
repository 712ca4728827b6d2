package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	weekLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// PlanRepository is the plan-commit store. It is the source of truth for weeks that
// have been finalized; swaps on those weeks are applied here, not on a draft.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts or replaces the plan for the user's week.
func (r *PlanRepository) Save(ctx context.Context, plan *MealPlan) error {
	data, err := json.Marshal(plan.Store)
	if err != nil {
		return fmt.Errorf("failed to marshal plan store: %w", err)
	}
	status := plan.Status
	if status == "" {
		status = StatusFinal
	}
	now := time.Now().UTC().Format(timestampLayout)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (user_id, week_start, status, plan_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			status = excluded.status,
			plan_data = excluded.plan_data,
			updated_at = excluded.updated_at`,
		plan.UserID, plan.WeekStart.Format(weekLayout), string(status), string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan for user %s: %w", plan.UserID, err)
	}
	return nil
}

// GetForWeek returns the committed plan for a week, or nil when none exists.
func (r *PlanRepository) GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, status, plan_data, created_at, updated_at
		FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, weekStart.Format(weekLayout),
	)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal plan for user %s: %w", userID, err)
	}
	return plan, nil
}

// ExistsForWeek reports whether a plan was committed for the week.
func (r *PlanRepository) ExistsForWeek(ctx context.Context, userID string, weekStart time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, weekStart.Format(weekLayout),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check meal plan for user %s: %w", userID, err)
	}
	return n > 0, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, week_start, status, plan_data, created_at, updated_at
		FROM meal_plans WHERE user_id = ? ORDER BY week_start DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []MealPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

// SwapDinners exchanges two dinners of a committed week in one transaction.
// On any failure both days keep their previous assignment.
func (r *PlanRepository) SwapDinners(ctx context.Context, userID string, weekStart time.Time, a, b Day) (retPlan *MealPlan, retErr error) {
	if a == b {
		return nil, fmt.Errorf("%w: cannot swap %s with itself", ErrInvalidInput, a)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, status, plan_data, created_at, updated_at
		FROM meal_plans WHERE user_id = ? AND week_start = ?`,
		userID, weekStart.Format(weekLayout),
	)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no plan committed for week %s", ErrInvalidInput, weekStart.Format(weekLayout))
		}
		return nil, fmt.Errorf("failed to load meal plan for swap: %w", err)
	}

	swapped, err := Swap(plan.Store, a, b)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(swapped)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swapped plan: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE meal_plans SET plan_data = ?, updated_at = ? WHERE id = ?`,
		string(data), now.Format(timestampLayout), plan.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to write swapped plan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit swap: %w", err)
	}

	plan.Store = swapped
	plan.UpdatedAt = now
	return plan, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*MealPlan, error) {
	var plan MealPlan
	var week, status, data, created, updated string
	if err := row.Scan(&plan.ID, &plan.UserID, &week, &status, &data, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if plan.WeekStart, err = time.Parse(weekLayout, week); err != nil {
		return nil, fmt.Errorf("invalid week_start %q: %w", week, err)
	}
	plan.Status = PlanStatus(status)
	if err := json.Unmarshal([]byte(data), &plan.Store); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan data: %w", err)
	}
	plan.CreatedAt, _ = time.Parse(timestampLayout, created)
	plan.UpdatedAt, _ = time.Parse(timestampLayout, updated)
	return &plan, nil
}
