package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/planner"
)

// Repository stores the on-hand leftover meals. The planner only ever sees
// snapshots of it; quantities change here, outside any allocation pass.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new inventory Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Upsert adds an item or updates its quantity and location. New items are
// appended to the end of the snapshot order.
func (r *Repository) Upsert(ctx context.Context, item planner.InventoryMealItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: item name is empty", planner.ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: quantity for %s must not be negative", planner.ErrInvalidInput, item.Name)
	}
	if _, err := planner.ParseLocation(string(item.Location)); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_items (name, quantity, location, position, updated_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM inventory_items), ?)
		ON CONFLICT (name) DO UPDATE SET
			quantity = excluded.quantity,
			location = excluded.location,
			updated_at = excluded.updated_at`,
		item.Name, item.Quantity, string(item.Location), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save inventory item %s: %w", item.Name, err)
	}
	return nil
}

// Get returns a single item, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, name string) (*planner.InventoryMealItem, error) {
	var item planner.InventoryMealItem
	var location string
	err := r.db.QueryRowContext(ctx,
		`SELECT name, quantity, location FROM inventory_items WHERE name = ?`,
		strings.TrimSpace(name),
	).Scan(&item.Name, &item.Quantity, &location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get inventory item %s: %w", name, err)
	}
	item.Location = planner.Location(location)
	return &item, nil
}

// Remove deletes an item.
func (r *Repository) Remove(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE name = ?`, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("failed to remove inventory item %s: %w", name, err)
	}
	return nil
}

// List returns every item in insertion order, including exhausted ones.
func (r *Repository) List(ctx context.Context) ([]planner.InventoryMealItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, quantity, location FROM inventory_items ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []planner.InventoryMealItem
	for rows.Next() {
		var item planner.InventoryMealItem
		var location string
		if err := rows.Scan(&item.Name, &item.Quantity, &location); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		item.Location = planner.Location(location)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Snapshot returns the inventory for one allocation pass. The returned slice is a
// copy the caller owns; failures are reported as external service errors.
func (r *Repository) Snapshot(ctx context.Context) ([]planner.InventoryMealItem, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planner.ErrExternalService, err)
	}
	return items, nil
}
