package database

import (
	"path/filepath"
	"testing"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "planner.db")

	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}

	for _, table := range []string{"recipes", "inventory_items", "draft_sessions", "meal_plans", "execution_metrics"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table '%s' to exist, got error: %v", table, err)
		}
	}
	db.Close()

	t.Run("Reopen", func(t *testing.T) {
		again, err := NewDB(path)
		if err != nil {
			t.Fatalf("Expected migrations to be idempotent, got %v", err)
		}
		again.Close()
	})
}
