package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	// Start each case from a known-empty environment and a directory without .env.
	reset := func(t *testing.T) {
		t.Helper()
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(t.TempDir()); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chdir(wd) })
		for _, key := range []string{
			"DATABASE_PATH", "GHOST_API_URL", "GHOST_CONTENT_API_KEY", "GHOST_ADMIN_API_KEY",
			"GROQ_API_KEY", "GEMINI_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_URL",
			"TELEGRAM_ALLOWED_USER_IDS", "ADMIN_TELEGRAM_ID", "PORT",
		} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		reset(t)

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "data/meal_planner.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
		}
	})

	t.Run("Success", func(t *testing.T) {
		reset(t)
		setEnv("GHOST_API_URL", "http://ghost.test/")
		setEnv("GHOST_CONTENT_API_KEY", "ghost_key")
		setEnv("GROQ_API_KEY", "groq_key")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "12, 34")
		setEnv("ADMIN_TELEGRAM_ID", "12")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GhostURL != "http://ghost.test" {
			t.Errorf("Expected GhostURL to be 'http://ghost.test', got '%s'", cfg.GhostURL)
		}
		if cfg.GhostAdminKey != "ghost_key" {
			t.Errorf("Expected GhostAdminKey to fall back to 'ghost_key', got '%s'", cfg.GhostAdminKey)
		}
		if cfg.GroqAPIKey != "groq_key" {
			t.Errorf("Expected GroqAPIKey to be 'groq_key', got '%s'", cfg.GroqAPIKey)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || !cfg.IsAllowed(34) || cfg.IsAllowed(56) {
			t.Errorf("Expected allowed users [12 34], got %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 12 {
			t.Errorf("Expected AdminTelegramID 12, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("DotEnvFile", func(t *testing.T) {
		reset(t)
		if err := os.WriteFile(".env", []byte("DATABASE_PATH=/tmp/from-dotenv.db\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Unsetenv("DATABASE_PATH") })

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "/tmp/from-dotenv.db" {
			t.Errorf("Expected DatabasePath from .env, got '%s'", cfg.DatabasePath)
		}
	})

	t.Run("MissingGhostContentKey", func(t *testing.T) {
		reset(t)
		setEnv("GHOST_API_URL", "http://ghost.test")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GHOST_CONTENT_API_KEY, got nil")
		}
		expectedError := "GHOST_CONTENT_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidAllowedUserIDs", func(t *testing.T) {
		reset(t)
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "12,abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid TELEGRAM_ALLOWED_USER_IDS, got nil")
		}
	})

	t.Run("RequireTelegram", func(t *testing.T) {
		reset(t)
		cfg, _ := NewFromEnv()
		expectedError := "TELEGRAM_BOT_TOKEN environment variable not set"
		if err := cfg.RequireTelegram(); err == nil || err.Error() != expectedError {
			t.Errorf("Expected error '%s', got %v", expectedError, err)
		}
	})
}
