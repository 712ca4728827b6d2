package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-planner/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

func TestFetchRecipes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "test_key" {
				t.Errorf("Expected key 'test_key', got '%s'", r.URL.Query().Get("key"))
			}
			if r.URL.Query().Get("include") != "tags" {
				t.Errorf("Expected tags to be included, got '%s'", r.URL.Query().Get("include"))
			}

			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{
				"posts": [
					{"id": "1", "title": "Recipe 1", "html": "<h1>Recipe 1</h1>", "updated_at": "2023-10-27T10:00:00Z",
					 "tags": [{"name": "Dinner", "slug": "dinner"}]},
					{"id": "2", "title": "Recipe 2", "html": "<h1>Recipe 2</h1>", "updated_at": "2023-10-28T10:00:00Z"}
				],
				"meta": {"pagination": {"page": 1, "limit": "all", "pages": 1, "total": 2}}
			}`)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostContentKey: "test_key"})

		posts, err := client.FetchRecipes(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("Expected 2 posts, got %d", len(posts))
		}
		if names := posts[0].TagNames(); len(names) != 1 || names[0] != "Dinner" {
			t.Errorf("Expected tag Dinner, got %v", names)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostContentKey: "test_key"})

		if _, err := client.FetchRecipes(context.Background()); err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})
}

func TestCreatePost(t *testing.T) {
	secret := "a1b2c3d4"
	adminKey := "key-id:" + secret

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Ghost ")
			token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
				if tok.Header["kid"] != "key-id" {
					t.Errorf("Expected kid 'key-id', got '%v'", tok.Header["kid"])
				}
				return hex.DecodeString(secret)
			}, jwt.WithAudience("/v3/admin/"))
			if err != nil || !token.Valid {
				t.Errorf("Expected a valid admin token, got %v", err)
			}

			var body struct {
				Posts []struct {
					Title  string `json:"title"`
					Status string `json:"status"`
					Tags   []Tag  `json:"tags"`
				} `json:"posts"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body.Posts[0].Status != "published" {
				t.Errorf("Expected status published, got %s", body.Posts[0].Status)
			}
			if len(body.Posts[0].Tags) != 1 || body.Posts[0].Tags[0].Name != "Lunch" {
				t.Errorf("Expected tag Lunch, got %v", body.Posts[0].Tags)
			}

			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"posts": [{"id": "99", "title": %q, "html": "<p></p>"}]}`, body.Posts[0].Title)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostAdminKey: adminKey})
		post, err := client.CreatePost(context.Background(), "Soup", "<p></p>", []string{"Lunch"}, true)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if post.ID != "99" || post.Title != "Soup" {
			t.Errorf("Unexpected post: %+v", post)
		}
	})

	t.Run("InvalidAdminKey", func(t *testing.T) {
		client := NewClient(&config.Config{GhostURL: "http://localhost", GhostAdminKey: "no-secret"})
		if _, err := client.CreatePost(context.Background(), "Soup", "", nil, false); err == nil {
			t.Fatal("Expected an error for a malformed admin key, got nil")
		}
	})
}
