package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"
)

// --- Mocks ---
type MockGhostClient struct {
	CreatedPost *ghost.Post
	Tags        []string
	ShouldError bool
}

func (m *MockGhostClient) FetchRecipes(ctx context.Context) ([]ghost.Post, error) {
	return nil, nil
}

func (m *MockGhostClient) CreatePost(ctx context.Context, title, html string, tags []string, publish bool) (*ghost.Post, error) {
	if m.ShouldError {
		return nil, fmt.Errorf("mock error")
	}
	m.Tags = tags
	m.CreatedPost = &ghost.Post{ID: "123", Title: title, HTML: html, UpdatedAt: "2026-01-02T10:00:00Z"}
	return m.CreatedPost, nil
}

type MockTextGenerator struct {
	Response    string
	ShouldError bool
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response, Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5}}, nil
}

type MockRecipeSaver struct {
	Saved []recipe.Recipe
}

func (m *MockRecipeSaver) Save(ctx context.Context, rec recipe.Recipe) error {
	m.Saved = append(m.Saved, rec)
	return nil
}

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Tasty Recipe</h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix flour and water.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`
		w.Write([]byte(html))
	}))
	defer ts.Close()

	c := NewClipper(&MockGhostClient{}, &MockTextGenerator{}, nil)

	cleanText, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(cleanText, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(cleanText, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(cleanText, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	if !strings.Contains(cleanText, "Tasty Recipe") {
		t.Error("Expected to find 'Tasty Recipe'")
	}
	if !strings.Contains(cleanText, "Mix flour and water.") {
		t.Error("Expected to find body content")
	}
}

func TestFormatToHTML(t *testing.T) {
	r := ExtractedRecipe{
		Title:       "Pancakes",
		Ingredients: []string{"Flour", "Milk & Eggs"},
		Steps:       []string{"Mix", "Fry"},
		PrepTime:    "10m",
		Servings:    "2",
	}

	html := formatToHTML(r, "http://test.com")

	expectedSubstrings := []string{
		"Imported from: <a href=\"http://test.com\">http://test.com</a>",
		"<li>Flour</li>",
		"<li>Milk &amp; Eggs</li>",
		"<li>Mix</li>",
		"<strong>Prep Time:</strong> 10m",
	}

	for _, sub := range expectedSubstrings {
		if !strings.Contains(html, sub) {
			t.Errorf("Expected HTML to contain '%s'", sub)
		}
	}
}

func TestParseExtraction(t *testing.T) {
	t.Run("Lenient", func(t *testing.T) {
		r, err := parseExtraction(`{"title": " Soup ", "ingredients": ["Leek", ""], "servings": 4}`)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if r.Title != "Soup" || len(r.Ingredients) != 1 || r.Servings != "4" {
			t.Errorf("Unexpected extraction: %+v", r)
		}
	})

	t.Run("MissingTitle", func(t *testing.T) {
		if _, err := parseExtraction(`{"ingredients": ["Leek"]}`); err == nil {
			t.Error("Expected an error for a missing title")
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		if _, err := parseExtraction(`not json`); err == nil {
			t.Error("Expected an error for invalid json")
		}
	})
}

func TestClipURL_Success(t *testing.T) {
	aiResponse := `{"title": "Mock Pie", "ingredients": ["Apple"], "steps": ["Bake"], "prep_time": "1h", "servings": "8", "meal_type": "Dinner"}`

	mockGhost := &MockGhostClient{}
	saver := &MockRecipeSaver{}
	c := NewClipper(mockGhost, &MockTextGenerator{Response: aiResponse}, saver)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Some Content</body></html>"))
	}))
	defer ts.Close()

	res, err := c.ClipURL(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}

	if res.Post.Title != "Mock Pie" {
		t.Errorf("Expected title 'Mock Pie', got '%s'", res.Post.Title)
	}
	if mockGhost.CreatedPost == nil {
		t.Fatal("Expected Ghost CreatePost to be called")
	}
	if !strings.Contains(mockGhost.CreatedPost.HTML, "Apple") {
		t.Error("Expected HTML content to contain extracted ingredients")
	}
	if len(mockGhost.Tags) != 1 || mockGhost.Tags[0] != "dinner" {
		t.Errorf("Expected dinner tag, got %v", mockGhost.Tags)
	}
	if len(saver.Saved) != 1 {
		t.Fatalf("Expected the recipe to be cataloged, got %d saves", len(saver.Saved))
	}
	if !saver.Saved[0].Has(recipe.MealDinner) || saver.Saved[0].PrepTime != "1h" {
		t.Errorf("Unexpected cataloged recipe: %+v", saver.Saved[0])
	}
	if res.Meta.AgentName != "Clipper" || res.Meta.Usage.PromptTokens != 10 {
		t.Errorf("Unexpected meta: %+v", res.Meta)
	}
}

func TestClipURL_GhostError(t *testing.T) {
	saver := &MockRecipeSaver{}
	c := NewClipper(&MockGhostClient{ShouldError: true}, &MockTextGenerator{Response: `{"title": "Pie"}`}, saver)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Pie</body></html>"))
	}))
	defer ts.Close()

	if _, err := c.ClipURL(context.Background(), ts.URL); err == nil {
		t.Fatal("Expected an error when Ghost fails")
	}
	if len(saver.Saved) != 0 {
		t.Error("Expected nothing cataloged when publishing fails")
	}
}
