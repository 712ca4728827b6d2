package clipper

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// RecipeSaver stores a clipped recipe in the local catalog.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	ghostClient ghost.Client
	textGen     llm.TextGenerator
	recipes     RecipeSaver
	httpClient  *http.Client
}

// ExtractedRecipe represents the data structured by the AI.
type ExtractedRecipe struct {
	Title       string
	Ingredients []string
	Steps       []string
	PrepTime    string
	Servings    string
	MealType    string
}

// Result is a clipped recipe together with the post it was published as.
type Result struct {
	Post   *ghost.Post
	Recipe recipe.Recipe
	Meta   shared.AgentMeta
}

// NewClipper creates a new Clipper instance. recipes may be nil.
func NewClipper(ghostClient ghost.Client, textGen llm.TextGenerator, recipes RecipeSaver) *Clipper {
	return &Clipper{
		ghostClient: ghostClient,
		textGen:     textGen,
		recipes:     recipes,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, publishes it to Ghost and
// adds it to the catalog so the next allocation can pick it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Result, error) {
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, buildPrompt(content))
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	meta := shared.AgentMeta{AgentName: "Clipper", Usage: resp.Usage, Latency: time.Since(start)}

	extracted, err := parseExtraction(resp.Content)
	if err != nil {
		return &Result{Meta: meta}, err
	}

	var tags []string
	if mt, ok := recipe.ParseMealType(extracted.MealType); ok {
		tags = append(tags, string(mt))
	}

	post, err := c.ghostClient.CreatePost(ctx, extracted.Title, formatToHTML(extracted, url), tags, true)
	if err != nil {
		return &Result{Meta: meta}, fmt.Errorf("failed to save to ghost: %w", err)
	}

	updatedAt := post.UpdatedAt
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	rec, err := recipe.FromPost(recipe.PostData{
		ID:        post.ID,
		Title:     post.Title,
		UpdatedAt: updatedAt,
		HTML:      post.HTML,
		Tags:      tags,
	})
	if err != nil {
		return &Result{Post: post, Meta: meta}, fmt.Errorf("failed to convert clipped post: %w", err)
	}
	if len(rec.Ingredients) == 0 {
		rec.Ingredients = extracted.Ingredients
	}
	if rec.PrepTime == "" {
		rec.PrepTime = extracted.PrepTime
	}

	if c.recipes != nil {
		if err := c.recipes.Save(ctx, rec); err != nil {
			log.Printf("Warning: clipped recipe %q published but not cataloged: %v", rec.Title, err)
		}
	}

	return &Result{Post: post, Recipe: rec, Meta: meta}, nil
}

func buildPrompt(content string) string {
	return fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["item 1", "item 2", ...],
  "steps": ["Step 1 description", "Step 2 description", ...],
  "prep_time": "e.g. 30 mins",
  "servings": "e.g. 4 people",
  "meal_type": "one of dinner, lunch, snack"
}

Page Content:
%s
`, content)
}

// parseExtraction reads the model answer leniently: missing fields stay empty and a
// title is the only hard requirement.
func parseExtraction(raw string) (ExtractedRecipe, error) {
	if !gjson.Valid(raw) {
		return ExtractedRecipe{}, fmt.Errorf("failed to parse AI response: invalid json. Response: %s", raw)
	}
	doc := gjson.Parse(raw)
	r := ExtractedRecipe{
		Title:    strings.TrimSpace(doc.Get("title").String()),
		PrepTime: doc.Get("prep_time").String(),
		Servings: doc.Get("servings").String(),
		MealType: doc.Get("meal_type").String(),
	}
	for _, v := range doc.Get("ingredients").Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			r.Ingredients = append(r.Ingredients, s)
		}
	}
	for _, v := range doc.Get("steps").Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			r.Steps = append(r.Steps, s)
		}
	}
	if r.Title == "" {
		return ExtractedRecipe{}, fmt.Errorf("ai response has no recipe title. Response: %s", raw)
	}
	return r, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()

	return doc.Find("body").Text(), nil
}

func formatToHTML(r ExtractedRecipe, sourceURL string) string {
	var sb strings.Builder
	src := html.EscapeString(sourceURL)
	fmt.Fprintf(&sb, "<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", src, src)

	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(ing))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h2>Instructions</h2><ol>")
	for _, step := range r.Steps {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(step))
	}
	sb.WriteString("</ol>")

	sb.WriteString("<hr>")
	fmt.Fprintf(&sb, "<p><strong>Prep Time:</strong> %s | <strong>Servings:</strong> %s</p>",
		html.EscapeString(r.PrepTime), html.EscapeString(r.Servings))

	return sb.String()
}
