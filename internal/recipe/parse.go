package recipe

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PostData is the raw published form of a recipe.
type PostData struct {
	ID        string
	Title     string
	UpdatedAt string
	HTML      string
	Tags      []string
}

// FromPost builds a catalog recipe from a published post. Ingredients are the list
// items following an "Ingredients" heading, or every unordered list item when the
// post has no such heading.
func FromPost(post PostData) (Recipe, error) {
	rec := Recipe{
		ID:        post.ID,
		Title:     strings.TrimSpace(post.Title),
		UpdatedAt: post.UpdatedAt,
	}
	if rec.ID == "" || rec.Title == "" {
		return Recipe{}, fmt.Errorf("post is missing id or title")
	}

	seen := make(map[MealType]bool)
	for _, tag := range post.Tags {
		if mt, ok := ParseMealType(tag); ok && !seen[mt] {
			seen[mt] = true
			rec.MealTypes = append(rec.MealTypes, mt)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(post.HTML))
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to parse post html: %w", err)
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(h.Text()), "ingredient") {
			return true
		}
		h.NextAllFiltered("ul").First().Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				rec.Ingredients = append(rec.Ingredients, text)
			}
		})
		return false
	})
	if len(rec.Ingredients) == 0 {
		doc.Find("ul li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				rec.Ingredients = append(rec.Ingredients, text)
			}
		})
	}

	text := doc.Text()
	if i := strings.Index(text, "Prep Time:"); i >= 0 {
		rest := strings.TrimSpace(text[i+len("Prep Time:"):])
		if j := strings.IndexAny(rest, "|\n"); j >= 0 {
			rest = rest[:j]
		}
		rec.PrepTime = strings.TrimSpace(rest)
	}
	return rec, nil
}
