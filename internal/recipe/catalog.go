package recipe

import "strings"

// Catalog is an in-memory name to id index over a set of recipes.
type Catalog struct {
	byName map[string]string
}

// NewCatalog indexes the recipes by normalized title. The first recipe wins when
// two share a title.
func NewCatalog(recipes []Recipe) *Catalog {
	c := &Catalog{byName: make(map[string]string, len(recipes))}
	for _, r := range recipes {
		key := normalizeTitle(r.Title)
		if key == "" {
			continue
		}
		if _, exists := c.byName[key]; !exists {
			c.byName[key] = r.ID
		}
	}
	return c
}

// ResolveRecipe returns the id of the recipe whose title matches name,
// ignoring case and surrounding whitespace.
func (c *Catalog) ResolveRecipe(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.byName[normalizeTitle(name)]
	return id, ok
}

// Len returns the number of indexed titles.
func (c *Catalog) Len() int {
	return len(c.byName)
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
