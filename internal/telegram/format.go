package telegram

import (
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/planner"
)

var slotIcons = map[planner.SlotType]string{
	planner.Dinner:      "🍽",
	planner.Lunch:       "🥪",
	planner.SchoolSnack: "🎒",
	planner.HomeSnack:   "🏠",
}

var markdownEscaper = strings.NewReplacer("*", "", "_", " ", "`", "'", "[", "(", "]", ")")

// escapeMarkdown strips the characters legacy Markdown would interpret.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// formatWeekMarkdown renders the week grid: dinner every day, lunch and snacks on
// weekdays. Confirmed cells get a check mark and locked days a padlock.
func formatWeekMarkdown(title string, weekStart time.Time, store planner.Store, locked planner.LockedDays, over []planner.OverAllocation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *%s* (week of %s)\n", title, weekStart.Format("2006-01-02"))

	for _, d := range planner.Week {
		sb.WriteString("\n*" + d.Name() + "*")
		if locked.Has(d) {
			sb.WriteString(" 🔒")
		}
		sb.WriteString("\n")
		for _, st := range []planner.SlotType{planner.Dinner, planner.Lunch, planner.SchoolSnack, planner.HomeSnack} {
			k := planner.Key(d, st)
			if k.Validate() != nil {
				continue
			}
			sb.WriteString(slotIcons[st] + " " + cellMarkdown(store.Cell(k)) + "\n")
		}
	}

	if len(over) > 0 {
		sb.WriteString("\n⚠️ *Over-allocated leftovers*\n")
		for _, o := range over {
			fmt.Fprintf(&sb, "• %s: %d assigned, %d on hand\n", escapeMarkdown(o.ItemName), o.Assigned, o.Available)
		}
	}
	return sb.String()
}

func cellMarkdown(c planner.Cell) string {
	var text string
	switch c.Kind {
	case planner.CellEmpty:
		return "_open_"
	case planner.CellLeftover:
		text = "♻️ " + escapeMarkdown(c.Label())
	default:
		text = escapeMarkdown(c.Label())
	}
	if c.Confirmed {
		text += " ✅"
	}
	return text
}

func formatInventoryMarkdown(items []planner.InventoryMealItem) string {
	if len(items) == 0 {
		return "🧊 *Inventory*\n\n_Nothing in stock_"
	}
	var sb strings.Builder
	sb.WriteString("🧊 *Inventory*\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "• %s: %d (%s)\n", escapeMarkdown(item.Name), item.Quantity, item.Location)
	}
	return sb.String()
}

func formatAllocationSummary(report planner.AllocationReport, warnings []error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Filled %d %s slot(s).", len(report.Filled), report.Phase)
	if len(report.Unassigned) > 0 {
		keys := make([]string, 0, len(report.Unassigned))
		for _, k := range report.Unassigned {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(&sb, "\n⚠️ No candidate for: %s", escapeMarkdown(strings.Join(keys, ", ")))
	}
	for _, w := range warnings {
		fmt.Fprintf(&sb, "\n⚠️ Skipped %s", escapeMarkdown(w.Error()))
	}
	return sb.String()
}

func formatHistoryMarkdown(plans []planner.MealPlan) string {
	if len(plans) == 0 {
		return "📚 *History*\n\n_No final plans yet_"
	}
	var sb strings.Builder
	sb.WriteString("📚 *History*\n")
	for _, p := range plans {
		fmt.Fprintf(&sb, "\n*Week of %s*\n", p.WeekStart.Format("2006-01-02"))
		for _, d := range planner.Week {
			fmt.Fprintf(&sb, "• %s: %s\n", d.Name(), cellMarkdown(p.Store.Cell(planner.Key(d, planner.Dinner))))
		}
	}
	return sb.String()
}
