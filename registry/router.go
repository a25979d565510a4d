package registry

import "strings"

// Category tags the outcome of goal routing. Routing is an explicit pure
// function so dispatch decisions stay testable.
type Category string

const (
	// CategoryResearch covers goals about gathering or looking things up.
	CategoryResearch Category = "research"
	// CategoryPlan covers goals about structuring or scheduling work.
	CategoryPlan Category = "plan"
	// CategoryExecute covers goals about performing concrete actions.
	CategoryExecute Category = "execute"
	// CategoryGeneralist is the fallback when no keyword matches.
	CategoryGeneralist Category = "generalist"
)

// categoryKeywords maps routing categories to their trigger keywords.
// Matching is case-insensitive substring matching, first category wins in
// declaration order so routing stays deterministic.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryResearch, []string{"research", "find", "search", "look up", "investigate", "gather", "analyze"}},
	{CategoryPlan, []string{"plan", "schedule", "organize", "prioritize", "break down", "outline"}},
	{CategoryExecute, []string{"execute", "create", "complete", "update", "delete", "send", "run", "do "}},
}

// CategorizeGoal classifies a goal text into a routing category. It always
// returns a category; unmatched goals fall back to CategoryGeneralist.
func CategorizeGoal(goal string) Category {
	lowered := strings.ToLower(goal)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(lowered, w) {
				return entry.category
			}
		}
	}
	return CategoryGeneralist
}
